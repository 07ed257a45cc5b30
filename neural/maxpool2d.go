package neural

import "math"

// MaxPool2D takes the maximum over non-overlapping size×size windows.
// Trailing rows and columns that do not fill a window are dropped.
type MaxPool2D struct {
	inH, inW, c int
	size        int
	outH, outW  int
}

func newMaxPool2D(h, w, c, size int) *MaxPool2D {
	return &MaxPool2D{inH: h, inW: w, c: c, size: size, outH: h / size, outW: w / size}
}

func (l *MaxPool2D) Spec() LayerSpec { return LayerSpec{Kind: KindMaxPool2D, Pool: l.size} }

func (l *MaxPool2D) OutputDims() []int { return []int{l.outH, l.outW, l.c} }

func (l *MaxPool2D) Params() [][]float64 { return nil }

func (l *MaxPool2D) Forward(x []float64) []float64 {
	y := make([]float64, l.outH*l.outW*l.c)
	for oy := 0; oy < l.outH; oy++ {
		for ox := 0; ox < l.outW; ox++ {
			for ch := 0; ch < l.c; ch++ {
				m := math.Inf(-1)
				for dy := 0; dy < l.size; dy++ {
					for dx := 0; dx < l.size; dx++ {
						v := x[((oy*l.size+dy)*l.inW+ox*l.size+dx)*l.c+ch]
						if v > m {
							m = v
						}
					}
				}
				y[(oy*l.outW+ox)*l.c+ch] = m
			}
		}
	}
	return y
}

// Backward routes each output gradient to the first input that attained the
// window maximum.
func (l *MaxPool2D) Backward(x, y, dy []float64, _ [][]float64) []float64 {
	dx := make([]float64, len(x))
	for oy := 0; oy < l.outH; oy++ {
		for ox := 0; ox < l.outW; ox++ {
			for ch := 0; ch < l.c; ch++ {
				o := (oy*l.outW+ox)*l.c + ch
			window:
				for wy := 0; wy < l.size; wy++ {
					for wx := 0; wx < l.size; wx++ {
						i := ((oy*l.size+wy)*l.inW+ox*l.size+wx)*l.c + ch
						if x[i] == y[o] {
							dx[i] += dy[o]
							break window
						}
					}
				}
			}
		}
	}
	return dx
}
