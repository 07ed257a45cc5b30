package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/petclassifier/core/tensor"
)

// MaxPixelValue は8bit画像の最大画素値
const MaxPixelValue = 255.0

// PixelScaler は画素値を [0, 255] から [0, 1] に線形変換する
// データ範囲が既知なので Fit は不要で、学習時と推論時に同じ変換を適用する
type PixelScaler struct {
	// Max は入力の最大値 (デフォルト: 255)
	Max float64
}

// NewPixelScaler はデフォルト設定([0,255]入力)でPixelScalerを作成する
func NewPixelScaler() *PixelScaler {
	return &PixelScaler{Max: MaxPixelValue}
}

func (s *PixelScaler) max() float64 {
	if s.Max <= 0 {
		return MaxPixelValue
	}
	return s.Max
}

// Transform は行列の全要素を Max で割った新しい行列を返す
//
// パラメータ:
//   - X: 画素行列 (n_samples × H*W*C)
//
// 戻り値:
//   - *mat.Dense: スケーリングされた行列
func (s *PixelScaler) Transform(X mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(1/s.max(), X)
	return &out
}

// TransformImage は1枚の画像をスケーリングしたコピーを返す
// 元の画像は変更しない
func (s *PixelScaler) TransformImage(im *tensor.Image) *tensor.Image {
	out := im.Clone()
	inv := 1 / s.max()
	for i := range out.Pix {
		out.Pix[i] *= inv
	}
	return out
}

// InverseTransform はスケーリングを元に戻す
func (s *PixelScaler) InverseTransform(X mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(s.max(), X)
	return &out
}

// String はスケーラーの文字列表現を返す
func (s *PixelScaler) String() string {
	return fmt.Sprintf("PixelScaler(max=%.0f)", s.max())
}
