package neural

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// matrixPool recycles fixed-size scratch matrices to reduce GC pressure.
// Every matrix handed out has the same dimensions; contents are not cleared
// between uses, so callers must overwrite every element.
type matrixPool struct {
	rows, cols int
	pool       sync.Pool

	created  atomic.Int64
	recycled atomic.Int64
}

// poolStats reports how often scratch matrices were allocated and reused.
type poolStats struct {
	Created  int64
	Recycled int64
}

func newMatrixPool(rows, cols int) *matrixPool {
	mp := &matrixPool{rows: rows, cols: cols}
	mp.pool.New = func() any {
		mp.created.Add(1)
		return mat.NewDense(rows, cols, nil)
	}
	return mp
}

func (mp *matrixPool) get() *mat.Dense {
	return mp.pool.Get().(*mat.Dense)
}

func (mp *matrixPool) put(m *mat.Dense) {
	if m == nil {
		return
	}
	if r, c := m.Dims(); r != mp.rows || c != mp.cols {
		return
	}
	mp.recycled.Add(1)
	mp.pool.Put(m)
}

func (mp *matrixPool) stats() poolStats {
	return poolStats{Created: mp.created.Load(), Recycled: mp.recycled.Load()}
}
