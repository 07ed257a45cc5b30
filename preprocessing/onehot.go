// Package preprocessing は学習・推論の前段で使う変換器を提供します。
// クラスラベルの one-hot 符号化と画素値のスケーリングを扱います。
package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// OneHotEncoder は整数クラスラベルを one-hot 行列に変換する
// クラス数は事前に固定され、学習は不要
type OneHotEncoder struct {
	// NClasses はクラス数
	NClasses int
}

// NewOneHotEncoder は新しいOneHotEncoderを作成する
//
// パラメータ:
//   - nClasses: クラス数 (2以上)
//
// 使用例:
//
//	enc := preprocessing.NewOneHotEncoder(2)
//	Y, err := enc.Transform([]int{0, 1, 1})
func NewOneHotEncoder(nClasses int) *OneHotEncoder {
	return &OneHotEncoder{NClasses: nClasses}
}

// Transform はラベル列を len(labels) × NClasses の行列に変換する
//
// 戻り値:
//   - *mat.Dense: 各行がちょうど1つの1を持つ行列
//   - error: ラベルが [0, NClasses) の範囲外の場合は ValidationError
func (e *OneHotEncoder) Transform(labels []int) (*mat.Dense, error) {
	if e.NClasses < 2 {
		return nil, errors.NewValidationError("n_classes", "must be at least 2", e.NClasses)
	}
	if len(labels) == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty data", errors.ErrEmptyData)
	}

	out := mat.NewDense(len(labels), e.NClasses, nil)
	for i, label := range labels {
		if label < 0 || label >= e.NClasses {
			return nil, errors.NewValidationError("label",
				fmt.Sprintf("must be in [0, %d)", e.NClasses), label)
		}
		out.Set(i, label, 1)
	}
	return out, nil
}

// InverseTransform は各行の argmax を取り、ラベル列に戻す
// 確率行列（softmax 出力）にもそのまま使える
func (e *OneHotEncoder) InverseTransform(m mat.Matrix) ([]int, error) {
	r, c := m.Dims()
	if c != e.NClasses {
		return nil, errors.NewDimensionError("OneHotEncoder.InverseTransform", e.NClasses, c, 1)
	}

	labels := make([]int, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		labels[i] = floats.MaxIdx(row)
	}
	return labels, nil
}

// String はエンコーダの文字列表現を返す
func (e *OneHotEncoder) String() string {
	return fmt.Sprintf("OneHotEncoder(n_classes=%d)", e.NClasses)
}
