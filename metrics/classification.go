// Package metrics は分類モデルの評価指標を提供します。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// DefaultEpsilon は対数損失で確率をクリップする下限値
const DefaultEpsilon = 1e-7

// Accuracy は正解ラベルと予測ラベルの一致率を計算する
func Accuracy(yTrue, yPred []int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewModelError("Accuracy", "empty data", errors.ErrEmptyData)
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("Accuracy", n, len(yPred), 0)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// CategoricalAccuracy は one-hot 正解行列と確率行列の行ごとの argmax を比較する
func CategoricalAccuracy(yTrue, yProba mat.Matrix) (float64, error) {
	r, c, err := checkSameDims("CategoricalAccuracy", yTrue, yProba)
	if err != nil {
		return 0, err
	}

	t := make([]float64, c)
	p := make([]float64, c)
	correct := 0
	for i := 0; i < r; i++ {
		mat.Row(t, i, yTrue)
		mat.Row(p, i, yProba)
		if floats.MaxIdx(t) == floats.MaxIdx(p) {
			correct++
		}
	}
	return float64(correct) / float64(r), nil
}

// CategoricalCrossEntropy は one-hot 正解と予測確率の平均交差エントロピーを計算する
// 予測確率は [eps, 1-eps] にクリップされる
//
//	loss = -(1/n) Σ_i Σ_k t_ik log(p_ik)
func CategoricalCrossEntropy(yTrue, yProba mat.Matrix) (float64, error) {
	r, c, err := checkSameDims("CategoricalCrossEntropy", yTrue, yProba)
	if err != nil {
		return 0, err
	}

	t := make([]float64, c)
	p := make([]float64, c)
	var sum float64
	for i := 0; i < r; i++ {
		mat.Row(t, i, yTrue)
		mat.Row(p, i, yProba)
		sum += SampleCrossEntropy(t, p)
	}

	loss := sum / float64(r)
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return 0, errors.NewNumericalInstabilityError("categorical_crossentropy", []float64{loss}, 0)
	}
	return loss, nil
}

// SampleCrossEntropy は1サンプル分の交差エントロピーを返す
// 長さの検証は呼び出し側の責任
func SampleCrossEntropy(target, proba []float64) float64 {
	var loss float64
	for k, t := range target {
		if t == 0 {
			continue
		}
		loss -= t * math.Log(errors.ClipProbability(proba[k], DefaultEpsilon))
	}
	return loss
}

// ConfusionMatrix は nClasses × nClasses の混同行列を返す
// 行が正解ラベル、列が予測ラベル
func ConfusionMatrix(yTrue, yPred []int, nClasses int) (*mat.Dense, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewModelError("ConfusionMatrix", "empty data", errors.ErrEmptyData)
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("ConfusionMatrix", len(yTrue), len(yPred), 0)
	}

	cm := mat.NewDense(nClasses, nClasses, nil)
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= nClasses || p < 0 || p >= nClasses {
			return nil, errors.NewValidationError("label", "out of range for confusion matrix", [2]int{t, p})
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}

func checkSameDims(op string, a, b mat.Matrix) (int, int, error) {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra == 0 || ca == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ra != rb {
		return 0, 0, errors.NewDimensionError(op, ra, rb, 0)
	}
	if ca != cb {
		return 0, 0, errors.NewDimensionError(op, ca, cb, 1)
	}
	return ra, ca, nil
}
