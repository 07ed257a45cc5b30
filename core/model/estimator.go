package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	// X は1行1サンプル、y はone-hot化されたラベル行列
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は各サンプルのクラスインデックスを n×1 行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ProbaPredictor はクラス確率を返すモデルのインターフェース
type ProbaPredictor interface {
	// PredictProba は各サンプルのクラス確率を n×クラス数 の行列で返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}
