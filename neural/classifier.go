package neural

import (
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/petclassifier/core/model"
	"github.com/YuminosukeSato/petclassifier/core/parallel"
	"github.com/YuminosukeSato/petclassifier/core/tensor"
	"github.com/YuminosukeSato/petclassifier/metrics"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"github.com/YuminosukeSato/petclassifier/pkg/log"
)

// ModelName はログとエラーで使うモデル名
const ModelName = "CatDogCNN"

// 学習のデフォルト値
const (
	DefaultEpochs    = 10
	DefaultBatchSize = 32
	DefaultSeed      = 42
)

var (
	_ model.TrainableClassifier = (*Classifier)(nil)
	_ model.ImageClassifier     = (*Classifier)(nil)
)

// Classifier はsoftmax出力を持つ畳み込みネットワークによる画像分類器
// 損失は categorical cross-entropy、最適化は Adam
type Classifier struct {
	state *model.StateManager

	// ネットワークと最適化器
	net *Network
	opt *Adam

	classes []string

	// ハイパーパラメータ
	epochs       int     // エポック数
	batchSize    int     // ミニバッチサイズ
	learningRate float64 // Adamの学習率
	seed         uint64  // 初期化とシャッフルの乱数シード
	shuffle      bool    // エポックごとにシャッフルするか

	rng     *rand.Rand
	logger  log.Logger
	history *History
}

// Option はClassifierの設定オプション
type Option func(*Classifier)

// WithEpochs はエポック数を設定
func WithEpochs(n int) Option {
	return func(c *Classifier) {
		c.epochs = n
	}
}

// WithBatchSize はミニバッチサイズを設定
func WithBatchSize(n int) Option {
	return func(c *Classifier) {
		c.batchSize = n
	}
}

// WithLearningRate はAdamの学習率を設定
func WithLearningRate(lr float64) Option {
	return func(c *Classifier) {
		c.learningRate = lr
	}
}

// WithRandomState は乱数シードを設定
func WithRandomState(seed uint64) Option {
	return func(c *Classifier) {
		c.seed = seed
	}
}

// WithShuffle はエポックごとのシャッフル有無を設定
func WithShuffle(shuffle bool) Option {
	return func(c *Classifier) {
		c.shuffle = shuffle
	}
}

// WithLogger はロガーを設定
func WithLogger(l log.Logger) Option {
	return func(c *Classifier) {
		c.logger = l
	}
}

// NewClassifier は任意の層構成で分類器を作成し、重みを Glorot uniform で初期化する
// 最終層の出力数はクラス数と一致しなければならない
func NewClassifier(input tensor.Shape, classes []string, specs []LayerSpec, opts ...Option) (*Classifier, error) {
	if len(classes) < 2 {
		return nil, errors.NewValidationError("classes", "at least two classes are required", classes)
	}

	c := &Classifier{
		state:        model.NewStateManager(),
		classes:      slices.Clone(classes),
		epochs:       DefaultEpochs,
		batchSize:    DefaultBatchSize,
		learningRate: DefaultLearningRate,
		seed:         DefaultSeed,
		shuffle:      true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validateParams(); err != nil {
		return nil, err
	}
	if c.logger == nil {
		c.logger = log.Named("neural.Classifier")
	}

	net, err := NewNetwork(input, specs)
	if err != nil {
		return nil, err
	}
	if net.OutputSize() != len(classes) {
		return nil, errors.NewDimensionError("NewClassifier", len(classes), net.OutputSize(), 1)
	}
	c.net = net
	c.rng = rand.New(rand.NewPCG(c.seed, c.seed))
	c.net.Initialize(c.rng)
	c.opt = NewAdam(c.learningRate)
	return c, nil
}

func (c *Classifier) validateParams() error {
	if c.epochs <= 0 {
		return errors.NewValidationError("epochs", "must be positive", c.epochs)
	}
	if c.batchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be positive", c.batchSize)
	}
	if !(c.learningRate > 0) {
		return errors.NewValidationError("learning_rate", "must be positive", c.learningRate)
	}
	return nil
}

// Classes はクラス名を返す
func (c *Classifier) Classes() []string { return slices.Clone(c.classes) }

// InputShape は入力画像の形状を返す
func (c *Classifier) InputShape() tensor.Shape { return c.net.InputShape() }

// Network は内部のネットワークを返す
func (c *Classifier) Network() *Network { return c.net }

// History は直近の学習履歴を返す
func (c *Classifier) History() *History { return c.history }

// State は学習状態のスナップショットを返す
func (c *Classifier) State() model.ModelState { return c.state.GetState() }

// IsFitted は学習済みかどうかを返す
func (c *Classifier) IsFitted() bool { return c.state.IsFitted() }

// Summary は層構成の表を返す
func (c *Classifier) Summary() string { return c.net.Summary() }

// Fit はモデルを学習させる
// X は1行1画像（HWC順に平坦化、スケーリング済み）、y は one-hot ラベル
func (c *Classifier) Fit(X, y mat.Matrix) error {
	_, err := c.FitValidated(X, y, nil, nil)
	return err
}

// FitValidated は検証データ付きで学習し、エポックごとの履歴を返す
// Xval が nil または0行の場合、検証はスキップされる
func (c *Classifier) FitValidated(X, y, Xval, yval mat.Matrix) (history *History, err error) {
	defer errors.Recover(&err, "Classifier.Fit")

	n, err := c.checkXY("Classifier.Fit", X, y)
	if err != nil {
		return nil, err
	}
	hasVal := Xval != nil && yval != nil
	if hasVal {
		if r, _ := Xval.Dims(); r == 0 {
			hasVal = false
		} else if _, err := c.checkXY("Classifier.Fit validation", Xval, yval); err != nil {
			return nil, err
		}
	}

	c.logger.Info("Starting training",
		log.OperationKey, log.OperationFit,
		log.ModelNameKey, ModelName,
		log.SamplesKey, n,
		log.FeaturesKey, c.net.InputShape().Size(),
		log.EpochsKey, c.epochs,
		log.BatchSizeKey, c.batchSize,
		log.LearningRateKey, c.learningRate,
	)

	history = &History{}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for epoch := 1; epoch <= c.epochs; epoch++ {
		start := time.Now()
		if c.shuffle {
			c.rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		var lossSum float64
		var correct int
		for b := 0; b < n; b += c.batchSize {
			batch := order[b:min(b+c.batchSize, n)]
			l, k, err := c.trainBatch(X, y, batch, epoch)
			if err != nil {
				return history, err
			}
			lossSum += l
			correct += k
		}

		stats := EpochStats{
			Epoch:    epoch,
			Loss:     lossSum / float64(n),
			Accuracy: float64(correct) / float64(n),
		}
		if err := errors.CheckScalar("categorical_crossentropy", stats.Loss, epoch); err != nil {
			return history, err
		}

		if hasVal {
			stats.ValLoss, stats.ValAccuracy, err = c.Evaluate(Xval, yval)
			if err != nil {
				return history, err
			}
			stats.HasValidation = true
		}
		stats.Duration = time.Since(start)
		history.Epochs = append(history.Epochs, stats)

		fields := []any{
			log.EpochKey, epoch,
			log.EpochsKey, c.epochs,
			log.LossKey, stats.Loss,
			log.AccuracyKey, stats.Accuracy,
			log.DurationMsKey, stats.Duration.Milliseconds(),
		}
		if stats.HasValidation {
			fields = append(fields, log.ValLossKey, stats.ValLoss, log.ValAccuracyKey, stats.ValAccuracy)
		}
		c.logger.Info("Epoch completed", fields...)
	}

	c.state.MarkFitted(c.net.InputShape().Size(), n, c.epochs)
	c.history = history
	return history, nil
}

// trainBatch は1ミニバッチ分の勾配をワーカーごとに計算し、
// ワーカー順に合算してから Adam で更新する
// 戻り値はバッチ内の損失の合計と正解数
// 勾配に NaN/Inf が含まれる場合はパラメータを更新せずにエラーを返す
func (c *Classifier) trainBatch(X, y mat.Matrix, batch []int, epoch int) (float64, int, error) {
	workers := parallel.Workers(len(batch))
	grads := make([][][][]float64, workers)
	losses := make([]float64, workers)
	corrects := make([]int, workers)
	for w := range grads {
		grads[w] = c.net.NewGrads()
	}

	size := c.net.InputShape().Size()
	nClasses := len(c.classes)
	err := parallel.Run("Classifier.Fit", len(batch), 1, func(w, start, end int) error {
		x := make([]float64, size)
		t := make([]float64, nClasses)
		for _, i := range batch[start:end] {
			mat.Row(x, i, X)
			mat.Row(t, i, y)
			acts := c.net.Forward(x)
			proba := acts[len(acts)-1]
			loss, dOut := crossEntropy(t, proba)
			losses[w] += loss
			if floats.MaxIdx(proba) == floats.MaxIdx(t) {
				corrects[w]++
			}
			c.net.Backward(acts, dOut, grads[w])
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	total := grads[0]
	for w := 1; w < workers; w++ {
		addGrads(total, grads[w])
	}
	scaleGrads(total, 1/float64(len(batch)))
	for _, lg := range total {
		for _, g := range lg {
			if err := errors.CheckNumericalStability("gradient", g, epoch); err != nil {
				return 0, 0, err
			}
		}
	}
	c.opt.Step(c.net.Params(), total)

	var lossSum float64
	var correct int
	for w := range losses {
		lossSum += losses[w]
		correct += corrects[w]
	}
	return lossSum, correct, nil
}

// PredictProba は各サンプルのクラス確率を n × クラス数 の行列で返す
func (c *Classifier) PredictProba(X mat.Matrix) (proba mat.Matrix, err error) {
	defer errors.Recover(&err, "Classifier.PredictProba")

	if err := c.state.RequireFitted(ModelName, "PredictProba"); err != nil {
		return nil, err
	}
	n, err := c.checkX("Classifier.PredictProba", X)
	if err != nil {
		return nil, err
	}
	out, err := c.forwardAll(X, n)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// forwardAll はサンプルを並列に順伝播する（行ごとに書き込み先が異なる）
func (c *Classifier) forwardAll(X mat.Matrix, n int) (*mat.Dense, error) {
	out := mat.NewDense(n, len(c.classes), nil)
	size := c.net.InputShape().Size()
	err := parallel.Run("Classifier.forward", n, 1, func(_, start, end int) error {
		x := make([]float64, size)
		for i := start; i < end; i++ {
			mat.Row(x, i, X)
			out.SetRow(i, c.net.Output(x))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Predict は各サンプルのクラスインデックスを n×1 行列で返す
func (c *Classifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, float64(floats.MaxIdx(mat.Row(nil, i, proba))))
	}
	return out, nil
}

// Score は one-hot ラベルに対する正解率を返す
func (c *Classifier) Score(X, y mat.Matrix) (float64, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return 0, err
	}
	return metrics.CategoricalAccuracy(y, proba)
}

// Evaluate は損失と正解率を返す
// 学習途中（未学習状態）でも呼び出せる
func (c *Classifier) Evaluate(X, y mat.Matrix) (loss, accuracy float64, err error) {
	defer errors.Recover(&err, "Classifier.Evaluate")

	n, err := c.checkXY("Classifier.Evaluate", X, y)
	if err != nil {
		return 0, 0, err
	}
	proba, err := c.forwardAll(X, n)
	if err != nil {
		return 0, 0, err
	}
	if loss, err = metrics.CategoricalCrossEntropy(y, proba); err != nil {
		return 0, 0, err
	}
	if accuracy, err = metrics.CategoricalAccuracy(y, proba); err != nil {
		return 0, 0, err
	}
	return loss, accuracy, nil
}

func (c *Classifier) checkX(op string, X mat.Matrix) (int, error) {
	if X == nil {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	n, cols := X.Dims()
	if n == 0 {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if cols != c.net.InputShape().Size() {
		return 0, errors.NewDimensionError(op, c.net.InputShape().Size(), cols, 1)
	}
	return n, nil
}

func (c *Classifier) checkXY(op string, X, y mat.Matrix) (int, error) {
	n, err := c.checkX(op, X)
	if err != nil {
		return 0, err
	}
	if y == nil {
		return 0, errors.NewModelError(op, "missing labels", errors.ErrEmptyData)
	}
	ry, cy := y.Dims()
	if ry != n {
		return 0, errors.NewDimensionError(op, n, ry, 0)
	}
	if cy != len(c.classes) {
		return 0, errors.NewDimensionError(op, len(c.classes), cy, 1)
	}
	return n, nil
}
