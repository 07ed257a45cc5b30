// Package pipeline ties the image loader, the network and the model file
// together: Trainer fits and saves a model, Predictor and Predict load it
// and classify single images.
package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"slices"

	"github.com/YuminosukeSato/petclassifier/core/tensor"
	"github.com/YuminosukeSato/petclassifier/dataset"
	"github.com/YuminosukeSato/petclassifier/neural"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// 設定のデフォルト値
const (
	DefaultImageSize = 64
	DefaultChannels  = 1
	DefaultModelPath = "cat_dog_classifier.gob"
	DefaultDataDir   = "data"
)

// DefaultClasses はデフォルトのクラス名（インデックスがラベル）
var DefaultClasses = []string{"cat", "dog"}

// Config は学習と推論の全設定
// パッケージレベルの可変状態は持たず、各コンポーネントに明示的に渡す
type Config struct {
	ImageSize     int      `json:"image_size"`
	Channels      int      `json:"channels"`
	Classes       []string `json:"classes"`
	Epochs        int      `json:"epochs"`
	BatchSize     int      `json:"batch_size"`
	TrainFraction float64  `json:"train_fraction"`
	LearningRate  float64  `json:"learning_rate"`
	Seed          uint64   `json:"seed"`
	ModelPath     string   `json:"model_path"`
	DataDir       string   `json:"data_dir"`
	// HistoryPlot が空でなければ、学習曲線をこのパスに画像として保存する
	HistoryPlot string `json:"history_plot,omitempty"`
}

// ConfigOption はConfigの設定オプション
type ConfigOption func(*Config)

// DefaultConfig はデフォルト設定にオプションを適用したConfigを返す
//
// 使用例:
//
//	cfg := pipeline.DefaultConfig(pipeline.WithChannels(3), pipeline.WithEpochs(20))
func DefaultConfig(opts ...ConfigOption) Config {
	cfg := Config{
		ImageSize:     DefaultImageSize,
		Channels:      DefaultChannels,
		Classes:       slices.Clone(DefaultClasses),
		Epochs:        neural.DefaultEpochs,
		BatchSize:     neural.DefaultBatchSize,
		TrainFraction: dataset.DefaultTrainFraction,
		LearningRate:  neural.DefaultLearningRate,
		Seed:          neural.DefaultSeed,
		ModelPath:     DefaultModelPath,
		DataDir:       DefaultDataDir,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithImageSize は入力画像の一辺のピクセル数を設定
func WithImageSize(size int) ConfigOption {
	return func(c *Config) { c.ImageSize = size }
}

// WithChannels はチャンネル数（1: グレースケール, 3: カラー）を設定
func WithChannels(ch int) ConfigOption {
	return func(c *Config) { c.Channels = ch }
}

// WithClasses はクラス名を設定
func WithClasses(classes ...string) ConfigOption {
	return func(c *Config) { c.Classes = slices.Clone(classes) }
}

// WithEpochs はエポック数を設定
func WithEpochs(n int) ConfigOption {
	return func(c *Config) { c.Epochs = n }
}

// WithBatchSize はミニバッチサイズを設定
func WithBatchSize(n int) ConfigOption {
	return func(c *Config) { c.BatchSize = n }
}

// WithTrainFraction は学習データの割合を設定
func WithTrainFraction(f float64) ConfigOption {
	return func(c *Config) { c.TrainFraction = f }
}

// WithLearningRate は学習率を設定
func WithLearningRate(lr float64) ConfigOption {
	return func(c *Config) { c.LearningRate = lr }
}

// WithSeed は乱数シードを設定
func WithSeed(seed uint64) ConfigOption {
	return func(c *Config) { c.Seed = seed }
}

// WithModelPath はモデルファイルのパスを設定
func WithModelPath(path string) ConfigOption {
	return func(c *Config) { c.ModelPath = path }
}

// WithDataDir は学習画像のルートディレクトリを設定
func WithDataDir(dir string) ConfigOption {
	return func(c *Config) { c.DataDir = dir }
}

// WithHistoryPlot は学習曲線の出力先を設定
func WithHistoryPlot(path string) ConfigOption {
	return func(c *Config) { c.HistoryPlot = path }
}

// Shape は入力画像の形状を返す
func (c Config) Shape() tensor.Shape {
	return tensor.NewShape(c.ImageSize, c.Channels)
}

// Validate は設定値を検証する
func (c Config) Validate() error {
	if c.ImageSize <= 0 {
		return errors.NewValidationError("image_size", "must be positive", c.ImageSize)
	}
	if err := c.Shape().Validate(); err != nil {
		return err
	}
	if len(c.Classes) < 2 {
		return errors.NewValidationError("classes", "at least two classes are required", c.Classes)
	}
	seen := make(map[string]bool, len(c.Classes))
	for _, name := range c.Classes {
		if name == "" || seen[name] {
			return errors.NewValidationError("classes", "names must be non-empty and unique", c.Classes)
		}
		seen[name] = true
	}
	if c.Epochs <= 0 {
		return errors.NewValidationError("epochs", "must be positive", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be positive", c.BatchSize)
	}
	if !(c.TrainFraction > 0 && c.TrainFraction <= 1) {
		return errors.NewValidationError("train_fraction", "must be in (0, 1]", c.TrainFraction)
	}
	if !(c.LearningRate > 0) {
		return errors.NewValidationError("learning_rate", "must be positive", c.LearningRate)
	}
	if c.ModelPath == "" {
		return errors.NewValidationError("model_path", "must not be empty", c.ModelPath)
	}
	return nil
}

// LoadConfig はJSONファイルを読み、デフォルト値に上書きしたConfigを返す
// ファイルにないキーはデフォルト値のまま、未知のキーはエラー
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	cfg := DefaultConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
