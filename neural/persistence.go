package neural

import (
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"time"

	"github.com/YuminosukeSato/petclassifier/core/model"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"github.com/YuminosukeSato/petclassifier/pkg/log"
)

// Save はモデル全体（構成・重み・最適化器の状態）を path に保存する
// 既存ファイルは一時ファイル経由で置き換えられる
func (c *Classifier) Save(path string) error {
	if err := model.SaveModel(c.toArtifact(), path); err != nil {
		return err
	}
	c.logger.Info("Model saved",
		log.OperationKey, log.OperationSave,
		log.ModelPathKey, path,
	)
	return nil
}

// SaveTo はモデルを w に書き出す
func (c *Classifier) SaveTo(w io.Writer) error {
	return model.SaveModelToWriter(c.toArtifact(), w)
}

// Load は path のモデルでレシーバの状態を置き換える
func (c *Classifier) Load(path string) error {
	loaded, err := Load(path, WithLogger(c.logger))
	if err != nil {
		return err
	}
	*c = *loaded
	return nil
}

// Load はファイルから学習済みモデルを復元する
//
// パラメータ:
//   - path: Save で書き出したファイル
//   - opts: ロガーなど実行時のみの設定
//
// 戻り値:
//   - *Classifier: 復元されたモデル
//   - error: ファイルがない場合は ModelNotFoundError、壊れている場合は ModelError
func Load(path string, opts ...Option) (*Classifier, error) {
	var a artifact
	if err := model.LoadModel(&a, path); err != nil {
		return nil, err
	}
	c, err := fromArtifact(&a, opts...)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Model loaded",
		log.OperationKey, log.OperationLoad,
		log.ModelPathKey, path,
	)
	return c, nil
}

// LoadFrom は r からモデルを復元する
func LoadFrom(r io.Reader, opts ...Option) (*Classifier, error) {
	var a artifact
	if err := model.LoadModelFromReader(&a, r); err != nil {
		return nil, err
	}
	return fromArtifact(&a, opts...)
}

func (c *Classifier) toArtifact() *artifact {
	return &artifact{
		Version:      formatVersion,
		InputShape:   c.net.InputShape(),
		Classes:      slices.Clone(c.classes),
		Layers:       c.net.Specs(),
		Params:       c.net.Params(),
		Optimizer:    *c.opt,
		Epochs:       c.epochs,
		BatchSize:    c.batchSize,
		LearningRate: c.learningRate,
		Seed:         c.seed,
		State:        c.state.GetState(),
		CreatedAt:    time.Now().UTC(),
	}
}

func fromArtifact(a *artifact, opts ...Option) (*Classifier, error) {
	if a.Version != formatVersion {
		return nil, errors.NewModelError("neural.Load", "unsupported format version",
			errors.Newf("got %d, want %d", a.Version, formatVersion))
	}

	base := []Option{
		WithEpochs(a.Epochs),
		WithBatchSize(a.BatchSize),
		WithLearningRate(a.LearningRate),
		WithRandomState(a.Seed),
	}
	c, err := NewClassifier(a.InputShape, a.Classes, a.Layers, append(base, opts...)...)
	if err != nil {
		return nil, errors.NewModelError("neural.Load", "invalid topology", err)
	}
	if err := c.net.SetParams(a.Params); err != nil {
		return nil, errors.NewModelError("neural.Load", "corrupt parameters", err)
	}

	opt := a.Optimizer
	if !sameLayout(opt.M, a.Params) || !sameLayout(opt.V, a.Params) {
		opt.M, opt.V, opt.Iterations = nil, nil, 0
	}
	opt.LearningRate = c.learningRate
	c.opt = &opt
	c.state.SetState(a.State)
	// 再開した学習が同じ乱数列を繰り返さないようにする
	c.rng = rand.New(rand.NewPCG(a.Seed, uint64(a.State.Epochs)))
	return c, nil
}

// Exists は path にモデルファイルがあるかを返す
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// sameLayout reports whether a and b have identical nesting and lengths.
func sameLayout(a, b [][][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if len(a[i][j]) != len(b[i][j]) {
				return false
			}
		}
	}
	return true
}
