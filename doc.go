// Package petclassifier trains a small convolutional network to tell two
// image classes apart (cats and dogs by default), stores the trained model
// in a single file and classifies single images with it. A separate
// package computes order totals from price and quantity tables.
//
// # Packages
//
//   - dataset: loads root/<class>/<images> folders and splits them into
//     training and validation sets; dataset/datasettest generates
//     synthetic data.
//   - neural: the network engine (convolution, pooling, dense layers,
//     softmax, cross-entropy, Adam) built on gonum, plus model files.
//   - pipeline: Config, Trainer and Predictor, and the one-call Predict.
//   - checkout: CalculateTotal and receipts.
//   - preprocessing, metrics: pixel scaling, one-hot labels, accuracy and
//     log loss.
//   - pkg/errors, pkg/log: structured errors, warnings and logging.
//
// # Quick Start
//
//	cfg := pipeline.DefaultConfig(pipeline.WithDataDir("images"))
//	trainer, err := pipeline.NewTrainer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := trainer.TrainFromDirectory(cfg.DataDir); err != nil {
//	    log.Fatal(err)
//	}
//
//	img, err := dataset.DecodeFile("photo.jpg", cfg.Shape())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	label, confidence, err := pipeline.Predict(img, cfg.ModelPath)
//
// # Error Handling
//
// Errors carry stack traces (github.com/cockroachdb/errors) and typed
// details. A missing model file can be detected with
//
//	errors.Is(err, errors.ErrModelNotFound)
//
// Non-fatal events such as an undecodable image or an unpriced item are
// reported through errors.Warn, which logs them with zerolog by default.
package petclassifier
