package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/YuminosukeSato/petclassifier/dataset"
	"github.com/YuminosukeSato/petclassifier/dataset/datasettest"
	"github.com/YuminosukeSato/petclassifier/neural"
	"github.com/YuminosukeSato/petclassifier/pipeline"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"github.com/YuminosukeSato/petclassifier/pkg/log"
)

func runTrain(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	dataDir := fs.String("data", pipeline.DefaultDataDir, "image root with one directory per class")
	epochs := fs.Int("epochs", 0, "training epochs")
	batch := fs.Int("batch", 0, "mini-batch size")
	plot := fs.String("plot", "", "write the training curves to this image file")
	synthetic := fs.Int("synthetic", 0, "train on n generated images when the data directory yields none")
	summary := fs.Bool("summary", false, "print the layer table after training")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.config(fs, func(name string, cfg *pipeline.Config) {
		switch name {
		case "data":
			cfg.DataDir = *dataDir
		case "epochs":
			cfg.Epochs = *epochs
		case "batch":
			cfg.BatchSize = *batch
		case "plot":
			cfg.HistoryPlot = *plot
		}
	})
	if err != nil {
		return err
	}

	trainer, err := pipeline.NewTrainer(cfg)
	if err != nil {
		return err
	}

	history, err := trainer.TrainFromDirectory(cfg.DataDir)
	if errors.Is(err, errors.ErrEmptyDataset) && *synthetic > 0 {
		log.GetLogger().Warn("No images found, training on synthetic data",
			log.PathKey, cfg.DataDir,
			log.SamplesKey, *synthetic,
		)
		history, err = trainSynthetic(trainer, cfg, *synthetic)
	}
	if err != nil {
		return err
	}

	if last, ok := history.Last(); ok {
		fmt.Fprintf(stdout, "trained %d epochs: loss %.4f accuracy %.4f", last.Epoch, last.Loss, last.Accuracy)
		if last.HasValidation {
			fmt.Fprintf(stdout, " val_loss %.4f val_accuracy %.4f", last.ValLoss, last.ValAccuracy)
		}
		fmt.Fprintln(stdout)
	}
	fmt.Fprintf(stdout, "model saved to %s\n", cfg.ModelPath)
	if *summary {
		fmt.Fprint(stdout, trainer.Model().Summary())
	}
	return nil
}

func trainSynthetic(trainer *pipeline.Trainer, cfg pipeline.Config, n int) (*neural.History, error) {
	ds, err := datasettest.Generate(cfg.Shape(), cfg.Classes, n, cfg.Seed)
	if err != nil {
		return nil, err
	}
	split, err := dataset.Split(ds, cfg.TrainFraction, rand.New(rand.NewPCG(cfg.Seed, 0)))
	if err != nil {
		return nil, err
	}
	return trainer.Train(split.Train, split.Validation)
}
