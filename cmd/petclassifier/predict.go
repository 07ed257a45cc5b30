package main

import (
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/YuminosukeSato/petclassifier/checkout"
	"github.com/YuminosukeSato/petclassifier/pipeline"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"github.com/YuminosukeSato/petclassifier/pkg/log"
)

func runPredict(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one image file is required")
	}

	cfg, err := common.config(fs, nil)
	if err != nil {
		return err
	}
	predictor, err := pipeline.NewPredictor(cfg)
	if err != nil {
		return err
	}

	for _, path := range fs.Args() {
		pred, err := predictor.PredictFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\t%s\t%.4f\n", path, pred.Label, pred.Confidence)
	}
	return nil
}

func runTotal(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("total", flag.ContinueOnError)
	pricesFlag := fs.String("prices", "", `price table as JSON, e.g. {"ANPAN":200}, or @file`)
	itemsFlag := fs.String("items", "", `quantity table as JSON, e.g. {"ANPAN":2}, or @file`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	prices, err := parseTable("prices", *pricesFlag)
	if err != nil {
		return err
	}
	items, err := parseTable("items", *itemsFlag)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, checkout.CalculateTotal(prices, items))
	return nil
}

func runCheckout(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	pricesFlag := fs.String("prices", "", "price table per class label as JSON, or @file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one image file is required")
	}

	prices, err := parseTable("prices", *pricesFlag)
	if err != nil {
		return err
	}
	cfg, err := common.config(fs, nil)
	if err != nil {
		return err
	}
	predictor, err := pipeline.NewPredictor(cfg)
	if err != nil {
		return err
	}

	labels := make([]string, 0, fs.NArg())
	for _, path := range fs.Args() {
		pred, err := predictor.PredictFile(path)
		if err != nil {
			return err
		}
		labels = append(labels, pred.Label)
	}

	items := checkout.CountItems(labels)
	receipt := checkout.NewReceipt(prices, items)
	if _, err := receipt.WriteTo(stdout); err != nil {
		return err
	}

	recognized := make([]string, 0, len(items))
	for name := range items {
		recognized = append(recognized, name)
	}
	sort.Strings(recognized)
	log.GetLogger().Info("Checkout completed",
		log.OperationKey, "checkout",
		log.ClassesKey, recognized,
		log.TotalKey, receipt.Total,
	)
	return nil
}
