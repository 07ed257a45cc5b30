// Command petclassifier trains the cat/dog classifier, classifies images
// and computes checkout totals.
//
//	petclassifier train    [-config file] [-data dir] [-synthetic n] ...
//	petclassifier predict  [-config file] [-model file] image...
//	petclassifier total    -prices '{"ANPAN":200}' -items '{"ANPAN":2}'
//	petclassifier checkout [-model file] -prices '{"cat":300}' image...
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/YuminosukeSato/petclassifier/pipeline"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"github.com/YuminosukeSato/petclassifier/pkg/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type command struct {
	name  string
	usage string
	run   func(args []string, stdout io.Writer) error
}

func commands() []command {
	return []command{
		{"train", "train a model and save it", runTrain},
		{"predict", "classify image files", runPredict},
		{"total", "compute an order total from price and quantity tables", runTotal},
		{"checkout", "classify images as items and print a receipt", runCheckout},
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	for _, cmd := range commands() {
		if cmd.name != args[0] {
			continue
		}
		if err := cmd.run(args[1:], stdout); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return 0
			}
			log.GetLogger().Error("Command failed", err, log.OperationKey, cmd.name)
			fmt.Fprintf(stderr, "petclassifier %s: %v\n", cmd.name, err)
			return 1
		}
		return 0
	}
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: petclassifier <command> [flags]")
	fmt.Fprintln(w)
	for _, cmd := range commands() {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.usage)
	}
}

// commonFlags are shared by the model commands.
type commonFlags struct {
	configPath string
	modelPath  string
	imageSize  int
	channels   int
	logLevel   string
	jsonLogs   bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "JSON config file")
	fs.StringVar(&c.modelPath, "model", pipeline.DefaultModelPath, "model file")
	fs.IntVar(&c.imageSize, "size", pipeline.DefaultImageSize, "input image size in pixels")
	fs.IntVar(&c.channels, "channels", pipeline.DefaultChannels, "1 for grayscale, 3 for color")
	fs.StringVar(&c.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.BoolVar(&c.jsonLogs, "json", false, "write logs as JSON")
}

// config loads the config file, if any, and applies explicitly set flags
// on top of it.
func (c *commonFlags) config(fs *flag.FlagSet, extra func(name string, cfg *pipeline.Config)) (pipeline.Config, error) {
	if err := log.SetupLogger(c.logLevel, c.jsonLogs); err != nil {
		return pipeline.Config{}, err
	}

	cfg := pipeline.DefaultConfig()
	if c.configPath != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(c.configPath); err != nil {
			return pipeline.Config{}, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.ModelPath = c.modelPath
		case "size":
			cfg.ImageSize = c.imageSize
		case "channels":
			cfg.Channels = c.channels
		default:
			if extra != nil {
				extra(f.Name, &cfg)
			}
		}
	})
	return cfg, cfg.Validate()
}

// parseTable decodes a JSON object of integers, either inline or from a
// file when the value starts with '@'.
func parseTable(name, value string) (map[string]int, error) {
	if value == "" {
		return map[string]int{}, nil
	}
	data := []byte(value)
	if value[0] == '@' {
		var err error
		if data, err = os.ReadFile(value[1:]); err != nil {
			return nil, errors.Wrapf(err, "read -%s", name)
		}
	}
	table := map[string]int{}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, errors.Wrapf(err, "parse -%s", name)
	}
	return table, nil
}
