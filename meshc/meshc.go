package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/foukevin/gacc"
)

type Meshc struct {
	binFilename, outputDir, configFilename string
	cacheSize, jobs                        int
	threshold                              float64
	optionVerbose                          bool
}

var meshc Meshc

func init() {
	flag.StringVar(&meshc.binFilename, "output", "a.bin", "output file when compiling a single mesh")
	flag.StringVar(&meshc.outputDir, "dir", ".", "output directory when compiling several meshes")
	flag.StringVar(&meshc.configFilename, "config", "", "pipeline configuration (YAML)")
	flag.IntVar(&meshc.cacheSize, "cache", 0, "vertex cache size, overrides the configuration")
	flag.Float64Var(&meshc.threshold, "threshold", 0, "overdraw ACMR threshold, overrides the configuration")
	flag.IntVar(&meshc.jobs, "jobs", 0, "meshes compiled in parallel (0: one per CPU)")
	flag.BoolVar(&meshc.optionVerbose, "verbose", false, "display additional information")
}

func run(logger *slog.Logger) error {
	inputs := flag.Args()
	if len(inputs) == 0 {
		return fmt.Errorf("no input file")
	}

	cfg := gacc.DefaultPipelineConfig()
	if meshc.configFilename != "" {
		var err error
		if cfg, err = gacc.LoadPipelineConfig(meshc.configFilename); err != nil {
			return err
		}
	}
	if meshc.cacheSize != 0 {
		cfg.CacheSize = meshc.cacheSize
	}
	if meshc.threshold != 0 {
		cfg.OverdrawThreshold = float32(meshc.threshold)
	}
	cfg.Logger = logger

	var jobs []gacc.Job
	if len(inputs) == 1 {
		jobs = append(jobs, gacc.Job{Input: inputs[0], Output: meshc.binFilename})
	} else {
		for _, input := range inputs {
			jobs = append(jobs, gacc.Job{Input: input, Output: gacc.OutputName(meshc.outputDir, input)})
		}
	}

	bar := gacc.NewProgress(len(jobs), "compiling meshes")
	defer bar.Close()

	return gacc.CompileFiles(context.Background(), jobs, cfg, meshc.jobs, func(gacc.Job) {
		bar.Add(1)
	})
}

func main() {
	flag.Parse()

	logger := gacc.NewLogger(os.Stderr, meshc.optionVerbose)
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("meshc failed", "error", err)
		os.Exit(1)
	}
}
