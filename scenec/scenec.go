package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/foukevin/gacc"
)

type Scenec struct {
	sceneFilename, outputDir, meshDir, configFilename string
	jobs                                              int
	optionVerbose                                     bool
	optionStruct                                      bool
}

var scenec Scenec

var Usage = func() {
	fmt.Fprintf(os.Stderr, "Usage of %s: [options] scene.json\n", os.Args[0])
	flag.PrintDefaults()
}

func init() {
	flag.Usage = Usage
	flag.StringVar(&scenec.outputDir, "output", ".", "output directory for compiled meshes")
	flag.StringVar(&scenec.meshDir, "meshes", "", "directory holding <mesh>.obj files (default: scene directory)")
	flag.StringVar(&scenec.configFilename, "config", "", "pipeline configuration (YAML)")
	flag.IntVar(&scenec.jobs, "jobs", 0, "meshes compiled in parallel (0: one per CPU)")
	flag.BoolVar(&scenec.optionVerbose, "verbose", false, "display additional information")
	flag.BoolVar(&scenec.optionStruct, "struct", false, "print file format as a C struct")
}

func run(logger *slog.Logger) error {
	scenec.sceneFilename = flag.Arg(0)
	if scenec.sceneFilename == "" {
		return fmt.Errorf("no scene file")
	}

	scene, err := gacc.ReadJafSceneFile(scenec.sceneFilename)
	if err != nil {
		return err
	}
	logger.Info("scene loaded", "name", scene.Name, "meshes", len(scene.Meshes),
		"lights", len(scene.Lights), "cameras", len(scene.Cameras))

	cfg := gacc.DefaultPipelineConfig()
	if scenec.configFilename != "" {
		if cfg, err = gacc.LoadPipelineConfig(scenec.configFilename); err != nil {
			return err
		}
	}
	cfg.Logger = logger

	meshDir := scenec.meshDir
	if meshDir == "" {
		meshDir = filepath.Dir(scenec.sceneFilename)
	}

	jobs := make([]gacc.Job, 0, len(scene.Meshes))
	for _, name := range scene.Meshes {
		input := filepath.Join(meshDir, name+".obj")
		jobs = append(jobs, gacc.Job{Input: input, Output: gacc.OutputName(scenec.outputDir, input)})
	}

	bar := gacc.NewProgress(len(jobs), "compiling "+scene.Name)
	defer bar.Close()

	return gacc.CompileFiles(context.Background(), jobs, cfg, scenec.jobs, func(gacc.Job) {
		bar.Add(1)
	})
}

func main() {
	flag.Parse()

	if scenec.optionStruct {
		fmt.Println(gacc.CStruct())
		os.Exit(0)
	}

	logger := gacc.NewLogger(os.Stderr, scenec.optionVerbose)
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("scenec failed", "error", err)
		os.Exit(1)
	}
}
