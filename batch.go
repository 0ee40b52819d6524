package gacc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Job compiles one OBJ file into one binary mesh file.
type Job struct {
	Input, Output string
}

// OutputName maps an OBJ path to a mesh path inside dir.
func OutputName(dir, input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+".mesh")
}

// CompileFile reads, optimizes and writes a single mesh.
func CompileFile(input, output string, cfg PipelineConfig) error {
	mesh, err := ReadObjFile(input)
	if err != nil {
		return err
	}
	if err := mesh.Encode(output, cfg); err != nil {
		return fmt.Errorf("compile %s: %w", input, err)
	}
	return nil
}

// CompileFiles runs jobs on up to workers goroutines. Meshes are independent
// so the first failure cancels the jobs not yet started. done, if set, is
// called after every successful job and must be safe for concurrent use.
func CompileFiles(ctx context.Context, jobs []Job, cfg PipelineConfig, workers int, done func(Job)) error {
	if err := cfg.normalize(); err != nil {
		return err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if dir := filepath.Dir(job.Output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", dir, err)
				}
			}
			if err := CompileFile(job.Input, job.Output, cfg); err != nil {
				return err
			}
			cfg.Logger.Debug("mesh compiled", "input", job.Input, "output", job.Output)
			if done != nil {
				done(job)
			}
			return nil
		})
	}
	return g.Wait()
}
