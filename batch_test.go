package gacc

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestCompileFiles(t *testing.T) {
	dir := t.TempDir()
	var jobs []Job
	for _, name := range []string{"a.obj", "b.obj", "c.obj"} {
		input := filepath.Join(dir, name)
		if err := os.WriteFile(input, []byte(cubeObj), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		jobs = append(jobs, Job{Input: input, Output: OutputName(filepath.Join(dir, "out"), input)})
	}

	var done atomic.Int32
	err := CompileFiles(context.Background(), jobs, DefaultPipelineConfig(), 2, func(Job) {
		done.Add(1)
	})
	if err != nil {
		t.Fatalf("CompileFiles: %v", err)
	}
	if done.Load() != int32(len(jobs)) {
		t.Errorf("done called %d times, want %d", done.Load(), len(jobs))
	}

	for _, job := range jobs {
		mesh, err := ReadBinaryMeshFile(job.Output)
		if err != nil {
			t.Fatalf("ReadBinaryMeshFile: %v", err)
		}
		want := filepath.Base(job.Input[:len(job.Input)-len(".obj")])
		if mesh.Name() != want || mesh.Header.IndCount != 36 {
			t.Errorf("%s: name %q, %d indices", job.Output, mesh.Name(), mesh.Header.IndCount)
		}
	}
}

func TestCompileFilesMissingInput(t *testing.T) {
	dir := t.TempDir()
	jobs := []Job{{Input: filepath.Join(dir, "missing.obj"), Output: filepath.Join(dir, "missing.mesh")}}
	if err := CompileFiles(context.Background(), jobs, DefaultPipelineConfig(), 0, nil); err == nil {
		t.Fatal("expected an error")
	}
}

func TestOutputName(t *testing.T) {
	if got := OutputName("build", "assets/cube.obj"); got != filepath.Join("build", "cube.mesh") {
		t.Errorf("OutputName = %q", got)
	}
}
