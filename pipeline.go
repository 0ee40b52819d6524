package gacc

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/foukevin/gacc/meshopt"
	"gopkg.in/yaml.v3"
)

const (
	IndexFormatAuto = "auto"
	IndexFormat16   = "16"
	IndexFormat32   = "32"
)

// StageConfig switches individual optimization passes.
type StageConfig struct {
	VertexCache bool `yaml:"vertexCache"`
	Overdraw    bool `yaml:"overdraw"`
	VertexFetch bool `yaml:"vertexFetch"`
}

// PipelineConfig controls how meshes are optimized before they are written.
type PipelineConfig struct {
	CacheSize         int         `yaml:"cacheSize,omitempty"`
	OverdrawThreshold float32     `yaml:"overdrawThreshold,omitempty"`
	IndexFormat       string      `yaml:"indexFormat,omitempty"`
	Stages            StageConfig `yaml:"stages"`

	Logger *slog.Logger `yaml:"-"`
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		CacheSize:         meshopt.DefaultCacheSize,
		OverdrawThreshold: 1.05,
		IndexFormat:       IndexFormatAuto,
		Stages: StageConfig{
			VertexCache: true,
			Overdraw:    true,
			VertexFetch: true,
		},
	}
}

func (c *PipelineConfig) normalize() error {
	if c.CacheSize == 0 {
		c.CacheSize = meshopt.DefaultCacheSize
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cacheSize %d must be positive", c.CacheSize)
	}
	if c.OverdrawThreshold == 0 {
		c.OverdrawThreshold = meshopt.DefaultOverdrawThreshold
	}
	if c.OverdrawThreshold < 1 {
		return fmt.Errorf("overdrawThreshold %v must be at least 1", c.OverdrawThreshold)
	}
	switch c.IndexFormat {
	case "":
		c.IndexFormat = IndexFormatAuto
	case IndexFormatAuto, IndexFormat16, IndexFormat32:
	default:
		return fmt.Errorf("unknown indexFormat %q", c.IndexFormat)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// LoadPipelineConfig reads a YAML pipeline description. Fields missing from
// the file keep their DefaultPipelineConfig values.
func LoadPipelineConfig(filename string) (PipelineConfig, error) {
	cfg := DefaultPipelineConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return PipelineConfig{}, fmt.Errorf("parse %s: %w", filename, err)
	}
	if err := cfg.normalize(); err != nil {
		return PipelineConfig{}, fmt.Errorf("invalid %s: %w", filename, err)
	}
	return cfg, nil
}

// MeshStats gathers the three analyzer results for one buffer layout.
type MeshStats struct {
	Cache    meshopt.VertexCacheStatistics
	Overdraw meshopt.OverdrawStatistics
	Fetch    meshopt.VertexFetchStatistics
}

// analyzeBuffers measures a layout. Overdraw needs positions and is skipped
// when hasPositions is false.
func analyzeBuffers[T meshopt.Index](indices []T, vertices []byte, stride, cacheSize int, hasPositions bool) (MeshStats, error) {
	var stats MeshStats
	var err error
	vertexCount := len(vertices) / stride

	if stats.Cache, err = meshopt.AnalyzeVertexCache(indices, vertexCount, cacheSize); err != nil {
		return MeshStats{}, err
	}
	if hasPositions {
		if stats.Overdraw, err = meshopt.AnalyzeOverdraw(indices, vertices, stride); err != nil {
			return MeshStats{}, err
		}
	}
	if stats.Fetch, err = meshopt.AnalyzeVertexFetch(indices, vertexCount, stride); err != nil {
		return MeshStats{}, err
	}
	return stats, nil
}

// surfaceRange is a run of index positions belonging to one surface.
type surfaceRange struct {
	start, count int
}

// optimizeBuffers runs the enabled passes over deduplicated buffers. Cache
// and overdraw passes work surface by surface; the fetch pass reorders the
// shared vertex buffer.
func optimizeBuffers[T meshopt.Index](cfg PipelineConfig, name string, indices []T, vertices []byte, stride int, surfaces []surfaceRange, hasPositions bool) ([]byte, PipelineStats, error) {
	log := cfg.Logger.With("mesh", name)
	vertexCount := len(vertices) / stride

	var stats PipelineStats
	var err error
	if stats.Before, err = analyzeBuffers(indices, vertices, stride, cfg.CacheSize, hasPositions); err != nil {
		return nil, stats, fmt.Errorf("analyze: %w", err)
	}

	for i, s := range surfaces {
		sub := indices[s.start : s.start+s.count]

		var clusters meshopt.Clusters
		if cfg.Stages.VertexCache {
			start := time.Now()
			if clusters, err = meshopt.OptimizeVertexCache(sub, sub, vertexCount, cfg.CacheSize); err != nil {
				return nil, stats, fmt.Errorf("surface %d: vertex cache: %w", i, err)
			}
			log.Debug("vertex cache optimized", "surface", i, "clusters", len(clusters), "duration", time.Since(start))
		}

		if cfg.Stages.Overdraw && hasPositions {
			start := time.Now()
			if err := meshopt.OptimizeOverdraw(sub, sub, clusters, vertices, stride, cfg.CacheSize, cfg.OverdrawThreshold); err != nil {
				return nil, stats, fmt.Errorf("surface %d: overdraw: %w", i, err)
			}
			log.Debug("overdraw optimized", "surface", i, "threshold", cfg.OverdrawThreshold, "duration", time.Since(start))
		}
	}

	if cfg.Stages.VertexFetch {
		start := time.Now()
		out := make([]byte, len(vertices))
		referenced, err := meshopt.OptimizeVertexFetch(out, vertices, indices, stride)
		if err != nil {
			return nil, stats, fmt.Errorf("vertex fetch: %w", err)
		}
		vertices = out
		log.Debug("vertex fetch optimized", "referenced", referenced, "vertices", vertexCount, "duration", time.Since(start))
	}

	if stats.After, err = analyzeBuffers(indices, vertices, stride, cfg.CacheSize, hasPositions); err != nil {
		return nil, stats, fmt.Errorf("analyze: %w", err)
	}

	log.Debug("pipeline statistics",
		"acmr", stats.Before.Cache.ACMR, "acmrOptimized", stats.After.Cache.ACMR,
		"overdraw", stats.Before.Overdraw.DepthOverdraw, "overdrawOptimized", stats.After.Overdraw.DepthOverdraw,
		"overfetch", stats.Before.Fetch.Overfetch, "overfetchOptimized", stats.After.Fetch.Overfetch)

	return vertices, stats, nil
}

// PipelineStats compares a mesh before and after optimization.
type PipelineStats struct {
	Before, After MeshStats
}

func narrowIndices[T meshopt.Index](indices []uint32) []T {
	out := make([]T, len(indices))
	for i, v := range indices {
		out[i] = T(v)
	}
	return out
}

// indexSize picks the index width in bytes for a vertex count.
func (c *PipelineConfig) indexSize(vertexCount int) (int, error) {
	fits16 := vertexCount <= 1<<16
	switch c.IndexFormat {
	case IndexFormat16:
		if !fits16 {
			return 0, fmt.Errorf("%d vertices do not fit 16 bit indices", vertexCount)
		}
		return 2, nil
	case IndexFormat32:
		return 4, nil
	}
	if fits16 {
		return 2, nil
	}
	return 4, nil
}
