package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/foukevin/gacc"
	"github.com/foukevin/gacc/meshopt"
)

type ReadMesh struct {
	binFilename, heatmapFilename, view string
	cacheSize                          int
	optionAnalyze, optionVerbose       bool
}

var readMesh ReadMesh

func init() {
	flag.BoolVar(&readMesh.optionAnalyze, "analyze", false, "print vertex cache, overdraw and vertex fetch statistics")
	flag.IntVar(&readMesh.cacheSize, "cache", meshopt.DefaultAnalyzeCacheSize, "simulated vertex cache size")
	flag.StringVar(&readMesh.heatmapFilename, "heatmap", "", "write the overdraw heat map to this BMP file")
	flag.StringVar(&readMesh.view, "view", "+z", "heat map view: +x, -x, +y, -y, +z or -z")
	flag.BoolVar(&readMesh.optionVerbose, "verbose", false, "display additional information")
}

func parseView(s string) (meshopt.View, error) {
	for v := meshopt.ViewPositiveX; v <= meshopt.ViewNegativeZ; v++ {
		if strings.EqualFold(v.String(), s) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown view %q", s)
}

func printHeader(mesh *gacc.BinaryMesh) {
	header := mesh.Header
	fmt.Println("Name: " + mesh.Name())
	fmt.Printf("Vertex attribute count   : %d\n", header.VertAttribCount)
	fmt.Printf("Vertex attribute offset  : %#x (%d)\n", header.VertAttribOffset, header.VertAttribOffset)
	fmt.Printf("Surface descriptor count : %d\n", header.SurfDescCount)
	fmt.Printf("Surface descriptor offset: %#x (%d)\n", header.SurfDescOffset, header.SurfDescOffset)
	fmt.Printf("Vertex count             : %d\n", header.VertCount)
	fmt.Printf("Vertex data offset       : %#x (%d)\n", header.VertDataOffset, header.VertDataOffset)
	fmt.Printf("Vertex data size         : %d\n", header.VertDataSize)
	fmt.Printf("Index count              : %d (%d triangles)\n", header.IndCount, header.IndCount/3)
	fmt.Printf("Index size               : %d\n", mesh.IndexSize)
	fmt.Printf("Index data offset        : %#x (%d)\n", header.IndDataOffset, header.IndDataOffset)
	fmt.Printf("Index data size          : %d\n", header.IndDataSize)
	fmt.Printf("Bounding box center      : %+v\n", header.AabbCenter)
	fmt.Printf("Bounding box extent      : %+v\n", header.AabbExtent)

	fmt.Println("Vertex attributes:")
	for _, va := range mesh.Attribs {
		fmt.Printf("  %+v\n", va)
	}
	fmt.Println("Surfaces:")
	for _, s := range mesh.Surfaces {
		fmt.Printf("  %+v\n", s)
	}
}

func printStats(stats gacc.MeshStats, cacheSize int) {
	fmt.Printf("Vertex cache (%d entries)\n", cacheSize)
	fmt.Printf("  vertices transformed   : %d\n", stats.Cache.VerticesTransformed)
	fmt.Printf("  ACMR                   : %.3f\n", stats.Cache.ACMR)
	fmt.Printf("  ATVR                   : %.3f\n", stats.Cache.ATVR)
	fmt.Println("Overdraw")
	fmt.Printf("  pixels covered         : %d\n", stats.Overdraw.PixelsCovered)
	fmt.Printf("  pixels shaded          : %d\n", stats.Overdraw.PixelsShaded)
	fmt.Printf("  overdraw               : %.3f\n", stats.Overdraw.Overdraw)
	fmt.Printf("  pixels drawn (depth)   : %d\n", stats.Overdraw.PixelsDrawn)
	fmt.Printf("  depth overdraw         : %.3f\n", stats.Overdraw.DepthOverdraw)
	fmt.Println("Vertex fetch")
	fmt.Printf("  bytes fetched          : %d\n", stats.Fetch.BytesFetched)
	fmt.Printf("  overfetch              : %.3f\n", stats.Fetch.Overfetch)
}

func run() error {
	readMesh.binFilename = flag.Arg(0)
	if readMesh.binFilename == "" {
		return fmt.Errorf("no input file")
	}

	mesh, err := gacc.ReadBinaryMeshFile(readMesh.binFilename)
	if err != nil {
		return err
	}
	printHeader(mesh)

	if readMesh.optionAnalyze {
		stats, err := mesh.Analyze(readMesh.cacheSize)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		printStats(stats, readMesh.cacheSize)
	}

	if readMesh.heatmapFilename != "" {
		view, err := parseView(readMesh.view)
		if err != nil {
			return err
		}
		file, err := os.Create(readMesh.heatmapFilename)
		if err != nil {
			return err
		}
		if err := gacc.WriteOverdrawHeatmap(file, mesh, view); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		slog.Debug("heat map written", "file", readMesh.heatmapFilename, "view", view)
	}
	return nil
}

func main() {
	flag.Parse()
	slog.SetDefault(gacc.NewLogger(os.Stderr, readMesh.optionVerbose))

	if err := run(); err != nil {
		slog.Error("readmesh failed", "error", err)
		os.Exit(1)
	}
}
