package meshopt

import (
	"errors"
	"testing"
)

// quadLayers builds count unit quads stacked along z.
func quadLayers(count int) ([]byte, []uint32) {
	vertices := make([]byte, count*4*testVertexSize)
	var indices []uint32
	for layer := 0; layer < count; layer++ {
		z := float32(layer)
		base := layer * 4
		putVertex(vertices, base+0, 0, 0, z, 0)
		putVertex(vertices, base+1, 1, 0, z, 0)
		putVertex(vertices, base+2, 0, 1, z, 0)
		putVertex(vertices, base+3, 1, 1, z, 0)
		b := uint32(base)
		indices = append(indices, b, b+1, b+2, b+2, b+1, b+3)
	}
	return vertices, indices
}

func TestAnalyzeOverdrawSingleQuad(t *testing.T) {
	vertices, indices := quadLayers(1)
	stats, err := AnalyzeOverdraw(indices, vertices, testVertexSize)
	if err != nil {
		t.Fatalf("AnalyzeOverdraw: %v", err)
	}

	// only the two z views see the quad; the shared diagonal is drawn once
	const full = overdrawViewport * overdrawViewport
	if stats.PixelsShaded != 2*full || stats.PixelsCovered != 2*full {
		t.Fatalf("got %+v, want %d covered and shaded pixels", stats, 2*full)
	}
	if stats.Overdraw != 1 || stats.DepthOverdraw != 1 {
		t.Fatalf("expected overdraw 1, got %+v", stats)
	}
}

func TestAnalyzeOverdrawStackedQuads(t *testing.T) {
	vertices, indices := quadLayers(2)
	stats, err := AnalyzeOverdraw(indices, vertices, testVertexSize)
	if err != nil {
		t.Fatalf("AnalyzeOverdraw: %v", err)
	}

	if stats.Overdraw != 2 {
		t.Errorf("expected every pixel covered twice, got overdraw %v", stats.Overdraw)
	}
	// front to back in one view, back to front in the other
	if stats.DepthOverdraw != 1.5 {
		t.Errorf("expected depth overdraw 1.5, got %v", stats.DepthOverdraw)
	}
	if stats.PixelsDrawn < stats.PixelsShaded || stats.PixelsDrawn > stats.PixelsCovered {
		t.Errorf("drawn pixels %d outside [%d, %d]", stats.PixelsDrawn, stats.PixelsShaded, stats.PixelsCovered)
	}
}

func TestAnalyzeOverdrawWidths(t *testing.T) {
	vertices, indices := cubeMesh(4)
	a, err := AnalyzeOverdraw(convertIndices[uint16](indices), vertices, testVertexSize)
	if err != nil {
		t.Fatalf("uint16: %v", err)
	}
	b, err := AnalyzeOverdraw(indices, vertices, testVertexSize)
	if err != nil {
		t.Fatalf("uint32: %v", err)
	}
	if a != b {
		t.Fatalf("uint16 %+v and uint32 %+v statistics differ", a, b)
	}
	if a.Overdraw < 1 {
		t.Fatalf("overdraw %v below 1", a.Overdraw)
	}
}

func TestOverdrawCoverage(t *testing.T) {
	vertices, indices := quadLayers(2)
	coverage, err := OverdrawCoverage(indices, vertices, testVertexSize, ViewPositiveZ)
	if err != nil {
		t.Fatalf("OverdrawCoverage: %v", err)
	}
	if coverage.Width != overdrawViewport || coverage.Height != overdrawViewport {
		t.Fatalf("unexpected size %dx%d", coverage.Width, coverage.Height)
	}
	for i, c := range coverage.Counts {
		if c != 2 {
			t.Fatalf("pixel %d covered %d times, want 2", i, c)
		}
	}

	side, err := OverdrawCoverage(indices, vertices, testVertexSize, ViewPositiveX)
	if err != nil {
		t.Fatalf("OverdrawCoverage: %v", err)
	}
	for i, c := range side.Counts {
		if c != 0 {
			t.Fatalf("edge-on quads covered pixel %d", i)
		}
	}

	if _, err := OverdrawCoverage(indices, vertices, testVertexSize, View(9)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("invalid view: got %v", err)
	}
}

func TestAnalyzeOverdrawInvalid(t *testing.T) {
	vertices, indices := quadLayers(1)
	if _, err := AnalyzeOverdraw(indices, vertices[:len(vertices)-1], testVertexSize); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ragged vertex buffer: got %v", err)
	}
	if _, err := AnalyzeOverdraw(indices, vertices[:32], 8); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("stride below position size: got %v", err)
	}
	if _, err := AnalyzeOverdraw([]uint32{0, 1, 4}, vertices, testVertexSize); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("out of range index: got %v", err)
	}
}

func TestAnalyzeOverdrawDegenerate(t *testing.T) {
	vertices, _ := quadLayers(1)
	stats, err := AnalyzeOverdraw([]uint32{0, 0, 1, 2, 2, 2}, vertices, testVertexSize)
	if err != nil {
		t.Fatalf("AnalyzeOverdraw: %v", err)
	}
	if stats != (OverdrawStatistics{}) {
		t.Fatalf("degenerate triangles produced pixels: %+v", stats)
	}
}

func TestAnalyzeOverdrawSharedEdges(t *testing.T) {
	for _, n := range []int{3, 7, 13} {
		vertices, indices := gridMesh(n)
		stats, err := AnalyzeOverdraw(indices, vertices, testVertexSize)
		if err != nil {
			t.Fatalf("AnalyzeOverdraw: %v", err)
		}

		// a flat grid tiles both z views without gaps or double hits
		const full = 2 * overdrawViewport * overdrawViewport
		if stats.PixelsCovered != full || stats.PixelsShaded != full || stats.Overdraw != 1 {
			t.Errorf("grid %d: got %+v, want %d pixels covered once", n, stats, full)
		}
	}
}
