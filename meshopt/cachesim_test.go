package meshopt

import (
	"errors"
	"testing"
)

func TestAnalyzeVertexCache(t *testing.T) {
	tests := []struct {
		name        string
		indices     []uint32
		vertexCount int
		cacheSize   int
		transformed uint32
		acmr, atvr  float32
	}{
		{"quad", []uint32{0, 1, 2, 0, 2, 3}, 4, 3, 4, 2, 1},
		// a FIFO would keep 1 resident; LRU refreshed 0 and evicted 1
		{"lru refresh", []uint32{0, 1, 2, 0, 3, 1}, 4, 3, 5, 2.5, 1.25},
		{"thrash", []uint32{0, 1, 2, 3, 4, 5, 0, 1, 2}, 6, 3, 9, 3, 1.5},
		{"empty", nil, 0, 3, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := AnalyzeVertexCache(tt.indices, tt.vertexCount, tt.cacheSize)
			if err != nil {
				t.Fatalf("AnalyzeVertexCache: %v", err)
			}
			if stats.VerticesTransformed != tt.transformed || stats.ACMR != tt.acmr || stats.ATVR != tt.atvr {
				t.Fatalf("got %+v, want transformed=%d acmr=%v atvr=%v", stats, tt.transformed, tt.acmr, tt.atvr)
			}
		})
	}
}

func TestAnalyzeVertexCacheWidths(t *testing.T) {
	_, grid := gridMesh(8)
	a, err := AnalyzeVertexCache(convertIndices[uint16](grid), 81, 0)
	if err != nil {
		t.Fatalf("uint16: %v", err)
	}
	b, err := AnalyzeVertexCache(grid, 81, 0)
	if err != nil {
		t.Fatalf("uint32: %v", err)
	}
	if a != b {
		t.Fatalf("uint16 %+v and uint32 %+v statistics differ", a, b)
	}
}

func TestAnalyzeVertexCacheDoesNotMutate(t *testing.T) {
	indices := []uint16{2, 1, 0, 3, 2, 0}
	if _, err := AnalyzeVertexCache(indices, 4, 2); err != nil {
		t.Fatalf("AnalyzeVertexCache: %v", err)
	}
	want := []uint16{2, 1, 0, 3, 2, 0}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("indices mutated: %v", indices)
		}
	}
}

func TestAnalyzeVertexCacheInvalid(t *testing.T) {
	if _, err := AnalyzeVertexCache([]uint32{0, 1, 5}, 3, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("out of range index: got %v", err)
	}
	if _, err := AnalyzeVertexCache([]uint32{0, 1}, 3, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ragged buffer: got %v", err)
	}
	if _, err := AnalyzeVertexCache([]uint32{0, 1, 2}, 3, -4); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative cache: got %v", err)
	}
}
