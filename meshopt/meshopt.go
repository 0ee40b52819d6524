package meshopt

import (
	"errors"
	"fmt"
	"unsafe"
)

// Index is the storage type of an index buffer element.
type Index interface {
	~uint16 | ~uint32
}

// ErrInvalidArgument is returned (wrapped) for every violated call contract:
// missized buffers, out of range indices, short strides and so on.
var ErrInvalidArgument = errors.New("meshopt: invalid argument")

const (
	// DefaultCacheSize is the FIFO size assumed by the optimizers. It
	// should be smaller than the real post-transform cache to avoid
	// thrashing.
	DefaultCacheSize = 16

	// DefaultAnalyzeCacheSize is the cache size used by AnalyzeVertexCache
	// when none is given.
	DefaultAnalyzeCacheSize = 32

	// DefaultOverdrawThreshold keeps the vertex cache efficiency of the
	// input order.
	DefaultOverdrawThreshold = 1.0

	// positionSize is the byte size of the float3 position at the start of
	// every vertex record.
	positionSize = 12
)

// Clusters lists the triangle offsets at which each cluster of an index
// buffer starts, in ascending order. The first entry is always 0.
type Clusters []uint32

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

func maxIndex[T Index]() uint64 {
	var zero T
	return uint64(^zero)
}

// checkIndices validates the shape of an index buffer against vertexCount.
func checkIndices[T Index](indices []T, vertexCount int) error {
	if len(indices)%3 != 0 {
		return invalidf("index count %d is not a multiple of 3", len(indices))
	}
	if vertexCount < 0 {
		return invalidf("negative vertex count %d", vertexCount)
	}
	for i, idx := range indices {
		if int(idx) >= vertexCount {
			return invalidf("index %d at position %d out of range for %d vertices", idx, i, vertexCount)
		}
	}
	return nil
}

// vertexCountOf returns the number of records in a vertex buffer.
func vertexCountOf(vertices []byte, vertexSize int) (int, error) {
	if vertexSize <= 0 {
		return 0, invalidf("vertex size %d", vertexSize)
	}
	if len(vertices)%vertexSize != 0 {
		return 0, invalidf("vertex buffer of %d bytes is not a multiple of vertex size %d", len(vertices), vertexSize)
	}
	return len(vertices) / vertexSize, nil
}

// overlaps reports whether a and b share any element.
func overlaps[E any](a, b []E) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	size := unsafe.Sizeof(a[0])
	aStart, bStart := uintptr(unsafe.Pointer(&a[0])), uintptr(unsafe.Pointer(&b[0]))
	return aStart < bStart+uintptr(len(b))*size && bStart < aStart+uintptr(len(a))*size
}

func checkClusters(clusters Clusters, triangleCount int) error {
	for i, c := range clusters {
		switch {
		case i == 0 && c != 0:
			return invalidf("first cluster starts at triangle %d", c)
		case int(c) >= triangleCount:
			return invalidf("cluster %d starts at triangle %d past %d triangles", i, c, triangleCount)
		case i > 0 && c <= clusters[i-1]:
			return invalidf("cluster %d start %d is not ascending", i, c)
		}
	}
	return nil
}
