package meshopt

import (
	"github.com/bits-and-blooms/bitset"
)

// fetchLineSize is the line size of the simulated vertex fetch cache.
const fetchLineSize = 64

// VertexFetchStatistics describes the memory traffic of fetching vertex
// attributes for an index buffer.
type VertexFetchStatistics struct {
	BytesFetched uint32
	Overfetch    float32 // fetched bytes / vertex buffer size; best case 1.0
}

// OptimizeVertexFetch reorders vertices in the order the index buffer first
// references them, so that the GPU fetches vertex memory sequentially.
//
// indices is rewritten in place to the new vertex ids and dst receives the
// reordered vertex buffer; dst must be exactly as large as vertices.
// Vertices that are never referenced are kept, after all referenced ones, in
// their original order. It returns the number of referenced vertices.
func OptimizeVertexFetch[T Index](dst, vertices []byte, indices []T, vertexSize int) (int, error) {
	vertexCount, err := vertexCountOf(vertices, vertexSize)
	if err != nil {
		return 0, err
	}
	if len(dst) != len(vertices) {
		return 0, invalidf("destination holds %d bytes, vertex buffer has %d", len(dst), len(vertices))
	}
	if overlaps(dst, vertices) {
		return 0, invalidf("destination and source vertex buffers must not overlap")
	}
	if err := checkIndices(indices, vertexCount); err != nil {
		return 0, err
	}

	const unassigned = ^uint32(0)
	remap := make([]uint32, vertexCount)
	for i := range remap {
		remap[i] = unassigned
	}

	next := uint32(0)
	for i, v := range indices {
		id := remap[v]
		if id == unassigned {
			id = next
			remap[v] = id
			copy(dst[int(id)*vertexSize:], vertices[int(v)*vertexSize:(int(v)+1)*vertexSize])
			next++
		}
		indices[i] = T(id)
	}

	referenced := int(next)
	for v, id := range remap {
		if id == unassigned {
			copy(dst[int(next)*vertexSize:], vertices[v*vertexSize:(v+1)*vertexSize])
			next++
		}
	}

	return referenced, nil
}

// AnalyzeVertexFetch estimates vertex fetch traffic: every reference touches
// the cache lines covering its vertex record and each line is fetched the
// first time it is touched. Results will not match any particular GPU.
func AnalyzeVertexFetch[T Index](indices []T, vertexCount, vertexSize int) (VertexFetchStatistics, error) {
	if vertexSize <= 0 {
		return VertexFetchStatistics{}, invalidf("vertex size %d", vertexSize)
	}
	if err := checkIndices(indices, vertexCount); err != nil {
		return VertexFetchStatistics{}, err
	}

	bufferSize := vertexCount * vertexSize
	fetched := bitset.New(uint((bufferSize + fetchLineSize - 1) / fetchLineSize))

	var stats VertexFetchStatistics
	for _, v := range indices {
		start := int(v) * vertexSize
		end := start + vertexSize

		for line := start / fetchLineSize; line <= (end-1)/fetchLineSize; line++ {
			if !fetched.Test(uint(line)) {
				fetched.Set(uint(line))
				stats.BytesFetched += fetchLineSize
			}
		}
	}

	if bufferSize > 0 {
		stats.Overfetch = float32(stats.BytesFetched) / float32(bufferSize)
	}
	return stats, nil
}
