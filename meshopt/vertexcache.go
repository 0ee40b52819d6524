package meshopt

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// triangleAdjacency lists, for every vertex, the triangles referencing it.
// A triangle appears once per corner that references the vertex.
type triangleAdjacency struct {
	counts  []uint32
	offsets []uint32
	data    []uint32
}

func buildTriangleAdjacency[T Index](indices []T, vertexCount int) triangleAdjacency {
	adj := triangleAdjacency{
		counts:  make([]uint32, vertexCount),
		offsets: make([]uint32, vertexCount),
		data:    make([]uint32, len(indices)),
	}

	for _, v := range indices {
		adj.counts[v]++
	}

	var offset uint32
	for i, c := range adj.counts {
		adj.offsets[i] = offset
		offset += c
	}

	fill := slices.Clone(adj.offsets)
	for i, v := range indices {
		adj.data[fill[v]] = uint32(i / 3)
		fill[v]++
	}

	return adj
}

func (a *triangleAdjacency) triangles(v uint32) []uint32 {
	return a.data[a.offsets[v] : a.offsets[v]+a.counts[v]]
}

// tipsify holds the traversal state of one OptimizeVertexCache call.
type tipsify struct {
	cacheSize  uint32
	timestamp  uint32
	timestamps []uint32 // time each vertex entered the simulated cache
	live       []uint32 // unemitted triangles per vertex
	deadEnd    []uint32
	cursor     int
}

// nextCandidate picks the next fanning vertex among the vertices touched by
// the last fan. A vertex that stays in the cache after emitting all its live
// triangles scores its age, so the oldest such vertex is used before it is
// evicted; any other vertex with live triangles scores 0.
func (t *tipsify) nextCandidate(candidates []uint32) int {
	best, bestPriority := -1, -1

	for _, v := range candidates {
		if t.live[v] == 0 {
			continue
		}

		priority := 0
		if age := t.timestamp - t.timestamps[v]; age+2*t.live[v] <= t.cacheSize {
			priority = int(age)
		}

		// strict comparison keeps the earliest candidate on ties
		if priority > bestPriority {
			best, bestPriority = int(v), priority
		}
	}

	return best
}

// skipDeadEnd returns the most recently referenced vertex that still has live
// triangles, falling back to the next one in input order.
func (t *tipsify) skipDeadEnd() int {
	for len(t.deadEnd) > 0 {
		v := t.deadEnd[len(t.deadEnd)-1]
		t.deadEnd = t.deadEnd[:len(t.deadEnd)-1]
		if t.live[v] > 0 {
			return int(v)
		}
	}

	for t.cursor < len(t.live) {
		v := t.cursor
		t.cursor++
		if t.live[v] > 0 {
			return v
		}
	}

	return -1
}

// touch records a reference to v, inserting it in the simulated FIFO if it
// is not resident.
func (t *tipsify) touch(v uint32) {
	t.live[v]--
	if t.timestamp-t.timestamps[v] > t.cacheSize {
		t.timestamps[v] = t.timestamp
		t.timestamp++
	}
}

// OptimizeVertexCache reorders triangles to reduce the number of vertex
// shader invocations, using the Tipsify algorithm by Sander et al.
//
// dst receives the reordered triangles and may overlap indices.
// The corner order of each triangle is preserved. cacheSize is the simulated
// FIFO size (0 selects DefaultCacheSize) and should be smaller than the real
// cache. Degenerate triangles are kept.
//
// The returned clusters mark where the traversal hit a dead end and restarted;
// pass them to OptimizeOverdraw.
func OptimizeVertexCache[T Index](dst, indices []T, vertexCount, cacheSize int) (Clusters, error) {
	if len(dst) != len(indices) {
		return nil, invalidf("destination holds %d indices, source has %d", len(dst), len(indices))
	}
	if err := checkIndices(indices, vertexCount); err != nil {
		return nil, err
	}
	if cacheSize == 0 {
		cacheSize = DefaultCacheSize
	}
	if cacheSize < 0 {
		return nil, invalidf("cache size %d", cacheSize)
	}

	triangleCount := len(indices) / 3
	if triangleCount == 0 {
		return nil, nil
	}
	if overlaps(dst, indices) {
		indices = slices.Clone(indices)
	}

	adj := buildTriangleAdjacency(indices, vertexCount)
	emitted := bitset.New(uint(triangleCount))

	t := &tipsify{
		cacheSize:  uint32(cacheSize),
		timestamp:  uint32(cacheSize) + 1,
		timestamps: make([]uint32, vertexCount),
		live:       slices.Clone(adj.counts),
		deadEnd:    make([]uint32, 0, len(indices)),
		cursor:     1,
	}

	clusters := Clusters{0}
	output := 0
	current := 0

	for current >= 0 {
		fanStart := len(t.deadEnd)

		for _, tri := range adj.triangles(uint32(current)) {
			if emitted.Test(uint(tri)) {
				continue
			}
			emitted.Set(uint(tri))

			a, b, c := indices[tri*3], indices[tri*3+1], indices[tri*3+2]
			dst[output*3+0] = a
			dst[output*3+1] = b
			dst[output*3+2] = c
			output++

			t.deadEnd = append(t.deadEnd, uint32(a), uint32(b), uint32(c))
			t.touch(uint32(a))
			t.touch(uint32(b))
			t.touch(uint32(c))
		}

		current = t.nextCandidate(t.deadEnd[fanStart:])
		if current < 0 {
			current = t.skipDeadEnd()
			if current >= 0 && uint32(output) > clusters[len(clusters)-1] {
				clusters = append(clusters, uint32(output))
			}
		}
	}

	return clusters, nil
}
