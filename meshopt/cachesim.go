package meshopt

// VertexCacheStatistics describes how a post-transform vertex cache performs
// on an index buffer.
type VertexCacheStatistics struct {
	VerticesTransformed uint32
	ACMR                float32 // transformed vertices / triangle count; best case 0.5, worst case 3.0
	ATVR                float32 // transformed vertices / vertex count; best case 1.0, worst case 6.0
}

// lruCache is a bounded list of resident vertex ids, least recent first.
type lruCache struct {
	entries []uint32
}

func newLRUCache(size int) *lruCache {
	return &lruCache{entries: make([]uint32, 0, size)}
}

// access references v and reports whether it was resident.
func (c *lruCache) access(v uint32) bool {
	for i, e := range c.entries {
		if e == v {
			copy(c.entries[i:], c.entries[i+1:])
			c.entries[len(c.entries)-1] = v
			return true
		}
	}

	if len(c.entries) == cap(c.entries) {
		copy(c.entries, c.entries[1:])
		c.entries = c.entries[:len(c.entries)-1]
	}
	c.entries = append(c.entries, v)
	return false
}

func (c *lruCache) reset() {
	c.entries = c.entries[:0]
}

// misses replays triangles [start, end) of indices and returns the number of
// vertices that had to be transformed.
func (c *lruCache) misses(indices []uint32, start, end int) int {
	n := 0
	for _, v := range indices[start*3 : end*3] {
		if !c.access(v) {
			n++
		}
	}
	return n
}

// AnalyzeVertexCache replays indices through a simulated LRU cache of
// cacheSize entries (0 selects DefaultAnalyzeCacheSize). Results will not
// match any particular GPU.
func AnalyzeVertexCache[T Index](indices []T, vertexCount, cacheSize int) (VertexCacheStatistics, error) {
	if err := checkIndices(indices, vertexCount); err != nil {
		return VertexCacheStatistics{}, err
	}
	if cacheSize == 0 {
		cacheSize = DefaultAnalyzeCacheSize
	}
	if cacheSize < 0 {
		return VertexCacheStatistics{}, invalidf("cache size %d", cacheSize)
	}

	cache := newLRUCache(cacheSize)
	var stats VertexCacheStatistics
	for _, v := range indices {
		if !cache.access(uint32(v)) {
			stats.VerticesTransformed++
		}
	}

	if triangles := len(indices) / 3; triangles > 0 {
		stats.ACMR = float32(stats.VerticesTransformed) / float32(triangles)
	}
	if vertexCount > 0 {
		stats.ATVR = float32(stats.VerticesTransformed) / float32(vertexCount)
	}
	return stats, nil
}
