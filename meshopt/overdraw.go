package meshopt

import (
	"cmp"
	"math"
	"slices"

	"github.com/foukevin/gacc/vector"
)

// triangleRange is a half-open run of triangle positions.
type triangleRange struct {
	start, end int
}

func clusterRanges(clusters Clusters, triangleCount int) []triangleRange {
	ranges := make([]triangleRange, len(clusters))
	for i, c := range clusters {
		end := triangleCount
		if i+1 < len(clusters) {
			end = int(clusters[i+1])
		}
		ranges[i] = triangleRange{int(c), end}
	}
	return ranges
}

// softBoundaries splits every cluster at the points where the ACMR of the
// triangles since the last split drops to threshold times the ACMR of the
// whole cluster. Smaller clusters sort better at a bounded cache cost.
func softBoundaries(indices []uint32, hard []triangleRange, cache *lruCache, threshold float32) []triangleRange {
	soft := make([]triangleRange, 0, len(hard))

	for _, h := range hard {
		cache.reset()
		clusterMisses := cache.misses(indices, h.start, h.end)
		limit := threshold * float32(clusterMisses) / float32(h.end-h.start)

		cache.reset()
		start, running := h.start, 0
		for i := h.start; i < h.end-1; i++ {
			running += cache.misses(indices, i, i+1)
			if float32(running)/float32(i+1-start) <= limit {
				soft = append(soft, triangleRange{start, i + 1})
				start, running = i+1, 0
				cache.reset()
			}
		}
		soft = append(soft, triangleRange{start, h.end})
	}

	return soft
}

type clusterSortKey struct {
	triangleRange
	centroid vector.Vector3
	normal   vector.Vector3
	area     float64
	key      float64
}

// sortClusters orders clusters so that the ones facing away from the mesh
// center, which tend to occlude the rest, are drawn first. The sort is
// stable so equal keys keep their traversal order.
func sortClusters(indices []uint32, positions []float32, ranges []triangleRange) []uint32 {
	keys := make([]clusterSortKey, len(ranges))
	var meshCentroid vector.Vector3
	var meshArea float64

	for i, r := range ranges {
		k := clusterSortKey{triangleRange: r}
		for t := r.start; t < r.end; t++ {
			a := vector.FromFloat32(positions[indices[t*3+0]*3:])
			b := vector.FromFloat32(positions[indices[t*3+1]*3:])
			c := vector.FromFloat32(positions[indices[t*3+2]*3:])

			n := vector.Cross(vector.Substract(b, a), vector.Substract(c, a))
			area := n.Magnitude()

			k.centroid = vector.Add(k.centroid, vector.Add(a, vector.Add(b, c)).Scaled(area/3))
			k.normal = vector.Add(k.normal, n)
			k.area += area
		}

		meshCentroid = vector.Add(meshCentroid, k.centroid)
		meshArea += k.area
		if k.area > 0 {
			k.centroid.MultiplyByScalar(1 / k.area)
		}
		keys[i] = k
	}

	if meshArea > 0 {
		meshCentroid.MultiplyByScalar(1 / meshArea)
	}

	for i := range keys {
		k := &keys[i]
		if k.area == 0 {
			continue
		}
		k.key = vector.Dot(vector.Substract(k.centroid, meshCentroid), k.normal.Normalized())
	}

	slices.SortStableFunc(keys, func(a, b clusterSortKey) int {
		return cmp.Compare(b.key, a.key)
	})

	out := make([]uint32, 0, len(indices))
	for _, k := range keys {
		out = append(out, indices[k.start*3:k.end*3]...)
	}
	return out
}

// OptimizeOverdraw reorders the clusters of a vertex cache optimized index
// buffer to reduce pixel overdraw.
//
// indices and clusters must come from OptimizeVertexCache (nil clusters treat
// the buffer as a single cluster). Positions are read from the first 12 bytes
// of every vertex record. dst may be the same slice as indices.
//
// threshold bounds the loss of vertex cache efficiency: the result's ACMR,
// measured with AnalyzeVertexCache at cacheSize, never exceeds threshold times
// the ACMR of indices (1.05 allows 5%). A zero threshold selects
// DefaultOverdrawThreshold and a zero cacheSize selects DefaultCacheSize.
// Reorderings that break the bound or do not reduce the rasterized overdraw
// are rejected and the input order is kept.
func OptimizeOverdraw[T Index](dst, indices []T, clusters Clusters, vertices []byte, vertexSize, cacheSize int, threshold float32) error {
	if len(dst) != len(indices) {
		return invalidf("destination holds %d indices, source has %d", len(dst), len(indices))
	}
	if cacheSize == 0 {
		cacheSize = DefaultCacheSize
	}
	if cacheSize < 0 {
		return invalidf("cache size %d", cacheSize)
	}
	if threshold == 0 {
		threshold = DefaultOverdrawThreshold
	}
	if threshold < 1 || math.IsNaN(float64(threshold)) || math.IsInf(float64(threshold), 0) {
		return invalidf("overdraw threshold %v must be a finite value of at least 1", threshold)
	}

	flat, positions, err := prepareOverdraw(indices, vertices, vertexSize)
	if err != nil {
		return err
	}

	triangleCount := len(indices) / 3
	if len(clusters) == 0 {
		clusters = Clusters{0}
	}
	if triangleCount == 0 {
		return nil
	}
	if err := checkClusters(clusters, triangleCount); err != nil {
		return err
	}

	cache := newLRUCache(cacheSize)
	missLimit := float64(cache.misses(flat, 0, triangleCount)) * float64(threshold)

	r := newOverdrawRasterizer()
	best := flat
	bestStats := r.drawAll(flat, positions)

	hard := clusterRanges(clusters, triangleCount)
	soft := softBoundaries(flat, hard, cache, threshold)

	candidates := [][]triangleRange{hard}
	if len(soft) > len(hard) {
		candidates = [][]triangleRange{soft, hard}
	}

	for _, ranges := range candidates {
		if len(ranges) < 2 {
			continue
		}

		candidate := sortClusters(flat, positions, ranges)

		cache.reset()
		if float64(cache.misses(candidate, 0, triangleCount)) > missLimit {
			continue
		}

		if stats := r.drawAll(candidate, positions); stats.PixelsDrawn < bestStats.PixelsDrawn {
			best, bestStats = candidate, stats
		}
	}

	for i, v := range best {
		dst[i] = T(v)
	}
	return nil
}
