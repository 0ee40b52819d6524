// Package meshopt reorders and deduplicates triangle mesh buffers to make
// them cheaper for a GPU to draw.
//
// A typical pipeline, run once per mesh after loading and before upload:
//
//	unique, _ := meshopt.GenerateIndexBuffer(indices, stream, vertexSize)
//	vertices := make([]byte, unique*vertexSize)
//	meshopt.GenerateVertexBuffer(vertices, indices, stream, vertexSize)
//	clusters, _ := meshopt.OptimizeVertexCache(indices, indices, unique, 16)
//	meshopt.OptimizeOverdraw(indices, indices, clusters, vertices, vertexSize, 16, 1.05)
//	meshopt.OptimizeVertexFetch(out, vertices, indices, vertexSize)
//
// Vertex buffers are opaque fixed-stride byte records. Functions that need
// geometry read a little-endian float3 position from the first 12 bytes of
// each record. Index buffers may be []uint16 or []uint32; both widths run the
// same code.
//
// Every call is synchronous and keeps no state between calls, so independent
// meshes may be processed from different goroutines. Callers own all buffers;
// destination buffers must be sized exactly and contract violations are
// reported as ErrInvalidArgument.
package meshopt
