package meshopt

import (
	"encoding/binary"
	"math"
)

// testVertexSize holds a float3 position and a 4 byte attribute.
const testVertexSize = 16

func putVertex(buf []byte, i int, x, y, z float32, attr uint32) {
	p := buf[i*testVertexSize:]
	binary.LittleEndian.PutUint32(p[0:], math.Float32bits(x))
	binary.LittleEndian.PutUint32(p[4:], math.Float32bits(y))
	binary.LittleEndian.PutUint32(p[8:], math.Float32bits(z))
	binary.LittleEndian.PutUint32(p[12:], attr)
}

// gridMesh builds an n x n quad grid in the z=0 plane with row-major
// triangles.
func gridMesh(n int) ([]byte, []uint32) {
	side := n + 1
	vertices := make([]byte, side*side*testVertexSize)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			putVertex(vertices, y*side+x, float32(x), float32(y), 0, uint32(y*side+x))
		}
	}

	indices := make([]uint32, 0, n*n*6)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			a := uint32(y*side + x)
			b := a + 1
			c := a + uint32(side)
			d := c + 1
			indices = append(indices, a, b, c, b, d, c)
		}
	}
	return vertices, indices
}

// cubeMesh builds the six faces of a unit cube, each an n x n grid with its
// own vertices.
func cubeMesh(n int) ([]byte, []uint32) {
	side := n + 1
	perFace := side * side
	vertices := make([]byte, 6*perFace*testVertexSize)
	var indices []uint32

	for face := 0; face < 6; face++ {
		axis := face / 2
		w := float32(face % 2)
		base := face * perFace

		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				var p [3]float32
				p[axis] = w
				p[(axis+1)%3] = float32(x) / float32(n)
				p[(axis+2)%3] = float32(y) / float32(n)
				putVertex(vertices, base+y*side+x, p[0], p[1], p[2], uint32(face))
			}
		}

		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				a := uint32(base + y*side + x)
				b := a + 1
				c := a + uint32(side)
				d := c + 1
				indices = append(indices, a, b, c, b, d, c)
			}
		}
	}
	return vertices, indices
}

func convertIndices[T Index](indices []uint32) []T {
	out := make([]T, len(indices))
	for i, v := range indices {
		out[i] = T(v)
	}
	return out
}

func triangleSet[T Index](indices []T) map[[3]uint32]int {
	set := make(map[[3]uint32]int)
	for i := 0; i+2 < len(indices); i += 3 {
		set[[3]uint32{uint32(indices[i]), uint32(indices[i+1]), uint32(indices[i+2])}]++
	}
	return set
}

func sameTriangles[T Index](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := triangleSet(a), triangleSet(b)
	if len(sa) != len(sb) {
		return false
	}
	for k, n := range sa {
		if sb[k] != n {
			return false
		}
	}
	return true
}
