package gacc

import (
	"fmt"

	"github.com/foukevin/gacc/vector"
)

type FaceVert struct {
	PositionIndex, TexcoIndex, NormalIndex int
}

type Polygon struct {
	FaceVerts []FaceVert
	Material  uint
}

// Mesh is the polygon mesh as read from a source file. Face vertices index
// into the attribute arrays; a negative index means the attribute is absent.
type Mesh struct {
	Name                       string
	Positions, Texcos, Normals []vector.Vector3
	Polygons                   []Polygon
	SurfaceCount               uint
}

type vertex struct {
	position, normal vector.Vector3
	texco0           vector.Vector3
}

type triangle struct {
	vertices [3]vertex
}

type triangleMesh struct {
	vertexAttribNames []VertexAttribName
	surfaces          [][]triangle
}

func attributeAt(values []vector.Vector3, index int, what string) (vector.Vector3, error) {
	if index < 0 {
		return vector.Vector3{}, nil
	}
	if index >= len(values) {
		return vector.Vector3{}, fmt.Errorf("%s index %d out of range (%d defined)", what, index+1, len(values))
	}
	return values[index], nil
}

// MeshToTriangleMesh resolves face vertices and splits polygons into
// triangle fans, one triangle list per surface.
func MeshToTriangleMesh(m *Mesh) (*triangleMesh, error) {
	trimesh := new(triangleMesh)
	hasPosition := len(m.Positions) > 0
	if hasPosition {
		trimesh.vertexAttribNames = append(trimesh.vertexAttribNames, Position)
	}
	hasNormal := len(m.Normals) > 0
	if hasNormal {
		trimesh.vertexAttribNames = append(trimesh.vertexAttribNames, Normal)
	}
	hasTexco := len(m.Texcos) > 0
	if hasTexco {
		trimesh.vertexAttribNames = append(trimesh.vertexAttribNames, Texco0)
	}

	trimesh.surfaces = make([][]triangle, max(m.SurfaceCount, 1))

	for pi, p := range m.Polygons {
		if int(p.Material) >= len(trimesh.surfaces) {
			return nil, fmt.Errorf("polygon %d: material %d out of range", pi, p.Material)
		}

		poly := make([]vertex, 0, len(p.FaceVerts))
		for _, f := range p.FaceVerts {
			var newVert vertex
			var err error
			if hasPosition {
				if newVert.position, err = attributeAt(m.Positions, f.PositionIndex, "position"); err != nil {
					return nil, fmt.Errorf("polygon %d: %w", pi, err)
				}
			}
			if hasNormal {
				if newVert.normal, err = attributeAt(m.Normals, f.NormalIndex, "normal"); err != nil {
					return nil, fmt.Errorf("polygon %d: %w", pi, err)
				}
			}
			if hasTexco {
				if newVert.texco0, err = attributeAt(m.Texcos, f.TexcoIndex, "texture coordinate"); err != nil {
					return nil, fmt.Errorf("polygon %d: %w", pi, err)
				}
			}
			poly = append(poly, newVert)
		}

		// convex polygons only; quads split along 0-2 as before
		triangles := &trimesh.surfaces[p.Material]
		for i := 2; i < len(poly); i++ {
			*triangles = append(*triangles, triangle{[3]vertex{poly[0], poly[i-1], poly[i]}})
		}
	}

	return trimesh, nil
}
