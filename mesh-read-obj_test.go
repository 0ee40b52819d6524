package gacc

import (
	"strings"
	"testing"

	"github.com/foukevin/gacc/vector"
)

const cubeObj = `# unit cube
o cube
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1
usemtl side
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
usemtl top
f 2 3 7 6
f 3 4 8 7
f 4 1 5 8
`

func TestParseObjCube(t *testing.T) {
	mesh, err := ParseObj(strings.NewReader(cubeObj), "cube")
	if err != nil {
		t.Fatalf("ParseObj: %v", err)
	}

	if mesh.Name != "cube" {
		t.Errorf("name = %q", mesh.Name)
	}
	if len(mesh.Positions) != 8 || len(mesh.Polygons) != 6 {
		t.Fatalf("got %d positions and %d polygons", len(mesh.Positions), len(mesh.Polygons))
	}
	if mesh.SurfaceCount != 2 {
		t.Errorf("surface count = %d, want 2", mesh.SurfaceCount)
	}
	if mesh.Polygons[2].Material != 0 || mesh.Polygons[3].Material != 1 {
		t.Errorf("materials = %d, %d", mesh.Polygons[2].Material, mesh.Polygons[3].Material)
	}

	fv := mesh.Polygons[0].FaceVerts[1]
	if fv.PositionIndex != 3 || fv.TexcoIndex != -1 || fv.NormalIndex != -1 {
		t.Errorf("face vertex = %+v", fv)
	}
}

func TestParseObjFaceFormats(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
f 1//1 2//1 3//1
f -3/-3 -2/-2 -1/-1
`
	mesh, err := ParseObj(strings.NewReader(src), "")
	if err != nil {
		t.Fatalf("ParseObj: %v", err)
	}
	if mesh.Name != "untitled" || mesh.SurfaceCount != 1 {
		t.Errorf("name %q, %d surfaces", mesh.Name, mesh.SurfaceCount)
	}

	want := [][3]FaceVert{
		{{0, 0, 0}, {1, 1, 0}, {2, 2, 0}},
		{{0, -1, 0}, {1, -1, 0}, {2, -1, 0}},
		{{0, 0, -1}, {1, 1, -1}, {2, 2, -1}},
	}
	for i, p := range mesh.Polygons {
		for j, fv := range p.FaceVerts {
			if fv != want[i][j] {
				t.Errorf("polygon %d vertex %d = %+v, want %+v", i, j, fv, want[i][j])
			}
		}
	}
	if len(mesh.Texcos) != 3 || mesh.Texcos[1].X != 1 {
		t.Errorf("texture coordinates = %+v", mesh.Texcos)
	}
}

func TestParseObjErrors(t *testing.T) {
	for _, src := range []string{
		"v 0 0\n",
		"v a b c\n",
		"vt 0\n",
		"v 0 0 0\nf 0 1 1\n",
		"v 0 0 0\nf -2 1 1\n",
		"v 0 0 0\nf x 1 1\n",
	} {
		if _, err := ParseObj(strings.NewReader(src), "bad"); err == nil {
			t.Errorf("expected an error for %q", src)
		}
	}
}

func TestMeshToTriangleMesh(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 1 1 0
v 0.5 2 0
v 0 1 0
f 1 2 3 4 5
f 1 2 3
`
	mesh, err := ParseObj(strings.NewReader(src), "fan")
	if err != nil {
		t.Fatalf("ParseObj: %v", err)
	}
	trimesh, err := MeshToTriangleMesh(mesh)
	if err != nil {
		t.Fatalf("MeshToTriangleMesh: %v", err)
	}

	if len(trimesh.vertexAttribNames) != 1 || trimesh.vertexAttribNames[0] != Position {
		t.Errorf("attributes = %v", trimesh.vertexAttribNames)
	}
	triangles := trimesh.surfaces[0]
	if len(triangles) != 4 {
		t.Fatalf("got %d triangles, want 4", len(triangles))
	}
	// fan around the first vertex
	last := triangles[2].vertices
	if last[0].position != mesh.Positions[0] || last[1].position != mesh.Positions[3] || last[2].position != mesh.Positions[4] {
		t.Errorf("third fan triangle = %+v", last)
	}
}

func TestMeshToTriangleMeshOutOfRange(t *testing.T) {
	for name, mesh := range map[string]*Mesh{
		"position": {
			Positions: []vector.Vector3{{}, {X: 1}},
			Polygons:  []Polygon{{FaceVerts: []FaceVert{{0, -1, -1}, {1, -1, -1}, {2, -1, -1}}}},
		},
		"material": {
			Positions: []vector.Vector3{{}, {X: 1}, {Y: 1}},
			Polygons:  []Polygon{{FaceVerts: []FaceVert{{0, -1, -1}, {1, -1, -1}, {2, -1, -1}}, Material: 3}},
		},
	} {
		if _, err := MeshToTriangleMesh(mesh); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
