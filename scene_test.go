package gacc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testScene = `{
  "contrib": {"authoring_tool": "blender"},
  "jaf": {"version": 1.0},
  "scene": {
    "name": "room",
    "materials": [{"name": "wall", "properties": {"no_fog": true}}],
    "objects": [
      {"name": "Cube", "type": "mesh", "data": {"name": "cube"}},
      {"name": "Cube.001", "type": "mesh", "data": {"name": "cube"},
       "transform": {"location": [2, 0, 0], "rotation_order": "XYZ"}},
      {"name": "Table", "type": "mesh", "data": {}},
      {"name": "Lamp", "type": "light",
       "data": {"type": "POINT", "color": [1, 0.5, 0], "energy": 2, "distance": 30}},
      {"name": "Camera", "type": "camera",
       "data": {"type": "PERSP", "angle": [0.8, 0.6], "clipping": [0.1, 100]}},
      {"name": "Empty", "type": "empty"}
    ]
  }
}`

func TestParseJafScene(t *testing.T) {
	scene, err := ParseJafScene(strings.NewReader(testScene))
	if err != nil {
		t.Fatalf("ParseJafScene: %v", err)
	}

	if scene.Name != "room" {
		t.Errorf("name = %q", scene.Name)
	}
	if len(scene.Meshes) != 2 || scene.Meshes[0] != "cube" || scene.Meshes[1] != "Table" {
		t.Errorf("meshes = %v", scene.Meshes)
	}
	if len(scene.Lights) != 1 || scene.Lights[0].Type != "POINT" || scene.Lights[0].Energy != 2 || scene.Lights[0].Color[1] != 0.5 {
		t.Errorf("lights = %+v", scene.Lights)
	}
	if len(scene.Cameras) != 1 || scene.Cameras[0].Clipping[1] != 100 {
		t.Errorf("cameras = %+v", scene.Cameras)
	}
}

func TestParseJafSceneErrors(t *testing.T) {
	for _, src := range []string{
		"{",
		`{"scene": {"objects": [{"name": "x", "type": "light", "data": {"energy": "high"}}]}}`,
	} {
		if _, err := ParseJafScene(strings.NewReader(src)); err == nil {
			t.Errorf("expected an error for %q", src)
		}
	}
}

func TestReadJafSceneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.json")
	if err := os.WriteFile(path, []byte(`{"scene": {}}`), 0o644); err != nil {
		t.Fatalf("write scene: %v", err)
	}
	scene, err := ReadJafSceneFile(path)
	if err != nil {
		t.Fatalf("ReadJafSceneFile: %v", err)
	}
	if scene.Name != "untitled" || len(scene.Meshes) != 0 {
		t.Errorf("scene = %+v", scene)
	}
}
