package gacc

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Scene lists what a JAF scene references.
type Scene struct {
	Name    string
	Meshes  []string
	Lights  []Light
	Cameras []Camera
}

type Light struct {
	Name     string
	Type     string
	Color    [3]float64
	Energy   float64
	Distance float64
}

type Camera struct {
	Name     string
	Type     string
	Angle    [2]float64
	Clipping [2]float64
}

type material struct {
	Name       string
	Properties struct {
		Nofog bool `json:"no_fog"`
	}
	Colors []struct {
		Channel string
		Value   [3]float64
	}
}

type meshData struct {
	Name string
}

type lightData struct {
	Color    [3]float64
	Diffuse  bool
	Distance float64
	Energy   float64
	Specular bool
	Type     string
}

type cameraData struct {
	Angle    [2]float64
	Clipping [2]float64
	Type     string
	Zoom     []float64
}

type object struct {
	Name   string
	Parent string
	Type   string

	RawData json.RawMessage `json:"data"`

	Transform struct {
		Location      [3]float64
		Rotation      [3]float64
		Scale         [3]float64
		RotationOrder string `json:"rotation_order"`
	}
}

type jafScene struct {
	Contrib struct {
		AuthoringTool string `json:"authoring_tool"`
	}
	Info struct {
		Version float32
	} `json:"jaf"`
	Scene struct {
		Name      string
		Materials []material
		Objects   []object
	}
}

// ParseJafScene decodes a JAF scene. Mesh objects are listed by the name of
// their mesh data, each name once.
func ParseJafScene(r io.Reader) (Scene, error) {
	var jaf jafScene
	if err := json.NewDecoder(r).Decode(&jaf); err != nil {
		return Scene{}, fmt.Errorf("decode scene: %w", err)
	}
	slog.Debug("scene decoded", "name", jaf.Scene.Name, "tool", jaf.Contrib.AuthoringTool,
		"version", jaf.Info.Version, "objects", len(jaf.Scene.Objects), "materials", len(jaf.Scene.Materials))

	scene := Scene{Name: jaf.Scene.Name}
	if scene.Name == "" {
		scene.Name = "untitled"
	}

	seen := make(map[string]bool)
	for _, o := range jaf.Scene.Objects {
		switch o.Type {
		case "mesh":
			var data meshData
			if err := json.Unmarshal(o.RawData, &data); err != nil {
				return Scene{}, fmt.Errorf("object %s: %w", o.Name, err)
			}
			if data.Name == "" {
				data.Name = o.Name
			}
			if !seen[data.Name] {
				seen[data.Name] = true
				scene.Meshes = append(scene.Meshes, data.Name)
			}
		case "light":
			var data lightData
			if err := json.Unmarshal(o.RawData, &data); err != nil {
				return Scene{}, fmt.Errorf("object %s: %w", o.Name, err)
			}
			scene.Lights = append(scene.Lights, Light{
				Name:     o.Name,
				Type:     data.Type,
				Color:    data.Color,
				Energy:   data.Energy,
				Distance: data.Distance,
			})
		case "camera":
			var data cameraData
			if err := json.Unmarshal(o.RawData, &data); err != nil {
				return Scene{}, fmt.Errorf("object %s: %w", o.Name, err)
			}
			scene.Cameras = append(scene.Cameras, Camera{
				Name:     o.Name,
				Type:     data.Type,
				Angle:    data.Angle,
				Clipping: data.Clipping,
			})
		default:
			slog.Debug("scene object skipped", "name", o.Name, "type", o.Type)
		}
	}

	return scene, nil
}

func ReadJafSceneFile(filename string) (Scene, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Scene{}, err
	}
	defer file.Close()

	scene, err := ParseJafScene(file)
	if err != nil {
		return Scene{}, fmt.Errorf("parse %s: %w", filename, err)
	}
	return scene, nil
}
