package gacc

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/foukevin/gacc/vector"
)

// ReadObjFile parses a Wavefront OBJ file. The mesh is named after the file.
func ReadObjFile(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	mesh, err := ParseObj(file, name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return mesh, nil
}

func parseFloats(val []string, n int) ([3]float64, error) {
	var out [3]float64
	if len(val) < n {
		return out, fmt.Errorf("expected %d components, got %d", n, len(val))
	}
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(val[i], 64)
		if err != nil {
			return out, err
		}
		out[i] = f
	}
	return out, nil
}

// parseIndex resolves a 1-based, possibly negative (relative) OBJ index to a
// 0-based one. An empty field yields -1.
func parseIndex(s string, count int) (int, error) {
	if s == "" {
		return -1, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0:
		return i - 1, nil
	case i < 0 && count+i >= 0:
		return count + i, nil
	case i < 0:
		return 0, fmt.Errorf("relative index %d before the first element", i)
	}
	return 0, fmt.Errorf("index 0 is not valid")
}

// ParseObj reads positions, normals, texture coordinates and faces. Every
// usemtl statement starts a new surface.
func ParseObj(r io.Reader, name string) (*Mesh, error) {
	var materialCount uint = 0
	mesh := &Mesh{Name: name}
	if mesh.Name == "" {
		mesh.Name = "untitled"
	}

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.Fields(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line[0], "#") {
			continue
		}

		ident, val := line[0], line[1:]
		switch ident {
		case "v", "vn":
			c, err := parseFloats(val, 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNumber, err)
			}
			v := vector.Vector3{X: c[0], Y: c[1], Z: c[2]}
			if ident == "v" {
				mesh.Positions = append(mesh.Positions, v)
			} else {
				mesh.Normals = append(mesh.Normals, v)
			}
		case "vt":
			c, err := parseFloats(val, 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNumber, err)
			}
			mesh.Texcos = append(mesh.Texcos, vector.Vector3{X: c[0], Y: c[1]})
		case "usemtl":
			slog.Debug("new material found", "mesh", mesh.Name, "material", strings.Join(val, " "))
			materialCount++
		case "f":
			var p Polygon
			if materialCount > 0 {
				p.Material = materialCount - 1
			}
			for _, s := range val {
				idx := strings.Split(s, "/")
				var fv FaceVert
				var err error
				if fv.PositionIndex, err = parseIndex(idx[0], len(mesh.Positions)); err != nil {
					return nil, fmt.Errorf("line %d: position: %w", lineNumber, err)
				}
				fv.TexcoIndex, fv.NormalIndex = -1, -1
				if len(idx) > 1 {
					if fv.TexcoIndex, err = parseIndex(idx[1], len(mesh.Texcos)); err != nil {
						return nil, fmt.Errorf("line %d: texture coordinate: %w", lineNumber, err)
					}
				}
				if len(idx) > 2 {
					if fv.NormalIndex, err = parseIndex(idx[2], len(mesh.Normals)); err != nil {
						return nil, fmt.Errorf("line %d: normal: %w", lineNumber, err)
					}
				}
				p.FaceVerts = append(p.FaceVerts, fv)
			}
			mesh.Polygons = append(mesh.Polygons, p)
		default:
			slog.Debug(ident+" not parsed yet", "mesh", mesh.Name, "line", lineNumber)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	mesh.SurfaceCount = max(materialCount, 1)
	return mesh, nil
}
