package gacc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"

	"github.com/foukevin/gacc/meshopt"
	"github.com/foukevin/gacc/vector"
)

type BinaryMeshHeader struct {
	Name                                    [16]byte
	VertAttribCount, VertAttribOffset       uint32
	SurfDescCount, SurfDescOffset           uint32
	VertCount, VertDataOffset, VertDataSize uint32
	IndCount, IndDataOffset, IndDataSize    uint32
	AabbCenter, AabbExtent                  [3]float32
}

// struct describing what composes a vertex
type BinaryVertexAttrib struct {
	Index, Count, Type, Normalized uint32
	Stride, Offset                 uint32
}

type BinarySurfaceDesc struct {
	StartIndex, Count uint32
}

type VertexAttribName uint32

const (
	Position VertexAttribName = iota
	Normal
	Color
	Texco0
	Texco1
	TangentDet
)

type VertexAttribType uint32

const (
	Float32 VertexAttribType = iota
	Int32
	Int16
	Uint16
	Int8
	Uint8
	Float16
)

func (t VertexAttribType) ByteSize() (size uint) {
	switch t {
	case Float32, Int32:
		size = 4
	case Int16, Uint16, Float16:
		size = 2
	case Int8, Uint8:
		size = 1
	}
	return
}

type VertexAttribDesc struct {
	Name       VertexAttribName
	Count      uint
	Type       VertexAttribType
	Normalized bool
}

// Position must stay first: the optimizer reads it from the first 12 bytes.
var attributes = [...]VertexAttribDesc{
	{Position, 3, Float32, false},
	{Normal, 3, Int16, true},
	{Color, 3, Uint8, true},
	{Texco0, 2, Float16, false},
}

var errUnsupportedAttrib = errors.New("unsupported vertex attribute format")

// AppendAttribute encodes the first desc.Count components of v.
func AppendAttribute(dst []byte, v vector.Vector3, desc VertexAttribDesc) ([]byte, error) {
	if desc.Name == Normal && desc.Normalized {
		v.Normalize()
	}
	c := v.Float32()
	if desc.Count > 3 {
		return nil, fmt.Errorf("%w: %d components", errUnsupportedAttrib, desc.Count)
	}

	for _, f := range c[:desc.Count] {
		switch {
		case desc.Type == Float32:
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
		case desc.Type == Float16:
			dst = binary.LittleEndian.AppendUint16(dst, meshopt.QuantizeHalf(f))
		case desc.Type == Int16 && desc.Normalized:
			dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(meshopt.QuantizeSnorm(f, 16))))
		case desc.Type == Uint16 && desc.Normalized:
			dst = binary.LittleEndian.AppendUint16(dst, uint16(meshopt.QuantizeUnorm(f, 16)))
		case desc.Type == Int8 && desc.Normalized:
			dst = append(dst, byte(int8(meshopt.QuantizeSnorm(f, 8))))
		case desc.Type == Uint8 && desc.Normalized:
			dst = append(dst, byte(meshopt.QuantizeUnorm(f, 8)))
		default:
			return nil, fmt.Errorf("%w: type %d normalized=%t", errUnsupportedAttrib, desc.Type, desc.Normalized)
		}
	}
	return dst, nil
}

func AxisAlignedBoundingBox(positions []vector.Vector3) (center, extent vector.Vector3) {
	if len(positions) == 0 {
		return
	}

	lo := vector.Vector3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := vector.Vector3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range positions {
		lo = vector.Min(lo, p)
		hi = vector.Max(hi, p)
	}

	center = vector.Add(lo, hi).Scaled(0.5)
	extent = vector.Substract(hi, center)
	return
}

// CompiledMesh holds optimized buffers ready to be written.
type CompiledMesh struct {
	Name       string
	Attribs    []BinaryVertexAttrib
	Stride     int
	Vertices   []byte
	Surfaces   []BinarySurfaceDesc
	IndexSize  int // 2 or 4 bytes
	Indices16  []uint16
	Indices32  []uint32
	AabbCenter vector.Vector3
	AabbExtent vector.Vector3
	Stats      PipelineStats
}

func (c *CompiledMesh) IndexCount() int {
	if c.IndexSize == 2 {
		return len(c.Indices16)
	}
	return len(c.Indices32)
}

func (c *CompiledMesh) VertexCount() int {
	if c.Stride == 0 {
		return 0
	}
	return len(c.Vertices) / c.Stride
}

// Compile triangulates m, deduplicates its vertices and runs the optimizer
// pipeline described by cfg.
func Compile(m *Mesh, cfg PipelineConfig) (*CompiledMesh, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	trimesh, err := MeshToTriangleMesh(m)
	if err != nil {
		return nil, err
	}

	compiled := &CompiledMesh{Name: m.Name}
	var stride uint
	for _, va := range trimesh.vertexAttribNames {
		desc := attributes[va]
		normalized := 0
		if desc.Normalized {
			normalized = 1
		}
		compiled.Attribs = append(compiled.Attribs, BinaryVertexAttrib{
			Index:      uint32(desc.Name),
			Count:      uint32(desc.Count),
			Type:       uint32(desc.Type),
			Normalized: uint32(normalized),
			Offset:     uint32(stride),
		})
		// stride is not complete yet and correspond to the
		// current attribute's offset
		stride += desc.Count * desc.Type.ByteSize()
	}
	if stride == 0 {
		return nil, fmt.Errorf("mesh %s has no vertex attributes", m.Name)
	}
	for i := range compiled.Attribs {
		compiled.Attribs[i].Stride = uint32(stride)
	}
	compiled.Stride = int(stride)

	// unindexed vertex stream, one record per triangle corner
	var stream []byte
	var positions []vector.Vector3
	var surfaces []surfaceRange
	for _, triangles := range trimesh.surfaces {
		surfaces = append(surfaces, surfaceRange{start: len(stream) / compiled.Stride, count: len(triangles) * 3})
		for _, tri := range triangles {
			for _, v := range tri.vertices {
				for _, va := range trimesh.vertexAttribNames {
					var value vector.Vector3
					switch va {
					case Position:
						value = v.position
						positions = append(positions, v.position)
					case Normal:
						value = v.normal
					case Texco0:
						value = v.texco0
					}
					if stream, err = AppendAttribute(stream, value, attributes[va]); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	compiled.AabbCenter, compiled.AabbExtent = AxisAlignedBoundingBox(positions)

	for _, s := range surfaces {
		compiled.Surfaces = append(compiled.Surfaces, BinarySurfaceDesc{StartIndex: uint32(s.start), Count: uint32(s.count)})
	}

	remap := make([]uint32, len(stream)/compiled.Stride)
	unique, err := meshopt.GenerateIndexBuffer(remap, stream, compiled.Stride)
	if err != nil {
		return nil, fmt.Errorf("generate index buffer: %w", err)
	}
	vertices := make([]byte, unique*compiled.Stride)
	if err := meshopt.GenerateVertexBuffer(vertices, remap, stream, compiled.Stride); err != nil {
		return nil, fmt.Errorf("generate vertex buffer: %w", err)
	}
	cfg.Logger.Debug("vertices deduplicated", "mesh", m.Name, "corners", len(remap), "unique", unique)

	if compiled.IndexSize, err = cfg.indexSize(unique); err != nil {
		return nil, fmt.Errorf("mesh %s: %w", m.Name, err)
	}

	hasPositions := len(positions) > 0
	if compiled.IndexSize == 2 {
		compiled.Indices16 = narrowIndices[uint16](remap)
		compiled.Vertices, compiled.Stats, err = optimizeBuffers(cfg, m.Name, compiled.Indices16, vertices, compiled.Stride, surfaces, hasPositions)
	} else {
		compiled.Indices32 = remap
		compiled.Vertices, compiled.Stats, err = optimizeBuffers(cfg, m.Name, compiled.Indices32, vertices, compiled.Stride, surfaces, hasPositions)
	}
	if err != nil {
		return nil, fmt.Errorf("optimize %s: %w", m.Name, err)
	}

	return compiled, nil
}

// WriteTo writes the binary mesh: header, vertex attributes, surface
// descriptors, vertex data and index data.
func (c *CompiledMesh) WriteTo(w io.Writer) (int64, error) {
	vadata := new(bytes.Buffer)
	for _, va := range c.Attribs {
		binary.Write(vadata, binary.LittleEndian, va)
	}

	sdata := new(bytes.Buffer)
	for _, s := range c.Surfaces {
		binary.Write(sdata, binary.LittleEndian, s)
	}

	idata := new(bytes.Buffer)
	if c.IndexSize == 2 {
		binary.Write(idata, binary.LittleEndian, c.Indices16)
	} else {
		binary.Write(idata, binary.LittleEndian, c.Indices32)
	}

	var offset uint32
	var header BinaryMeshHeader
	copy(header.Name[:len(header.Name)-1], c.Name)
	offset += uint32(binary.Size(header))

	// Vertex attributes
	header.VertAttribCount = uint32(len(c.Attribs))
	header.VertAttribOffset = offset
	offset += uint32(vadata.Len())

	// Surface descriptors
	header.SurfDescCount = uint32(len(c.Surfaces))
	header.SurfDescOffset = offset
	offset += uint32(sdata.Len())

	// Vertex data
	header.VertCount = uint32(c.VertexCount())
	header.VertDataOffset = offset
	header.VertDataSize = uint32(len(c.Vertices))
	offset += uint32(len(c.Vertices))

	// Index data
	header.IndCount = uint32(c.IndexCount())
	header.IndDataOffset = offset
	header.IndDataSize = uint32(idata.Len())

	header.AabbCenter = c.AabbCenter.Float32()
	header.AabbExtent = c.AabbExtent.Float32()

	hdata := new(bytes.Buffer)
	binary.Write(hdata, binary.LittleEndian, header)

	var written int64
	for _, chunk := range [][]byte{hdata.Bytes(), vadata.Bytes(), sdata.Bytes(), c.Vertices, idata.Bytes()} {
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Encode compiles the mesh and writes it to filename.
func (m *Mesh) Encode(filename string, cfg PipelineConfig) error {
	compiled, err := Compile(m, cfg)
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if _, err := compiled.WriteTo(file); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return file.Close()
}

// BinaryMesh is a decoded binary mesh file.
type BinaryMesh struct {
	Header    BinaryMeshHeader
	Attribs   []BinaryVertexAttrib
	Surfaces  []BinarySurfaceDesc
	Stride    int
	Vertices  []byte
	IndexSize int
	Indices   []uint32
}

func (m *BinaryMesh) Name() string {
	return string(bytes.TrimRight(m.Header.Name[:], "\x00"))
}

// HasPositions reports whether the first attribute is a float3 position.
func (m *BinaryMesh) HasPositions() bool {
	return len(m.Attribs) > 0 && m.Attribs[0].Index == uint32(Position) && m.Attribs[0].Type == uint32(Float32) && m.Attribs[0].Offset == 0
}

// checkSection fails when count elements of elemSize bytes at offset do not
// fit a file of size bytes.
func checkSection(what string, offset, count uint32, elemSize int, size int64) error {
	end := int64(offset) + int64(count)*int64(elemSize)
	if end > size {
		return fmt.Errorf("%s: %d bytes at offset %d past the end of a %d byte file", what, end-int64(offset), offset, size)
	}
	return nil
}

// ReadBinaryMeshHeader reads the header and vertex attributes of a mesh file
// of size bytes.
func ReadBinaryMeshHeader(r io.ReaderAt, size int64) (BinaryMeshHeader, []BinaryVertexAttrib, error) {
	var header BinaryMeshHeader

	sr := io.NewSectionReader(r, 0, size)
	if err := binary.Read(sr, binary.LittleEndian, &header); err != nil {
		return header, nil, fmt.Errorf("read header: %w", err)
	}

	if err := checkSection("vertex attributes", header.VertAttribOffset, header.VertAttribCount, binary.Size(BinaryVertexAttrib{}), size); err != nil {
		return header, nil, err
	}
	vertAttribs := make([]BinaryVertexAttrib, header.VertAttribCount)
	sr.Seek(int64(header.VertAttribOffset), io.SeekStart)
	if err := binary.Read(sr, binary.LittleEndian, vertAttribs); err != nil {
		return header, nil, fmt.Errorf("read vertex attributes: %w", err)
	}

	return header, vertAttribs, nil
}

// ReadBinaryMesh decodes a whole mesh file of size bytes. Indices are widened
// to 32 bits. Section sizes are checked against size before anything is
// allocated.
func ReadBinaryMesh(r io.ReaderAt, size int64) (*BinaryMesh, error) {
	header, attribs, err := ReadBinaryMeshHeader(r, size)
	if err != nil {
		return nil, err
	}
	m := &BinaryMesh{Header: header, Attribs: attribs}
	if len(attribs) > 0 {
		m.Stride = int(attribs[0].Stride)
	}

	if err := checkSection("surfaces", header.SurfDescOffset, header.SurfDescCount, binary.Size(BinarySurfaceDesc{}), size); err != nil {
		return nil, err
	}
	if err := checkSection("vertex data", header.VertDataOffset, header.VertDataSize, 1, size); err != nil {
		return nil, err
	}
	if err := checkSection("index data", header.IndDataOffset, header.IndDataSize, 1, size); err != nil {
		return nil, err
	}
	if header.IndCount > 0 {
		m.IndexSize = int(header.IndDataSize / header.IndCount)
	}
	if uint64(header.IndCount)*uint64(m.IndexSize) != uint64(header.IndDataSize) {
		return nil, fmt.Errorf("index data of %d bytes does not hold %d indices", header.IndDataSize, header.IndCount)
	}

	m.Surfaces = make([]BinarySurfaceDesc, header.SurfDescCount)
	sr := io.NewSectionReader(r, int64(header.SurfDescOffset), int64(header.SurfDescCount)*8)
	if err := binary.Read(sr, binary.LittleEndian, m.Surfaces); err != nil {
		return nil, fmt.Errorf("read surfaces: %w", err)
	}

	if m.Stride == 0 || uint64(header.VertCount)*uint64(m.Stride) != uint64(header.VertDataSize) {
		return nil, fmt.Errorf("vertex data of %d bytes does not hold %d vertices of stride %d", header.VertDataSize, header.VertCount, m.Stride)
	}
	m.Vertices = make([]byte, header.VertDataSize)
	if _, err := r.ReadAt(m.Vertices, int64(header.VertDataOffset)); err != nil {
		return nil, fmt.Errorf("read vertex data: %w", err)
	}

	sr = io.NewSectionReader(r, int64(header.IndDataOffset), int64(header.IndDataSize))
	switch m.IndexSize {
	case 0:
		if header.IndCount > 0 {
			return nil, fmt.Errorf("index data of %d bytes does not hold %d indices", header.IndDataSize, header.IndCount)
		}
	case 2:
		narrow := make([]uint16, header.IndCount)
		if err := binary.Read(sr, binary.LittleEndian, narrow); err != nil {
			return nil, fmt.Errorf("read index data: %w", err)
		}
		m.Indices = make([]uint32, len(narrow))
		for i, v := range narrow {
			m.Indices[i] = uint32(v)
		}
	case 4:
		m.Indices = make([]uint32, header.IndCount)
		if err := binary.Read(sr, binary.LittleEndian, m.Indices); err != nil {
			return nil, fmt.Errorf("read index data: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported index size %d", m.IndexSize)
	}

	return m, nil
}

// Analyze measures the stored layout with the meshopt analyzers.
func (m *BinaryMesh) Analyze(cacheSize int) (MeshStats, error) {
	return analyzeBuffers(m.Indices, m.Vertices, m.Stride, cacheSize, m.HasPositions())
}

// ReadBinaryMeshFile opens and decodes a mesh file.
func ReadBinaryMeshFile(filename string) (*BinaryMesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	m, err := ReadBinaryMesh(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}

func CStruct() string {
	var t BinaryMeshHeader
	s := reflect.ValueOf(&t).Elem()

	res := "struct Mesh {\n"

	typeOfT := s.Type()
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		var carray, ctype string
		var baseType reflect.Type
		if f.Kind() == reflect.Array {
			carray = fmt.Sprintf("[%d]", f.Len())
			baseType = f.Type().Elem()
		} else {
			baseType = f.Type()
		}

		switch baseType.Kind() {
		case reflect.Float32:
			ctype = "float"
		case reflect.Uint32, reflect.Int32, reflect.Uint16, reflect.Int16, reflect.Uint8, reflect.Int8:
			ctype = baseType.Name() + "_t"
		default:
			ctype = "unknown_type"
		}
		res += fmt.Sprintf("\t%s %s%s;\n", ctype, typeOfT.Field(i).Name, carray)
	}

	return res + "};"
}
