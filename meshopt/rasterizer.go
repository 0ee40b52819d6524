package meshopt

import (
	"encoding/binary"
	"math"
)

// overdrawViewport is the side of the square virtual render target.
const overdrawViewport = 256

// View selects one of the axis aligned orthographic projections used by the
// overdraw rasterizer.
type View int

const (
	ViewPositiveX View = iota
	ViewNegativeX
	ViewPositiveY
	ViewNegativeY
	ViewPositiveZ
	ViewNegativeZ
)

var allViews = [...]View{ViewPositiveX, ViewNegativeX, ViewPositiveY, ViewNegativeY, ViewPositiveZ, ViewNegativeZ}

func (v View) String() string {
	switch v {
	case ViewPositiveX:
		return "+x"
	case ViewNegativeX:
		return "-x"
	case ViewPositiveY:
		return "+y"
	case ViewNegativeY:
		return "-y"
	case ViewPositiveZ:
		return "+z"
	case ViewNegativeZ:
		return "-z"
	}
	return "unknown"
}

// OverdrawStatistics describes the pixel work of drawing a mesh, summed over
// all six axis aligned views.
type OverdrawStatistics struct {
	PixelsCovered uint32  // fragments rasterized, overlapping triangles counted once each
	PixelsShaded  uint32  // distinct pixels touched by at least one triangle
	Overdraw      float32 // covered / shaded; best case 1.0

	PixelsDrawn   uint32  // fragments passing a less-than depth test in submission order
	DepthOverdraw float32 // drawn / shaded; depends on triangle order
}

// Coverage is the per-pixel fragment count of one view, row major.
type Coverage struct {
	Width, Height int
	Counts        []uint32
}

// positionAt decodes the float3 position at the start of vertex i.
func positionAt(vertices []byte, vertexSize, i int) [3]float32 {
	p := vertices[i*vertexSize:]
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(p[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(p[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(p[8:])),
	}
}

// readPositions decodes every position into a flat xyz slice.
func readPositions(vertices []byte, vertexSize int) ([]float32, error) {
	vertexCount, err := vertexCountOf(vertices, vertexSize)
	if err != nil {
		return nil, err
	}
	if vertexSize < positionSize {
		return nil, invalidf("vertex size %d cannot hold a float3 position", vertexSize)
	}

	positions := make([]float32, vertexCount*3)
	for i := 0; i < vertexCount; i++ {
		p := positionAt(vertices, vertexSize, i)
		copy(positions[i*3:], p[:])
	}
	return positions, nil
}

// normalizePositions maps positions into the unit cube keeping proportions.
func normalizePositions(positions []float32) {
	minP := [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	maxP := [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}

	for i := 0; i < len(positions); i += 3 {
		for k := 0; k < 3; k++ {
			minP[k] = min(minP[k], positions[i+k])
			maxP[k] = max(maxP[k], positions[i+k])
		}
	}

	extent := max(maxP[0]-minP[0], maxP[1]-minP[1], maxP[2]-minP[2])
	scale := float32(1)
	if extent > 0 {
		scale = 1 / extent
	}

	for i := 0; i < len(positions); i += 3 {
		for k := 0; k < 3; k++ {
			positions[i+k] = (positions[i+k] - minP[k]) * scale
		}
	}
}

// subpixelBits is the fixed point precision of projected coordinates.
// Snapping makes the edge functions exact, so shared edges are rasterized
// exactly once.
const subpixelBits = 8

// rasterVertex is a projected vertex in fixed point screen coordinates.
type rasterVertex struct {
	X, Y   int64
	Z      float32
	finite bool
}

func snap(f float32) int64 {
	return int64(math.Round(float64(f) * overdrawViewport * (1 << subpixelBits)))
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// project maps a normalized position to screen space for the view.
func project(p []float32, view View) rasterVertex {
	axis := int(view) / 2
	u, v := p[(axis+1)%3], p[(axis+2)%3]
	depth := p[axis]
	if view%2 == 1 {
		depth = 1 - depth
		u = 1 - u
	}
	if !isFinite(u) || !isFinite(v) || !isFinite(depth) {
		return rasterVertex{}
	}
	return rasterVertex{X: snap(u), Y: snap(v), Z: depth, finite: true}
}

// overdrawRasterizer accumulates fragment counts for one view at a time.
type overdrawRasterizer struct {
	width, height int
	depthBuffer   []float32
	coverage      []uint32

	covered, shaded, drawn uint32
}

func newOverdrawRasterizer() *overdrawRasterizer {
	r := &overdrawRasterizer{
		width:  overdrawViewport,
		height: overdrawViewport,
	}
	r.depthBuffer = make([]float32, r.width*r.height)
	r.coverage = make([]uint32, r.width*r.height)
	return r
}

func (r *overdrawRasterizer) clear() {
	for i := range r.depthBuffer {
		r.depthBuffer[i] = math.MaxFloat32
	}
	clear(r.coverage)
}

// finishView adds the distinct pixels of the current view to the totals.
func (r *overdrawRasterizer) finishView() {
	for _, c := range r.coverage {
		if c > 0 {
			r.shaded++
		}
	}
}

// drawView clears the targets and rasterizes every triangle for one view.
func (r *overdrawRasterizer) drawView(indices []uint32, positions []float32, view View) {
	r.clear()
	for i := 0; i < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		r.rasterizeTriangle(
			project(positions[a*3:a*3+3], view),
			project(positions[b*3:b*3+3], view),
			project(positions[c*3:c*3+3], view),
		)
	}
}

func (r *overdrawRasterizer) drawAll(indices []uint32, positions []float32) OverdrawStatistics {
	r.covered, r.shaded, r.drawn = 0, 0, 0
	for _, view := range allViews {
		r.drawView(indices, positions, view)
		r.finishView()
	}

	stats := OverdrawStatistics{
		PixelsCovered: r.covered,
		PixelsShaded:  r.shaded,
		PixelsDrawn:   r.drawn,
	}
	if stats.PixelsShaded > 0 {
		stats.Overdraw = float32(stats.PixelsCovered) / float32(stats.PixelsShaded)
		stats.DepthOverdraw = float32(stats.PixelsDrawn) / float32(stats.PixelsShaded)
	}
	return stats
}

// isTopLeft reports whether pixels lying exactly on the edge a->b belong to
// the triangle, for triangles with positive edgeFunction area.
func isTopLeft(a, b rasterVertex) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	return dy > 0 || (dy == 0 && dx < 0)
}

func edgeInside(w int64, topLeft bool) bool {
	return w > 0 || (w == 0 && topLeft)
}

// rasterizeTriangle counts the fragments of one triangle. Both windings are
// drawn; there is no culling.
func (r *overdrawRasterizer) rasterizeTriangle(v0, v1, v2 rasterVertex) {
	if !v0.finite || !v1.finite || !v2.finite {
		return
	}
	area := edgeFunction(v0.X, v0.Y, v1.X, v1.Y, v2.X, v2.Y)
	if area == 0 {
		return
	}
	if area < 0 {
		v0, v2 = v2, v0
		area = -area
	}
	invArea := 1 / float64(area)

	minX := max(int(min(v0.X, v1.X, v2.X)>>subpixelBits), 0)
	maxX := min(int(max(v0.X, v1.X, v2.X)>>subpixelBits)+1, r.width)
	minY := max(int(min(v0.Y, v1.Y, v2.Y)>>subpixelBits), 0)
	maxY := min(int(max(v0.Y, v1.Y, v2.Y)>>subpixelBits)+1, r.height)

	tl0 := isTopLeft(v1, v2)
	tl1 := isTopLeft(v2, v0)
	tl2 := isTopLeft(v0, v1)

	const half = 1 << (subpixelBits - 1)
	for y := minY; y < maxY; y++ {
		rowBase := y * r.width
		py := int64(y)<<subpixelBits + half

		for x := minX; x < maxX; x++ {
			px := int64(x)<<subpixelBits + half

			w0 := edgeFunction(v1.X, v1.Y, v2.X, v2.Y, px, py)
			w1 := edgeFunction(v2.X, v2.Y, v0.X, v0.Y, px, py)
			w2 := edgeFunction(v0.X, v0.Y, v1.X, v1.Y, px, py)
			if !edgeInside(w0, tl0) || !edgeInside(w1, tl1) || !edgeInside(w2, tl2) {
				continue
			}

			pixel := rowBase + x
			r.coverage[pixel]++
			r.covered++

			z := float32((float64(w0)*float64(v0.Z) + float64(w1)*float64(v1.Z) + float64(w2)*float64(v2.Z)) * invArea)
			if z < r.depthBuffer[pixel] {
				r.depthBuffer[pixel] = z
				r.drawn++
			}
		}
	}
}

// edgeFunction computes the signed area of the parallelogram spanned by a->b
// and a->c. Swapping a and b negates the result exactly.
func edgeFunction(ax, ay, bx, by, cx, cy int64) int64 {
	return (cx-ax)*(by-ay) - (cy-ay)*(bx-ax)
}

func toUint32[T Index](indices []T) []uint32 {
	out := make([]uint32, len(indices))
	for i, v := range indices {
		out[i] = uint32(v)
	}
	return out
}

func prepareOverdraw[T Index](indices []T, vertices []byte, vertexSize int) ([]uint32, []float32, error) {
	positions, err := readPositions(vertices, vertexSize)
	if err != nil {
		return nil, nil, err
	}
	if err := checkIndices(indices, len(positions)/3); err != nil {
		return nil, nil, err
	}
	normalizePositions(positions)
	return toUint32(indices), positions, nil
}

// AnalyzeOverdraw rasterizes the mesh from six axis aligned orthographic
// views and reports pixel overdraw. Positions are read from the first 12
// bytes of every vertex record. Results will not match any particular GPU.
func AnalyzeOverdraw[T Index](indices []T, vertices []byte, vertexSize int) (OverdrawStatistics, error) {
	flat, positions, err := prepareOverdraw(indices, vertices, vertexSize)
	if err != nil {
		return OverdrawStatistics{}, err
	}
	return newOverdrawRasterizer().drawAll(flat, positions), nil
}

// OverdrawCoverage returns the per-pixel fragment counts of a single view.
func OverdrawCoverage[T Index](indices []T, vertices []byte, vertexSize int, view View) (Coverage, error) {
	if view < ViewPositiveX || view > ViewNegativeZ {
		return Coverage{}, invalidf("view %d", view)
	}
	flat, positions, err := prepareOverdraw(indices, vertices, vertexSize)
	if err != nil {
		return Coverage{}, err
	}

	r := newOverdrawRasterizer()
	r.drawView(flat, positions, view)
	return Coverage{Width: r.width, Height: r.height, Counts: r.coverage}, nil
}
