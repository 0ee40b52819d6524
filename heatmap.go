package gacc

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/foukevin/gacc/meshopt"
	"golang.org/x/image/bmp"
)

// OverdrawHeatmap renders the per-pixel fragment count of one view as a
// grayscale image. The most covered pixel is white.
func OverdrawHeatmap(m *BinaryMesh, view meshopt.View) (*image.Gray, error) {
	if !m.HasPositions() {
		return nil, errors.New("mesh has no float3 positions")
	}

	coverage, err := meshopt.OverdrawCoverage(m.Indices, m.Vertices, m.Stride, view)
	if err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", view, err)
	}

	var peak uint32
	for _, c := range coverage.Counts {
		peak = max(peak, c)
	}

	img := image.NewGray(image.Rect(0, 0, coverage.Width, coverage.Height))
	if peak == 0 {
		return img, nil
	}
	for y := 0; y < coverage.Height; y++ {
		// image rows grow downward
		row := coverage.Counts[(coverage.Height-1-y)*coverage.Width:]
		for x := 0; x < coverage.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(row[x] * 255 / peak)})
		}
	}
	return img, nil
}

// WriteOverdrawHeatmap encodes the heat map of view as a BMP image.
func WriteOverdrawHeatmap(w io.Writer, m *BinaryMesh, view meshopt.View) error {
	img, err := OverdrawHeatmap(m, view)
	if err != nil {
		return err
	}
	return bmp.Encode(w, img)
}
