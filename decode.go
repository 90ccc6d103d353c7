package terrainrgb

import (
	"fmt"
	"image"
	"math"
)

const (
	// ElevationOffset is the elevation encoded by the RGB triple (0, 0, 0).
	ElevationOffset = -10000

	// ElevationResolution is the elevation step, in meters, between two
	// consecutive encoded values.
	ElevationResolution = 0.1

	maxEncodedValue = 1<<24 - 1
)

// DecodeElevation returns the elevation, in meters, encoded by r, g, and b.
func DecodeElevation(r, g, b uint8) float64 {
	value := int(r)<<16 | int(g)<<8 | int(b)
	return float64(value)/10 + ElevationOffset
}

// EncodeElevation returns the RGB triple that encodes elevation. Elevations
// outside the encodable range are clamped and NaN encodes as ElevationOffset.
func EncodeElevation(elevation float64) (r, g, b uint8) {
	if math.IsNaN(elevation) {
		return 0, 0, 0
	}
	value := math.Round((elevation - ElevationOffset) * 10)
	switch {
	case value < 0:
		value = 0
	case value > maxEncodedValue:
		value = maxEncodedValue
	}
	v := int(value)
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

// DecodeElevationGrid decodes every pixel of img.
func DecodeElevationGrid(img *image.NRGBA) (*ElevationGrid, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	grid := NewElevationGrid(bounds.Dx(), bounds.Dy())
	for y := range grid.Height {
		for x := range grid.Width {
			i := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			grid.Set(x, y, DecodeElevation(img.Pix[i], img.Pix[i+1], img.Pix[i+2]))
		}
	}
	return grid, nil
}

// checkImage returns an error if the pixels of img cannot all be read.
func checkImage(img *image.NRGBA) error {
	if img == nil {
		return fmt.Errorf("nil image: %w", ErrDecodeUnavailable)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return fmt.Errorf("%dx%d image: %w", bounds.Dx(), bounds.Dy(), ErrInvalidGeometry)
	}
	if required := img.PixOffset(bounds.Max.X-1, bounds.Max.Y-1) + 4; len(img.Pix) < required {
		return fmt.Errorf("%d bytes of pixel data, need %d: %w", len(img.Pix), required, ErrDecodeUnavailable)
	}
	return nil
}
