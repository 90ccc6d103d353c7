package terrainrgb_test

import (
	"image"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-terrainrgb"
)

func TestDecodeElevation(t *testing.T) {
	for _, tc := range []struct {
		r, g, b  uint8
		expected float64
	}{
		{r: 0, g: 0, b: 0, expected: -10000},
		{r: 1, g: 134, b: 160, expected: 0},
		{r: 1, g: 134, b: 161, expected: 0.1},
		{r: 39, g: 16, b: 0, expected: 246000},
		{r: 255, g: 255, b: 255, expected: 1667721.5},
	} {
		actual := terrainrgb.DecodeElevation(tc.r, tc.g, tc.b)
		assert.True(t, math.Abs(tc.expected-actual) < 1e-9, "decode(%d, %d, %d) = %v, want %v", tc.r, tc.g, tc.b, actual, tc.expected)
	}
	assert.Equal(t, 0.0, terrainrgb.DecodeElevation(1, 134, 160))
}

func TestDecodeElevationMonotonic(t *testing.T) {
	previous := math.Inf(-1)
	for value := 0; value < 1<<24; value += 251 {
		elevation := terrainrgb.DecodeElevation(uint8(value>>16), uint8(value>>8), uint8(value))
		assert.True(t, elevation > previous, "not increasing at %d", value)
		previous = elevation
	}
}

func TestEncodeElevationRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(0, 0))
	for range 65536 {
		value := r.IntN(1 << 24)
		cr, cg, cb := uint8(value>>16), uint8(value>>8), uint8(value)
		elevation := terrainrgb.DecodeElevation(cr, cg, cb)
		er, eg, eb := terrainrgb.EncodeElevation(elevation)
		assert.Equal(t, [3]uint8{cr, cg, cb}, [3]uint8{er, eg, eb})
		assert.True(t, math.Abs(terrainrgb.DecodeElevation(er, eg, eb)-elevation) <= 0.05)
	}
}

func TestEncodeElevationQuantization(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 65536 {
		elevation := -10000 + r.Float64()*20000
		decoded := terrainrgb.DecodeElevation(terrainrgb.EncodeElevation(elevation))
		assert.True(t, math.Abs(decoded-elevation) <= 0.05+1e-9, "%v decoded as %v", elevation, decoded)
	}
}

func TestEncodeElevationClamp(t *testing.T) {
	for _, tc := range []struct {
		elevation float64
		expected  [3]uint8
	}{
		{elevation: -20000, expected: [3]uint8{0, 0, 0}},
		{elevation: math.NaN(), expected: [3]uint8{0, 0, 0}},
		{elevation: math.Inf(1), expected: [3]uint8{255, 255, 255}},
		{elevation: 1e9, expected: [3]uint8{255, 255, 255}},
	} {
		r, g, b := terrainrgb.EncodeElevation(tc.elevation)
		assert.Equal(t, tc.expected, [3]uint8{r, g, b})
	}
}

func TestDecodeElevationGrid(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	setElevation(img, 2, 1, 123.4)
	grid, err := terrainrgb.DecodeElevationGrid(img)
	assert.NoError(t, err)
	assert.Equal(t, 3, grid.Width)
	assert.Equal(t, 2, grid.Height)
	elevation, ok := grid.At(2, 1)
	assert.True(t, ok)
	assert.True(t, math.Abs(elevation-123.4) < 1e-6)
	elevation, ok = grid.At(0, 0)
	assert.True(t, ok)
	assert.Equal(t, -10000.0, elevation)
	_, ok = grid.At(3, 0)
	assert.False(t, ok)
}

func TestDecodeElevationGridErrors(t *testing.T) {
	_, err := terrainrgb.DecodeElevationGrid(nil)
	assert.IsError(t, err, terrainrgb.ErrDecodeUnavailable)

	_, err = terrainrgb.DecodeElevationGrid(image.NewNRGBA(image.Rect(0, 0, 0, 4)))
	assert.IsError(t, err, terrainrgb.ErrInvalidGeometry)

	short := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	short.Pix = short.Pix[:10]
	_, err = terrainrgb.DecodeElevationGrid(short)
	assert.IsError(t, err, terrainrgb.ErrDecodeUnavailable)
}

// setElevation encodes elevation into the pixel at (x, y) of img.
func setElevation(img *image.NRGBA, x, y int, elevation float64) {
	i := img.PixOffset(x, y)
	img.Pix[i], img.Pix[i+1], img.Pix[i+2] = terrainrgb.EncodeElevation(elevation)
	img.Pix[i+3] = 255
}

// uniformTile returns a width x height tile with every pixel encoding
// elevation.
func uniformTile(width, height int, elevation float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			setElevation(img, x, y, elevation)
		}
	}
	return img
}
