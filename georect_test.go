package terrainrgb_test

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/paulmach/orb"

	"github.com/twpayne/go-terrainrgb"
)

func TestGeoRect_PixelToLonLat(t *testing.T) {
	r := terrainrgb.NewGeoRect(terrainrgb.Rect{West: 10, South: 40, East: 12, North: 44}, 4, 8)
	for _, tc := range []struct {
		px, py   float64
		expected orb.Point
	}{
		{px: 0, py: 0, expected: orb.Point{10, 44}},
		{px: 4, py: 8, expected: orb.Point{12, 40}},
		{px: 2, py: 4, expected: orb.Point{11, 42}},
		{px: 1, py: 2, expected: orb.Point{10.5, 43}},
	} {
		assert.Equal(t, tc.expected, r.PixelToLonLat(tc.px, tc.py))
	}
	assert.Equal(t, orb.Point{11, 42}, r.Center())
}

func TestGeoRect_Valid(t *testing.T) {
	for _, tc := range []struct {
		name     string
		geoRect  terrainrgb.GeoRect
		expected bool
	}{
		{
			name:     "valid",
			geoRect:  terrainrgb.NewGeoRect(terrainrgb.Rect{West: 0, South: 0, East: 1, North: 1}, 256, 256),
			expected: true,
		},
		{
			name:    "west_east_swapped",
			geoRect: terrainrgb.NewGeoRect(terrainrgb.Rect{West: 1, South: 0, East: 0, North: 1}, 256, 256),
		},
		{
			name:    "degenerate",
			geoRect: terrainrgb.NewGeoRect(terrainrgb.Rect{West: 0, South: 1, East: 1, North: 1}, 256, 256),
		},
		{
			name:    "nan",
			geoRect: terrainrgb.NewGeoRect(terrainrgb.Rect{West: math.NaN(), South: 0, East: 1, North: 1}, 256, 256),
		},
		{
			name:    "empty_raster",
			geoRect: terrainrgb.NewGeoRect(terrainrgb.Rect{West: 0, South: 0, East: 1, North: 1}, 0, 256),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.geoRect.Valid())
		})
	}
}

func TestGeoRect_PixelSpacing(t *testing.T) {
	// One degree of latitude is about 111.2km on a sphere.
	equator := terrainrgb.NewGeoRect(terrainrgb.Rect{West: 0, South: 0, East: 1, North: 1}, 100, 100)
	dx, dy := equator.PixelSpacing()
	assert.True(t, math.Abs(dx-1113) < 2, "dx = %v", dx)
	assert.True(t, math.Abs(dy-1113) < 2, "dy = %v", dy)

	// Longitude spacing shrinks with the cosine of the central latitude.
	north := terrainrgb.NewGeoRect(terrainrgb.Rect{West: 0, South: 60, East: 1, North: 61}, 100, 100)
	dx60, dy60 := north.PixelSpacing()
	expectedRatio := math.Cos(60.5*math.Pi/180) / math.Cos(0.5*math.Pi/180)
	assert.True(t, math.Abs(dx60/dx-expectedRatio) < 1e-9, "ratio = %v", dx60/dx)
	assert.True(t, math.Abs(dy60-dy) < 0.01, "dy = %v", dy60)
}

func TestGeoRect_PixelSpacingPolarAndWorldTiles(t *testing.T) {
	for _, tc := range []struct {
		name       string
		scheme     terrainrgb.TilingScheme
		tileCoord  terrainrgb.TileCoord
		expectedDX float64
	}{
		{
			name:       "geographic_south_pole",
			scheme:     terrainrgb.Geographic,
			tileCoord:  terrainrgb.TileCoord{Z: 3, X: 2, Y: 7},
			expectedDX: 6378137 * (22.5 / 4) * math.Pi / 180 * math.Cos(78.75*math.Pi/180),
		},
		{
			name:       "geographic_world_half",
			scheme:     terrainrgb.Geographic,
			tileCoord:  terrainrgb.TileCoord{Z: 0, X: 0, Y: 0},
			expectedDX: 6378137 * 45 * math.Pi / 180,
		},
		{
			name:       "web_mercator_world",
			scheme:     terrainrgb.WebMercator,
			tileCoord:  terrainrgb.TileCoord{Z: 0, X: 0, Y: 0},
			expectedDX: 6378137 * 90 * math.Pi / 180,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := terrainrgb.NewGeoRect(tc.scheme.TileRect(tc.tileCoord), 4, 4)
			dx, dy := r.PixelSpacing()
			assert.True(t, math.Abs(dx-tc.expectedDX)/tc.expectedDX < 1e-6, "dx = %v, expected %v", dx, tc.expectedDX)
			assert.True(t, dy > 0, "dy = %v", dy)
		})
	}
}

func TestGeoRect_PixelSpacingDegenerate(t *testing.T) {
	r := terrainrgb.NewGeoRect(terrainrgb.Rect{West: 0, South: 89.9999999999, East: 1e-9, North: 90}, 4, 4)
	dx, _ := r.PixelSpacing()
	assert.Equal(t, 0.0, dx)
}
