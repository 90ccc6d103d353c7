package terrainrgb_test

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-terrainrgb"
)

func TestWebMercator_TileRect(t *testing.T) {
	rect := terrainrgb.WebMercator.TileRect(terrainrgb.TileCoord{Z: 0})
	assert.Equal(t, -180.0, rect.West)
	assert.Equal(t, 180.0, rect.East)
	assert.True(t, math.Abs(rect.North-85.0511287798) < 1e-6)
	assert.True(t, math.Abs(rect.South+85.0511287798) < 1e-6)

	rect = terrainrgb.WebMercator.TileRect(terrainrgb.TileCoord{Z: 1, X: 1, Y: 0})
	assert.Equal(t, 0.0, rect.West)
	assert.Equal(t, 180.0, rect.East)
	assert.True(t, math.Abs(rect.South) < 1e-9)
	assert.True(t, rect.Valid())
}

func TestGeographic_TileRect(t *testing.T) {
	for _, tc := range []struct {
		tileCoord terrainrgb.TileCoord
		expected  terrainrgb.Rect
	}{
		{
			tileCoord: terrainrgb.TileCoord{Z: 0, X: 0, Y: 0},
			expected:  terrainrgb.Rect{West: -180, South: -90, East: 0, North: 90},
		},
		{
			tileCoord: terrainrgb.TileCoord{Z: 0, X: 1, Y: 0},
			expected:  terrainrgb.Rect{West: 0, South: -90, East: 180, North: 90},
		},
		{
			tileCoord: terrainrgb.TileCoord{Z: 2, X: 5, Y: 1},
			expected:  terrainrgb.Rect{West: 45, South: 0, East: 90, North: 45},
		},
	} {
		assert.Equal(t, tc.expected, terrainrgb.Geographic.TileRect(tc.tileCoord))
	}
}

func TestParseTileCoord(t *testing.T) {
	tileCoord, err := terrainrgb.ParseTileCoord("15/25618/16103")
	assert.NoError(t, err)
	assert.Equal(t, terrainrgb.TileCoord{Z: 15, X: 25618, Y: 16103}, tileCoord)
	assert.Equal(t, "15/25618/16103", tileCoord.String())

	for _, s := range []string{"", "1/2", "a/1/1", "1/-1/0", "1/0/x", "33/0/0"} {
		_, err := terrainrgb.ParseTileCoord(s)
		assert.Error(t, err, s)
	}
}

func TestParseTilingScheme(t *testing.T) {
	scheme, err := terrainrgb.ParseTilingScheme("")
	assert.NoError(t, err)
	assert.Equal(t, terrainrgb.WebMercator, scheme)
	scheme, err = terrainrgb.ParseTilingScheme("Geographic")
	assert.NoError(t, err)
	assert.Equal(t, terrainrgb.Geographic, scheme)
	_, err = terrainrgb.ParseTilingScheme("utm")
	assert.Error(t, err)
}
