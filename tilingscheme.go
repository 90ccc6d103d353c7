package terrainrgb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// A TilingScheme returns the geographic rectangle of a tile.
type TilingScheme interface {
	TileRect(tileCoord TileCoord) Rect
}

// WebMercator is the spherical Web Mercator (EPSG:3857) tiling scheme with a
// single tile at zoom level 0.
var WebMercator TilingScheme = webMercator{}

// Geographic is the equirectangular (EPSG:4326) tiling scheme with two tiles
// at zoom level 0.
var Geographic TilingScheme = geographic{}

type webMercator struct{}

func (webMercator) TileRect(tileCoord TileCoord) Rect {
	bound := maptile.New(tileCoord.X, tileCoord.Y, maptile.Zoom(tileCoord.Z)).Bound()
	return Rect{
		West:  bound.Min.Lon(),
		South: bound.Min.Lat(),
		East:  bound.Max.Lon(),
		North: bound.Max.Lat(),
	}
}

type geographic struct{}

func (geographic) TileRect(tileCoord TileCoord) Rect {
	size := 180 / float64(uint64(1)<<uint(tileCoord.Z))
	west := -180 + float64(tileCoord.X)*size
	north := 90 - float64(tileCoord.Y)*size
	return Rect{
		West:  west,
		South: north - size,
		East:  west + size,
		North: north,
	}
}

// ParseTilingScheme returns the tiling scheme with the given name.
func ParseTilingScheme(name string) (TilingScheme, error) {
	switch strings.ToLower(name) {
	case "", "webmercator", "epsg:3857":
		return WebMercator, nil
	case "geographic", "epsg:4326":
		return Geographic, nil
	default:
		return nil, fmt.Errorf("%s: unknown tiling scheme", name)
	}
}

// ParseTileCoord parses a tile coordinate of the form z/x/y.
func ParseTileCoord(s string) (TileCoord, error) {
	fields := strings.Split(s, "/")
	if len(fields) != 3 {
		return TileCoord{}, fmt.Errorf("%s: expected z/x/y", s)
	}
	z, err := strconv.Atoi(fields[0])
	if err != nil {
		return TileCoord{}, fmt.Errorf("%s: invalid zoom: %w", s, err)
	}
	if z < 0 || z > 32 {
		return TileCoord{}, fmt.Errorf("%s: zoom out of range", s)
	}
	x, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return TileCoord{}, fmt.Errorf("%s: invalid column: %w", s, err)
	}
	y, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return TileCoord{}, fmt.Errorf("%s: invalid row: %w", s, err)
	}
	return TileCoord{Z: z, X: uint32(x), Y: uint32(y)}, nil
}
