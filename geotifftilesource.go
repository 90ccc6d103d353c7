package terrainrgb

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"math"
)

// A GeoTIFFTileSource renders terrain-RGB tiles from an ElevationService.
// Pixels without data are fully transparent.
type GeoTIFFTileSource struct {
	elevationService *ElevationService
	tilingScheme     TilingScheme
	tileSize         int
}

// A GeoTIFFTileSourceOption sets an option on a GeoTIFFTileSource.
type GeoTIFFTileSourceOption func(*GeoTIFFTileSource)

// NewGeoTIFFTileSource returns a new GeoTIFFTileSource that renders tiles from
// elevationService.
func NewGeoTIFFTileSource(elevationService *ElevationService, options ...GeoTIFFTileSourceOption) *GeoTIFFTileSource {
	s := &GeoTIFFTileSource{
		elevationService: elevationService,
		tilingScheme:     WebMercator,
		tileSize:         256,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// WithTilingScheme sets the tiling scheme of the rendered tiles.
func WithTilingScheme(tilingScheme TilingScheme) GeoTIFFTileSourceOption {
	return func(s *GeoTIFFTileSource) {
		s.tilingScheme = tilingScheme
	}
}

// WithTileSize sets the width and height of the rendered tiles.
func WithTileSize(tileSize int) GeoTIFFTileSourceOption {
	return func(s *GeoTIFFTileSource) {
		s.tileSize = tileSize
	}
}

// Tile renders the tile at tileCoord. If tileCoord does not intersect the
// elevation data then it returns an error wrapping fs.ErrNotExist.
func (s *GeoTIFFTileSource) Tile(ctx context.Context, tileCoord TileCoord) (*image.NRGBA, error) {
	rect := s.tilingScheme.TileRect(tileCoord)
	if !rect.Intersects(s.elevationService.Bounds()) {
		return nil, fmt.Errorf("%s: %w", tileCoord, fs.ErrNotExist)
	}

	geoRect := NewGeoRect(rect, s.tileSize, s.tileSize)
	coords := make([][]float64, 0, s.tileSize*s.tileSize)
	for y := range s.tileSize {
		for x := range s.tileSize {
			p := geoRect.PixelToLonLat(float64(x)+0.5, float64(y)+0.5)
			coords = append(coords, []float64{p.Lon(), p.Lat()})
		}
	}
	elevations, err := s.elevationService.Elevation(ctx, coords)
	if err != nil {
		return nil, err
	}

	tile := image.NewNRGBA(image.Rect(0, 0, s.tileSize, s.tileSize))
	for i, elevation := range elevations {
		if math.IsNaN(elevation) {
			continue
		}
		r, g, b := EncodeElevation(elevation)
		tile.Pix[4*i+0] = r
		tile.Pix[4*i+1] = g
		tile.Pix[4*i+2] = b
		tile.Pix[4*i+3] = 0xff
	}
	return tile, nil
}
