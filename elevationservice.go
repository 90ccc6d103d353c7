package terrainrgb

import (
	"context"
	"io/fs"
)

// An ElevationService returns elevations at geographic coordinates from a
// GeoTIFF.
type ElevationService struct {
	geoTIFFTile *GeoTIFFTile
}

// NewElevationService returns a new ElevationService reading filename from
// fsys.
func NewElevationService(fsys fs.FS, filename string, options ...GeoTIFFTileOption) (*ElevationService, error) {
	geoTIFFTile, err := NewGeoTIFFTile(fsys, filename, options...)
	if err != nil {
		return nil, err
	}
	return &ElevationService{
		geoTIFFTile: geoTIFFTile,
	}, nil
}

// Close releases the resources associated with s.
func (s *ElevationService) Close() error {
	return s.geoTIFFTile.Close()
}

// Bounds returns the geographic bounds of s's data.
func (s *ElevationService) Bounds() Rect {
	return s.geoTIFFTile.Bounds()
}

// Elevation returns the elevations at coords, which are longitude, latitude
// pairs. Elevations without data are NaN.
func (s *ElevationService) Elevation(ctx context.Context, coords [][]float64) ([]float64, error) {
	pixelCoords := make([][]float64, len(coords))
	for i, coord := range coords {
		x, y := s.geoTIFFTile.pixelCoord(coord[0], coord[1])
		// Samples are at pixel centers.
		pixelCoords[i] = []float64{x - 0.5, y - 0.5}
	}
	return InterpolateBilinear(ctx, s.geoTIFFTile, pixelCoords)
}
