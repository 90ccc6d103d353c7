package terrainrgb

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// ArrowLength is the distance, in meters, between a Direction's Origin and
// Tip.
const ArrowLength = 100

// A Direction summarizes the terrain of a tile with a single downhill vector.
// It is computed from one sample at the center of the tile, not from a dense
// aspect field, and is intended only as a visual hint.
type Direction struct {
	Origin    orb.Point // Center of the tile.
	Elevation float64   // Elevation at the center pixel, in meters.
	Bearing   float64   // Downhill bearing in degrees clockwise from north.
	Magnitude float64   // Slope at the center pixel, in degrees.
	Tip       orb.Point // Point ArrowLength meters from Origin along Bearing.
}

// RepresentativeDirection returns the downhill direction at the center pixel of
// grid, which covers rect.
func RepresentativeDirection(grid *ElevationGrid, rect GeoRect) (Direction, error) {
	if !rect.Valid() {
		return Direction{}, fmt.Errorf("%+v: %w", rect.Rect, ErrInvalidGeometry)
	}
	if grid.Width != rect.Width || grid.Height != rect.Height {
		return Direction{}, fmt.Errorf("%dx%d grid does not match %dx%d rect: %w",
			grid.Width, grid.Height, rect.Width, rect.Height, ErrInvalidGeometry)
	}

	x, y := grid.Width/2, grid.Height/2
	elevation, _ := grid.At(x, y)
	origin := rect.Center()
	direction := Direction{
		Origin:    origin,
		Elevation: elevation,
		Tip:       origin,
	}

	dx, dy := rect.PixelSpacing()
	if !validSpacing(dx) || !validSpacing(dy) {
		return direction, nil
	}
	g := grid.gradientAt(x, y, dx, dy)
	if g.dzdx == 0 && g.dzdy == 0 || math.IsNaN(g.dzdx) || math.IsNaN(g.dzdy) {
		return direction, nil
	}

	direction.Bearing = normalizeBearing(math.Atan2(-g.dzdx, -g.dzdy) * 180 / math.Pi)
	direction.Magnitude = g.slope()
	direction.Tip = geo.PointAtBearingAndDistance(origin, direction.Bearing, ArrowLength)
	return direction, nil
}

// GeoJSON returns d as a GeoJSON LineString feature from Origin to Tip.
func (d Direction) GeoJSON() *geojson.Feature {
	feature := geojson.NewFeature(orb.LineString{d.Origin, d.Tip})
	feature.Properties["elevation"] = d.Elevation
	feature.Properties["bearing"] = d.Bearing
	feature.Properties["magnitude"] = d.Magnitude
	return feature
}

// normalizeBearing returns bearing in the range [0, 360).
func normalizeBearing(bearing float64) float64 {
	bearing = math.Mod(bearing, 360)
	if bearing < 0 {
		bearing += 360
	}
	return bearing
}
