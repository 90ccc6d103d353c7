// Package terrainrgb decodes terrain-RGB elevation tiles, derives slope, masks
// tiles against cutout polygons, and recolors them through a color ramp.
package terrainrgb

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDecodeUnavailable is returned when the pixels of a tile cannot be
	// read.
	ErrDecodeUnavailable = errors.New("decode unavailable")

	// ErrInvalidGeometry is returned for malformed rectangles and zero-sized
	// buffers.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrRampMisconfigured is returned when a color ramp cannot be built. It
	// is never returned by Process: a missing ramp just skips colorization.
	ErrRampMisconfigured = errors.New("color ramp misconfigured")
)

// A Coord is a pixel coordinate in a raster.
type Coord struct {
	X int
	Y int
}

// A TileCoord is a tile coordinate in a tile pyramid.
type TileCoord struct {
	Z int    // Zoom level.
	X uint32 // Column.
	Y uint32 // Row.
}

func (c TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Z, c.X, c.Y)
}

// A Raster is a grid of samples addressed by pixel coordinate.
type Raster interface {
	Samples(ctx context.Context, coords []Coord) ([]float64, error)
}

// A Rect is a geographic bounding rectangle in degrees.
type Rect struct {
	West  float64
	South float64
	East  float64
	North float64
}

// Valid returns whether r is finite with West < East and South < North.
func (r Rect) Valid() bool {
	for _, v := range []float64{r.West, r.South, r.East, r.North} {
		if !isFinite(v) {
			return false
		}
	}
	return r.West < r.East && r.South < r.North
}

// Intersects returns whether r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.West < other.East && other.West < r.East &&
		r.South < other.North && other.South < r.North
}

// An ElevationGrid holds one decoded elevation, in meters, per pixel.
type ElevationGrid struct {
	Width      int
	Height     int
	Elevations []float64
}

// NewElevationGrid returns a new ElevationGrid of the given size with all
// elevations set to zero.
func NewElevationGrid(width, height int) *ElevationGrid {
	return &ElevationGrid{
		Width:      width,
		Height:     height,
		Elevations: make([]float64, width*height),
	}
}

// At returns the elevation at (x, y) and whether (x, y) is inside g.
func (g *ElevationGrid) At(x, y int) (float64, bool) {
	if x < 0 || g.Width <= x || y < 0 || g.Height <= y {
		return math.NaN(), false
	}
	return g.Elevations[y*g.Width+x], true
}

// Set sets the elevation at (x, y).
func (g *ElevationGrid) Set(x, y int, elevation float64) {
	g.Elevations[y*g.Width+x] = elevation
}
