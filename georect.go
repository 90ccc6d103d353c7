package terrainrgb

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// A GeoRect is a geographic rectangle covered by a raster of Width x Height
// pixels.
type GeoRect struct {
	Rect
	Width  int
	Height int
}

// NewGeoRect returns a new GeoRect.
func NewGeoRect(rect Rect, width, height int) GeoRect {
	return GeoRect{
		Rect:   rect,
		Width:  width,
		Height: height,
	}
}

// Valid returns whether r's rectangle is valid and its raster is not empty.
func (r GeoRect) Valid() bool {
	return r.Rect.Valid() && r.Width > 0 && r.Height > 0
}

// PixelToLonLat returns the longitude and latitude of pixel (px, py). Row 0
// is the northern edge.
func (r GeoRect) PixelToLonLat(px, py float64) orb.Point {
	return orb.Point{
		r.West + px/float64(r.Width)*(r.East-r.West),
		r.North - py/float64(r.Height)*(r.North-r.South),
	}
}

// Center returns the center of r.
func (r GeoRect) Center() orb.Point {
	return orb.Point{
		r.West + (r.East-r.West)/2,
		r.South + (r.North-r.South)/2,
	}
}

// minPixelSpacing is the smallest horizontal pixel spacing, in meters, that
// is not treated as degenerate.
const minPixelSpacing = 1e-3

// PixelSpacing returns the ground distance, in meters, covered by one pixel
// horizontally and vertically. The horizontal spacing is the arc length of
// one pixel along r's central parallel, so tiles that touch a pole or span
// the whole world still get a usable spacing. If that arc is degenerate then
// dx is zero.
func (r GeoRect) PixelSpacing() (dx, dy float64) {
	center := r.Center()
	pixelWidth := (r.East - r.West) / float64(r.Width)
	dx = geo.EarthRadius * deg2rad(pixelWidth) * math.Cos(deg2rad(center.Lat()))
	if !(dx >= minPixelSpacing) {
		dx = 0
	}
	dy = geo.Distance(orb.Point{center.Lon(), r.South}, orb.Point{center.Lon(), r.North}) / float64(r.Height)
	return dx, dy
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180
}
