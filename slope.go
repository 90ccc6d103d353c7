package terrainrgb

import "math"

const (
	// MaxPlausibleElevation is the highest elevation, in meters, that is used
	// as a neighbor when computing slope.
	MaxPlausibleElevation = 1000000

	// MinPlausibleElevation is the lowest elevation, in meters, that is used
	// as a neighbor when computing slope.
	MinPlausibleElevation = -500
)

// A SlopeGrid holds one slope, in degrees from horizontal, per pixel.
type SlopeGrid struct {
	Width  int
	Height int
	Slopes []float64
}

// At returns the slope at (x, y).
func (g *SlopeGrid) At(x, y int) float64 {
	return g.Slopes[y*g.Width+x]
}

// A gradient is the rate of change of elevation, in meters per meter, towards
// the east and towards the north.
type gradient struct {
	dzdx float64
	dzdy float64
}

// slope returns the slope of g in degrees.
func (g gradient) slope() float64 {
	return math.Atan(math.Hypot(g.dzdx, g.dzdy)) * 180 / math.Pi
}

// ComputeSlope returns the slope at every cell of grid, where dx and dy are
// the ground distances in meters between horizontally and vertically adjacent
// cells. Neighbors that are outside grid or that have implausible elevations
// are replaced by the center elevation. If dx or dy is not a positive finite
// number then every slope is zero.
func ComputeSlope(grid *ElevationGrid, dx, dy float64) *SlopeGrid {
	slopeGrid := &SlopeGrid{
		Width:  grid.Width,
		Height: grid.Height,
		Slopes: make([]float64, grid.Width*grid.Height),
	}
	if !validSpacing(dx) || !validSpacing(dy) {
		return slopeGrid
	}
	for y := range grid.Height {
		for x := range grid.Width {
			slopeGrid.Slopes[y*grid.Width+x] = grid.gradientAt(x, y, dx, dy).slope()
		}
	}
	return slopeGrid
}

// gradientAt returns the gradient at (x, y) using a four-neighbor central
// difference.
func (g *ElevationGrid) gradientAt(x, y int, dx, dy float64) gradient {
	center, _ := g.At(x, y)
	east := g.neighbor(x+1, y, center)
	west := g.neighbor(x-1, y, center)
	north := g.neighbor(x, y-1, center)
	south := g.neighbor(x, y+1, center)
	return gradient{
		dzdx: (east - west) / (2 * dx),
		dzdy: (north - south) / (2 * dy),
	}
}

// neighbor returns the elevation at (x, y), or center if (x, y) is outside g
// or its elevation is implausible.
func (g *ElevationGrid) neighbor(x, y int, center float64) float64 {
	elevation, ok := g.At(x, y)
	if !ok || !plausibleElevation(elevation) {
		return center
	}
	return elevation
}

func plausibleElevation(elevation float64) bool {
	return !math.IsNaN(elevation) && MinPlausibleElevation <= elevation && elevation <= MaxPlausibleElevation
}

func validSpacing(d float64) bool {
	return d > 0 && !math.IsInf(d, 0)
}
