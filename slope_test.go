package terrainrgb_test

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-terrainrgb"
)

func newGrid(width, height int, f func(x, y int) float64) *terrainrgb.ElevationGrid {
	grid := terrainrgb.NewElevationGrid(width, height)
	for y := range height {
		for x := range width {
			grid.Set(x, y, f(x, y))
		}
	}
	return grid
}

func assertNear(t *testing.T, expected, actual float64) {
	t.Helper()
	assert.True(t, math.Abs(expected-actual) < 1e-9, "expected %v, got %v", expected, actual)
}

func TestComputeSlope_Uniform(t *testing.T) {
	for _, elevation := range []float64{-10000, -100, 0, 1234.5, 8848} {
		grid := newGrid(8, 6, func(int, int) float64 { return elevation })
		slopes := terrainrgb.ComputeSlope(grid, 30, 30)
		assert.Equal(t, 8, slopes.Width)
		assert.Equal(t, 6, slopes.Height)
		for _, slope := range slopes.Slopes {
			assert.Equal(t, 0.0, slope)
		}
	}
}

func TestComputeSlope_Ramp(t *testing.T) {
	// Rises 10m per 10m pixel towards the east.
	grid := newGrid(5, 3, func(x, _ int) float64 { return 10 * float64(x) })
	slopes := terrainrgb.ComputeSlope(grid, 10, 10)
	for y := range 3 {
		for x := 1; x < 4; x++ {
			assertNear(t, 45, slopes.At(x, y))
		}
		// At the edges the missing neighbor is replaced by the center.
		assertNear(t, math.Atan(0.5)*180/math.Pi, slopes.At(0, y))
		assertNear(t, math.Atan(0.5)*180/math.Pi, slopes.At(4, y))
	}
}

func TestComputeSlope_NorthSouth(t *testing.T) {
	// Rises 20m per 20m pixel towards the north.
	grid := newGrid(3, 5, func(_, y int) float64 { return -20 * float64(y) })
	slopes := terrainrgb.ComputeSlope(grid, 1, 20)
	assertNear(t, 45, slopes.At(1, 2))
}

func TestComputeSlope_ImplausibleNeighbors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		spike float64
	}{
		{name: "too_high", spike: 10000000},
		{name: "too_low", spike: -501},
		{name: "nan", spike: math.NaN()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			grid := newGrid(5, 5, func(x, y int) float64 {
				if x == 2 && y == 2 {
					return tc.spike
				}
				return 0
			})
			slopes := terrainrgb.ComputeSlope(grid, 30, 30)
			for _, neighbor := range [][2]int{{1, 2}, {3, 2}, {2, 1}, {2, 3}} {
				assert.Equal(t, 0.0, slopes.At(neighbor[0], neighbor[1]))
			}
			for y := range 5 {
				for x := range 5 {
					if x == 2 && y == 2 {
						continue
					}
					slope := slopes.At(x, y)
					assert.False(t, math.IsNaN(slope))
					assert.False(t, math.IsInf(slope, 0))
				}
			}
		})
	}
}

func TestComputeSlope_PlausibleBoundaries(t *testing.T) {
	// -500m and 1000000m are still plausible.
	grid := newGrid(3, 1, func(x, _ int) float64 {
		return []float64{-500, 0, 0}[x]
	})
	slopes := terrainrgb.ComputeSlope(grid, 250, 250)
	assertNear(t, 45, slopes.At(1, 0))
}

func TestComputeSlope_Bounded(t *testing.T) {
	grid := newGrid(3, 3, func(x, y int) float64 { return float64(x*1000000 - y*1000000) / 2 })
	slopes := terrainrgb.ComputeSlope(grid, 0.001, 0.001)
	for _, slope := range slopes.Slopes {
		assert.True(t, 0 <= slope && slope <= 90, "slope %v", slope)
	}
}

func TestComputeSlope_InvalidSpacing(t *testing.T) {
	grid := newGrid(3, 3, func(x, _ int) float64 { return float64(x) })
	for _, spacing := range [][2]float64{{0, 1}, {1, -1}, {math.NaN(), 1}, {1, math.Inf(1)}} {
		slopes := terrainrgb.ComputeSlope(grid, spacing[0], spacing[1])
		for _, slope := range slopes.Slopes {
			assert.Equal(t, 0.0, slope)
		}
	}
}
