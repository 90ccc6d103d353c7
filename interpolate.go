package terrainrgb

import (
	"context"
	"math"
)

// InterpolateBilinear returns the bilinear interpolation of raster at coords,
// which are fractional pixel coordinates. Sample (x, y) of raster is at
// coordinate (x, y). A NaN sample propagates to every coordinate that depends
// on it.
func InterpolateBilinear(ctx context.Context, raster Raster, coords [][]float64) ([]float64, error) {
	rasterCoords := make([]Coord, 4*len(coords))
	for i, coord := range coords {
		x0 := int(math.Floor(coord[0]))
		y0 := int(math.Floor(coord[1]))
		rasterCoords[4*i+0] = Coord{X: x0, Y: y0}
		rasterCoords[4*i+1] = Coord{X: x0 + 1, Y: y0}
		rasterCoords[4*i+2] = Coord{X: x0, Y: y0 + 1}
		rasterCoords[4*i+3] = Coord{X: x0 + 1, Y: y0 + 1}
	}
	samples, err := raster.Samples(ctx, rasterCoords)
	if err != nil {
		return nil, err
	}
	result := make([]float64, len(coords))
	for i, coord := range coords {
		dx := coord[0] - math.Floor(coord[0])
		dy := coord[1] - math.Floor(coord[1])
		weights := [4]float64{
			(1 - dx) * (1 - dy),
			dx * (1 - dy),
			(1 - dx) * dy,
			dx * dy,
		}
		// Zero-weight samples are skipped so that coordinates on the last row
		// or column do not read NaN from beyond the raster.
		for j, weight := range weights {
			if weight == 0 {
				continue
			}
			result[i] += weight * samples[4*i+j]
		}
	}
	return result, nil
}
