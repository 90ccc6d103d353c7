package terrainrgb_test

import (
	"context"
	"errors"
	"image"
	"io/fs"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-terrainrgb"
)

func TestProcessTiles(t *testing.T) {
	jobs := []terrainrgb.TileJob{
		{Rect: testRect, Image: uniformTile(4, 4, 0)},
		{Rect: testRect, Image: nil},
		{Rect: terrainrgb.Rect{West: 1, South: 1, East: 0, North: 0}, Image: uniformTile(4, 4, 0)},
		{Rect: testRect, Image: uniformTile(8, 8, 100)},
	}
	results := terrainrgb.ProcessTiles(t.Context(), jobs, terrainrgb.Options{}, 2)
	assert.Equal(t, len(jobs), len(results))

	assert.Equal(t, terrainrgb.StageDone, results[0].Stage)
	assert.Equal(t, terrainrgb.StagePassthrough, results[1].Stage)
	assert.IsError(t, results[1].Err, terrainrgb.ErrDecodeUnavailable)
	assert.Equal(t, terrainrgb.StagePassthrough, results[2].Stage)
	assert.IsError(t, results[2].Err, terrainrgb.ErrInvalidGeometry)
	assert.True(t, results[2].Image == jobs[2].Image)
	assert.Equal(t, terrainrgb.StageDone, results[3].Stage)
	assert.Equal(t, 8, results[3].Image.Bounds().Dx())
}

func TestProcessTiles_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	jobs := []terrainrgb.TileJob{
		{Rect: testRect, Image: uniformTile(4, 4, 0)},
		{Rect: testRect, Image: uniformTile(4, 4, 0)},
	}
	for i, result := range terrainrgb.ProcessTiles(ctx, jobs, terrainrgb.Options{}, 0) {
		assert.Equal(t, terrainrgb.StagePassthrough, result.Stage)
		assert.IsError(t, result.Err, context.Canceled)
		assert.True(t, result.Image == jobs[i].Image)
	}
}

type mapTileSource map[terrainrgb.TileCoord]*image.NRGBA

func (s mapTileSource) Tile(ctx context.Context, tileCoord terrainrgb.TileCoord) (*image.NRGBA, error) {
	if img, ok := s[tileCoord]; ok {
		return img, nil
	}
	return nil, fs.ErrNotExist
}

func TestProcessSourceTiles(t *testing.T) {
	present := terrainrgb.TileCoord{Z: 1, X: 0, Y: 0}
	missing := terrainrgb.TileCoord{Z: 1, X: 1, Y: 0}
	source := mapTileSource{present: uniformTile(4, 4, 0)}

	results := terrainrgb.ProcessSourceTiles(t.Context(), source, terrainrgb.Geographic, []terrainrgb.TileCoord{present, missing}, terrainrgb.Options{}, 1)
	assert.Equal(t, terrainrgb.StageDone, results[0].Stage)
	assert.Equal(t, terrainrgb.StagePassthrough, results[1].Stage)
	assert.IsError(t, results[1].Err, terrainrgb.ErrDecodeUnavailable)
	assert.True(t, errors.Is(results[1].Err, fs.ErrNotExist))
}
