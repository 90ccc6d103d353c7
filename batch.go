package terrainrgb

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// A TileJob is a tile to be processed.
type TileJob struct {
	TileCoord TileCoord
	Rect      Rect
	Image     *image.NRGBA
}

// ProcessTiles processes jobs with at most parallelism concurrent tiles. If
// parallelism is not positive then runtime.GOMAXPROCS(0) is used.
//
// The returned Results are in the same order as jobs. A tile that fails is
// returned at StagePassthrough and does not affect other tiles. Tiles that
// have not started when ctx is canceled are returned at StagePassthrough with
// ctx's error.
func ProcessTiles(ctx context.Context, jobs []TileJob, options Options, parallelism int) []*Result {
	results := make([]*Result, len(jobs))
	forEachTile(ctx, len(jobs), parallelism, func(i int) {
		results[i], _ = Process(jobs[i].Rect, jobs[i].Image, options)
	}, func(i int, err error) {
		results[i], _ = passthrough(&Result{Stages: []Stage{StageReceived}}, jobs[i].Image, err)
	})
	return results
}

// ProcessSourceTiles fetches tileCoords from source and processes them with
// at most parallelism concurrent tiles. A tile that cannot be fetched is
// returned at StagePassthrough with an error wrapping ErrDecodeUnavailable.
func ProcessSourceTiles(ctx context.Context, source TileSource, scheme TilingScheme, tileCoords []TileCoord, options Options, parallelism int) []*Result {
	results := make([]*Result, len(tileCoords))
	forEachTile(ctx, len(tileCoords), parallelism, func(i int) {
		tileCoord := tileCoords[i]
		img, err := source.Tile(ctx, tileCoord)
		if err != nil {
			results[i], _ = passthrough(&Result{Stages: []Stage{StageReceived}}, nil, fmt.Errorf("%s: %w: %w", tileCoord, ErrDecodeUnavailable, err))
			return
		}
		results[i], _ = Process(scheme.TileRect(tileCoord), img, options)
	}, func(i int, err error) {
		results[i], _ = passthrough(&Result{Stages: []Stage{StageReceived}}, nil, err)
	})
	return results
}

// forEachTile calls process(i) for each i in [0, n) on a bounded pool, or
// cancel(i, err) if ctx is canceled before i starts.
func forEachTile(ctx context.Context, n, parallelism int, process func(int), cancel func(int, error)) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	var group errgroup.Group
	group.SetLimit(parallelism)
	for i := range n {
		if err := ctx.Err(); err != nil {
			cancel(i, err)
			continue
		}
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				cancel(i, err)
				return nil
			}
			process(i)
			return nil
		})
	}
	_ = group.Wait()
}
