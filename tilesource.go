package terrainrgb

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder.
	_ "image/png"  // Register PNG decoder.
	"io"
	"io/fs"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"
)

// A TileSource returns raw terrain-RGB tiles.
type TileSource interface {
	Tile(ctx context.Context, tileCoord TileCoord) (*image.NRGBA, error)
}

// A TileFilenameFunc returns the tile filename for a tile coordinate.
type TileFilenameFunc func(TileCoord) string

// DefaultTileFilename returns "z/x/y.png".
func DefaultTileFilename(tileCoord TileCoord) string {
	return fmt.Sprintf("%d/%d/%d.png", tileCoord.Z, tileCoord.X, tileCoord.Y)
}

// An FSTileSource reads terrain-RGB tiles from image files in a file system.
// Decoded tiles are cached and shared between callers, so callers must not
// modify them. Different tiles are decoded concurrently. Concurrent requests
// for the same tile share a single decode.
type FSTileSource struct {
	group            singleflight.Group
	fsys             fs.FS
	tileFilenameFunc TileFilenameFunc
	missingTiles     sync.Map
	cacheSize        int
	tileCache        *lru.Cache[TileCoord, *image.NRGBA]
}

// An FSTileSourceOption sets an option on an FSTileSource.
type FSTileSourceOption func(*FSTileSource)

// NewFSTileSource returns a new FSTileSource reading from fsys with the given
// options.
func NewFSTileSource(fsys fs.FS, options ...FSTileSourceOption) (*FSTileSource, error) {
	s := &FSTileSource{
		fsys:             fsys,
		tileFilenameFunc: DefaultTileFilename,
		cacheSize:        256,
	}
	for _, option := range options {
		option(s)
	}

	var err error
	s.tileCache, err = lru.NewWithEvict(s.cacheSize, func(TileCoord, *image.NRGBA) {
		tileCacheEvictions.Inc()
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// WithCacheSize sets the number of decoded tiles cached.
func WithCacheSize(cacheSize int) FSTileSourceOption {
	return func(s *FSTileSource) {
		s.cacheSize = cacheSize
	}
}

// WithTileFilenameFunc sets the function that maps tile coordinates to
// filenames.
func WithTileFilenameFunc(tileFilenameFunc TileFilenameFunc) FSTileSourceOption {
	return func(s *FSTileSource) {
		s.tileFilenameFunc = tileFilenameFunc
	}
}

// Tile returns the tile at tileCoord. If there is no such tile then it returns
// an error wrapping fs.ErrNotExist.
func (s *FSTileSource) Tile(ctx context.Context, tileCoord TileCoord) (*image.NRGBA, error) {
	if _, ok := s.missingTiles.Load(tileCoord); ok {
		missingTileCacheHits.Inc()
		return nil, fmt.Errorf("%s: %w", tileCoord, fs.ErrNotExist)
	}

	if tile, ok := s.tileCache.Get(tileCoord); ok {
		tileCacheHits.Inc()
		return tile, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tile, err, _ := s.group.Do(tileCoord.String(), func() (any, error) {
		if tile, ok := s.tileCache.Get(tileCoord); ok {
			tileCacheHits.Inc()
			return tile, nil
		}

		tileCacheMisses.Inc()

		tile, err := s.readTile(tileCoord)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			s.missingTiles.Store(tileCoord, struct{}{})
			missingTileCacheMisses.Inc()
			return nil, err
		case err != nil:
			return nil, err
		}

		s.tileCache.Add(tileCoord, tile)
		return tile, nil
	})
	if err != nil {
		return nil, err
	}
	return tile.(*image.NRGBA), nil
}

// readTile reads and decodes the tile at tileCoord.
func (s *FSTileSource) readTile(tileCoord TileCoord) (*image.NRGBA, error) {
	filename := s.tileFilenameFunc(tileCoord)
	file, err := s.fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	tile, err := DecodeTile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return tile, nil
}

// DecodeTile decodes a PNG or JPEG terrain-RGB tile from r.
func DecodeTile(r io.Reader) (*image.NRGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeUnavailable, err)
	}
	return toNRGBA(img), nil
}

// toNRGBA returns img as an *image.NRGBA, converting it if needed.
func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	return nrgba
}
