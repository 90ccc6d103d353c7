package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/twpayne/go-terrainrgb"
)

// A fileTileSource returns the tile in a single file for every tile
// coordinate.
type fileTileSource string

func (s fileTileSource) Tile(ctx context.Context, tileCoord terrainrgb.TileCoord) (*image.NRGBA, error) {
	file, err := os.Open(string(s))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return terrainrgb.DecodeTile(file)
}

// newTileSource returns the tile source configured by --tiles or --dem and a
// function to release it.
func newTileSource(scheme terrainrgb.TilingScheme) (terrainrgb.TileSource, *terrainrgb.ElevationService, func(), error) {
	switch tiles, dem := viper.GetString("tiles"), viper.GetString("dem"); {
	case tiles != "" && dem != "":
		return nil, nil, nil, errors.New("only one of --tiles and --dem may be given")
	case tiles != "":
		tileSource, err := terrainrgb.NewFSTileSource(os.DirFS(tiles))
		if err != nil {
			return nil, nil, nil, err
		}
		return tileSource, nil, func() {}, nil
	case dem != "":
		elevationService, err := newElevationService(dem)
		if err != nil {
			return nil, nil, nil, err
		}
		tileSource := terrainrgb.NewGeoTIFFTileSource(elevationService,
			terrainrgb.WithTilingScheme(scheme),
			terrainrgb.WithTileSize(viper.GetInt("tile-size")),
		)
		return tileSource, elevationService, func() { _ = elevationService.Close() }, nil
	default:
		return nil, nil, nil, errors.New("one of --tiles or --dem is required")
	}
}

func newElevationService(dem string) (*terrainrgb.ElevationService, error) {
	return terrainrgb.NewElevationService(os.DirFS(filepath.Dir(dem)), filepath.Base(dem))
}

func tilingScheme() (terrainrgb.TilingScheme, error) {
	return terrainrgb.ParseTilingScheme(viper.GetString("scheme"))
}

func loadCutout() (*terrainrgb.Cutout, error) {
	filename := viper.GetString("cutout")
	if filename == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cutout, err := terrainrgb.LoadCutoutGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cutout, nil
}

// rampConfig returns the configured ramp for mode, or false if no ramp domain
// is configured.
func rampConfig(mode terrainrgb.Mode) (terrainrgb.RampConfig, bool) {
	if !viper.IsSet("ramp.min") && !viper.IsSet("ramp.max") {
		return terrainrgb.RampConfig{}, false
	}
	kind := terrainrgb.RampKind(viper.GetString("ramp.kind"))
	if kind == "" {
		kind = terrainrgb.RampKind(mode.String())
	}
	return terrainrgb.RampConfig{
		Kind: kind,
		Min:  viper.GetFloat64("ramp.min"),
		Max:  viper.GetFloat64("ramp.max"),
	}, true
}

// processOptions returns the configured processing options.
func processOptions() (terrainrgb.Options, error) {
	mode, err := terrainrgb.ParseMode(viper.GetString("mode"))
	if err != nil {
		return terrainrgb.Options{}, err
	}
	cutout, err := loadCutout()
	if err != nil {
		return terrainrgb.Options{}, err
	}
	options := terrainrgb.Options{
		Mode:   mode,
		Cutout: cutout,
	}
	if config, ok := rampConfig(mode); ok {
		kind, err := terrainrgb.ParseRampKind(string(config.Kind))
		if err != nil {
			return terrainrgb.Options{}, err
		}
		options.Ramp, err = terrainrgb.NewColorRamp(kind.Stops(), config.Min, config.Max)
		if err != nil {
			return terrainrgb.Options{}, err
		}
	}
	return options, nil
}

func parseTileCoords(args []string) ([]terrainrgb.TileCoord, error) {
	tileCoords := make([]terrainrgb.TileCoord, 0, len(args))
	for _, arg := range args {
		tileCoord, err := terrainrgb.ParseTileCoord(arg)
		if err != nil {
			return nil, err
		}
		tileCoords = append(tileCoords, tileCoord)
	}
	return tileCoords, nil
}
