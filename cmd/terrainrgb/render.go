package main

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/twpayne/go-terrainrgb"
)

var renderCmd = &cobra.Command{
	Use:   "render z/x/y...",
	Short: "Process tiles and write them as PNG",
	Long: `Process one or more tiles and write them as PNG.

With --in, the raw tile is read from a file and exactly one tile coordinate,
giving its geographic location, is required. A single tile is written to
--output (default stdout); multiple tiles are written to --out-dir as z/x/y.png.
Tiles that cannot be processed are written unmodified and reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("in", "", "raw terrain-RGB tile file")
	renderCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	renderCmd.Flags().String("out-dir", "", "output directory for multiple tiles")
	renderCmd.Flags().IntP("parallelism", "j", 0, "number of tiles processed concurrently (default: number of CPUs)")

	cobra.CheckErr(viper.BindPFlag("render.in", renderCmd.Flags().Lookup("in")))
	cobra.CheckErr(viper.BindPFlag("render.output", renderCmd.Flags().Lookup("output")))
	cobra.CheckErr(viper.BindPFlag("render.out-dir", renderCmd.Flags().Lookup("out-dir")))
	cobra.CheckErr(viper.BindPFlag("render.parallelism", renderCmd.Flags().Lookup("parallelism")))
}

func runRender(cmd *cobra.Command, args []string) error {
	tileCoords, err := parseTileCoords(args)
	if err != nil {
		return err
	}
	outDir := viper.GetString("render.out-dir")
	if len(tileCoords) > 1 && outDir == "" {
		return errors.New("--out-dir is required for multiple tiles")
	}

	results, err := processTiles(cmd, tileCoords, viper.GetString("render.in"), viper.GetInt("render.parallelism"), false)
	if err != nil {
		return err
	}

	failed := 0
	for i, result := range results {
		if result.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", tileCoords[i], result.Err)
		}
		if result.Image == nil {
			continue
		}
		if outDir == "" {
			if err := writePNG(cmd.OutOrStdout(), viper.GetString("render.output"), result); err != nil {
				return err
			}
			continue
		}
		filename := filepath.Join(outDir, filepath.FromSlash(terrainrgb.DefaultTileFilename(tileCoords[i])))
		if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
			return err
		}
		if err := writePNG(cmd.OutOrStdout(), filename, result); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tiles failed", failed, len(results))
	}
	return nil
}

// processTiles processes tileCoords from the raw tile file in or from the
// configured tile source.
func processTiles(cmd *cobra.Command, tileCoords []terrainrgb.TileCoord, in string, parallelism int, direction bool) ([]*terrainrgb.Result, error) {
	scheme, err := tilingScheme()
	if err != nil {
		return nil, err
	}
	options, err := processOptions()
	if err != nil {
		return nil, err
	}
	options.Direction = direction

	var tileSource terrainrgb.TileSource
	if in != "" {
		if len(tileCoords) != 1 {
			return nil, errors.New("--in requires exactly one tile")
		}
		tileSource = fileTileSource(in)
	} else {
		var closeTileSource func()
		tileSource, _, closeTileSource, err = newTileSource(scheme)
		if err != nil {
			return nil, err
		}
		defer closeTileSource()
	}

	return terrainrgb.ProcessSourceTiles(cmd.Context(), tileSource, scheme, tileCoords, options, parallelism), nil
}

// writePNG writes result's image to filename, or to w if filename is empty.
func writePNG(w io.Writer, filename string, result *terrainrgb.Result) (err error) {
	if filename != "" {
		var file *os.File
		file, err = os.Create(filename)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := file.Close(); err == nil {
				err = closeErr
			}
		}()
		w = file
	}
	return png.Encode(w, result.Image)
}
