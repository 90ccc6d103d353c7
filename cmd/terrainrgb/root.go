package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/twpayne/go-terrainrgb"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "terrainrgb",
	Short: "Process terrain-RGB elevation tiles",
	Long: `terrainrgb decodes terrain-RGB elevation tiles, masks them with cutout
polygons, and colorizes them by elevation or slope.

Raw tiles are read from a directory of z/x/y.png files (--tiles) or rendered
from a geographic float32 GeoTIFF (--dem).

Examples:
  # Colorize a single tile by slope
  terrainrgb render --in 12-2138-1420.png --mode slope --ramp.min 0 --ramp.max 90 -o slope.png 12/2138/1420

  # Render several tiles from a GeoTIFF, masked to a region
  terrainrgb render --dem dem.tif --cutout region.geojson --out-dir out 10/533/355 10/534/355

  # Print the representative downhill direction of a tile
  terrainrgb direction --tiles tiles 12/2138/1420

  # Start HTTP server
  terrainrgb serve --tiles tiles --port 8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.terrainrgb.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")

	// Tile sources
	rootCmd.PersistentFlags().String("tiles", "", "directory of z/x/y.png terrain-RGB tiles")
	rootCmd.PersistentFlags().String("dem", "", "geographic float32 GeoTIFF to render tiles from")
	rootCmd.PersistentFlags().String("scheme", "webmercator", "tiling scheme (webmercator|geographic)")
	rootCmd.PersistentFlags().Int("tile-size", 256, "size of tiles rendered from --dem")

	// Processing
	rootCmd.PersistentFlags().String("mode", "elevation", "colorization mode (elevation|slope)")
	rootCmd.PersistentFlags().String("cutout", "", "GeoJSON file of polygons outside which tiles are transparent")
	rootCmd.PersistentFlags().String("ramp.kind", "", "color ramp stops (elevation|slope, default is the mode)")
	rootCmd.PersistentFlags().Float64("ramp.min", 0, "color ramp domain minimum")
	rootCmd.PersistentFlags().Float64("ramp.max", 0, "color ramp domain maximum")

	for _, name := range []string{
		"log-level",
		"tiles",
		"dem",
		"scheme",
		"tile-size",
		"mode",
		"cutout",
		"ramp.kind",
		"ramp.min",
		"ramp.max",
	} {
		cobra.CheckErr(viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".terrainrgb")
	}

	viper.SetEnvPrefix("terrainrgb")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// initLogger installs a text logger on stderr at the configured level.
func initLogger() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	terrainrgb.SetLogger(logger)
	return nil
}
