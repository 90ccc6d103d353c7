package main

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var directionCmd = &cobra.Command{
	Use:   "direction z/x/y...",
	Short: "Print the representative downhill direction of tiles as GeoJSON",
	Long: `Print the representative downhill direction of one or more tiles as a
GeoJSON FeatureCollection of LineStrings.

The direction of a tile is computed from the elevation gradient at its center
pixel only. It is a visual hint, not an aspect analysis.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDirection,
}

func init() {
	rootCmd.AddCommand(directionCmd)

	directionCmd.Flags().String("in", "", "raw terrain-RGB tile file")

	cobra.CheckErr(viper.BindPFlag("direction.in", directionCmd.Flags().Lookup("in")))
}

func runDirection(cmd *cobra.Command, args []string) error {
	tileCoords, err := parseTileCoords(args)
	if err != nil {
		return err
	}
	results, err := processTiles(cmd, tileCoords, viper.GetString("direction.in"), 0, true)
	if err != nil {
		return err
	}

	featureCollection := geojson.NewFeatureCollection()
	for i, result := range results {
		if result.Err != nil {
			return fmt.Errorf("%s: %w", tileCoords[i], result.Err)
		}
		feature := result.Direction.GeoJSON()
		feature.Properties["tile"] = tileCoords[i].String()
		featureCollection.Append(feature)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(featureCollection)
}
