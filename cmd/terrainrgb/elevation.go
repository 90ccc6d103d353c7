package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var elevationCmd = &cobra.Command{
	Use:   "elevation longitude latitude",
	Short: "Print the elevation at a point from --dem",
	Args:  cobra.ExactArgs(2),
	RunE:  runElevation,
}

func init() {
	rootCmd.AddCommand(elevationCmd)
}

func runElevation(cmd *cobra.Command, args []string) error {
	dem := viper.GetString("dem")
	if dem == "" {
		return errors.New("--dem is required")
	}
	lon, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return err
	}
	lat, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return err
	}

	elevationService, err := newElevationService(dem)
	if err != nil {
		return err
	}
	defer elevationService.Close()

	elevations, err := elevationService.Elevation(cmd.Context(), [][]float64{{lon, lat}})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), elevations[0])
	return nil
}
