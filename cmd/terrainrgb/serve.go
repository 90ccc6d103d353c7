package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/twpayne/go-terrainrgb"
	"github.com/twpayne/go-terrainrgb/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for processed tiles",
	Long: `Start an HTTP server that serves processed tiles.

Endpoints:
  GET /health
  GET /metrics
  GET /tiles/{elevation|slope}/{z}/{x}/{y}.png[?min=&max=]
  GET /directions/{z}/{x}/{y}.geojson
  GET /elevation?lon=&lat= (with --dem)

Examples:
  # Start server on default port 8080
  terrainrgb serve --tiles tiles

  # Start server with slope and elevation ramps from a config file
  terrainrgb serve --config terrainrgb.yaml --bind 0.0.0.0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	serveCmd.Flags().Int("cache-size", 1024, "number of processed tiles cached")

	cobra.CheckErr(viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind")))
	cobra.CheckErr(viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port")))
	cobra.CheckErr(viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout")))
	cobra.CheckErr(viper.BindPFlag("server.cache-size", serveCmd.Flags().Lookup("cache-size")))
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")
	addr := fmt.Sprintf("%s:%d", bind, port)

	scheme, err := tilingScheme()
	if err != nil {
		return err
	}
	cutout, err := loadCutout()
	if err != nil {
		return err
	}
	tileSource, elevationService, closeTileSource, err := newTileSource(scheme)
	if err != nil {
		return err
	}
	defer closeTileSource()

	// Each mode has its own ramp, configured as ramps.elevation and
	// ramps.slope. The ramp.* flags apply to the selected mode.
	ramps := make(map[terrainrgb.Mode]terrainrgb.RampConfig)
	for _, mode := range []terrainrgb.Mode{terrainrgb.ModeElevation, terrainrgb.ModeSlope} {
		key := "ramps." + mode.String()
		if !viper.IsSet(key) {
			continue
		}
		var rampConfig terrainrgb.RampConfig
		if err := viper.UnmarshalKey(key, &rampConfig); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if rampConfig.Kind == "" {
			rampConfig.Kind = terrainrgb.RampKind(mode.String())
		}
		ramps[mode] = rampConfig
	}
	if mode, err := terrainrgb.ParseMode(viper.GetString("mode")); err == nil {
		if rampConfig, ok := rampConfig(mode); ok {
			ramps[mode] = rampConfig
		}
	}

	s, err := server.New(server.Config{
		Version:          version,
		TileSource:       tileSource,
		TilingScheme:     scheme,
		Cutout:           cutout,
		Ramps:            ramps,
		ElevationService: elevationService,
		CacheSize:        viper.GetInt("server.cache-size"),
		Timeout:          timeout,
		Logger:           slog.Default(),
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		fmt.Fprintf(cmd.ErrOrStderr(), "\nShutting down server...\n")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown", "err", err)
		}
	}()

	slog.Info("starting server", "addr", addr, "version", version)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
