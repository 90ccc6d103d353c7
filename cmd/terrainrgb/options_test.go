package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/spf13/viper"

	"github.com/twpayne/go-terrainrgb"
)

func TestProcessOptions(t *testing.T) {
	t.Cleanup(viper.Reset)

	cutoutFilename := filepath.Join(t.TempDir(), "cutout.geojson")
	assert.NoError(t, os.WriteFile(cutoutFilename, []byte(`{
		"type": "Polygon",
		"coordinates": [[[0, 0], [1, 0], [1, 1], [0, 1], [0, 0]]]
	}`), 0o666))

	viper.Set("mode", "slope")
	viper.Set("cutout", cutoutFilename)
	viper.Set("ramp.min", 0)
	viper.Set("ramp.max", 90)

	options, err := processOptions()
	assert.NoError(t, err)
	assert.Equal(t, terrainrgb.ModeSlope, options.Mode)
	assert.Equal(t, 1, options.Cutout.Len())
	assert.NotZero(t, options.Ramp)
	assert.Equal(t, 90, options.Ramp.Len())
}

func TestProcessOptions_NoRamp(t *testing.T) {
	t.Cleanup(viper.Reset)

	options, err := processOptions()
	assert.NoError(t, err)
	assert.Equal(t, terrainrgb.ModeElevation, options.Mode)
	assert.Zero(t, options.Cutout)
	assert.Zero(t, options.Ramp)
}

func TestProcessOptions_Errors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		settings map[string]any
	}{
		{
			name:     "mode",
			settings: map[string]any{"mode": "aspect"},
		},
		{
			name:     "ramp_kind",
			settings: map[string]any{"ramp.kind": "aspect", "ramp.max": 10},
		},
		{
			name:     "ramp_domain",
			settings: map[string]any{"ramp.min": 10, "ramp.max": 0},
		},
		{
			name:     "cutout",
			settings: map[string]any{"cutout": filepath.Join(t.TempDir(), "missing.geojson")},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Cleanup(viper.Reset)
			for key, value := range tc.settings {
				viper.Set(key, value)
			}
			_, err := processOptions()
			assert.Error(t, err)
		})
	}
}

func TestParseTileCoords(t *testing.T) {
	tileCoords, err := parseTileCoords([]string{"0/0/0", "12/2138/1420"})
	assert.NoError(t, err)
	assert.Equal(t, []terrainrgb.TileCoord{{}, {Z: 12, X: 2138, Y: 1420}}, tileCoords)

	_, err = parseTileCoords([]string{"12/2138"})
	assert.Error(t, err)
}
