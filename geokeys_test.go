package terrainrgb_test

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-terrainrgb"
)

func TestParseGeoKeys(t *testing.T) {
	// GeoKeys written by GDAL for an EPSG:4326 elevation model.
	directory := []uint16{
		1, 1, 0, 7,
		1024, 0, 1, 2,
		1025, 0, 1, 1,
		2048, 0, 1, 4326,
		2049, 34737, 7, 0,
		2054, 0, 1, 9102,
		2057, 34736, 1, 0,
		2059, 34736, 1, 1,
	}
	doubleParams := []float64{
		6378137,
		298.257223563,
	}
	asciiParams := []byte("WGS 84|")

	actual, err := terrainrgb.ParseGeoKeys(directory, doubleParams, asciiParams)
	assert.NoError(t, err)

	assert.Equal(t, &terrainrgb.ParsedGeoKeys{
		Params: map[terrainrgb.GeoKey]int{
			terrainrgb.GeoKeyGTModelType:  2,
			terrainrgb.GeoKeyGTRasterType: 1,
			terrainrgb.GeoKeyGeodeticCRS:  4326,
			terrainrgb.GeoKeyAngularUnits: 9102,
		},
		DoubleParams: map[terrainrgb.GeoKey]float64{
			terrainrgb.GeoKeyEllipsoidSemiMajorAxis: 6378137,
			terrainrgb.GeoKeyEllipsoidInvFlattening: 298.257223563,
		},
		ASCIIParams: map[terrainrgb.GeoKey]string{
			terrainrgb.GeoKeyGeogCitation: "WGS 84|",
		},
	}, actual)
	assert.Equal(t, terrainrgb.ModelTypeGeographic, actual.ModelType())
	assert.Equal(t, terrainrgb.RasterTypePixelIsArea, actual.RasterType())
}

func TestParseGeoKeys_Errors(t *testing.T) {
	for _, tc := range []struct {
		name         string
		directory    []uint16
		doubleParams []float64
		asciiParams  []byte
		unsupported  bool
	}{
		{
			name:      "short",
			directory: []uint16{1, 1, 0},
		},
		{
			name:      "version",
			directory: []uint16{2, 1, 0, 0},
		},
		{
			name:      "key_count",
			directory: []uint16{1, 1, 0, 2, 1024, 0, 1, 2},
		},
		{
			name:      "double_index",
			directory: []uint16{1, 1, 0, 1, 2057, 34736, 1, 3},
		},
		{
			name:        "ascii_range",
			directory:   []uint16{1, 1, 0, 1, 2049, 34737, 8, 0},
			asciiParams: []byte("WGS 84|"),
		},
		{
			name:        "tag_location",
			directory:   []uint16{1, 1, 0, 1, 1024, 33550, 1, 0},
			unsupported: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := terrainrgb.ParseGeoKeys(tc.directory, tc.doubleParams, tc.asciiParams)
			assert.Error(t, err)
			assert.Equal(t, tc.unsupported, errors.Is(err, errors.ErrUnsupported))
		})
	}
}
