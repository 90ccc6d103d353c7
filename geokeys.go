package terrainrgb

import (
	"errors"
	"fmt"
)

var errParse = errors.New("parse error")

// A GeoKey is a key in a GeoTIFF GeoKey directory.
type GeoKey uint16

const (
	GeoKeyGTModelType  GeoKey = 1024
	GeoKeyGTRasterType GeoKey = 1025
	GeoKeyGTCitation   GeoKey = 1026

	GeoKeyGeodeticCRS            GeoKey = 2048
	GeoKeyGeogCitation           GeoKey = 2049
	GeoKeyGeodeticDatum          GeoKey = 2050
	GeoKeyPrimeMeridian          GeoKey = 2051
	GeoKeyAngularUnits           GeoKey = 2054
	GeoKeyGeogAngularUnitSize    GeoKey = 2055
	GeoKeyEllipsoid              GeoKey = 2056
	GeoKeyEllipsoidSemiMajorAxis GeoKey = 2057
	GeoKeyEllipsoidInvFlattening GeoKey = 2059

	GeoKeyProjectedCRS GeoKey = 3072

	GeoKeyVertical      GeoKey = 4096
	GeoKeyVerticalUnits GeoKey = 4099
)

// A ModelType is the value of GeoKeyGTModelType.
type ModelType int

const (
	ModelTypeProjected  ModelType = 1
	ModelTypeGeographic ModelType = 2
	ModelTypeGeocentric ModelType = 3
)

// A RasterType is the value of GeoKeyGTRasterType.
type RasterType int

const (
	RasterTypePixelIsArea  RasterType = 1
	RasterTypePixelIsPoint RasterType = 2
)

// AngularUnitsDegree is the EPSG code of degrees.
const AngularUnitsDegree = 9102

// ParsedGeoKeys are the values of a GeoKey directory.
type ParsedGeoKeys struct {
	Params       map[GeoKey]int
	DoubleParams map[GeoKey]float64
	ASCIIParams  map[GeoKey]string
}

// ParseGeoKeys parses a GeoKey directory and its parameters.
func ParseGeoKeys(directory []uint16, doubleParams []float64, asciiParams []byte) (*ParsedGeoKeys, error) {
	if len(directory) < 4 {
		return nil, fmt.Errorf("%d directory entries: %w", len(directory), errParse)
	}

	if keyDirectoryVersion := int(directory[0]); keyDirectoryVersion != 1 {
		return nil, fmt.Errorf("key directory version %d: %w", keyDirectoryVersion, errParse)
	}
	if keyRevision := int(directory[1]); keyRevision != 1 {
		return nil, fmt.Errorf("key revision %d: %w", keyRevision, errParse)
	}
	if minorRevision := int(directory[2]); minorRevision != 0 && minorRevision != 1 {
		return nil, fmt.Errorf("minor revision %d: %w", minorRevision, errParse)
	}
	numberOfKeys := int(directory[3])
	if len(directory) != 4+4*numberOfKeys {
		return nil, fmt.Errorf("%d directory entries for %d keys: %w", len(directory), numberOfKeys, errParse)
	}

	parsedGeoKeys := &ParsedGeoKeys{
		Params:       make(map[GeoKey]int),
		DoubleParams: make(map[GeoKey]float64),
		ASCIIParams:  make(map[GeoKey]string),
	}
	for i := range numberOfKeys {
		keyValues := directory[4+4*i : 4+4*(i+1)]
		key := GeoKey(keyValues[0])
		tiffTagLocation := int(keyValues[1])
		numberOfValues := int(keyValues[2])
		index := int(keyValues[3])
		switch tiffTagLocation {
		case 0:
			if numberOfValues != 1 {
				return nil, fmt.Errorf("key %d: %d values: %w", key, numberOfValues, errParse)
			}
			parsedGeoKeys.Params[key] = index
		case 34736: // GeoDoubleParamsTag
			if numberOfValues != 1 {
				return nil, fmt.Errorf("key %d: %d double values: %w", key, numberOfValues, errors.ErrUnsupported)
			}
			if index >= len(doubleParams) {
				return nil, fmt.Errorf("key %d: double index %d out of range: %w", key, index, errParse)
			}
			parsedGeoKeys.DoubleParams[key] = doubleParams[index]
		case 34737: // GeoASCIIParamsTag
			if index+numberOfValues > len(asciiParams) {
				return nil, fmt.Errorf("key %d: ASCII range [%d, %d) out of range: %w", key, index, index+numberOfValues, errParse)
			}
			parsedGeoKeys.ASCIIParams[key] = string(asciiParams[index : index+numberOfValues])
		default:
			return nil, fmt.Errorf("key %d: tag location %d: %w", key, tiffTagLocation, errors.ErrUnsupported)
		}
	}
	return parsedGeoKeys, nil
}

// ModelType returns k's model type, or zero if it is not set.
func (k *ParsedGeoKeys) ModelType() ModelType {
	return ModelType(k.Params[GeoKeyGTModelType])
}

// RasterType returns k's raster type, defaulting to RasterTypePixelIsArea.
func (k *ParsedGeoKeys) RasterType() RasterType {
	if rasterType, ok := k.Params[GeoKeyGTRasterType]; ok {
		return RasterType(rasterType)
	}
	return RasterTypePixelIsArea
}
