package terrainrgb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrainrgb_tiles_processed_total",
		Help: "The total number of processed tiles by final stage",
	}, []string{"stage"})
	maskedPixels = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_masked_pixels_total",
		Help: "The total number of pixels masked by cutouts",
	})
	rampCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_ramp_cache_hits_total",
		Help: "The total number of hits on the color ramp cache",
	})
	rampCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_ramp_cache_misses_total",
		Help: "The total number of misses on the color ramp cache",
	})
	geoTIFFTileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_geotiff_tile_cache_hits_total",
		Help: "The total number of hits on the GeoTIFF tile cache",
	})
	geoTIFFTileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_geotiff_tile_cache_misses_total",
		Help: "The total number of misses on the GeoTIFF tile cache",
	})
)

var (
	tileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_tile_cache_hits_total",
		Help: "The total number of hits on the raw tile cache",
	})
	tileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_tile_cache_misses_total",
		Help: "The total number of misses on the raw tile cache",
	})
	tileCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_tile_cache_evictions_total",
		Help: "The total number of evictions from the raw tile cache",
	})
	missingTileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_missing_tile_cache_hits_total",
		Help: "The total number of hits on the missing tile cache",
	})
	missingTileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrainrgb_missing_tile_cache_misses_total",
		Help: "The total number of misses on the missing tile cache",
	})
)
