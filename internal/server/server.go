// Package server serves processed terrain-RGB tiles over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/twpayne/go-terrainrgb"
)

// A Config configures a Server.
type Config struct {
	Version          string
	TileSource       terrainrgb.TileSource
	TilingScheme     terrainrgb.TilingScheme
	Cutout           *terrainrgb.Cutout
	Ramps            map[terrainrgb.Mode]terrainrgb.RampConfig
	ElevationService *terrainrgb.ElevationService
	CacheSize        int
	Timeout          time.Duration
	Logger           *slog.Logger
}

// A Server serves processed tiles.
type Server struct {
	config    Config
	startTime time.Time
	rampCache *terrainrgb.RampCache
	pngCache  *lru.Cache[string, []byte]
	logger    *slog.Logger
}

// A HealthResponse is the response to a health check.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    int       `json:"uptime"`
	Version   string    `json:"version,omitempty"`
}

// An ErrorResponse is the response to a failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// An ElevationResponse is the response to an elevation request.
type ElevationResponse struct {
	Lon       float64  `json:"lon"`
	Lat       float64  `json:"lat"`
	Elevation *float64 `json:"elevation"`
}

// New returns a new Server.
func New(config Config) (*Server, error) {
	if config.TileSource == nil {
		return nil, errors.New("no tile source")
	}
	if config.TilingScheme == nil {
		config.TilingScheme = terrainrgb.WebMercator
	}
	if config.CacheSize <= 0 {
		config.CacheSize = 1024
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rampCache, err := terrainrgb.NewRampCache(16)
	if err != nil {
		return nil, err
	}
	pngCache, err := lru.New[string, []byte](config.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:    config,
		startTime: time.Now(),
		rampCache: rampCache,
		pngCache:  pngCache,
		logger:    logger,
	}, nil
}

// Handler returns s's HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.Timeout))

	r.Get("/health", s.GetHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/tiles/{mode}/{z}/{x}/{y}.png", s.GetTile)
	r.Get("/directions/{z}/{x}/{y}.geojson", s.GetDirection)
	r.Get("/elevation", s.GetElevation)

	return r
}

// GetHealth implements the health check endpoint.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    int(time.Since(s.startTime).Seconds()),
		Version:   s.config.Version,
	})
}

// GetTile returns a processed tile as a PNG. The query parameters min and max
// override the configured ramp domain for the mode.
func (s *Server) GetTile(w http.ResponseWriter, r *http.Request) {
	mode, err := terrainrgb.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, "UNKNOWN_MODE", err)
		return
	}
	tileCoord, err := tileCoordParam(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "INVALID_TILE", err)
		return
	}
	ramp, rampKey, err := s.ramp(r, mode)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "INVALID_RAMP", err)
		return
	}

	key := fmt.Sprintf("%s/%s/%s", mode, tileCoord, rampKey)
	if data, ok := s.pngCache.Get(key); ok {
		s.writePNG(w, data)
		return
	}

	result, status, err := s.process(r, tileCoord, terrainrgb.Options{
		Mode:   mode,
		Cutout: s.config.Cutout,
		Ramp:   ramp,
	})
	if err != nil {
		s.writeError(w, r, status, "TILE_UNAVAILABLE", err)
		return
	}

	var buffer bytes.Buffer
	if err := png.Encode(&buffer, result.Image); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", err)
		return
	}
	data := buffer.Bytes()
	if result.Stage == terrainrgb.StageDone {
		s.pngCache.Add(key, data)
	}
	s.writePNG(w, data)
}

// GetDirection returns the representative direction of a tile as a GeoJSON
// Feature.
func (s *Server) GetDirection(w http.ResponseWriter, r *http.Request) {
	tileCoord, err := tileCoordParam(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "INVALID_TILE", err)
		return
	}
	result, status, err := s.process(r, tileCoord, terrainrgb.Options{
		Direction: true,
	})
	if err != nil {
		s.writeError(w, r, status, "TILE_UNAVAILABLE", err)
		return
	}
	if result.Direction == nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, "NO_DIRECTION", result.Err)
		return
	}
	feature := result.Direction.GeoJSON()
	feature.Properties["tile"] = tileCoord.String()
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(feature); err != nil {
		s.logger.Error("encode direction", "err", err)
	}
}

// GetElevation returns the elevation at the lon and lat query parameters.
func (s *Server) GetElevation(w http.ResponseWriter, r *http.Request) {
	if s.config.ElevationService == nil {
		s.writeError(w, r, http.StatusNotFound, "NO_ELEVATION_SERVICE", errors.New("no elevation data configured"))
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "INVALID_LON", err)
		return
	}
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "INVALID_LAT", err)
		return
	}
	elevations, err := s.config.ElevationService.Elevation(r.Context(), [][]float64{{lon, lat}})
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", err)
		return
	}
	response := ElevationResponse{
		Lon: lon,
		Lat: lat,
	}
	if elevation := elevations[0]; !math.IsNaN(elevation) {
		response.Elevation = &elevation
	}
	s.writeJSON(w, http.StatusOK, response)
}

// process fetches and processes the tile at tileCoord. A tile that cannot be
// processed but has a source image is returned at StagePassthrough without an
// error.
func (s *Server) process(r *http.Request, tileCoord terrainrgb.TileCoord, options terrainrgb.Options) (*terrainrgb.Result, int, error) {
	src, err := s.config.TileSource.Tile(r.Context(), tileCoord)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, http.StatusNotFound, err
	case err != nil:
		return nil, http.StatusBadGateway, err
	}
	result, err := terrainrgb.Process(s.config.TilingScheme.TileRect(tileCoord), src, options)
	if err != nil {
		s.logger.Warn("tile passed through", "tile", tileCoord.String(), "err", err)
		if result.Image == nil {
			return nil, http.StatusBadGateway, err
		}
	}
	return result, http.StatusOK, nil
}

// ramp returns the ramp for mode and a key identifying it.
func (s *Server) ramp(r *http.Request, mode terrainrgb.Mode) (*terrainrgb.ColorRamp, string, error) {
	rampConfig, ok := s.config.Ramps[mode]
	query := r.URL.Query()
	for _, param := range []struct {
		name  string
		value *float64
	}{
		{name: "min", value: &rampConfig.Min},
		{name: "max", value: &rampConfig.Max},
	} {
		if text := query.Get(param.name); text != "" {
			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, "", fmt.Errorf("%s: %w", param.name, err)
			}
			*param.value = value
			ok = true
		}
	}
	if !ok {
		return nil, "none", nil
	}
	if rampConfig.Kind == "" {
		rampConfig.Kind = terrainrgb.RampKind(mode.String())
	}
	ramp, err := s.rampCache.Get(rampConfig)
	if err != nil {
		return nil, "", err
	}
	return ramp, fmt.Sprintf("%s:%g:%g", rampConfig.Kind, rampConfig.Min, rampConfig.Max), nil
}

func tileCoordParam(r *http.Request) (terrainrgb.TileCoord, error) {
	return terrainrgb.ParseTileCoord(chi.URLParam(r, "z") + "/" + chi.URLParam(r, "x") + "/" + chi.URLParam(r, "y"))
}

func (s *Server) writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write tile", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	message := http.StatusText(status)
	if err != nil {
		message = err.Error()
	}
	s.writeJSON(w, status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
