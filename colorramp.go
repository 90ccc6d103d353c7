package terrainrgb

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	lru "github.com/hashicorp/golang-lru/v2"
)

// MaxRampSize is the maximum number of colors in a ColorRamp.
const MaxRampSize = 1 << 16

var (
	black  = hexColor("#000000")
	blue   = hexColor("#2747E0")
	pink   = hexColor("#D33B7D")
	red    = hexColor("#D33038")
	orange = hexColor("#FF9742")
	yellow = hexColor("#FFD700")
	white  = hexColor("#FFFFFF")
)

// A ColorStop is a color at an offset in [0, 1] along a ColorRamp.
type ColorStop struct {
	Offset float64
	Color  color.NRGBA
}

// SlopeStops returns the color stops for slope ramps, which are weighted
// towards the middle of the range.
func SlopeStops() []ColorStop {
	return canonicalStops(0, 0.29, 0.5, math.Sqrt2/2, 0.87, 0.91, 1)
}

// ElevationStops returns the color stops for elevation ramps, which are
// evenly spaced except for the last two.
func ElevationStops() []ColorStop {
	return canonicalStops(0, 0.2, 0.4, 0.6, 0.8, 0.9, 1)
}

func canonicalStops(offsets ...float64) []ColorStop {
	colors := []color.NRGBA{black, blue, pink, red, orange, yellow, white}
	stops := make([]ColorStop, len(colors))
	for i, c := range colors {
		stops[i] = ColorStop{Offset: offsets[i], Color: c}
	}
	return stops
}

// A ColorRamp maps scalar values in [Min, Max] to colors, one color per unit
// of the domain. A ColorRamp is immutable and safe for concurrent use.
type ColorRamp struct {
	min    float64
	max    float64
	colors []color.NRGBA
}

// NewColorRamp returns a new ColorRamp with one color per unit between
// domainMin and domainMax, sampled from a linear gradient through stops.
func NewColorRamp(stops []ColorStop, domainMin, domainMax float64) (*ColorRamp, error) {
	switch {
	case len(stops) == 0:
		return nil, fmt.Errorf("no color stops: %w", ErrRampMisconfigured)
	case !isFinite(domainMin) || !isFinite(domainMax):
		return nil, fmt.Errorf("non-finite domain [%v, %v]: %w", domainMin, domainMax, ErrRampMisconfigured)
	case domainMax < domainMin:
		return nil, fmt.Errorf("domain [%v, %v] is reversed: %w", domainMin, domainMax, ErrRampMisconfigured)
	}
	size := max(1, int(math.Ceil(domainMax-domainMin)))
	if size > MaxRampSize {
		return nil, fmt.Errorf("domain [%v, %v] needs %d colors, more than %d: %w", domainMin, domainMax, size, MaxRampSize, ErrRampMisconfigured)
	}

	gradient := gg.NewLinearGradientBrush(0, 0, float64(size), 0)
	for _, stop := range stops {
		gradient.AddColorStop(stop.Offset, gg.FromColor(stop.Color))
	}
	colors := make([]color.NRGBA, size)
	for i := range colors {
		colors[i] = nrgba(gradient.ColorAt(float64(i)+0.5, 0))
	}

	return &ColorRamp{
		min:    domainMin,
		max:    domainMax,
		colors: colors,
	}, nil
}

// Min returns the lower bound of r's domain.
func (r *ColorRamp) Min() float64 { return r.min }

// Max returns the upper bound of r's domain.
func (r *ColorRamp) Max() float64 { return r.max }

// Len returns the number of colors in r.
func (r *ColorRamp) Len() int { return len(r.colors) }

// Index returns the index of the color for value, clamped to [0, r.Len()-1].
// NaN maps to 0.
func (r *ColorRamp) Index(value float64) int {
	index := math.Floor(value - r.min)
	switch {
	case math.IsNaN(index) || index < 0:
		return 0
	case index > float64(len(r.colors)-1):
		return len(r.colors) - 1
	default:
		return int(index)
	}
}

// Lookup returns the color for value. The returned color is opaque.
func (r *ColorRamp) Lookup(value float64) color.NRGBA {
	return r.colors[r.Index(value)]
}

// A RampKind selects the color stops of a ramp.
type RampKind string

const (
	RampKindSlope     RampKind = "slope"
	RampKindElevation RampKind = "elevation"
)

// ParseRampKind parses s as a RampKind.
func ParseRampKind(s string) (RampKind, error) {
	switch kind := RampKind(strings.ToLower(s)); kind {
	case RampKindSlope, RampKindElevation:
		return kind, nil
	default:
		return "", fmt.Errorf("%s: unknown ramp kind: %w", s, ErrRampMisconfigured)
	}
}

// Stops returns the color stops for k.
func (k RampKind) Stops() []ColorStop {
	if k == RampKindSlope {
		return SlopeStops()
	}
	return ElevationStops()
}

// A RampConfig describes a ColorRamp.
type RampConfig struct {
	Kind RampKind `mapstructure:"kind"`
	Min  float64  `mapstructure:"min"`
	Max  float64  `mapstructure:"max"`
}

// A RampCache builds ColorRamps once per RampConfig.
type RampCache struct {
	mutex sync.Mutex
	cache *lru.Cache[RampConfig, *ColorRamp]
}

// NewRampCache returns a new RampCache holding at most size ramps.
func NewRampCache(size int) (*RampCache, error) {
	cache, err := lru.New[RampConfig, *ColorRamp](size)
	if err != nil {
		return nil, err
	}
	return &RampCache{
		cache: cache,
	}, nil
}

// Get returns the ColorRamp for config, building it if needed.
func (c *RampCache) Get(config RampConfig) (*ColorRamp, error) {
	if ramp, ok := c.cache.Get(config); ok {
		rampCacheHits.Inc()
		return ramp, nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if ramp, ok := c.cache.Get(config); ok {
		rampCacheHits.Inc()
		return ramp, nil
	}

	rampCacheMisses.Inc()

	kind, err := ParseRampKind(string(config.Kind))
	if err != nil {
		return nil, err
	}
	ramp, err := NewColorRamp(kind.Stops(), config.Min, config.Max)
	if err != nil {
		return nil, err
	}
	c.cache.Add(config, ramp)
	return ramp, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func hexColor(hex string) color.NRGBA {
	return nrgba(gg.Hex(hex))
}

func nrgba(c gg.RGBA) color.NRGBA {
	return color.NRGBA{
		R: unitToUint8(c.R),
		G: unitToUint8(c.G),
		B: unitToUint8(c.B),
		A: unitToUint8(c.A),
	}
}

func unitToUint8(x float64) uint8 {
	return uint8(math.Round(255 * min(max(x, 0), 1)))
}
