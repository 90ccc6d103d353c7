package terrainrgb

import (
	"fmt"
	"image"
	"strings"
)

// SlopeAlpha is the alpha of colorized pixels in ModeSlope. Pixels that are
// transparent in the source stay transparent.
const SlopeAlpha = 128

// A Mode selects the scalar that a tile is colorized by.
type Mode int

const (
	ModeElevation Mode = iota
	ModeSlope
)

// ParseMode parses s as a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "elevation":
		return ModeElevation, nil
	case "slope":
		return ModeSlope, nil
	default:
		return 0, fmt.Errorf("%s: unknown mode", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeElevation:
		return "elevation"
	case ModeSlope:
		return "slope"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// A Stage is a step in processing a tile.
type Stage int

const (
	StageReceived Stage = iota
	StageDecoded
	StageMasked
	StageSloped
	StageColorized
	StageDone
	StagePassthrough
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageDecoded:
		return "decoded"
	case StageMasked:
		return "masked"
	case StageSloped:
		return "sloped"
	case StageColorized:
		return "colorized"
	case StageDone:
		return "done"
	case StagePassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Options configure the processing of a single tile. Cutout and Ramp may be
// shared between concurrent calls.
type Options struct {
	Mode      Mode
	Cutout    *Cutout    // Pixels outside Cutout are made transparent. Nil disables masking.
	Ramp      *ColorRamp // Nil skips colorization.
	Direction bool       // Compute the tile's representative Direction.
}

// A Result is the result of processing a tile.
type Result struct {
	Image      *image.NRGBA
	Stage      Stage   // StageDone or StagePassthrough.
	Stages     []Stage // Stages traversed, in order.
	Elevations *ElevationGrid
	Slopes     *SlopeGrid
	Direction  *Direction
	Masked     int // Number of pixels masked by the cutout.
	Err        error
}

// Process processes src, which covers rect. src is never modified.
//
// If src cannot be decoded or rect is invalid then Process returns a Result
// containing src itself at StagePassthrough, and an error wrapping
// ErrDecodeUnavailable or ErrInvalidGeometry.
func Process(rect Rect, src *image.NRGBA, options Options) (*Result, error) {
	result := &Result{
		Stages: []Stage{StageReceived},
	}

	if err := checkImage(src); err != nil {
		return passthrough(result, src, err)
	}
	if !rect.Valid() {
		return passthrough(result, src, fmt.Errorf("%+v: %w", rect, ErrInvalidGeometry))
	}

	grid, err := DecodeElevationGrid(src)
	if err != nil {
		return passthrough(result, src, err)
	}
	result.Elevations = grid
	result.advance(StageDecoded)

	dst := cloneNRGBA(src)
	result.Image = dst
	geoRect := NewGeoRect(rect, grid.Width, grid.Height)

	visible := make([]bool, grid.Width*grid.Height)
	for y := range grid.Height {
		for x := range grid.Width {
			// Pixels are tested at their centers.
			if options.Cutout.Contains(geoRect.PixelToLonLat(float64(x)+0.5, float64(y)+0.5)) {
				visible[y*grid.Width+x] = true
				continue
			}
			dst.Pix[dst.PixOffset(dst.Rect.Min.X+x, dst.Rect.Min.Y+y)+3] = 0
			result.Masked++
		}
	}
	maskedPixels.Add(float64(result.Masked))
	result.advance(StageMasked)

	if options.Ramp != nil {
		var value func(x, y int) float64
		var alpha func(a uint8) uint8
		switch options.Mode {
		case ModeSlope:
			dx, dy := geoRect.PixelSpacing()
			result.Slopes = ComputeSlope(grid, dx, dy)
			result.advance(StageSloped)
			value = result.Slopes.At
			alpha = func(a uint8) uint8 {
				// No-data pixels stay transparent.
				if a == 0 {
					return 0
				}
				return SlopeAlpha
			}
		default:
			value = func(x, y int) float64 {
				elevation, _ := grid.At(x, y)
				return elevation
			}
			alpha = func(a uint8) uint8 { return a }
		}
		for y := range grid.Height {
			for x := range grid.Width {
				if !visible[y*grid.Width+x] {
					continue
				}
				i := dst.PixOffset(dst.Rect.Min.X+x, dst.Rect.Min.Y+y)
				c := options.Ramp.Lookup(value(x, y))
				dst.Pix[i+0] = c.R
				dst.Pix[i+1] = c.G
				dst.Pix[i+2] = c.B
				dst.Pix[i+3] = alpha(dst.Pix[i+3])
			}
		}
		result.advance(StageColorized)
	}

	if options.Direction {
		direction, err := RepresentativeDirection(grid, geoRect)
		if err != nil {
			return passthrough(result, src, err)
		}
		result.Direction = &direction
	}

	result.advance(StageDone)
	tilesProcessed.WithLabelValues(StageDone.String()).Inc()
	Logger().Debug("processed tile",
		"mode", options.Mode,
		"stages", result.Stages,
		"masked", result.Masked,
	)
	return result, nil
}

func (r *Result) advance(stage Stage) {
	r.Stage = stage
	r.Stages = append(r.Stages, stage)
}

func passthrough(result *Result, src *image.NRGBA, err error) (*Result, error) {
	result.Image = src
	result.Err = err
	result.advance(StagePassthrough)
	tilesProcessed.WithLabelValues(StagePassthrough.String()).Inc()
	Logger().Warn("tile passed through", "err", err)
	return result, err
}

// cloneNRGBA returns a copy of img with its own pixel buffer.
func cloneNRGBA(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	clone := image.NewNRGBA(bounds)
	rowSize := 4 * bounds.Dx()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		i := img.PixOffset(bounds.Min.X, y)
		j := clone.PixOffset(bounds.Min.X, y)
		copy(clone.Pix[j:j+rowSize], img.Pix[i:i+rowSize])
	}
	return clone
}
