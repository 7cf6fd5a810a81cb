package tensor

import (
	"fmt"
	"math"
)

// GeometryMode selects which geometry a frame's samples are read against.
type GeometryMode string

const (
	// GeometryPayload reads every frame with the payload-level geometry and ignores
	// per-frame width/height/channels.
	GeometryPayload GeometryMode = "payload"
	// GeometryFrame reads a frame with its own declared geometry; the result is
	// rescaled to the payload raster.
	GeometryFrame GeometryMode = "frame"
)

// ParseGeometryMode parses a mode name, defaulting to GeometryPayload.
func ParseGeometryMode(s string) (GeometryMode, error) {
	switch s {
	case "", string(GeometryPayload):
		return GeometryPayload, nil
	case string(GeometryFrame):
		return GeometryFrame, nil
	default:
		return "", fmt.Errorf("tensor: unknown geometry mode %q", s)
	}
}

// MinChannels is the smallest channel count a frame can be read with (R, G, B).
const MinChannels = 3

// ValidateOptions bounds what Validate accepts. Zero limits are not enforced.
type ValidateOptions struct {
	Mode      GeometryMode
	MaxFrames int
	MaxPixels int
}

// Validate checks the payload structure and returns a *MalformedPayloadError
// describing the first problem found.
//
// Tensor data shorter than its raster is accepted; the missing samples read as zero.
func (p *Payload) Validate(opts ValidateOptions) error {
	base := p.Geometry()
	if err := checkGeometry("", base, opts.MaxPixels); err != nil {
		return err
	}
	if opts.MaxFrames > 0 && len(p.Frames) > opts.MaxFrames {
		return malformed("frames", "%d frames exceeds limit of %d", len(p.Frames), opts.MaxFrames)
	}

	seen := make(map[uint32]struct{}, len(p.Frames))
	for i := range p.Frames {
		f := &p.Frames[i]
		field := fmt.Sprintf("frames[%d]", i)

		if _, dup := seen[f.FrameIndex]; dup {
			return malformed(field+".frame_index", "duplicate frame index %d", f.FrameIndex)
		}
		seen[f.FrameIndex] = struct{}{}

		g := base
		if opts.Mode == GeometryFrame && f.DeclaresGeometry() {
			if f.Width == 0 || f.Height == 0 || f.Channels == 0 {
				return malformed(field, "partial geometry %dx%dx%d", f.Width, f.Height, f.Channels)
			}
			g = f.Geometry(base)
			if err := checkGeometry(field+".", g, opts.MaxPixels); err != nil {
				return err
			}
		}

		if len(f.TensorData) > g.Samples() {
			return malformed(field+".tensor_data", "%d samples exceeds %dx%dx%d raster",
				len(f.TensorData), g.Width, g.Height, g.Channels)
		}
	}
	return nil
}

func checkGeometry(prefix string, g Geometry, maxPixels int) error {
	if g.Width <= 0 {
		return malformed(prefix+"width", "must be positive")
	}
	if g.Height <= 0 {
		return malformed(prefix+"height", "must be positive")
	}
	if g.Channels < MinChannels {
		return malformed(prefix+"channels", "need at least %d channels, got %d", MinChannels, g.Channels)
	}

	// Rasters hold 4 bytes per pixel once rescaled; the pixel count must stay
	// addressable even when no limit is configured.
	limit := math.MaxInt / 4
	if maxPixels > 0 && maxPixels < limit {
		limit = maxPixels
	}
	pixels, ok := mulWithin(g.Width, g.Height, limit)
	if !ok {
		return malformed(prefix+"width", "%dx%d exceeds %d pixels", g.Width, g.Height, limit)
	}
	if _, ok := mulWithin(pixels, g.Channels, math.MaxInt); !ok {
		return malformed(prefix+"channels", "%dx%dx%d samples overflow", g.Width, g.Height, g.Channels)
	}
	return nil
}

// mulWithin returns a*b for non-negative a and b, and false when the product
// exceeds limit.
func mulWithin(a, b, limit int) (int, bool) {
	if a != 0 && b > limit/a {
		return 0, false
	}
	return a * b, true
}
