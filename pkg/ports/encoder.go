package ports

import (
	"context"
)

// SequenceEncoder turns a staged image sequence into a video file.
type SequenceEncoder interface {
	// EncodeSequence encodes seq into a single container at outputPath.
	// It blocks until the encoder exits; cancelling ctx stops the encoder.
	EncodeSequence(ctx context.Context, seq ImageSequence, outputPath string, opts EncoderOptions) error
}

// DiagnosticError is implemented by encoder errors that carry the external
// process's diagnostic output.
type DiagnosticError interface {
	error
	Diagnostics() string
}

// ImageSequence describes numbered images on disk.
type ImageSequence struct {
	Dir         string  // Staging directory
	Pattern     string  // printf-style filename pattern inside Dir, e.g. frame_%06d.ppm
	Count       int     // Number of images written
	StartNumber int     // Index of the first image
	FPS         float64 // Input frame rate
}

// EncoderOptions configures video encoding parameters.
type EncoderOptions struct {
	Codec       string // Video codec, e.g. libx264
	Preset      string // Encoder speed preset
	CRF         int    // Constant rate factor (lower is higher quality)
	PixelFormat string // Output pixel format, e.g. yuv420p
}
