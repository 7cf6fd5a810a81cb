package pipeline

import (
	"github.com/user/episodeviz/pkg/ports"
	"github.com/user/episodeviz/pkg/tensor"
)

// =============================================================================
// Resolve Stage Types
// =============================================================================

// SourceKind identifies where a payload came from.
type SourceKind string

const (
	SourceURL         SourceKind = "url"
	SourceFile        SourceKind = "file"
	SourcePlaceholder SourceKind = "placeholder"
)

// ResolveInput names the payload to obtain.
type ResolveInput struct {
	TensorURL  string // http(s) URL, file:// URL or local path; empty for a placeholder
	CameraName string // Label used for the placeholder (default: "Front Camera")
}

// ResolveResult contains the resolved payload.
type ResolveResult struct {
	Payload *tensor.Payload
	Source  SourceKind
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeInput contains parameters for video encoding.
type EncodeInput struct {
	Payload  *tensor.Payload
	FPS      float64             // Output frame rate (default: 30)
	Geometry tensor.GeometryMode // Which geometry frames are read against
	Options  ports.EncoderOptions
}

// DefaultEncodeInput returns EncodeInput with default values.
func DefaultEncodeInput() EncodeInput {
	return EncodeInput{
		FPS:      30.0,
		Geometry: tensor.GeometryPayload,
		Options: ports.EncoderOptions{
			Codec:       "libx264",
			Preset:      "fast",
			CRF:         23,
			PixelFormat: "yuv420p",
		},
	}
}

// EncodeResult contains the encoded video.
type EncodeResult struct {
	VideoData  []byte
	FrameCount int
	DurationMs int
	FileSize   int64
	Info       ports.VideoInfo // Zero when the container could not be probed
}
