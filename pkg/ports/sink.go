package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving intermediate processing results for debugging purposes.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SavePayloadJSON saves the resolved payload summary as JSON.
	SavePayloadJSON(data []byte) error

	// SaveFrame saves a rasterized frame before it is staged for encoding.
	SaveFrame(index int, img image.Image) error

	// SaveVideoJSON saves the probe result of the encoded video as JSON.
	SaveVideoJSON(data []byte) error
}
