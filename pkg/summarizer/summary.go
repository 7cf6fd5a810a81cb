// Package summarizer provides summary generation for conversion results.
package summarizer

import "time"

// Summary contains all data collected during one tensor-to-video conversion.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Where the payload came from
	Source SourceInfo

	// Payload structure
	Payload PayloadInfo

	// Encoding settings
	Settings Settings

	// Video output details
	Video VideoInfo
}

// SourceInfo describes the payload origin.
type SourceInfo struct {
	Kind       string // url, file or placeholder
	Locator    string
	CameraName string
}

// PayloadInfo describes the resolved payload.
type PayloadInfo struct {
	Width          int
	Height         int
	Channels       int
	FrameCount     int
	FirstTimestamp string
	LastTimestamp  string
}

// Settings contains the encoding configuration.
type Settings struct {
	Quality     string
	Codec       string
	Preset      string
	PixelFormat string
	CRF         int
	FPS         float64
	Geometry    string
}

// VideoInfo contains information about the output video.
type VideoInfo struct {
	Codec       string
	Width       int
	Height      int
	FrameCount  int
	SampleCount int
	DurationMs  int
	FileSize    int64
	ElapsedMs   int64 // Wall time of the conversion
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets source information.
func (b *Builder) WithSource(kind, locator, cameraName string) *Builder {
	b.summary.Source = SourceInfo{
		Kind:       kind,
		Locator:    locator,
		CameraName: cameraName,
	}
	return b
}

// WithPayload sets payload information.
func (b *Builder) WithPayload(payload PayloadInfo) *Builder {
	b.summary.Payload = payload
	return b
}

// WithSettings sets encoding settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithVideo sets video output information.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
