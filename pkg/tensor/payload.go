// Package tensor defines the video tensor payload exchanged with the episode recorder.
package tensor

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// DefaultCameraName is used when a request does not name a camera.
const DefaultCameraName = "Front Camera"

// Payload is a sequence of flattened pixel tensors for one camera.
type Payload struct {
	CameraName string  `json:"camera_name"`
	Width      uint32  `json:"width"`
	Height     uint32  `json:"height"`
	Channels   uint32  `json:"channels"`
	Frames     []Frame `json:"frames"`
}

// Frame holds one frame's samples, row-major and channel-interleaved.
// Width, Height and Channels are optional; zero means "same as the payload".
type Frame struct {
	FrameIndex uint32    `json:"frame_index"`
	Timestamp  string    `json:"timestamp"`
	TensorData []float64 `json:"tensor_data"`
	Width      uint32    `json:"width"`
	Height     uint32    `json:"height"`
	Channels   uint32    `json:"channels"`
}

// Geometry describes a raster.
type Geometry struct {
	Width    int
	Height   int
	Channels int
}

// Samples returns the number of values a full tensor for g holds.
func (g Geometry) Samples() int {
	return g.Width * g.Height * g.Channels
}

// Geometry returns the payload-level output raster.
func (p *Payload) Geometry() Geometry {
	return Geometry{Width: int(p.Width), Height: int(p.Height), Channels: int(p.Channels)}
}

// DeclaresGeometry reports whether the frame carries any geometry of its own.
func (f *Frame) DeclaresGeometry() bool {
	return f.Width != 0 || f.Height != 0 || f.Channels != 0
}

// Geometry returns the frame's own geometry, falling back to base for unset fields.
func (f *Frame) Geometry(base Geometry) Geometry {
	g := base
	if f.Width != 0 {
		g.Width = int(f.Width)
	}
	if f.Height != 0 {
		g.Height = int(f.Height)
	}
	if f.Channels != 0 {
		g.Channels = int(f.Channels)
	}
	return g
}

// Ordered returns the frames sorted by frame index. The payload is not modified.
func (p *Payload) Ordered() []Frame {
	frames := make([]Frame, len(p.Frames))
	copy(frames, p.Frames)
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].FrameIndex < frames[j].FrameIndex
	})
	return frames
}

// Decode parses a JSON payload. It performs no structural validation.
func Decode(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, &MalformedPayloadError{Field: "body", Reason: fmt.Sprintf("decode json: %v", err)}
	}
	return &p, nil
}

// Summary is a compact description of a payload, suitable for logs and debug output.
type Summary struct {
	CameraName string `json:"camera_name"`
	Width      uint32 `json:"width"`
	Height     uint32 `json:"height"`
	Channels   uint32 `json:"channels"`
	FrameCount int    `json:"frame_count"`
	FirstTime  string `json:"first_timestamp,omitempty"`
	LastTime   string `json:"last_timestamp,omitempty"`
}

// Summarize builds a Summary for p.
func (p *Payload) Summarize() Summary {
	s := Summary{
		CameraName: p.CameraName,
		Width:      p.Width,
		Height:     p.Height,
		Channels:   p.Channels,
		FrameCount: len(p.Frames),
	}
	if ordered := p.Ordered(); len(ordered) > 0 {
		s.FirstTime = ordered[0].Timestamp
		s.LastTime = ordered[len(ordered)-1].Timestamp
	}
	return s
}
