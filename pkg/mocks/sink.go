package mocks

import (
	"image"
	"sync"

	"github.com/user/episodeviz/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink that records what it receives.
type DebugSink struct {
	EnabledValue bool

	SavePayloadJSONFunc func(data []byte) error
	SaveFrameFunc       func(index int, img image.Image) error
	SaveVideoJSONFunc   func(data []byte) error

	mu          sync.Mutex
	PayloadJSON []byte
	VideoJSON   []byte
	Frames      map[int]image.Image
}

// NewDebugSink creates an enabled mock DebugSink.
func NewDebugSink() *DebugSink {
	return &DebugSink{EnabledValue: true, Frames: make(map[int]image.Image)}
}

func (m *DebugSink) Enabled() bool {
	return m.EnabledValue
}

func (m *DebugSink) SavePayloadJSON(data []byte) error {
	m.mu.Lock()
	m.PayloadJSON = data
	m.mu.Unlock()
	if m.SavePayloadJSONFunc != nil {
		return m.SavePayloadJSONFunc(data)
	}
	return nil
}

func (m *DebugSink) SaveFrame(index int, img image.Image) error {
	m.mu.Lock()
	if m.Frames == nil {
		m.Frames = make(map[int]image.Image)
	}
	m.Frames[index] = img
	m.mu.Unlock()
	if m.SaveFrameFunc != nil {
		return m.SaveFrameFunc(index, img)
	}
	return nil
}

func (m *DebugSink) SaveVideoJSON(data []byte) error {
	m.mu.Lock()
	m.VideoJSON = data
	m.mu.Unlock()
	if m.SaveVideoJSONFunc != nil {
		return m.SaveVideoJSONFunc(data)
	}
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
