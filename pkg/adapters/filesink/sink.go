// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/episodeviz/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SavePayloadJSON saves the resolved payload summary as JSON.
func (s *Sink) SavePayloadJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "payload.json")
	return s.fs.WriteFile(path, data)
}

// SaveVideoJSON saves the probe result of the encoded video as JSON.
func (s *Sink) SaveVideoJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "video.json")
	return s.fs.WriteFile(path, data)
}

// SaveFrame saves a rasterized frame as a captioned PNG.
func (s *Sink) SaveFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	captioned := s.renderer.Caption(img, fmt.Sprintf("#%d", index), ports.TextStyle{})
	data, err := s.renderer.EncodeImage(captioned, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%06d.png", index))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
