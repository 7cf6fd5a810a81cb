package mocks

import (
	"image"

	"github.com/user/episodeviz/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	EncodeImageFunc func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc func(img image.Image, width, height int) image.Image
	CaptionFunc     func(img image.Image, text string, style ports.TextStyle) image.Image

	ResizeCalls int
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	m.ResizeCalls++
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func (m *Renderer) Caption(img image.Image, text string, style ports.TextStyle) image.Image {
	if m.CaptionFunc != nil {
		return m.CaptionFunc(img, text, style)
	}
	return img
}

var _ ports.Renderer = (*Renderer)(nil)
