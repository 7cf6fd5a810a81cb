package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts image processing operations.
type Renderer interface {
	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage resizes an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int) image.Image

	// Caption returns a copy of img with text drawn on a band along the bottom edge.
	Caption(img image.Image, text string, style TextStyle) image.Image
}

// TextStyle defines text rendering properties.
type TextStyle struct {
	FontSize   float64
	FontPath   string
	Color      color.Color
	Background color.Color
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)
