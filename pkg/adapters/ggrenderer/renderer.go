// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/episodeviz/pkg/ports"
)

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage resizes an image to the specified dimensions.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		draw.Copy(dst, image.Point{}, img, img.Bounds(), draw.Src, nil)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Caption draws text on a translucent band along the bottom of a copy of img.
func (r *Renderer) Caption(img image.Image, text string, style ports.TextStyle) image.Image {
	dc := gg.NewContextForImage(img)

	if style.FontPath != "" && style.FontSize > 0 {
		// Falls back to gg's built-in face on failure.
		_ = dc.LoadFontFace(style.FontPath, style.FontSize)
	}

	_, textHeight := dc.MeasureString(text)
	band := textHeight + 6
	w, h := float64(dc.Width()), float64(dc.Height())

	bg := style.Background
	if bg == nil {
		bg = color.RGBA{A: 160}
	}
	dc.SetColor(bg)
	dc.DrawRectangle(0, h-band, w, band)
	dc.Fill()

	fg := style.Color
	if fg == nil {
		fg = color.White
	}
	dc.SetColor(fg)
	dc.DrawStringAnchored(text, 4, h-band/2, 0, 0.5)

	return dc.Image()
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)
