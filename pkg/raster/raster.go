// Package raster converts flattened tensor samples into 8-bit RGB images.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/user/episodeviz/pkg/tensor"
)

// RGB is an in-memory image of packed 8-bit R, G, B triples, row-major.
type RGB struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewRGB returns a black RGB image of the given size.
func NewRGB(width, height int) *RGB {
	return &RGB{
		Pix:    make([]uint8, width*height*3),
		Stride: width * 3,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// ColorModel implements image.Image.
func (p *RGB) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (p *RGB) Bounds() image.Rectangle { return p.Rect }

// At implements image.Image.
func (p *RGB) At(x, y int) color.Color {
	return p.RGBAAt(x, y)
}

// RGBAAt returns the opaque color at (x, y).
func (p *RGB) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: 0xff}
}

// PixOffset returns the index of the first byte of pixel (x, y).
func (p *RGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

// Pack converts a sample to a byte: non-finite values become 0, the rest are
// clamped to [0, 255] and truncated toward zero.
func Pack(v float64) uint8 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// sample reads data[i], treating out-of-range indices as zero.
func sample(data []float64, i int) float64 {
	if i < 0 || i >= len(data) {
		return 0
	}
	return data[i]
}

// Rasterize builds an image of geometry g from data. Each pixel reads three
// consecutive values starting at g.Channels*pixelIndex; missing values are black.
func Rasterize(data []float64, g tensor.Geometry) *RGB {
	img := NewRGB(g.Width, g.Height)
	pixels := g.Width * g.Height
	for px := 0; px < pixels; px++ {
		src := px * g.Channels
		dst := px * 3
		img.Pix[dst] = Pack(sample(data, src))
		img.Pix[dst+1] = Pack(sample(data, src+1))
		img.Pix[dst+2] = Pack(sample(data, src+2))
	}
	return img
}

// FromImage converts any image to RGB, dropping alpha.
func FromImage(src image.Image) *RGB {
	b := src.Bounds()
	img := NewRGB(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := img.PixOffset(x, y)
			img.Pix[i] = uint8(r >> 8)
			img.Pix[i+1] = uint8(g >> 8)
			img.Pix[i+2] = uint8(bl >> 8)
		}
	}
	return img
}

var _ image.Image = (*RGB)(nil)
