package raster

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// MaxValue is the maximum sample value written in PPM headers.
const MaxValue = 255

// EncodePPM writes img as a binary PPM (P6) image.
func EncodePPM(w io.Writer, img *RGB) error {
	bw := bufio.NewWriter(w)
	width, height := img.Rect.Dx(), img.Rect.Dy()
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n%d\n", width, height, MaxValue); err != nil {
		return err
	}
	for y := 0; y < height; y++ {
		start := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		if _, err := bw.Write(img.Pix[start : start+width*3]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// PPMBytes returns the P6 encoding of img.
func PPMBytes(img *RGB) []byte {
	var buf bytes.Buffer
	buf.Grow(32 + len(img.Pix))
	// Writes to a bytes.Buffer do not fail.
	_ = EncodePPM(&buf, img)
	return buf.Bytes()
}

// FrameNamer produces zero-padded staging filenames whose lexical order matches
// frame order.
type FrameNamer struct {
	Prefix string
	Ext    string
	Width  int
}

// MinIndexWidth is the smallest zero-padding used for frame filenames.
const MinIndexWidth = 6

// NewFrameNamer returns a namer wide enough for count frames.
func NewFrameNamer(count int) FrameNamer {
	width := MinIndexWidth
	if count > 0 {
		if d := len(strconv.Itoa(count - 1)); d > width {
			width = d
		}
	}
	return FrameNamer{Prefix: "frame_", Ext: ".ppm", Width: width}
}

// Name returns the filename for frame i.
func (n FrameNamer) Name(i int) string {
	return fmt.Sprintf("%s%0*d%s", n.Prefix, n.Width, i, n.Ext)
}

// Pattern returns the printf-style pattern ffmpeg's image2 demuxer expects.
func (n FrameNamer) Pattern() string {
	return fmt.Sprintf("%s%%0%dd%s", n.Prefix, n.Width, n.Ext)
}
