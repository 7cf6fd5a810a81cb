package resolve

import (
	"math"
	"strings"
	"time"

	"github.com/user/episodeviz/pkg/tensor"
)

// Placeholder geometry.
const (
	PlaceholderFrames   = 60
	PlaceholderWidth    = 320
	PlaceholderHeight   = 240
	PlaceholderChannels = 3
	PlaceholderInterval = time.Second / 30
)

// placeholderEpoch is the timestamp of the first placeholder frame.
var placeholderEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// wave holds the parameters of one placeholder look.
type wave struct {
	freq  float64 // radians per pixel column
	speed float64 // radians per second
	base  [3]float64
	amp   [3]float64
}

var (
	frontWave = wave{
		freq:  2 * math.Pi / 80,
		speed: 2 * math.Pi,
		base:  [3]float64{128, 96, 64},
		amp:   [3]float64{127, 96, 64},
	}
	otherWave = wave{
		freq:  2 * math.Pi / 40,
		speed: math.Pi,
		base:  [3]float64{64, 128, 160},
		amp:   [3]float64{64, 100, 95},
	}
)

// Synthesize returns a deterministic payload for label. Labels containing
// "front" (any case) get a different look from all others.
func Synthesize(label string) *tensor.Payload {
	w := otherWave
	if strings.Contains(strings.ToLower(label), "front") {
		w = frontWave
	}

	p := &tensor.Payload{
		CameraName: label,
		Width:      PlaceholderWidth,
		Height:     PlaceholderHeight,
		Channels:   PlaceholderChannels,
		Frames:     make([]tensor.Frame, PlaceholderFrames),
	}

	// Rows are identical, so build one row per frame and repeat it.
	row := make([]float64, PlaceholderWidth*PlaceholderChannels)
	for i := range p.Frames {
		t := float64(i) * PlaceholderInterval.Seconds()
		for x := 0; x < PlaceholderWidth; x++ {
			phase := w.freq*float64(x) + w.speed*t
			row[x*3] = w.base[0] + w.amp[0]*math.Sin(phase)
			row[x*3+1] = w.base[1] + w.amp[1]*math.Cos(phase)
			row[x*3+2] = w.base[2] + w.amp[2]*math.Sin(phase+math.Pi/3)
		}

		data := make([]float64, 0, PlaceholderWidth*PlaceholderHeight*PlaceholderChannels)
		for y := 0; y < PlaceholderHeight; y++ {
			data = append(data, row...)
		}

		p.Frames[i] = tensor.Frame{
			FrameIndex: uint32(i),
			Timestamp:  placeholderEpoch.Add(time.Duration(i) * PlaceholderInterval).Format(time.RFC3339Nano),
			TensorData: data,
			Width:      PlaceholderWidth,
			Height:     PlaceholderHeight,
			Channels:   PlaceholderChannels,
		}
	}
	return p
}
