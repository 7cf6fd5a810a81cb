// Package mp4probe reads stream information from encoded MP4 files.
package mp4probe

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/episodeviz/pkg/ports"
)

// Codec names reported by the probe.
const (
	CodecH264    = "h264"
	CodecHEVC    = "hevc"
	CodecAV1     = "av1"
	CodecVP9     = "vp9"
	CodecUnknown = "unknown"
)

// Probe implements ports.VideoProbe using mp4ff.
type Probe struct{}

// New creates a new Probe.
func New() *Probe {
	return &Probe{}
}

// Probe parses data as an MP4 file and describes its first video track.
func (p *Probe) Probe(data []byte) (ports.VideoInfo, error) {
	return FromReader(bytes.NewReader(data))
}

// FromReader parses an MP4 from reader.
func FromReader(reader io.ReadSeeker) (ports.VideoInfo, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	if mp4File.IsFragmented() {
		if mp4File.Init != nil && mp4File.Init.Moov != nil {
			for _, trak := range mp4File.Init.Moov.Traks {
				if info, ok := describeTrack(trak); ok {
					info.SampleCount, info.DurationMs = fragmentStats(mp4File, trak)
					return info, nil
				}
			}
		}
	}

	if mp4File.Moov != nil {
		for _, trak := range mp4File.Moov.Traks {
			if info, ok := describeTrack(trak); ok {
				return info, nil
			}
		}
	}

	return ports.VideoInfo{}, fmt.Errorf("no video track found")
}

func describeTrack(trak *mp4.TrakBox) (ports.VideoInfo, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return ports.VideoInfo{}, false
	}

	info := ports.VideoInfo{Codec: CodecUnknown}

	if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil {
		stbl := trak.Mdia.Minf.Stbl
		if stbl.Stsd != nil {
			for _, child := range stbl.Stsd.Children {
				vse, ok := child.(*mp4.VisualSampleEntryBox)
				if !ok {
					continue
				}
				info.Codec = codecName(vse.Type())
				info.Width = int(vse.Width)
				info.Height = int(vse.Height)
				break
			}
		}
		if stbl.Stsz != nil {
			info.SampleCount = int(stbl.Stsz.SampleNumber)
		}
	}

	if mdhd := trak.Mdia.Mdhd; mdhd != nil && mdhd.Timescale > 0 {
		info.DurationMs = int(mdhd.Duration * 1000 / uint64(mdhd.Timescale))
	}

	return info, true
}

// fragmentStats sums sample counts and durations over all fragments of trak.
func fragmentStats(f *mp4.File, trak *mp4.TrakBox) (samples, durationMs int) {
	timescale := uint64(1000)
	if trak.Mdia != nil && trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		timescale = uint64(trak.Mdia.Mdhd.Timescale)
	}

	var trex *mp4.TrexBox
	if f.Init.Moov.Mvex != nil && trak.Tkhd != nil {
		for _, t := range f.Init.Moov.Mvex.Trexs {
			if t.TrackID == trak.Tkhd.TrackID {
				trex = t
				break
			}
		}
	}

	var total uint64
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			full, err := frag.GetFullSamples(trex)
			if err != nil {
				continue
			}
			for _, s := range full {
				samples++
				total += uint64(s.Dur)
			}
		}
	}
	return samples, int(total * 1000 / timescale)
}

func codecName(sampleEntry string) string {
	switch sampleEntry {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "vp09":
		return CodecVP9
	default:
		return CodecUnknown
	}
}

// Ensure Probe implements ports.VideoProbe
var _ ports.VideoProbe = (*Probe)(nil)
