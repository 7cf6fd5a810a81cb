package main

import (
	"github.com/user/episodeviz/pkg/config"
	"github.com/user/episodeviz/pkg/orchestrator"
	"github.com/user/episodeviz/pkg/summarizer"
)

// buildSummary collects the run result and effective settings.
func buildSummary(cfg config.Config, orchConfig orchestrator.Config, result orchestrator.RunResult) *summarizer.Summary {
	p := result.Payload
	return summarizer.NewBuilder().
		WithSource(string(result.Source), result.TensorURL, p.CameraName).
		WithPayload(summarizer.PayloadInfo{
			Width:          int(p.Width),
			Height:         int(p.Height),
			Channels:       int(p.Channels),
			FrameCount:     p.FrameCount,
			FirstTimestamp: p.FirstTime,
			LastTimestamp:  p.LastTime,
		}).
		WithSettings(summarizer.Settings{
			Quality:     string(cfg.Encode.Quality),
			Codec:       orchConfig.Encoder.Codec,
			Preset:      orchConfig.Encoder.Preset,
			PixelFormat: orchConfig.Encoder.PixelFormat,
			CRF:         orchConfig.Encoder.CRF,
			FPS:         orchConfig.FPS,
			Geometry:    string(orchConfig.Geometry),
		}).
		WithVideo(summarizer.VideoInfo{
			Codec:       result.Video.Codec,
			Width:       result.Video.Width,
			Height:      result.Video.Height,
			FrameCount:  result.FrameCount,
			SampleCount: result.Video.SampleCount,
			DurationMs:  result.VideoDuration,
			FileSize:    result.VideoFileSize,
			ElapsedMs:   result.Elapsed.Milliseconds(),
		}).
		Build()
}
