// Package orchestrator coordinates the resolve and encode stages.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/episodeviz/pkg/pipeline"
	"github.com/user/episodeviz/pkg/ports"
	"github.com/user/episodeviz/pkg/tensor"
)

// Config contains the per-run encoding configuration.
type Config struct {
	// Output file written after a successful encode. Empty keeps the video in memory only.
	OutputPath string

	// Encoding
	FPS      float64
	Geometry tensor.GeometryMode
	Encoder  ports.EncoderOptions
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	input := pipeline.DefaultEncodeInput()
	return Config{
		FPS:      input.FPS,
		Geometry: input.Geometry,
		Encoder:  input.Options,
	}
}

// Request names the payload to convert.
type Request struct {
	TensorURL  string
	CameraName string
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	resolveStage pipeline.Stage[pipeline.ResolveInput, pipeline.ResolveResult]
	encodeStage  pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
	fs           ports.FileSystem
	sink         ports.DebugSink
	logger       ports.Logger
}

// New creates a new Orchestrator.
func New(
	resolveStage pipeline.Stage[pipeline.ResolveInput, pipeline.ResolveResult],
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		resolveStage: resolveStage,
		encodeStage:  encodeStage,
		fs:           fs,
		sink:         sink,
		logger:       logger,
	}
}

// Run resolves the requested payload and encodes it into a video.
// There are no retries and no partial results.
func (o *Orchestrator) Run(ctx context.Context, config Config, req Request) (RunResult, error) {
	started := time.Now()

	label := req.CameraName
	if label == "" {
		label = tensor.DefaultCameraName
	}
	target := req.TensorURL
	if target == "" {
		target = "placeholder"
	}
	o.logger.Info("Converting %s for %s", target, label)

	// 1. Resolve payload
	resolved, err := o.resolveStage.Execute(ctx, pipeline.ResolveInput{
		TensorURL:  req.TensorURL,
		CameraName: req.CameraName,
	})
	if err != nil {
		o.logger.Error("Conversion failed: %v", err)
		return RunResult{}, fmt.Errorf("resolve stage: %w", err)
	}
	summary := resolved.Payload.Summarize()
	o.logger.Info("Payload resolved: %d frames, %dx%dx%d",
		summary.FrameCount, summary.Width, summary.Height, summary.Channels)

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(summary, "", "  "); err == nil {
			if err := o.sink.SavePayloadJSON(data); err != nil {
				o.logger.Warn("Failed to save debug output: %v", err)
			}
		}
	}

	// 2. Encode video
	encoded, err := o.encodeStage.Execute(ctx, o.buildEncodeInput(config, resolved.Payload))
	if err != nil {
		o.logger.Error("Conversion failed: %v", err)
		return RunResult{}, fmt.Errorf("encode stage: %w", err)
	}

	// 3. Write output file
	if config.OutputPath != "" {
		if err := o.fs.WriteFile(config.OutputPath, encoded.VideoData); err != nil {
			o.logger.Error("Conversion failed: %v", err)
			return RunResult{}, fmt.Errorf("write output: %w", err)
		}
		o.logger.Info("Output saved to %s", config.OutputPath)
	}

	elapsed := time.Since(started)
	o.logger.Info("Conversion completed in %d ms", elapsed.Milliseconds())

	return RunResult{
		Source:        resolved.Source,
		TensorURL:     req.TensorURL,
		Payload:       summary,
		VideoData:     encoded.VideoData,
		FrameCount:    encoded.FrameCount,
		VideoDuration: encoded.DurationMs,
		VideoFileSize: encoded.FileSize,
		Video:         encoded.Info,
		Elapsed:       elapsed,
	}, nil
}

func (o *Orchestrator) buildEncodeInput(config Config, payload *tensor.Payload) pipeline.EncodeInput {
	input := pipeline.DefaultEncodeInput()
	input.Payload = payload
	if config.FPS > 0 {
		input.FPS = config.FPS
	}
	if config.Geometry != "" {
		input.Geometry = config.Geometry
	}
	opts := config.Encoder
	if opts.Codec != "" {
		input.Options.Codec = opts.Codec
	}
	if opts.Preset != "" {
		input.Options.Preset = opts.Preset
	}
	// Options naming a codec are complete, so their CRF is used even when it
	// is 0 (lossless).
	if opts.CRF > 0 || opts.Codec != "" {
		input.Options.CRF = opts.CRF
	}
	if opts.PixelFormat != "" {
		input.Options.PixelFormat = opts.PixelFormat
	}
	return input
}

// RunResult contains the results of a pipeline run.
type RunResult struct {
	// Source information
	Source    pipeline.SourceKind
	TensorURL string
	Payload   tensor.Summary

	// Video information
	VideoData     []byte
	FrameCount    int
	VideoDuration int // in ms
	VideoFileSize int64
	Video         ports.VideoInfo

	Elapsed time.Duration
}
