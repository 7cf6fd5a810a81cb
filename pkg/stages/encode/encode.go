// Package encode implements the video encoding stage.
package encode

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/user/episodeviz/pkg/pipeline"
	"github.com/user/episodeviz/pkg/ports"
	"github.com/user/episodeviz/pkg/raster"
	"github.com/user/episodeviz/pkg/tensor"
)

const (
	// stagingPattern names the per-invocation staging directory.
	stagingPattern = "tensorvideo-*"
	// outputName is the container file written inside the staging directory.
	outputName = "output.mp4"
)

// Encode stage operations reported in pipeline.EncodeError.
const (
	OpStage  = "stage"
	OpEncode = "encode"
	OpRead   = "read"
)

// Options configures the encode stage.
type Options struct {
	// StagingRoot is the parent of per-invocation staging directories.
	// Empty means the system temporary directory.
	StagingRoot string
}

// Stage stages payload frames as PPM images, runs the sequence encoder over
// them and returns the resulting container.
type Stage struct {
	fs       ports.FileSystem
	encoder  ports.SequenceEncoder
	probe    ports.VideoProbe
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
	opts     Options
}

// New creates a new encode stage.
func New(
	fs ports.FileSystem,
	encoder ports.SequenceEncoder,
	probe ports.VideoProbe,
	renderer ports.Renderer,
	sink ports.DebugSink,
	logger ports.Logger,
	opts Options,
) *Stage {
	return &Stage{
		fs:       fs,
		encoder:  encoder,
		probe:    probe,
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("encode"),
		opts:     opts,
	}
}

// Execute encodes every payload frame, in frame index order, into one video.
// The staging directory and everything written to it are removed before
// Execute returns.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{}

	if input.Payload == nil {
		return result, &pipeline.EncodeError{Op: OpStage, Err: errors.New("no payload")}
	}
	fps := input.FPS
	if fps <= 0 {
		fps = pipeline.DefaultEncodeInput().FPS
	}

	frames := input.Payload.Ordered()
	count := len(frames)
	namer := raster.NewFrameNamer(count)

	dir, err := s.fs.MkdirTemp(s.opts.StagingRoot, stagingPattern)
	if err != nil {
		return result, &pipeline.EncodeError{Op: OpStage, Err: err}
	}
	outputPath := filepath.Join(dir, outputName)
	defer s.cleanup(dir, namer, count, outputPath)

	s.logger.Debug("Staging %d frames in %s", count, dir)
	base := input.Payload.Geometry()
	for i := range frames {
		if err := ctx.Err(); err != nil {
			return result, &pipeline.EncodeError{Op: OpStage, Err: err}
		}

		img := s.rasterize(&frames[i], base, input.Geometry)
		if s.sink.Enabled() {
			if err := s.sink.SaveFrame(i, img); err != nil {
				s.logger.Warn("Failed to save debug output: %v", err)
			}
		}

		path := filepath.Join(dir, namer.Name(i))
		if err := s.fs.WriteFile(path, raster.PPMBytes(img)); err != nil {
			return result, &pipeline.EncodeError{Op: OpStage, Err: err}
		}
	}

	seq := ports.ImageSequence{
		Dir:         dir,
		Pattern:     namer.Pattern(),
		Count:       count,
		StartNumber: 0,
		FPS:         fps,
	}
	s.logger.Info("Encoding %d frames at %.1f fps (crf %d)", count, fps, input.Options.CRF)
	if err := s.encoder.EncodeSequence(ctx, seq, outputPath, input.Options); err != nil {
		encErr := &pipeline.EncodeError{Op: OpEncode, Err: err}
		var diag ports.DiagnosticError
		if errors.As(err, &diag) {
			encErr.Stderr = diag.Diagnostics()
		}
		return result, encErr
	}

	data, err := s.fs.ReadFile(outputPath)
	if err != nil {
		return result, &pipeline.EncodeError{Op: OpRead, Err: err}
	}

	result.VideoData = data
	result.FrameCount = count
	result.DurationMs = int(float64(count) * 1000 / fps)
	result.FileSize = int64(len(data))
	s.logger.Info("Video encoded: %d bytes", len(data))

	s.inspect(data, &result)
	return result, nil
}

// rasterize builds the output raster for f. In frame geometry mode a frame
// declaring its own size is read with it and rescaled to the payload raster.
func (s *Stage) rasterize(f *tensor.Frame, base tensor.Geometry, mode tensor.GeometryMode) *raster.RGB {
	if mode != tensor.GeometryFrame || !f.DeclaresGeometry() {
		return raster.Rasterize(f.TensorData, base)
	}

	g := f.Geometry(base)
	img := raster.Rasterize(f.TensorData, g)
	if g.Width == base.Width && g.Height == base.Height {
		return img
	}
	return raster.FromImage(s.renderer.ResizeImage(img, base.Width, base.Height))
}

// inspect probes the encoded container. Probe failures only produce a warning.
func (s *Stage) inspect(data []byte, result *pipeline.EncodeResult) {
	if s.probe == nil {
		return
	}
	info, err := s.probe.Probe(data)
	if err != nil {
		s.logger.Warn("Failed to probe encoded video: %v", err)
		return
	}
	result.Info = info
	s.logger.Debug("Video: %s %dx%d, %d samples, %d ms",
		info.Codec, info.Width, info.Height, info.SampleCount, info.DurationMs)

	if s.sink.Enabled() {
		data, err := json.MarshalIndent(info, "", "  ")
		if err == nil {
			err = s.sink.SaveVideoJSON(data)
		}
		if err != nil {
			s.logger.Warn("Failed to save debug output: %v", err)
		}
	}
}

// cleanup removes every frame file that could have been staged, the output
// container and the staging directory. Failures are logged and never returned.
func (s *Stage) cleanup(dir string, namer raster.FrameNamer, count int, outputPath string) {
	remove := func(path string) {
		if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to remove staged file %s: %v", path, err)
		}
	}

	for i := 0; i < count; i++ {
		remove(filepath.Join(dir, namer.Name(i)))
	}
	remove(outputPath)

	if err := s.fs.RemoveAll(dir); err != nil {
		s.logger.Warn("Failed to remove staged file %s: %v", dir, err)
	}
}

// Ensure Stage implements pipeline.Stage
var _ pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult] = (*Stage)(nil)
