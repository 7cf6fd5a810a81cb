package encode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/user/episodeviz/pkg/adapters/ffmpeg"
	"github.com/user/episodeviz/pkg/adapters/ggrenderer"
	"github.com/user/episodeviz/pkg/adapters/logger"
	"github.com/user/episodeviz/pkg/adapters/mp4probe"
	"github.com/user/episodeviz/pkg/adapters/nullsink"
	"github.com/user/episodeviz/pkg/adapters/osfilesystem"
	"github.com/user/episodeviz/pkg/mocks"
	"github.com/user/episodeviz/pkg/pipeline"
	"github.com/user/episodeviz/pkg/ports"
	"github.com/user/episodeviz/pkg/raster"
	"github.com/user/episodeviz/pkg/tensor"
)

// scenarioA is a 2x2 payload whose first frame is red, green, blue, white.
func scenarioA() *tensor.Payload {
	return &tensor.Payload{
		CameraName: "Front Camera",
		Width:      2,
		Height:     2,
		Channels:   3,
		Frames: []tensor.Frame{
			{FrameIndex: 0, TensorData: []float64{255, 0, 0, 0, 255, 0, 0, 0, 255, 255, 255, 255}},
			{FrameIndex: 1, TensorData: []float64{10, 20, 30}},
		},
	}
}

func encodeInput(p *tensor.Payload) pipeline.EncodeInput {
	input := pipeline.DefaultEncodeInput()
	input.Payload = p
	return input
}

type fixture struct {
	root    string
	encoder *mocks.SequenceEncoder
	probe   *mocks.VideoProbe
	sink    ports.DebugSink
	log     *mocks.Logger
	stage   *Stage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		root:    filepath.Join(t.TempDir(), "staging"),
		encoder: &mocks.SequenceEncoder{},
		probe:   &mocks.VideoProbe{},
		sink:    nullsink.New(),
		log:     mocks.NewLogger(),
	}
	f.build()
	return f
}

func (f *fixture) build() {
	f.stage = New(osfilesystem.New(), f.encoder, f.probe, ggrenderer.New(), f.sink, f.log, Options{StagingRoot: f.root})
}

// assertNoLeftovers checks that the staging root holds nothing.
func (f *fixture) assertNoLeftovers(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.root)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read staging root: %v", err)
	}
	for _, e := range entries {
		t.Errorf("leftover staged entry %s", e.Name())
	}
}

func TestStage_Execute(t *testing.T) {
	f := newFixture(t)
	f.encoder.Output = []byte("mp4 bytes")

	result, err := f.stage.Execute(context.Background(), encodeInput(scenarioA()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.encoder.CallCount() != 1 {
		t.Fatalf("expected 1 EncodeSequence call, got %d", f.encoder.CallCount())
	}
	call := f.encoder.Calls[0]
	if call.Sequence.Count != 2 || call.Sequence.StartNumber != 0 || call.Sequence.FPS != 30 {
		t.Errorf("unexpected sequence: %+v", call.Sequence)
	}
	if call.Sequence.Pattern != "frame_%06d.ppm" {
		t.Errorf("Pattern = %q", call.Sequence.Pattern)
	}
	if call.OutputPath != filepath.Join(call.Sequence.Dir, "output.mp4") {
		t.Errorf("OutputPath = %q", call.OutputPath)
	}
	if call.Options.Codec != "libx264" || call.Options.PixelFormat != "yuv420p" {
		t.Errorf("unexpected options: %+v", call.Options)
	}
	if strings.Join(call.StagedFiles, ",") != "frame_000000.ppm,frame_000001.ppm" {
		t.Errorf("unexpected staged files: %v", call.StagedFiles)
	}

	if string(result.VideoData) != "mp4 bytes" {
		t.Errorf("unexpected video data %q", result.VideoData)
	}
	if result.FrameCount != 2 || result.FileSize != 9 || result.DurationMs != 66 {
		t.Errorf("unexpected result: frames=%d size=%d duration=%d", result.FrameCount, result.FileSize, result.DurationMs)
	}
	if !f.probe.ProbeCalled || result.Info.Codec != "h264" {
		t.Errorf("expected probe info in result, got %+v", result.Info)
	}

	f.assertNoLeftovers(t)
}

func TestStage_ScenarioA_StagedRaster(t *testing.T) {
	f := newFixture(t)
	var staged []byte
	f.encoder.EncodeSequenceFunc = func(ctx context.Context, seq ports.ImageSequence, out string, opts ports.EncoderOptions) error {
		data, err := os.ReadFile(filepath.Join(seq.Dir, fmt.Sprintf(seq.Pattern, 0)))
		if err != nil {
			return err
		}
		staged = data
		return os.WriteFile(out, []byte("ok"), 0644)
	}

	if _, err := f.stage.Execute(context.Background(), encodeInput(scenarioA())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := append([]byte("P6\n2 2\n255\n"),
		255, 0, 0, // red
		0, 255, 0, // green
		0, 0, 255, // blue
		255, 255, 255, // white
	)
	if !bytes.Equal(staged, want) {
		t.Errorf("staged frame 0 = %v, want %v", staged, want)
	}
}

func TestStage_FrameIndexOrder(t *testing.T) {
	f := newFixture(t)
	var firstPixels []byte
	f.encoder.EncodeSequenceFunc = func(ctx context.Context, seq ports.ImageSequence, out string, opts ports.EncoderOptions) error {
		for i := 0; i < seq.Count; i++ {
			data, err := os.ReadFile(filepath.Join(seq.Dir, fmt.Sprintf(seq.Pattern, i)))
			if err != nil {
				return err
			}
			firstPixels = append(firstPixels, data[len("P6\n1 1\n255\n")])
		}
		return os.WriteFile(out, []byte("ok"), 0644)
	}

	p := &tensor.Payload{Width: 1, Height: 1, Channels: 3, Frames: []tensor.Frame{
		{FrameIndex: 7, TensorData: []float64{70, 0, 0}},
		{FrameIndex: 2, TensorData: []float64{20, 0, 0}},
		{FrameIndex: 5, TensorData: []float64{50, 0, 0}},
	}}
	if _, err := f.stage.Execute(context.Background(), encodeInput(p)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(firstPixels, []byte{20, 50, 70}) {
		t.Errorf("staged order = %v, want [20 50 70]", firstPixels)
	}
}

func TestStage_ShortTensorDataIsBlack(t *testing.T) {
	f := newFixture(t)
	var staged []byte
	f.encoder.EncodeSequenceFunc = func(ctx context.Context, seq ports.ImageSequence, out string, opts ports.EncoderOptions) error {
		staged, _ = os.ReadFile(filepath.Join(seq.Dir, fmt.Sprintf(seq.Pattern, 0)))
		return os.WriteFile(out, []byte("ok"), 0644)
	}

	p := &tensor.Payload{Width: 2, Height: 1, Channels: 3, Frames: []tensor.Frame{
		{FrameIndex: 0, TensorData: []float64{300, -4, 12.9, 7}},
	}}
	if _, err := f.stage.Execute(context.Background(), encodeInput(p)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := append([]byte("P6\n2 1\n255\n"), 255, 0, 12, 7, 0, 0)
	if !bytes.Equal(staged, want) {
		t.Errorf("staged = %v, want %v", staged, want)
	}
}

func TestStage_EmptyFramesStillCallsEncoder(t *testing.T) {
	f := newFixture(t)
	f.encoder.EncodeSequenceFunc = func(ctx context.Context, seq ports.ImageSequence, out string, opts ports.EncoderOptions) error {
		return &ffmpeg.RunError{ExitCode: 1, Stderr: "No such file or directory\n", Err: errors.New("exit status 1")}
	}

	p := &tensor.Payload{Width: 2, Height: 2, Channels: 3}
	_, err := f.stage.Execute(context.Background(), encodeInput(p))

	if f.encoder.CallCount() != 1 {
		t.Fatalf("expected encoder to be called once for zero frames, got %d", f.encoder.CallCount())
	}
	if f.encoder.Calls[0].Sequence.Count != 0 {
		t.Errorf("expected Count 0, got %d", f.encoder.Calls[0].Sequence.Count)
	}

	var encErr *pipeline.EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected *EncodeError, got %v", err)
	}
	if encErr.Op != OpEncode {
		t.Errorf("Op = %q, want %q", encErr.Op, OpEncode)
	}
	if encErr.Stderr != "No such file or directory" {
		t.Errorf("Stderr = %q", encErr.Stderr)
	}
	var runErr *ffmpeg.RunError
	if !errors.As(err, &runErr) {
		t.Error("expected RunError to stay reachable")
	}

	f.assertNoLeftovers(t)
}

func TestStage_EncoderFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.encoder.EncodeSequenceFunc = func(ctx context.Context, seq ports.ImageSequence, out string, opts ports.EncoderOptions) error {
		// Leave a partial container behind.
		os.WriteFile(out, []byte("partial"), 0644)
		return errors.New("encoder crashed")
	}

	_, err := f.stage.Execute(context.Background(), encodeInput(scenarioA()))

	var encErr *pipeline.EncodeError
	if !errors.As(err, &encErr) || encErr.Op != OpEncode {
		t.Fatalf("expected encode EncodeError, got %v", err)
	}
	f.assertNoLeftovers(t)
}

func TestStage_Cancelled(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.stage.Execute(ctx, encodeInput(scenarioA()))

	var encErr *pipeline.EncodeError
	if !errors.As(err, &encErr) || encErr.Op != OpStage {
		t.Fatalf("expected stage EncodeError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if f.encoder.CallCount() != 0 {
		t.Error("encoder should not run after cancellation")
	}
	f.assertNoLeftovers(t)
}

func TestStage_CancelledMidSequence(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := mocks.NewDebugSink()
	sink.SaveFrameFunc = func(index int, img image.Image) error {
		if index == 1 {
			cancel()
		}
		return nil
	}
	f.sink = sink
	f.build()

	p := &tensor.Payload{Width: 1, Height: 1, Channels: 3}
	for i := 0; i < 5; i++ {
		p.Frames = append(p.Frames, tensor.Frame{FrameIndex: uint32(i)})
	}

	_, err := f.stage.Execute(ctx, encodeInput(p))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sink.Frames) != 2 {
		t.Errorf("expected 2 frames before cancellation, got %d", len(sink.Frames))
	}
	f.assertNoLeftovers(t)
}

func TestStage_FrameGeometryMode(t *testing.T) {
	tests := []struct {
		name        string
		mode        tensor.GeometryMode
		frame       tensor.Frame
		wantResizes int
	}{
		{
			name:        "payload mode ignores frame geometry",
			mode:        tensor.GeometryPayload,
			frame:       tensor.Frame{Width: 2, Height: 2, Channels: 3, TensorData: make([]float64, 12)},
			wantResizes: 0,
		},
		{
			name:        "frame mode rescales smaller frame",
			mode:        tensor.GeometryFrame,
			frame:       tensor.Frame{Width: 2, Height: 2, Channels: 3, TensorData: make([]float64, 12)},
			wantResizes: 1,
		},
		{
			name:        "frame mode without declared geometry",
			mode:        tensor.GeometryFrame,
			frame:       tensor.Frame{TensorData: make([]float64, 48)},
			wantResizes: 0,
		},
		{
			name:        "frame mode same size different stride",
			mode:        tensor.GeometryFrame,
			frame:       tensor.Frame{Width: 4, Height: 4, Channels: 4, TensorData: make([]float64, 64)},
			wantResizes: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := &mocks.Renderer{}
			encoder := &mocks.SequenceEncoder{}
			var header string
			encoder.EncodeSequenceFunc = func(ctx context.Context, seq ports.ImageSequence, out string, opts ports.EncoderOptions) error {
				data, err := os.ReadFile(filepath.Join(seq.Dir, fmt.Sprintf(seq.Pattern, 0)))
				if err != nil {
					return err
				}
				header = string(data[:len("P6\n4 4\n255\n")])
				return os.WriteFile(out, []byte("ok"), 0644)
			}
			stage := New(osfilesystem.New(), encoder, nil, renderer, nullsink.New(), logger.NewNoop(),
				Options{StagingRoot: t.TempDir()})

			p := &tensor.Payload{Width: 4, Height: 4, Channels: 3, Frames: []tensor.Frame{tt.frame}}
			input := encodeInput(p)
			input.Geometry = tt.mode

			if _, err := stage.Execute(context.Background(), input); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if renderer.ResizeCalls != tt.wantResizes {
				t.Errorf("ResizeCalls = %d, want %d", renderer.ResizeCalls, tt.wantResizes)
			}
			if header != "P6\n4 4\n255\n" {
				t.Errorf("staged frame should use the payload raster, header %q", header)
			}
		})
	}
}

func TestStage_CleanupWarningDoesNotMaskResult(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.RemoveFunc = func(path string) error { return errors.New("permission denied") }
	fs.RemoveAllFunc = func(path string) error { return errors.New("permission denied") }

	encoder := &mocks.SequenceEncoder{}
	encoder.EncodeSequenceFunc = func(ctx context.Context, seq ports.ImageSequence, out string, opts ports.EncoderOptions) error {
		return fs.WriteFile(out, []byte("video"))
	}
	log := mocks.NewLogger()
	stage := New(fs, encoder, nil, &mocks.Renderer{}, nullsink.New(), log, Options{})

	result, err := stage.Execute(context.Background(), encodeInput(scenarioA()))
	if err != nil {
		t.Fatalf("cleanup failure should not fail the encode: %v", err)
	}
	if string(result.VideoData) != "video" {
		t.Errorf("unexpected video data %q", result.VideoData)
	}

	// Two frames, the output and the directory.
	if got := len(log.Warnings()); got != 4 {
		t.Errorf("expected 4 cleanup warnings, got %d: %v", got, log.Warnings())
	}
}

func TestStage_CleanupWarningDoesNotMaskError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.RemoveAllFunc = func(path string) error { return errors.New("busy") }

	encoder := &mocks.SequenceEncoder{
		EncodeSequenceFunc: func(ctx context.Context, seq ports.ImageSequence, out string, opts ports.EncoderOptions) error {
			return errors.New("boom")
		},
	}
	log := mocks.NewLogger()
	stage := New(fs, encoder, nil, &mocks.Renderer{}, nullsink.New(), log, Options{})

	_, err := stage.Execute(context.Background(), encodeInput(scenarioA()))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected encoder error to survive cleanup failure, got %v", err)
	}
	if !log.Contains("busy") {
		t.Error("expected cleanup failure to be logged")
	}
}

func TestStage_CleanupRemovesEveryExpectedFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	var removed []string
	var mu sync.Mutex
	fs.RemoveFunc = func(path string) error {
		mu.Lock()
		removed = append(removed, filepath.Base(path))
		mu.Unlock()
		return os.ErrNotExist
	}

	// Staging fails on the third frame, so later frames were never written.
	writes := 0
	fs.WriteFileFunc = func(path string, data []byte) error {
		writes++
		if writes == 3 {
			return errors.New("disk full")
		}
		return nil
	}

	log := mocks.NewLogger()
	stage := New(fs, &mocks.SequenceEncoder{}, nil, &mocks.Renderer{}, nullsink.New(), log, Options{})

	p := &tensor.Payload{Width: 1, Height: 1, Channels: 3}
	for i := 0; i < 5; i++ {
		p.Frames = append(p.Frames, tensor.Frame{FrameIndex: uint32(i)})
	}
	_, err := stage.Execute(context.Background(), encodeInput(p))

	var encErr *pipeline.EncodeError
	if !errors.As(err, &encErr) || encErr.Op != OpStage {
		t.Fatalf("expected stage EncodeError, got %v", err)
	}

	want := "frame_000000.ppm,frame_000001.ppm,frame_000002.ppm,frame_000003.ppm,frame_000004.ppm,output.mp4"
	if got := strings.Join(removed, ","); got != want {
		t.Errorf("removed = %s, want %s", got, want)
	}
	if len(log.Warnings()) != 0 {
		t.Errorf("not-exist should be silent, got %v", log.Warnings())
	}
}

func TestStage_MkdirTempFailure(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.MkdirTempFunc = func(dir, pattern string) (string, error) { return "", errors.New("read-only") }
	encoder := &mocks.SequenceEncoder{}
	stage := New(fs, encoder, nil, &mocks.Renderer{}, nullsink.New(), logger.NewNoop(), Options{})

	_, err := stage.Execute(context.Background(), encodeInput(scenarioA()))

	var encErr *pipeline.EncodeError
	if !errors.As(err, &encErr) || encErr.Op != OpStage {
		t.Fatalf("expected stage EncodeError, got %v", err)
	}
	if encoder.CallCount() != 0 {
		t.Error("encoder should not run without a staging directory")
	}
}

func TestStage_MissingOutput(t *testing.T) {
	fs := mocks.NewFileSystem()
	encoder := &mocks.SequenceEncoder{
		EncodeSequenceFunc: func(ctx context.Context, seq ports.ImageSequence, out string, opts ports.EncoderOptions) error {
			return nil
		},
	}
	stage := New(fs, encoder, nil, &mocks.Renderer{}, nullsink.New(), logger.NewNoop(), Options{})

	_, err := stage.Execute(context.Background(), encodeInput(scenarioA()))

	var encErr *pipeline.EncodeError
	if !errors.As(err, &encErr) || encErr.Op != OpRead {
		t.Fatalf("expected read EncodeError, got %v", err)
	}
}

func TestStage_NilPayload(t *testing.T) {
	f := newFixture(t)
	_, err := f.stage.Execute(context.Background(), pipeline.EncodeInput{})

	var encErr *pipeline.EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected *EncodeError, got %v", err)
	}
	if f.encoder.CallCount() != 0 {
		t.Error("encoder should not run without a payload")
	}
}

func TestStage_ProbeFailureIsWarning(t *testing.T) {
	f := newFixture(t)
	f.probe.ProbeFunc = func(data []byte) (ports.VideoInfo, error) {
		return ports.VideoInfo{}, errors.New("not an mp4")
	}

	result, err := f.stage.Execute(context.Background(), encodeInput(scenarioA()))
	if err != nil {
		t.Fatalf("probe failure should not fail the encode: %v", err)
	}
	if result.Info != (ports.VideoInfo{}) {
		t.Errorf("expected zero info, got %+v", result.Info)
	}
	if !f.log.Contains("not an mp4") {
		t.Error("expected probe failure to be logged")
	}
}

func TestStage_DebugSink(t *testing.T) {
	f := newFixture(t)
	sink := mocks.NewDebugSink()
	f.sink = sink
	f.probe.ProbeFunc = func(data []byte) (ports.VideoInfo, error) {
		return ports.VideoInfo{Codec: "h264", Width: 2, Height: 2, SampleCount: 2, DurationMs: 66}, nil
	}
	f.build()

	if _, err := f.stage.Execute(context.Background(), encodeInput(scenarioA())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.Frames) != 2 {
		t.Fatalf("expected 2 debug frames, got %d", len(sink.Frames))
	}
	rgb, ok := sink.Frames[0].(*raster.RGB)
	if !ok {
		t.Fatalf("expected *raster.RGB, got %T", sink.Frames[0])
	}
	if c := rgb.RGBAAt(1, 1); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("pixel(1,1) = %v, want white", c)
	}
	if !strings.Contains(string(sink.VideoJSON), `"sample_count": 2`) {
		t.Errorf("unexpected video JSON %s", sink.VideoJSON)
	}
}

func TestStage_ConcurrentInvocationsUseSeparateStaging(t *testing.T) {
	f := newFixture(t)
	f.stage = New(osfilesystem.New(), f.encoder, nil, ggrenderer.New(), f.sink, f.log, Options{StagingRoot: f.root})

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.stage.Execute(context.Background(), encodeInput(scenarioA()))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	dirs := make(map[string]bool)
	for _, call := range f.encoder.Calls {
		dirs[call.Sequence.Dir] = true
		if len(call.StagedFiles) != 2 {
			t.Errorf("staging dir %s saw %v", call.Sequence.Dir, call.StagedFiles)
		}
	}
	if len(dirs) != 4 {
		t.Errorf("expected 4 distinct staging dirs, got %d", len(dirs))
	}
	f.assertNoLeftovers(t)
}

func TestStage_FFmpegThousandFrames(t *testing.T) {
	if !ffmpeg.IsAvailable() {
		t.Skip("ffmpeg not available")
	}
	if testing.Short() {
		t.Skip("skipping in short mode")
	}

	root := t.TempDir()
	stage := New(osfilesystem.New(), ffmpeg.New(""), mp4probe.New(), ggrenderer.New(), nullsink.New(),
		logger.NewNoop(), Options{StagingRoot: root})

	p := &tensor.Payload{Width: 16, Height: 16, Channels: 3}
	for i := 0; i < 1000; i++ {
		v := float64(i % 256)
		p.Frames = append(p.Frames, tensor.Frame{FrameIndex: uint32(i), TensorData: []float64{v, v, v}})
	}
	input := encodeInput(p)
	input.Options.Preset = "ultrafast"

	result, err := stage.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Info.SampleCount != 1000 {
		t.Errorf("SampleCount = %d, want 1000", result.Info.SampleCount)
	}
	if result.Info.Width != 16 || result.Info.Height != 16 {
		t.Errorf("resolution = %dx%d, want 16x16", result.Info.Width, result.Info.Height)
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("expected empty staging root, found %d entries", len(entries))
	}
}
