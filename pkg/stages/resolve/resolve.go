// Package resolve implements the tensor source resolution stage.
package resolve

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/user/episodeviz/pkg/pipeline"
	"github.com/user/episodeviz/pkg/ports"
	"github.com/user/episodeviz/pkg/tensor"
)

// Stage obtains a payload from a URL, a local file, or the placeholder generator.
type Stage struct {
	source   ports.TensorSource
	fs       ports.FileSystem
	logger   ports.Logger
	validate tensor.ValidateOptions
}

// New creates a new resolve stage.
func New(source ports.TensorSource, fs ports.FileSystem, logger ports.Logger, validate tensor.ValidateOptions) *Stage {
	return &Stage{
		source:   source,
		fs:       fs,
		logger:   logger.WithComponent("resolve"),
		validate: validate,
	}
}

// Execute resolves the payload named by input. Retrieved payloads are
// validated before they are returned.
func (s *Stage) Execute(ctx context.Context, input pipeline.ResolveInput) (pipeline.ResolveResult, error) {
	result := pipeline.ResolveResult{}

	label := input.CameraName
	if label == "" {
		label = tensor.DefaultCameraName
	}

	locator := strings.TrimSpace(input.TensorURL)
	if locator == "" {
		s.logger.Info("No tensor URL given, using placeholder for %s", label)
		result.Payload = Synthesize(label)
		result.Source = pipeline.SourcePlaceholder
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	var (
		payload *tensor.Payload
		err     error
	)
	switch kind, target := classify(locator); kind {
	case pipeline.SourceURL:
		s.logger.Info("Fetching tensor payload from %s", target)
		payload, err = s.source.Fetch(ctx, target)
		result.Source = kind
	default:
		s.logger.Info("Reading tensor payload from %s", target)
		payload, err = s.readFile(target)
		result.Source = kind
	}
	if err != nil {
		return result, err
	}

	if payload.CameraName == "" {
		payload.CameraName = label
	}
	if err := payload.Validate(s.validate); err != nil {
		return result, err
	}

	s.logger.Debug("Payload resolved: %d frames, %dx%dx%d",
		len(payload.Frames), payload.Width, payload.Height, payload.Channels)
	result.Payload = payload
	return result, nil
}

func (s *Stage) readFile(path string) (*tensor.Payload, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, &pipeline.SourceFetchError{URL: path, Err: err}
	}
	return tensor.Decode(bytes.NewReader(data))
}

// classify splits a locator into remote URLs and local paths.
func classify(locator string) (pipeline.SourceKind, string) {
	u, err := url.Parse(locator)
	if err != nil {
		return pipeline.SourceFile, locator
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return pipeline.SourceURL, locator
	case "file":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		return pipeline.SourceFile, path
	default:
		return pipeline.SourceFile, locator
	}
}

// Ensure Stage implements pipeline.Stage
var _ pipeline.Stage[pipeline.ResolveInput, pipeline.ResolveResult] = (*Stage)(nil)
