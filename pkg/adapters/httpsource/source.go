// Package httpsource fetches tensor payloads over HTTP.
package httpsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/episodeviz/pkg/pipeline"
	"github.com/user/episodeviz/pkg/ports"
	"github.com/user/episodeviz/pkg/tensor"
)

// DefaultMaxBytes caps a payload body at 1 GiB.
const DefaultMaxBytes = 1 << 30

// Source implements ports.TensorSource with an HTTP GET.
type Source struct {
	client   *http.Client
	maxBytes int64
}

// Options configures a Source.
type Options struct {
	Timeout  time.Duration // Whole-request timeout (0 = none beyond ctx)
	MaxBytes int64         // Body size limit (0 = DefaultMaxBytes)
	Client   *http.Client  // Optional client; Timeout is ignored when set
}

// New creates a Source.
func New(opts Options) *Source {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Source{client: client, maxBytes: maxBytes}
}

// Fetch downloads the payload at url. Transport failures, non-2xx responses and
// oversized bodies are reported as *pipeline.SourceFetchError; an undecodable
// body is a *tensor.MalformedPayloadError.
func (s *Source) Fetch(ctx context.Context, url string) (*tensor.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &pipeline.SourceFetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &pipeline.SourceFetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &pipeline.SourceFetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body := &limitedReader{r: resp.Body, remaining: s.maxBytes}
	payload, err := tensor.Decode(body)
	if body.exceeded {
		return nil, &pipeline.SourceFetchError{
			URL: url,
			Err: fmt.Errorf("payload exceeds %d bytes", s.maxBytes),
		}
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// limitedReader is io.LimitReader that remembers whether the limit was hit.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// Probe one byte to distinguish "exactly at the limit" from "over it".
		var one [1]byte
		if n, _ := l.r.Read(one[:]); n > 0 {
			l.exceeded = true
		}
		return 0, io.EOF
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}

// Ensure Source implements ports.TensorSource
var _ ports.TensorSource = (*Source)(nil)
