package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/episodeviz/pkg/adapters/logger"
	"github.com/user/episodeviz/pkg/mocks"
	"github.com/user/episodeviz/pkg/orchestrator"
	"github.com/user/episodeviz/pkg/pipeline"
	"github.com/user/episodeviz/pkg/tensor"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeConverter records requests and returns a canned result.
type fakeConverter struct {
	mu       sync.Mutex
	requests []orchestrator.Request
	configs  []orchestrator.Config
	result   orchestrator.RunResult
	err      error
	runFunc  func(ctx context.Context) error
}

func (f *fakeConverter) Run(ctx context.Context, config orchestrator.Config, req orchestrator.Request) (orchestrator.RunResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.configs = append(f.configs, config)
	f.mu.Unlock()
	if f.runFunc != nil {
		if err := f.runFunc(ctx); err != nil {
			return orchestrator.RunResult{}, err
		}
	}
	if f.err != nil {
		return orchestrator.RunResult{}, f.err
	}
	return f.result, nil
}

func newTestServer(conv Converter) *Server {
	config := orchestrator.DefaultConfig()
	config.Encoder.CRF = 28
	return New(conv, config, logger.NewNoop(), Options{FFmpegAvailable: func() bool { return true }})
}

func successConverter() *fakeConverter {
	return &fakeConverter{result: orchestrator.RunResult{
		Payload:   tensor.Summary{CameraName: "Front Camera"},
		VideoData: []byte("mp4-data"),
	}}
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestConvert_Post(t *testing.T) {
	conv := successConverter()
	s := newTestServer(conv)

	rec := do(t, s, http.MethodPost, ConvertPath,
		`{"tensor_url":"https://example.com/episode.json","camera_name":"Front Camera"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="front-camera.mp4"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "mp4-data", rec.Body.String())

	require.Len(t, conv.requests, 1)
	assert.Equal(t, orchestrator.Request{TensorURL: "https://example.com/episode.json", CameraName: "Front Camera"}, conv.requests[0])
	assert.Equal(t, 28, conv.configs[0].Encoder.CRF)
}

func TestConvert_PostEmptyBody(t *testing.T) {
	conv := successConverter()
	s := newTestServer(conv)

	rec := do(t, s, http.MethodPost, ConvertPath, "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, conv.requests, 1)
	assert.Equal(t, orchestrator.Request{}, conv.requests[0])
}

func TestConvert_Get(t *testing.T) {
	conv := successConverter()
	s := newTestServer(conv)

	rec := do(t, s, http.MethodGet, ConvertPath+"?camera_name=Wrist+Camera", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, conv.requests, 1)
	assert.Equal(t, "Wrist Camera", conv.requests[0].CameraName)
	assert.Empty(t, conv.requests[0].TensorURL)
}

func TestConvert_FailuresShareOneShape(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		err    error
		called bool
	}{
		{"invalid json", http.MethodPost, ConvertPath, `{"tensor_url":`, nil, false},
		{"not a url", http.MethodPost, ConvertPath, `{"tensor_url":"not a url"}`, nil, false},
		{"file scheme", http.MethodGet, ConvertPath + "?tensor_url=file:///etc/passwd", "", nil, false},
		{"fetch error", http.MethodPost, ConvertPath, `{"tensor_url":"https://example.com/x.json"}`,
			&pipeline.SourceFetchError{URL: "https://example.com/x.json", StatusCode: 404}, true},
		{"malformed payload", http.MethodGet, ConvertPath + "?tensor_url=https://example.com/x.json", "",
			&tensor.MalformedPayloadError{Field: "width", Reason: "must be positive"}, true},
		{"encode error", http.MethodPost, ConvertPath, `{}`,
			&pipeline.EncodeError{Op: "encode", Stderr: "boom", Err: errors.New("exit status 1")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{err: tt.err}
			s := newTestServer(conv)

			rec := do(t, s, tt.method, tt.target, tt.body)

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, ErrorMessage, body["error"])
			assert.Equal(t, rec.Header().Get(RequestIDHeader), body["request_id"])
			assert.Len(t, body, 2, "error body must not leak details")
			assert.Equal(t, tt.called, len(conv.requests) == 1)
		})
	}
}

func TestConvert_PanicUsesFailureShape(t *testing.T) {
	conv := &fakeConverter{runFunc: func(ctx context.Context) error {
		panic("makeslice: len out of range")
	}}
	log := mocks.NewLogger()
	s := New(conv, orchestrator.DefaultConfig(), log, Options{})

	rec := do(t, s, http.MethodPost, ConvertPath, `{"tensor_url":"https://example.com/x.json"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, ErrorMessage, body["error"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), body["request_id"])
	assert.True(t, log.Contains("makeslice"))
}

func TestRequestID(t *testing.T) {
	s := newTestServer(successConverter())

	first := do(t, s, http.MethodGet, "/healthz", "").Header().Get(RequestIDHeader)
	second := do(t, s, http.MethodGet, "/healthz", "").Header().Get(RequestIDHeader)

	_, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestHealth(t *testing.T) {
	s := newTestServer(successConverter())

	rec := do(t, s, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string `json:"status"`
		FFmpeg bool   `json:"ffmpeg"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.True(t, body.FFmpeg)
}

func TestConvert_RequestContextReachesConverter(t *testing.T) {
	started := make(chan struct{})
	conv := &fakeConverter{runFunc: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}
	s := newTestServer(conv)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, ConvertPath, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.Handler().ServeHTTP(rec, req)
		close(done)
	}()

	<-started
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not return after the client went away")
	}
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	log := mocks.NewLogger()
	s := New(successConverter(), orchestrator.DefaultConfig(), log, Options{ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.True(t, log.Contains("Server stopped"))
}

func TestRun_ListenError(t *testing.T) {
	s := New(successConverter(), orchestrator.DefaultConfig(), logger.NewNoop(), Options{Addr: "256.0.0.1:bad"})
	err := s.Run(context.Background())
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Front Camera":      "front-camera",
		"  wrist__cam #2 ":  "wrist-cam-2",
		"":                  "video",
		"カメラ":               "video",
		"Left-Arm / Camera": "left-arm-camera",
	}
	for in, want := range tests {
		assert.Equal(t, want, slug(in), "slug(%q)", in)
	}
}
