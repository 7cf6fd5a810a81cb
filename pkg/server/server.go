// Package server exposes the tensor-to-video conversion over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/user/episodeviz/pkg/orchestrator"
	"github.com/user/episodeviz/pkg/ports"
)

// ConvertPath is the conversion endpoint.
const ConvertPath = "/api/tensor-to-video"

// ErrorMessage is the only error body clients ever see.
const ErrorMessage = "Failed to convert tensor to video"

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// ErrUnsupportedScheme is returned for tensor URLs that are not http or https.
var ErrUnsupportedScheme = errors.New("server: tensor_url must be an http or https URL")

// Converter runs one conversion.
type Converter interface {
	Run(ctx context.Context, config orchestrator.Config, req orchestrator.Request) (orchestrator.RunResult, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	// FFmpegAvailable reports encoder availability for the health endpoint.
	FFmpegAvailable func() bool
}

// Server serves conversion requests.
type Server struct {
	converter Converter
	config    orchestrator.Config
	logger    ports.Logger
	opts      Options
	engine    *gin.Engine
}

// New creates a new Server. Each request is converted with config.
func New(converter Converter, config orchestrator.Config, logger ports.Logger, opts Options) *Server {
	if opts.FFmpegAvailable == nil {
		opts.FFmpegAvailable = func() bool { return false }
	}
	s := &Server{
		converter: converter,
		config:    config,
		logger:    logger.WithComponent("server"),
		opts:      opts,
	}

	r := gin.New()
	r.Use(s.requestID(), s.accessLog(), gin.CustomRecoveryWithWriter(io.Discard, s.handlePanic))
	r.GET("/healthz", s.health)
	r.GET(ConvertPath, s.convert)
	r.POST(ConvertPath, s.convert)
	s.engine = r

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx := context.Background()
	if s.opts.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.opts.ShutdownTimeout)
		defer cancel()
	}
	err := srv.Shutdown(shutdownCtx)
	s.logger.Info("Server stopped")
	return err
}

type convertRequest struct {
	TensorURL  string `json:"tensor_url" form:"tensor_url" binding:"omitempty,url"`
	CameraName string `json:"camera_name" form:"camera_name"`
}

func (s *Server) convert(c *gin.Context) {
	requestID := c.GetString("request_id")

	req, err := bindRequest(c)
	if err != nil {
		s.fail(c, requestID, err)
		return
	}

	result, err := s.converter.Run(c.Request.Context(), s.config, orchestrator.Request{
		TensorURL:  req.TensorURL,
		CameraName: req.CameraName,
	})
	if err != nil {
		s.fail(c, requestID, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.mp4"`, slug(result.Payload.CameraName)))
	c.Data(http.StatusOK, "video/mp4", result.VideoData)
}

func bindRequest(c *gin.Context) (convertRequest, error) {
	var req convertRequest
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&req)
	} else if c.Request.ContentLength != 0 {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		return req, err
	}

	if req.TensorURL != "" {
		u, err := url.Parse(req.TensorURL)
		if err != nil {
			return req, err
		}
		if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
			return req, ErrUnsupportedScheme
		}
	}
	return req, nil
}

func (s *Server) fail(c *gin.Context, requestID string, err error) {
	s.logger.Error("Request %s failed: %v", requestID, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":      ErrorMessage,
		"request_id": requestID,
	})
}

func (s *Server) handlePanic(c *gin.Context, recovered any) {
	s.fail(c, c.GetString("request_id"), fmt.Errorf("panic: %v", recovered))
	c.Abort()
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ffmpeg": s.opts.FFmpegAvailable(),
	})
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s %d %d ms [%s]",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Milliseconds(), c.GetString("request_id"))
	}
}

// slug turns a camera name into a filename stem.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "video"
	}
	return out
}
