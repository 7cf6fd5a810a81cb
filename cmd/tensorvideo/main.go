// Package main provides the CLI entry point for tensorvideo.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/episodeviz/pkg/adapters/ffmpeg"
	"github.com/user/episodeviz/pkg/adapters/filesink"
	"github.com/user/episodeviz/pkg/adapters/ggrenderer"
	"github.com/user/episodeviz/pkg/adapters/httpsource"
	"github.com/user/episodeviz/pkg/adapters/logger"
	"github.com/user/episodeviz/pkg/adapters/mp4probe"
	"github.com/user/episodeviz/pkg/adapters/nullsink"
	"github.com/user/episodeviz/pkg/adapters/osfilesystem"
	"github.com/user/episodeviz/pkg/config"
	"github.com/user/episodeviz/pkg/orchestrator"
	"github.com/user/episodeviz/pkg/ports"
	"github.com/user/episodeviz/pkg/server"
	"github.com/user/episodeviz/pkg/stages/encode"
	"github.com/user/episodeviz/pkg/stages/resolve"
	"github.com/user/episodeviz/pkg/summarizer"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:        "tensorvideo",
		Usage:       l10n.T("Convert robot episode tensors into MP4 videos"),
		Description: l10n.T("tensorvideo turns camera frame tensors recorded during robot episodes into H.264 MP4 videos."),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    l10n.T("Path to YAML configuration file"),
				Category: l10n.T("Configuration"),
			},
			&cli.StringFlag{
				Name:     "ffmpeg-path",
				Usage:    l10n.T("Path to ffmpeg executable"),
				Category: l10n.T("Configuration"),
			},
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				Category: l10n.T("Logging"),
			},
			&cli.BoolFlag{
				Name:     "quiet",
				Aliases:  []string{"Q"},
				Usage:    l10n.T("Suppress all log output"),
				Category: l10n.T("Logging"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			encodeCommand(),
			versionCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Usage:       l10n.T("Serve the conversion HTTP endpoint"),
		Description: l10n.T("Serve POST and GET /api/tensor-to-video until interrupted."),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "addr",
				Usage:    l10n.T("Listen address (default: :8080)"),
				Category: l10n.T("Server"),
			},
		},
		Action: runServe,
	}
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:        "encode",
		Usage:       l10n.T("Convert one tensor payload into an MP4 file"),
		Description: l10n.T("Fetch or read a tensor payload and encode it into an MP4 file. Without a tensor URL a placeholder payload is used."),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "tensor-url",
				Aliases:  []string{"u"},
				Usage:    l10n.T("Tensor payload URL, file:// URL or local path"),
				Category: l10n.T("Input"),
			},
			&cli.StringFlag{
				Name:     "camera-name",
				Aliases:  []string{"n"},
				Usage:    l10n.T("Camera name (default: Front Camera)"),
				Category: l10n.T("Input"),
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    l10n.T("Output MP4 file path (required)"),
				Required: true,
				Category: l10n.T("Output"),
			},
			&cli.StringFlag{
				Name:     "summary",
				Usage:    l10n.T("Output execution summary to file (Markdown format)"),
				Category: l10n.T("Output"),
			},
			&cli.StringFlag{
				Name:     "quality",
				Aliases:  []string{"q"},
				Usage:    l10n.T("Quality preset (low, medium, high)"),
				Category: l10n.T("Video and Quality"),
			},
			&cli.StringFlag{
				Name:     "geometry",
				Usage:    l10n.T("Geometry mode (payload, frame)"),
				Category: l10n.T("Video and Quality"),
			},
			&cli.BoolFlag{
				Name:     "debug",
				Aliases:  []string{"d"},
				Usage:    l10n.T("Enable debug output"),
				Category: l10n.T("Debug"),
			},
			&cli.StringFlag{
				Name:     "debug-dir",
				Usage:    l10n.T("Directory for debug output"),
				Category: l10n.T("Debug"),
			},
		},
		Action: runEncode,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, l10n.F("tensorvideo version %s", version))
			return nil
		},
	}
}

// loadConfig reads the configuration file, if any, and applies global flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = ports.ParseLogLevel(c.String("log-level"))
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("quality") {
		cfg.Encode.Quality = config.QualityPreset(c.String("quality"))
	}
	if c.IsSet("geometry") {
		cfg.Encode.Geometry = c.String("geometry")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(cfg.LogLevel)
}

// signalContext cancels the returned context on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// buildOrchestrator wires the adapters and stages for one process.
func buildOrchestrator(cfg config.Config, fs ports.FileSystem, sink ports.DebugSink, log ports.Logger) *orchestrator.Orchestrator {
	renderer := ggrenderer.New()
	source := httpsource.New(httpsource.Options{
		Timeout:  time.Duration(cfg.Source.Timeout),
		MaxBytes: cfg.Source.MaxPayloadBytes,
	})
	encoder := ffmpeg.New(cfg.FFmpegPath)

	resolveStage := resolve.New(source, fs, log, cfg.ValidateOptions())
	encodeStage := encode.New(fs, encoder, mp4probe.New(), renderer, sink, log, encode.Options{
		StagingRoot: cfg.Encode.StagingRoot,
	})

	return orchestrator.New(resolveStage, encodeStage, fs, sink, log)
}

func ffmpegAvailable(path string) bool {
	_, err := ffmpeg.Find(path)
	return err == nil
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	ctx, cancel := signalContext(log)
	defer cancel()

	if !ffmpegAvailable(cfg.FFmpegPath) {
		log.Warn("ffmpeg not found, conversions will fail")
	}

	// Debug frames from concurrent requests would overwrite each other.
	orch := buildOrchestrator(cfg, osfilesystem.New(), nullsink.New(), log)

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(orch, cfg.ToOrchestratorConfig(""), log, server.Options{
		Addr:              cfg.Server.Addr,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout),
		ShutdownTimeout:   time.Duration(cfg.Server.ShutdownTimeout),
		FFmpegAvailable: func() bool {
			return ffmpegAvailable(cfg.FFmpegPath)
		},
	})

	return srv.Run(ctx)
}

func runEncode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	ctx, cancel := signalContext(log)
	defer cancel()

	fs := osfilesystem.New()
	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, ggrenderer.New())
	} else {
		sink = nullsink.New()
	}

	orch := buildOrchestrator(cfg, fs, sink, log)
	orchConfig := cfg.ToOrchestratorConfig(c.String("output"))

	result, err := orch.Run(ctx, orchConfig, orchestrator.Request{
		TensorURL:  c.String("tensor-url"),
		CameraName: c.String("camera-name"),
	})
	if err != nil {
		return err
	}

	if path := c.String("summary"); path != "" {
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), fs)
		if err := writer.Write(path, buildSummary(cfg, orchConfig, result)); err != nil {
			log.Warn("Failed to write summary: %v", err)
		} else {
			log.Info("Summary saved to %s", path)
		}
	}

	return nil
}
