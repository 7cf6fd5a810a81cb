// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/user/episodeviz/pkg/orchestrator"
	"github.com/user/episodeviz/pkg/ports"
	"github.com/user/episodeviz/pkg/tensor"
	"gopkg.in/yaml.v3"
)

// QualityPreset represents a video quality preset name.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"
	QualityMedium QualityPreset = "medium"
	QualityHigh   QualityPreset = "high"
)

// QualitySettings contains quality parameters for video encoding.
type QualitySettings struct {
	VideoCRF int    // x264 CRF value (0-51, lower is better)
	Preset   string // x264 speed preset
}

// GetQualitySettings returns quality settings for the given preset.
func GetQualitySettings(preset QualityPreset) QualitySettings {
	switch preset {
	case QualityLow:
		return QualitySettings{
			VideoCRF: 32,
			Preset:   "veryfast",
		}
	case QualityHigh:
		return QualitySettings{
			VideoCRF: 18,
			Preset:   "slow",
		}
	default: // medium
		return QualitySettings{
			VideoCRF: 23,
			Preset:   "fast",
		}
	}
}

// Duration is a time.Duration that reads from YAML strings such as "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config represents the full configuration for tensorvideo.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Source SourceConfig `yaml:"source"`
	Encode EncodeConfig `yaml:"encode"`

	FFmpegPath string         `yaml:"ffmpeg_path"`
	LogLevel   ports.LogLevel `yaml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// ServerConfig configures the HTTP endpoint.
type ServerConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
}

// SourceConfig configures payload retrieval.
type SourceConfig struct {
	Timeout         Duration `yaml:"timeout"`
	MaxPayloadBytes int64    `yaml:"max_payload_bytes"`
}

// EncodeConfig configures frame staging and video encoding.
type EncodeConfig struct {
	FPS         float64       `yaml:"fps"`
	Quality     QualityPreset `yaml:"quality"`
	CRF         *int          `yaml:"crf"`    // Overrides the quality preset when set; 0 is lossless
	Preset      string        `yaml:"preset"` // Overrides the quality preset when set
	Codec       string        `yaml:"codec"`
	PixelFormat string        `yaml:"pixel_format"`
	Geometry    string        `yaml:"geometry"`
	StagingRoot string        `yaml:"staging_root"`
	MaxFrames   int           `yaml:"max_frames"`
	MaxPixels   int           `yaml:"max_pixels"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration(10 * time.Second),
			ShutdownTimeout:   Duration(30 * time.Second),
		},
		Source: SourceConfig{
			Timeout:         Duration(60 * time.Second),
			MaxPayloadBytes: 1 << 30,
		},
		Encode: EncodeConfig{
			FPS:         30.0,
			Quality:     QualityMedium,
			Codec:       "libx264",
			PixelFormat: "yuv420p",
			Geometry:    string(tensor.GeometryPayload),
			MaxFrames:   100000,
			MaxPixels:   3840 * 2160,
		},
		LogLevel: ports.LevelInfo,
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that cannot be corrected silently.
func (c Config) Validate() error {
	switch c.Encode.Quality {
	case "", QualityLow, QualityMedium, QualityHigh:
	default:
		return fmt.Errorf("encode.quality: unknown preset %q", c.Encode.Quality)
	}
	if _, err := tensor.ParseGeometryMode(c.Encode.Geometry); err != nil {
		return fmt.Errorf("encode.geometry: %w", err)
	}
	if c.Encode.FPS < 0 {
		return fmt.Errorf("encode.fps: must not be negative")
	}
	if crf := c.Encode.CRF; crf != nil && (*crf < 0 || *crf > 51) {
		return fmt.Errorf("encode.crf: %d out of range 0-51", *crf)
	}
	return nil
}

// EncoderOptions resolves the quality preset and explicit overrides.
func (c Config) EncoderOptions() ports.EncoderOptions {
	q := GetQualitySettings(c.Encode.Quality)
	opts := ports.EncoderOptions{
		Codec:       c.Encode.Codec,
		Preset:      q.Preset,
		CRF:         q.VideoCRF,
		PixelFormat: c.Encode.PixelFormat,
	}
	if c.Encode.CRF != nil {
		opts.CRF = *c.Encode.CRF
	}
	if c.Encode.Preset != "" {
		opts.Preset = c.Encode.Preset
	}
	return opts
}

// ValidateOptions returns the payload limits.
func (c Config) ValidateOptions() tensor.ValidateOptions {
	mode, _ := tensor.ParseGeometryMode(c.Encode.Geometry)
	return tensor.ValidateOptions{
		Mode:      mode,
		MaxFrames: c.Encode.MaxFrames,
		MaxPixels: c.Encode.MaxPixels,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(outputPath string) orchestrator.Config {
	mode, _ := tensor.ParseGeometryMode(c.Encode.Geometry)
	return orchestrator.Config{
		OutputPath: outputPath,
		FPS:        c.Encode.FPS,
		Geometry:   mode,
		Encoder:    c.EncoderOptions(),
	}
}
