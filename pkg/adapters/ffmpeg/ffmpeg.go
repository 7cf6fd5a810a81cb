// Package ffmpeg encodes staged image sequences by running an external ffmpeg process.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/user/episodeviz/pkg/ports"
)

// IsAvailable checks if ffmpeg is available on the system.
func IsAvailable() bool {
	_, err := Find("")
	return err == nil
}

// Find searches for ffmpeg.
// Priority: 1) customPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func Find(customPath string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrNotFound, customPath)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}

	path, err := exec.LookPath(execName)
	if err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrNotFound
}

// Encoder implements ports.SequenceEncoder with the ffmpeg image2 demuxer.
type Encoder struct {
	path string // Explicit executable path; empty means discover on each call
}

// New creates an Encoder. An empty path defers to Find.
func New(path string) *Encoder {
	return &Encoder{path: path}
}

// Args builds the ffmpeg argument list for seq. Arguments are passed to the
// process as a list, never through a shell.
func Args(seq ports.ImageSequence, outputPath string, opts ports.EncoderOptions) []string {
	codec := opts.Codec
	if codec == "" {
		codec = "libx264"
	}
	pixFmt := opts.PixelFormat
	if pixFmt == "" {
		pixFmt = "yuv420p"
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "image2",
		"-framerate", strconv.FormatFloat(seq.FPS, 'g', -1, 64),
		"-start_number", strconv.Itoa(seq.StartNumber),
		"-i", filepath.Join(seq.Dir, seq.Pattern),
		"-c:v", codec,
	}
	if opts.Preset != "" {
		args = append(args, "-preset", opts.Preset)
	}
	args = append(args,
		"-crf", strconv.Itoa(opts.CRF),
		"-pix_fmt", pixFmt,
		// 4:2:0 subsampling needs even dimensions.
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-movflags", "+faststart",
		outputPath,
	)
	return args
}

// EncodeSequence runs ffmpeg over seq and waits for it to exit.
func (e *Encoder) EncodeSequence(ctx context.Context, seq ports.ImageSequence, outputPath string, opts ports.EncoderOptions) error {
	ffmpegPath, err := Find(e.path)
	if err != nil {
		return err
	}

	args := Args(seq, outputPath, opts)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return &RunError{Args: args, ExitCode: exitCode, Stderr: stderr.String(), Err: err}
	}

	if _, err := os.Stat(outputPath); err != nil {
		return &RunError{Args: args, ExitCode: 0, Stderr: stderr.String(), Err: ErrNoOutput}
	}

	return nil
}

// Ensure RunError carries diagnostics
var _ ports.DiagnosticError = (*RunError)(nil)

// Ensure Encoder implements ports.SequenceEncoder
var _ ports.SequenceEncoder = (*Encoder)(nil)
