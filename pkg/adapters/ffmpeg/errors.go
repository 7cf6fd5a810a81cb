package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no ffmpeg executable can be located.
	ErrNotFound = errors.New("ffmpeg: executable not found")

	// ErrNoOutput is returned when ffmpeg exits cleanly but leaves no output file.
	ErrNoOutput = errors.New("ffmpeg: no output produced")
)

// RunError reports a failed ffmpeg invocation together with its diagnostic output.
type RunError struct {
	Args     []string
	ExitCode int // -1 when the process could not be started or was killed
	Stderr   string
	Err      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("ffmpeg encoding failed (exit %d): %v", e.ExitCode, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Diagnostics returns the trimmed stderr output of the process.
func (e *RunError) Diagnostics() string { return strings.TrimSpace(e.Stderr) }
