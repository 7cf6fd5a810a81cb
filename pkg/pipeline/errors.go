package pipeline

import (
	"fmt"
	"strings"
)

// SourceFetchError reports a payload that could not be retrieved.
type SourceFetchError struct {
	URL        string
	StatusCode int // HTTP status, 0 for transport or local read failures
	Err        error
}

func (e *SourceFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// EncodeError reports a failure while staging frames, running the external
// encoder or reading its output.
type EncodeError struct {
	Op     string // stage, encode, read
	Stderr string // Diagnostic output of the encoder process, if any
	Err    error
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("encode video: %s: %v", e.Op, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\nstderr: " + s
	}
	return msg
}

func (e *EncodeError) Unwrap() error { return e.Err }
