package tensor

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload matches every *MalformedPayloadError via errors.Is.
var ErrMalformedPayload = errors.New("tensor: malformed payload")

// MalformedPayloadError reports a payload that does not match the expected schema.
type MalformedPayloadError struct {
	Field  string
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("tensor: malformed payload: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedPayload) true.
func (e *MalformedPayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}

func malformed(field, format string, args ...interface{}) error {
	return &MalformedPayloadError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
