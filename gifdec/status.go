package gifdec

import (
	"errors"
	"fmt"
)

// Status categorizes the outcome of the most recent decode attempt.
type Status int

const (
	// StatusOK means the last frame decoded completely.
	StatusOK Status = iota
	// StatusFormatError means the stream structure is malformed or
	// unsupported. Sticky: decoding cannot proceed until SetData.
	StatusFormatError
	// StatusReadError means the byte source failed. Sticky like
	// StatusFormatError.
	StatusReadError
	// StatusPartialDecode means the current frame could not be fully
	// decoded; decoded pixels are kept, the rest are zero-filled.
	// Per-call only, the next frame may still decode normally.
	StatusPartialDecode
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusFormatError:
		return "FormatError"
	case StatusReadError:
		return "ReadError"
	case StatusPartialDecode:
		return "PartialDecode"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Sticky reports whether the status blocks further decoding until the
// decoder is reconfigured via SetData.
func (s Status) Sticky() bool {
	return s == StatusFormatError || s == StatusReadError
}

// DecodeError is the error type returned by all decoder operations.
type DecodeError struct {
	Status  Status
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// NewDecodeError creates a DecodeError with the given status and message.
func NewDecodeError(status Status, message string) *DecodeError {
	return &DecodeError{Status: status, Message: message}
}

func errStatus(status Status, format string, args ...interface{}) error {
	return &DecodeError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// IsDecodeError checks if an error is a DecodeError and returns it.
func IsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common errors
var (
	ErrNoColorTable = &DecodeError{Status: StatusFormatError, Message: "no valid color table"}
	ErrNotStarted   = &DecodeError{Status: StatusFormatError, Message: "no frame selected, call Advance first"}
	ErrNoFrames     = &DecodeError{Status: StatusFormatError, Message: "header contains no frames"}
	ErrClosed       = &DecodeError{Status: StatusFormatError, Message: "decoder is closed"}
)
