package protocol

import (
	"errors"

	"github.com/teslashibe/go-filmmeter/pkg/frameio"
	"github.com/teslashibe/go-filmmeter/pkg/meter"
)

// Code is a stable error identifier sent to clients.
type Code string

const (
	CodeFrameNotReady    Code = "frame_not_ready"
	CodeNoSamplePoint    Code = "no_sample_point"
	CodeInvalidReference Code = "invalid_reference"
	CodeBadRequest       Code = "bad_request"
	CodeInternal         Code = "internal"
)

// CodeFor maps an error to its wire code.
func CodeFor(err error) Code {
	switch {
	case errors.Is(err, meter.ErrFrameNotReady):
		return CodeFrameNotReady
	case errors.Is(err, meter.ErrNoSamplePoint):
		return CodeNoSamplePoint
	case errors.Is(err, meter.ErrInvalidReference):
		return CodeInvalidReference
	case errors.Is(err, frameio.ErrEmptyImage),
		errors.Is(err, frameio.ErrUnsupportedFormat),
		errors.Is(err, frameio.ErrInvalidImage):
		return CodeBadRequest
	default:
		return CodeInternal
	}
}

// Err returns the meter sentinel a code stands for, or nil when there is none.
func (c Code) Err() error {
	switch c {
	case CodeFrameNotReady:
		return meter.ErrFrameNotReady
	case CodeNoSamplePoint:
		return meter.ErrNoSamplePoint
	case CodeInvalidReference:
		return meter.ErrInvalidReference
	default:
		return nil
	}
}

// Recoverable reports whether the user can fix the error by retrying or tapping.
func (c Code) Recoverable() bool {
	return c == CodeFrameNotReady || c == CodeNoSamplePoint
}
