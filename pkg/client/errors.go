package client

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-filmmeter/pkg/protocol"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("client: connection closed")

	// ErrUnexpectedReply is returned when the server answers with the wrong message type.
	ErrUnexpectedReply = errors.New("client: unexpected reply")
)

// RemoteError is an error reported by the server. It unwraps to the matching
// meter sentinel, so errors.Is(err, meter.ErrNoSamplePoint) works across the
// connection.
type RemoteError struct {
	Code    protocol.Code
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("client: server error %s: %s", e.Code, e.Message)
}

// Unwrap returns the meter sentinel for the code, if there is one.
func (e *RemoteError) Unwrap() error {
	return e.Code.Err()
}
