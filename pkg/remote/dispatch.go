package remote

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-filmmeter/pkg/frameio"
	"github.com/teslashibe/go-filmmeter/pkg/meter"
	"github.com/teslashibe/go-filmmeter/pkg/protocol"
)

// ErrUnknownType is returned for message types the endpoint does not serve.
var ErrUnknownType = errors.New("remote: unknown message type")

// Dispatch applies one client message to a session and returns the reply.
// It never returns nil: failures become error messages.
func Dispatch(sessionID string, s *meter.Session, msg *protocol.Message) *protocol.Message {
	reply, err := dispatch(sessionID, s, msg)
	if err != nil {
		return errorReply(err)
	}
	return reply
}

func dispatch(sessionID string, s *meter.Session, msg *protocol.Message) (*protocol.Message, error) {
	switch msg.Type {
	case protocol.TypeTap:
		tap, err := msg.GetTapData()
		if err != nil {
			return nil, badRequest(err)
		}
		s.RegisterTap(meter.Point{X: tap.X, Y: tap.Y}.Clamp())
		return protocol.NewStateMessage(protocol.NewStateData(sessionID, s))

	case protocol.TypeCalibrate, protocol.TypeMeasure:
		frame, err := decodeFrame(msg)
		if err != nil {
			return nil, err
		}
		var rep meter.Report
		mode := "measure"
		if msg.Type == protocol.TypeCalibrate {
			mode = "calibrate"
			rep, err = s.Calibrate(frame)
		} else {
			rep, err = s.Measure(frame)
		}
		if err != nil {
			return nil, err
		}
		data := protocol.NewReportData(rep, mode)
		data.SessionID = sessionID
		return protocol.NewReportMessage(data)

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return nil, badRequest(err)
		}
		return protocol.NewPongMessage(ping.ID, ping.Timestamp, time.Now().UnixMilli())

	case protocol.TypeState:
		return protocol.NewStateMessage(protocol.NewStateData(sessionID, s))

	default:
		return nil, badRequest(fmt.Errorf("%w: %q", ErrUnknownType, msg.Type))
	}
}

// decodeFrame turns the message payload into a frame. A message without
// image data means the client had no frame yet.
func decodeFrame(msg *protocol.Message) (*meter.Frame, error) {
	fd, err := msg.GetFrameData()
	if err != nil {
		return nil, badRequest(err)
	}
	if fd.Data == "" {
		return nil, meter.ErrFrameNotReady
	}
	raw, err := fd.Decode()
	if err != nil {
		return nil, badRequest(err)
	}
	frame, _, err := frameio.DecodeBytes(raw)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// requestError marks malformed input that has no sentinel of its own.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return "bad request: " + e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{err: err}
}

func errorReply(err error) *protocol.Message {
	code := protocol.CodeFor(err)
	var re *requestError
	if errors.As(err, &re) {
		code = protocol.CodeBadRequest
	}
	msg, mErr := protocol.NewMessage(protocol.TypeError, protocol.ErrorData{Code: code, Message: err.Error()})
	if mErr != nil {
		return &protocol.Message{Type: protocol.TypeError, Timestamp: time.Now().UnixMilli()}
	}
	return msg
}
