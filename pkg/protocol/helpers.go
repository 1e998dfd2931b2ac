package protocol

import (
	"encoding/base64"
	"math"
	"time"

	"github.com/teslashibe/go-filmmeter/pkg/meter"
)

// NewReportData converts a meter report for the wire.
func NewReportData(r meter.Report, mode string) ReportData {
	d := ReportData{
		Mode:      mode,
		Sample:    r.Sample,
		Reference: r.Reference,
		Zone:      r.Zone.String(),
	}
	if !math.IsInf(r.Stops, 0) && !math.IsNaN(r.Stops) {
		s := r.Stops
		d.Stops = &s
	}
	return d
}

// Report converts back to a meter report. A nil Stops becomes -Inf, the only
// non-finite value Compute produces.
func (d *ReportData) Report() (meter.Report, error) {
	var z meter.Zone
	if err := z.UnmarshalText([]byte(d.Zone)); err != nil {
		return meter.Report{}, err
	}
	stops := math.Inf(-1)
	if d.Stops != nil {
		stops = *d.Stops
	}
	return meter.Report{Sample: d.Sample, Reference: d.Reference, Stops: stops, Zone: z}, nil
}

// NewStateData snapshots a session.
func NewStateData(id string, s *meter.Session) StateData {
	d := StateData{SessionID: id}
	if ref, ok := s.Reference(); ok {
		d.Calibrated = true
		d.Reference = &ref
	}
	if p, ok := s.LastTap(); ok {
		d.Tap = &TapData{X: p.X, Y: p.Y}
	}
	return d
}

// NewTapMessage creates a tap message
func NewTapMessage(x, y float64) (*Message, error) {
	return NewMessage(TypeTap, TapData{X: x, Y: y})
}

// NewFrameMessage creates a calibrate or measure message carrying an image
func NewFrameMessage(msgType MessageType, format string, data []byte) (*Message, error) {
	return NewMessage(msgType, FrameData{
		Format: format,
		Data:   base64.StdEncoding.EncodeToString(data),
	})
}

// NewReportMessage creates a report message
func NewReportMessage(d ReportData) (*Message, error) {
	return NewMessage(TypeReport, d)
}

// NewErrorMessage creates an error message for err
func NewErrorMessage(err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Code: CodeFor(err), Message: err.Error()})
}

// NewStateMessage creates a state message
func NewStateMessage(d StateData) (*Message, error) {
	return NewMessage(TypeState, d)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id, Timestamp: time.Now().UnixMilli()})
}

// NewPongMessage creates a pong response
func NewPongMessage(id string, pingTS, now int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    now,
		LatencyMs: now - pingTS,
	})
}

// GetTapData extracts TapData from a message
func (m *Message) GetTapData() (*TapData, error) {
	var d TapData
	if err := m.ParseData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetFrameData extracts FrameData from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var d FrameData
	if err := m.ParseData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetReportData extracts ReportData from a message
func (m *Message) GetReportData() (*ReportData, error) {
	var d ReportData
	if err := m.ParseData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetErrorData extracts ErrorData from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var d ErrorData
	if err := m.ParseData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetStateData extracts StateData from a message
func (m *Message) GetStateData() (*StateData, error) {
	var d StateData
	if err := m.ParseData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetPingData extracts PingData from a message
func (m *Message) GetPingData() (*PingData, error) {
	var d PingData
	if err := m.ParseData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetPongData extracts PongData from a message
func (m *Message) GetPongData() (*PongData, error) {
	var d PongData
	if err := m.ParseData(&d); err != nil {
		return nil, err
	}
	return &d, nil
}
