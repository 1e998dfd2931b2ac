// Package protocol defines the WebSocket messages exchanged between a
// metering client and the filmmeter server.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → Server messages
	TypeTap       MessageType = "tap"       // Choose a sample point
	TypeCalibrate MessageType = "calibrate" // Set middle gray from a frame
	TypeMeasure   MessageType = "measure"   // Meter a frame

	// Server → Client messages
	TypeReport MessageType = "report" // Result of calibrate or measure
	TypeError  MessageType = "error"  // Failed request
	TypeState  MessageType = "state"  // Session state

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Client → Server Message Types
// =============================================================================

// TapData is a normalized sample point
type TapData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FrameData carries an encoded still image
type FrameData struct {
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format"` // "jpeg", "png", ...
	Data   string `json:"data"`   // base64 encoded
}

// Decode returns the raw image bytes
func (f *FrameData) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// ReportData is a metering result. Stops is nil when it is not a finite number.
type ReportData struct {
	Mode      string   `json:"mode"` // "calibrate" or "measure"
	Sample    float64  `json:"sample"`
	Reference float64  `json:"reference"`
	Stops     *float64 `json:"stops"`
	Zone      string   `json:"zone"`
	SessionID string   `json:"session_id,omitempty"`
}

// ErrorData describes a failed request
type ErrorData struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// StateData is a snapshot of a metering session
type StateData struct {
	SessionID  string   `json:"session_id"`
	Calibrated bool     `json:"calibrated"`
	Reference  *float64 `json:"reference,omitempty"`
	Tap        *TapData `json:"tap,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
