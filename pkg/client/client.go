// Package client meters images against a remote filmmeter server.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-filmmeter/pkg/meter"
	"github.com/teslashibe/go-filmmeter/pkg/protocol"
)

// DefaultTimeout bounds a request when the context has no deadline.
const DefaultTimeout = 10 * time.Second

// Client is a connection to the /ws/meter endpoint. The server keeps one
// metering session per connection. Calls are serialized.
type Client struct {
	mu        sync.Mutex
	ws        *websocket.Conn
	sessionID string
	closed    bool
}

// Dial connects to url and waits for the server's session greeting.
func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: DefaultTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", url, err)
	}

	c := &Client{ws: ws}
	hello, err := c.read(ctx)
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("client: greeting: %w", err)
	}
	if hello.Type != protocol.TypeState {
		ws.Close()
		return nil, fmt.Errorf("client: greeting %q: %w", hello.Type, ErrUnexpectedReply)
	}
	state, err := hello.GetStateData()
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("client: greeting: %w", err)
	}
	c.sessionID = state.SessionID
	return c, nil
}

// SessionID returns the server-side session id.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Tap registers a normalized sample point.
func (c *Client) Tap(ctx context.Context, x, y float64) (*protocol.StateData, error) {
	msg, err := protocol.NewTapMessage(x, y)
	if err != nil {
		return nil, err
	}
	reply, err := c.roundTrip(ctx, msg, protocol.TypeState)
	if err != nil {
		return nil, err
	}
	return reply.GetStateData()
}

// Calibrate sets middle gray from an encoded image.
func (c *Client) Calibrate(ctx context.Context, format string, image []byte) (meter.Report, error) {
	return c.meter(ctx, protocol.TypeCalibrate, format, image)
}

// Measure meters an encoded image against the session's middle gray.
func (c *Client) Measure(ctx context.Context, format string, image []byte) (meter.Report, error) {
	return c.meter(ctx, protocol.TypeMeasure, format, image)
}

func (c *Client) meter(ctx context.Context, t protocol.MessageType, format string, image []byte) (meter.Report, error) {
	msg, err := protocol.NewFrameMessage(t, format, image)
	if err != nil {
		return meter.Report{}, err
	}
	reply, err := c.roundTrip(ctx, msg, protocol.TypeReport)
	if err != nil {
		return meter.Report{}, err
	}
	data, err := reply.GetReportData()
	if err != nil {
		return meter.Report{}, err
	}
	return data.Report()
}

// State fetches the session state.
func (c *Client) State(ctx context.Context) (*protocol.StateData, error) {
	msg, err := protocol.NewMessage(protocol.TypeState, nil)
	if err != nil {
		return nil, err
	}
	reply, err := c.roundTrip(ctx, msg, protocol.TypeState)
	if err != nil {
		return nil, err
	}
	return reply.GetStateData()
}

// Ping measures the round trip to the server.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	msg, err := protocol.NewPingMessage(fmt.Sprintf("%d", start.UnixNano()))
	if err != nil {
		return 0, err
	}
	if _, err := c.roundTrip(ctx, msg, protocol.TypePong); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}

// roundTrip sends msg and reads the single reply the server sends for it.
func (c *Client) roundTrip(ctx context.Context, msg *protocol.Message, want protocol.MessageType) (*protocol.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	data, err := msg.Bytes()
	if err != nil {
		return nil, err
	}
	c.ws.SetWriteDeadline(deadline(ctx))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, fmt.Errorf("client: write: %w", err)
	}

	reply, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	if reply.Type == protocol.TypeError {
		ed, err := reply.GetErrorData()
		if err != nil {
			return nil, fmt.Errorf("client: error reply: %w", err)
		}
		return nil, &RemoteError{Code: ed.Code, Message: ed.Message}
	}
	if reply.Type != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrUnexpectedReply, reply.Type, want)
	}
	return reply, nil
}

func (c *Client) read(ctx context.Context) (*protocol.Message, error) {
	c.ws.SetReadDeadline(deadline(ctx))
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("client: read: %w", err)
	}
	return protocol.ParseMessage(data)
}

func deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(DefaultTimeout)
}
