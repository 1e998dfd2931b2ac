// Package remote serves metering over a websocket: a client sends taps and
// encoded frames, the server answers with reports from a per-connection
// session.
package remote

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-filmmeter/internal/log"
	"github.com/teslashibe/go-filmmeter/pkg/meter"
	"github.com/teslashibe/go-filmmeter/pkg/protocol"
)

// Path is the websocket route served by RegisterRoutes.
const Path = "/ws/meter"

const maxMessageSize = 16 * 1024 * 1024

// Connection is one connected metering client
type Connection struct {
	ID        string
	Session   *meter.Session
	Connected time.Time
}

// Stats are cumulative endpoint counters
type Stats struct {
	Connections      int    `json:"connections"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	Reports          uint64 `json:"reports"`
	Errors           uint64 `json:"errors"`
}

// Server tracks remote metering connections
type Server struct {
	mu    sync.RWMutex
	conns map[string]*Connection

	onReport func(protocol.ReportData)

	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	reports          atomic.Uint64
	errors           atomic.Uint64
}

// NewServer creates an empty server
func NewServer() *Server {
	return &Server{conns: make(map[string]*Connection)}
}

// OnReport sets a callback run for every successful report
func (s *Server) OnReport(callback func(protocol.ReportData)) {
	s.mu.Lock()
	s.onReport = callback
	s.mu.Unlock()
}

// RegisterRoutes mounts the endpoint on r.
func (s *Server) RegisterRoutes(r fiber.Router) {
	r.Use(Path, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	r.Get(Path, websocket.New(s.handle, websocket.Config{ReadBufferSize: 64 * 1024}))
}

// ConnectionCount returns the number of open connections
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// GetStats returns a snapshot of the counters
func (s *Server) GetStats() Stats {
	return Stats{
		Connections:      s.ConnectionCount(),
		MessagesReceived: s.messagesReceived.Load(),
		MessagesSent:     s.messagesSent.Load(),
		Reports:          s.reports.Load(),
		Errors:           s.errors.Load(),
	}
}

func (s *Server) handle(c *websocket.Conn) {
	conn := &Connection{
		ID:        uuid.NewString(),
		Session:   meter.NewSession(),
		Connected: time.Now(),
	}
	logger := log.With("conn", conn.ID)

	s.mu.Lock()
	s.conns[conn.ID] = conn
	count := len(s.conns)
	s.mu.Unlock()
	logger.Debug("remote client connected", "clients", count)

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn.ID)
		count := len(s.conns)
		s.mu.Unlock()
		logger.Debug("remote client disconnected", "clients", count)
	}()

	c.SetReadLimit(maxMessageSize)

	hello, err := protocol.NewStateMessage(protocol.NewStateData(conn.ID, conn.Session))
	if err == nil {
		if err := s.send(c, hello); err != nil {
			return
		}
	}

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			logger.Debug("remote read ended", "error", err)
			return
		}
		s.messagesReceived.Add(1)

		var reply *protocol.Message
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			reply = errorReply(badRequest(err))
		} else {
			reply = Dispatch(conn.ID, conn.Session, msg)
		}
		s.observe(logger, reply)

		if err := s.send(c, reply); err != nil {
			logger.Debug("remote write failed", "error", err)
			return
		}
	}
}

func (s *Server) observe(logger *slog.Logger, reply *protocol.Message) {
	switch reply.Type {
	case protocol.TypeReport:
		s.reports.Add(1)
		s.mu.RLock()
		cb := s.onReport
		s.mu.RUnlock()
		if cb == nil {
			return
		}
		if d, err := reply.GetReportData(); err == nil {
			cb(*d)
		}
	case protocol.TypeError:
		s.errors.Add(1)
		if d, err := reply.GetErrorData(); err == nil {
			logger.Debug("remote request failed", "code", d.Code, "error", d.Message)
		}
	}
}

func (s *Server) send(c *websocket.Conn, msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	s.messagesSent.Add(1)
	return nil
}
