// Package web serves the browser light meter: a static page that streams the
// phone camera, and a JSON API that meters uploaded frames.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-filmmeter/internal/log"
	"github.com/teslashibe/go-filmmeter/pkg/camera"
	"github.com/teslashibe/go-filmmeter/pkg/frameio"
	"github.com/teslashibe/go-filmmeter/pkg/hub"
	"github.com/teslashibe/go-filmmeter/pkg/meter"
	"github.com/teslashibe/go-filmmeter/pkg/protocol"
)

//go:embed static
var staticFiles embed.FS

const (
	// Version is reported by the health endpoint.
	Version = "1.0.0"

	defaultBodyLimit   = 16 * 1024 * 1024
	defaultSessionIdle = 30 * time.Minute
)

// FrameSource supplies the most recent frame of a server-side camera.
type FrameSource interface {
	Latest() (*meter.Frame, bool)
}

// Options configures a Server.
type Options struct {
	Port  string
	Debug bool

	// SessionIdle is how long an unused session is kept. Zero uses 30 minutes.
	SessionIdle time.Duration

	// Mount registers extra routes ahead of the static page.
	Mount func(app *fiber.App)
}

// Server is the browser front-end server
type Server struct {
	app  *fiber.App
	opts Options

	sessions  *Registry
	reportHub *hub.Hub
	cameraHub *hub.Hub

	mu     sync.RWMutex
	source FrameSource
	camera *camera.Manager
}

// NewServer builds the fiber app and its routes.
func NewServer(opts Options) *Server {
	if opts.SessionIdle <= 0 {
		opts.SessionIdle = defaultSessionIdle
	}
	s := &Server{
		opts:      opts,
		sessions:  NewRegistry(),
		reportHub: hub.New("reports"),
		cameraHub: hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "filmmeter",
		DisableStartupMessage: true,
		BodyLimit:             defaultBodyLimit,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Accept-Language",
	}))
	if opts.Debug {
		app.Use(logger.New())
	}

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Post("/sessions", s.handleCreateSession)
	api.Get("/sessions/:id", s.handleGetSession)
	api.Delete("/sessions/:id", s.handleDeleteSession)
	api.Post("/sessions/:id/tap", s.handleTap)
	api.Post("/sessions/:id/calibrate", s.handleCalibrate)
	api.Post("/sessions/:id/measure", s.handleMeasure)
	api.Get("/camera", s.handleGetCamera)
	api.Patch("/camera", s.handleUpdateCamera)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/reports", s.reportHub.Handler())
	app.Get("/ws/camera", s.cameraHub.Handler())

	if opts.Mount != nil {
		opts.Mount(app)
	}

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	app.Use("/", filesystem.New(filesystem.Config{
		Root:  http.FS(static),
		Index: "index.html",
	}))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Sessions returns the session registry.
func (s *Server) Sessions() *Registry {
	return s.sessions
}

// AttachCamera makes a server-side camera available. Requests without a
// frame body are metered against src, and the camera config becomes
// readable and editable through the API.
func (s *Server) AttachCamera(src FrameSource, mgr *camera.Manager) {
	s.mu.Lock()
	s.source = src
	s.camera = mgr
	s.mu.Unlock()
}

func (s *Server) frameSource() FrameSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func (s *Server) cameraManager() *camera.Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// PublishPreview sends a downsized JPEG of f to camera viewers, mirrored when
// the camera config asks for it. It does nothing when nobody is watching.
func (s *Server) PublishPreview(f *meter.Frame) {
	if s.cameraHub.ClientCount() == 0 {
		return
	}
	cfg := camera.DefaultConfig()
	if mgr := s.cameraManager(); mgr != nil {
		cfg = mgr.GetConfig()
	}
	if cfg.Mirror {
		f = frameio.Mirror(f)
	}
	data, err := frameio.PreviewJPEG(f, cfg.PreviewWidth, cfg.Quality)
	if err != nil {
		log.Debug("preview skipped", "error", err)
		return
	}
	s.cameraHub.BroadcastBinary(data)
}

// PublishReport broadcasts a report to /ws/reports listeners.
func (s *Server) PublishReport(d protocol.ReportData) {
	msg, err := protocol.NewReportMessage(d)
	if err != nil {
		log.Error("encode report", "error", err)
		return
	}
	if err := s.reportHub.BroadcastJSON(msg); err != nil {
		log.Error("broadcast report", "error", err)
	}
}

// Start runs the hubs and the session pruner, then listens until the
// listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go s.reportHub.Run(ctx)
	go s.cameraHub.Run(ctx)
	go s.pruneLoop(ctx)

	log.Info("web server listening", "url", "http://localhost:"+s.opts.Port)
	return s.app.Listen(":" + s.opts.Port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SessionIdle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Prune(s.opts.SessionIdle); n > 0 {
				log.Debug("pruned idle sessions", "count", n, "remaining", s.sessions.Len())
			}
		}
	}
}

// errorHandler renders framework errors (unknown routes, body too large)
// in the same shape as metering errors.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	wire := protocol.CodeInternal
	if code < fiber.StatusInternalServerError {
		wire = protocol.CodeBadRequest
	} else {
		log.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error": protocol.ErrorData{Code: wire, Message: err.Error()},
	})
}
