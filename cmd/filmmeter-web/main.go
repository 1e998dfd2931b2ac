// filmmeter-web: browser light meter server.
// Serves the metering page, the session API and the remote metering socket,
// optionally backed by a local camera.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-filmmeter/internal/config"
	"github.com/teslashibe/go-filmmeter/internal/log"
	"github.com/teslashibe/go-filmmeter/pkg/camera"
	"github.com/teslashibe/go-filmmeter/pkg/capture"
	"github.com/teslashibe/go-filmmeter/pkg/remote"
	"github.com/teslashibe/go-filmmeter/pkg/web"
)

type options struct {
	port      string
	useCamera bool
	device    int
	preset    string
	debug     bool
}

func main() {
	var o options
	flag.StringVar(&o.port, "port", config.Port(), "HTTP server port")
	flag.BoolVar(&o.useCamera, "camera", false, "Attach a local camera for server-side metering")
	flag.IntVar(&o.device, "device", config.CameraDevice(), "Camera device index")
	flag.StringVar(&o.preset, "preset", config.CameraPreset(), "Camera preset: "+fmt.Sprint(camera.PresetNames()))
	flag.BoolVar(&o.debug, "debug", false, "Enable request logging and debug logs")
	logFile := flag.String("log-file", config.LogFile(), "Also write JSON logs to this rotating file")
	flag.Parse()

	level := config.LogLevel()
	if o.debug {
		level = "debug"
	}
	log.InitWithOptions(log.Options{Level: level, File: *logFile})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, o)
	cancel()
	if err != nil {
		log.Error("filmmeter-web failed", "error", err)
	}
	if cerr := log.Close(); cerr != nil {
		fmt.Fprintln(os.Stderr, "close log file:", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	meterSrv := remote.NewServer()
	srv := web.NewServer(web.Options{
		Port:  o.port,
		Debug: o.debug,
		Mount: func(app *fiber.App) {
			meterSrv.RegisterRoutes(app)
			app.Get("/api/remote", func(c *fiber.Ctx) error {
				return c.JSON(meterSrv.GetStats())
			})
		},
	})
	meterSrv.OnReport(srv.PublishReport)

	if o.useCamera {
		capt, err := openCamera(o.preset, o.device)
		if err != nil {
			return fmt.Errorf("camera unavailable: %w", err)
		}
		defer capt.Close()

		mgr := camera.NewManager(capt.Config())
		mgr.OnConfigChange = capt.Apply
		capt.OnFrame(srv.PublishPreview)
		srv.AttachCamera(capt, mgr)

		go func() {
			if err := capt.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("camera stopped", "error", err)
			}
		}()
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start(ctx)
	}()
	log.Info("filmmeter ready",
		"page", "http://localhost:"+o.port,
		"remote", "ws://localhost:"+o.port+remote.Path,
		"camera", o.useCamera)

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	return nil
}

func openCamera(preset string, device int) (*capture.Capture, error) {
	p := camera.GetPreset(preset)
	if p == nil {
		return nil, fmt.Errorf("unknown preset %q", preset)
	}
	cfg := *p
	cfg.Device = device
	return capture.Open(cfg)
}
