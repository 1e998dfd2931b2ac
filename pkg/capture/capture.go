// Package capture reads frames from a local camera with OpenCV.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-filmmeter/internal/log"
	"github.com/teslashibe/go-filmmeter/pkg/camera"
	"github.com/teslashibe/go-filmmeter/pkg/meter"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("capture: closed")

// maxReadFailures is how many consecutive empty reads end Run.
const maxReadFailures = 50

// Capture owns one camera device and keeps its most recent frame.
type Capture struct {
	devMu  sync.Mutex // guards vc; OpenCV captures are not goroutine safe
	vc     *gocv.VideoCapture
	cfg    camera.Config
	closed bool

	mu        sync.RWMutex
	latest    *meter.Frame
	frames    uint64
	callbacks []func(*meter.Frame)
}

// Open opens the device named by cfg and applies its size and framerate.
func Open(cfg camera.Config) (*Capture, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("capture: invalid config: %v", errs)
	}
	vc, err := openDevice(cfg)
	if err != nil {
		return nil, err
	}
	return &Capture{vc: vc, cfg: cfg}, nil
}

func openDevice(cfg camera.Config) (*gocv.VideoCapture, error) {
	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("capture: open device %d: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("capture: device %d did not open", cfg.Device)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	return vc, nil
}

// Apply switches to cfg, reopening the device if it changed. It is meant for
// camera.Manager.OnConfigChange.
func (c *Capture) Apply(cfg camera.Config) error {
	c.devMu.Lock()
	defer c.devMu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if cfg.Device != c.cfg.Device {
		vc, err := openDevice(cfg)
		if err != nil {
			return err
		}
		c.vc.Close()
		c.vc = vc
	} else {
		c.vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		c.vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
		c.vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}
	c.cfg = cfg
	log.Info("camera reconfigured", "device", cfg.Device, "width", cfg.Width, "height", cfg.Height, "fps", cfg.Framerate)
	return nil
}

// Config returns the active camera config.
func (c *Capture) Config() camera.Config {
	c.devMu.Lock()
	defer c.devMu.Unlock()
	return c.cfg
}

// OnFrame adds a callback run on the capture goroutine for every frame.
func (c *Capture) OnFrame(cb func(*meter.Frame)) {
	c.mu.Lock()
	c.callbacks = append(c.callbacks, cb)
	c.mu.Unlock()
}

// Latest returns the most recent frame. Frames are never modified after
// they are published.
func (c *Capture) Latest() (*meter.Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.latest != nil
}

// Frames returns how many frames have been read.
func (c *Capture) Frames() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames
}

// Run reads frames until ctx is done, the capture is closed, or the device
// stops delivering.
func (c *Capture) Run(ctx context.Context) error {
	mat := gocv.NewMat()
	defer mat.Close()

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := c.read(&mat)
		if err != nil {
			return err
		}
		if !ok || mat.Empty() {
			failures++
			if failures >= maxReadFailures {
				return fmt.Errorf("capture: device stopped after %d empty reads", failures)
			}
			time.Sleep(20 * time.Millisecond)
			continue
		}
		failures = 0

		f, err := FrameFromMat(mat)
		if err != nil {
			log.Debug("skipping frame", "error", err)
			continue
		}
		c.publish(f)
	}
}

func (c *Capture) read(mat *gocv.Mat) (bool, error) {
	c.devMu.Lock()
	defer c.devMu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	return c.vc.Read(mat), nil
}

func (c *Capture) publish(f *meter.Frame) {
	c.mu.Lock()
	c.latest = f
	c.frames++
	callbacks := c.callbacks
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb(f)
	}
}

// Close releases the device.
func (c *Capture) Close() error {
	c.devMu.Lock()
	defer c.devMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.vc.Close()
}
