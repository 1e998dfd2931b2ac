// filmmeter: desktop light meter.
// Shows the camera in a window with a crosshair; move it with WASD or the
// arrow keys, press g to set middle gray and m or space to meter.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"syscall"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-filmmeter/internal/config"
	"github.com/teslashibe/go-filmmeter/internal/log"
	"github.com/teslashibe/go-filmmeter/pkg/camera"
	"github.com/teslashibe/go-filmmeter/pkg/capture"
	"github.com/teslashibe/go-filmmeter/pkg/frameio"
	"github.com/teslashibe/go-filmmeter/pkg/meter"
	"github.com/teslashibe/go-filmmeter/pkg/readout"
)

const (
	step     = 0.02
	bigStep  = 0.1
	keyEsc   = 27
	keySpace = 32

	// OpenCV HighGUI arrow codes on Linux.
	keyLeft  = 81
	keyUp    = 82
	keyRight = 83
	keyDown  = 84
)

func main() {
	device := flag.Int("device", config.CameraDevice(), "Camera device index")
	preset := flag.String("preset", config.CameraPreset(), "Camera preset: "+fmt.Sprint(camera.PresetNames()))
	mirror := flag.Bool("mirror", false, "Mirror the preview (front cameras)")
	lang := flag.String("lang", "en", "Readout language: en or ja (the window font only renders en; ja goes to the log)")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)

	p := camera.GetPreset(*preset)
	if p == nil {
		log.Error("unknown preset", "preset", *preset, "presets", camera.PresetNames())
		os.Exit(2)
	}
	cfg := *p
	cfg.Device = *device
	cfg.Mirror = *mirror

	if err := run(cfg, *lang); err != nil {
		log.Error("filmmeter failed", "error", err)
		os.Exit(1)
	}
}

// run owns the camera and the window and releases both before returning.
func run(cfg camera.Config, lang string) error {
	capt, err := capture.Open(cfg)
	if err != nil {
		return fmt.Errorf("camera unavailable: %w", err)
	}
	defer capt.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		if err := capt.Run(ctx); err != nil && ctx.Err() == nil {
			runErr <- err
			cancel()
		}
	}()

	m := newMeter(cfg, readout.New(lang))
	window := gocv.NewWindow("filmmeter")
	defer window.Close()

	for ctx.Err() == nil {
		if f, ok := capt.Latest(); ok {
			m.show(window, f)
		}
		if !m.key(window.WaitKey(15), capt) {
			return nil
		}
	}

	select {
	case err := <-runErr:
		return fmt.Errorf("camera stopped: %w", err)
	default:
		return nil
	}
}

type frameSource interface {
	Latest() (*meter.Frame, bool)
}

// meterUI is the crosshair, the session and the text currently on screen.
type meterUI struct {
	cfg     camera.Config
	session *meter.Session
	render  *readout.Renderer
	cross   meter.Point
	lines   readout.Lines
}

func newMeter(cfg camera.Config, r *readout.Renderer) *meterUI {
	m := &meterUI{
		cfg:     cfg,
		session: meter.NewSession(),
		render:  r,
		cross:   meter.Point{X: 0.5, Y: 0.5},
		lines:   r.Prompt(),
	}
	m.session.RegisterTap(cfg.MapTap(m.cross))
	return m
}

// key handles one key press. It returns false when the user quits.
func (m *meterUI) key(k int, src frameSource) bool {
	switch k {
	case -1:
	case 'q', keyEsc:
		return false
	case 'a', keyLeft:
		m.move(-step, 0)
	case 'd', keyRight:
		m.move(step, 0)
	case 'w', keyUp:
		m.move(0, -step)
	case 's', keyDown:
		m.move(0, step)
	case 'A':
		m.move(-bigStep, 0)
	case 'D':
		m.move(bigStep, 0)
	case 'W':
		m.move(0, -bigStep)
	case 'S':
		m.move(0, bigStep)
	case 'g':
		m.meter(readout.ModeCalibrate, src)
	case 'm', keySpace:
		m.meter(readout.ModeMeasure, src)
	}
	return true
}

func (m *meterUI) move(dx, dy float64) {
	m.cross = meter.Point{X: m.cross.X + dx, Y: m.cross.Y + dy}.Clamp()
	m.session.RegisterTap(m.cfg.MapTap(m.cross))
}

func (m *meterUI) meter(mode readout.Mode, src frameSource) {
	f, _ := src.Latest()

	var rep meter.Report
	var err error
	if mode == readout.ModeCalibrate {
		rep, err = m.session.Calibrate(f)
	} else {
		rep, err = m.session.Measure(f)
	}
	m.lines = m.render.Render(mode, rep, err)

	if err != nil {
		log.Warn("metering failed", "mode", mode, "error", err)
		return
	}
	log.Info("metered", "mode", mode, "sample", rep.Sample, "reference", rep.Reference,
		"stops", m.lines.Stops, "zone", rep.Zone, "note", m.lines.Note)
}

func (m *meterUI) show(window *gocv.Window, f *meter.Frame) {
	if m.cfg.Mirror {
		f = frameio.Mirror(f)
	}
	mat, err := capture.MatFromFrame(f)
	if err != nil {
		return
	}
	defer mat.Close()

	m.draw(&mat, f.Width, f.Height)
	window.IMShow(mat)
}

func (m *meterUI) draw(mat *gocv.Mat, w, h int) {
	center := image.Pt(int(m.cross.X*float64(w)), int(m.cross.Y*float64(h)))
	half := meter.WindowSize / 2
	marker := markerColor(m.lines.Color)

	gocv.Rectangle(mat, image.Rect(center.X-half, center.Y-half, center.X+half, center.Y+half), marker, 2)
	gocv.Line(mat, image.Pt(center.X-2*half, center.Y), image.Pt(center.X-half, center.Y), marker, 1)
	gocv.Line(mat, image.Pt(center.X+half, center.Y), image.Pt(center.X+2*half, center.Y), marker, 1)

	text := []string{m.lines.Status, m.lines.Luminance, m.lines.Stops, m.lines.Note}
	const lineHeight = 22
	top := h - lineHeight*len(text) - 10
	gocv.Rectangle(mat, image.Rect(0, top-lineHeight+4, w, h), color.RGBA{0, 0, 0, 0}, -1)
	for i, line := range text {
		if line == "" {
			continue
		}
		gocv.PutText(mat, line, image.Pt(10, top+i*lineHeight), gocv.FontHersheySimplex, 0.55,
			color.RGBA{235, 235, 235, 0}, 1)
	}
}

// markerColor converts a readout hex color, falling back to white.
func markerColor(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{255, 255, 255, 0}
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 0}
}
