package main

import (
	"strings"
	"testing"

	"github.com/teslashibe/go-filmmeter/pkg/camera"
	"github.com/teslashibe/go-filmmeter/pkg/meter"
	"github.com/teslashibe/go-filmmeter/pkg/readout"
)

type fixedSource struct{ f *meter.Frame }

func (s fixedSource) Latest() (*meter.Frame, bool) { return s.f, s.f != nil }

func TestKeys(t *testing.T) {
	cfg := camera.DefaultConfig()
	cfg.Mirror = true
	m := newMeter(cfg, readout.New("en"))

	// Left half 40, right half 200.
	f := meter.NewFrame(100, 50)
	for y := 0; y < 50; y++ {
		for x := 50; x < 100; x++ {
			f.SetRGB(x, y, 200, 200, 200)
		}
		for x := 0; x < 50; x++ {
			f.SetRGB(x, y, 40, 40, 40)
		}
	}
	src := fixedSource{f: f}

	for i := 0; i < 15; i++ {
		m.key('a', src)
	}
	if m.cross.X > 0.21 || m.cross.X < 0.19 {
		t.Fatalf("crosshair x = %v, want about 0.2", m.cross.X)
	}
	// The preview is mirrored, so the crosshair on the left meters the right.
	tap, _ := m.session.LastTap()
	if tap.X < 0.79 || tap.X > 0.81 {
		t.Errorf("tap x = %v, want about 0.8", tap.X)
	}

	m.key('g', src)
	if ref, ok := m.session.Reference(); !ok || ref != 200 {
		t.Errorf("reference = %v, %v, want 200", ref, ok)
	}

	for i := 0; i < 10; i++ {
		m.key('D', src)
	}
	if m.cross.X != 1 {
		t.Errorf("crosshair x = %v, want clamped to 1", m.cross.X)
	}
	m.key('m', src)
	if m.lines.Note == "" || m.lines.Stops == "" {
		t.Errorf("measure readout = %+v", m.lines)
	}

	if m.key('q', src) {
		t.Error("q should quit")
	}
	if !m.key(-1, src) {
		t.Error("no key should keep running")
	}
}

func TestMeterWithoutFrame(t *testing.T) {
	m := newMeter(camera.DefaultConfig(), readout.New("en"))
	m.key('m', fixedSource{})
	want := readout.New("en").Error(meter.ErrFrameNotReady)
	if m.lines != want {
		t.Errorf("lines = %+v, want %+v", m.lines, want)
	}
}

func TestMarkerColor(t *testing.T) {
	if c := markerColor("#808080"); c.R != 128 || c.G != 128 || c.B != 128 {
		t.Errorf("markerColor(#808080) = %v", c)
	}
	if c := markerColor("bogus"); c.R != 255 {
		t.Errorf("markerColor(bogus) = %v, want white", c)
	}
}

func TestRunReturnsCameraError(t *testing.T) {
	cfg := camera.DefaultConfig()
	cfg.Width = 1
	err := run(cfg, "en")
	if err == nil || !strings.Contains(err.Error(), "camera unavailable") {
		t.Errorf("run() error = %v, want camera unavailable", err)
	}
}
