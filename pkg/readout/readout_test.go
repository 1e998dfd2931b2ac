package readout

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/teslashibe/go-filmmeter/pkg/meter"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		accept string
		want   language.Tag
	}{
		{"", language.English},
		{"en", language.English},
		{"ja", language.Japanese},
		{"ja-JP", language.Japanese},
		{"ja-JP,en;q=0.8", language.Japanese},
		{"en-US,ja;q=0.5", language.English},
		{"not a tag!!", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			if got := Match(tt.accept); got != tt.want {
				t.Errorf("Match(%q): got %v, want %v", tt.accept, got, tt.want)
			}
		})
	}
}

func TestReportCalibrate(t *testing.T) {
	r := New("en")
	rep := meter.Report{Sample: 180, Reference: 180, Stops: 0, Zone: meter.MidtoneReference}

	got := r.Report(ModeCalibrate, rep)

	if got.Status != msgCalibrated {
		t.Errorf("Status: got %q, want %q", got.Status, msgCalibrated)
	}
	if want := "Sample luminance: 180.0 / Middle gray: 180.0"; got.Luminance != want {
		t.Errorf("Luminance: got %q, want %q", got.Luminance, want)
	}
	if got.Stops != msgStopsReference {
		t.Errorf("Stops: got %q, want %q", got.Stops, msgStopsReference)
	}
	if got.Note != msgCalibrateHint {
		t.Errorf("Note: got %q, want %q", got.Note, msgCalibrateHint)
	}
	if got.Color != "#808080" {
		t.Errorf("Color: got %q, want #808080", got.Color)
	}
}

func TestReportMeasure(t *testing.T) {
	r := New("en")
	rep := meter.Report{Sample: 90, Reference: 180, Stops: -1, Zone: meter.ShadowRetained}

	got := r.Report(ModeMeasure, rep)

	if got.Status != msgMeasured {
		t.Errorf("Status: got %q, want %q", got.Status, msgMeasured)
	}
	if want := "Sample luminance: 90.0 / Middle gray: 180.0"; got.Luminance != want {
		t.Errorf("Luminance: got %q, want %q", got.Luminance, want)
	}
	if want := "Relative exposure: -1.00 stop"; got.Stops != want {
		t.Errorf("Stops: got %q, want %q", got.Stops, want)
	}
	if got.Note != msgShadowRetained {
		t.Errorf("Note: got %q, want %q", got.Note, msgShadowRetained)
	}
}

func TestReportNoLight(t *testing.T) {
	r := New("en")
	rep := meter.Report{Sample: 0, Reference: 128, Stops: math.Inf(-1), Zone: meter.DeepShadow}

	got := r.Report(ModeMeasure, rep)

	if got.Stops != msgStopsNoLight {
		t.Errorf("Stops: got %q, want %q", got.Stops, msgStopsNoLight)
	}
	if got.Note != msgDeepShadow {
		t.Errorf("Note: got %q, want %q", got.Note, msgDeepShadow)
	}
}

func TestEveryZoneHasNote(t *testing.T) {
	for _, z := range meter.Zones() {
		if zoneNotes[z] == "" {
			t.Errorf("zone %v has no note", z)
		}
		if japanese[zoneNotes[z]] == "" {
			t.Errorf("zone %v has no Japanese note", z)
		}
	}
}

func TestJapanese(t *testing.T) {
	r := New("ja-JP")
	rep := meter.Report{Sample: 90, Reference: 180, Stops: -1, Zone: meter.ShadowRetained}

	got := r.Report(ModeMeasure, rep)

	if want := "相対露出：-1.00 stop"; got.Stops != want {
		t.Errorf("Stops: got %q, want %q", got.Stops, want)
	}
	if !strings.HasPrefix(got.Note, "やや暗め") {
		t.Errorf("Note: got %q, want Japanese shadow note", got.Note)
	}
	if want := "画面をタップして測光ポイントを選んでください。"; r.Prompt().Status != want {
		t.Errorf("Prompt: got %q, want %q", r.Prompt().Status, want)
	}
}

func TestError(t *testing.T) {
	r := New("en")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not ready", meter.ErrFrameNotReady, msgFrameNotReady},
		{"no tap", meter.ErrNoSamplePoint, msgNoSamplePoint},
		{"wrapped no tap", fmt.Errorf("measure: %w", meter.ErrNoSamplePoint), msgNoSamplePoint},
		{"invalid reference", meter.ErrInvalidReference, msgInvalidReference},
		{"other", errors.New("boom"), msgFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Render(ModeMeasure, meter.Report{}, tt.err)
			if got.Status != tt.want {
				t.Errorf("Status: got %q, want %q", got.Status, tt.want)
			}
			if got.Stops != "" || got.Luminance != "" {
				t.Errorf("error readout should only carry a status: %+v", got)
			}
		})
	}
}

func TestZoneColor(t *testing.T) {
	if got := ZoneColor(0); got != "#808080" {
		t.Errorf("ZoneColor(0): got %q, want #808080", got)
	}
	if got := ZoneColor(math.NaN()); got != "#808080" {
		t.Errorf("ZoneColor(NaN): got %q, want #808080", got)
	}
	if ZoneColor(-10) != ZoneColor(-3) {
		t.Errorf("ZoneColor should clamp below -3: %q vs %q", ZoneColor(-10), ZoneColor(-3))
	}
	if ZoneColor(math.Inf(-1)) != ZoneColor(-3) {
		t.Errorf("ZoneColor(-Inf) should match -3")
	}
	if ZoneColor(10) != ZoneColor(3) {
		t.Errorf("ZoneColor should clamp above 3: %q vs %q", ZoneColor(10), ZoneColor(3))
	}
	if ZoneColor(-3) == ZoneColor(3) {
		t.Error("shadow and highlight colors should differ")
	}
	for _, s := range []float64{-2.5, -1, 0.5, 2} {
		c := ZoneColor(s)
		if len(c) != 7 || c[0] != '#' {
			t.Errorf("ZoneColor(%v): got %q, want #rrggbb", s, c)
		}
	}
}

func TestModeString(t *testing.T) {
	if ModeCalibrate.String() != "calibrate" || ModeMeasure.String() != "measure" {
		t.Errorf("unexpected mode names: %v %v", ModeCalibrate, ModeMeasure)
	}
}
