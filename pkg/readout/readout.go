// Package readout turns metering results into the text a front-end shows.
//
// It is the only place that decides wording, language and decimal precision;
// the meter package returns plain numbers and sentinel errors.
package readout

import (
	"errors"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/teslashibe/go-filmmeter/pkg/meter"
)

// Mode tells whether a report came from setting middle gray or from metering.
type Mode int

const (
	ModeMeasure Mode = iota
	ModeCalibrate
)

func (m Mode) String() string {
	if m == ModeCalibrate {
		return "calibrate"
	}
	return "measure"
}

// Lines is what the original page kept in its four status elements, plus a
// marker color for the metered zone.
type Lines struct {
	Status    string `json:"status"`
	Luminance string `json:"luminance,omitempty"`
	Stops     string `json:"stops,omitempty"`
	Note      string `json:"note,omitempty"`
	Color     string `json:"color,omitempty"`
}

var supported = []language.Tag{language.English, language.Japanese}

var matcher = language.NewMatcher(supported)

// Match picks the best supported language for a tag or an Accept-Language
// header value. Anything unrecognized falls back to English.
func Match(accept string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

// Renderer formats results in one language.
type Renderer struct {
	p *message.Printer
}

// New returns a renderer for the best match of lang.
func New(lang string) *Renderer {
	return &Renderer{p: message.NewPrinter(Match(lang))}
}

// Prompt is the idle status shown before the first tap.
func (r *Renderer) Prompt() Lines {
	return Lines{Status: r.p.Sprintf(msgPrompt)}
}

// Render formats either a report or the error that replaced it.
func (r *Renderer) Render(mode Mode, rep meter.Report, err error) Lines {
	if err != nil {
		return r.Error(err)
	}
	return r.Report(mode, rep)
}

// Report formats a successful reading.
func (r *Renderer) Report(mode Mode, rep meter.Report) Lines {
	lines := Lines{
		Luminance: r.p.Sprintf(msgLuminance, rep.Sample, rep.Reference),
		Color:     ZoneColor(rep.Stops),
	}
	if mode == ModeCalibrate {
		lines.Status = r.p.Sprintf(msgCalibrated)
		lines.Stops = r.p.Sprintf(msgStopsReference)
		lines.Note = r.p.Sprintf(msgCalibrateHint)
		return lines
	}

	lines.Status = r.p.Sprintf(msgMeasured)
	if math.IsInf(rep.Stops, -1) {
		lines.Stops = r.p.Sprintf(msgStopsNoLight)
	} else {
		lines.Stops = r.p.Sprintf(msgStops, rep.Stops)
	}
	lines.Note = r.p.Sprintf(zoneNotes[rep.Zone])
	return lines
}

// Error formats a failed reading as a prompt for the user.
func (r *Renderer) Error(err error) Lines {
	switch {
	case errors.Is(err, meter.ErrFrameNotReady):
		return Lines{Status: r.p.Sprintf(msgFrameNotReady)}
	case errors.Is(err, meter.ErrNoSamplePoint):
		return Lines{Status: r.p.Sprintf(msgNoSamplePoint)}
	case errors.Is(err, meter.ErrInvalidReference):
		return Lines{Status: r.p.Sprintf(msgInvalidReference)}
	default:
		return Lines{Status: r.p.Sprintf(msgFailed)}
	}
}
