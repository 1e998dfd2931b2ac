// Package camera provides runtime-configurable capture settings for the meter.
package camera

import "github.com/teslashibe/go-filmmeter/pkg/meter"

// Config holds all camera configuration parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	// Device is the OpenCV capture index (0 = first webcam).
	Device int `json:"device"`

	// === Resolution ===
	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	Framerate int `json:"framerate"` // Target FPS
	Quality   int `json:"quality"`   // Preview JPEG quality 1-100

	// PreviewWidth is the width previews are scaled down to before streaming.
	// Metering always uses the full-resolution frame.
	PreviewWidth int `json:"preview_width"`

	// Mirror flips the preview horizontally, as front cameras usually are shown.
	// Taps are mapped back so they still land on the same scene point.
	Mirror bool `json:"mirror"`
}

// Limits for requested capture settings.
const (
	MaxWidth     = 4096
	MaxHeight    = 2160
	MaxFramerate = 120
	MinWidth     = 160
	MinHeight    = 120
)

// DefaultConfig returns the recommended configuration: 720p is plenty for a
// 20x20 pixel spot and keeps capture light.
func DefaultConfig() Config {
	return Config{
		Device:       0,
		Width:        1280,
		Height:       720,
		Framerate:    30,
		Quality:      80,
		PreviewWidth: 640,
		Mirror:       false,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must be 0 or greater")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 4096")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.PreviewWidth < 0 || c.PreviewWidth > MaxWidth {
		errors = append(errors, "preview_width must be 0 (full size) or up to 4096")
	}

	return errors
}

// Capabilities describes the accepted ranges, for the camera API.
func Capabilities() map[string]interface{} {
	return map[string]interface{}{
		"min_width":     MinWidth,
		"min_height":    MinHeight,
		"max_width":     MaxWidth,
		"max_height":    MaxHeight,
		"max_framerate": MaxFramerate,
		"presets":       PresetNames(),
	}
}

// MapTap converts a tap on the displayed preview into frame coordinates.
func (c Config) MapTap(p meter.Point) meter.Point {
	p = p.Clamp()
	if c.Mirror {
		p.X = 1 - p.X
	}
	return p
}
