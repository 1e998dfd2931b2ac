package meter

import (
	"fmt"
	"math"
)

// DefaultReference is the middle gray assumed when no reference was calibrated.
const DefaultReference = 128.0

// Zone is a qualitative band of exposure relative to middle gray.
type Zone int

const (
	DeepShadow Zone = iota
	ShadowRetained
	MidtoneReference
	BrightKeyHigh
	HighlightShoulder
)

var zoneNames = [...]string{
	DeepShadow:        "deep_shadow",
	ShadowRetained:    "shadow_retained",
	MidtoneReference:  "midtone_reference",
	BrightKeyHigh:     "bright_key_high",
	HighlightShoulder: "highlight_shoulder",
}

// Zones lists every zone from darkest to brightest.
func Zones() []Zone {
	return []Zone{DeepShadow, ShadowRetained, MidtoneReference, BrightKeyHigh, HighlightShoulder}
}

func (z Zone) String() string {
	if z < 0 || int(z) >= len(zoneNames) {
		return fmt.Sprintf("zone(%d)", int(z))
	}
	return zoneNames[z]
}

// MarshalText encodes the zone by name.
func (z Zone) MarshalText() ([]byte, error) {
	if z < 0 || int(z) >= len(zoneNames) {
		return nil, fmt.Errorf("meter: unknown zone %d", int(z))
	}
	return []byte(zoneNames[z]), nil
}

// UnmarshalText decodes a zone name.
func (z *Zone) UnmarshalText(text []byte) error {
	for i, name := range zoneNames {
		if name == string(text) {
			*z = Zone(i)
			return nil
		}
	}
	return fmt.Errorf("meter: unknown zone %q", text)
}

// ClassifyStops maps stops to a zone. Thresholds are strict: exactly 2.0
// stops is BrightKeyHigh, exactly -1.0 is ShadowRetained.
func ClassifyStops(stops float64) Zone {
	switch {
	case stops > 2:
		return HighlightShoulder
	case stops > 1:
		return BrightKeyHigh
	case stops > -1:
		return MidtoneReference
	case stops > -2:
		return ShadowRetained
	default:
		return DeepShadow
	}
}

// Report is the result of one metering action.
type Report struct {
	Sample    float64 `json:"sample"`
	Reference float64 `json:"reference"`
	Stops     float64 `json:"stops"`
	Zone      Zone    `json:"zone"`
}

// Compute returns the exposure of sample relative to reference, in stops.
// A zero sample yields -Inf stops in DeepShadow.
func Compute(sample, reference float64) (Report, error) {
	if !(reference > 0) {
		return Report{}, ErrInvalidReference
	}
	stops := math.Log2(sample / reference)
	return Report{
		Sample:    sample,
		Reference: reference,
		Stops:     stops,
		Zone:      ClassifyStops(stops),
	}, nil
}
