package meter

import "errors"

var (
	// ErrFrameNotReady is returned when the frame has no pixels yet or the
	// sample window around the tap is empty.
	ErrFrameNotReady = errors.New("meter: frame not ready")

	// ErrNoSamplePoint is returned when metering before any tap was registered.
	ErrNoSamplePoint = errors.New("meter: no sample point")

	// ErrInvalidReference is returned when the reference luminance is not positive.
	ErrInvalidReference = errors.New("meter: reference luminance must be positive")
)
