package meter

import "sync"

// Session holds the state of one metering user: the last tap and the
// calibrated middle gray. It is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	tap       *Point
	reference *float64
}

// NewSession returns an uncalibrated session with no tap.
func NewSession() *Session {
	return &Session{}
}

// RegisterTap records p as the point to meter. It replaces any earlier tap.
func (s *Session) RegisterTap(p Point) {
	s.mu.Lock()
	s.tap = &p
	s.mu.Unlock()
}

// LastTap returns the registered tap, if any.
func (s *Session) LastTap() (Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tap == nil {
		return Point{}, false
	}
	return *s.tap, true
}

// Reference returns the calibrated middle gray, if any.
func (s *Session) Reference() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reference == nil {
		return 0, false
	}
	return *s.reference, true
}

// Calibrated reports whether a reference has been set.
func (s *Session) Calibrated() bool {
	_, ok := s.Reference()
	return ok
}

// Calibrate samples f at the last tap and makes the result the new middle
// gray. The returned report is always 0 stops in MidtoneReference.
// A black sample is stored like any other; later measurements then fail with
// ErrInvalidReference until the session is calibrated again.
func (s *Session) Calibrate(f *Frame) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample, err := s.sampleLocked(f)
	if err != nil {
		return Report{}, err
	}
	s.reference = &sample
	return Report{
		Sample:    sample,
		Reference: sample,
		Stops:     0,
		Zone:      MidtoneReference,
	}, nil
}

// Measure samples f at the last tap and reports it against the calibrated
// reference, or DefaultReference when uncalibrated. Measuring never changes
// the reference.
func (s *Session) Measure(f *Frame) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample, err := s.sampleLocked(f)
	if err != nil {
		return Report{}, err
	}
	reference := DefaultReference
	if s.reference != nil {
		reference = *s.reference
	}
	return Compute(sample, reference)
}

func (s *Session) sampleLocked(f *Frame) (float64, error) {
	if !f.Ready() {
		return 0, ErrFrameNotReady
	}
	if s.tap == nil {
		return 0, ErrNoSamplePoint
	}
	return Sample(f, *s.tap)
}
