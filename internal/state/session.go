package state

import "time"

// Session is the live ride timer plus its reminder settings. Elapsed time
// is anchored to a captured wall-clock start instant rather than a ticking
// counter, so it stays correct across arbitrary process suspension; a
// display loop only matters for redraw, never for correctness.
type Session struct {
	StartedAt            *time.Time `json:"startedAt,omitempty"`
	AccumulatedSeconds   float64    `json:"accumulatedSeconds"`
	Active               bool       `json:"active"`
	FuelIntervalMin      int        `json:"fuelIntervalMin"`
	HydrationIntervalMin int        `json:"hydrationIntervalMin"`
	TargetDistanceKm     float64    `json:"targetDistanceKm"`
	Intensity            string     `json:"intensity"`
}

// Start begins or resumes the timer at now. Starting an active session is
// a no-op.
func (s *Session) Start(now time.Time) {
	if s.Active {
		return
	}
	t := now
	s.StartedAt = &t
	s.Active = true
}

// Pause folds the running segment into the accumulator and stops the
// clock. Pausing an inactive session is a no-op.
func (s *Session) Pause(now time.Time) {
	if !s.Active || s.StartedAt == nil {
		s.Active = false
		return
	}
	s.AccumulatedSeconds += now.Sub(*s.StartedAt).Seconds()
	s.StartedAt = nil
	s.Active = false
}

// Elapsed returns total elapsed seconds: the accumulator plus the running
// segment when active.
func (s *Session) Elapsed(now time.Time) float64 {
	if s.Active && s.StartedAt != nil {
		return s.AccumulatedSeconds + now.Sub(*s.StartedAt).Seconds()
	}
	return s.AccumulatedSeconds
}

// Reset zeroes the accumulator and stops the clock; reminder settings are
// left alone.
func (s *Session) Reset() {
	s.AccumulatedSeconds = 0
	s.StartedAt = nil
	s.Active = false
}
