package rtc

import (
	"errors"
	"time"

	"github.com/gr-butler/vemat/env"
	"github.com/jonboulle/clockwork"
)

// ErrUnavailable means the clock cannot be trusted; callers send a null
// timestamp instead.
var ErrUnavailable = errors.New("clock unavailable")

type Source interface {
	Now() (time.Time, error)
}

// SystemClock reads wall time and refuses readings from before minValid, which
// is what an unset real-time clock reports after power-up.
type SystemClock struct {
	clock    clockwork.Clock
	minValid time.Time
	loc      *time.Location
}

func NewSystemClock(clock clockwork.Clock, minValid time.Time, loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return &SystemClock{clock: clock, minValid: minValid, loc: loc}
}

func (s *SystemClock) Now() (time.Time, error) {
	t := s.clock.Now()
	if t.Before(s.minValid) {
		return time.Time{}, ErrUnavailable
	}
	return t.In(s.loc), nil
}

// Format renders the calendar fields as "YYYY-MM-DD HH:MM:SS".
func Format(t time.Time) string {
	return t.Format(env.TimestampLayout)
}

// Timestamp is the best-effort wire timestamp: nil whenever the source fails.
func Timestamp(src Source) *string {
	if src == nil {
		return nil
	}
	t, err := src.Now()
	if err != nil {
		return nil
	}
	s := Format(t)
	return &s
}
