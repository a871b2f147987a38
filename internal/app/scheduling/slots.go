package scheduling

import (
	"errors"
	"math/rand/v2"
	"time"
)

// maxSlotAttempts bounds the random search before falling back.
const maxSlotAttempts = 10

// Rand is the subset of *math/rand/v2.Rand the scheduler draws from.
type Rand interface {
	IntN(n int) int
}

// SharedRand draws from the runtime's global source, which is safe for
// concurrent use. A *rand.Rand is not.
type SharedRand struct{}

func (SharedRand) IntN(n int) int { return rand.IntN(n) }

// SlotWindow describes when interviews may start: whole hours in
// [StartHour, EndHour) local time, on one of the next LookaheadDays days.
type SlotWindow struct {
	StartHour     int
	EndHour       int
	LookaheadDays int
	Location      *time.Location
}

// Validate checks the window is usable.
func (w SlotWindow) Validate() error {
	switch {
	case w.StartHour < 0 || w.StartHour > 23:
		return errors.New("slot window start hour must be in 0..23")
	case w.EndHour < 1 || w.EndHour > 24:
		return errors.New("slot window end hour must be in 1..24")
	case w.StartHour >= w.EndHour:
		return errors.New("slot window start hour must be before end hour")
	case w.LookaheadDays < 1:
		return errors.New("slot lookahead must be at least one day")
	}
	return nil
}

func (w SlotWindow) loc() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// Contains reports whether t starts on a whole hour inside the daily window.
func (w SlotWindow) Contains(t time.Time) bool {
	lt := t.In(w.loc())
	return lt.Minute() == 0 && lt.Second() == 0 && lt.Nanosecond() == 0 &&
		lt.Hour() >= w.StartHour && lt.Hour() < w.EndHour
}

// SlotPicker chooses default interview times for new pairs.
type SlotPicker struct {
	Window SlotWindow
	Rand   Rand
	Now    func() time.Time
}

// Pick returns a random whole-hour slot inside the window that is strictly
// after now. Day offset 0 (today) is a candidate, so late in the day most
// draws land in the past; after maxSlotAttempts misses Pick falls back to
// StartHour on the following day. Hours skipped by a DST change never
// qualify. The result is in UTC.
func (p *SlotPicker) Pick() time.Time {
	now := p.Now().In(p.Window.loc())
	span := p.Window.EndHour - p.Window.StartHour

	for i := 0; i < maxSlotAttempts; i++ {
		day := p.Rand.IntN(p.Window.LookaheadDays + 1)
		hour := p.Window.StartHour + p.Rand.IntN(span)
		c := time.Date(now.Year(), now.Month(), now.Day()+day, hour, 0, 0, 0, now.Location())
		if c.After(now) && p.Window.Contains(c) {
			return c.UTC()
		}
	}
	return p.Fallback(now)
}

// maxFallbackDays bounds the fallback's walk past days where StartHour does
// not exist locally.
const maxFallbackDays = 7

// Fallback is the deterministic slot used when random attempts run out:
// StartHour on the first day after now where that hour exists.
func (p *SlotPicker) Fallback(now time.Time) time.Time {
	now = now.In(p.Window.loc())
	var c time.Time
	for d := 1; d <= maxFallbackDays; d++ {
		c = time.Date(now.Year(), now.Month(), now.Day()+d, p.Window.StartHour, 0, 0, 0, now.Location())
		if p.Window.Contains(c) {
			break
		}
	}
	return c.UTC()
}
