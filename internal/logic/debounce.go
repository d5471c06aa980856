package logic

import "time"

// Debouncer filters a noisy on/off input, such as the blink-enable switch.
type Debouncer struct {
	duration time.Duration

	stable       State
	pending      State
	pendingSince time.Time
	baselined    bool
}

// NewDebouncer creates a Debouncer that accepts a level once it has been
// held for d.
func NewDebouncer(d time.Duration) *Debouncer {
	return &Debouncer{duration: d}
}

// Process takes a sample and returns the new stable state if it changed.
// The first stable level only establishes the baseline and returns false.
func (d *Debouncer) Process(on bool, now time.Time) (State, bool) {
	s := boolToState(on)

	if !d.baselined {
		if d.pending != s {
			// Start observing, or restart after a bounce
			d.pending = s
			d.pendingSince = now
			return "", false
		}
		if now.Sub(d.pendingSince) >= d.duration {
			d.stable = s
			d.baselined = true
			d.pending = ""
		}
		return "", false
	}

	if s == d.stable {
		d.pending = ""
		return "", false
	}

	if d.pending != s {
		d.pending = s
		d.pendingSince = now
		return "", false
	}

	if now.Sub(d.pendingSince) >= d.duration {
		d.stable = s
		d.pending = ""
		return s, true
	}
	return "", false
}

// IsBaselined returns whether the first stable level has been seen.
func (d *Debouncer) IsBaselined() bool {
	return d.baselined
}

// Stable returns the current stable state, or "" before the baseline.
func (d *Debouncer) Stable() State {
	return d.stable
}

func boolToState(b bool) State {
	if b {
		return StateOn
	}
	return StateOff
}
