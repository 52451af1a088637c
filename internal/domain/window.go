package domain

import "time"

// WindowKind selects how a market decides whether it still accepts stakes.
type WindowKind string

const (
	// WindowManual keeps betting open until the authority closes it.
	WindowManual WindowKind = "MANUAL"
	// WindowDeadline closes betting at a fixed timestamp.
	WindowDeadline WindowKind = "DEADLINE"
)

// WindowPolicy is the betting window of a market. Exactly one of Open or
// Deadline is meaningful, depending on Kind.
type WindowPolicy struct {
	Kind     WindowKind
	Open     bool
	Deadline time.Time
}

// ManualWindow returns an open, authority-controlled window.
func ManualWindow() WindowPolicy {
	return WindowPolicy{Kind: WindowManual, Open: true}
}

// DeadlineWindow returns a window that closes at deadline.
func DeadlineWindow(deadline time.Time) WindowPolicy {
	return WindowPolicy{Kind: WindowDeadline, Deadline: deadline.UTC()}
}

// Accepts returns nil while the window admits stakes at now.
func (w WindowPolicy) Accepts(now time.Time) error {
	switch w.Kind {
	case WindowManual:
		if !w.Open {
			return ErrBettingClosed
		}
		return nil
	case WindowDeadline:
		if !now.Before(w.Deadline) {
			return ErrBettingEnded
		}
		return nil
	}
	return ErrBettingClosed
}

// Close flips a manual window shut. It never reopens.
func (w *WindowPolicy) Close() error {
	if w.Kind != WindowManual {
		return ErrWindowPolicy
	}
	if !w.Open {
		return ErrBettingAlreadyClosed
	}
	w.Open = false
	return nil
}
