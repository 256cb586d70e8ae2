package deckusage

import (
	"clanManager/domain"
	"sync"
	"time"
)

type State int

const (
	Waiting State = iota
	Detected
	DeadlineExpired
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Detected:
		return "detected"
	case DeadlineExpired:
		return "deadline_expired"
	default:
		return "unknown"
	}
}

// ResetDetector watches successive polls of a clan for the daily reset. The
// reset shows up as the sum of decks used today dropping between two polls.
// It is driven by scheduler ticks and never sleeps.
type ResetDetector struct {
	mu        sync.Mutex
	state     State
	deadline  time.Time
	preReset  *domain.DeckUsageSnapshot
	lastTotal int
	resetTime time.Time
}

func NewResetDetector(deadline time.Time) *ResetDetector {
	return &ResetDetector{state: Waiting, deadline: deadline}
}

func (d *ResetDetector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *ResetDetector) Deadline() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deadline
}

// Tick feeds one poll taken at now. Polls must be fed in the order they were taken.
func (d *ResetDetector) Tick(now time.Time, snapshot domain.DeckUsageSnapshot) State {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Waiting {
		return d.state
	}

	total := snapshot.TotalToday()
	if d.preReset != nil && total < d.lastTotal {
		d.state = Detected
		d.resetTime = now.UTC()
		return d.state
	}

	d.preReset = &snapshot
	d.lastTotal = total

	if !now.Before(d.deadline) {
		d.state = DeadlineExpired
	}

	return d.state
}

// Expire closes the window without a detected reset. The freshest snapshot
// observed so far becomes the pre-reset snapshot.
func (d *ResetDetector) Expire(_ time.Time) State {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Waiting {
		d.state = DeadlineExpired
	}

	return d.state
}

// PreReset returns the last snapshot taken before the reset.
func (d *ResetDetector) PreReset() (domain.DeckUsageSnapshot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.preReset == nil {
		return domain.DeckUsageSnapshot{}, false
	}
	return *d.preReset, true
}

// ResetTime is the time of the poll that saw the drop. It is unknown when the
// window expired without one.
func (d *ResetDetector) ResetTime() (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Detected {
		return time.Time{}, false
	}
	return d.resetTime, true
}
