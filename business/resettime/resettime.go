// Package resettime fills in daily reset timestamps that could not be
// observed, using the fixed one day spacing between resets.
package resettime

import (
	"clanManager/domain"
	"fmt"
	"time"
)

const Day = 24 * time.Hour

// Reconstruct returns a fully populated copy of slots. Each missing slot i
// takes the first populated slot j found scanning forward circularly from i,
// shifted by (i - j) days. Only originally populated slots are used as
// sources, so the result does not depend on the order slots are filled in.
func Reconstruct(slots []*time.Time) ([]time.Time, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("no reset slots: %w", domain.ErrUnreconstructable)
	}

	out := make([]time.Time, len(slots))
	for i := range slots {
		t, ok := fill(slots, i)
		if !ok {
			return nil, fmt.Errorf("%d reset slots all empty: %w", len(slots), domain.ErrUnreconstructable)
		}
		out[i] = t
	}

	return out, nil
}

func fill(slots []*time.Time, i int) (time.Time, bool) {
	if slots[i] != nil {
		return *slots[i], true
	}

	n := len(slots)
	for step := 1; step < n; step++ {
		j := (i + step) % n
		if slots[j] != nil {
			return slots[j].Add(time.Duration(i-j) * Day), true
		}
	}

	return time.Time{}, false
}

// Latest returns the most recent populated slot.
func Latest(slots []*time.Time) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, s := range slots {
		if s != nil && (!found || s.After(latest)) {
			latest = *s
			found = true
		}
	}
	return latest, found
}
