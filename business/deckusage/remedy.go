package deckusage

import (
	"clanManager/domain"
	"fmt"
)

// Remedy detects decks played between the pre-reset and post-reset polls.
// When pre-reset today < 4, post-reset today == 0 and the post-reset total
// grew, the corrected count is pre today plus the growth of the total.
// ok is false when the rule does not apply.
func Remedy(pre, post domain.Participant) (corrected int, ok bool) {
	if pre.DecksUsedToday < domain.MaxDecksPerDay &&
		post.DecksUsedToday == 0 &&
		post.DecksUsedTotal > pre.DecksUsedTotal {
		return pre.DecksUsedToday + (post.DecksUsedTotal - pre.DecksUsedTotal), true
	}

	return pre.DecksUsedToday, false
}

// ResolveDay returns the decks to record for a member seen in both snapshots.
// A remedied value above the daily cap is not capped: it is reported as
// inconsistent and the pre-reset count is kept.
func ResolveDay(pre, post domain.Participant) (int, error) {
	corrected, ok := Remedy(pre, post)
	if !ok {
		return pre.DecksUsedToday, nil
	}

	if corrected > domain.MaxDecksPerDay {
		return pre.DecksUsedToday, fmt.Errorf("%w: %s remedied to %d decks", domain.ErrInconsistentUsage, pre.Tag, corrected)
	}

	return corrected, nil
}

// LockedOut returns the active members that could not battle today because
// the clan already had the maximum number of participants.
func LockedOut(snapshot domain.DeckUsageSnapshot, activeMembers map[string]bool) map[string]bool {
	locked := make(map[string]bool)
	if snapshot.ActiveParticipants() < domain.MaxParticipants {
		return locked
	}

	for tag := range activeMembers {
		if p, ok := snapshot.Participants[tag]; !ok || p.DecksUsedToday == 0 {
			locked[tag] = true
		}
	}

	return locked
}
