package strikes

import (
	"clanManager/business/resettime"
	"clanManager/domain"
	"time"
)

// Participation is what the evaluator needs to know about one member.
type Participation struct {
	Usage        [domain.BattleDays]*int
	Medals       int
	TrackedSince time.Time
}

// Race is the event cycle the member is evaluated against. Resets holds the
// reset slots ending with the four that close each Battle Day, usually
// day_3..day_7 of the race.
type Race struct {
	Resets         []*time.Time
	CompletedEarly bool
}

type Determination struct {
	ShouldStrike bool    `json:"should_strike"`
	Actual       float64 `json:"actual"`
	Required     float64 `json:"required"`
}

// DaysTracked counts the Battle Days closing at or after trackedSince.
// endOfDay holds the reset closing each Battle Day in order.
func DaysTracked(trackedSince time.Time, endOfDay []time.Time) int {
	for k, reset := range endOfDay {
		if !reset.Before(trackedSince) {
			return len(endOfDay) - k
		}
	}
	return 0
}

// Evaluate applies policy to one member. ok is false when the reset times of
// the race cannot be reconstructed.
func Evaluate(policy domain.StrikePolicy, p Participation, race Race) (Determination, bool) {
	if len(race.Resets) < domain.BattleDays {
		return Determination{}, false
	}

	resets, err := resettime.Reconstruct(race.Resets)
	if err != nil {
		return Determination{}, false
	}

	days := DaysTracked(p.TrackedSince, resets[len(resets)-domain.BattleDays:])
	early := race.CompletedEarly && days > 0

	if policy.Basis == domain.StrikeTypeMedals {
		return medalRule(float64(policy.Threshold), p.Medals, days, early), true
	}
	return deckRule(float64(policy.Threshold), p.Usage, days, early), true
}

// deckRule walks the tracked days from the last Battle Day backwards. The
// early finish day and unobserved days do not count against the member.
func deckRule(threshold float64, usage [domain.BattleDays]*int, days int, early bool) Determination {
	required := threshold * float64(days)
	actual := 0.0

	for i := domain.BattleDays - 1; i >= domain.BattleDays-days; i-- {
		if early && i == domain.BattleDays-1 {
			required -= threshold
			continue
		}
		if usage[i] == nil {
			required -= threshold
			continue
		}
		actual += float64(*usage[i])
	}

	return Determination{ShouldStrike: actual < required, Actual: actual, Required: required}
}

func medalRule(threshold float64, medals, days int, early bool) Determination {
	perDay := threshold / domain.BattleDays
	required := perDay * float64(days)
	if early {
		required -= perDay
	}

	actual := float64(medals)
	return Determination{ShouldStrike: actual < required, Actual: actual, Required: required}
}
