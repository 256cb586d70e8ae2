package domain

import "time"

// RiverRaceClan is the standing snapshot of a competing clan as seen from a
// tracking primary clan during one season.
type RiverRaceClan struct {
	ID                     uint      `gorm:"primaryKey"`
	TrackingClanID         uint      `gorm:"column:tracking_clan_id;uniqueIndex:idx_rrc;not null"`
	SeasonID               uint      `gorm:"column:season_id;uniqueIndex:idx_rrc;not null"`
	Tag                    string    `gorm:"column:tag;uniqueIndex:idx_rrc;not null"`
	Name                   string    `gorm:"column:name"`
	CurrentRaceMedals      int       `gorm:"column:current_race_medals;default:0"`
	TotalSeasonMedals      int       `gorm:"column:total_season_medals;default:0"`
	CurrentRaceTotalDecks  int       `gorm:"column:current_race_total_decks;default:0"`
	TotalSeasonBattleDecks int       `gorm:"column:total_season_battle_decks;default:0"`
	BattleDays             int       `gorm:"column:battle_days;default:0"`
	LastUpdated            time.Time `gorm:"column:last_updated"`
}

func (RiverRaceClan) TableName() string {
	return "river_race_clans"
}

// MedalsPerDeck is the season average, ok is false before any deck was recorded.
func (c RiverRaceClan) MedalsPerDeck() (float64, bool) {
	if c.TotalSeasonBattleDecks == 0 {
		return 0, false
	}
	return float64(c.TotalSeasonMedals) / float64(c.TotalSeasonBattleDecks), true
}

// AverageDailyDecks is the season average of decks used per Battle Day.
func (c RiverRaceClan) AverageDailyDecks() (float64, bool) {
	if c.BattleDays == 0 {
		return 0, false
	}
	return float64(c.TotalSeasonBattleDecks) / float64(c.BattleDays), true
}

// ApplyDay folds one observed Battle Day into the season totals.
func (c *RiverRaceClan) ApplyDay(live CompetingClan, now time.Time) {
	medalsToday := live.Medals - c.CurrentRaceMedals
	decksToday := live.TotalDecksUsed - c.CurrentRaceTotalDecks
	if medalsToday < 0 {
		medalsToday = 0
	}
	if decksToday < 0 {
		decksToday = 0
	}

	c.TotalSeasonMedals += medalsToday
	c.TotalSeasonBattleDecks += decksToday
	c.BattleDays++
	c.CurrentRaceMedals = live.Medals
	c.CurrentRaceTotalDecks = live.TotalDecksUsed
	c.Name = live.Name
	c.LastUpdated = now.UTC()
}

// StartRace clears the per-race counters ahead of a new week.
func (c *RiverRaceClan) StartRace() {
	c.CurrentRaceMedals = 0
	c.CurrentRaceTotalDecks = 0
}

// PredictedOutcome is the projection of one clan for the current Battle Day.
type PredictedOutcome struct {
	Tag                    string  `json:"tag"`
	Name                   string  `json:"name"`
	CurrentScore           int     `json:"current_score"`
	PredictedScore         int     `json:"predicted_score"`
	ExpectedDecksRemaining int     `json:"expected_decks_remaining"`
	RemainingDecks         int     `json:"remaining_decks"`
	MedalsPerDeck          float64 `json:"medals_per_deck"`
	WinRate                float64 `json:"win_rate"`
	Completed              bool    `json:"completed"`
	// Unset for the leader. -1 when no win rate in [0, 1] earns exactly the medals needed.
	ExpectedDecksCatchupWinRate  *float64 `json:"expected_decks_catchup_win_rate,omitempty"`
	RemainingDecksCatchupWinRate *float64 `json:"remaining_decks_catchup_win_rate,omitempty"`
}

// RiverRaceStatus is how many decks a clan in the race can still use today.
type RiverRaceStatus struct {
	Tag                  string `json:"tag"`
	Name                 string `json:"name"`
	TotalRemainingDecks  int    `json:"total_remaining_decks"`
	ActiveRemainingDecks int    `json:"active_remaining_decks"`
}
