package domain

import (
	"fmt"
	"time"
)

// ParticipationRecord is the per-user usage ledger of one river race.
type ParticipationRecord struct {
	ID                uint            `gorm:"primaryKey"`
	ClanAffiliationID uint            `gorm:"column:clan_affiliation_id;uniqueIndex:idx_participation;not null"`
	Affiliation       ClanAffiliation `gorm:"foreignKey:ClanAffiliationID"`
	RiverRaceID       uint            `gorm:"column:river_race_id;uniqueIndex:idx_participation;not null"`
	TrackedSince      time.Time       `gorm:"column:tracked_since;not null"`
	LastCheck         time.Time       `gorm:"column:last_check"`

	Day1Decks *int `gorm:"column:day_1"`
	Day2Decks *int `gorm:"column:day_2"`
	Day3Decks *int `gorm:"column:day_3"`
	Day4Decks *int `gorm:"column:day_4"`

	Day1Active bool `gorm:"column:day_1_active;default:false"`
	Day2Active bool `gorm:"column:day_2_active;default:false"`
	Day3Active bool `gorm:"column:day_3_active;default:false"`
	Day4Active bool `gorm:"column:day_4_active;default:false"`

	Day1LockedOut bool `gorm:"column:day_1_locked_out;default:false"`
	Day2LockedOut bool `gorm:"column:day_2_locked_out;default:false"`
	Day3LockedOut bool `gorm:"column:day_3_locked_out;default:false"`
	Day4LockedOut bool `gorm:"column:day_4_locked_out;default:false"`

	Day1OutsideBattles *int `gorm:"column:day_1_outside_battles"`
	Day2OutsideBattles *int `gorm:"column:day_2_outside_battles"`
	Day3OutsideBattles *int `gorm:"column:day_3_outside_battles"`
	Day4OutsideBattles *int `gorm:"column:day_4_outside_battles"`

	Medals        int `gorm:"column:medals;default:0"`
	RegularWins   int `gorm:"column:regular_wins;default:0"`
	RegularLosses int `gorm:"column:regular_losses;default:0"`
	SpecialWins   int `gorm:"column:special_wins;default:0"`
	SpecialLosses int `gorm:"column:special_losses;default:0"`
	DuelMatchWins int `gorm:"column:duel_match_wins;default:0"`
	DuelMatchLoss int `gorm:"column:duel_match_losses;default:0"`
	SeriesWins    int `gorm:"column:series_wins;default:0"`
	SeriesLosses  int `gorm:"column:series_losses;default:0"`
	BoatWins      int `gorm:"column:boat_wins;default:0"`
	BoatLosses    int `gorm:"column:boat_losses;default:0"`
}

func (ParticipationRecord) TableName() string {
	return "river_race_user_data"
}

func NewParticipationRecord(affiliationID, raceID uint, trackedSince time.Time) ParticipationRecord {
	return ParticipationRecord{
		ClanAffiliationID: affiliationID,
		RiverRaceID:       raceID,
		TrackedSince:      trackedSince.UTC(),
		LastCheck:         trackedSince.UTC(),
	}
}

func checkDay(day int) error {
	if day < 1 || day > BattleDays {
		return fmt.Errorf("battle day %d out of range", day)
	}
	return nil
}

// DeckUsage returns decks used on each Battle Day, nil where not yet observed.
func (p *ParticipationRecord) DeckUsage() [BattleDays]*int {
	return [BattleDays]*int{p.Day1Decks, p.Day2Decks, p.Day3Decks, p.Day4Decks}
}

// SetDecks records decks used on day (1-4). Values outside [0,4] are rejected.
func (p *ParticipationRecord) SetDecks(day, decks int) error {
	if err := checkDay(day); err != nil {
		return err
	}
	if decks < 0 || decks > MaxDecksPerDay {
		return fmt.Errorf("%w: %d decks on day %d", ErrInconsistentUsage, decks, day)
	}

	v := decks
	switch day {
	case 1:
		p.Day1Decks = &v
	case 2:
		p.Day2Decks = &v
	case 3:
		p.Day3Decks = &v
	case 4:
		p.Day4Decks = &v
	}
	return nil
}

func (p *ParticipationRecord) SetActive(day int, active bool) error {
	if err := checkDay(day); err != nil {
		return err
	}
	switch day {
	case 1:
		p.Day1Active = active
	case 2:
		p.Day2Active = active
	case 3:
		p.Day3Active = active
	case 4:
		p.Day4Active = active
	}
	return nil
}

func (p *ParticipationRecord) SetLockedOut(day int, lockedOut bool) error {
	if err := checkDay(day); err != nil {
		return err
	}
	switch day {
	case 1:
		p.Day1LockedOut = lockedOut
	case 2:
		p.Day2LockedOut = lockedOut
	case 3:
		p.Day3LockedOut = lockedOut
	case 4:
		p.Day4LockedOut = lockedOut
	}
	return nil
}

func (p *ParticipationRecord) LockedOut() [BattleDays]bool {
	return [BattleDays]bool{p.Day1LockedOut, p.Day2LockedOut, p.Day3LockedOut, p.Day4LockedOut}
}

func (p *ParticipationRecord) OutsideBattles() [BattleDays]*int {
	return [BattleDays]*int{p.Day1OutsideBattles, p.Day2OutsideBattles, p.Day3OutsideBattles, p.Day4OutsideBattles}
}

// RecordOutsideBattles stores count in the outside-battle slot of day. It
// returns false without writing when the slot was already used, so a warning
// for the same reset window is only raised once.
func (p *ParticipationRecord) RecordOutsideBattles(day, count int) (bool, error) {
	if err := checkDay(day); err != nil {
		return false, err
	}
	slots := []**int{&p.Day1OutsideBattles, &p.Day2OutsideBattles, &p.Day3OutsideBattles, &p.Day4OutsideBattles}
	if *slots[day-1] != nil {
		return false, nil
	}
	v := count
	*slots[day-1] = &v
	return true, nil
}

// DeckUsageSum adds up the four daily counters, treating unobserved days as zero.
func (p *ParticipationRecord) DeckUsageSum() int {
	sum := 0
	for _, d := range p.DeckUsage() {
		if d != nil {
			sum += *d
		}
	}
	return sum
}

// StatsSum is the number of individual battles recorded in the win/loss
// counters. Duel series are excluded since every duel match is already one deck.
func (p *ParticipationRecord) StatsSum() int {
	return p.RegularWins + p.RegularLosses +
		p.SpecialWins + p.SpecialLosses +
		p.DuelMatchWins + p.DuelMatchLoss +
		p.BoatWins + p.BoatLosses
}

// ExpectedMedals is the medal total implied by the win/loss counters.
func (p *ParticipationRecord) ExpectedMedals() int {
	return 200*(p.RegularWins+p.SpecialWins) +
		100*(p.RegularLosses+p.SpecialLosses+p.DuelMatchLoss) +
		250*p.DuelMatchWins +
		125*p.BoatWins +
		75*p.BoatLosses
}

// AddStats folds a battle log window into the counters.
func (p *ParticipationRecord) AddStats(s BattleStats) {
	p.RegularWins += s.RegularWins
	p.RegularLosses += s.RegularLosses
	p.SpecialWins += s.SpecialWins
	p.SpecialLosses += s.SpecialLosses
	p.DuelMatchWins += s.DuelMatchWins
	p.DuelMatchLoss += s.DuelMatchLosses
	p.SeriesWins += s.SeriesWins
	p.SeriesLosses += s.SeriesLosses
	p.BoatWins += s.BoatWins
	p.BoatLosses += s.BoatLosses
}

// UserTag is the tag of the owning user when the affiliation was preloaded.
func (p *ParticipationRecord) UserTag() string {
	return p.Affiliation.User.Tag
}

func (p *ParticipationRecord) UserName() string {
	return p.Affiliation.User.Name
}
