package domain

import (
	"fmt"
	"time"
)

const (
	// RaceDays is the number of daily reset slots stored on a river race.
	RaceDays = 7
	// BattleDays is the number of days on which decks count towards participation.
	BattleDays = 4
	// MaxDecksPerDay is the most decks a single member can use on one Battle Day.
	MaxDecksPerDay = 4
	// MaxParticipants is how many distinct members may battle for a clan per day.
	MaxParticipants = 50
	// ClanDecksPerDay is MaxParticipants * MaxDecksPerDay.
	ClanDecksPerDay = MaxParticipants * MaxDecksPerDay
	// CompletionMedals are the medals a clan needs to finish a race early.
	CompletionMedals = 10000
)

// RiverRace is one weekly event cycle of a clan. Day1..Day7 hold the detected
// reset timestamps; Day4..Day7 close the four Battle Days.
type RiverRace struct {
	ID                uint       `gorm:"primaryKey"`
	ClanID            uint       `gorm:"column:clan_id;uniqueIndex:idx_race_cycle;not null"`
	Clan              Clan       `gorm:"foreignKey:ClanID"`
	SeasonID          uint       `gorm:"column:season_id;uniqueIndex:idx_race_cycle;not null"`
	Week              int        `gorm:"column:week;uniqueIndex:idx_race_cycle;not null"`
	StartTime         time.Time  `gorm:"column:start_time;not null"`
	ColosseumWeek     bool       `gorm:"column:colosseum_week;default:false"`
	CompletedSaturday bool       `gorm:"column:completed_saturday;default:false"`
	LastCheck         time.Time  `gorm:"column:last_check"`
	Day1              *time.Time `gorm:"column:day_1"`
	Day2              *time.Time `gorm:"column:day_2"`
	Day3              *time.Time `gorm:"column:day_3"`
	Day4              *time.Time `gorm:"column:day_4"`
	Day5              *time.Time `gorm:"column:day_5"`
	Day6              *time.Time `gorm:"column:day_6"`
	Day7              *time.Time `gorm:"column:day_7"`
	CreatedAt         time.Time
}

func (RiverRace) TableName() string {
	return "river_races"
}

// ResetTimes returns the seven reset slots in day order.
func (r *RiverRace) ResetTimes() []*time.Time {
	return []*time.Time{r.Day1, r.Day2, r.Day3, r.Day4, r.Day5, r.Day6, r.Day7}
}

// BattleDayResets returns day_3..day_7: the reset that opens the first Battle
// Day followed by the resets closing each of the four Battle Days.
func (r *RiverRace) BattleDayResets() []*time.Time {
	return []*time.Time{r.Day3, r.Day4, r.Day5, r.Day6, r.Day7}
}

// SetResetTime stores the reset timestamp of day (1-7).
func (r *RiverRace) SetResetTime(day int, t time.Time) error {
	t = t.UTC()
	switch day {
	case 1:
		r.Day1 = &t
	case 2:
		r.Day2 = &t
	case 3:
		r.Day3 = &t
	case 4:
		r.Day4 = &t
	case 5:
		r.Day5 = &t
	case 6:
		r.Day6 = &t
	case 7:
		r.Day7 = &t
	default:
		return fmt.Errorf("reset day %d out of range", day)
	}

	return nil
}

// RaceRef identifies the nth most recent river race of a clan.
type RaceRef struct {
	RaceID   uint
	ClanID   uint
	SeasonID uint
	Week     int
}

// RiverRaceInfo is the live state of a clan's current race.
type RiverRaceInfo struct {
	ClanTag     string
	ClanName    string
	Fame        int
	PeriodIndex int
	PeriodType  string
	// StartTime is the end of the previous race.
	StartTime time.Time
	// Clans lists tag -> name for every clan in the race.
	Clans map[string]string
}

func (i RiverRaceInfo) Week() int {
	return i.PeriodIndex/7 + 1
}

func (i RiverRaceInfo) Colosseum() bool {
	return i.PeriodType == "colosseum"
}

// CompletedSaturday reports whether the clan finished the race on the last
// regular Battle Day. Colosseum races cannot finish early.
func (i RiverRaceInfo) CompletedSaturday() bool {
	return i.PeriodIndex%7 == 6 && i.Fame >= CompletionMedals && !i.Colosseum()
}

// BattleTime reports whether the race is currently on a Battle Day.
func (i RiverRaceInfo) BattleTime() bool {
	return i.PeriodType == "warDay" || i.PeriodType == "colosseum"
}

// BattleDay returns the current Battle Day (1-4) of the race.
func (i RiverRaceInfo) BattleDay() (int, bool) {
	if !i.BattleTime() {
		return 0, false
	}
	day := i.PeriodIndex%7 - 2
	if day < 1 || day > BattleDays {
		return 0, false
	}
	return day, true
}
