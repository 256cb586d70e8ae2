package domain

import "time"

type StrikeType string

const (
	StrikeTypeDecks  StrikeType = "decks"
	StrikeTypeMedals StrikeType = "medals"
)

type Clan struct {
	ID        uint   `gorm:"primaryKey"`
	Tag       string `gorm:"column:tag;uniqueIndex;not null"`
	Name      string `gorm:"column:name;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Clan) TableName() string {
	return "clans"
}

// PrimaryClan is a clan in the family that the bot actively manages.
type PrimaryClan struct {
	ID              uint       `gorm:"primaryKey"`
	ClanID          uint       `gorm:"column:clan_id;uniqueIndex;not null"`
	Clan            Clan       `gorm:"foreignKey:ClanID"`
	TrackStats      bool       `gorm:"column:track_stats;default:true"`
	SendReminders   bool       `gorm:"column:send_reminders;default:true"`
	AssignStrikes   bool       `gorm:"column:assign_strikes;default:false"`
	StrikeType      StrikeType `gorm:"column:strike_type;default:decks"`
	StrikeThreshold int        `gorm:"column:strike_threshold;default:12"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PrimaryClan) TableName() string {
	return "primary_clans"
}

// StrikePolicy is the participation requirement of a clan.
// Threshold is decks per Battle Day for StrikeTypeDecks and total medals for StrikeTypeMedals.
type StrikePolicy struct {
	Enabled   bool       `json:"enabled"`
	Basis     StrikeType `json:"basis"`
	Threshold int        `json:"threshold"`
}

func (p PrimaryClan) StrikePolicy() StrikePolicy {
	return StrikePolicy{
		Enabled:   p.AssignStrikes,
		Basis:     p.StrikeType,
		Threshold: p.StrikeThreshold,
	}
}

type Season struct {
	ID        uint      `gorm:"primaryKey"`
	StartTime time.Time `gorm:"column:start_time;not null"`
}

func (Season) TableName() string {
	return "seasons"
}
