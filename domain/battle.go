package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type BattleCategory string

const (
	BattleRegular BattleCategory = "regular"
	BattleSpecial BattleCategory = "special"
	BattleDuel    BattleCategory = "duel"
	BattleBoat    BattleCategory = "boat"
)

// PvP reports whether the category is a standard war match used for deck stats.
func (c BattleCategory) PvP() bool {
	return c == BattleRegular || c == BattleDuel
}

// DeckCard is one card of a deck and its level relative to the max level.
type DeckCard struct {
	ID          int `json:"id"`
	LevelOffset int `json:"level_offset"`
}

// Battle is one individually timestamped war match. Immutable once stored.
type Battle struct {
	ID              uint           `gorm:"primaryKey"`
	ParticipationID uint           `gorm:"column:participation_id;index;not null"`
	UserID          uint           `gorm:"column:user_id;index;not null"`
	ClanID          uint           `gorm:"column:clan_id;index;not null"`
	Time            time.Time      `gorm:"column:time;index;not null"`
	Category        BattleCategory `gorm:"column:category;not null"`
	Won             bool           `gorm:"column:won"`
	Deck            datatypes.JSON `gorm:"column:deck"`
	DeckKey         string         `gorm:"column:deck_key;index"`
	// GameMode is the raw game mode name, e.g. CW_Battle_1v1.
	GameMode string `gorm:"column:game_mode"`
}

func (Battle) TableName() string {
	return "battles"
}

// NewBattle builds a battle with its deck serialised and its canonical key set.
func NewBattle(t time.Time, category BattleCategory, won bool, gameMode string, cards []DeckCard) (Battle, error) {
	raw, err := json.Marshal(cards)
	if err != nil {
		return Battle{}, fmt.Errorf("failed to marshal deck: %w", err)
	}

	ids := make([]int, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}

	return Battle{
		Time:     t.UTC(),
		Category: category,
		Won:      won,
		Deck:     datatypes.JSON(raw),
		DeckKey:  DeckKey(ids),
		GameMode: gameMode,
	}, nil
}

func (b Battle) Cards() ([]DeckCard, error) {
	var cards []DeckCard
	if len(b.Deck) == 0 {
		return cards, nil
	}
	if err := json.Unmarshal(b.Deck, &cards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck: %w", err)
	}
	return cards, nil
}

// DeckKey is the canonical form of an unordered card set.
func DeckKey(ids []int) string {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// BattleStats are the win/loss counters of a battle log window.
type BattleStats struct {
	RegularWins     int `json:"regular_wins"`
	RegularLosses   int `json:"regular_losses"`
	SpecialWins     int `json:"special_wins"`
	SpecialLosses   int `json:"special_losses"`
	DuelMatchWins   int `json:"duel_match_wins"`
	DuelMatchLosses int `json:"duel_match_losses"`
	SeriesWins      int `json:"series_wins"`
	SeriesLosses    int `json:"series_losses"`
	BoatWins        int `json:"boat_wins"`
	BoatLosses      int `json:"boat_losses"`
}

// BattleLog is the result of scanning a player's battle log.
type BattleLog struct {
	Stats   BattleStats
	Battles []Battle
}

// DeckStat aggregates results of one card set. Derived, never stored.
type DeckStat struct {
	Cards     []int   `json:"cards"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Users     int     `json:"users"`
	AvgElixir float64 `json:"avg_elixir"`
	CycleCost float64 `json:"cycle_cost"`
}

func (d DeckStat) Matches() int {
	return d.Wins + d.Losses
}

func (d DeckStat) WinRate() float64 {
	if d.Matches() == 0 {
		return 0
	}
	return float64(d.Wins) / float64(d.Matches())
}

// DeckBattle is the slice of a stored PvP battle needed for deck statistics.
type DeckBattle struct {
	DeckKey  string
	Won      bool
	UserName string
}
