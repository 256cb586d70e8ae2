package domain

// Participant is one entry of a river race participant list.
type Participant struct {
	Tag            string `json:"tag"`
	Name           string `json:"name"`
	Medals         int    `json:"medals"`
	DecksUsedToday int    `json:"decks_used_today"`
	DecksUsedTotal int    `json:"decks_used_total"`
}

// CompetingClan is the live state of one clan in a river race.
type CompetingClan struct {
	Tag            string `json:"tag"`
	Name           string `json:"name"`
	Medals         int    `json:"medals"`
	TotalDecksUsed int    `json:"total_decks_used"`
	DecksUsedToday int    `json:"decks_used_today"`
	Completed      bool   `json:"completed"`
}

type ClanMember struct {
	Tag      string   `json:"tag"`
	Name     string   `json:"name"`
	Role     ClanRole `json:"role"`
	ExpLevel int      `json:"exp_level"`
	Trophies int      `json:"trophies"`
}

type Player struct {
	Tag          string   `json:"tag"`
	Name         string   `json:"name"`
	Role         ClanRole `json:"role,omitempty"`
	ExpLevel     int      `json:"exp_level"`
	Trophies     int      `json:"trophies"`
	BestTrophies int      `json:"best_trophies"`
	ClanTag      string   `json:"clan_tag,omitempty"`
	ClanName     string   `json:"clan_name,omitempty"`
}

// InClan reports whether the player currently belongs to any clan.
func (p Player) InClan() bool {
	return p.ClanTag != ""
}

type Card struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Elixir   float64 `json:"elixir"`
	Rarity   string  `json:"rarity"`
	MaxLevel int     `json:"max_level"`
}

// DeckUsageSnapshot is one poll of every participant of a clan.
type DeckUsageSnapshot struct {
	Participants map[string]Participant
}

func NewDeckUsageSnapshot(participants []Participant) DeckUsageSnapshot {
	m := make(map[string]Participant, len(participants))
	for _, p := range participants {
		m[p.Tag] = p
	}
	return DeckUsageSnapshot{Participants: m}
}

// TotalToday is the sum of decks used today across all participants.
func (s DeckUsageSnapshot) TotalToday() int {
	total := 0
	for _, p := range s.Participants {
		total += p.DecksUsedToday
	}
	return total
}

// ActiveParticipants counts participants with nonzero usage today.
func (s DeckUsageSnapshot) ActiveParticipants() int {
	n := 0
	for _, p := range s.Participants {
		if p.DecksUsedToday > 0 {
			n++
		}
	}
	return n
}

// OutsideBattlesWarning is queued when a member already battled for another
// clan before joining a tracked clan on a Battle Day.
type OutsideBattlesWarning struct {
	Tag            string `json:"tag"`
	Name           string `json:"name"`
	ClanTag        string `json:"clan_tag"`
	OutsideBattles int    `json:"outside_battles"`
}
