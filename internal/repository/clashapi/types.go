package clashapi

// Raw payloads of the game API. Only fields the bot reads are mapped.

type apiParticipant struct {
	Tag            string `json:"tag"`
	Name           string `json:"name"`
	Fame           int    `json:"fame"`
	RepairPoints   int    `json:"repairPoints"`
	BoatAttacks    int    `json:"boatAttacks"`
	DecksUsed      int    `json:"decksUsed"`
	DecksUsedToday int    `json:"decksUsedToday"`
}

type apiRaceClan struct {
	Tag          string           `json:"tag"`
	Name         string           `json:"name"`
	Fame         int              `json:"fame"`
	Participants []apiParticipant `json:"participants"`
}

type apiCurrentRiverRace struct {
	State       string        `json:"state"`
	Clan        apiRaceClan   `json:"clan"`
	Clans       []apiRaceClan `json:"clans"`
	PeriodIndex int           `json:"periodIndex"`
	PeriodType  string        `json:"periodType"`
}

type apiRiverRaceLog struct {
	Items []struct {
		SeasonID    int    `json:"seasonId"`
		SectionIdx  int    `json:"sectionIndex"`
		CreatedDate string `json:"createdDate"`
		Standings   []struct {
			Rank int         `json:"rank"`
			Clan apiRaceClan `json:"clan"`
		} `json:"standings"`
	} `json:"items"`
}

type apiClanMembers struct {
	Items []struct {
		Tag      string `json:"tag"`
		Name     string `json:"name"`
		Role     string `json:"role"`
		ExpLevel int    `json:"expLevel"`
		Trophies int    `json:"trophies"`
	} `json:"items"`
}

type apiPlayer struct {
	Tag          string `json:"tag"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	ExpLevel     int    `json:"expLevel"`
	Trophies     int    `json:"trophies"`
	BestTrophies int    `json:"bestTrophies"`
	Clan         *struct {
		Tag  string `json:"tag"`
		Name string `json:"name"`
	} `json:"clan"`
}

type apiCard struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Level      int    `json:"level"`
	MaxLevel   int    `json:"maxLevel"`
	ElixirCost *int   `json:"elixirCost"`
	Rarity     string `json:"rarity"`
}

type apiCards struct {
	Items []apiCard `json:"items"`
}

type apiRound struct {
	Crowns int       `json:"crowns"`
	Cards  []apiCard `json:"cards"`
}

type apiTeam struct {
	Tag    string `json:"tag"`
	Crowns int    `json:"crowns"`
	Clan   *struct {
		Tag string `json:"tag"`
	} `json:"clan"`
	Cards  []apiCard  `json:"cards"`
	Rounds []apiRound `json:"rounds"`
}

type apiBattle struct {
	Type       string `json:"type"`
	BattleTime string `json:"battleTime"`
	GameMode   struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"gameMode"`
	BoatBattleSide string    `json:"boatBattleSide"`
	BoatBattleWon  bool      `json:"boatBattleWon"`
	Team           []apiTeam `json:"team"`
	Opponent       []apiTeam `json:"opponent"`
}

func (b apiBattle) clanTag() string {
	if len(b.Team) == 0 || b.Team[0].Clan == nil {
		return ""
	}
	return b.Team[0].Clan.Tag
}
