package clashapi

import (
	"clanManager/domain"
	"context"
	"fmt"
	"strings"
	"time"
)

func (r *ClashAPIRepository) Player(ctx context.Context, tag string) (domain.Player, error) {
	var raw apiPlayer
	if err := r.get(ctx, "player", "/players/"+escapeTag(tag), &raw); err != nil {
		return domain.Player{}, fmt.Errorf("failed to get player %s: %w", tag, err)
	}

	player := domain.Player{
		Tag:          raw.Tag,
		Name:         raw.Name,
		ExpLevel:     raw.ExpLevel,
		Trophies:     raw.Trophies,
		BestTrophies: raw.BestTrophies,
	}
	if raw.Clan != nil {
		player.ClanTag = raw.Clan.Tag
		player.ClanName = raw.Clan.Name
		player.Role = normalizeRole(raw.Role)
	}
	return player, nil
}

func (r *ClashAPIRepository) battleLog(ctx context.Context, playerTag string) ([]apiBattle, error) {
	var raw []apiBattle
	if err := r.get(ctx, "battlelog", "/players/"+escapeTag(playerTag)+"/battlelog", &raw); err != nil {
		return nil, fmt.Errorf("failed to get battle log of %s: %w", playerTag, err)
	}
	return raw, nil
}

func isWarBattle(b apiBattle) bool {
	return strings.HasPrefix(b.Type, "riverRace") || b.Type == "boatBattle"
}

func deckOf(cards []apiCard) []domain.DeckCard {
	deck := make([]domain.DeckCard, 0, len(cards))
	for _, c := range cards {
		deck = append(deck, domain.DeckCard{ID: c.ID, LevelOffset: c.MaxLevel - c.Level})
	}
	return deck
}

// BattleLog scans the battle log of a player for war battles fought for
// clanTag within [since, until).
func (r *ClashAPIRepository) BattleLog(ctx context.Context, playerTag, clanTag string, since, until time.Time) (domain.BattleLog, error) {
	raw, err := r.battleLog(ctx, playerTag)
	if err != nil {
		return domain.BattleLog{}, err
	}

	return interpretBattleLog(raw, clanTag, since, until)
}

func interpretBattleLog(raw []apiBattle, clanTag string, since, until time.Time) (domain.BattleLog, error) {
	var result domain.BattleLog

	for _, b := range raw {
		if len(b.Team) == 0 {
			continue
		}
		if !isWarBattle(b) || b.clanTag() != clanTag {
			continue
		}
		t, err := parseBattleTime(b.BattleTime)
		if err != nil {
			return domain.BattleLog{}, err
		}
		if t.Before(since) || !t.Before(until) {
			continue
		}

		switch {
		case b.Type == "riverRacePvP":
			if len(b.Opponent) == 0 {
				continue
			}
			won := b.Team[0].Crowns > b.Opponent[0].Crowns
			category := domain.BattleSpecial
			if b.GameMode.Name == "CW_Battle_1v1" {
				category = domain.BattleRegular
			}
			switch {
			case category == domain.BattleRegular && won:
				result.Stats.RegularWins++
			case category == domain.BattleRegular:
				result.Stats.RegularLosses++
			case won:
				result.Stats.SpecialWins++
			default:
				result.Stats.SpecialLosses++
			}
			battle, err := domain.NewBattle(t, category, won, b.GameMode.Name, deckOf(b.Team[0].Cards))
			if err != nil {
				return domain.BattleLog{}, err
			}
			result.Battles = append(result.Battles, battle)

		case b.Type == "boatBattle" && b.BoatBattleSide == "attacker":
			if b.BoatBattleWon {
				result.Stats.BoatWins++
			} else {
				result.Stats.BoatLosses++
			}
			battle, err := domain.NewBattle(t, domain.BattleBoat, b.BoatBattleWon, b.GameMode.Name, deckOf(b.Team[0].Cards))
			if err != nil {
				return domain.BattleLog{}, err
			}
			result.Battles = append(result.Battles, battle)

		case strings.HasPrefix(b.Type, "riverRaceDuel"):
			if len(b.Opponent) == 0 {
				continue
			}
			wins, losses := 0, 0
			for i, round := range b.Team[0].Rounds {
				if i >= len(b.Opponent[0].Rounds) {
					break
				}
				won := round.Crowns > b.Opponent[0].Rounds[i].Crowns
				if won {
					wins++
				} else {
					losses++
				}
				battle, err := domain.NewBattle(t, domain.BattleDuel, won, b.GameMode.Name, deckOf(round.Cards))
				if err != nil {
					return domain.BattleLog{}, err
				}
				result.Battles = append(result.Battles, battle)
			}
			result.Stats.DuelMatchWins += wins
			result.Stats.DuelMatchLosses += losses
			if wins > losses {
				result.Stats.SeriesWins++
			} else {
				result.Stats.SeriesLosses++
			}
		}
	}

	return result, nil
}

// OutsideBattles counts war battles a player fought after since for a clan other than clanTag.
func (r *ClashAPIRepository) OutsideBattles(ctx context.Context, playerTag, clanTag string, since time.Time) (int, error) {
	raw, err := r.battleLog(ctx, playerTag)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, b := range raw {
		if !isWarBattle(b) || b.clanTag() == "" || b.clanTag() == clanTag {
			continue
		}
		t, err := parseBattleTime(b.BattleTime)
		if err != nil {
			return 0, err
		}
		if !t.After(since) {
			continue
		}
		if strings.HasPrefix(b.Type, "riverRaceDuel") && len(b.Team[0].Rounds) > 0 {
			count += len(b.Team[0].Rounds)
		} else {
			count++
		}
	}
	return count, nil
}
