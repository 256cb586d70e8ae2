package deckstats

import (
	"clanManager/domain"
	"clanManager/pkg/logger"
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultRequiredMatches = 10
	baseWindowDays         = 35
	warDecks               = 4
	deckSize               = 8
	cycleCards             = 4
)

// BattleRepository contract interface
type BattleRepository interface {
	// PvPBattlesSince lists regular and duel war battles after since. An empty
	// clanTag selects battles of every clan.
	PvPBattlesSince(ctx context.Context, clanTag string, since time.Time) ([]domain.DeckBattle, error)
}

type deckStatsService struct {
	battleRepo BattleRepository
	catalog    *CardCatalog
	now        func() time.Time
}

func NewDeckStatsService(battleRepo BattleRepository, catalog *CardCatalog) *deckStatsService {
	return &deckStatsService{
		battleRepo: battleRepo,
		catalog:    catalog,
		now:        time.Now,
	}
}

// WindowDays is the lookback of deck statistics. From Thursday on the days
// since Wednesday are added so the current race is always included.
func WindowDays(now time.Time) int {
	weekday := (int(now.UTC().Weekday()) + 6) % 7
	days := baseWindowDays
	if weekday >= 3 {
		days += weekday - 2
	}
	return days
}

func parseDeckKey(key string) ([]int, error) {
	parts := strings.Split(key, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid deck key %q: %w", key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ElixirInfo returns the average elixir of a deck rounded to one decimal and
// the cost of its four cheapest cards.
func ElixirInfo(cards []int, catalog map[int]domain.Card) (avg, cycle float64) {
	costs := make([]float64, 0, len(cards))
	for _, id := range cards {
		costs = append(costs, catalog[id].Elixir)
	}
	sort.Float64s(costs)

	sum := 0.0
	for i, c := range costs {
		sum += c
		if i < cycleCards {
			cycle += c
		}
	}
	return math.Round(sum/deckSize*10) / 10, cycle
}

// BestDecks ranks every deck played at least requiredMatches times in the
// window, highest win rate first.
func (s *deckStatsService) BestDecks(ctx context.Context, clanTag string, requiredMatches int) ([]domain.DeckStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if requiredMatches <= 0 {
		requiredMatches = DefaultRequiredMatches
	}

	now := s.now().UTC()
	since := now.AddDate(0, 0, -WindowDays(now))

	battles, err := s.battleRepo.PvPBattlesSince(ctx, clanTag, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get battles: %w", err)
	}

	type tally struct {
		wins, losses int
		users        map[string]struct{}
	}
	tallies := make(map[string]*tally)
	for _, b := range battles {
		t, ok := tallies[b.DeckKey]
		if !ok {
			t = &tally{users: make(map[string]struct{})}
			tallies[b.DeckKey] = t
		}
		if b.Won {
			t.wins++
		} else {
			t.losses++
		}
		t.users[b.UserName] = struct{}{}
	}

	catalog := s.catalog.Cards(ctx)
	decks := make([]domain.DeckStat, 0)

	for key, t := range tallies {
		if t.wins+t.losses < requiredMatches {
			continue
		}
		cards, err := parseDeckKey(key)
		if err != nil {
			logger.Warn("Skipping deck", "error", err)
			continue
		}
		avg, cycle := ElixirInfo(cards, catalog)
		decks = append(decks, domain.DeckStat{
			Cards:     cards,
			Wins:      t.wins,
			Losses:    t.losses,
			Users:     len(t.users),
			AvgElixir: avg,
			CycleCost: cycle,
		})
	}

	sortByWinRate(decks)
	return decks, nil
}

func sortByWinRate(decks []domain.DeckStat) {
	sort.SliceStable(decks, func(i, j int) bool {
		if wi, wj := decks[i].WinRate(), decks[j].WinRate(); wi != wj {
			return wi > wj
		}
		if decks[i].Matches() != decks[j].Matches() {
			return decks[i].Matches() > decks[j].Matches()
		}
		return domain.DeckKey(decks[i].Cards) < domain.DeckKey(decks[j].Cards)
	})
}

// SuggestWarDecks picks the four card-disjoint decks with the highest summed
// win rate from the current best decks.
func (s *deckStatsService) SuggestWarDecks(ctx context.Context, clanTag string, requiredMatches int) ([]domain.DeckStat, error) {
	decks, err := s.BestDecks(ctx, clanTag, requiredMatches)
	if err != nil {
		return nil, err
	}
	return OptimalWarDecks(decks), nil
}

type cardSet map[int]struct{}

func (c cardSet) overlaps(cards []int) bool {
	for _, id := range cards {
		if _, ok := c[id]; ok {
			return true
		}
	}
	return false
}

func (c cardSet) with(cards []int) cardSet {
	out := make(cardSet, len(c)+len(cards))
	for id := range c {
		out[id] = struct{}{}
	}
	for _, id := range cards {
		out[id] = struct{}{}
	}
	return out
}

// OptimalWarDecks searches every combination of four decks sharing no card
// and returns the one with the highest summed win rate, best deck first. Each
// nesting level keeps its own union of the cards chosen so far. It returns
// an empty slice when no four disjoint decks exist.
func OptimalWarDecks(decks []domain.DeckStat) []domain.DeckStat {
	n := len(decks)
	best := -1.0
	var choice [warDecks]int

	for i := 0; i < n-3; i++ {
		u1 := cardSet{}.with(decks[i].Cards)

		for j := i + 1; j < n-2; j++ {
			if u1.overlaps(decks[j].Cards) {
				continue
			}
			u2 := u1.with(decks[j].Cards)

			for k := j + 1; k < n-1; k++ {
				if u2.overlaps(decks[k].Cards) {
					continue
				}
				u3 := u2.with(decks[k].Cards)

				for l := k + 1; l < n; l++ {
					if u3.overlaps(decks[l].Cards) {
						continue
					}

					total := decks[i].WinRate() + decks[j].WinRate() + decks[k].WinRate() + decks[l].WinRate()
					if total > best {
						best = total
						choice = [warDecks]int{i, j, k, l}
					}
				}
			}
		}
	}

	if best < 0 {
		return []domain.DeckStat{}
	}

	out := make([]domain.DeckStat, 0, warDecks)
	for _, idx := range choice {
		out = append(out, decks[idx])
	}
	sortByWinRate(out)
	return out
}
