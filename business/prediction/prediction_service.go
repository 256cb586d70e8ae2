package prediction

import (
	"clanManager/domain"
	"clanManager/pkg/logger"
	"clanManager/pkg/metrics"
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// RaceRepository contract interface
type RaceRepository interface {
	RecentRace(ctx context.Context, clanTag string, n int) (domain.RiverRace, bool, error)
}

// StandingRepository contract interface
type StandingRepository interface {
	ListStandings(ctx context.Context, trackingClanID, seasonID uint) ([]domain.RiverRaceClan, error)
	SaveStanding(ctx context.Context, standing *domain.RiverRaceClan) error
}

// ClashRepository contract interface
type ClashRepository interface {
	CompetingClans(ctx context.Context, clanTag string, postEvent bool) (map[string]domain.CompetingClan, error)
}

type Options struct {
	HistoricalWinRates  bool `query:"historical_win_rates"`
	HistoricalDeckUsage bool `query:"historical_deck_usage"`
}

type predictionService struct {
	raceRepo     RaceRepository
	standingRepo StandingRepository
	clashRepo    ClashRepository
	now          func() time.Time
}

func NewPredictionService(
	raceRepo RaceRepository,
	standingRepo StandingRepository,
	clashRepo ClashRepository,
) *predictionService {
	return &predictionService{
		raceRepo:     raceRepo,
		standingRepo: standingRepo,
		clashRepo:    clashRepo,
		now:          time.Now,
	}
}

func (s *predictionService) currentRace(ctx context.Context, clanTag string) (domain.RiverRace, error) {
	race, ok, err := s.raceRepo.RecentRace(ctx, clanTag, 0)
	if err != nil {
		return domain.RiverRace{}, fmt.Errorf("failed to get race of %s: %w", clanTag, err)
	}
	if !ok {
		return domain.RiverRace{}, fmt.Errorf("race of %s: %w", clanTag, domain.ErrNotFound)
	}
	return race, nil
}

func (s *predictionService) standings(ctx context.Context, race domain.RiverRace) (map[string]domain.RiverRaceClan, error) {
	list, err := s.standingRepo.ListStandings(ctx, race.ClanID, race.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}

	out := make(map[string]domain.RiverRaceClan, len(list))
	for _, st := range list {
		out[st.Tag] = st
	}
	return out, nil
}

// PredictOutcome projects today's final score of every clan in the race of
// clanTag, best first. It returns no outcomes when the saved standings do not
// cover exactly the clans currently in the race.
func (s *predictionService) PredictOutcome(ctx context.Context, clanTag string, opts Options) ([]domain.PredictedOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	start := time.Now()
	defer func() { metrics.PredictionLatency.Observe(time.Since(start).Seconds()) }()

	race, err := s.currentRace(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	saved, err := s.standings(ctx, race)
	if err != nil {
		return nil, err
	}
	live, err := s.clashRepo.CompetingClans(ctx, clanTag, false)
	if err != nil {
		return nil, err
	}

	outcomes, ok := Predict(saved, live, opts)
	if !ok {
		logger.Warn("Standings do not match clans in race, no prediction", "clan", clanTag, "saved", len(saved), "live", len(live))
		return []domain.PredictedOutcome{}, nil
	}
	return outcomes, nil
}

// Predict projects every clan from its standing and live state. ok is false
// when the two sets of clans differ.
func Predict(saved map[string]domain.RiverRaceClan, live map[string]domain.CompetingClan, opts Options) ([]domain.PredictedOutcome, bool) {
	if len(saved) != len(live) || len(live) == 0 {
		return nil, false
	}
	for tag := range live {
		if _, ok := saved[tag]; !ok {
			return nil, false
		}
	}

	outcomes := make([]domain.PredictedOutcome, 0, len(live))
	for tag, clan := range live {
		outcomes = append(outcomes, project(saved[tag], clan, opts))
	}

	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].PredictedScore != outcomes[j].PredictedScore {
			return outcomes[i].PredictedScore > outcomes[j].PredictedScore
		}
		if outcomes[i].CurrentScore != outcomes[j].CurrentScore {
			return outcomes[i].CurrentScore > outcomes[j].CurrentScore
		}
		return outcomes[i].Tag < outcomes[j].Tag
	})

	leader := outcomes[0]
	for i := 1; i < len(outcomes); i++ {
		o := &outcomes[i]
		needed := float64(leader.PredictedScore - o.CurrentScore)
		expected := catchup(needed, o.ExpectedDecksRemaining)
		remaining := catchup(needed, o.RemainingDecks)
		o.ExpectedDecksCatchupWinRate = &expected
		o.RemainingDecksCatchupWinRate = &remaining
	}

	return outcomes, true
}

func project(standing domain.RiverRaceClan, live domain.CompetingClan, opts Options) domain.PredictedOutcome {
	medalsPerDeck := FlatMedalsPerDeck
	if opts.HistoricalWinRates {
		if avg, ok := standing.MedalsPerDeck(); ok {
			medalsPerDeck = avg
		}
	}

	remaining := max(domain.ClanDecksPerDay-live.DecksUsedToday, 0)
	expected := remaining
	switch {
	case live.Completed:
		expected = 0
	case opts.HistoricalDeckUsage:
		if avg, ok := standing.AverageDailyDecks(); ok {
			used := float64(live.DecksUsedToday)
			if used > avg {
				expected = int(math.Round(0.25 * float64(remaining)))
			} else {
				expected = int(math.Round(avg - used))
			}
		}
	}
	expected = min(expected, remaining)

	current := max(live.Medals-standing.CurrentRaceMedals, 0)

	return domain.PredictedOutcome{
		Tag:                    live.Tag,
		Name:                   live.Name,
		CurrentScore:           current,
		PredictedScore:         roundToNearest50(float64(current) + float64(expected)*medalsPerDeck),
		ExpectedDecksRemaining: expected,
		RemainingDecks:         remaining,
		MedalsPerDeck:          medalsPerDeck,
		WinRate:                WinRate(medalsPerDeck),
		Completed:              live.Completed,
	}
}

// catchup is the win rate needed to earn needed medals with decks battles.
func catchup(needed float64, decks int) float64 {
	if decks <= 0 {
		return Unreachable
	}
	return WinRate(needed / float64(decks))
}

// UpdateStandings folds the day that just ended into the standing of every
// clan in the race. After the race, clans that finished early are left out
// except in colosseum week since they stopped battling.
func (s *predictionService) UpdateStandings(ctx context.Context, clanTag string, postRace bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	live, err := s.clashRepo.CompetingClans(ctx, clanTag, postRace)
	if err != nil {
		logger.Warn("Unable to get clans in race", "clan", clanTag, "post_race", postRace, "error", err)
		return nil
	}

	race, err := s.currentRace(ctx, clanTag)
	if err != nil {
		return err
	}
	saved, err := s.standings(ctx, race)
	if err != nil {
		return err
	}

	now := s.now()
	for tag, clan := range live {
		if postRace && clan.Completed && !race.ColosseumWeek {
			continue
		}

		standing, ok := saved[tag]
		if !ok {
			standing = domain.RiverRaceClan{TrackingClanID: race.ClanID, SeasonID: race.SeasonID, Tag: tag}
		}
		standing.ApplyDay(clan, now)

		if err := s.standingRepo.SaveStanding(ctx, &standing); err != nil {
			logger.Error("Failed to save standing", "clan", clanTag, "tag", tag, "error", err)
		}
	}

	return nil
}

// PrepareStandings creates or resets the standings of the clans in a race
// that just started. Season totals are only kept within the same season.
func (s *predictionService) PrepareStandings(ctx context.Context, clanTag string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	race, err := s.currentRace(ctx, clanTag)
	if err != nil {
		return err
	}
	live, err := s.clashRepo.CompetingClans(ctx, clanTag, false)
	if err != nil {
		return err
	}
	saved, err := s.standings(ctx, race)
	if err != nil {
		return err
	}

	now := s.now()
	for tag, clan := range live {
		standing, ok := saved[tag]
		if !ok {
			standing = domain.RiverRaceClan{TrackingClanID: race.ClanID, SeasonID: race.SeasonID, Tag: tag}
		}
		standing.Name = clan.Name
		standing.StartRace()
		standing.LastUpdated = now.UTC()

		if err := s.standingRepo.SaveStanding(ctx, &standing); err != nil {
			logger.Error("Failed to save standing", "clan", clanTag, "tag", tag, "error", err)
		}
	}
	return nil
}
