package anomaly

import (
	"clanManager/business/resettime"
	"clanManager/domain"
	"clanManager/pkg/logger"
	"clanManager/pkg/metrics"
	"context"
	"fmt"
	"time"
)

// RaceRepository contract interface
type RaceRepository interface {
	RecentRace(ctx context.Context, clanTag string, n int) (domain.RiverRace, bool, error)
}

// ParticipationRepository contract interface
type ParticipationRepository interface {
	ListByRace(ctx context.Context, raceID uint) ([]domain.ParticipationRecord, error)
	Save(ctx context.Context, record *domain.ParticipationRecord) error
}

// BattleRepository contract interface
type BattleRepository interface {
	ListByParticipation(ctx context.Context, participationID uint) ([]domain.Battle, error)
}

type reconcilerService struct {
	raceRepo          RaceRepository
	participationRepo ParticipationRepository
	battleRepo        BattleRepository
}

func NewReconcilerService(
	raceRepo RaceRepository,
	participationRepo ParticipationRepository,
	battleRepo BattleRepository,
) *reconcilerService {
	return &reconcilerService{
		raceRepo:          raceRepo,
		participationRepo: participationRepo,
		battleRepo:        battleRepo,
	}
}

// BucketBattles counts battles per Battle Day. bounds holds the reset opening
// the first Battle Day followed by the resets closing each day; a battle at t
// belongs to day k when bounds[k] <= t < bounds[k+1]. Battles outside every
// day are not counted.
func BucketBattles(battles []domain.Battle, bounds []time.Time) [domain.BattleDays]int {
	var counts [domain.BattleDays]int
	for _, b := range battles {
		for k := 0; k < domain.BattleDays && k+1 < len(bounds); k++ {
			if !b.Time.Before(bounds[k]) && b.Time.Before(bounds[k+1]) {
				counts[k]++
				break
			}
		}
	}
	return counts
}

// Correct rewrites the deck usage of rec from its battles when the ledger
// undercounted. It returns false without touching rec when the record is
// consistent or when the battle data cannot be trusted; the error explains
// the latter.
func Correct(rec *domain.ParticipationRecord, battles []domain.Battle, bounds []time.Time) (bool, error) {
	usageSum, statsSum := rec.DeckUsageSum(), rec.StatsSum()
	if usageSum >= statsSum {
		return false, nil
	}

	if expected := rec.ExpectedMedals(); expected != rec.Medals {
		return false, fmt.Errorf("%w: medals %d do not match battle results %d", domain.ErrInconsistentUsage, rec.Medals, expected)
	}

	counts := BucketBattles(battles, bounds)
	total := 0
	for _, c := range counts {
		total += c
	}
	if total != statsSum {
		return false, fmt.Errorf("%w: %d battles in the race days, %d in the counters", domain.ErrInconsistentUsage, total, statsSum)
	}

	usage := rec.DeckUsage()
	for day, c := range counts {
		recorded := 0
		if usage[day] != nil {
			recorded = *usage[day]
		}
		if c < recorded || c > domain.MaxDecksPerDay {
			return false, fmt.Errorf("%w: day %d has %d battles, %d recorded", domain.ErrInconsistentUsage, day+1, c, recorded)
		}
	}

	for day, c := range counts {
		if err := rec.SetDecks(day+1, c); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Reconcile runs once after a race ended and fixes undercounted deck usage
// of every participant from their stored battles.
func (s *reconcilerService) Reconcile(ctx context.Context, clanTag string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	race, ok, err := s.raceRepo.RecentRace(ctx, clanTag, 0)
	if err != nil {
		return fmt.Errorf("failed to get race of %s: %w", clanTag, err)
	}
	if !ok {
		return fmt.Errorf("race of %s: %w", clanTag, domain.ErrNotFound)
	}

	bounds, err := resettime.Reconstruct(race.BattleDayResets())
	if err != nil {
		logger.Warn("Skipping anomaly reconciliation", "clan", clanTag, "race", race.ID, "error", err)
		return nil
	}

	records, err := s.participationRepo.ListByRace(ctx, race.ID)
	if err != nil {
		return fmt.Errorf("failed to list participation of race %d: %w", race.ID, err)
	}

	corrected := 0
	for i := range records {
		rec := &records[i]
		tag := rec.UserTag()

		if usageSum, statsSum := rec.DeckUsageSum(), rec.StatsSum(); usageSum > statsSum {
			logger.Warn("Deck usage exceeds recorded battles", "tag", tag, "deck_usage", usageSum, "battles", statsSum)
			continue
		} else if usageSum == statsSum {
			continue
		}

		battles, err := s.battleRepo.ListByParticipation(ctx, rec.ID)
		if err != nil {
			logger.Error("Failed to get battles", "tag", tag, "error", err)
			continue
		}

		changed, err := Correct(rec, battles, bounds)
		if err != nil {
			metrics.DeckUsageCorrections.WithLabelValues("anomaly_skipped").Inc()
			logger.Warn("Deck usage anomaly not correctable", "tag", tag, "error", err)
			continue
		}
		if !changed {
			continue
		}

		if err := s.participationRepo.Save(ctx, rec); err != nil {
			logger.Error("Failed to save corrected deck usage", "tag", tag, "error", err)
			continue
		}
		metrics.DeckUsageCorrections.WithLabelValues("anomaly").Inc()
		corrected++
	}

	logger.Info("Anomaly reconciliation finished", "clan", clanTag, "race", race.ID, "corrected", corrected)
	return nil
}
