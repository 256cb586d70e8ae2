package battlestats

import (
	"clanManager/business/resettime"
	"clanManager/domain"
	"clanManager/pkg/logger"
	"context"
	"fmt"
	"time"
)

// ClashRepository contract interface
type ClashRepository interface {
	Participants(ctx context.Context, clanTag string, duringEvent bool) ([]domain.Participant, error)
	BattleLog(ctx context.Context, playerTag, clanTag string, since, until time.Time) (domain.BattleLog, error)
}

// RaceRepository contract interface
type RaceRepository interface {
	RecentRace(ctx context.Context, clanTag string, n int) (domain.RiverRace, bool, error)
	UpdateRace(ctx context.Context, race *domain.RiverRace) error
}

// ParticipationRepository contract interface
type ParticipationRepository interface {
	ListByRace(ctx context.Context, raceID uint) ([]domain.ParticipationRecord, error)
	Save(ctx context.Context, record *domain.ParticipationRecord) error
}

// BattleRepository contract interface
type BattleRepository interface {
	CreateBattles(ctx context.Context, battles []domain.Battle) error
}

// MemberRegistrar creates the users and participation records of
// participants the database does not know yet.
type MemberRegistrar interface {
	EnsureParticipants(ctx context.Context, clanTag string, participants []domain.Participant) error
}

type battleStatsService struct {
	clashRepo         ClashRepository
	raceRepo          RaceRepository
	participationRepo ParticipationRepository
	battleRepo        BattleRepository
	registrar         MemberRegistrar
	now               func() time.Time
}

func NewBattleStatsService(
	clashRepo ClashRepository,
	raceRepo RaceRepository,
	participationRepo ParticipationRepository,
	battleRepo BattleRepository,
	registrar MemberRegistrar,
) *battleStatsService {
	return &battleStatsService{
		clashRepo:         clashRepo,
		raceRepo:          raceRepo,
		participationRepo: participationRepo,
		battleRepo:        battleRepo,
		registrar:         registrar,
		now:               time.Now,
	}
}

func byTag(records []domain.ParticipationRecord) map[string]*domain.ParticipationRecord {
	out := make(map[string]*domain.ParticipationRecord, len(records))
	for i := range records {
		out[records[i].UserTag()] = &records[i]
	}
	return out
}

// UpdateClanBattleDayStats reads the battle log of every participant that
// earned medals since the last check and adds the results to their record.
// After the race the window ends at the last reset.
func (s *battleStatsService) UpdateClanBattleDayStats(ctx context.Context, clanTag string, postRace bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	participants, err := s.clashRepo.Participants(ctx, clanTag, !postRace)
	if err != nil {
		return fmt.Errorf("failed to get participants of %s: %w", clanTag, err)
	}

	race, ok, err := s.raceRepo.RecentRace(ctx, clanTag, 0)
	if err != nil {
		return fmt.Errorf("failed to get race of %s: %w", clanTag, err)
	}
	if !ok {
		return fmt.Errorf("race of %s: %w", clanTag, domain.ErrNotFound)
	}

	known, err := s.participationRepo.ListByRace(ctx, race.ID)
	if err != nil {
		return fmt.Errorf("failed to list participation of race %d: %w", race.ID, err)
	}
	prior := byTag(known)

	if err := s.registrar.EnsureParticipants(ctx, clanTag, participants); err != nil {
		logger.Warn("Failed to register new participants", "clan", clanTag, "error", err)
	}
	current, err := s.participationRepo.ListByRace(ctx, race.ID)
	if err != nil {
		return fmt.Errorf("failed to list participation of race %d: %w", race.ID, err)
	}
	records := byTag(current)

	lastClanCheck := race.LastCheck
	until := s.now().UTC()
	race.LastCheck = until
	if err := s.raceRepo.UpdateRace(ctx, &race); err != nil {
		return fmt.Errorf("failed to set last check: %w", err)
	}

	if postRace {
		if reset, ok := resettime.Latest(race.ResetTimes()); ok {
			until = reset
		}
	}

	updated := 0
	for _, p := range participants {
		var since time.Time
		if rec, ok := prior[p.Tag]; ok {
			if p.Medals <= rec.Medals {
				continue
			}
			since = rec.LastCheck
		} else {
			if p.Medals <= 0 {
				continue
			}
			since = lastClanCheck
		}

		rec, ok := records[p.Tag]
		if !ok {
			logger.Warn("No participation record for participant", "tag", p.Tag, "clan", clanTag)
			continue
		}

		battleLog, err := s.clashRepo.BattleLog(ctx, p.Tag, clanTag, since, until)
		if err != nil {
			logger.Warn("Failed to get stats", "tag", p.Tag, "clan", clanTag, "last_check", since, "error", err)
			continue
		}

		if err := s.record(ctx, race, rec, p, battleLog, until); err != nil {
			logger.Error("Failed to record battle day stats", "tag", p.Tag, "error", err)
			continue
		}
		updated++
	}

	logger.Info("Battle day stats updated", "clan", clanTag, "post_race", postRace, "users", updated)
	return nil
}

func (s *battleStatsService) record(ctx context.Context, race domain.RiverRace, rec *domain.ParticipationRecord, p domain.Participant, battleLog domain.BattleLog, until time.Time) error {
	rec.AddStats(battleLog.Stats)
	rec.Medals = p.Medals
	rec.LastCheck = until

	if len(battleLog.Battles) > 0 {
		battles := make([]domain.Battle, len(battleLog.Battles))
		for i, b := range battleLog.Battles {
			b.ParticipationID = rec.ID
			b.UserID = rec.Affiliation.UserID
			b.ClanID = race.ClanID
			battles[i] = b
		}
		if err := s.battleRepo.CreateBattles(ctx, battles); err != nil {
			return err
		}
	}

	return s.participationRepo.Save(ctx, rec)
}
