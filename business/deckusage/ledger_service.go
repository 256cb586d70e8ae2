package deckusage

import (
	"clanManager/business/resettime"
	"clanManager/domain"
	"clanManager/pkg/logger"
	"clanManager/pkg/metrics"
	"context"
	"fmt"
	"sync"
	"time"
)

// RaceRepository contract interface
type RaceRepository interface {
	CurrentRace(ctx context.Context, clanTag string) (domain.RiverRace, bool, error)
	UpdateRace(ctx context.Context, race *domain.RiverRace) error
}

// ParticipationRepository contract interface
type ParticipationRepository interface {
	ListByRace(ctx context.Context, raceID uint) ([]domain.ParticipationRecord, error)
	FindByRaceAndTag(ctx context.Context, raceID uint, tag string) (domain.ParticipationRecord, bool, error)
	Save(ctx context.Context, record *domain.ParticipationRecord) error
}

// ClashRepository contract interface
type ClashRepository interface {
	Participants(ctx context.Context, clanTag string, duringEvent bool) ([]domain.Participant, error)
	ClanMembers(ctx context.Context, clanTag string) ([]domain.ClanMember, error)
	OutsideBattles(ctx context.Context, playerTag, clanTag string, since time.Time) (int, error)
	RiverRaceInfo(ctx context.Context, clanTag string) (domain.RiverRaceInfo, error)
}

// WarningQueue receives outside-battle warnings for later notification.
type WarningQueue interface {
	Push(ctx context.Context, warning domain.OutsideBattlesWarning) error
}

type ledgerService struct {
	raceRepo          RaceRepository
	participationRepo ParticipationRepository
	clashRepo         ClashRepository
	warnings          WarningQueue
	now               func() time.Time

	mu        sync.Mutex
	detectors map[string]*ResetDetector
}

func NewLedgerService(
	raceRepo RaceRepository,
	participationRepo ParticipationRepository,
	clashRepo ClashRepository,
	warnings WarningQueue,
) *ledgerService {
	return &ledgerService{
		raceRepo:          raceRepo,
		participationRepo: participationRepo,
		clashRepo:         clashRepo,
		warnings:          warnings,
		now:               time.Now,
		detectors:         make(map[string]*ResetDetector),
	}
}

// detectorFor returns the detector of clanTag for the window ending at
// deadline, replacing one left over from an earlier window.
func (s *ledgerService) detectorFor(clanTag string, deadline time.Time) *ResetDetector {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.detectors[clanTag]
	if !ok || !d.Deadline().Equal(deadline) {
		d = NewResetDetector(deadline)
		s.detectors[clanTag] = d
	}
	return d
}

func (s *ledgerService) currentDetector(clanTag string) (*ResetDetector, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.detectors[clanTag]
	return d, ok
}

// PollReset takes one pre-reset poll of clanTag for the window ending at deadline.
func (s *ledgerService) PollReset(ctx context.Context, clanTag string, deadline time.Time) (State, error) {
	if err := ctx.Err(); err != nil {
		return Waiting, fmt.Errorf("context error: %w", err)
	}

	d := s.detectorFor(clanTag, deadline)
	if d.State() != Waiting {
		return d.State(), nil
	}

	participants, err := s.clashRepo.Participants(ctx, clanTag, true)
	if err != nil {
		return Waiting, fmt.Errorf("failed to poll participants of %s: %w", clanTag, err)
	}

	state := d.Tick(s.now(), domain.NewDeckUsageSnapshot(participants))
	if state == Detected {
		logger.Info("Daily reset detected", "clan", clanTag)
	}
	return state, nil
}

// ExpireReset closes the detection window of clanTag. A last poll is
// attempted first; if it fails the freshest earlier poll is used.
func (s *ledgerService) ExpireReset(ctx context.Context, clanTag string, deadline time.Time) State {
	d := s.detectorFor(clanTag, deadline)

	if d.State() == Waiting {
		if participants, err := s.clashRepo.Participants(ctx, clanTag, true); err == nil {
			d.Tick(s.now(), domain.NewDeckUsageSnapshot(participants))
		} else {
			logger.Warn("Final reset poll failed", "clan", clanTag, "error", err)
		}
	}

	state := d.Expire(s.now())
	if state == DeadlineExpired {
		logger.Warn("Reset not detected before deadline", "clan", clanTag)
	}
	return state
}

// RecordReset stores the detected reset time as day (1-7) of the current race.
// A window that expired without a detection stores nothing.
func (s *ledgerService) RecordReset(ctx context.Context, clanTag string, day int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	d, ok := s.currentDetector(clanTag)
	if !ok {
		return fmt.Errorf("no reset window for %s", clanTag)
	}
	switch d.State() {
	case Waiting:
		return fmt.Errorf("reset window of %s still open", clanTag)
	case DeadlineExpired:
		// the slot stays empty and is rebuilt from the neighbouring resets
		logger.Warn("Reset time unknown, day left empty", "clan", clanTag, "day", day)
		return nil
	}
	resetTime, _ := d.ResetTime()

	race, ok, err := s.raceRepo.CurrentRace(ctx, clanTag)
	if err != nil {
		return fmt.Errorf("failed to get current race of %s: %w", clanTag, err)
	}
	if !ok {
		return fmt.Errorf("current race of %s: %w", clanTag, domain.ErrNotFound)
	}

	if err := race.SetResetTime(day, resetTime); err != nil {
		return err
	}
	if err := s.raceRepo.UpdateRace(ctx, &race); err != nil {
		return fmt.Errorf("failed to store reset time: %w", err)
	}

	return nil
}

func activeSet(members []domain.ClanMember) map[string]bool {
	active := make(map[string]bool, len(members))
	for _, m := range members {
		active[m.Tag] = true
	}
	return active
}

// RecordDay writes the pre-reset usage of battleDay (1-4) into every
// participation record of the current race and stores the reset that closed it.
func (s *ledgerService) RecordDay(ctx context.Context, clanTag string, battleDay int) error {
	if battleDay < 1 || battleDay > domain.BattleDays {
		return fmt.Errorf("battle day %d out of range", battleDay)
	}
	if err := s.RecordReset(ctx, clanTag, battleDay+3); err != nil {
		return err
	}

	d, _ := s.currentDetector(clanTag)
	pre, ok := d.PreReset()
	if !ok {
		logger.Warn("No pre-reset snapshot, deck usage not recorded", "clan", clanTag, "day", battleDay)
		return nil
	}

	race, _, err := s.raceRepo.CurrentRace(ctx, clanTag)
	if err != nil {
		return fmt.Errorf("failed to get current race of %s: %w", clanTag, err)
	}

	members, err := s.clashRepo.ClanMembers(ctx, clanTag)
	if err != nil {
		return fmt.Errorf("failed to get members of %s: %w", clanTag, err)
	}
	active := activeSet(members)
	lockedOut := LockedOut(pre, active)

	records, err := s.participationRepo.ListByRace(ctx, race.ID)
	if err != nil {
		return fmt.Errorf("failed to list participation of race %d: %w", race.ID, err)
	}

	for i := range records {
		rec := &records[i]
		tag := rec.UserTag()
		participant, seen := pre.Participants[tag]
		if !seen && !active[tag] {
			continue
		}

		if err := rec.SetDecks(battleDay, participant.DecksUsedToday); err != nil {
			logger.Warn("Skipping deck usage", "tag", tag, "day", battleDay, "error", err)
			continue
		}
		if err := rec.SetActive(battleDay, active[tag]); err != nil {
			logger.Warn("Skipping activity flag", "tag", tag, "day", battleDay, "error", err)
			continue
		}
		if err := rec.SetLockedOut(battleDay, lockedOut[tag]); err != nil {
			logger.Warn("Skipping lock-out flag", "tag", tag, "day", battleDay, "error", err)
			continue
		}

		if err := s.participationRepo.Save(ctx, rec); err != nil {
			logger.Error("Failed to save deck usage", "tag", tag, "day", battleDay, "error", err)
		}
	}

	logger.Info("Recorded deck usage", "clan", clanTag, "day", battleDay, "participants", len(pre.Participants), "locked_out", len(lockedOut))
	return nil
}

// ApplyPostReset reconciles the recorded usage of battleDay against a poll
// taken after the reset. After the last Battle Day the finished race is read.
func (s *ledgerService) ApplyPostReset(ctx context.Context, clanTag string, battleDay int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	d, ok := s.currentDetector(clanTag)
	if !ok {
		return fmt.Errorf("no reset window for %s", clanTag)
	}
	pre, _ := d.PreReset()

	participants, err := s.clashRepo.Participants(ctx, clanTag, battleDay < domain.BattleDays)
	if err != nil {
		return fmt.Errorf("failed to get post-reset participants of %s: %w", clanTag, err)
	}
	post := domain.NewDeckUsageSnapshot(participants)

	race, ok, err := s.raceRepo.CurrentRace(ctx, clanTag)
	if err != nil {
		return fmt.Errorf("failed to get current race of %s: %w", clanTag, err)
	}
	if !ok {
		return fmt.Errorf("current race of %s: %w", clanTag, domain.ErrNotFound)
	}

	records, err := s.participationRepo.ListByRace(ctx, race.ID)
	if err != nil {
		return fmt.Errorf("failed to list participation of race %d: %w", race.ID, err)
	}

	for i := range records {
		rec := &records[i]
		changed, err := applyPostReset(rec, battleDay, pre, post)
		if err != nil {
			metrics.DeckUsageCorrections.WithLabelValues("remedy_skipped").Inc()
			logger.Warn("Post-reset correction skipped", "tag", rec.UserTag(), "day", battleDay, "error", err)
			continue
		}
		if !changed {
			continue
		}

		metrics.DeckUsageCorrections.WithLabelValues("remedy").Inc()
		if err := s.participationRepo.Save(ctx, rec); err != nil {
			logger.Error("Failed to save post-reset correction", "tag", rec.UserTag(), "error", err)
		}
	}

	return nil
}

// applyPostReset updates rec for battleDay from the two snapshots.
// Members absent from the pre-reset poll joined after it; the decks in their
// post-reset total that are neither recorded nor used since the reset belong
// to battleDay.
func applyPostReset(rec *domain.ParticipationRecord, battleDay int, pre, post domain.DeckUsageSnapshot) (bool, error) {
	tag := rec.UserTag()
	postP, inPost := post.Participants[tag]
	if !inPost {
		return false, nil
	}

	current := rec.DeckUsage()[battleDay-1]

	var decks int
	if preP, inPre := pre.Participants[tag]; inPre {
		resolved, err := ResolveDay(preP, postP)
		if err != nil {
			return false, err
		}
		decks = resolved
	} else {
		prior := 0
		for day, used := range rec.DeckUsage() {
			if day < battleDay-1 && used != nil {
				prior += *used
			}
		}
		decks = postP.DecksUsedTotal - prior
		if battleDay < domain.BattleDays {
			// decks used since the reset belong to the next Battle Day
			decks -= postP.DecksUsedToday
		}
		if decks <= 0 {
			return false, nil
		}
	}

	if current != nil && *current == decks {
		return false, nil
	}
	if err := rec.SetDecks(battleDay, decks); err != nil {
		return false, err
	}
	return true, nil
}

// CheckOutsideBattles queues a warning when playerTag already used decks for
// another clan since the last reset. It reports whether a warning was queued.
func (s *ledgerService) CheckOutsideBattles(ctx context.Context, clanTag, playerTag string, battleDay int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	race, ok, err := s.raceRepo.CurrentRace(ctx, clanTag)
	if err != nil || !ok {
		return false, err
	}

	rec, ok, err := s.participationRepo.FindByRaceAndTag(ctx, race.ID, playerTag)
	if err != nil || !ok {
		return false, err
	}
	if rec.OutsideBattles()[battleDay-1] != nil {
		return false, nil
	}

	since, ok := resettime.Latest(race.ResetTimes())
	if !ok {
		since = race.StartTime
	}

	count, err := s.clashRepo.OutsideBattles(ctx, playerTag, clanTag, since)
	if err != nil {
		return false, fmt.Errorf("failed to check outside battles of %s: %w", playerTag, err)
	}
	if count == 0 {
		return false, nil
	}

	written, err := rec.RecordOutsideBattles(battleDay, count)
	if err != nil || !written {
		return false, err
	}
	if err := s.participationRepo.Save(ctx, &rec); err != nil {
		return false, fmt.Errorf("failed to save outside battles: %w", err)
	}

	warning := domain.OutsideBattlesWarning{
		Tag:            playerTag,
		Name:           rec.UserName(),
		ClanTag:        clanTag,
		OutsideBattles: count,
	}
	if err := s.warnings.Push(ctx, warning); err != nil {
		return false, fmt.Errorf("failed to queue outside battles warning: %w", err)
	}

	logger.Info("Queued outside battles warning", "tag", playerTag, "clan", clanTag, "battles", count)
	return true, nil
}
