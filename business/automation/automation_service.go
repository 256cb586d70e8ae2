package automation

import (
	"clanManager/business/deckusage"
	"clanManager/domain"
	"clanManager/pkg/logger"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ClanRepository contract interface
type ClanRepository interface {
	ListPrimaryClans(ctx context.Context) ([]domain.PrimaryClan, error)
}

// RaceRepository contract interface
type RaceRepository interface {
	RecentRace(ctx context.Context, clanTag string, n int) (domain.RiverRace, bool, error)
	UpdateRace(ctx context.Context, race *domain.RiverRace) error
	CreateRace(ctx context.Context, race *domain.RiverRace) error
}

// SeasonRepository contract interface
type SeasonRepository interface {
	LatestSeason(ctx context.Context) (domain.Season, bool, error)
	CreateSeason(ctx context.Context, season *domain.Season) error
}

// AffiliationRepository contract interface
type AffiliationRepository interface {
	ListActiveByClan(ctx context.Context, clanID uint) ([]domain.ClanAffiliation, error)
}

// ParticipationRepository contract interface
type ParticipationRepository interface {
	Create(ctx context.Context, record *domain.ParticipationRecord) error
}

// ClashRepository contract interface
type ClashRepository interface {
	RiverRaceInfo(ctx context.Context, clanTag string) (domain.RiverRaceInfo, error)
}

// WarningQueue contract interface
type WarningQueue interface {
	Pop(ctx context.Context) (domain.OutsideBattlesWarning, bool, error)
}

// NotificationRepository contract interface
type NotificationRepository interface {
	SendOutsideBattlesWarning(ctx context.Context, name, tag, clanTag string, battles int) error
}

type Ledger interface {
	PollReset(ctx context.Context, clanTag string, deadline time.Time) (deckusage.State, error)
	ExpireReset(ctx context.Context, clanTag string, deadline time.Time) deckusage.State
	RecordReset(ctx context.Context, clanTag string, day int) error
	RecordDay(ctx context.Context, clanTag string, battleDay int) error
	ApplyPostReset(ctx context.Context, clanTag string, battleDay int) error
}

type StatsTracker interface {
	UpdateClanBattleDayStats(ctx context.Context, clanTag string, postRace bool) error
}

type Standings interface {
	UpdateStandings(ctx context.Context, clanTag string, postRace bool) error
	PrepareStandings(ctx context.Context, clanTag string) error
}

type Reconciler interface {
	Reconcile(ctx context.Context, clanTag string) error
}

type StrikeAssigner interface {
	AssignAutomatedStrikes(ctx context.Context, clanTag string) ([]domain.StrikeNotice, error)
}

type MemberSync interface {
	CleanUp(ctx context.Context) (int, error)
}

// Services groups the domain services driven by the automated routines.
type Services struct {
	Ledger     Ledger
	Stats      StatsTracker
	Standings  Standings
	Reconciler Reconciler
	Strikes    StrikeAssigner
	Members    MemberSync
}

// Repositories groups the storage and upstream dependencies of the routines.
type Repositories struct {
	Clans         ClanRepository
	Races         RaceRepository
	Seasons       SeasonRepository
	Affiliations  AffiliationRepository
	Participation ParticipationRepository
	Clash         ClashRepository
	Warnings      WarningQueue
	Notifications NotificationRepository
}

const (
	resetHour = 10
	// maxWarningsPerRun bounds one drain of the outside-battle queue.
	maxWarningsPerRun = 50
)

type automationService struct {
	svc  Services
	repo Repositories
	now  func() time.Time

	// handled maps a clan tag to the deadline of the last window whose daily routine ran.
	handled map[string]time.Time
	cleaned time.Time
	mu      sync.Mutex
}

func NewAutomationService(svc Services, repo Repositories) *automationService {
	return &automationService{
		svc:     svc,
		repo:    repo,
		now:     time.Now,
		handled: make(map[string]time.Time),
	}
}

// ResetDeadline is the end of the reset detection window containing now.
func ResetDeadline(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), resetHour, 0, 0, 0, time.UTC)
}

// BattleDayClosedBy maps the weekday of a daily reset to the Battle Day it ends.
func BattleDayClosedBy(weekday time.Weekday) (int, bool) {
	switch weekday {
	case time.Friday:
		return 1, true
	case time.Saturday:
		return 2, true
	case time.Sunday:
		return 3, true
	case time.Monday:
		return 4, true
	}
	return 0, false
}

// trainingResetDay maps the weekday of a reset before the Battle Days to its race day slot.
func trainingResetDay(weekday time.Weekday) (int, bool) {
	switch weekday {
	case time.Tuesday:
		return 1, true
	case time.Wednesday:
		return 2, true
	case time.Thursday:
		return 3, true
	}
	return 0, false
}

// FirstDayOfSeason reports whether now is the first Monday of a month.
func FirstDayOfSeason(now time.Time) bool {
	now = now.UTC()
	return now.Month() != now.AddDate(0, 0, -7).Month()
}

func (s *automationService) isHandled(tag string, deadline time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.handled[tag]
	return ok && d.Equal(deadline)
}

func (s *automationService) markHandled(tag string, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handled[tag] = deadline
}

// cleanUpOnce re-syncs members before the first daily routine of a window.
func (s *automationService) cleanUpOnce(ctx context.Context, deadline time.Time) {
	s.mu.Lock()
	done := s.cleaned.Equal(deadline)
	s.mu.Unlock()
	if done {
		return
	}

	if _, err := s.svc.Members.CleanUp(ctx); err != nil {
		logger.Warn("Error occurred while cleaning up database", "error", err, "trace_id", TraceID(ctx))
		return
	}

	s.mu.Lock()
	s.cleaned = deadline
	s.mu.Unlock()
}

// ResetTick polls every clan whose reset has not been seen yet in the
// current window and runs the daily routine for those where it shows up.
func (s *automationService) ResetTick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	clans, err := s.repo.Clans.ListPrimaryClans(ctx)
	if err != nil {
		return fmt.Errorf("failed to list primary clans: %w", err)
	}

	deadline := ResetDeadline(s.now())
	for _, clan := range clans {
		tag := clan.Clan.Tag
		if s.isHandled(tag, deadline) {
			continue
		}

		state, err := s.svc.Ledger.PollReset(ctx, tag, deadline)
		if err != nil {
			logger.Warn("Skipping reset time check", "clan", tag, "error", err, "trace_id", TraceID(ctx))
			continue
		}
		if state != deckusage.Detected {
			continue
		}

		s.cleanUpOnce(ctx, deadline)
		s.markHandled(tag, deadline)
		s.dailyReset(ctx, clan, deadline.Weekday())
	}
	return nil
}

// ResetDeadlineReached closes the detection window of every clan whose reset
// was not detected and runs its daily routine on the freshest data available.
func (s *automationService) ResetDeadlineReached(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	clans, err := s.repo.Clans.ListPrimaryClans(ctx)
	if err != nil {
		return fmt.Errorf("failed to list primary clans: %w", err)
	}

	deadline := ResetDeadline(s.now())
	for _, clan := range clans {
		tag := clan.Clan.Tag
		if s.isHandled(tag, deadline) {
			continue
		}

		logger.Warn("Daily reset not detected", "clan", tag, "trace_id", TraceID(ctx))
		s.svc.Ledger.ExpireReset(ctx, tag, deadline)
		s.cleanUpOnce(ctx, deadline)
		s.markHandled(tag, deadline)
		s.dailyReset(ctx, clan, deadline.Weekday())
	}
	return nil
}

// dailyReset runs the routine for the reset on weekday. Every step is
// attempted even when an earlier one fails.
func (s *automationService) dailyReset(ctx context.Context, clan domain.PrimaryClan, weekday time.Weekday) {
	tag := clan.Clan.Tag
	warn := func(step string, err error) {
		if err != nil {
			logger.Warn("Daily reset step failed", "clan", tag, "step", step, "error", err, "trace_id", TraceID(ctx))
		}
	}

	if day, ok := trainingResetDay(weekday); ok {
		warn("record_reset", s.svc.Ledger.RecordReset(ctx, tag, day))
		if weekday == time.Thursday {
			warn("prepare_standings", s.svc.Standings.PrepareStandings(ctx, tag))
		}
		return
	}

	battleDay, ok := BattleDayClosedBy(weekday)
	if !ok {
		return
	}

	// The last Battle Day is settled by the end of race routine.
	if clan.TrackStats && battleDay < domain.BattleDays {
		warn("battle_stats", s.svc.Stats.UpdateClanBattleDayStats(ctx, tag, false))
		warn("standings", s.svc.Standings.UpdateStandings(ctx, tag, false))
	}
	warn("record_day", s.svc.Ledger.RecordDay(ctx, tag, battleDay))
}

// PostReset reconciles the day just closed against the first poll after the
// reset. On Mondays it is followed by the end of race routine.
func (s *automationService) PostReset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	now := s.now().UTC()
	battleDay, ok := BattleDayClosedBy(now.Weekday())
	if !ok {
		return nil
	}

	clans, err := s.repo.Clans.ListPrimaryClans(ctx)
	if err != nil {
		return fmt.Errorf("failed to list primary clans: %w", err)
	}

	for _, clan := range clans {
		tag := clan.Clan.Tag
		if err := s.svc.Ledger.ApplyPostReset(ctx, tag, battleDay); err != nil {
			logger.Warn("Post reset check failed", "clan", tag, "error", err, "trace_id", TraceID(ctx))
		}
		if battleDay == 3 {
			if err := s.markCompletedSaturday(ctx, tag); err != nil {
				logger.Warn("Completion check failed", "clan", tag, "error", err, "trace_id", TraceID(ctx))
			}
		}
	}

	if battleDay == domain.BattleDays {
		return s.EndOfRace(ctx, clans)
	}
	return nil
}

func (s *automationService) markCompletedSaturday(ctx context.Context, clanTag string) error {
	info, err := s.repo.Clash.RiverRaceInfo(ctx, clanTag)
	if err != nil {
		return err
	}
	if !info.CompletedSaturday() {
		return nil
	}

	race, ok, err := s.repo.Races.RecentRace(ctx, clanTag, 0)
	if err != nil || !ok {
		return err
	}
	race.CompletedSaturday = true
	return s.repo.Races.UpdateRace(ctx, &race)
}

// EndOfRace settles the finished race of every clan and opens the next one.
func (s *automationService) EndOfRace(ctx context.Context, clans []domain.PrimaryClan) error {
	var errs []error
	for _, clan := range clans {
		if !clan.TrackStats {
			continue
		}
		tag := clan.Clan.Tag
		if err := s.svc.Stats.UpdateClanBattleDayStats(ctx, tag, true); err != nil {
			errs = append(errs, fmt.Errorf("battle stats of %s: %w", tag, err))
		}
		if err := s.svc.Standings.UpdateStandings(ctx, tag, true); err != nil {
			errs = append(errs, fmt.Errorf("standings of %s: %w", tag, err))
		}
		if err := s.svc.Reconciler.Reconcile(ctx, tag); err != nil {
			errs = append(errs, fmt.Errorf("reconcile %s: %w", tag, err))
		}
		if _, err := s.svc.Strikes.AssignAutomatedStrikes(ctx, tag); err != nil {
			errs = append(errs, fmt.Errorf("strikes of %s: %w", tag, err))
		}
	}

	now := s.now().UTC()
	if FirstDayOfSeason(now) {
		season := domain.Season{StartTime: now}
		if err := s.repo.Seasons.CreateSeason(ctx, &season); err != nil {
			return errors.Join(append(errs, fmt.Errorf("failed to create season: %w", err))...)
		}
		logger.Info("Started new season", "season", season.ID, "trace_id", TraceID(ctx))
	}

	for _, clan := range clans {
		if err := s.PrepareRace(ctx, clan); err != nil {
			errs = append(errs, fmt.Errorf("new race of %s: %w", clan.Clan.Tag, err))
		}
	}

	return errors.Join(errs...)
}

// PrepareRace creates the river race of the current week for clan and starts
// tracking every active member.
func (s *automationService) PrepareRace(ctx context.Context, clan domain.PrimaryClan) error {
	season, ok, err := s.repo.Seasons.LatestSeason(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest season: %w", err)
	}
	if !ok {
		return fmt.Errorf("season: %w", domain.ErrNotFound)
	}

	info, err := s.repo.Clash.RiverRaceInfo(ctx, clan.Clan.Tag)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	race := domain.RiverRace{
		ClanID:        clan.ClanID,
		SeasonID:      season.ID,
		Week:          info.Week(),
		StartTime:     now,
		ColosseumWeek: info.Colosseum(),
		LastCheck:     now,
	}
	if err := s.repo.Races.CreateRace(ctx, &race); err != nil {
		return fmt.Errorf("failed to create race: %w", err)
	}

	if !clan.TrackStats {
		return nil
	}

	affiliations, err := s.repo.Affiliations.ListActiveByClan(ctx, clan.ClanID)
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}
	for _, a := range affiliations {
		record := domain.NewParticipationRecord(a.ID, race.ID, now)
		if err := s.repo.Participation.Create(ctx, &record); err != nil {
			logger.Warn("Could not start tracking member", "affiliation", a.ID, "error", err, "trace_id", TraceID(ctx))
		}
	}

	logger.Info("Prepared river race", "clan", clan.Clan.Tag, "week", race.Week, "members", len(affiliations), "trace_id", TraceID(ctx))
	return nil
}

// BattleStats runs the hourly stats update of every tracked clan.
func (s *automationService) BattleStats(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	clans, err := s.repo.Clans.ListPrimaryClans(ctx)
	if err != nil {
		return fmt.Errorf("failed to list primary clans: %w", err)
	}

	for _, clan := range clans {
		if !clan.TrackStats {
			continue
		}
		if err := s.svc.Stats.UpdateClanBattleDayStats(ctx, clan.Clan.Tag, false); err != nil {
			logger.Warn("Battle stats update failed", "clan", clan.Clan.Tag, "error", err, "trace_id", TraceID(ctx))
		}
	}
	return nil
}

// DrainWarnings forwards queued outside-battle warnings to Discord. A warning
// that cannot be delivered is dropped after logging.
func (s *automationService) DrainWarnings(ctx context.Context) (int, error) {
	sent := 0
	for i := 0; i < maxWarningsPerRun; i++ {
		if err := ctx.Err(); err != nil {
			return sent, fmt.Errorf("context error: %w", err)
		}

		w, ok, err := s.repo.Warnings.Pop(ctx)
		if err != nil {
			return sent, fmt.Errorf("failed to pop warning: %w", err)
		}
		if !ok {
			break
		}

		if err := s.repo.Notifications.SendOutsideBattlesWarning(ctx, w.Name, w.Tag, w.ClanTag, w.OutsideBattles); err != nil {
			logger.Error("Failed to send outside battles warning", "tag", w.Tag, "error", err, "trace_id", TraceID(ctx))
			continue
		}
		sent++
	}
	return sent, nil
}
