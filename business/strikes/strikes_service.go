package strikes

import (
	"clanManager/domain"
	"clanManager/pkg/logger"
	"clanManager/pkg/metrics"
	"context"
	"fmt"
)

// ClanRepository contract interface
type ClanRepository interface {
	PrimaryClanByTag(ctx context.Context, clanTag string) (domain.PrimaryClan, bool, error)
}

// RaceRepository contract interface
type RaceRepository interface {
	// RecentRace returns the nth most recent race of a clan, 0 being the current one.
	RecentRace(ctx context.Context, clanTag string, n int) (domain.RiverRace, bool, error)
}

// ParticipationRepository contract interface
type ParticipationRepository interface {
	ListByRace(ctx context.Context, raceID uint) ([]domain.ParticipationRecord, error)
}

// UserRepository contract interface
type UserRepository interface {
	FindByTag(ctx context.Context, tag string) (domain.User, bool, error)
	Update(ctx context.Context, user *domain.User) error
}

// NotificationRepository contract interface
type NotificationRepository interface {
	SendStrikeSummary(ctx context.Context, clanTag string, struck []domain.StrikeNotice) error
}

type Evaluation struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
	Determination
}

type strikesService struct {
	clanRepo          ClanRepository
	raceRepo          RaceRepository
	participationRepo ParticipationRepository
	userRepo          UserRepository
	notifRepo         NotificationRepository
}

func NewStrikesService(
	clanRepo ClanRepository,
	raceRepo RaceRepository,
	participationRepo ParticipationRepository,
	userRepo UserRepository,
	notifRepo NotificationRepository,
) *strikesService {
	return &strikesService{
		clanRepo:          clanRepo,
		raceRepo:          raceRepo,
		participationRepo: participationRepo,
		userRepo:          userRepo,
		notifRepo:         notifRepo,
	}
}

func (s *strikesService) policy(ctx context.Context, clanTag string) (domain.StrikePolicy, error) {
	clan, ok, err := s.clanRepo.PrimaryClanByTag(ctx, clanTag)
	if err != nil {
		return domain.StrikePolicy{}, fmt.Errorf("failed to get primary clan %s: %w", clanTag, err)
	}
	if !ok {
		return domain.StrikePolicy{}, fmt.Errorf("primary clan %s: %w", clanTag, domain.ErrNotFound)
	}
	return clan.StrikePolicy(), nil
}

// EvaluateStrikes determines for every current member of the clan's most
// recent race whether they fell short of the clan's requirement.
func (s *strikesService) EvaluateStrikes(ctx context.Context, clanTag string) ([]Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	policy, err := s.policy(ctx, clanTag)
	if err != nil {
		return nil, err
	}

	race, ok, err := s.raceRepo.RecentRace(ctx, clanTag, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get race of %s: %w", clanTag, err)
	}
	if !ok {
		return nil, fmt.Errorf("race of %s: %w", clanTag, domain.ErrNotFound)
	}

	records, err := s.participationRepo.ListByRace(ctx, race.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participation of race %d: %w", race.ID, err)
	}

	r := Race{Resets: race.BattleDayResets(), CompletedEarly: race.CompletedSaturday}
	result := make([]Evaluation, 0, len(records))

	for i := range records {
		rec := &records[i]
		if !rec.Affiliation.Active() {
			continue
		}

		det, ok := Evaluate(policy, Participation{
			Usage:        rec.DeckUsage(),
			Medals:       rec.Medals,
			TrackedSince: rec.TrackedSince,
		}, r)
		if !ok {
			logger.Warn("Reset times unreconstructable, strikes not evaluated", "clan", clanTag, "race", race.ID)
			return []Evaluation{}, nil
		}

		result = append(result, Evaluation{Tag: rec.UserTag(), Name: rec.UserName(), Determination: det})
	}

	return result, nil
}

// AssignAutomatedStrikes gives one strike to every member that fell short
// when the clan assigns strikes automatically, and posts a summary.
func (s *strikesService) AssignAutomatedStrikes(ctx context.Context, clanTag string) ([]domain.StrikeNotice, error) {
	policy, err := s.policy(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	if !policy.Enabled {
		logger.Info("Automated strikes disabled", "clan", clanTag)
		return []domain.StrikeNotice{}, nil
	}

	evaluations, err := s.EvaluateStrikes(ctx, clanTag)
	if err != nil {
		return nil, err
	}

	struck := []domain.StrikeNotice{}
	for _, e := range evaluations {
		if !e.ShouldStrike {
			continue
		}

		change, err := s.UpdateStrikes(ctx, e.Tag, 1)
		if err != nil {
			logger.Error("Failed to assign strike", "tag", e.Tag, "error", err)
			continue
		}

		metrics.StrikesAssigned.Inc()
		struck = append(struck, domain.StrikeNotice{
			Tag:      e.Tag,
			Name:     e.Name,
			Actual:   e.Actual,
			Required: e.Required,
			Strikes:  change.Current,
		})
	}

	if err := s.notifRepo.SendStrikeSummary(ctx, clanTag, struck); err != nil {
		logger.Error("Failed to send strike summary", "clan", clanTag, "error", err)
	}

	logger.Info("Automated strikes assigned", "clan", clanTag, "count", len(struck))
	return struck, nil
}

// UpdateStrikes adds delta to the strike count of tag. Counts never go below zero.
func (s *strikesService) UpdateStrikes(ctx context.Context, tag string, delta int) (domain.StrikeChange, error) {
	if err := ctx.Err(); err != nil {
		return domain.StrikeChange{}, fmt.Errorf("context error: %w", err)
	}

	user, ok, err := s.userRepo.FindByTag(ctx, tag)
	if err != nil {
		return domain.StrikeChange{}, fmt.Errorf("failed to get user %s: %w", tag, err)
	}
	if !ok {
		return domain.StrikeChange{}, fmt.Errorf("user %s: %w", tag, domain.ErrNotFound)
	}

	change := domain.StrikeChange{Tag: user.Tag, Name: user.Name, Previous: user.Strikes}
	user.Strikes = max(user.Strikes+delta, 0)
	change.Current = user.Strikes

	if err := s.userRepo.Update(ctx, &user); err != nil {
		return domain.StrikeChange{}, fmt.Errorf("failed to update strikes of %s: %w", tag, err)
	}

	return change, nil
}

func (s *strikesService) Strikes(ctx context.Context, tag string) (domain.StrikeChange, error) {
	if err := ctx.Err(); err != nil {
		return domain.StrikeChange{}, fmt.Errorf("context error: %w", err)
	}

	user, ok, err := s.userRepo.FindByTag(ctx, tag)
	if err != nil {
		return domain.StrikeChange{}, fmt.Errorf("failed to get user %s: %w", tag, err)
	}
	if !ok {
		return domain.StrikeChange{}, fmt.Errorf("user %s: %w", tag, domain.ErrNotFound)
	}

	return domain.StrikeChange{Tag: user.Tag, Name: user.Name, Previous: user.Strikes, Current: user.Strikes}, nil
}
