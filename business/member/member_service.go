package member

import (
	"clanManager/domain"
	"clanManager/pkg/logger"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// UserRepository contract interface
type UserRepository interface {
	FindByTag(ctx context.Context, tag string) (domain.User, bool, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
}

// AffiliationRepository contract interface
type AffiliationRepository interface {
	ClearRoles(ctx context.Context, userID uint) error
	FindAffiliation(ctx context.Context, userID, clanID uint) (domain.ClanAffiliation, bool, error)
	SaveAffiliation(ctx context.Context, affiliation *domain.ClanAffiliation) error
	ListActive(ctx context.Context) ([]domain.ClanAffiliation, error)
}

// ClanRepository contract interface
type ClanRepository interface {
	UpsertClan(ctx context.Context, tag, name string) (domain.Clan, error)
	PrimaryClanByTag(ctx context.Context, tag string) (domain.PrimaryClan, bool, error)
	ListPrimaryClans(ctx context.Context) ([]domain.PrimaryClan, error)
}

// RaceRepository contract interface
type RaceRepository interface {
	RecentRace(ctx context.Context, clanTag string, n int) (domain.RiverRace, bool, error)
}

// ParticipationRepository contract interface
type ParticipationRepository interface {
	FindByRaceAndTag(ctx context.Context, raceID uint, tag string) (domain.ParticipationRecord, bool, error)
	Create(ctx context.Context, record *domain.ParticipationRecord) error
}

// ClashRepository contract interface
type ClashRepository interface {
	Player(ctx context.Context, tag string) (domain.Player, error)
	ClanMembers(ctx context.Context, clanTag string) ([]domain.ClanMember, error)
	RiverRaceInfo(ctx context.Context, clanTag string) (domain.RiverRaceInfo, error)
}

// OutsideBattleChecker is satisfied by the deck usage ledger.
type OutsideBattleChecker interface {
	CheckOutsideBattles(ctx context.Context, clanTag, playerTag string, battleDay int) (bool, error)
}

// Registration links a player tag to a Discord account.
type Registration struct {
	Tag         string  `json:"tag" validate:"required,max=16"`
	DiscordID   *string `json:"discord_id" validate:"omitempty,numeric,max=24"`
	DiscordName string  `json:"discord_name" validate:"max=64"`
}

type memberService struct {
	userRepo          UserRepository
	affiliationRepo   AffiliationRepository
	clanRepo          ClanRepository
	raceRepo          RaceRepository
	participationRepo ParticipationRepository
	clashRepo         ClashRepository
	outsideBattles    OutsideBattleChecker
	validate          *validator.Validate
	now               func() time.Time
}

func NewMemberService(
	userRepo UserRepository,
	affiliationRepo AffiliationRepository,
	clanRepo ClanRepository,
	raceRepo RaceRepository,
	participationRepo ParticipationRepository,
	clashRepo ClashRepository,
	outsideBattles OutsideBattleChecker,
	validate *validator.Validate,
) *memberService {
	return &memberService{
		userRepo:          userRepo,
		affiliationRepo:   affiliationRepo,
		clanRepo:          clanRepo,
		raceRepo:          raceRepo,
		participationRepo: participationRepo,
		clashRepo:         clashRepo,
		outsideBattles:    outsideBattles,
		validate:          validate,
		now:               time.Now,
	}
}

func (s *memberService) player(ctx context.Context, tag string) (domain.Player, error) {
	player, err := s.clashRepo.Player(ctx, tag)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Player{}, fmt.Errorf("player %s: %w", tag, domain.ErrInvalidTag)
	}
	return player, err
}

// Register creates the user of reg.Tag, or attaches the Discord account to an
// existing user that has none yet.
func (s *memberService) Register(ctx context.Context, reg Registration) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("context error: %w", err)
	}

	if err := s.validate.Struct(reg); err != nil {
		logger.Error("Invalid registration", "error", err)
		return domain.User{}, fmt.Errorf("invalid registration: %w", err)
	}

	tag, err := ProcessTag(reg.Tag)
	if err != nil {
		return domain.User{}, err
	}

	player, err := s.player(ctx, tag)
	if err != nil {
		return domain.User{}, err
	}

	user, found, err := s.userRepo.FindByTag(ctx, tag)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to find user %s: %w", tag, err)
	}

	switch {
	case !found:
		user = domain.User{
			Tag:         tag,
			Name:        player.Name,
			DiscordID:   reg.DiscordID,
			DiscordName: reg.DiscordName,
		}
		if err := s.userRepo.Create(ctx, &user); err != nil {
			logger.Error("Failed to create user", "tag", tag, "error", err)
			return domain.User{}, err
		}
	case user.DiscordID == nil:
		user.Name = player.Name
		user.DiscordID = reg.DiscordID
		user.DiscordName = reg.DiscordName
		if err := s.userRepo.Update(ctx, &user); err != nil {
			logger.Error("Failed to update user", "tag", tag, "error", err)
			return domain.User{}, err
		}
	default:
		return domain.User{}, fmt.Errorf("%s: %w", tag, domain.ErrAlreadyRegistered)
	}

	if err := s.UpdateAffiliation(ctx, &user, player); err != nil {
		return domain.User{}, err
	}

	logger.Info("Registered member", "tag", tag, "name", user.Name)
	return user, nil
}

// UpdateUser refreshes the name and affiliation of an existing user from the game API.
func (s *memberService) UpdateUser(ctx context.Context, tag string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("context error: %w", err)
	}

	user, found, err := s.userRepo.FindByTag(ctx, tag)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to find user %s: %w", tag, err)
	}
	if !found {
		return domain.User{}, fmt.Errorf("user %s: %w", tag, domain.ErrNotFound)
	}

	player, err := s.player(ctx, tag)
	if err != nil {
		return domain.User{}, err
	}

	return user, s.sync(ctx, &user, player)
}

func (s *memberService) sync(ctx context.Context, user *domain.User, player domain.Player) error {
	user.Name = player.Name
	user.NeedsUpdate = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.Tag, err)
	}
	return s.UpdateAffiliation(ctx, user, player)
}

// UpdateAffiliation makes player's current clan the only active affiliation
// of user. Joining a tracked primary clan starts tracking the current race.
func (s *memberService) UpdateAffiliation(ctx context.Context, user *domain.User, player domain.Player) error {
	if err := s.affiliationRepo.ClearRoles(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to clear affiliations of %s: %w", user.Tag, err)
	}
	if !player.InClan() {
		return nil
	}

	clan, err := s.clanRepo.UpsertClan(ctx, player.ClanTag, player.ClanName)
	if err != nil {
		return fmt.Errorf("failed to store clan %s: %w", player.ClanTag, err)
	}

	affiliation, found, err := s.affiliationRepo.FindAffiliation(ctx, user.ID, clan.ID)
	if err != nil {
		return fmt.Errorf("failed to find affiliation: %w", err)
	}
	if !found {
		affiliation = domain.ClanAffiliation{
			UserID:      user.ID,
			ClanID:      clan.ID,
			FirstJoined: s.now().UTC(),
		}
	}
	role := player.Role
	affiliation.Role = &role
	if err := s.affiliationRepo.SaveAffiliation(ctx, &affiliation); err != nil {
		return fmt.Errorf("failed to save affiliation: %w", err)
	}

	return s.track(ctx, affiliation, player)
}

func (s *memberService) track(ctx context.Context, affiliation domain.ClanAffiliation, player domain.Player) error {
	primary, ok, err := s.clanRepo.PrimaryClanByTag(ctx, player.ClanTag)
	if err != nil {
		return fmt.Errorf("failed to get primary clan %s: %w", player.ClanTag, err)
	}
	if !ok || !primary.TrackStats {
		return nil
	}

	race, ok, err := s.raceRepo.RecentRace(ctx, player.ClanTag, 0)
	if err != nil {
		return fmt.Errorf("failed to get current race of %s: %w", player.ClanTag, err)
	}
	if !ok {
		return nil
	}

	_, exists, err := s.participationRepo.FindByRaceAndTag(ctx, race.ID, player.Tag)
	if err != nil {
		return fmt.Errorf("failed to find participation of %s: %w", player.Tag, err)
	}
	if exists {
		return nil
	}

	record := domain.NewParticipationRecord(affiliation.ID, race.ID, s.now())
	if err := s.participationRepo.Create(ctx, &record); err != nil {
		return fmt.Errorf("failed to create participation of %s: %w", player.Tag, err)
	}

	info, err := s.clashRepo.RiverRaceInfo(ctx, player.ClanTag)
	if err != nil {
		logger.Warn("Could not read river race state", "clan", player.ClanTag, "error", err)
		return nil
	}
	if day, ok := info.BattleDay(); ok {
		if _, err := s.outsideBattles.CheckOutsideBattles(ctx, player.ClanTag, player.Tag, day); err != nil {
			logger.Warn("Outside battles check failed", "tag", player.Tag, "error", err)
		}
	}
	return nil
}

// EnsureParticipants creates users and participation records for race
// participants of clanTag that are not tracked yet.
func (s *memberService) EnsureParticipants(ctx context.Context, clanTag string, participants []domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	race, ok, err := s.raceRepo.RecentRace(ctx, clanTag, 0)
	if err != nil {
		return fmt.Errorf("failed to get current race of %s: %w", clanTag, err)
	}
	if !ok {
		return nil
	}

	for _, p := range participants {
		_, tracked, err := s.participationRepo.FindByRaceAndTag(ctx, race.ID, p.Tag)
		if err != nil {
			logger.Warn("Participation lookup failed", "tag", p.Tag, "error", err)
			continue
		}
		if tracked {
			continue
		}

		if err := s.syncPlayer(ctx, p.Tag); err != nil {
			logger.Warn("Could not register participant", "tag", p.Tag, "clan", clanTag, "error", err)
		}
	}
	return nil
}

func (s *memberService) syncPlayer(ctx context.Context, tag string) error {
	player, err := s.player(ctx, tag)
	if err != nil {
		return err
	}

	user, found, err := s.userRepo.FindByTag(ctx, tag)
	if err != nil {
		return fmt.Errorf("failed to find user %s: %w", tag, err)
	}
	if found {
		return s.sync(ctx, &user, player)
	}

	user = domain.User{Tag: tag, Name: player.Name}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", tag, err)
	}
	return s.UpdateAffiliation(ctx, &user, player)
}

type membership struct {
	clanTag string
	member  domain.ClanMember
}

// CleanUp re-syncs every active affiliation that no longer matches the member
// lists of the primary clans. It returns how many users were updated.
func (s *memberService) CleanUp(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	primaries, err := s.clanRepo.ListPrimaryClans(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list primary clans: %w", err)
	}

	primaryTags := make(map[string]bool, len(primaries))
	current := make(map[string]membership)
	for _, primary := range primaries {
		primaryTags[primary.Clan.Tag] = true
		members, err := s.clashRepo.ClanMembers(ctx, primary.Clan.Tag)
		if err != nil {
			return 0, fmt.Errorf("failed to get members of %s: %w", primary.Clan.Tag, err)
		}
		for _, m := range members {
			current[m.Tag] = membership{clanTag: primary.Clan.Tag, member: m}
		}
	}

	affiliations, err := s.affiliationRepo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list affiliations: %w", err)
	}

	updated := 0
	for _, a := range affiliations {
		m, inPrimary := current[a.User.Tag]
		var stale bool
		if inPrimary {
			stale = m.clanTag != a.Clan.Tag || m.member.Name != a.User.Name || a.Role == nil || *a.Role != m.member.Role
		} else {
			stale = primaryTags[a.Clan.Tag]
		}
		if !stale {
			continue
		}

		if _, err := s.UpdateUser(ctx, a.User.Tag); err != nil {
			logger.Warn("Clean up skipped user", "tag", a.User.Tag, "error", err)
			continue
		}
		updated++
	}

	logger.Info("Database clean up finished", "updated", updated)
	return updated, nil
}
