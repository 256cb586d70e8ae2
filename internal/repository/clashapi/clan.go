package clashapi

import (
	"clanManager/domain"
	"context"
	"fmt"
	"strings"
)

func toParticipants(raw []apiParticipant) []domain.Participant {
	participants := make([]domain.Participant, 0, len(raw))
	for _, p := range raw {
		participants = append(participants, domain.Participant{
			Tag:            p.Tag,
			Name:           p.Name,
			Medals:         p.Fame,
			DecksUsedToday: p.DecksUsedToday,
			DecksUsedTotal: p.DecksUsed,
		})
	}
	return participants
}

func toCompetingClan(c apiRaceClan) domain.CompetingClan {
	clan := domain.CompetingClan{
		Tag:       c.Tag,
		Name:      c.Name,
		Completed: c.Fame >= domain.CompletionMedals,
	}
	for _, p := range c.Participants {
		clan.Medals += p.Fame
		clan.TotalDecksUsed += p.DecksUsed
		clan.DecksUsedToday += p.DecksUsedToday
	}
	return clan
}

func (r *ClashAPIRepository) currentRiverRace(ctx context.Context, clanTag string) (apiCurrentRiverRace, error) {
	var race apiCurrentRiverRace
	err := r.get(ctx, "currentriverrace", "/clans/"+escapeTag(clanTag)+"/currentriverrace", &race)
	if err != nil {
		return apiCurrentRiverRace{}, fmt.Errorf("failed to get current river race of %s: %w", clanTag, err)
	}
	return race, nil
}

func (r *ClashAPIRepository) lastRiverRace(ctx context.Context, clanTag string) (apiRiverRaceLog, error) {
	var log apiRiverRaceLog
	err := r.get(ctx, "riverracelog", "/clans/"+escapeTag(clanTag)+"/riverracelog?limit=1", &log)
	if err != nil {
		return apiRiverRaceLog{}, fmt.Errorf("failed to get river race log of %s: %w", clanTag, err)
	}
	if len(log.Items) == 0 {
		return apiRiverRaceLog{}, fmt.Errorf("river race log of %s: %w", clanTag, domain.ErrNotFound)
	}
	return log, nil
}

// Participants lists the participants of the current race, or of the most
// recently finished race when duringEvent is false.
func (r *ClashAPIRepository) Participants(ctx context.Context, clanTag string, duringEvent bool) ([]domain.Participant, error) {
	if duringEvent {
		race, err := r.currentRiverRace(ctx, clanTag)
		if err != nil {
			return nil, err
		}
		return toParticipants(race.Clan.Participants), nil
	}

	log, err := r.lastRiverRace(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	for _, standing := range log.Items[0].Standings {
		if strings.EqualFold(standing.Clan.Tag, clanTag) {
			return toParticipants(standing.Clan.Participants), nil
		}
	}
	return nil, fmt.Errorf("clan %s in last river race: %w", clanTag, domain.ErrNotFound)
}

// CompetingClans returns the state of every clan in the race keyed by tag.
func (r *ClashAPIRepository) CompetingClans(ctx context.Context, clanTag string, postEvent bool) (map[string]domain.CompetingClan, error) {
	clans := make(map[string]domain.CompetingClan)

	if postEvent {
		log, err := r.lastRiverRace(ctx, clanTag)
		if err != nil {
			return nil, err
		}
		for _, standing := range log.Items[0].Standings {
			clans[standing.Clan.Tag] = toCompetingClan(standing.Clan)
		}
		return clans, nil
	}

	race, err := r.currentRiverRace(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	for _, c := range race.Clans {
		clans[c.Tag] = toCompetingClan(c)
	}
	return clans, nil
}

// RiverRaceInfo describes the current race of a clan.
func (r *ClashAPIRepository) RiverRaceInfo(ctx context.Context, clanTag string) (domain.RiverRaceInfo, error) {
	race, err := r.currentRiverRace(ctx, clanTag)
	if err != nil {
		return domain.RiverRaceInfo{}, err
	}

	info := domain.RiverRaceInfo{
		ClanTag:     race.Clan.Tag,
		ClanName:    race.Clan.Name,
		Fame:        race.Clan.Fame,
		PeriodIndex: race.PeriodIndex,
		PeriodType:  strings.ToLower(race.PeriodType),
		Clans:       make(map[string]string, len(race.Clans)),
	}
	for _, c := range race.Clans {
		info.Clans[c.Tag] = c.Name
	}

	log, err := r.lastRiverRace(ctx, clanTag)
	if err != nil {
		return domain.RiverRaceInfo{}, err
	}
	start, err := parseBattleTime(log.Items[0].CreatedDate)
	if err != nil {
		return domain.RiverRaceInfo{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	info.StartTime = start

	return info, nil
}

// ClanMembers lists the current members of a clan. Results are cached briefly.
func (r *ClashAPIRepository) ClanMembers(ctx context.Context, clanTag string) ([]domain.ClanMember, error) {
	key := "clash:members:" + strings.TrimPrefix(clanTag, "#")
	if r.cache != nil {
		var cached []domain.ClanMember
		if ok, err := r.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}

	var raw apiClanMembers
	if err := r.get(ctx, "members", "/clans/"+escapeTag(clanTag)+"/members", &raw); err != nil {
		return nil, fmt.Errorf("failed to get members of %s: %w", clanTag, err)
	}

	members := make([]domain.ClanMember, 0, len(raw.Items))
	for _, m := range raw.Items {
		members = append(members, domain.ClanMember{
			Tag:      m.Tag,
			Name:     m.Name,
			Role:     normalizeRole(m.Role),
			ExpLevel: m.ExpLevel,
			Trophies: m.Trophies,
		})
	}

	if r.cache != nil {
		_ = r.cache.SetJSON(ctx, key, members, membersTTL)
	}

	return members, nil
}

func normalizeRole(role string) domain.ClanRole {
	switch strings.ToLower(role) {
	case "leader":
		return domain.RoleLeader
	case "coleader":
		return domain.RoleCoLeader
	case "elder", "admin":
		return domain.RoleElder
	default:
		return domain.RoleMember
	}
}
