package deckusage

import (
	"clanManager/domain"
	"context"
	"fmt"
	"sort"
	"strings"
)

// MemberDecks is a member and how many decks they can still use today.
type MemberDecks struct {
	Tag       string `json:"tag"`
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
}

type DecksReport struct {
	RemainingDecks                    int           `json:"remaining_decks"`
	Participants                      int           `json:"participants"`
	ActiveMembersWithNoDecksUsed      int           `json:"active_members_with_no_decks_used"`
	ActiveMembersWithRemainingDecks   []MemberDecks `json:"active_members_with_remaining_decks"`
	ActiveMembersWithoutRemainingDeck []MemberDecks `json:"active_members_without_remaining_decks"`
	InactiveMembersWithDecksUsed      []MemberDecks `json:"inactive_members_with_decks_used"`
	LockedOutActiveMembers            []MemberDecks `json:"locked_out_active_members"`
	// LockOutRisk is set when more members still need to battle than there
	// are participant slots left today.
	LockOutRisk bool `json:"lock_out_risk"`
}

func sortMemberDecks(list []MemberDecks) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Remaining != list[j].Remaining {
			return list[i].Remaining < list[j].Remaining
		}
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
}

// BuildDecksReport summarises today's deck usage of a clan.
func BuildDecksReport(participants []domain.Participant, members []domain.ClanMember) DecksReport {
	report := DecksReport{
		RemainingDecks:                    domain.ClanDecksPerDay,
		ActiveMembersWithRemainingDecks:   []MemberDecks{},
		ActiveMembersWithoutRemainingDeck: []MemberDecks{},
		InactiveMembersWithDecksUsed:      []MemberDecks{},
		LockedOutActiveMembers:            []MemberDecks{},
	}

	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.Tag] = m.Name
	}

	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		seen[p.Tag] = true
		if p.DecksUsedToday > 0 {
			report.RemainingDecks -= p.DecksUsedToday
			report.Participants++
		}
	}

	full := report.Participants >= domain.MaxParticipants
	addIdle := func(tag, name string) {
		report.ActiveMembersWithNoDecksUsed++
		entry := MemberDecks{Tag: tag, Name: name, Remaining: domain.MaxDecksPerDay}
		if full {
			report.LockedOutActiveMembers = append(report.LockedOutActiveMembers, entry)
		} else {
			report.ActiveMembersWithRemainingDecks = append(report.ActiveMembersWithRemainingDecks, entry)
		}
	}

	for _, p := range participants {
		name, active := names[p.Tag]
		if !active {
			if p.DecksUsedToday > 0 {
				report.InactiveMembersWithDecksUsed = append(report.InactiveMembersWithDecksUsed,
					MemberDecks{Tag: p.Tag, Name: p.Name, Remaining: domain.MaxDecksPerDay - p.DecksUsedToday})
			}
			continue
		}

		switch {
		case p.DecksUsedToday >= domain.MaxDecksPerDay:
			report.ActiveMembersWithoutRemainingDeck = append(report.ActiveMembersWithoutRemainingDeck,
				MemberDecks{Tag: p.Tag, Name: name, Remaining: 0})
		case p.DecksUsedToday == 0:
			addIdle(p.Tag, name)
		default:
			report.ActiveMembersWithRemainingDecks = append(report.ActiveMembersWithRemainingDecks,
				MemberDecks{Tag: p.Tag, Name: name, Remaining: domain.MaxDecksPerDay - p.DecksUsedToday})
		}
	}

	// members not yet in the participant list have not battled this race
	for _, m := range members {
		if !seen[m.Tag] {
			addIdle(m.Tag, m.Name)
		}
	}

	report.LockOutRisk = !full && report.ActiveMembersWithNoDecksUsed > domain.MaxParticipants-report.Participants

	sortMemberDecks(report.ActiveMembersWithRemainingDecks)
	sortMemberDecks(report.ActiveMembersWithoutRemainingDeck)
	sortMemberDecks(report.InactiveMembersWithDecksUsed)
	sortMemberDecks(report.LockedOutActiveMembers)

	return report
}

func (s *ledgerService) DecksReport(ctx context.Context, clanTag string) (DecksReport, error) {
	if err := ctx.Err(); err != nil {
		return DecksReport{}, fmt.Errorf("context error: %w", err)
	}

	participants, err := s.clashRepo.Participants(ctx, clanTag, true)
	if err != nil {
		return DecksReport{}, err
	}
	members, err := s.clashRepo.ClanMembers(ctx, clanTag)
	if err != nil {
		return DecksReport{}, err
	}

	return BuildDecksReport(participants, members), nil
}

type MemberMedals struct {
	Tag    string `json:"tag"`
	Name   string `json:"name"`
	Medals int    `json:"medals"`
}

// MedalsReport lists active members below threshold medals, lowest first.
// Outside battle time the finished race is used.
func (s *ledgerService) MedalsReport(ctx context.Context, clanTag string, threshold int) ([]MemberMedals, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	info, err := s.clashRepo.RiverRaceInfo(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	participants, err := s.clashRepo.Participants(ctx, clanTag, info.BattleTime())
	if err != nil {
		return nil, err
	}
	members, err := s.clashRepo.ClanMembers(ctx, clanTag)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.Tag] = m.Name
	}

	result := []MemberMedals{}
	for _, p := range participants {
		name, active := names[p.Tag]
		if active && p.Medals < threshold {
			result = append(result, MemberMedals{Tag: p.Tag, Name: name, Medals: p.Medals})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Medals != result[j].Medals {
			return result[i].Medals < result[j].Medals
		}
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

// RiverRaceStatus reports the decks every clan in the race can still use
// today, fewest remaining first.
func (s *ledgerService) RiverRaceStatus(ctx context.Context, clanTag string) ([]domain.RiverRaceStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	info, err := s.clashRepo.RiverRaceInfo(ctx, clanTag)
	if err != nil {
		return nil, err
	}

	statuses := make([]domain.RiverRaceStatus, 0, len(info.Clans))
	for tag, name := range info.Clans {
		report, err := s.DecksReport(ctx, tag)
		if err != nil {
			return nil, fmt.Errorf("failed to get decks report of %s: %w", tag, err)
		}

		active := 0
		for _, m := range report.ActiveMembersWithRemainingDecks {
			active += m.Remaining
		}
		active = min(active, report.RemainingDecks)

		statuses = append(statuses, domain.RiverRaceStatus{
			Tag:                  tag,
			Name:                 name,
			TotalRemainingDecks:  report.RemainingDecks,
			ActiveRemainingDecks: active,
		})
	}

	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].TotalRemainingDecks != statuses[j].TotalRemainingDecks {
			return statuses[i].TotalRemainingDecks < statuses[j].TotalRemainingDecks
		}
		if statuses[i].ActiveRemainingDecks != statuses[j].ActiveRemainingDecks {
			return statuses[i].ActiveRemainingDecks < statuses[j].ActiveRemainingDecks
		}
		return statuses[i].Tag < statuses[j].Tag
	})
	return statuses, nil
}
