//go:build !integration

package deckusage

import (
	"clanManager/domain"
	"context"
	"time"
)

type fakeRaceRepo struct {
	race  domain.RiverRace
	found bool
}

func (f *fakeRaceRepo) CurrentRace(_ context.Context, _ string) (domain.RiverRace, bool, error) {
	return f.race, f.found, nil
}

func (f *fakeRaceRepo) UpdateRace(_ context.Context, race *domain.RiverRace) error {
	f.race = *race
	return nil
}

type fakeParticipationRepo struct {
	records map[string]*domain.ParticipationRecord
	saves   int
}

func newFakeParticipationRepo(tags ...string) *fakeParticipationRepo {
	repo := &fakeParticipationRepo{records: make(map[string]*domain.ParticipationRecord)}
	for i, tag := range tags {
		rec := domain.NewParticipationRecord(uint(i+1), 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		rec.ID = uint(i + 1)
		rec.Affiliation.User.Tag = tag
		rec.Affiliation.User.Name = "name" + tag
		repo.records[tag] = &rec
	}
	return repo
}

func (f *fakeParticipationRepo) ListByRace(_ context.Context, _ uint) ([]domain.ParticipationRecord, error) {
	out := make([]domain.ParticipationRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeParticipationRepo) FindByRaceAndTag(_ context.Context, _ uint, tag string) (domain.ParticipationRecord, bool, error) {
	r, ok := f.records[tag]
	if !ok {
		return domain.ParticipationRecord{}, false, nil
	}
	return *r, true, nil
}

func (f *fakeParticipationRepo) Save(_ context.Context, record *domain.ParticipationRecord) error {
	rec := *record
	f.records[record.UserTag()] = &rec
	f.saves++
	return nil
}

type fakeClashRepo struct {
	current  []domain.Participant
	finished []domain.Participant
	members  []domain.ClanMember
	outside  int
	info     domain.RiverRaceInfo
	err      error
}

func (f *fakeClashRepo) Participants(_ context.Context, _ string, duringEvent bool) ([]domain.Participant, error) {
	if f.err != nil {
		return nil, f.err
	}
	if duringEvent {
		return f.current, nil
	}
	return f.finished, nil
}

func (f *fakeClashRepo) ClanMembers(_ context.Context, _ string) ([]domain.ClanMember, error) {
	return f.members, nil
}

func (f *fakeClashRepo) OutsideBattles(_ context.Context, _, _ string, _ time.Time) (int, error) {
	return f.outside, nil
}

func (f *fakeClashRepo) RiverRaceInfo(_ context.Context, _ string) (domain.RiverRaceInfo, error) {
	return f.info, nil
}

type fakeQueue struct {
	pushed []domain.OutsideBattlesWarning
}

func (f *fakeQueue) Push(_ context.Context, w domain.OutsideBattlesWarning) error {
	f.pushed = append(f.pushed, w)
	return nil
}
