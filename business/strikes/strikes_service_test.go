//go:build !integration

package strikes

import (
	"clanManager/domain"
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClanRepo struct {
	clan domain.PrimaryClan
}

func (f *fakeClanRepo) PrimaryClanByTag(_ context.Context, tag string) (domain.PrimaryClan, bool, error) {
	if f.clan.Clan.Tag != tag {
		return domain.PrimaryClan{}, false, nil
	}
	return f.clan, true, nil
}

type fakeRaceRepo struct {
	race domain.RiverRace
}

func (f *fakeRaceRepo) RecentRace(_ context.Context, _ string, n int) (domain.RiverRace, bool, error) {
	if n != 0 {
		return domain.RiverRace{}, false, nil
	}
	return f.race, true, nil
}

type fakeParticipationRepo struct {
	records []domain.ParticipationRecord
}

func (f *fakeParticipationRepo) ListByRace(_ context.Context, _ uint) ([]domain.ParticipationRecord, error) {
	return f.records, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) FindByTag(_ context.Context, tag string) (domain.User, bool, error) {
	u, ok := f.users[tag]
	if !ok {
		return domain.User{}, false, nil
	}
	return *u, true, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	u := *user
	f.users[user.Tag] = &u
	return nil
}

type fakeNotifier struct {
	sent [][]domain.StrikeNotice
}

func (f *fakeNotifier) SendStrikeSummary(_ context.Context, _ string, struck []domain.StrikeNotice) error {
	f.sent = append(f.sent, struck)
	return nil
}

func record(tag string, active bool, decks ...int) domain.ParticipationRecord {
	rec := domain.NewParticipationRecord(1, 1, day3Reset.Add(-time.Hour))
	rec.Affiliation.User = domain.User{Tag: tag, Name: "name" + tag}
	if active {
		role := domain.RoleMember
		rec.Affiliation.Role = &role
	}
	for i, d := range decks {
		_ = rec.SetDecks(i+1, d)
	}
	return rec
}

func newTestService(assign bool, records ...domain.ParticipationRecord) (*strikesService, *fakeUserRepo, *fakeNotifier) {
	rs := resets()
	race := domain.RiverRace{ID: 1, Day3: rs[0], Day4: rs[1], Day5: rs[2], Day6: rs[3], Day7: rs[4]}

	users := &fakeUserRepo{users: map[string]*domain.User{}}
	for _, r := range records {
		u := r.Affiliation.User
		users.users[u.Tag] = &u
	}
	notifier := &fakeNotifier{}

	svc := NewStrikesService(
		&fakeClanRepo{clan: domain.PrimaryClan{
			Clan:            domain.Clan{Tag: "#CLAN"},
			AssignStrikes:   assign,
			StrikeType:      domain.StrikeTypeDecks,
			StrikeThreshold: 4,
		}},
		&fakeRaceRepo{race: race},
		&fakeParticipationRepo{records: records},
		users,
		notifier,
	)
	return svc, users, notifier
}

func TestEvaluateStrikes(t *testing.T) {
	svc, _, _ := newTestService(false,
		record("#A", true, 4, 4, 3, 4),
		record("#B", true, 4, 4, 4, 4),
		record("#LEFT", false, 0, 0, 0, 0),
	)

	got, err := svc.EvaluateStrikes(context.Background(), "#CLAN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 evaluations, got %d", len(got))
	}
	if got[0].Tag != "#A" || !got[0].ShouldStrike || got[0].Actual != 15 || got[0].Required != 16 {
		t.Fatalf("unexpected evaluation %+v", got[0])
	}
	if got[1].ShouldStrike {
		t.Fatalf("unexpected strike for %s", got[1].Tag)
	}
}

func TestEvaluateStrikes_UnknownClan(t *testing.T) {
	svc, _, _ := newTestService(false)

	_, err := svc.EvaluateStrikes(context.Background(), "#OTHER")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAssignAutomatedStrikes(t *testing.T) {
	svc, users, notifier := newTestService(true,
		record("#A", true, 4, 4, 3, 4),
		record("#B", true, 4, 4, 4, 4),
	)
	users.users["#A"].Strikes = 1

	struck, err := svc.AssignAutomatedStrikes(context.Background(), "#CLAN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(struck) != 1 || struck[0].Tag != "#A" || struck[0].Strikes != 2 {
		t.Fatalf("unexpected strikes %+v", struck)
	}
	if users.users["#A"].Strikes != 2 || users.users["#B"].Strikes != 0 {
		t.Fatal("strike counts not persisted")
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected one summary, got %d", len(notifier.sent))
	}
}

func TestAssignAutomatedStrikes_Disabled(t *testing.T) {
	svc, users, notifier := newTestService(false, record("#A", true, 0, 0, 0, 0))

	struck, err := svc.AssignAutomatedStrikes(context.Background(), "#CLAN")
	if err != nil || len(struck) != 0 {
		t.Fatalf("expected nothing, got %v, %v", struck, err)
	}
	if users.users["#A"].Strikes != 0 || len(notifier.sent) != 0 {
		t.Fatal("disabled policy assigned strikes")
	}
}

func TestUpdateStrikes(t *testing.T) {
	svc, _, _ := newTestService(false, record("#A", true))
	ctx := context.Background()

	change, err := svc.UpdateStrikes(ctx, "#A", 1)
	if err != nil || change.Previous != 0 || change.Current != 1 {
		t.Fatalf("unexpected change %+v, %v", change, err)
	}

	_, _ = svc.UpdateStrikes(ctx, "#A", -1)
	change, _ = svc.UpdateStrikes(ctx, "#A", -1)
	if change.Previous != 0 || change.Current != 0 {
		t.Fatalf("expected strikes clamped at zero, got %+v", change)
	}

	if _, err := svc.UpdateStrikes(ctx, "#NOBODY", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, err := svc.Strikes(ctx, "#A")
	if err != nil || got.Current != 0 {
		t.Fatalf("unexpected strikes %+v, %v", got, err)
	}
}
