//go:build !integration

package deckusage

import (
	"clanManager/domain"
	"context"
	"testing"
	"time"
)

func newTestLedger(clash *fakeClashRepo, participation *fakeParticipationRepo) (*ledgerService, *fakeRaceRepo, *fakeQueue, *time.Time) {
	races := &fakeRaceRepo{
		race:  domain.RiverRace{ID: 1, StartTime: time.Date(2024, 1, 1, 9, 40, 0, 0, time.UTC)},
		found: true,
	}
	queue := &fakeQueue{}
	svc := NewLedgerService(races, participation, clash, queue)

	clock := time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	return svc, races, queue, &clock
}

func TestLedger_RecordDay(t *testing.T) {
	clash := &fakeClashRepo{
		current: []domain.Participant{{Tag: "#A", DecksUsedToday: 3, DecksUsedTotal: 3}, {Tag: "#B", DecksUsedToday: 4, DecksUsedTotal: 4}},
		members: []domain.ClanMember{{Tag: "#A", Name: "a"}, {Tag: "#B", Name: "b"}, {Tag: "#D", Name: "d"}},
	}
	participation := newFakeParticipationRepo("#A", "#B", "#D", "#GONE")
	svc, races, _, clock := newTestLedger(clash, participation)
	ctx := context.Background()
	deadline := time.Date(2024, 1, 5, 9, 59, 0, 0, time.UTC)

	if s, err := svc.PollReset(ctx, "#C", deadline); err != nil || s != Waiting {
		t.Fatalf("expected waiting, got %v, %v", s, err)
	}

	*clock = clock.Add(time.Minute)
	clash.current = []domain.Participant{{Tag: "#A", DecksUsedToday: 0, DecksUsedTotal: 3}, {Tag: "#B", DecksUsedToday: 0, DecksUsedTotal: 4}}
	if s, err := svc.PollReset(ctx, "#C", deadline); err != nil || s != Detected {
		t.Fatalf("expected detected, got %v, %v", s, err)
	}

	if err := svc.RecordDay(ctx, "#C", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if races.race.Day4 == nil || !races.race.Day4.Equal(*clock) {
		t.Fatalf("expected day 4 reset at %v, got %v", *clock, races.race.Day4)
	}

	want := map[string]int{"#A": 3, "#B": 4, "#D": 0}
	for tag, decks := range want {
		got := participation.records[tag].DeckUsage()[0]
		if got == nil || *got != decks {
			t.Fatalf("%s: expected %d decks, got %v", tag, decks, got)
		}
		if !participation.records[tag].Day1Active {
			t.Fatalf("%s: expected active", tag)
		}
	}
	if participation.records["#GONE"].DeckUsage()[0] != nil {
		t.Fatal("expected non-member without usage to stay unrecorded")
	}
}

func TestLedger_RecordDayRequiresClosedWindow(t *testing.T) {
	clash := &fakeClashRepo{current: []domain.Participant{{Tag: "#A", DecksUsedToday: 1}}}
	svc, _, _, _ := newTestLedger(clash, newFakeParticipationRepo("#A"))
	ctx := context.Background()

	if err := svc.RecordDay(ctx, "#C", 1); err == nil {
		t.Fatal("expected error without a reset window")
	}

	if _, err := svc.PollReset(ctx, "#C", time.Date(2024, 1, 5, 9, 59, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordDay(ctx, "#C", 1); err == nil {
		t.Fatal("expected error while the window is open")
	}
	if err := svc.RecordDay(ctx, "#C", 5); err == nil {
		t.Fatal("expected error for battle day out of range")
	}
}

func TestLedger_ExpireResetUsesFreshestPoll(t *testing.T) {
	clash := &fakeClashRepo{
		current: []domain.Participant{{Tag: "#A", DecksUsedToday: 1, DecksUsedTotal: 1}},
		members: []domain.ClanMember{{Tag: "#A", Name: "a"}},
	}
	participation := newFakeParticipationRepo("#A")
	svc, races, _, clock := newTestLedger(clash, participation)
	ctx := context.Background()
	deadline := time.Date(2024, 1, 5, 9, 59, 0, 0, time.UTC)

	if _, err := svc.PollReset(ctx, "#C", deadline); err != nil {
		t.Fatal(err)
	}

	*clock = deadline
	clash.current = []domain.Participant{{Tag: "#A", DecksUsedToday: 2, DecksUsedTotal: 2}}
	if s := svc.ExpireReset(ctx, "#C", deadline); s != DeadlineExpired {
		t.Fatalf("expected deadline expired, got %v", s)
	}

	if err := svc.RecordDay(ctx, "#C", 2); err != nil {
		t.Fatal(err)
	}
	if races.race.Day5 != nil {
		t.Fatalf("expected day 5 reset left empty, got %v", races.race.Day5)
	}
	if got := participation.records["#A"].DeckUsage()[1]; got == nil || *got != 2 {
		t.Fatalf("expected 2 decks from the last poll, got %v", got)
	}
}

func TestLedger_ApplyPostReset(t *testing.T) {
	clash := &fakeClashRepo{
		current: []domain.Participant{
			{Tag: "#A", DecksUsedToday: 3, DecksUsedTotal: 3},
			{Tag: "#B", DecksUsedToday: 2, DecksUsedTotal: 10},
		},
		members: []domain.ClanMember{{Tag: "#A", Name: "a"}, {Tag: "#B", Name: "b"}},
	}
	participation := newFakeParticipationRepo("#A", "#B", "#LATE")
	svc, _, _, clock := newTestLedger(clash, participation)
	ctx := context.Background()
	deadline := time.Date(2024, 1, 5, 9, 59, 0, 0, time.UTC)

	if _, err := svc.PollReset(ctx, "#C", deadline); err != nil {
		t.Fatal(err)
	}
	*clock = clock.Add(time.Minute)
	clash.current = []domain.Participant{
		{Tag: "#A", DecksUsedToday: 0, DecksUsedTotal: 4},
		{Tag: "#B", DecksUsedToday: 0, DecksUsedTotal: 13},
		{Tag: "#LATE", DecksUsedToday: 0, DecksUsedTotal: 2},
	}
	if _, err := svc.PollReset(ctx, "#C", deadline); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordDay(ctx, "#C", 1); err != nil {
		t.Fatal(err)
	}

	if err := svc.ApplyPostReset(ctx, "#C", 1); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		tag  string
		want int
	}{
		{"#A", 4},    // one deck played between the last poll and the reset
		{"#B", 2},    // remedied to 5, rejected and left at the recorded value
		{"#LATE", 2}, // joined after the last pre-reset poll
	}
	for _, tt := range tests {
		got := participation.records[tt.tag].DeckUsage()[0]
		if got == nil || *got != tt.want {
			t.Fatalf("%s: expected %d decks, got %v", tt.tag, tt.want, got)
		}
	}

	saves := participation.saves
	if err := svc.ApplyPostReset(ctx, "#C", 1); err != nil {
		t.Fatal(err)
	}
	if participation.saves != saves {
		t.Fatal("expected second application to change nothing")
	}
}

func TestLedger_RecordResetLeavesUndetectedDayEmpty(t *testing.T) {
	clash := &fakeClashRepo{current: []domain.Participant{{Tag: "#A"}, {Tag: "#B"}}}
	svc, races, _, clock := newTestLedger(clash, newFakeParticipationRepo("#A", "#B"))
	ctx := context.Background()

	// training day: no decks are used, so the reset never shows up as a drop
	*clock = time.Date(2024, 1, 4, 9, 20, 0, 0, time.UTC)
	deadline := time.Date(2024, 1, 4, 9, 59, 0, 0, time.UTC)
	for clock.Before(deadline) {
		if s, err := svc.PollReset(ctx, "#C", deadline); err != nil || s != Waiting {
			t.Fatalf("expected waiting at %v, got %v, %v", *clock, s, err)
		}
		*clock = clock.Add(time.Minute)
	}
	if s := svc.ExpireReset(ctx, "#C", deadline); s != DeadlineExpired {
		t.Fatalf("expected deadline expired, got %v", s)
	}

	if err := svc.RecordReset(ctx, "#C", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if races.race.Day3 != nil {
		t.Fatalf("expected day 3 left empty, got %v", races.race.Day3)
	}
}

func TestLedger_ApplyPostResetLateJoinerPlayingNewDay(t *testing.T) {
	clash := &fakeClashRepo{
		current: []domain.Participant{{Tag: "#A", DecksUsedToday: 2, DecksUsedTotal: 2}},
		members: []domain.ClanMember{{Tag: "#A", Name: "a"}, {Tag: "#NEW", Name: "new"}},
	}
	participation := newFakeParticipationRepo("#A", "#NEW")
	svc, _, _, clock := newTestLedger(clash, participation)
	ctx := context.Background()
	deadline := time.Date(2024, 1, 5, 9, 59, 0, 0, time.UTC)

	if _, err := svc.PollReset(ctx, "#C", deadline); err != nil {
		t.Fatal(err)
	}
	*clock = clock.Add(time.Minute)
	clash.current = []domain.Participant{{Tag: "#A", DecksUsedToday: 0, DecksUsedTotal: 2}}
	if _, err := svc.PollReset(ctx, "#C", deadline); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordDay(ctx, "#C", 1); err != nil {
		t.Fatal(err)
	}

	// one deck before the reset, two after it
	clash.current = []domain.Participant{
		{Tag: "#A", DecksUsedToday: 0, DecksUsedTotal: 2},
		{Tag: "#NEW", DecksUsedToday: 2, DecksUsedTotal: 3},
	}
	if err := svc.ApplyPostReset(ctx, "#C", 1); err != nil {
		t.Fatal(err)
	}

	got := participation.records["#NEW"].DeckUsage()[0]
	if got == nil || *got != 1 {
		t.Fatalf("expected 1 deck on day 1, got %v", got)
	}
}

func TestLedger_CheckOutsideBattles(t *testing.T) {
	clash := &fakeClashRepo{outside: 2}
	participation := newFakeParticipationRepo("#A")
	svc, races, queue, _ := newTestLedger(clash, participation)
	ctx := context.Background()

	reset := time.Date(2024, 1, 4, 9, 45, 0, 0, time.UTC)
	races.race.Day4 = &reset

	queued, err := svc.CheckOutsideBattles(ctx, "#C", "#A", 1)
	if err != nil || !queued {
		t.Fatalf("expected warning queued, got %v, %v", queued, err)
	}

	queued, err = svc.CheckOutsideBattles(ctx, "#C", "#A", 1)
	if err != nil || queued {
		t.Fatalf("expected no second warning, got %v, %v", queued, err)
	}

	if len(queue.pushed) != 1 {
		t.Fatalf("expected one warning, got %d", len(queue.pushed))
	}
	w := queue.pushed[0]
	if w.Tag != "#A" || w.ClanTag != "#C" || w.OutsideBattles != 2 || w.Name != "name#A" {
		t.Fatalf("unexpected warning %+v", w)
	}
	if got := participation.records["#A"].OutsideBattles()[0]; got == nil || *got != 2 {
		t.Fatalf("expected 2 outside battles recorded, got %v", got)
	}

	// a clean check on another day stores nothing
	clash.outside = 0
	if queued, _ := svc.CheckOutsideBattles(ctx, "#C", "#A", 2); queued {
		t.Fatal("expected nothing queued without outside battles")
	}
}
