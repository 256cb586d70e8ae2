//go:build !integration

package prediction

import (
	"clanManager/domain"
	"context"
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestWinRate_InvertsCubic(t *testing.T) {
	for _, p := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		got := WinRate(MedalsPerDeck(p))
		if math.Abs(got-p) > 1e-9 {
			t.Fatalf("p=%v: got %v", p, got)
		}
	}

	if got := WinRate(99.9); got != Unreachable {
		t.Fatalf("expected unreachable below the floor, got %v", got)
	}
	if got := WinRate(225.1); got != Unreachable {
		t.Fatalf("expected unreachable above the ceiling, got %v", got)
	}
	if got := WinRate(FlatMedalsPerDeck); got <= 0.4 || got >= 0.6 {
		t.Fatalf("expected flat rate near 50%%, got %v", got)
	}
}

func TestRoundToNearest50(t *testing.T) {
	tests := map[float64]int{0: 0, 24.9: 0, 25: 0, 25.1: 50, 74.9: 50, 75: 100, 1025: 1000, 1075: 1100, 1130: 1150, 33125: 33100}
	for in, want := range tests {
		if got := roundToNearest50(in); got != want {
			t.Fatalf("%v: expected %d, got %d", in, want, got)
		}
	}
}

func TestPredict_FlatRates(t *testing.T) {
	saved := map[string]domain.RiverRaceClan{
		"#A": {Tag: "#A", CurrentRaceMedals: 1000},
		"#B": {Tag: "#B", CurrentRaceMedals: 500},
	}
	live := map[string]domain.CompetingClan{
		"#A": {Tag: "#A", Name: "a", Medals: 3000, DecksUsedToday: 100},
		"#B": {Tag: "#B", Name: "b", Medals: 1500, DecksUsedToday: 40},
	}

	got, ok := Predict(saved, live, Options{})
	if !ok || len(got) != 2 {
		t.Fatalf("expected two outcomes, got %v", got)
	}

	// b: 1000 + 160 * 165.625 = 27500
	if got[0].Tag != "#B" || got[0].PredictedScore != 27500 || got[0].ExpectedDecksRemaining != 160 {
		t.Fatalf("unexpected leader %+v", got[0])
	}
	// a: 2000 + 100 * 165.625 = 18562.5 -> 18550
	if got[1].PredictedScore != 18550 {
		t.Fatalf("unexpected runner-up %+v", got[1])
	}

	if got[0].ExpectedDecksCatchupWinRate != nil || got[0].RemainingDecksCatchupWinRate != nil {
		t.Fatal("leader must not have catch-up win rates")
	}
	// (27500 - 2000) / 100 = 255 medals per deck, out of reach
	if *got[1].RemainingDecksCatchupWinRate != Unreachable {
		t.Fatalf("expected unreachable, got %v", *got[1].RemainingDecksCatchupWinRate)
	}
}

func TestPredict_HistoricalUsage(t *testing.T) {
	saved := map[string]domain.RiverRaceClan{
		// 150 decks per day at 180 medals per deck
		"#A": {Tag: "#A", TotalSeasonMedals: 81000, TotalSeasonBattleDecks: 450, BattleDays: 3},
		"#B": {Tag: "#B", TotalSeasonMedals: 36000, TotalSeasonBattleDecks: 240, BattleDays: 3},
	}
	live := map[string]domain.CompetingClan{
		"#A": {Tag: "#A", Medals: 1800, DecksUsedToday: 10},
		"#B": {Tag: "#B", Medals: 15000, DecksUsedToday: 100},
	}

	got, ok := Predict(saved, live, Options{HistoricalWinRates: true, HistoricalDeckUsage: true})
	if !ok {
		t.Fatal("expected outcomes")
	}

	byTag := map[string]domain.PredictedOutcome{}
	for _, o := range got {
		byTag[o.Tag] = o
	}

	// below average: expect to reach the average
	if a := byTag["#A"]; a.ExpectedDecksRemaining != 140 || a.MedalsPerDeck != 180 {
		t.Fatalf("unexpected projection %+v", a)
	}
	// above the 80 deck average: a quarter of what is left
	if b := byTag["#B"]; b.ExpectedDecksRemaining != 25 || b.RemainingDecks != 100 {
		t.Fatalf("unexpected projection %+v", b)
	}
}

func TestPredict_CompletedClanExpectsNothing(t *testing.T) {
	saved := map[string]domain.RiverRaceClan{"#A": {Tag: "#A"}, "#B": {Tag: "#B"}}
	live := map[string]domain.CompetingClan{
		"#A": {Tag: "#A", Medals: 10000, DecksUsedToday: 50, Completed: true},
		"#B": {Tag: "#B", Medals: 100, DecksUsedToday: 0},
	}

	got, _ := Predict(saved, live, Options{})
	for _, o := range got {
		if o.Tag == "#A" && (o.ExpectedDecksRemaining != 0 || o.PredictedScore != 10000) {
			t.Fatalf("unexpected completed projection %+v", o)
		}
	}
}

func TestPredict_MismatchedClans(t *testing.T) {
	saved := map[string]domain.RiverRaceClan{"#A": {Tag: "#A"}, "#B": {Tag: "#B"}}

	if _, ok := Predict(saved, map[string]domain.CompetingClan{"#A": {Tag: "#A"}, "#C": {Tag: "#C"}}, Options{}); ok {
		t.Fatal("expected no prediction for a different clan set")
	}
	if _, ok := Predict(saved, map[string]domain.CompetingClan{"#A": {Tag: "#A"}}, Options{}); ok {
		t.Fatal("expected no prediction for a smaller clan set")
	}
	if _, ok := Predict(nil, nil, Options{}); ok {
		t.Fatal("expected no prediction without clans")
	}
}

func TestPredict_LeaderInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	for iter := 0; iter < 500; iter++ {
		saved := map[string]domain.RiverRaceClan{}
		live := map[string]domain.CompetingClan{}
		for i := 0; i < 5; i++ {
			tag := string(rune('A' + i))
			saved[tag] = domain.RiverRaceClan{
				Tag:                    tag,
				CurrentRaceMedals:      rng.Intn(5000),
				TotalSeasonMedals:      rng.Intn(100000),
				TotalSeasonBattleDecks: rng.Intn(600),
				BattleDays:             rng.Intn(4),
			}
			live[tag] = domain.CompetingClan{
				Tag:            tag,
				Medals:         rng.Intn(40000),
				DecksUsedToday: rng.Intn(201),
				Completed:      rng.Intn(10) == 0,
			}
		}

		got, ok := Predict(saved, live, Options{HistoricalWinRates: rng.Intn(2) == 0, HistoricalDeckUsage: rng.Intn(2) == 0})
		if !ok {
			t.Fatalf("iteration %d: expected outcomes", iter)
		}

		for i, o := range got {
			if i == 0 {
				if o.ExpectedDecksCatchupWinRate != nil || o.RemainingDecksCatchupWinRate != nil {
					t.Fatalf("iteration %d: leader has catch-up rates", iter)
				}
				continue
			}
			if o.PredictedScore > got[0].PredictedScore {
				t.Fatalf("iteration %d: outcomes not sorted", iter)
			}
			for _, r := range []*float64{o.ExpectedDecksCatchupWinRate, o.RemainingDecksCatchupWinRate} {
				if r == nil || (*r < 0 && *r != Unreachable) || *r > 1 {
					t.Fatalf("iteration %d: invalid catch-up rate %v", iter, r)
				}
			}
		}
	}
}

type fakeRaceRepo struct{ race domain.RiverRace }

func (f *fakeRaceRepo) RecentRace(_ context.Context, _ string, _ int) (domain.RiverRace, bool, error) {
	return f.race, true, nil
}

type fakeStandingRepo struct {
	standings map[string]domain.RiverRaceClan
}

func (f *fakeStandingRepo) ListStandings(_ context.Context, _, _ uint) ([]domain.RiverRaceClan, error) {
	out := []domain.RiverRaceClan{}
	for _, s := range f.standings {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStandingRepo) SaveStanding(_ context.Context, s *domain.RiverRaceClan) error {
	f.standings[s.Tag] = *s
	return nil
}

type fakeClashRepo struct {
	clans map[string]domain.CompetingClan
}

func (f *fakeClashRepo) CompetingClans(_ context.Context, _ string, _ bool) (map[string]domain.CompetingClan, error) {
	return f.clans, nil
}

func TestUpdateStandings(t *testing.T) {
	standings := &fakeStandingRepo{standings: map[string]domain.RiverRaceClan{
		"#A": {Tag: "#A", CurrentRaceMedals: 10000, CurrentRaceTotalDecks: 200, TotalSeasonMedals: 10000, TotalSeasonBattleDecks: 200, BattleDays: 1},
	}}
	clash := &fakeClashRepo{clans: map[string]domain.CompetingClan{
		"#A": {Tag: "#A", Name: "a", Medals: 20000, TotalDecksUsed: 380},
		"#B": {Tag: "#B", Name: "b", Medals: 9000, TotalDecksUsed: 150},
		"#C": {Tag: "#C", Name: "c", Medals: 10000, TotalDecksUsed: 190, Completed: true},
	}}
	svc := NewPredictionService(&fakeRaceRepo{race: domain.RiverRace{ClanID: 1, SeasonID: 2}}, standings, clash)
	now := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if err := svc.UpdateStandings(context.Background(), "#A", true); err != nil {
		t.Fatal(err)
	}

	a := standings.standings["#A"]
	if a.TotalSeasonMedals != 20000 || a.TotalSeasonBattleDecks != 380 || a.BattleDays != 2 || a.CurrentRaceMedals != 20000 {
		t.Fatalf("unexpected standing %+v", a)
	}
	if b := standings.standings["#B"]; b.BattleDays != 1 || b.SeasonID != 2 || b.TrackingClanID != 1 {
		t.Fatalf("expected new standing for #B, got %+v", b)
	}
	if _, ok := standings.standings["#C"]; ok {
		t.Fatal("completed clan updated after the race")
	}
}

func TestPredictOutcome_MissingStandings(t *testing.T) {
	standings := &fakeStandingRepo{standings: map[string]domain.RiverRaceClan{}}
	clash := &fakeClashRepo{clans: map[string]domain.CompetingClan{"#A": {Tag: "#A"}}}
	svc := NewPredictionService(&fakeRaceRepo{}, standings, clash)

	got, err := svc.PredictOutcome(context.Background(), "#A", Options{})
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty prediction, got %v, %v", got, err)
	}
}

func TestPrepareStandings(t *testing.T) {
	standings := &fakeStandingRepo{standings: map[string]domain.RiverRaceClan{
		"#A": {Tag: "#A", CurrentRaceMedals: 10000, CurrentRaceTotalDecks: 200, TotalSeasonMedals: 40000},
	}}
	clash := &fakeClashRepo{clans: map[string]domain.CompetingClan{"#A": {Tag: "#A"}, "#B": {Tag: "#B"}}}
	svc := NewPredictionService(&fakeRaceRepo{}, standings, clash)

	if err := svc.PrepareStandings(context.Background(), "#A"); err != nil {
		t.Fatal(err)
	}
	a := standings.standings["#A"]
	if a.CurrentRaceMedals != 0 || a.CurrentRaceTotalDecks != 0 || a.TotalSeasonMedals != 40000 {
		t.Fatalf("unexpected standing %+v", a)
	}
	if len(standings.standings) != 2 {
		t.Fatalf("expected two standings, got %d", len(standings.standings))
	}
}
