//go:build !integration

package resettime

import (
	"clanManager/domain"
	"errors"
	"math/rand"
	"testing"
	"time"
)

func ptr(t time.Time) *time.Time { return &t }

func TestReconstruct_FillsGapsFromNearestForwardSlot(t *testing.T) {
	t2 := time.Date(2024, 1, 5, 9, 50, 0, 0, time.UTC)
	t4 := t2.Add(2 * Day)

	got, err := Reconstruct([]*time.Time{nil, ptr(t2), nil, ptr(t4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{t2.Add(-Day), t2, t2.Add(Day), t4}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("slot %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestReconstruct_WrapsAround(t *testing.T) {
	t0 := time.Date(2024, 1, 4, 9, 50, 0, 0, time.UTC)

	got, err := Reconstruct([]*time.Time{ptr(t0), nil, nil, nil, nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, g := range got {
		want := t0.Add(time.Duration(i) * Day)
		if !g.Equal(want) {
			t.Fatalf("slot %d: expected %v, got %v", i, want, g)
		}
	}
}

func TestReconstruct_AllNullFails(t *testing.T) {
	for _, n := range []int{0, 4, 5, 7} {
		_, err := Reconstruct(make([]*time.Time, n))
		if !errors.Is(err, domain.ErrUnreconstructable) {
			t.Fatalf("len %d: expected ErrUnreconstructable, got %v", n, err)
		}
	}
}

func TestReconstruct_DoesNotMutateInput(t *testing.T) {
	t1 := time.Date(2024, 1, 5, 9, 50, 0, 0, time.UTC)
	slots := []*time.Time{nil, ptr(t1), nil}

	if _, err := Reconstruct(slots); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slots[0] != nil || slots[2] != nil {
		t.Fatal("input slots were modified")
	}
}

// Filling slots in any order must give the same sequence.
func TestReconstruct_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2024, 3, 1, 9, 45, 0, 0, time.UTC)

	for iter := 0; iter < 500; iter++ {
		n := 4
		if rng.Intn(2) == 0 {
			n = 7
		}
		slots := make([]*time.Time, n)
		populated := 0
		for i := range slots {
			if rng.Intn(3) == 0 {
				// jitter keeps observed resets from lining up exactly
				jitter := time.Duration(rng.Intn(600)) * time.Second
				slots[i] = ptr(base.Add(time.Duration(i)*Day + jitter))
				populated++
			}
		}
		if populated == 0 {
			slots[rng.Intn(n)] = ptr(base)
		}

		want, err := Reconstruct(slots)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := make([]time.Time, n)
		for _, i := range rng.Perm(n) {
			v, ok := fill(slots, i)
			if !ok {
				t.Fatalf("slot %d could not be filled", i)
			}
			got[i] = v
		}

		for i := range want {
			if !got[i].Equal(want[i]) {
				t.Fatalf("iteration %d slot %d: %v != %v", iter, i, got[i], want[i])
			}
		}
	}
}

func TestLatest(t *testing.T) {
	t1 := time.Date(2024, 1, 5, 9, 50, 0, 0, time.UTC)
	t2 := t1.Add(Day)

	got, ok := Latest([]*time.Time{ptr(t1), nil, ptr(t2), nil})
	if !ok || !got.Equal(t2) {
		t.Fatalf("expected %v, got %v (%v)", t2, got, ok)
	}

	if _, ok := Latest([]*time.Time{nil, nil}); ok {
		t.Fatal("expected no latest for empty slots")
	}
}
