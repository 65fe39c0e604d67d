package solver

import (
	"math"
	"testing"

	"github.com/cardlab/overdraw/internal/deck"
)

func mustDeck(t *testing.T, counts deck.Counts) deck.Deck {
	t.Helper()
	d, err := deck.New(counts)
	if err != nil {
		t.Fatalf("deck: %v", err)
	}
	return d
}

func TestSingleCardDeck(t *testing.T) {
	// One card of value 5, target below it: always (5, 1 draw).
	d := mustDeck(t, deck.Counts{0, 0, 0, 0, 1, 0, 0, 0, 0, 0})
	dist, err := Solve(d, 0)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(dist) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(dist))
	}
	p, ok := dist[Outcome{Total: 5, Draws: 1}]
	if !ok {
		t.Fatalf("missing outcome (5,1); got %v", dist)
	}
	if p != 1.0 {
		t.Errorf("expected probability 1, got %v", p)
	}
}

func TestDegenerateTargetZero(t *testing.T) {
	// Target 0 means any first card ends the game: exactly one draw,
	// expected total = mean rank value.
	d := mustDeck(t, deck.Counts{4, 4, 4, 4, 4, 4, 4, 4, 4, 4})
	dist, err := Solve(d, 0)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	sum, err := Aggregate(dist)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if math.Abs(sum.ExpectedDraws-1) > MassTolerance {
		t.Errorf("expected exactly 1 draw, got %v", sum.ExpectedDraws)
	}
	if math.Abs(sum.ExpectedTotal-5.5) > MassTolerance {
		t.Errorf("expected mean total 5.5, got %v", sum.ExpectedTotal)
	}
	if p, ok := sum.Draws[1]; !ok || math.Abs(p-1) > MassTolerance {
		t.Errorf("all mass should sit at 1 draw, got %v", sum.Draws)
	}
}

func TestMassIsOne(t *testing.T) {
	cases := []struct {
		name   string
		counts deck.Counts
		target int
	}{
		{"standard40/30", deck.Counts{4, 4, 4, 4, 4, 4, 4, 4, 4, 4}, 30},
		{"tens52/30", deck.Counts{4, 4, 4, 4, 4, 4, 4, 4, 4, 16}, 30},
		{"short40/30", deck.Counts{4, 4, 4, 4, 4, 4, 4, 0, 0, 12}, 30},
		{"tiny/5", deck.Counts{2, 1, 0, 0, 0, 0, 0, 0, 0, 0}, 5},
		{"exhaustible/1000", deck.Counts{4, 4, 4, 4, 4, 4, 4, 4, 4, 4}, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dist, err := Solve(mustDeck(t, tc.counts), tc.target)
			if err != nil {
				t.Fatalf("solve: %v", err)
			}
			if mass := dist.Mass(); math.Abs(mass-1) > MassTolerance {
				t.Errorf("mass %v deviates from 1", mass)
			}
		})
	}
}

func TestDeckExhaustion(t *testing.T) {
	// Target far above the deck's total value: the game always drains
	// the whole deck and ends at its full sum.
	counts := deck.Counts{4, 4, 4, 4, 4, 4, 4, 4, 4, 4}
	d := mustDeck(t, counts)
	dist, err := Solve(d, 1000)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	want := Outcome{Total: counts.Sum(), Draws: counts.Total()}
	if len(dist) != 1 {
		t.Fatalf("expected 1 outcome, got %d: %v", len(dist), dist)
	}
	if p := dist[want]; math.Abs(p-1) > MassTolerance {
		t.Errorf("expected all mass at %+v, got %v", want, dist)
	}
}

// TestDrawAccountingAcrossPathLengths pins the +1 bookkeeping at
// combine time: the same final total reached in one and in two draws
// must keep separate probability mass.
func TestDrawAccountingAcrossPathLengths(t *testing.T) {
	// Deck: two 3s and one 6, stop once total > 5.
	// Draw 6 first:      total 6 in 1 draw,  p = 1/3
	// Draw 3 then 3:     total 6 in 2 draws, p = 2/3 * 1/2 = 1/3
	// Draw 3 then 6:     total 9 in 2 draws, p = 2/3 * 1/2 = 1/3
	d := mustDeck(t, deck.Counts{0, 0, 2, 0, 0, 1, 0, 0, 0, 0})
	dist, err := Solve(d, 5)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	want := map[Outcome]float64{
		{Total: 6, Draws: 1}: 1.0 / 3.0,
		{Total: 6, Draws: 2}: 1.0 / 3.0,
		{Total: 9, Draws: 2}: 1.0 / 3.0,
	}
	if len(dist) != len(want) {
		t.Fatalf("expected %d outcomes, got %d: %v", len(want), len(dist), dist)
	}
	for o, p := range want {
		if got, ok := dist[o]; !ok {
			t.Errorf("missing outcome %+v", o)
		} else if math.Abs(got-p) > 1e-12 {
			t.Errorf("outcome %+v: expected %v, got %v", o, p, got)
		}
	}

	sum, err := Aggregate(dist)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if math.Abs(sum.Draws[1]-1.0/3.0) > 1e-12 || math.Abs(sum.Draws[2]-2.0/3.0) > 1e-12 {
		t.Errorf("length marginal collapsed path lengths: %v", sum.Draws)
	}
}

func TestEndToEndTensInflatedDeck(t *testing.T) {
	// Four each of ranks 1..9 plus twelve ten-valued cards, stop past 30.
	d := mustDeck(t, deck.Counts{4, 4, 4, 4, 4, 4, 4, 4, 4, 12})
	dist, err := Solve(d, 30)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	sum, err := Aggregate(dist)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	// Every overshoot total from 31 (minimum) to 39 (29 + a ten) must
	// be reachable.
	for total := 31; total <= 39; total++ {
		if p := sum.Totals[total]; p <= 0 {
			t.Errorf("total %d should have positive probability, got %v", total, p)
		}
	}
	for total := range sum.Totals {
		if total <= 30 {
			t.Errorf("total %d should be unreachable below the threshold", total)
		}
	}
	if sum.ExpectedDraws <= 3 || sum.ExpectedDraws >= 6 {
		t.Errorf("expected draw count should lie in (3, 6), got %v", sum.ExpectedDraws)
	}
}

func TestEndToEndSixDeckShoe(t *testing.T) {
	// 336 cards: 24 of each rank 1..9 plus 96 ten-valued cards. Large
	// counts per rank must stay representable end to end.
	d, err := deck.Preset("shoe336")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	dist, err := Solve(d, 30)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if mass := dist.Mass(); math.Abs(mass-1) > MassTolerance {
		t.Errorf("mass %v deviates from 1", mass)
	}
	sum, err := Aggregate(dist)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	for total := range sum.Totals {
		if total <= 30 || total > 40 {
			t.Errorf("total %d outside the reachable overshoot range", total)
		}
	}
	for total := 31; total <= 40; total++ {
		if p := sum.Totals[total]; p <= 0 {
			t.Errorf("total %d should have positive probability, got %v", total, p)
		}
	}
}

func TestDeterminism(t *testing.T) {
	d := mustDeck(t, deck.Counts{4, 4, 4, 4, 4, 4, 4, 0, 0, 12})
	a, err := Solve(d, 30)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	b, err := Solve(d, 30)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("outcome counts differ: %d vs %d", len(a), len(b))
	}
	// Rank iteration order is fixed, so re-solving must be bit-for-bit
	// identical, not merely within tolerance.
	for o, p := range a {
		if q, ok := b[o]; !ok || p != q {
			t.Errorf("outcome %+v: %v vs %v", o, p, q)
		}
	}
}

func TestSolverReusesMemoAcrossCalls(t *testing.T) {
	d := mustDeck(t, deck.Counts{4, 4, 4, 4, 4, 4, 4, 0, 0, 12})
	sv, err := New(30)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sv.Solve(d); err != nil {
		t.Fatalf("first solve: %v", err)
	}
	states := sv.States()
	if states == 0 {
		t.Fatal("expected memoized states after solving")
	}
	if _, err := sv.Solve(d); err != nil {
		t.Fatalf("second solve: %v", err)
	}
	if sv.States() != states {
		t.Errorf("re-solving the same deck grew the memo: %d -> %d", states, sv.States())
	}
}

func TestSolveReturnsIndependentCopy(t *testing.T) {
	d := mustDeck(t, deck.Counts{2, 1, 0, 0, 0, 0, 0, 0, 0, 0})
	sv, err := New(2)
	if err != nil {
		t.Fatal(err)
	}
	first, err := sv.Solve(d)
	if err != nil {
		t.Fatal(err)
	}
	for o := range first {
		first[o] = 0 // caller mutates its copy
	}
	second, err := sv.Solve(d)
	if err != nil {
		t.Fatal(err)
	}
	if mass := second.Mass(); math.Abs(mass-1) > MassTolerance {
		t.Errorf("memo was corrupted by caller mutation: mass %v", mass)
	}
}

func TestBadTarget(t *testing.T) {
	if _, err := New(-1); err == nil {
		t.Error("expected error for negative target")
	}
}
