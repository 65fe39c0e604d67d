package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/cardlab/overdraw/internal/deck"
	"github.com/cardlab/overdraw/internal/solver"
)

func mustDeck(t *testing.T, counts deck.Counts) deck.Deck {
	t.Helper()
	d, err := deck.New(counts)
	if err != nil {
		t.Fatalf("deck: %v", err)
	}
	return d
}

func TestBoundedRunPlaysExactlyNGames(t *testing.T) {
	d := mustDeck(t, deck.Counts{4, 4, 4, 4, 4, 4, 4, 0, 0, 12})
	tally, err := Run(context.Background(), d, 30, Options{Games: 5000, Workers: 4})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if tally.Games != 5000 {
		t.Errorf("expected exactly 5000 games, got %d", tally.Games)
	}

	totals, draws := tally.Marginals()
	mass := 0.0
	for _, p := range totals {
		mass += p
	}
	if math.Abs(mass-1) > 1e-9 {
		t.Errorf("empirical total marginal mass %v", mass)
	}
	mass = 0.0
	for _, p := range draws {
		mass += p
	}
	if math.Abs(mass-1) > 1e-9 {
		t.Errorf("empirical draw marginal mass %v", mass)
	}
}

func TestEmpiricalAgreesWithExact(t *testing.T) {
	// A coarse cross-check: with enough games the sampled expectations
	// land near the solver's exact values.
	counts := deck.Counts{4, 4, 4, 4, 4, 4, 4, 0, 0, 12}
	d := mustDeck(t, counts)

	dist, err := solver.Solve(d, 30)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	sum, err := solver.Aggregate(dist)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	tally, err := Run(context.Background(), d, 30, Options{Games: 200_000})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := math.Abs(tally.ExpectedDraws() - sum.ExpectedDraws); diff > 0.05 {
		t.Errorf("expected draws: exact %v vs sampled %v", sum.ExpectedDraws, tally.ExpectedDraws())
	}
	if diff := math.Abs(tally.ExpectedTotal() - sum.ExpectedTotal); diff > 0.1 {
		t.Errorf("expected total: exact %v vs sampled %v", sum.ExpectedTotal, tally.ExpectedTotal())
	}
}

func TestCancellationFlushesPartialTally(t *testing.T) {
	d := mustDeck(t, deck.Counts{4, 4, 4, 4, 4, 4, 4, 4, 4, 4})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	tally, err := Run(ctx, d, 30, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if tally.Games == 0 {
		t.Error("expected a partial tally before cancellation")
	}
	if tally.Elapsed <= 0 {
		t.Error("expected elapsed time to be recorded")
	}
}

func TestTallyMerge(t *testing.T) {
	a := NewTally()
	a.add(31, 4)
	a.add(35, 5)
	b := NewTally()
	b.add(31, 4)

	a.Merge(b)
	if a.Games != 3 {
		t.Errorf("expected 3 games, got %d", a.Games)
	}
	if a.Totals[31] != 2 {
		t.Errorf("expected 2 games at total 31, got %d", a.Totals[31])
	}
	if a.Draws[5] != 1 {
		t.Errorf("expected 1 game at 5 draws, got %d", a.Draws[5])
	}
}

func TestPlayGameRespectsThreshold(t *testing.T) {
	d := mustDeck(t, deck.Counts{0, 0, 0, 0, 0, 0, 0, 0, 0, 5})
	tally, err := Run(context.Background(), d, 30, Options{Games: 100, Workers: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// All tens: always 10+10+10+10 = 40 > 30 after exactly 4 draws.
	if tally.Totals[40] != 100 || tally.Draws[4] != 100 {
		t.Errorf("deterministic deck tallied wrong: totals=%v draws=%v", tally.Totals, tally.Draws)
	}
}
