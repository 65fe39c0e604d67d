// Package sim is the Monte Carlo cross-check for the exact solver: it
// shuffles a physical deck, plays games to completion, and tallies the
// observed (final total, cards drawn) outcomes. It shares nothing with
// the solver beyond the deck type.
package sim

import (
	"context"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cardlab/overdraw/internal/deck"
)

// progressEvery is how many games pass between progress callbacks.
const progressEvery = 1_000_000

// Options tune a simulation run.
type Options struct {
	// Games caps the run; 0 means run until the context is cancelled.
	Games uint64
	// Workers is the pool size; 0 means GOMAXPROCS.
	Workers int
	// Progress, when set, is invoked roughly every progressEvery games
	// with the global count so far. Called from worker goroutines.
	Progress func(games uint64)
}

// Tally accumulates outcome counts across games.
type Tally struct {
	Totals  map[int]uint64
	Draws   map[int]uint64
	Games   uint64
	Elapsed time.Duration
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{
		Totals: make(map[int]uint64),
		Draws:  make(map[int]uint64),
	}
}

// add records one finished game.
func (t *Tally) add(total, draws int) {
	t.Totals[total]++
	t.Draws[draws]++
	t.Games++
}

// Merge folds other into t.
func (t *Tally) Merge(other *Tally) {
	for v, n := range other.Totals {
		t.Totals[v] += n
	}
	for v, n := range other.Draws {
		t.Draws[v] += n
	}
	t.Games += other.Games
}

// Marginals converts the counts to empirical probabilities. Counts map
// one-to-one onto the solver's marginal axes, so the two can be
// compared directly.
func (t *Tally) Marginals() (totals map[int]float64, draws map[int]float64) {
	totals = make(map[int]float64, len(t.Totals))
	draws = make(map[int]float64, len(t.Draws))
	if t.Games == 0 {
		return totals, draws
	}
	g := float64(t.Games)
	for v, n := range t.Totals {
		totals[v] = float64(n) / g
	}
	for v, n := range t.Draws {
		draws[v] = float64(n) / g
	}
	return totals, draws
}

// ExpectedTotal returns the mean observed final total.
func (t *Tally) ExpectedTotal() float64 {
	if t.Games == 0 {
		return 0
	}
	s := uint64(0)
	for v, n := range t.Totals {
		s += uint64(v) * n
	}
	return float64(s) / float64(t.Games)
}

// ExpectedDraws returns the mean observed game length.
func (t *Tally) ExpectedDraws() float64 {
	if t.Games == 0 {
		return 0
	}
	s := uint64(0)
	for v, n := range t.Draws {
		s += uint64(v) * n
	}
	return float64(s) / float64(t.Games)
}

// playGame shuffles cards in place and draws from the front until the
// running total exceeds target or the deck runs out.
func playGame(rng *rand.Rand, cards []int, target int) (total, draws int) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	for _, card := range cards {
		total += card
		draws++
		if total > target {
			break
		}
	}
	return total, draws
}

// Run plays games of "draw until the total exceeds target" in parallel
// and returns the merged tally. Each worker owns a private RNG, deck
// copy, and tally, so the hot loop takes no locks; tallies merge once
// at the end. Cancellation is the normal way to stop an uncapped run —
// Run returns the partial tally with a nil error.
func Run(ctx context.Context, d deck.Deck, target int, opts Options) (*Tally, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var played atomic.Uint64
	tallies := make([]*Tally, workers)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		tally := NewTally()
		tallies[w] = tally
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
			cards := d.Cards()
			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				// Claim a game number before playing so a cap is exact.
				n := played.Add(1)
				if opts.Games > 0 && n > opts.Games {
					return nil
				}
				total, draws := playGame(rng, cards, target)
				tally.add(total, draws)
				if opts.Progress != nil && n%progressEvery == 0 {
					opts.Progress(n)
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := NewTally()
	for _, t := range tallies {
		merged.Merge(t)
	}
	merged.Elapsed = time.Since(start)
	return merged, nil
}
