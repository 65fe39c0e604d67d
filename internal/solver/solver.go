// Package solver computes the exact joint distribution of (final total,
// cards drawn) for a game that draws cards without replacement until the
// running total exceeds a target.
package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/cardlab/overdraw/internal/deck"
)

// EngineVersion tags persisted runs and API responses with the solver
// revision that produced them.
const EngineVersion = "overdraw-0.1.0"

// MassTolerance bounds how far a distribution's total probability mass
// may drift from 1 before it is treated as a computation defect.
const MassTolerance = 1e-9

var (
	// ErrBadTarget reports a negative target threshold.
	ErrBadTarget = errors.New("target must be >= 0")
	// ErrMassDrift reports a distribution whose probabilities do not sum
	// to 1 within MassTolerance. It signals an accumulation bug, never a
	// property of the input.
	ErrMassDrift = errors.New("probability mass drifted from 1")
)

// Outcome is one way a game can end: the final total and the number of
// cards drawn to reach it.
type Outcome struct {
	Total int `json:"total"`
	Draws int `json:"draws"`
}

// Dist maps each reachable Outcome to its probability. For any solver
// state the mapped probabilities sum to 1 within MassTolerance.
type Dist map[Outcome]float64

// Mass returns the summed probability over all outcomes.
func (d Dist) Mass() float64 {
	m := 0.0
	for _, p := range d {
		m += p
	}
	return m
}

// state is the memo key: which cards remain and how much has been drawn
// so far. Draws-so-far is deliberately absent — it does not affect
// future transitions, and keying on it would multiply the cached state
// count by the number of distinct path lengths reaching each state.
type state struct {
	key   deck.Key
	total int
}

// Solver memoizes sub-distributions across one or more decks for a
// fixed target. Not safe for concurrent use.
type Solver struct {
	target int
	memo   map[state]Dist
}

// New returns a solver that stops once the running total strictly
// exceeds target.
func New(target int) (*Solver, error) {
	if target < 0 {
		return nil, ErrBadTarget
	}
	return &Solver{
		target: target,
		memo:   make(map[state]Dist),
	}, nil
}

// States reports how many distinct non-terminal states have been
// memoized so far.
func (s *Solver) States() int { return len(s.memo) }

// Target returns the threshold the solver was built with.
func (s *Solver) Target() int { return s.target }

// Solve returns the joint outcome distribution for drawing from d with
// nothing accumulated yet. The returned map is the caller's to keep;
// it aliases nothing in the memo.
func (s *Solver) Solve(d deck.Deck) (Dist, error) {
	dist := s.solve(d.Counts(), 0)
	if mass := dist.Mass(); math.Abs(mass-1) > MassTolerance {
		return nil, fmt.Errorf("%w: mass %.12f over %d outcomes", ErrMassDrift, mass, len(dist))
	}
	out := make(Dist, len(dist))
	for o, p := range dist {
		out[o] = p
	}
	return out, nil
}

// solve is the recursive core. It returns distributions owned by the
// memo; callers must not mutate them.
func (s *Solver) solve(counts deck.Counts, total int) Dist {
	remaining := counts.Total()
	if total > s.target || remaining == 0 {
		// Terminal: the game is already over here, zero further draws.
		return Dist{Outcome{Total: total}: 1}
	}

	st := state{key: deck.Pack(counts), total: total}
	if cached, ok := s.memo[st]; ok {
		return cached
	}

	result := make(Dist)
	for i := 0; i < deck.MaxRanks; i++ {
		n := int(counts[i])
		if n == 0 {
			continue
		}
		rank := i + 1
		// Uniform over physical cards, so a rank's weight is its count.
		p := float64(n) / float64(remaining)
		sub := s.solve(counts.Draw(rank), total+rank)
		for o, q := range sub {
			// The sub-distribution counts draws from the successor
			// state; the card drawn at this level adds exactly one.
			result[Outcome{Total: o.Total, Draws: o.Draws + 1}] += p * q
		}
	}

	s.memo[st] = result
	return result
}

// Solve is the one-shot entry point: fresh memo, single deck.
func Solve(d deck.Deck, target int) (Dist, error) {
	s, err := New(target)
	if err != nil {
		return nil, err
	}
	return s.Solve(d)
}
