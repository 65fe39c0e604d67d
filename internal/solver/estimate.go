package solver

import (
	"math"

	"github.com/cardlab/overdraw/internal/deck"
)

// DefaultStateLimit is the memo size past which a solve is refused by
// callers that gate on EstimateStates. Each memoized state costs a map
// entry plus its sub-distribution, so tens of millions is the practical
// ceiling on ordinary hardware.
const DefaultStateLimit = 50_000_000

// EstimateStates bounds the number of memo entries a solve over d with
// the given target can create. Only non-terminal states are memoized,
// and a state is non-terminal only while the drawn value — the
// difference between the initial and remaining multisets — has not
// passed the target. The bound therefore counts the removal vectors
// (0..count_i cards of each rank) whose combined face value is at most
// target, by dynamic programming over ranks. Counting saturates at
// MaxUint64 instead of overflowing.
//
// Tractability is governed by this threshold-capped count, not by raw
// deck size: a six-deck shoe at a small target stays tiny because
// almost all of its sub-multisets are already past the threshold. Use
// this before solving so an infeasible run is rejected up front instead
// of dying mid-recursion.
func EstimateStates(d deck.Deck, target int) uint64 {
	if target < 0 {
		return 0
	}
	// dp[v] counts removal vectors over the ranks seen so far whose
	// drawn face value is exactly v.
	dp := make([]uint64, target+1)
	dp[0] = 1
	for i, c := range d.Counts() {
		if c == 0 {
			continue
		}
		rank := i + 1
		next := make([]uint64, target+1)
		for v, n := range dp {
			if n == 0 {
				continue
			}
			for k := 0; k <= int(c); k++ {
				nv := v + k*rank
				if nv > target {
					break
				}
				next[nv] = satAdd(next[nv], n)
			}
		}
		dp = next
	}

	bound := uint64(0)
	for _, n := range dp {
		bound = satAdd(bound, n)
	}
	return bound
}

func satAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// Feasible reports whether a solve over d at target fits within the
// given memo state limit (DefaultStateLimit when limit is 0).
func Feasible(d deck.Deck, target int, limit uint64) bool {
	if limit == 0 {
		limit = DefaultStateLimit
	}
	return EstimateStates(d, target) <= limit
}
