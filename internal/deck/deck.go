// Package deck represents a draw pile as per-rank card counts and
// provides the canonical key encoding used to memoize solver states.
package deck

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxRanks is the number of distinct rank values. Rank i+1 lives at
	// index i of a Counts vector.
	MaxRanks = 10

	// MaxCount is the largest per-rank count a Counts entry (and hence
	// the canonical key) can hold. A full byte per rank keeps inflated
	// buckets representable, up to multi-deck shoes like 24 of each
	// rank with 96 ten-valued cards.
	MaxCount = 255
)

// Counts holds the number of remaining cards per rank. It is a value
// type: drawing derives a new vector rather than mutating in place.
type Counts [MaxRanks]uint8

// Total returns the number of physical cards remaining.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += int(v)
	}
	return n
}

// Draw returns a copy of c with one card of the given rank removed.
// The rank must still be present; Draw does not re-check.
func (c Counts) Draw(rank int) Counts {
	c[rank-1]--
	return c
}

// Sum returns the combined face value of all remaining cards.
func (c Counts) Sum() int {
	s := 0
	for i, v := range c {
		s += (i + 1) * int(v)
	}
	return s
}

// String renders the vector as a comma-separated count list, the same
// shape the CLI and store use.
func (c Counts) String() string {
	parts := make([]string, MaxRanks)
	for i, v := range c {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, ",")
}

// ParseCounts parses a comma-separated count list produced by
// Counts.String (or typed by a user).
func ParseCounts(s string) (Counts, error) {
	parts := strings.Split(s, ",")
	if len(parts) != MaxRanks {
		return Counts{}, fmt.Errorf("expected %d comma-separated counts, got %d", MaxRanks, len(parts))
	}
	var c Counts
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Counts{}, fmt.Errorf("count for rank %d: %w", i+1, err)
		}
		if n < 0 {
			return Counts{}, fmt.Errorf("count for rank %d is negative", i+1)
		}
		if n > MaxCount {
			return Counts{}, fmt.Errorf("count for rank %d exceeds %d", i+1, MaxCount)
		}
		c[i] = uint8(n)
	}
	return c, nil
}

// Key is the canonical, hashable encoding of a Counts vector: two
// multisets are equal if and only if their keys are equal. One byte
// per rank, packed across two machine words — ranks 1..8 in lo, ranks
// 9..10 in hi. Packing is total over valid counts.
type Key struct {
	lo, hi uint64
}

// Pack encodes counts into a Key.
func Pack(c Counts) Key {
	var k Key
	for i := 0; i < 8; i++ {
		k.lo |= uint64(c[i]) << (8 * i)
	}
	k.hi = uint64(c[8]) | uint64(c[9])<<8
	return k
}

// Unpack reverses Pack. The solver never needs it; diagnostics and
// tests do.
func (k Key) Unpack() Counts {
	var c Counts
	lo := k.lo
	for i := 0; i < 8; i++ {
		c[i] = uint8(lo)
		lo >>= 8
	}
	c[8] = uint8(k.hi)
	c[9] = uint8(k.hi >> 8)
	return c
}

// Deck is a validated rank multiset ready for solving or simulation.
type Deck struct {
	counts Counts
}

// New validates counts and wraps them in a Deck. Per-rank counts are
// already capped at MaxCount by the Counts element type; only emptiness
// needs checking, so nothing past this boundary has to re-check.
func New(counts Counts) (Deck, error) {
	if counts.Total() == 0 {
		return Deck{}, fmt.Errorf("deck has no cards")
	}
	return Deck{counts: counts}, nil
}

// Counts returns the per-rank card counts.
func (d Deck) Counts() Counts { return d.counts }

// Size returns the number of physical cards.
func (d Deck) Size() int { return d.counts.Total() }

// Cards flattens the deck to one face value per physical card, in rank
// order. The simulator shuffles this slice.
func (d Deck) Cards() []int {
	cards := make([]int, 0, d.Size())
	for i, v := range d.counts {
		for j := 0; j < int(v); j++ {
			cards = append(cards, i+1)
		}
	}
	return cards
}
