package api

import (
	"fmt"

	"github.com/cardlab/overdraw/internal/deck"
)

const (
	// maxTarget keeps the state space bounded through the total axis.
	maxTarget = 10_000
	// maxGames caps HTTP simulation requests; longer runs belong to the
	// CLI where they can be interrupted.
	maxGames = 50_000_000
)

// resolveDeck validates a DeckRequest and builds the deck.
func resolveDeck(req DeckRequest) (deck.Deck, error) {
	switch {
	case req.Preset != "" && len(req.Counts) > 0:
		return deck.Deck{}, fmt.Errorf("deck: set either preset or counts, not both")
	case req.Preset != "":
		return deck.Preset(req.Preset)
	case len(req.Counts) > 0:
		if len(req.Counts) != deck.MaxRanks {
			return deck.Deck{}, fmt.Errorf("deck: counts must have %d entries, got %d", deck.MaxRanks, len(req.Counts))
		}
		var counts deck.Counts
		for i, n := range req.Counts {
			if n < 0 {
				return deck.Deck{}, fmt.Errorf("deck: count for rank %d is negative", i+1)
			}
			if n > deck.MaxCount {
				return deck.Deck{}, fmt.Errorf("deck: count for rank %d exceeds %d", i+1, deck.MaxCount)
			}
			counts[i] = uint8(n)
		}
		return deck.New(counts)
	default:
		return deck.Deck{}, fmt.Errorf("deck: preset or counts is required")
	}
}

func validateTarget(target int) error {
	if target < 0 {
		return fmt.Errorf("target must be >= 0")
	}
	if target > maxTarget {
		return fmt.Errorf("target too large (max %d)", maxTarget)
	}
	return nil
}

func validateSimulate(req *SimulateRequest) error {
	if err := validateTarget(req.Target); err != nil {
		return err
	}
	if req.Games == 0 {
		return fmt.Errorf("games is required")
	}
	if req.Games > maxGames {
		return fmt.Errorf("games too large (max %d)", maxGames)
	}
	if req.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	return nil
}
