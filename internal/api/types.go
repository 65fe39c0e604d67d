package api

import (
	"github.com/cardlab/overdraw/internal/store"
)

// DeckRequest names a deck either by preset or by explicit per-rank
// counts. Exactly one of the two must be set.
type DeckRequest struct {
	Preset string `json:"preset,omitempty"`
	Counts []int  `json:"counts,omitempty"`
}

// SolveRequest asks for the exact joint distribution.
type SolveRequest struct {
	Deck    DeckRequest `json:"deck"`
	Target  int         `json:"target"`
	Persist bool        `json:"persist,omitempty"`
}

// SolveResponse carries the aggregated result of an exact solve.
type SolveResponse struct {
	Deck          string          `json:"deck"`
	Target        int             `json:"target"`
	Outcomes      int             `json:"outcomes"`
	States        int             `json:"states"`
	Mass          float64         `json:"mass"`
	ExpectedTotal float64         `json:"expected_total"`
	ExpectedDraws float64         `json:"expected_draws"`
	Totals        map[int]float64 `json:"totals"`
	Draws         map[int]float64 `json:"draws"`
	DurationMs    int64           `json:"duration_ms"`
	EngineVersion string          `json:"engine_version"`
	RunID         string          `json:"run_id,omitempty"`
}

// EstimateRequest asks whether a solve is feasible before running it.
type EstimateRequest struct {
	Deck   DeckRequest `json:"deck"`
	Target int         `json:"target"`
}

// EstimateResponse reports the analytic state bound.
type EstimateResponse struct {
	Deck       string `json:"deck"`
	Target     int    `json:"target"`
	StateBound uint64 `json:"state_bound"`
	StateLimit uint64 `json:"state_limit"`
	Feasible   bool   `json:"feasible"`
}

// SimulateRequest asks for a bounded Monte Carlo run. Unbounded runs
// are a CLI concern; over HTTP a game cap is required.
type SimulateRequest struct {
	Deck    DeckRequest `json:"deck"`
	Target  int         `json:"target"`
	Games   uint64      `json:"games"`
	Workers int         `json:"workers,omitempty"`
	Persist bool        `json:"persist,omitempty"`
}

// SimulateResponse carries the empirical marginals of a bounded run.
type SimulateResponse struct {
	Deck          string          `json:"deck"`
	Target        int             `json:"target"`
	Games         uint64          `json:"games"`
	ExpectedTotal float64         `json:"expected_total"`
	ExpectedDraws float64         `json:"expected_draws"`
	Totals        map[int]float64 `json:"totals"`
	Draws         map[int]float64 `json:"draws"`
	DurationMs    int64           `json:"duration_ms"`
	RunID         string          `json:"run_id,omitempty"`
}

// MarginalsResponse returns one persisted run's marginal rows.
type MarginalsResponse struct {
	RunID     string           `json:"run_id"`
	Marginals []store.Marginal `json:"marginals"`
}
