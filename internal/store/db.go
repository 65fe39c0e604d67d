// Package store persists solve and simulation runs, with the
// aggregator's marginal rows, to SQLite.
package store

import (
	"time"
)

// Run kinds.
const (
	KindSolve    = "solve"
	KindSimulate = "simulate"
)

// Marginal axes.
const (
	AxisTotal = "total"
	AxisDraws = "draws"
)

// DB is the persistence interface the API and CLI program against.
type DB interface {
	Close() error
	Migrate() error
	SaveRun(run *Run, marginals []Marginal) error
	GetRun(id string) (*Run, error)
	ListRuns(query RunsQuery) (*RunsList, error)
	GetMarginals(runID string) ([]Marginal, error)
}

// Run records one completed computation: the inputs, the expectations,
// and how the answer was produced.
type Run struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"` // "solve" or "simulate"
	Deck          string    `json:"deck"` // comma-separated per-rank counts
	Target        int       `json:"target"`
	ExpectedTotal float64   `json:"expected_total"`
	ExpectedDraws float64   `json:"expected_draws"`
	Mass          float64   `json:"mass"`   // solve only; 1 up to tolerance
	States        int       `json:"states"` // solve only
	Games         uint64    `json:"games"`  // simulate only
	DurationMs    int64     `json:"duration_ms"`
	EngineVersion string    `json:"engine_version"`
	CreatedAt     time.Time `json:"created_at"`
}

// Marginal is one row of a run's marginal distribution.
type Marginal struct {
	Axis        string  `json:"axis"` // "total" or "draws"
	Value       int     `json:"value"`
	Probability float64 `json:"probability"`
}

// RunsQuery filters and pages a run listing.
type RunsQuery struct {
	Kind    string `json:"kind,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// RunsList is a paginated run listing.
type RunsList struct {
	Runs       []Run `json:"runs"`
	TotalCount int   `json:"totalCount"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalPages int   `json:"totalPages"`
}
