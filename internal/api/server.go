// Package api exposes the solver, estimator, and simulator over HTTP.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cardlab/overdraw/internal/deck"
	"github.com/cardlab/overdraw/internal/sim"
	"github.com/cardlab/overdraw/internal/solver"
	"github.com/cardlab/overdraw/internal/store"
)

// Server handles HTTP requests. The db may be nil, in which case
// persistence-related routes and the persist flags are rejected.
type Server struct {
	db     store.DB
	logger *log.Logger
}

// NewServer creates a new API server.
func NewServer(db store.DB) *Server {
	return &Server{
		db:     db,
		logger: log.New(os.Stdout, "[api] ", log.LstdFlags),
	}
}

// Routes sets up the HTTP routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Heartbeat("/health"))

	r.Post("/solve", s.handleSolve)
	r.Post("/estimate", s.handleEstimate)
	r.Post("/simulate", s.handleSimulate)
	r.Get("/decks", s.handleListDecks)
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{id}", s.handleGetRun)
	r.Get("/runs/{id}/marginals", s.handleGetMarginals)

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	d, err := resolveDeck(req.Deck)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateTarget(req.Target); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !solver.Feasible(d, req.Target, 0) {
		s.writeError(w, http.StatusUnprocessableEntity, "deck too large to solve exactly; use /estimate or /simulate")
		return
	}
	if req.Persist && s.db == nil {
		s.writeError(w, http.StatusBadRequest, "persistence is not configured")
		return
	}

	start := time.Now()
	sv, err := solver.New(req.Target)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dist, err := sv.Solve(d)
	if err != nil {
		// Mass drift is an engine defect, not a client mistake.
		s.logger.Printf("solve failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summary, err := solver.Aggregate(dist)
	if err != nil {
		s.logger.Printf("aggregate failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	elapsed := time.Since(start)

	resp := SolveResponse{
		Deck:          d.Counts().String(),
		Target:        req.Target,
		Outcomes:      summary.Outcomes,
		States:        sv.States(),
		Mass:          summary.Mass,
		ExpectedTotal: summary.ExpectedTotal,
		ExpectedDraws: summary.ExpectedDraws,
		Totals:        summary.Totals,
		Draws:         summary.Draws,
		DurationMs:    elapsed.Milliseconds(),
		EngineVersion: solver.EngineVersion,
	}

	if req.Persist {
		run := &store.Run{
			Kind:          store.KindSolve,
			Deck:          resp.Deck,
			Target:        req.Target,
			ExpectedTotal: summary.ExpectedTotal,
			ExpectedDraws: summary.ExpectedDraws,
			Mass:          summary.Mass,
			States:        sv.States(),
			DurationMs:    elapsed.Milliseconds(),
			EngineVersion: solver.EngineVersion,
		}
		if err := s.db.SaveRun(run, marginalRows(summary.Totals, summary.Draws)); err != nil {
			s.logger.Printf("persist run: %v", err)
			s.writeError(w, http.StatusInternalServerError, "failed to persist run")
			return
		}
		resp.RunID = run.ID
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	d, err := resolveDeck(req.Deck)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateTarget(req.Target); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bound := solver.EstimateStates(d, req.Target)
	s.writeJSON(w, http.StatusOK, EstimateResponse{
		Deck:       d.Counts().String(),
		Target:     req.Target,
		StateBound: bound,
		StateLimit: solver.DefaultStateLimit,
		Feasible:   bound <= solver.DefaultStateLimit,
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	d, err := resolveDeck(req.Deck)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateSimulate(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Persist && s.db == nil {
		s.writeError(w, http.StatusBadRequest, "persistence is not configured")
		return
	}

	tally, err := sim.Run(r.Context(), d, req.Target, sim.Options{
		Games:   req.Games,
		Workers: req.Workers,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	totals, draws := tally.Marginals()
	resp := SimulateResponse{
		Deck:          d.Counts().String(),
		Target:        req.Target,
		Games:         tally.Games,
		ExpectedTotal: tally.ExpectedTotal(),
		ExpectedDraws: tally.ExpectedDraws(),
		Totals:        totals,
		Draws:         draws,
		DurationMs:    tally.Elapsed.Milliseconds(),
	}

	if req.Persist {
		run := &store.Run{
			Kind:          store.KindSimulate,
			Deck:          resp.Deck,
			Target:        req.Target,
			ExpectedTotal: resp.ExpectedTotal,
			ExpectedDraws: resp.ExpectedDraws,
			Games:         tally.Games,
			DurationMs:    tally.Elapsed.Milliseconds(),
			EngineVersion: solver.EngineVersion,
		}
		if err := s.db.SaveRun(run, marginalRows(totals, draws)); err != nil {
			s.logger.Printf("persist run: %v", err)
			s.writeError(w, http.StatusInternalServerError, "failed to persist run")
			return
		}
		resp.RunID = run.ID
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"presets": deck.Presets()})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusNotFound, "persistence is not configured")
		return
	}
	q := store.RunsQuery{Kind: r.URL.Query().Get("kind")}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	list, err := s.db.ListRuns(q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusNotFound, "persistence is not configured")
		return
	}
	run, err := s.db.GetRun(chi.URLParam(r, "id"))
	if errors.Is(err, sql.ErrNoRows) {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Printf("get run: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetMarginals(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusNotFound, "persistence is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	marginals, err := s.db.GetMarginals(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, MarginalsResponse{RunID: id, Marginals: marginals})
}

// marginalRows flattens both marginals into store rows.
func marginalRows(totals, draws map[int]float64) []store.Marginal {
	rows := make([]store.Marginal, 0, len(totals)+len(draws))
	for v, p := range totals {
		rows = append(rows, store.Marginal{Axis: store.AxisTotal, Value: v, Probability: p})
	}
	for v, p := range draws {
		rows = append(rows, store.Marginal{Axis: store.AxisDraws, Value: v, Probability: p})
	}
	return rows
}
