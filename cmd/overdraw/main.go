// Command overdraw computes the distribution of (final total, cards
// drawn) for a draw-until-the-total-passes-the-target card game, either
// exactly (memoized solver) or by Monte Carlo sampling.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cardlab/overdraw/internal/deck"
	"github.com/cardlab/overdraw/internal/report"
	"github.com/cardlab/overdraw/internal/sim"
	"github.com/cardlab/overdraw/internal/solver"
	"github.com/cardlab/overdraw/internal/store"
)

func main() {
	var (
		mode     = flag.String("mode", "solve", "solve, simulate, or estimate")
		preset   = flag.String("deck", "standard40", "deck preset: "+strings.Join(deck.Presets(), ", "))
		countsIn = flag.String("counts", "", "explicit per-rank counts (overrides -deck), e.g. 4,4,4,4,4,4,4,4,4,16")
		target   = flag.Int("target", 30, "stop once the running total exceeds this")
		games    = flag.Uint64("games", 0, "simulate: stop after this many games (0 = run until interrupted)")
		workers  = flag.Int("workers", 0, "simulate: worker count (0 = GOMAXPROCS)")
		outPath  = flag.String("out", "", "also write the report to this file")
		dbPath   = flag.String("db", "", "persist the run to this SQLite database")
	)
	flag.Parse()

	d, err := buildDeck(*preset, *countsIn)
	if err != nil {
		log.Fatalf("deck: %v", err)
	}
	if *target < 0 {
		log.Fatalf("target must be >= 0")
	}

	var rep report.Report
	switch *mode {
	case "estimate":
		bound := solver.EstimateStates(d, *target)
		fmt.Printf("Deck: %s (%d cards)\n", d.Counts(), d.Size())
		fmt.Printf("State bound: %d (limit %d)\n", bound, uint64(solver.DefaultStateLimit))
		if !solver.Feasible(d, *target, 0) {
			fmt.Println("Verdict: too large to solve exactly; simulate instead")
			os.Exit(1)
		}
		fmt.Println("Verdict: feasible")
		return

	case "solve":
		rep, err = runSolve(d, *target)
		if err != nil {
			log.Fatalf("solve: %v", err)
		}

	case "simulate":
		rep, err = runSimulate(d, *target, *games, *workers)
		if err != nil {
			log.Fatalf("simulate: %v", err)
		}

	default:
		log.Fatalf("unknown mode %q", *mode)
	}

	if err := report.Render(os.Stdout, rep); err != nil {
		log.Fatalf("render: %v", err)
	}
	if *outPath != "" {
		if err := report.Save(*outPath, rep); err != nil {
			log.Fatalf("save report: %v", err)
		}
		fmt.Printf("\nReport saved to %s\n", *outPath)
	}
	if *dbPath != "" {
		if err := persist(*dbPath, rep); err != nil {
			log.Fatalf("persist run: %v", err)
		}
	}
}

func buildDeck(preset, countsIn string) (deck.Deck, error) {
	if countsIn != "" {
		counts, err := deck.ParseCounts(countsIn)
		if err != nil {
			return deck.Deck{}, err
		}
		return deck.New(counts)
	}
	return deck.Preset(preset)
}

func runSolve(d deck.Deck, target int) (report.Report, error) {
	if !solver.Feasible(d, target, 0) {
		return report.Report{}, fmt.Errorf("state bound %d exceeds limit; run -mode estimate for details", solver.EstimateStates(d, target))
	}
	start := time.Now()
	sv, err := solver.New(target)
	if err != nil {
		return report.Report{}, err
	}
	dist, err := sv.Solve(d)
	if err != nil {
		return report.Report{}, err
	}
	summary, err := solver.Aggregate(dist)
	if err != nil {
		return report.Report{}, err
	}
	return report.FromSolve(d, target, summary, sv.States(), time.Since(start)), nil
}

// runSimulate plays games until the cap is hit or the process receives
// SIGINT/SIGTERM, then reports whatever was tallied.
func runSimulate(d deck.Deck, target int, games uint64, workers int) (report.Report, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if games == 0 {
		fmt.Println("Simulating... press Ctrl+C to stop and report.")
	}
	start := time.Now()
	tally, err := sim.Run(ctx, d, target, sim.Options{
		Games:   games,
		Workers: workers,
		Progress: func(n uint64) {
			rate := float64(n) / time.Since(start).Seconds()
			fmt.Printf("Games played: %d (%.2f million games/sec)\n", n, rate/1e6)
		},
	})
	if err != nil {
		return report.Report{}, err
	}
	return report.FromTally(d, target, tally), nil
}

func persist(path string, rep report.Report) error {
	db, err := store.NewSQLiteDB(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	kind := store.KindSolve
	if rep.Source != "exact" {
		kind = store.KindSimulate
	}
	mass := 0.0
	for _, p := range rep.Totals {
		mass += p
	}
	run := &store.Run{
		Kind:          kind,
		Deck:          rep.Deck.String(),
		Target:        rep.Target,
		ExpectedTotal: rep.ExpectedTotal,
		ExpectedDraws: rep.ExpectedDraws,
		Mass:          mass,
		States:        rep.States,
		Games:         rep.Games,
		DurationMs:    rep.Elapsed.Milliseconds(),
		EngineVersion: solver.EngineVersion,
	}
	marginals := make([]store.Marginal, 0, len(rep.Totals)+len(rep.Draws))
	for v, p := range rep.Totals {
		marginals = append(marginals, store.Marginal{Axis: store.AxisTotal, Value: v, Probability: p})
	}
	for v, p := range rep.Draws {
		marginals = append(marginals, store.Marginal{Axis: store.AxisDraws, Value: v, Probability: p})
	}
	if err := db.SaveRun(run, marginals); err != nil {
		return err
	}
	fmt.Printf("Run %s persisted to %s\n", run.ID, path)
	return nil
}
