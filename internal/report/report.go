// Package report renders solve and simulation results as human-readable
// percentage tables and optionally persists them to a file.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/cardlab/overdraw/internal/deck"
	"github.com/cardlab/overdraw/internal/sim"
	"github.com/cardlab/overdraw/internal/solver"
)

// Report is a rendered-ready view of one computation, exact or sampled.
type Report struct {
	Source        string // "exact" or "monte carlo"
	Deck          deck.Counts
	Target        int
	Games         uint64 // simulation only
	States        int    // exact only
	ExpectedTotal float64
	ExpectedDraws float64
	Totals        map[int]float64
	Draws         map[int]float64
	Elapsed       time.Duration
}

// FromSolve builds a report from the aggregator's summary.
func FromSolve(d deck.Deck, target int, sum solver.Summary, states int, elapsed time.Duration) Report {
	return Report{
		Source:        "exact",
		Deck:          d.Counts(),
		Target:        target,
		States:        states,
		ExpectedTotal: sum.ExpectedTotal,
		ExpectedDraws: sum.ExpectedDraws,
		Totals:        sum.Totals,
		Draws:         sum.Draws,
		Elapsed:       elapsed,
	}
}

// FromTally builds a report from a simulation tally.
func FromTally(d deck.Deck, target int, t *sim.Tally) Report {
	totals, draws := t.Marginals()
	return Report{
		Source:        "monte carlo",
		Deck:          d.Counts(),
		Target:        target,
		Games:         t.Games,
		ExpectedTotal: t.ExpectedTotal(),
		ExpectedDraws: t.ExpectedDraws(),
		Totals:        totals,
		Draws:         draws,
		Elapsed:       t.Elapsed,
	}
}

// Render writes the report as aligned percentage tables.
func Render(w io.Writer, r Report) error {
	fmt.Fprintf(w, "Draw-to-threshold distribution (%s)\n", r.Source)
	fmt.Fprintf(w, "Deck: %s (%d cards), stop once total > %d\n", r.Deck, r.Deck.Total(), r.Target)
	if r.Games > 0 {
		fmt.Fprintf(w, "Games played: %d\n", r.Games)
	}
	if r.States > 0 {
		fmt.Fprintf(w, "Memoized states: %d\n", r.States)
	}
	if r.Elapsed > 0 {
		fmt.Fprintf(w, "Elapsed: %v\n", r.Elapsed.Round(time.Millisecond))
	}
	fmt.Fprintf(w, "Expected final total: %.6f\n", r.ExpectedTotal)
	fmt.Fprintf(w, "Expected cards drawn: %.6f\n\n", r.ExpectedDraws)

	if err := renderMarginal(w, "Final total", r.Totals); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return renderMarginal(w, "Cards drawn", r.Draws)
}

func renderMarginal(w io.Writer, label string, marginal map[int]float64) error {
	values := make([]int, 0, len(marginal))
	for v := range marginal {
		values = append(values, v)
	}
	sort.Ints(values)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\tProbability\t\n", label)
	mass := 0.0
	for _, v := range values {
		p := marginal[v]
		mass += p
		fmt.Fprintf(tw, "%d\t%.6f%%\t\n", v, p*100)
	}
	fmt.Fprintf(tw, "sum\t%.6f%%\t\n", mass*100)
	return tw.Flush()
}

// Save renders the report and writes it to path.
func Save(path string, r Report) error {
	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
