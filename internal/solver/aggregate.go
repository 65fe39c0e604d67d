package solver

import (
	"fmt"
	"math"
)

// Summary is the aggregated view of one joint distribution: both
// marginals plus their expectations.
type Summary struct {
	Totals        map[int]float64 `json:"totals"`
	Draws         map[int]float64 `json:"draws"`
	ExpectedTotal float64         `json:"expected_total"`
	ExpectedDraws float64         `json:"expected_draws"`
	Outcomes      int             `json:"outcomes"`
	Mass          float64         `json:"mass"`
}

// Aggregate projects a joint distribution onto its two marginals and
// computes expectations. It fails if either marginal's mass deviates
// from 1 beyond MassTolerance, since that indicates the joint
// distribution upstream is already broken.
func Aggregate(d Dist) (Summary, error) {
	sum := Summary{
		Totals: make(map[int]float64),
		Draws:  make(map[int]float64),
	}
	for o, p := range d {
		sum.Totals[o.Total] += p
		sum.Draws[o.Draws] += p
		sum.ExpectedTotal += float64(o.Total) * p
		sum.ExpectedDraws += float64(o.Draws) * p
		sum.Mass += p
	}
	sum.Outcomes = len(d)

	for axis, marginal := range map[string]map[int]float64{"total": sum.Totals, "draws": sum.Draws} {
		mass := 0.0
		for _, p := range marginal {
			mass += p
		}
		if math.Abs(mass-1) > MassTolerance {
			return Summary{}, fmt.Errorf("%w: %s marginal mass %.12f", ErrMassDrift, axis, mass)
		}
	}
	return sum, nil
}
