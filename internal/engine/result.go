package engine

import (
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/ocean"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
)

// Component names used in diagnostics.
const (
	ComponentOceanographic = "oceanographic"
	ComponentTopographic   = "topographic"
	ComponentAnthropogenic = "anthropogenic"
)

// Result is the output of one Compute call. It is never modified after
// Compute returns.
type Result struct {
	HSI           *grid.Grid
	Components    Components
	Contributions Contributions
	Diagnostics   Diagnostics
}

// Components are the four sub-index grids.
type Components struct {
	Phys   *grid.Grid
	Prey   *grid.Grid
	Topo   *grid.Grid
	Anthro *grid.Grid
}

// Contributions hold each weighted term's percentage of the
// pre-anthropogenic sum, per cell.
type Contributions struct {
	Phys *grid.Grid
	Prey *grid.Grid
	Topo *grid.Grid
}

// Diagnostics describe which data the result was built from and which
// degradations were applied.
type Diagnostics struct {
	Target             string              `json:"target_date"`
	LagDatesUsed       map[Variable]string `json:"lag_dates_used"`
	FallbacksApplied   []string            `json:"fallbacks_applied"`
	NeutralSubstituted []string            `json:"neutral_substituted"`
	PreyGuildSources   [4]string           `json:"prey_guild_sources"`
	Eddies             *ocean.Census       `json:"eddies,omitempty"`
}

// Degraded reports whether any fallback or neutral substitution was applied.
func (d Diagnostics) Degraded() bool {
	return len(d.FallbacksApplied) > 0 || len(d.NeutralSubstituted) > 0
}

func combine(w species.Weights, c Components) (*Result, error) {
	hsi, err := grid.Combine(func(vs []float64) float64 {
		base := w.Phys*vs[0] + w.Prey*vs[1] + w.Topo*vs[2]
		return base * (1 - vs[3])
	}, c.Phys, c.Prey, c.Topo, c.Anthro)
	if err != nil {
		return nil, err
	}

	share := func(term int) func([]float64) float64 {
		weights := [3]float64{w.Phys, w.Prey, w.Topo}
		return func(vs []float64) float64 {
			sum := weights[0]*vs[0] + weights[1]*vs[1] + weights[2]*vs[2]
			if sum == 0 {
				return 0
			}
			return 100 * weights[term] * vs[term] / sum
		}
	}
	var contrib Contributions
	for term, dst := range []**grid.Grid{&contrib.Phys, &contrib.Prey, &contrib.Topo} {
		g, err := grid.Combine(share(term), c.Phys, c.Prey, c.Topo)
		if err != nil {
			return nil, err
		}
		*dst = g
	}

	return &Result{HSI: hsi, Components: c, Contributions: contrib}, nil
}
