// Command validate checks a species parameter file before it is deployed
// with SPECIES_FILE. It verifies that every profile parses and satisfies its
// range and weight invariants, that each suitability curve peaks at the
// profile's optimum, and that the full model produces a bounded, internally
// consistent result for every species on a synthetic ocean.
//
// Usage:
//
//	go run ./cmd/validate -species-file config/species.yaml
//
// Without -species-file the built-in profiles are checked.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/fixture"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
	"github.com/couchcryptid/shark-hsi-service/internal/suitability"
)

var (
	target = time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	box    = grid.Spec{South: -36, North: -33, West: 17, East: 21, Step: 0.25}
)

const tolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	speciesFile := flag.String("species-file", "", "species YAML file (default: built-in profiles)")
	flag.Parse()

	if code := run(*speciesFile); code != 0 {
		os.Exit(code)
	}
}

func run(speciesFile string) int {
	fmt.Println("=== Species Profile Validation ===")
	fmt.Println()

	// ── Load profiles ──
	load := &phase{name: "Parse and invariants"}
	registry := species.Defaults()
	source := "built-in profiles"
	if speciesFile != "" {
		source = speciesFile
		r, err := species.LoadFile(speciesFile)
		if err != nil {
			load.errorf("%v", err)
		} else {
			registry = r
		}
	}
	fmt.Printf("Source: %s\n", source)

	phases := []*phase{load}
	if load.passed() {
		profiles := make([]*species.Profile, 0, len(registry.Keys()))
		for _, key := range registry.Keys() {
			p, _ := registry.Get(key)
			profiles = append(profiles, p)
		}
		phases = append(phases,
			validateCurvePeaks(profiles),
			validateLagWindow(profiles),
			validateSyntheticCompute(profiles),
		)
		fmt.Printf("Profiles: %d (%v)\n", len(profiles), registry.Keys())
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 2: curve peaks ──

// validateCurvePeaks checks that each per-variable suitability reaches 1 at
// the profile's optimum and 0 outside its hard limits.
func validateCurvePeaks(profiles []*species.Profile) *phase {
	p := &phase{name: "Suitability curves peak at optimum"}
	for _, prof := range profiles {
		key := prof.Key()
		t := prof.Temperature()
		if v := suitability.Gaussian(t.Optimal, t.Optimal, t.Tolerance); !floatEq(v, 1) {
			p.errorf("%s: temperature suitability at optimum %g = %g", key, t.Optimal, v)
		}

		s := prof.Salinity()
		mid := (s.OptMin + s.OptMax) / 2
		if v := suitability.Trapezoid(mid, s.Min, s.OptMin, s.OptMax, s.Max); !floatEq(v, 1) {
			p.errorf("%s: salinity suitability at %g = %g", key, mid, v)
		}
		for _, x := range []float64{s.Min, s.Max} {
			if v := suitability.Trapezoid(x, s.Min, s.OptMin, s.OptMax, s.Max); !floatEq(v, 0) {
				p.errorf("%s: salinity suitability at limit %g = %g, want 0", key, x, v)
			}
		}

		o := prof.Oxygen()
		if v := suitability.SigmoidWithBonus(o.Optimal, o.Min, o.Optimal, o.Tolerance); v < 0.5 {
			p.errorf("%s: oxygen suitability at optimum %g = %g, want >= 0.5", key, o.Optimal, v)
		}

		d := prof.Topography()
		depth := (d.DepthOptMin + d.DepthOptMax) / 2
		if v := suitability.Trapezoid(depth, d.DepthMin, d.DepthOptMin, d.DepthOptMax, d.DepthMax); !floatEq(v, 1) {
			p.errorf("%s: depth suitability at %g m = %g", key, depth, v)
		}
		if v := suitability.Gaussian(d.SlopeOptimal, d.SlopeOptimal, d.SlopeTolerance); !floatEq(v, 1) {
			p.errorf("%s: slope suitability at optimum %g = %g", key, d.SlopeOptimal, v)
		}
	}
	return p
}

// ── Phase 3: lag window ──

// validateLagWindow checks that the candidate days for every lagged
// variable start at the lagged day and end at the target day.
func validateLagWindow(profiles []*species.Profile) *phase {
	p := &phase{name: "Lag candidates"}
	eng, err := engine.New(box)
	if err != nil {
		p.errorf("build engine: %v", err)
		return p
	}
	for _, prof := range profiles {
		for _, v := range []engine.Variable{engine.Temperature, engine.Chlorophyll} {
			days := eng.Candidates(prof, v, target)
			want := target.AddDate(0, 0, -v.LagDays(prof))
			if len(days) == 0 {
				p.errorf("%s %s: no candidate days", prof.Key(), v)
				continue
			}
			if !days[0].Equal(want) {
				p.errorf("%s %s: first candidate %s, want %s", prof.Key(), v, grid.Day(days[0]), grid.Day(want))
			}
			if last := days[len(days)-1]; !last.Equal(target) {
				p.errorf("%s %s: last candidate %s, want target day", prof.Key(), v, grid.Day(last))
			}
		}
	}
	return p
}

// ── Phase 4: synthetic compute ──

// memWriter collects generated fixture grids as engine inputs.
type memWriter struct{ in *engine.Inputs }

func (m memWriter) Save(v engine.Variable, day time.Time, g *grid.Grid) error {
	m.in.Add(v, day, g)
	return nil
}

func (m memWriter) SaveBathymetry(g *grid.Grid) error {
	m.in.Bathymetry = g
	return nil
}

// validateSyntheticCompute runs the model on the synthetic ocean and checks
// the result bounds, the contribution shares and the hotspot order.
func validateSyntheticCompute(profiles []*species.Profile) *phase {
	p := &phase{name: "Synthetic compute"}

	gen, err := fixture.New(box)
	if err != nil {
		p.errorf("build fixture: %v", err)
		return p
	}
	in := engine.NewInputs()
	history := fixture.DefaultHistory
	for _, prof := range profiles {
		history = max(history, prof.Temperature().LagDays, prof.Productivity().LagDays)
	}
	if _, err := gen.Write(memWriter{in: in}, target, history); err != nil {
		p.errorf("generate fixture: %v", err)
		return p
	}

	eng, err := engine.New(box)
	if err != nil {
		p.errorf("build engine: %v", err)
		return p
	}

	for _, prof := range profiles {
		key := prof.Key()
		res, err := eng.Compute(prof, target, in)
		if err != nil {
			p.errorf("%s: compute: %v", key, err)
			continue
		}
		checkBounded(p, key+" hsi", res.HSI)
		checkBounded(p, key+" physicochemical", res.Components.Phys)
		checkBounded(p, key+" prey", res.Components.Prey)
		checkBounded(p, key+" topographic", res.Components.Topo)
		checkBounded(p, key+" anthropogenic", res.Components.Anthro)
		checkContributions(p, key, res.Contributions)

		if n, want := res.HSI.ValidCount(), res.HSI.Len(); n != want {
			p.errorf("%s: %d of %d cells valid", key, n, want)
		}
		for _, v := range []engine.Variable{engine.Temperature, engine.Salinity, engine.Chlorophyll} {
			if _, ok := res.Diagnostics.LagDatesUsed[v]; !ok {
				p.errorf("%s: no date recorded for %s", key, v)
			}
		}

		hot := engine.Hotspots(res.HSI, 0, 0)
		if !sort.SliceIsSorted(hot, func(i, j int) bool { return hot[i].Value > hot[j].Value }) {
			p.errorf("%s: hotspots not sorted by descending HSI", key)
		}
		stats := engine.Summarize(res.HSI)
		fmt.Printf("  %-14s mean=%.3f max=%.3f fallbacks=%d\n",
			key, stats.Mean, stats.Max, len(res.Diagnostics.FallbacksApplied))
	}
	return p
}

func checkBounded(p *phase, name string, g *grid.Grid) {
	for _, v := range g.ValidValues() {
		if v < -tolerance || v > 1+tolerance || math.IsNaN(v) {
			p.errorf("%s: value %g outside [0, 1]", name, v)
			return
		}
	}
}

func checkContributions(p *phase, key string, c engine.Contributions) {
	for k := 0; k < c.Phys.Len(); k++ {
		a, okA := c.Phys.Cell(k)
		b, okB := c.Prey.Cell(k)
		d, okD := c.Topo.Cell(k)
		if !okA || !okB || !okD {
			continue
		}
		sum := a + b + d
		if sum != 0 && math.Abs(sum-100) > 1e-6 {
			lat, lon := c.Phys.Coord(k)
			p.errorf("%s: contributions at (%g, %g) sum to %g", key, lat, lon, sum)
			return
		}
	}
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}
