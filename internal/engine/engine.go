// Package engine combines the habitat sub-indices into the final HSI.
//
// The engine resolves the trophic lag of each layer, regrids what it selected
// onto the canonical grid, computes the physicochemical, prey, topographic and
// anthropogenic indices, and combines them as
//
//	HSI = (w_phys·I_phys + w_prey·I_prey + w_topo·I_topo) · (1 - I_anthro)
//
// An Engine holds only immutable configuration. Compute is a pure function of
// its arguments and is safe to call from many goroutines at once.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/index"
	"github.com/couchcryptid/shark-hsi-service/internal/lag"
	"github.com/couchcryptid/shark-hsi-service/internal/ocean"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
)

// ErrMissingInput is returned when a required layer has no grid on any
// candidate day, including the target day.
var ErrMissingInput = errors.New("required input missing")

// Engine computes HSI results on one canonical grid.
type Engine struct {
	spec     grid.Spec
	lat, lon []float64
	calc     *index.Calculator
	resolver lag.Resolver
}

type options struct {
	window   int
	calcOpts []index.Option
}

// Option configures an Engine.
type Option func(*options)

// WithWindow sets the lag fallback window in days.
func WithWindow(days int) Option {
	return func(o *options) { o.window = days }
}

// WithDetector overrides the eddy and front constants.
func WithDetector(d ocean.Detector) Option {
	return func(o *options) { o.calcOpts = append(o.calcOpts, index.WithDetector(d)) }
}

// WithGuilds replaces the prey guild response functions.
func WithGuilds(g [4]index.Guild) Option {
	return func(o *options) { o.calcOpts = append(o.calcOpts, index.WithGuilds(g)) }
}

// New builds an Engine for the canonical grid described by spec.
func New(spec grid.Spec, opts ...Option) (*Engine, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("canonical grid: %w", err)
	}
	o := options{window: lag.DefaultWindow}
	for _, opt := range opts {
		opt(&o)
	}

	lat, lon := spec.Axes()
	calc, err := index.NewCalculator(lat, lon, o.calcOpts...)
	if err != nil {
		return nil, err
	}
	return &Engine{
		spec:     spec,
		lat:      lat,
		lon:      lon,
		calc:     calc,
		resolver: lag.NewResolver(o.window),
	}, nil
}

// Spec returns the canonical grid description.
func (e *Engine) Spec() grid.Spec { return e.spec }

// Axes returns copies of the canonical latitude and longitude axes.
func (e *Engine) Axes() (lat, lon []float64) {
	return append([]float64(nil), e.lat...), append([]float64(nil), e.lon...)
}

// Candidates lists the days Compute will look at for v, in preference
// order. Callers fetching grids ahead of Compute can stop at the first hit.
// For a lagged variable the target day comes last and, when used, is
// reported as a current-day fallback even if it falls inside the window.
func (e *Engine) Candidates(p *species.Profile, v Variable, target time.Time) []time.Time {
	if v == SeaLevel {
		return []time.Time{truncateDay(target)}
	}
	lagDays := v.LagDays(p)
	days := e.resolver.Candidates(target, lagDays)
	if lagDays > 0 {
		days = append(days, truncateDay(target))
	}
	return days
}

// Compute runs the full model for profile p on target.
func (e *Engine) Compute(p *species.Profile, target time.Time, in *Inputs) (*Result, error) {
	target = truncateDay(target)
	diag := Diagnostics{
		Target:       grid.Day(target),
		LagDatesUsed: make(map[Variable]string),
	}

	layers := make(map[Variable]*grid.Grid)
	for _, v := range Dated() {
		g, err := e.selectLayer(p, v, target, in.series(v), &diag)
		if err != nil {
			return nil, err
		}
		if g != nil {
			layers[v] = g
		}
	}
	if in != nil && in.Bathymetry != nil {
		g, err := grid.Regrid(in.Bathymetry, e.lat, e.lon)
		if err != nil {
			return nil, fmt.Errorf("regrid %s: %w", Bathymetry, err)
		}
		if g.ValidCount() > 0 {
			layers[Bathymetry] = g
		} else {
			diag.FallbacksApplied = append(diag.FallbacksApplied, noCoverage(Bathymetry))
		}
	}

	phys, err := e.calc.Physicochemical(p, index.PhysicalInputs{
		Temperature: layers[Temperature],
		Salinity:    layers[Salinity],
		Oxygen:      layers[Oxygen],
		SeaLevel:    layers[SeaLevel],
	})
	if err != nil {
		return nil, fmt.Errorf("physicochemical index: %w", err)
	}
	var guilds [4]*grid.Grid
	for i, v := range PreyGuilds {
		guilds[i] = layers[v]
	}
	prey, err := e.calc.Prey(p, index.PreyInputs{Chlorophyll: layers[Chlorophyll], Guilds: guilds})
	if err != nil {
		return nil, fmt.Errorf("prey index: %w", err)
	}
	topo, err := e.calc.Topographic(p, layers[Bathymetry])
	if err != nil {
		return nil, fmt.Errorf("topographic index: %w", err)
	}
	anthro, err := e.calc.Anthropogenic(layers[FishingEffort], layers[VesselDensity])
	if err != nil {
		return nil, fmt.Errorf("anthropogenic index: %w", err)
	}

	if phys.OxygenDerived {
		diag.FallbacksApplied = append(diag.FallbacksApplied, "oxygen: derived from temperature and salinity")
	}
	if phys.OceanNeutral {
		diag.NeutralSubstituted = append(diag.NeutralSubstituted, ComponentOceanographic)
	}
	if topo.Neutral {
		diag.NeutralSubstituted = append(diag.NeutralSubstituted, ComponentTopographic)
	}
	if anthro.Neutral {
		diag.NeutralSubstituted = append(diag.NeutralSubstituted, ComponentAnthropogenic)
	}
	diag.PreyGuildSources = prey.Sources
	if sla, ok := layers[SeaLevel]; ok {
		c := ocean.TakeCensus(sla)
		diag.Eddies = &c
	}

	res, err := combine(p.Weights(), Components{
		Phys:   phys.Index,
		Prey:   prey.Index,
		Topo:   topo.Index,
		Anthro: anthro.Index,
	})
	if err != nil {
		return nil, err
	}
	res.Diagnostics = diag
	return res, nil
}

// selectLayer resolves the day to use for v and regrids that day's grid. It
// returns nil for an optional variable with nothing available or whose grid
// covers no cell of the canonical grid.
func (e *Engine) selectLayer(p *species.Profile, v Variable, target time.Time, s grid.Series, diag *Diagnostics) (*grid.Grid, error) {
	var res lag.Resolution
	if v == SeaLevel {
		res = lag.Exact(target, s.Has)
	} else {
		res = e.resolver.Resolve(target, v.LagDays(p), s.Has)
	}

	if !res.Found() {
		if v.Required() {
			return nil, fmt.Errorf("%w: %s %s", ErrMissingInput, v, res)
		}
		return nil, nil
	}

	raw, _ := s.At(res.Used)
	g, err := grid.Regrid(raw, e.lat, e.lon)
	if err != nil {
		return nil, fmt.Errorf("regrid %s: %w", v, err)
	}
	if !v.Required() && g.ValidCount() == 0 {
		diag.FallbacksApplied = append(diag.FallbacksApplied, noCoverage(v))
		return nil, nil
	}

	diag.LagDatesUsed[v] = grid.Day(res.Used)
	if res.Fallback() {
		diag.FallbacksApplied = append(diag.FallbacksApplied, fmt.Sprintf("%s: %s", v, res))
	}
	return g, nil
}

func noCoverage(v Variable) string {
	return fmt.Sprintf("%s: no coverage", v)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
