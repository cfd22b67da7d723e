package species

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// WeightTolerance is the allowed deviation of a weight group from 1.
const WeightTolerance = 1e-6

var (
	// ErrInvalidProfile is returned when parameters violate a range or weight invariant.
	ErrInvalidProfile = errors.New("invalid species profile")

	// ErrUnknownSpecies is returned when a registry has no profile for a key.
	ErrUnknownSpecies = errors.New("unknown species")
)

// Temperature parameters in °C; LagDays is the trophic lag of the SST layer.
type Temperature struct {
	Optimal   float64 `yaml:"optimal" json:"optimal"`
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	LagDays   int     `yaml:"lag_days" json:"lag_days"`
}

// Salinity trapezoid bounds in PSU.
type Salinity struct {
	Min    float64 `yaml:"min" json:"min"`
	OptMin float64 `yaml:"opt_min" json:"opt_min"`
	OptMax float64 `yaml:"opt_max" json:"opt_max"`
	Max    float64 `yaml:"max" json:"max"`
}

// Oxygen sigmoid parameters in mg/L.
type Oxygen struct {
	Min       float64 `yaml:"min" json:"min"`
	Optimal   float64 `yaml:"optimal" json:"optimal"`
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
}

// Productivity holds the chlorophyll lag and its share of the prey index.
type Productivity struct {
	LagDays   int     `yaml:"lag_days" json:"lag_days"`
	ChlWeight float64 `yaml:"chl_weight" json:"chl_weight"`
}

// PreyGuilds weights the four prey guilds within the prey index.
type PreyGuilds struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
	D float64 `yaml:"d" json:"d"`
}

// Weights returns the guild weights in A..D order.
func (p PreyGuilds) Weights() [4]float64 {
	return [4]float64{p.A, p.B, p.C, p.D}
}

// Topography holds the depth trapezoid in metres (positive down) and the
// slope Gaussian in degrees.
type Topography struct {
	DepthMin       float64 `yaml:"depth_min" json:"depth_min"`
	DepthOptMin    float64 `yaml:"depth_opt_min" json:"depth_opt_min"`
	DepthOptMax    float64 `yaml:"depth_opt_max" json:"depth_opt_max"`
	DepthMax       float64 `yaml:"depth_max" json:"depth_max"`
	SlopeOptimal   float64 `yaml:"slope_optimal" json:"slope_optimal"`
	SlopeTolerance float64 `yaml:"slope_tolerance" json:"slope_tolerance"`
}

// Weights are the top-level index weights of the HSI combination.
type Weights struct {
	Phys float64 `yaml:"phys" json:"phys"`
	Prey float64 `yaml:"prey" json:"prey"`
	Topo float64 `yaml:"topo" json:"topo"`
}

// Oceanography weights eddy and front suitability.
type Oceanography struct {
	Eddy  float64 `yaml:"eddy" json:"eddy"`
	Front float64 `yaml:"front" json:"front"`
}

// Params is the raw, unvalidated parameter set of one species.
type Params struct {
	Name         string       `yaml:"name" json:"name"`
	Temperature  Temperature  `yaml:"temperature" json:"temperature"`
	Salinity     Salinity     `yaml:"salinity" json:"salinity"`
	Oxygen       Oxygen       `yaml:"oxygen" json:"oxygen"`
	Productivity Productivity `yaml:"productivity" json:"productivity"`
	PreyGuilds   PreyGuilds   `yaml:"prey_guilds" json:"prey_guilds"`
	Topography   Topography   `yaml:"topography" json:"topography"`
	Weights      Weights      `yaml:"weights" json:"weights"`
	Oceanography Oceanography `yaml:"oceanography" json:"oceanography"`
}

// Profile is a validated, read-only species parameter set. It holds no
// reference types, so one instance can be shared across goroutines.
type Profile struct {
	key    string
	params Params
}

// New validates params and returns the profile registered under key.
func New(key string, params Params) (*Profile, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidProfile)
	}
	if params.Name == "" {
		params.Name = key
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &Profile{key: key, params: params}, nil
}

// Key is the registry identifier, e.g. "great_white".
func (p *Profile) Key() string { return p.key }

// Name is the display name.
func (p *Profile) Name() string { return p.params.Name }

func (p *Profile) Temperature() Temperature   { return p.params.Temperature }
func (p *Profile) Salinity() Salinity         { return p.params.Salinity }
func (p *Profile) Oxygen() Oxygen             { return p.params.Oxygen }
func (p *Profile) Productivity() Productivity { return p.params.Productivity }
func (p *Profile) PreyGuilds() PreyGuilds     { return p.params.PreyGuilds }
func (p *Profile) Topography() Topography     { return p.params.Topography }
func (p *Profile) Weights() Weights           { return p.params.Weights }
func (p *Profile) Oceanography() Oceanography { return p.params.Oceanography }

// Params returns a copy of the validated parameters.
func (p *Profile) Params() Params { return p.params }

// Validate checks every range ordering and weight-sum invariant and reports
// all violations at once.
func (p Params) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidProfile}, args...)...))
	}

	for _, f := range p.numericFields() {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			fail("%s must be finite, got %g", f.name, f.v)
		}
	}

	tolerances := []struct {
		name string
		v    float64
	}{
		{"temperature", p.Temperature.Tolerance},
		{"oxygen", p.Oxygen.Tolerance},
		{"slope", p.Topography.SlopeTolerance},
	}
	for _, tol := range tolerances {
		if !(tol.v > 0) {
			fail("%s tolerance must be positive, got %g", tol.name, tol.v)
		}
	}
	if p.Temperature.LagDays < 0 || p.Productivity.LagDays < 0 {
		fail("lag days must be non-negative")
	}

	s := p.Salinity
	if !(s.Min < s.OptMin && s.OptMin <= s.OptMax && s.OptMax < s.Max) {
		fail("salinity must satisfy min < opt_min <= opt_max < max, got %g/%g/%g/%g", s.Min, s.OptMin, s.OptMax, s.Max)
	}
	if !(p.Oxygen.Min < p.Oxygen.Optimal) {
		fail("oxygen min %g must be below optimal %g", p.Oxygen.Min, p.Oxygen.Optimal)
	}
	d := p.Topography
	if !(d.DepthMin <= d.DepthOptMin && d.DepthOptMin <= d.DepthOptMax && d.DepthOptMax <= d.DepthMax && d.DepthMin < d.DepthMax) {
		fail("depth must satisfy min <= opt_min <= opt_max <= max with min < max, got %g/%g/%g/%g", d.DepthMin, d.DepthOptMin, d.DepthOptMax, d.DepthMax)
	}

	g := p.PreyGuilds
	groups := []struct {
		name    string
		weights []float64
	}{
		{"productivity/prey guild", []float64{p.Productivity.ChlWeight, g.A, g.B, g.C, g.D}},
		{"index", []float64{p.Weights.Phys, p.Weights.Prey, p.Weights.Topo}},
		{"oceanography", []float64{p.Oceanography.Eddy, p.Oceanography.Front}},
	}
	for _, grp := range groups {
		for _, w := range grp.weights {
			if w < 0 || w > 1 || math.IsNaN(w) {
				fail("%s weights must lie in [0, 1], got %v", grp.name, grp.weights)
				break
			}
		}
		if sum := floats.Sum(grp.weights); math.Abs(sum-1) > WeightTolerance {
			fail("%s weights sum to %g, want 1", grp.name, sum)
		}
	}

	return errors.Join(errs...)
}

type field struct {
	name string
	v    float64
}

func (p Params) numericFields() []field {
	t, s, o, pr, g, d, w, oc := p.Temperature, p.Salinity, p.Oxygen, p.Productivity, p.PreyGuilds, p.Topography, p.Weights, p.Oceanography
	return []field{
		{"temperature.optimal", t.Optimal}, {"temperature.tolerance", t.Tolerance},
		{"salinity.min", s.Min}, {"salinity.opt_min", s.OptMin}, {"salinity.opt_max", s.OptMax}, {"salinity.max", s.Max},
		{"oxygen.min", o.Min}, {"oxygen.optimal", o.Optimal}, {"oxygen.tolerance", o.Tolerance},
		{"productivity.chl_weight", pr.ChlWeight},
		{"prey_guilds.a", g.A}, {"prey_guilds.b", g.B}, {"prey_guilds.c", g.C}, {"prey_guilds.d", g.D},
		{"topography.depth_min", d.DepthMin}, {"topography.depth_opt_min", d.DepthOptMin},
		{"topography.depth_opt_max", d.DepthOptMax}, {"topography.depth_max", d.DepthMax},
		{"topography.slope_optimal", d.SlopeOptimal}, {"topography.slope_tolerance", d.SlopeTolerance},
		{"weights.phys", w.Phys}, {"weights.prey", w.Prey}, {"weights.topo", w.Topo},
		{"oceanography.eddy", oc.Eddy}, {"oceanography.front", oc.Front},
	}
}
