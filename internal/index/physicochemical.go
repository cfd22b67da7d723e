package index

import (
	"math"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/ocean"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
	"github.com/couchcryptid/shark-hsi-service/internal/suitability"
)

// PhysicalInputs are the canonical layers of the physicochemical index.
// Oxygen and SeaLevel are optional.
type PhysicalInputs struct {
	Temperature *grid.Grid
	Salinity    *grid.Grid
	Oxygen      *grid.Grid
	SeaLevel    *grid.Grid
}

// Physicochemical is the physicochemical index with its sub-suitabilities.
type Physicochemical struct {
	Index       *grid.Grid
	Temperature *grid.Grid
	Salinity    *grid.Grid
	Oxygen      *grid.Grid
	Ocean       *grid.Grid

	// Features is nil when SeaLevel was absent.
	Features      *ocean.Features
	OxygenDerived bool
	OceanNeutral  bool
}

// Physicochemical computes (f_temp · f_sal · f_oxy · f_ocean)^(1/4). Missing
// oxygen is derived from temperature and salinity; missing SLA contributes
// the neutral NeutralOcean everywhere.
func (c *Calculator) Physicochemical(p *species.Profile, in PhysicalInputs) (*Physicochemical, error) {
	if err := required(map[string]*grid.Grid{"temperature": in.Temperature, "salinity": in.Salinity}); err != nil {
		return nil, err
	}
	if err := c.check(map[string]*grid.Grid{
		"temperature": in.Temperature, "salinity": in.Salinity,
		"oxygen": in.Oxygen, "sea_level": in.SeaLevel,
	}); err != nil {
		return nil, err
	}

	t, s, o := p.Temperature(), p.Salinity(), p.Oxygen()
	out := &Physicochemical{
		Temperature: suitability.Apply(in.Temperature, suitability.GaussianCurve(t.Optimal, t.Tolerance)),
		Salinity:    suitability.Apply(in.Salinity, suitability.TrapezoidCurve(s.Min, s.OptMin, s.OptMax, s.Max)),
	}

	oxygen := in.Oxygen
	if oxygen == nil {
		derived, err := DerivedOxygen(in.Temperature, in.Salinity)
		if err != nil {
			return nil, err
		}
		oxygen = derived
		out.OxygenDerived = true
	}
	out.Oxygen = suitability.Apply(oxygen, suitability.SigmoidWithBonusCurve(o.Min, o.Optimal, o.Tolerance))

	if in.SeaLevel == nil {
		out.Ocean = c.neutral(NeutralOcean)
		out.OceanNeutral = true
	} else {
		f := c.detector.Detect(in.SeaLevel, p.Oceanography())
		out.Features = &f
		out.Ocean = f.Combined
	}

	idx, err := grid.Combine(func(vs []float64) float64 {
		return math.Pow(vs[0]*vs[1]*vs[2]*vs[3], 0.25)
	}, out.Temperature, out.Salinity, out.Oxygen, out.Ocean)
	if err != nil {
		return nil, err
	}
	out.Index = idx
	return out, nil
}
