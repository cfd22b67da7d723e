package index

import (
	"fmt"
	"math"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
	"github.com/couchcryptid/shark-hsi-service/internal/suitability"
)

// ChlHalfSaturation is the chlorophyll-a concentration, in mg/m³, at which
// productivity suitability reaches one half.
const ChlHalfSaturation = 0.5

// Guild sources reported per prey guild.
const (
	SourceChlorophyll = "chlorophyll_proxy"
	SourceDensity     = "density"
)

// Guild maps a prey density grid to suitability.
type Guild struct {
	Name     string
	Response suitability.Curve
}

// DefaultGuilds returns four guilds with a saturating density response.
func DefaultGuilds() [4]Guild {
	var g [4]Guild
	for i, name := range []string{"guild_a", "guild_b", "guild_c", "guild_d"} {
		g[i] = Guild{Name: name, Response: suitability.SaturatingCurve(ChlHalfSaturation)}
	}
	return g
}

// PreyInputs are the canonical layers of the prey index. Any guild density
// may be nil, in which case productivity stands in for that guild.
type PreyInputs struct {
	Chlorophyll *grid.Grid
	Guilds      [4]*grid.Grid
}

// Prey is the prey index with its productivity suitability.
type Prey struct {
	Index        *grid.Grid
	Productivity *grid.Grid
	Sources      [4]string
}

// Productivity maps chlorophyll-a to C/(C+0.5). Non-positive concentrations
// are treated as missing.
func Productivity(chl *grid.Grid) *grid.Grid {
	return chl.Map(func(v float64) float64 {
		if v <= 0 {
			return math.NaN()
		}
		return suitability.Saturating(v, ChlHalfSaturation)
	})
}

// Prey computes chlWeight·f_chl + Σ w_i·f_guild_i.
func (c *Calculator) Prey(p *species.Profile, in PreyInputs) (*Prey, error) {
	if err := required(map[string]*grid.Grid{"chlorophyll": in.Chlorophyll}); err != nil {
		return nil, err
	}
	layers := map[string]*grid.Grid{"chlorophyll": in.Chlorophyll}
	for i, g := range in.Guilds {
		layers[c.guilds[i].Name] = g
	}
	if err := c.check(layers); err != nil {
		return nil, err
	}

	out := &Prey{Productivity: Productivity(in.Chlorophyll)}
	terms := []*grid.Grid{out.Productivity}
	for i, g := range in.Guilds {
		if g == nil {
			out.Sources[i] = SourceChlorophyll
			terms = append(terms, out.Productivity)
			continue
		}
		out.Sources[i] = SourceDensity
		terms = append(terms, suitability.Apply(g, c.guilds[i].Response))
	}

	weights := p.PreyGuilds().Weights()
	chlWeight := p.Productivity().ChlWeight
	idx, err := grid.Combine(func(vs []float64) float64 {
		sum := chlWeight * vs[0]
		for i, w := range weights {
			sum += w * vs[i+1]
		}
		return clip(sum)
	}, terms...)
	if err != nil {
		return nil, fmt.Errorf("prey index: %w", err)
	}
	out.Index = idx
	return out, nil
}
