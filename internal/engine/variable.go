package engine

import (
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
)

// Variable names one environmental input layer.
type Variable string

const (
	Temperature   Variable = "temperature"
	Salinity      Variable = "salinity"
	Chlorophyll   Variable = "chlorophyll"
	SeaLevel      Variable = "sea_level"
	Oxygen        Variable = "oxygen"
	FishingEffort Variable = "fishing_effort"
	VesselDensity Variable = "vessel_density"
	PreyGuildA    Variable = "prey_guild_a"
	PreyGuildB    Variable = "prey_guild_b"
	PreyGuildC    Variable = "prey_guild_c"
	PreyGuildD    Variable = "prey_guild_d"

	// Bathymetry is static and lives in Inputs.Bathymetry rather than a Series.
	Bathymetry Variable = "bathymetry"
)

// PreyGuilds lists the guild density variables in A..D order.
var PreyGuilds = [4]Variable{PreyGuildA, PreyGuildB, PreyGuildC, PreyGuildD}

// Dated lists every time-dependent variable in resolution order.
func Dated() []Variable {
	return []Variable{
		Temperature, Salinity, Chlorophyll, SeaLevel, Oxygen,
		FishingEffort, VesselDensity,
		PreyGuildA, PreyGuildB, PreyGuildC, PreyGuildD,
	}
}

// Required reports whether a missing layer aborts the computation.
func (v Variable) Required() bool {
	return v == Temperature || v == Salinity || v == Chlorophyll
}

// LagDays is the trophic lag applied to v for profile p. Only temperature
// and chlorophyll are lagged.
func (v Variable) LagDays(p *species.Profile) int {
	switch v {
	case Temperature:
		return p.Temperature().LagDays
	case Chlorophyll:
		return p.Productivity().LagDays
	default:
		return 0
	}
}

// Inputs holds the raw grids of one computation at their native
// resolution. Absent variables simply have no series.
type Inputs struct {
	Layers     map[Variable]grid.Series
	Bathymetry *grid.Grid
}

// NewInputs returns empty Inputs.
func NewInputs() *Inputs {
	return &Inputs{Layers: make(map[Variable]grid.Series)}
}

// Add records the grid of v observed on the day of t.
func (in *Inputs) Add(v Variable, t time.Time, g *grid.Grid) {
	if in.Layers == nil {
		in.Layers = make(map[Variable]grid.Series)
	}
	s, ok := in.Layers[v]
	if !ok {
		s = make(grid.Series)
		in.Layers[v] = s
	}
	s[grid.Day(t)] = g
}

func (in *Inputs) series(v Variable) grid.Series {
	if in == nil {
		return nil
	}
	return in.Layers[v]
}
