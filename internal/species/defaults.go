package species

// DefaultParams returns the built-in shark profiles. The bull shark is
// euryhaline, hence its wide salinity envelope.
func DefaultParams() map[string]Params {
	return map[string]Params{
		"great_white": {
			Name:         "Great White Shark",
			Temperature:  Temperature{Optimal: 18, Tolerance: 5, LagDays: 7},
			Salinity:     Salinity{Min: 30, OptMin: 32, OptMax: 36, Max: 37},
			Oxygen:       Oxygen{Min: 3.5, Optimal: 6.5, Tolerance: 1},
			Productivity: Productivity{LagDays: 30, ChlWeight: 0.4},
			PreyGuilds:   PreyGuilds{A: 0.2, B: 0.2, C: 0.1, D: 0.1},
			Topography: Topography{
				DepthMin: 0, DepthOptMin: 20, DepthOptMax: 250, DepthMax: 1200,
				SlopeOptimal: 2, SlopeTolerance: 3,
			},
			Weights:      Weights{Phys: 0.45, Prey: 0.35, Topo: 0.2},
			Oceanography: Oceanography{Eddy: 0.6, Front: 0.4},
		},
		"tiger_shark": {
			Name:         "Tiger Shark",
			Temperature:  Temperature{Optimal: 25, Tolerance: 4, LagDays: 5},
			Salinity:     Salinity{Min: 30, OptMin: 32.5, OptMax: 36, Max: 37},
			Oxygen:       Oxygen{Min: 3, Optimal: 6, Tolerance: 1},
			Productivity: Productivity{LagDays: 21, ChlWeight: 0.3},
			PreyGuilds:   PreyGuilds{A: 0.25, B: 0.2, C: 0.15, D: 0.1},
			Topography: Topography{
				DepthMin: 0, DepthOptMin: 5, DepthOptMax: 150, DepthMax: 800,
				SlopeOptimal: 1.5, SlopeTolerance: 2.5,
			},
			Weights:      Weights{Phys: 0.4, Prey: 0.4, Topo: 0.2},
			Oceanography: Oceanography{Eddy: 0.5, Front: 0.5},
		},
		"bull_shark": {
			Name:         "Bull Shark",
			Temperature:  Temperature{Optimal: 22, Tolerance: 6, LagDays: 3},
			Salinity:     Salinity{Min: 0.5, OptMin: 5, OptMax: 30, Max: 35},
			Oxygen:       Oxygen{Min: 2.5, Optimal: 5.5, Tolerance: 1.2},
			Productivity: Productivity{LagDays: 14, ChlWeight: 0.35},
			PreyGuilds:   PreyGuilds{A: 0.25, B: 0.2, C: 0.1, D: 0.1},
			Topography: Topography{
				DepthMin: 0, DepthOptMin: 1, DepthOptMax: 60, DepthMax: 300,
				SlopeOptimal: 1, SlopeTolerance: 2,
			},
			Weights:      Weights{Phys: 0.4, Prey: 0.35, Topo: 0.25},
			Oceanography: Oceanography{Eddy: 0.6, Front: 0.4},
		},
	}
}

// Defaults returns a registry of the built-in profiles.
func Defaults() *Registry {
	r, err := NewRegistry(DefaultParams())
	if err != nil {
		panic("species: built-in profiles are invalid: " + err.Error())
	}
	return r
}
