package engine

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/index"
	"github.com/couchcryptid/shark-hsi-service/internal/lag"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
	"github.com/couchcryptid/shark-hsi-service/internal/suitability"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	target   = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	testSpec = grid.Spec{South: 0, North: 1, West: 10, East: 11, Step: 0.5}
)

func greatWhite(t *testing.T) *species.Profile {
	t.Helper()
	p, err := species.Defaults().Get("great_white")
	require.NoError(t, err)
	return p
}

func newEngine(t *testing.T, spec grid.Spec) *Engine {
	t.Helper()
	e, err := New(spec)
	require.NoError(t, err)
	return e
}

func fill(spec grid.Spec, v float64) *grid.Grid {
	lat, lon := spec.Axes()
	return grid.Fill(lat, lon, v)
}

func daysBefore(n int) time.Time { return target.AddDate(0, 0, -n) }

// baseInputs supplies the three required layers at their exact lag dates.
func baseInputs(p *species.Profile, spec grid.Spec) *Inputs {
	in := NewInputs()
	in.Add(Temperature, daysBefore(p.Temperature().LagDays), fill(spec, p.Temperature().Optimal))
	in.Add(Salinity, target, fill(spec, 34))
	in.Add(Chlorophyll, daysBefore(p.Productivity().LagDays), fill(spec, 0.5))
	return in
}

func requireUniform(t *testing.T, g *grid.Grid, want float64) {
	t.Helper()
	require.NotNil(t, g)
	require.Equal(t, g.Len(), g.ValidCount())
	for _, v := range g.ValidValues() {
		require.InDelta(t, want, v, 1e-12)
	}
}

func TestComputeSingleCellWithoutOptionalLayers(t *testing.T) {
	p := greatWhite(t)
	spec := grid.Spec{South: 0, North: 0, West: 0, East: 0, Step: 0.5}
	res, err := newEngine(t, spec).Compute(p, target, baseInputs(p, spec))
	require.NoError(t, err)
	require.Equal(t, 1, res.HSI.Len())

	o := p.Oxygen()
	fOxy := suitability.SigmoidWithBonus(index.OxygenSolubility(p.Temperature().Optimal, 34), o.Min, o.Optimal, o.Tolerance)
	wantPhys := math.Pow(1*1*fOxy*0.5, 0.25)

	phys, ok := res.Components.Phys.At(0, 0)
	require.True(t, ok)
	assert.InDelta(t, wantPhys, phys, 1e-12)
	requireUniform(t, res.Components.Topo, 1)
	requireUniform(t, res.Components.Anthro, 0)

	w := p.Weights()
	hsi, _ := res.HSI.At(0, 0)
	assert.InDelta(t, w.Phys*wantPhys+w.Prey*0.5+w.Topo*1, hsi, 1e-12)

	d := res.Diagnostics
	assert.Equal(t, "2025-06-30", d.Target)
	assert.Equal(t, []string{ComponentOceanographic, ComponentTopographic, ComponentAnthropogenic}, d.NeutralSubstituted)
	assert.Equal(t, map[Variable]string{
		Temperature: "2025-06-23",
		Salinity:    "2025-06-30",
		Chlorophyll: "2025-05-31",
	}, d.LagDatesUsed)
	assert.Equal(t, []string{"oxygen: derived from temperature and salinity"}, d.FallbacksApplied)
	assert.Nil(t, d.Eddies)
	assert.True(t, d.Degraded())
}

func TestComputeFullAnthropogenicPressureZeroesHSI(t *testing.T) {
	p := greatWhite(t)
	in := baseInputs(p, testSpec)
	in.Add(FishingEffort, target, fill(testSpec, 5))
	in.Bathymetry = fill(testSpec, 100)

	res, err := newEngine(t, testSpec).Compute(p, target, in)
	require.NoError(t, err)

	requireUniform(t, res.Components.Anthro, 1)
	requireUniform(t, res.HSI, 0)
	assert.NotContains(t, res.Diagnostics.NeutralSubstituted, ComponentAnthropogenic)
}

func TestComputeWithoutPressureIsWeightedSum(t *testing.T) {
	p := greatWhite(t)
	in := baseInputs(p, testSpec)
	sla, err := grid.New([]float64{0, 0.5, 1}, []float64{10, 10.5, 11}, []float64{
		0.1, -0.05, 0,
		0.02, 0.2, -0.1,
		0, 0.05, 0.3,
	})
	require.NoError(t, err)
	in.Add(SeaLevel, target, sla)
	in.Bathymetry = fill(testSpec, 40)

	res, err := newEngine(t, testSpec).Compute(p, target, in)
	require.NoError(t, err)

	w := p.Weights()
	for k := 0; k < res.HSI.Len(); k++ {
		phys, _ := res.Components.Phys.Cell(k)
		prey, _ := res.Components.Prey.Cell(k)
		topo, _ := res.Components.Topo.Cell(k)
		anthro, _ := res.Components.Anthro.Cell(k)
		hsi, ok := res.HSI.Cell(k)
		require.True(t, ok)

		assert.Equal(t, 0.0, anthro)
		assert.InDelta(t, w.Phys*phys+w.Prey*prey+w.Topo*topo, hsi, 1e-12)
		assert.GreaterOrEqual(t, hsi, 0.0)
		assert.LessOrEqual(t, hsi, 1.0)
	}
	require.NotNil(t, res.Diagnostics.Eddies)
	assert.Equal(t, 1, res.Diagnostics.Eddies.Cyclonic)
	assert.Equal(t, 3, res.Diagnostics.Eddies.Anticyclonic)
	assert.Equal(t, []string{ComponentAnthropogenic}, res.Diagnostics.NeutralSubstituted)
}

func TestComputeContributionsSumToHundred(t *testing.T) {
	p := greatWhite(t)
	in := baseInputs(p, testSpec)
	in.Bathymetry = fill(testSpec, 100)

	res, err := newEngine(t, testSpec).Compute(p, target, in)
	require.NoError(t, err)

	for k := 0; k < res.HSI.Len(); k++ {
		a, _ := res.Contributions.Phys.Cell(k)
		b, _ := res.Contributions.Prey.Cell(k)
		c, _ := res.Contributions.Topo.Cell(k)
		assert.InDelta(t, 100, a+b+c, 1e-9)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	p := greatWhite(t)
	in := baseInputs(p, testSpec)
	in.Add(SeaLevel, target, fill(testSpec, 0.08))
	in.Add(VesselDensity, target, fill(testSpec, 3))
	e := newEngine(t, testSpec)

	first, err := e.Compute(p, target, in)
	require.NoError(t, err)
	second, err := e.Compute(p, target, in)
	require.NoError(t, err)

	nan := cmpopts.EquateNaNs()
	assert.Empty(t, cmp.Diff(first.HSI.Values(), second.HSI.Values(), nan))
	assert.Empty(t, cmp.Diff(first.Components.Prey.Values(), second.Components.Prey.Values(), nan))
	assert.Empty(t, cmp.Diff(first.Diagnostics, second.Diagnostics))
}

func TestComputeConcurrentCallsAgree(t *testing.T) {
	p := greatWhite(t)
	in := baseInputs(p, testSpec)
	e := newEngine(t, testSpec)
	want, err := e.Compute(p, target, in)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Compute(p, target, in)
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.NoError(t, errs[i])
		assert.Empty(t, cmp.Diff(want.HSI.Values(), res.HSI.Values(), cmpopts.EquateNaNs()))
	}
}

func TestComputeMissingRequiredLayer(t *testing.T) {
	p := greatWhite(t)
	in := baseInputs(p, testSpec)
	delete(in.Layers, Chlorophyll)

	_, err := newEngine(t, testSpec).Compute(p, target, in)
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Contains(t, err.Error(), "chlorophyll")

	_, err = newEngine(t, testSpec).Compute(p, target, nil)
	require.ErrorIs(t, err, ErrMissingInput)
}

func TestComputeLagFallbacks(t *testing.T) {
	p := greatWhite(t)
	in := NewInputs()
	in.Add(Temperature, target, fill(testSpec, 18))
	in.Add(Salinity, daysBefore(2), fill(testSpec, 34))
	in.Add(Chlorophyll, daysBefore(31), fill(testSpec, 0.5))
	// SLA is exact-only: yesterday's grid is never used.
	in.Add(SeaLevel, daysBefore(1), fill(testSpec, 0))

	res, err := newEngine(t, testSpec).Compute(p, target, in)
	require.NoError(t, err)

	d := res.Diagnostics
	assert.Equal(t, "2025-06-30", d.LagDatesUsed[Temperature])
	assert.Equal(t, "2025-06-28", d.LagDatesUsed[Salinity])
	assert.Equal(t, "2025-05-30", d.LagDatesUsed[Chlorophyll])
	assert.NotContains(t, d.LagDatesUsed, SeaLevel)
	assert.Contains(t, d.NeutralSubstituted, ComponentOceanographic)
	assert.Contains(t, d.FallbacksApplied, "temperature: 2025-06-30 (current, requested 2025-06-23, offset +7d)")
	assert.Contains(t, d.FallbacksApplied, "salinity: 2025-06-28 (window, requested 2025-06-30, offset -2d)")
	assert.Contains(t, d.FallbacksApplied, "chlorophyll: 2025-05-30 (window, requested 2025-05-31, offset -1d)")
}

func TestComputeRegridsCoarseInputs(t *testing.T) {
	p := greatWhite(t)
	in := NewInputs()

	coarse := func(v float64) *grid.Grid {
		return grid.Fill([]float64{-2, 3}, []float64{8, 12}, v)
	}
	in.Add(Temperature, daysBefore(7), coarse(18))
	in.Add(Salinity, target, coarse(34))
	// Chlorophyll in 0-360 longitudes, covering only lat 0..0.5.
	chl := grid.Fill([]float64{0, 0.5}, []float64{9, 12, 350}, 0.5)
	in.Add(Chlorophyll, daysBefore(30), chl)

	res, err := newEngine(t, testSpec).Compute(p, target, in)
	require.NoError(t, err)

	requireUniform(t, res.Components.Phys, res.Components.Phys.ValidValues()[0])
	assert.Equal(t, 6, res.HSI.ValidCount())
	_, ok := res.HSI.At(2, 0)
	assert.False(t, ok, "latitude 1 lies outside chlorophyll coverage")
}

func TestComputeOptionalLayerWithoutCoverageDegrades(t *testing.T) {
	p := greatWhite(t)
	// Entirely outside testSpec.
	elsewhere := func(v float64) *grid.Grid {
		return grid.Fill([]float64{40, 41}, []float64{100, 101}, v)
	}

	tests := []struct {
		name    string
		v       Variable
		add     func(in *Inputs)
		neutral string
	}{
		{"fishing effort", FishingEffort, func(in *Inputs) { in.Add(FishingEffort, target, elsewhere(5)) }, ComponentAnthropogenic},
		{"vessel density", VesselDensity, func(in *Inputs) { in.Add(VesselDensity, target, elsewhere(5)) }, ComponentAnthropogenic},
		{"sea level", SeaLevel, func(in *Inputs) { in.Add(SeaLevel, target, elsewhere(0.1)) }, ComponentOceanographic},
		{"bathymetry", Bathymetry, func(in *Inputs) { in.Bathymetry = elsewhere(100) }, ComponentTopographic},
		{"oxygen", Oxygen, func(in *Inputs) { in.Add(Oxygen, target, elsewhere(6)) }, ""},
		{"prey guild", PreyGuildA, func(in *Inputs) { in.Add(PreyGuildA, target, elsewhere(1)) }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInputs(p, testSpec)
			tt.add(in)

			res, err := newEngine(t, testSpec).Compute(p, target, in)
			require.NoError(t, err)

			assert.Equal(t, res.HSI.Len(), res.HSI.ValidCount())
			d := res.Diagnostics
			assert.Contains(t, d.FallbacksApplied, string(tt.v)+": no coverage")
			assert.NotContains(t, d.LagDatesUsed, tt.v)
			if tt.neutral != "" {
				assert.Contains(t, d.NeutralSubstituted, tt.neutral)
			}
		})
	}

	in := baseInputs(p, testSpec)
	in.Add(Oxygen, target, elsewhere(6))
	in.Add(PreyGuildA, target, elsewhere(1))
	res, err := newEngine(t, testSpec).Compute(p, target, in)
	require.NoError(t, err)
	assert.Contains(t, res.Diagnostics.FallbacksApplied, "oxygen: derived from temperature and salinity")
	assert.Equal(t, index.SourceChlorophyll, res.Diagnostics.PreyGuildSources[0])
}

func TestCandidates(t *testing.T) {
	p := greatWhite(t)
	e := newEngine(t, testSpec)

	assert.Equal(t, []time.Time{target}, e.Candidates(p, SeaLevel, target.Add(5*time.Hour)))

	temp := e.Candidates(p, Temperature, target)
	require.Len(t, temp, 15)
	assert.Equal(t, daysBefore(7), temp[0])
	assert.Equal(t, target, temp[len(temp)-1])

	sal := e.Candidates(p, Salinity, target)
	assert.Equal(t, target, sal[0])
	assert.Len(t, sal, lag.DefaultWindow+1)
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New(grid.Spec{South: 1, North: 0, West: 0, East: 1, Step: 0.5})
	require.ErrorIs(t, err, grid.ErrAxis)
}
