package engine

import (
	"math"
	"testing"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	g, err := grid.New([]float64{0, 1}, []float64{0, 1, 2, 3, 4}, values)
	require.NoError(t, err)

	s := Summarize(g)
	assert.Equal(t, 10, s.ValidPoints)
	assert.InDelta(t, 5.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(8.25), s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 10.0, s.Max)
	assert.Equal(t, 5.5, s.Median)
	assert.InDelta(t, 9.1, s.P90, 1e-12)
	assert.InDelta(t, 9.55, s.P95, 1e-12)
	assert.InDelta(t, 9.91, s.P99, 1e-12)
}

func TestSummarizeTwoCellsInterpolates(t *testing.T) {
	g, err := grid.New([]float64{0}, []float64{0, 1}, []float64{0, 1})
	require.NoError(t, err)

	s := Summarize(g)
	assert.Equal(t, 0.5, s.Median)
	assert.InDelta(t, 0.9, s.P90, 1e-12)
	assert.InDelta(t, 0.95, s.P95, 1e-12)
	assert.InDelta(t, 0.99, s.P99, 1e-12)
}

func TestSummarizeSkipsInvalidCells(t *testing.T) {
	g, err := grid.New([]float64{0}, []float64{0, 1, 2}, []float64{0.2, math.NaN(), 0.4})
	require.NoError(t, err)

	s := Summarize(g)
	assert.Equal(t, 2, s.ValidPoints)
	assert.InDelta(t, 0.3, s.Mean, 1e-12)

	empty, err := grid.New([]float64{0}, []float64{0}, []float64{math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, Stats{}, Summarize(empty))
}

func TestHotspots(t *testing.T) {
	g, err := grid.New([]float64{0, 1}, []float64{0, 1}, []float64{
		0.9, 0.5,
		0.9, math.NaN(),
	})
	require.NoError(t, err)

	got := Hotspots(g, 0.5, 0)
	assert.Equal(t, []Hotspot{
		{Lat: 0, Lon: 0, Value: 0.9},
		{Lat: 1, Lon: 0, Value: 0.9},
		{Lat: 0, Lon: 1, Value: 0.5},
	}, got)

	assert.Len(t, Hotspots(g, 0.5, 2), 2)
	assert.Empty(t, Hotspots(g, 0.95, 10))
}
