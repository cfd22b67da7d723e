package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTarget = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	testSpec   = grid.Spec{South: 0, North: 1, West: 10, East: 11, Step: 0.5}
)

func computeResult(t *testing.T) (*species.Profile, *engine.Result) {
	t.Helper()
	p, err := species.Defaults().Get("great_white")
	require.NoError(t, err)
	e, err := engine.New(testSpec)
	require.NoError(t, err)

	lat, lon := testSpec.Axes()
	in := engine.NewInputs()
	in.Add(engine.Temperature, testTarget.AddDate(0, 0, -p.Temperature().LagDays), grid.Fill(lat, lon, p.Temperature().Optimal))
	in.Add(engine.Salinity, testTarget, grid.Fill(lat, lon, 34))
	in.Add(engine.Chlorophyll, testTarget.AddDate(0, 0, -p.Productivity().LagDays), grid.Fill(lat, lon, 2))
	in.Bathymetry = grid.Fill(lat, lon, 100)

	res, err := e.Compute(p, testTarget, in)
	require.NoError(t, err)
	return p, res
}

func TestNewReport(t *testing.T) {
	fixed := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	p, res := computeResult(t)
	threshold := 0.0
	req := Request{Species: p.Key(), Target: testTarget, Threshold: &threshold}

	r := NewReport(req, testSpec, p, res, 4)

	assert.True(t, strings.HasPrefix(r.ID, "great_white-"))
	assert.Equal(t, "great_white", r.Species)
	assert.Equal(t, p.Name(), r.SpeciesName)
	assert.Equal(t, "2025-06-30", r.TargetDate)
	assert.Equal(t, testSpec, r.Grid)
	assert.Equal(t, fixed, r.ProcessedAt)
	assert.Equal(t, 9, r.Statistics.ValidPoints)
	assert.Equal(t, 9, r.Components.Prey.ValidPoints)
	assert.Equal(t, 0.0, r.Components.Anthropogenic.Max)
	assert.True(t, r.Degraded)
	assert.Len(t, r.Hotspots, 4)
}

func TestNewReportWithoutHotspots(t *testing.T) {
	p, res := computeResult(t)
	threshold := 1.0
	r := NewReport(Request{Threshold: &threshold}, testSpec, p, res, 0)

	assert.NotNil(t, r.Hotspots)
	assert.Empty(t, r.Hotspots)
}

func TestGenerateIDIsDeterministic(t *testing.T) {
	a := generateID("tiger", "2025-06-01", testSpec)
	b := generateID("tiger", "2025-06-01", testSpec)
	assert.Equal(t, a, b)

	other := testSpec
	other.Step = 0.25
	assert.NotEqual(t, a, generateID("tiger", "2025-06-01", other))
	assert.NotEqual(t, a, generateID("tiger", "2025-06-02", testSpec))
	assert.Len(t, generateID("", "2025-06-01", testSpec), 16)
}

func TestSerializeReport(t *testing.T) {
	fixed := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	p, res := computeResult(t)
	r := NewReport(Request{}, testSpec, p, res, 0)

	out, err := SerializeReport(r)
	require.NoError(t, err)
	assert.Equal(t, []byte(r.ID), out.Key)
	assert.Equal(t, map[string]string{
		"species":      "great_white",
		"processed_at": "2025-07-01T12:00:00Z",
		HeaderDegraded: strconv.FormatBool(r.Degraded),
	}, out.Headers)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Value, &decoded))
	assert.Equal(t, r.ID, decoded["id"])
	assert.Equal(t, "2025-06-30", decoded["target_date"])
	assert.Contains(t, decoded, "statistics")
	diag, ok := decoded["diagnostics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"temperature": "2025-06-23",
		"salinity":    "2025-06-30",
		"chlorophyll": "2025-05-31",
	}, diag["lag_dates_used"])
}
