package griddata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingSource struct {
	gridCalls  int
	bathyCalls int
	result     *grid.Grid
	err        error
}

func (m *countingSource) FetchGrid(context.Context, engine.Variable, time.Time) (*grid.Grid, error) {
	m.gridCalls++
	return m.result, m.err
}

func (m *countingSource) FetchBathymetry(context.Context) (*grid.Grid, error) {
	m.bathyCalls++
	return m.result, m.err
}

func cell(v float64) *grid.Grid {
	return grid.Fill([]float64{0}, []float64{0}, v)
}

// --- CachedSource tests ---

func TestCachedSource_GridCacheHit(t *testing.T) {
	inner := &countingSource{result: cell(18)}
	cached := NewCachedSource(inner, 10, testMetrics())

	g1, err := cached.FetchGrid(context.Background(), engine.Temperature, testDay)
	require.NoError(t, err)
	// Same UTC day at a different hour shares the entry.
	g2, err := cached.FetchGrid(context.Background(), engine.Temperature, testDay.Add(-3*time.Hour))
	require.NoError(t, err)

	assert.Same(t, g1, g2)
	assert.Equal(t, 1, inner.gridCalls, "should only call inner once")
}

func TestCachedSource_BathymetryCacheHit(t *testing.T) {
	inner := &countingSource{result: cell(100)}
	cached := NewCachedSource(inner, 10, testMetrics())

	_, err := cached.FetchBathymetry(context.Background())
	require.NoError(t, err)
	_, err = cached.FetchBathymetry(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, inner.bathyCalls)
}

func TestCachedSource_DifferentKeysMiss(t *testing.T) {
	inner := &countingSource{result: cell(1)}
	cached := NewCachedSource(inner, 10, testMetrics())

	_, _ = cached.FetchGrid(context.Background(), engine.Temperature, testDay)
	_, _ = cached.FetchGrid(context.Background(), engine.Salinity, testDay)
	_, _ = cached.FetchGrid(context.Background(), engine.Temperature, testDay.AddDate(0, 0, 1))

	assert.Equal(t, 3, inner.gridCalls)
}

func TestCachedSource_ErrorsAreNotCached(t *testing.T) {
	inner := &countingSource{err: ErrNotFound}
	cached := NewCachedSource(inner, 10, testMetrics())

	_, err := cached.FetchGrid(context.Background(), engine.SeaLevel, testDay)
	require.ErrorIs(t, err, ErrNotFound)

	inner.err = errors.New("timeout")
	_, err = cached.FetchGrid(context.Background(), engine.SeaLevel, testDay)
	require.Error(t, err)

	inner.err = nil
	inner.result = cell(0.1)
	g, err := cached.FetchGrid(context.Background(), engine.SeaLevel, testDay)
	require.NoError(t, err)
	assert.Same(t, inner.result, g)
	assert.Equal(t, 3, inner.gridCalls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)
	a := cell(1)

	c.put("a", a)
	c.put("b", cell(2))

	got, ok := c.get("a")
	assert.True(t, ok)
	assert.Same(t, a, got)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", cell(1))
	c.put("b", cell(2))
	c.put("c", cell(3)) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")
	_, ok = c.get("b")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.size())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", cell(1))
	c.put("b", cell(2))

	// Access "a" to promote it
	c.get("a")

	// Insert "c": should evict "b" (LRU), not "a"
	c.put("c", cell(3))

	_, ok := c.get("a")
	assert.True(t, ok, "a should still be cached")
	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	updated := cell(9)

	c.put("a", cell(1))
	c.put("a", updated)

	got, ok := c.get("a")
	assert.True(t, ok)
	assert.Same(t, updated, got)
	assert.Equal(t, 1, c.size())
}
