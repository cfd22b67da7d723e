package griddata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
	sampleGrid        = `{"lat":[0,1],"lon":[10,11,12],"values":[[18.5,null,19],[17,17.5,18]]}`
)

var testDay = time.Date(2025, 6, 23, 15, 0, 0, 0, time.UTC)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return NewClient(baseURL+"/", 5*time.Second, discardLogger(), testMetrics())
}

func TestClient_FetchGrid_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/grids/temperature/2025-06-23", r.URL.Path)
		assert.Equal(t, contentTypeJSON, r.Header.Get("Accept"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, sampleGrid)
	}))
	defer srv.Close()

	g, err := testClient(srv.URL).FetchGrid(context.Background(), engine.Temperature, testDay)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 1}, g.Lat())
	assert.Equal(t, []float64{10, 11, 12}, g.Lon())
	assert.Equal(t, 5, g.ValidCount())
	v, ok := g.At(0, 2)
	assert.True(t, ok)
	assert.Equal(t, 19.0, v)
	_, ok = g.At(0, 1)
	assert.False(t, ok, "null decodes as a missing cell")
}

func TestClient_FetchBathymetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/grids/bathymetry", r.URL.Path)
		_, _ = io.WriteString(w, sampleGrid)
	}))
	defer srv.Close()

	g, err := testClient(srv.URL).FetchBathymetry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, g.Len())
}

func TestClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := testClient(srv.URL).FetchGrid(context.Background(), engine.SeaLevel, testDay)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "/grids/sea_level/2025-06-23")
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "warming up")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchGrid(context.Background(), engine.Salinity, testDay)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "warming up")
}

func TestClient_MalformedGrid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"lat":[0,1],"lon":[10],"values":[[1]]}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchGrid(context.Background(), engine.Chlorophyll, testDay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode chlorophyll grid")
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, sampleGrid)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).FetchGrid(ctx, engine.Temperature, testDay)
	require.ErrorIs(t, err, context.Canceled)
}
