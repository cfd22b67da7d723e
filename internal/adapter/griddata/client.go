package griddata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/observability"
)

// maxErrorBody bounds how much of an error response is kept in the error.
const maxErrorBody = 512

// Client implements domain.GridSource against the grid data service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a grid data service client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// FetchGrid retrieves GET {base}/grids/{variable}/{YYYY-MM-DD}.
func (c *Client) FetchGrid(ctx context.Context, v engine.Variable, day time.Time) (*grid.Grid, error) {
	u := fmt.Sprintf("%s/grids/%s/%s", c.baseURL, url.PathEscape(string(v)), grid.Day(day))
	return c.doRequest(ctx, u, string(v))
}

// FetchBathymetry retrieves GET {base}/grids/bathymetry.
func (c *Client) FetchBathymetry(ctx context.Context) (*grid.Grid, error) {
	return c.doRequest(ctx, c.baseURL+"/grids/bathymetry", string(engine.Bathymetry))
}

func (c *Client) doRequest(ctx context.Context, fullURL, variable string) (*grid.Grid, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GridFetchDuration.WithLabelValues(variable).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s grid request: %w", variable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("grid service error: status %d: %s", resp.StatusCode, body)
	}

	var g grid.Grid
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode %s grid: %w", variable, err)
	}
	c.logger.Debug("grid fetched", "variable", variable, "rows", g.Rows(), "cols", g.Cols())
	return &g, nil
}
