package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/domain"
	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/observability"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
	"golang.org/x/sync/errgroup"
)

// fetchConcurrency bounds the number of in-flight grid fetches per request.
const fetchConcurrency = 8

// Grid fetch outcomes used as metric labels.
const (
	outcomeFound    = "found"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

type fetched struct {
	day  time.Time
	grid *grid.Grid
}

// inputGatherer collects the grids one computation needs from a GridSource.
type inputGatherer struct {
	source  domain.GridSource
	logger  *slog.Logger
	metrics *observability.Metrics
}

// gather fetches every dated variable and the bathymetry concurrently. Each
// variable tries its candidate days in preference order and stops at the
// first grid found. Fetch failures other than not-found are logged and the
// day treated as unavailable; only context cancellation aborts.
func (g *inputGatherer) gather(ctx context.Context, eng *engine.Engine, p *species.Profile, target time.Time) (*engine.Inputs, error) {
	vars := engine.Dated()
	found := make([]fetched, len(vars))
	var bathy *grid.Grid

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(fetchConcurrency)
	for i, v := range vars {
		eg.Go(func() error {
			for _, day := range eng.Candidates(p, v, target) {
				grd, ok, err := g.fetch(ctx, v, day, func(ctx context.Context) (*grid.Grid, error) {
					return g.source.FetchGrid(ctx, v, day)
				})
				if err != nil {
					return err
				}
				if ok {
					found[i] = fetched{day: day, grid: grd}
					return nil
				}
			}
			return nil
		})
	}
	eg.Go(func() error {
		grd, ok, err := g.fetch(ctx, engine.Bathymetry, time.Time{}, g.source.FetchBathymetry)
		if ok {
			bathy = grd
		}
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	in := engine.NewInputs()
	for i, v := range vars {
		if found[i].grid != nil {
			in.Add(v, found[i].day, found[i].grid)
		}
	}
	in.Bathymetry = bathy
	return in, nil
}

// fetch runs one lookup and classifies its outcome. The returned error is
// non-nil only when ctx is done.
func (g *inputGatherer) fetch(ctx context.Context, v engine.Variable, day time.Time, do func(context.Context) (*grid.Grid, error)) (*grid.Grid, bool, error) {
	grd, err := do(ctx)
	switch {
	case err == nil:
		g.metrics.GridFetches.WithLabelValues(string(v), outcomeFound).Inc()
		return grd, true, nil
	case ctx.Err() != nil:
		return nil, false, ctx.Err()
	case errors.Is(err, domain.ErrGridNotFound):
		g.metrics.GridFetches.WithLabelValues(string(v), outcomeNotFound).Inc()
		return nil, false, nil
	default:
		g.metrics.GridFetches.WithLabelValues(string(v), outcomeError).Inc()
		attrs := []any{"variable", v, "error", err}
		if !day.IsZero() {
			attrs = append(attrs, "day", grid.Day(day))
		}
		g.logger.Warn("grid fetch failed, treating as unavailable", attrs...)
		return nil, false, nil
	}
}
