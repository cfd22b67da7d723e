package domain

import (
	"context"
	"errors"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
)

// ErrGridNotFound is returned by a GridSource when no grid exists for the
// requested variable and day. Callers treat it as "unavailable", not as a
// failure.
var ErrGridNotFound = errors.New("grid not found")

// GridSource provides environmental grids at their native resolution.
type GridSource interface {
	// FetchGrid returns the grid of variable observed on the UTC day of day.
	FetchGrid(ctx context.Context, variable engine.Variable, day time.Time) (*grid.Grid, error)
	// FetchBathymetry returns the static depth grid in metres, positive down.
	FetchBathymetry(ctx context.Context) (*grid.Grid, error)
}
