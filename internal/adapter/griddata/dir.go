package griddata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
)

const bathymetryFile = "bathymetry.json"

// Dir implements domain.GridSource over a directory laid out as
// {root}/{variable}/{YYYY-MM-DD}.json plus {root}/bathymetry.json.
type Dir struct {
	root string
}

// NewDir returns a source reading grids below root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) FetchGrid(ctx context.Context, v engine.Variable, day time.Time) (*grid.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readGrid(d.gridPath(v, day))
}

func (d *Dir) FetchBathymetry(ctx context.Context) (*grid.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readGrid(filepath.Join(d.root, bathymetryFile))
}

// Save writes g as the grid of v on the day of day, creating directories
// as needed.
func (d *Dir) Save(v engine.Variable, day time.Time, g *grid.Grid) error {
	return writeGrid(d.gridPath(v, day), g)
}

// SaveBathymetry writes the static depth grid.
func (d *Dir) SaveBathymetry(g *grid.Grid) error {
	return writeGrid(filepath.Join(d.root, bathymetryFile), g)
}

func (d *Dir) gridPath(v engine.Variable, day time.Time) string {
	return filepath.Join(d.root, string(v), grid.Day(day)+".json")
}

func readGrid(path string) (*grid.Grid, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	var g grid.Grid
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &g, nil
}

func writeGrid(path string, g *grid.Grid) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode grid: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create grid directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
