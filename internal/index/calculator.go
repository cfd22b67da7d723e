// Package index computes the four habitat sub-indices from canonical grids.
//
// Every input must already be regridded onto the calculator's canonical
// axes. Required layers that are missing, and inputs on other axes, are
// programming errors reported as grid.ErrShape or ErrMissingLayer. Optional
// layers that are absent for the whole request degrade to neutral grids.
package index

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/ocean"
)

// Neutral values substituted when an optional component is absent.
const (
	NeutralOcean  = 0.5
	NeutralTopo   = 1.0
	NeutralAnthro = 0.0
)

// ErrMissingLayer is returned when a required input grid is nil.
var ErrMissingLayer = errors.New("required layer missing")

// Calculator holds the canonical axes and the fixed model constants. It is
// read-only after construction and safe for concurrent use.
type Calculator struct {
	ref      *grid.Grid
	detector ocean.Detector
	guilds   [4]Guild
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithDetector overrides the eddy and front constants.
func WithDetector(d ocean.Detector) Option {
	return func(c *Calculator) { c.detector = d }
}

// WithGuilds replaces the prey guild response functions.
func WithGuilds(g [4]Guild) Option {
	return func(c *Calculator) { c.guilds = g }
}

// NewCalculator builds a Calculator for the given canonical axes.
func NewCalculator(lat, lon []float64, opts ...Option) (*Calculator, error) {
	ref, err := grid.New(lat, lon, make([]float64, len(lat)*len(lon)))
	if err != nil {
		return nil, fmt.Errorf("canonical axes: %w", err)
	}
	c := &Calculator{ref: ref, detector: ocean.NewDetector(), guilds: DefaultGuilds()}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Detector returns the eddy and front detector in use.
func (c *Calculator) Detector() ocean.Detector { return c.detector }

func (c *Calculator) neutral(v float64) *grid.Grid {
	return grid.Fill(c.ref.Lat(), c.ref.Lon(), v)
}

// check verifies that every non-nil grid lies on the canonical axes.
func (c *Calculator) check(layers map[string]*grid.Grid) error {
	for name, g := range layers {
		if g != nil && !c.ref.SameShape(g) {
			return fmt.Errorf("%w: %s is %dx%d, canonical is %dx%d",
				grid.ErrShape, name, g.Rows(), g.Cols(), c.ref.Rows(), c.ref.Cols())
		}
	}
	return nil
}

func required(layers map[string]*grid.Grid) error {
	for name, g := range layers {
		if g == nil {
			return fmt.Errorf("%w: %s", ErrMissingLayer, name)
		}
	}
	return nil
}

func clip(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
