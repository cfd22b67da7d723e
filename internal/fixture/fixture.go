// Package fixture generates deterministic synthetic environmental grids for
// local runs and end-to-end tests.
//
// The synthetic ocean has a coast along the western edge of the box: depth,
// chlorophyll and human pressure vary with distance from it, temperature
// cools poleward, and the sea level carries one warm and one cold eddy.
// Oxygen and prey guild densities are never generated, so computations over
// a fixture always exercise the oxygen derivation and the guild fallback.
package fixture

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
)

// DefaultHistory covers the longest built-in trophic lag.
const DefaultHistory = 31

// Writer receives generated grids. griddata.Dir implements it.
type Writer interface {
	Save(v engine.Variable, day time.Time, g *grid.Grid) error
	SaveBathymetry(g *grid.Grid) error
}

// Variables lists the dated layers a Generator produces.
var Variables = []engine.Variable{
	engine.Temperature,
	engine.Salinity,
	engine.Chlorophyll,
	engine.SeaLevel,
	engine.FishingEffort,
	engine.VesselDensity,
}

// Generator produces the synthetic fields of one box.
type Generator struct {
	spec     grid.Spec
	lat, lon []float64
}

// New returns a Generator sampling the box of spec at its step.
func New(spec grid.Spec) (*Generator, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("fixture grid: %w", err)
	}
	lat, lon := spec.Axes()
	return &Generator{spec: spec, lat: lat, lon: lon}, nil
}

// Layer returns the grid of v offset days after the target day. Offsets are
// usually zero or negative. It returns false for variables the synthetic
// ocean does not carry.
func (g *Generator) Layer(v engine.Variable, offset int) (*grid.Grid, bool) {
	var fn func(lat, lon float64) float64
	switch v {
	case engine.Temperature:
		fn = func(lat, lon float64) float64 {
			return 24 - 0.25*math.Abs(lat) + 1.5*math.Sin(lon*math.Pi/20) + 0.02*float64(offset)
		}
	case engine.Salinity:
		fn = func(lat, _ float64) float64 { return 34 + 0.8*math.Cos(lat*math.Pi/60) }
	case engine.Chlorophyll:
		fn = func(_, lon float64) float64 { return 0.1 + 1.5*math.Exp(-4*g.offshore(lon)) }
	case engine.SeaLevel:
		fn = g.eddies(offset)
	case engine.FishingEffort:
		fn = func(_, lon float64) float64 { return 1.5 * math.Exp(-3*g.offshore(lon)) }
	case engine.VesselDensity:
		fn = func(_, lon float64) float64 { return 4 * math.Exp(-6*g.offshore(lon)) }
	default:
		return nil, false
	}
	return g.sample(fn), true
}

// Bathymetry returns positive depths in metres, shallow at the coast.
func (g *Generator) Bathymetry() *grid.Grid {
	return g.sample(func(_, lon float64) float64 {
		x := g.offshore(lon)
		return 10 + 1500*x*x
	})
}

// Write generates every variable for the target day and the history days
// before it, plus bathymetry. It returns the number of grids written.
func (g *Generator) Write(w Writer, target time.Time, history int) (int, error) {
	if history < 0 {
		return 0, errors.New("fixture history must be non-negative")
	}
	target = target.UTC().Truncate(24 * time.Hour)

	n := 0
	for offset := -history; offset <= 0; offset++ {
		day := target.AddDate(0, 0, offset)
		for _, v := range Variables {
			layer, _ := g.Layer(v, offset)
			if err := w.Save(v, day, layer); err != nil {
				return n, fmt.Errorf("save %s %s: %w", v, grid.Day(day), err)
			}
			n++
		}
	}
	if err := w.SaveBathymetry(g.Bathymetry()); err != nil {
		return n, fmt.Errorf("save bathymetry: %w", err)
	}
	return n + 1, nil
}

// offshore maps a longitude to its fractional distance from the western
// edge, 0 at the coast and 1 at the eastern edge.
func (g *Generator) offshore(lon float64) float64 {
	width := g.spec.East - g.spec.West
	if width <= 0 {
		return 0.5
	}
	return (lon - g.spec.West) / width
}

func (g *Generator) eddies(offset int) func(lat, lon float64) float64 {
	midLat := (g.spec.South + g.spec.North) / 2
	midLon := (g.spec.West+g.spec.East)/2 + 0.01*float64(offset)
	span := math.Max(g.spec.North-g.spec.South, g.spec.East-g.spec.West)
	sigma := math.Max(span/6, g.spec.Step)
	bump := func(lat, lon, cLat, cLon float64) float64 {
		d2 := (lat-cLat)*(lat-cLat) + (lon-cLon)*(lon-cLon)
		return math.Exp(-d2 / (2 * sigma * sigma))
	}
	return func(lat, lon float64) float64 {
		return 0.12*bump(lat, lon, midLat+span/4, midLon) - 0.1*bump(lat, lon, midLat-span/4, midLon)
	}
}

func (g *Generator) sample(fn func(lat, lon float64) float64) *grid.Grid {
	values := make([]float64, 0, len(g.lat)*len(g.lon))
	for _, lat := range g.lat {
		for _, lon := range g.lon {
			values = append(values, fn(lat, lon))
		}
	}
	out, _ := grid.New(g.lat, g.lon, values)
	return out
}
