package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrShape is returned when values or masks do not match the axes, or
	// when grids combined cell-by-cell have different dimensions.
	ErrShape = errors.New("grid shape mismatch")

	// ErrAxis is returned when a coordinate axis is empty, unsorted, or not finite.
	ErrAxis = errors.New("invalid grid axis")
)

// Grid is an immutable latitude/longitude raster. Values are stored
// row-major with latitude as the outer dimension.
type Grid struct {
	lat    []float64
	lon    []float64
	values []float64
	valid  []bool
}

// New builds a Grid from ascending axes and row-major values. Non-finite
// values are marked invalid.
func New(lat, lon, values []float64) (*Grid, error) {
	return NewMasked(lat, lon, values, nil)
}

// NewMasked is like New but also applies an explicit validity mask. A nil
// mask marks every finite value valid.
func NewMasked(lat, lon, values []float64, mask []bool) (*Grid, error) {
	if err := checkAxis("lat", lat); err != nil {
		return nil, err
	}
	if err := checkAxis("lon", lon); err != nil {
		return nil, err
	}
	n := len(lat) * len(lon)
	if len(values) != n {
		return nil, fmt.Errorf("%w: %d values for %dx%d axes", ErrShape, len(values), len(lat), len(lon))
	}
	if mask != nil && len(mask) != n {
		return nil, fmt.Errorf("%w: %d mask cells for %dx%d axes", ErrShape, len(mask), len(lat), len(lon))
	}

	g := &Grid{
		lat:    append([]float64(nil), lat...),
		lon:    append([]float64(nil), lon...),
		values: make([]float64, n),
		valid:  make([]bool, n),
	}
	for i, v := range values {
		ok := !math.IsNaN(v) && !math.IsInf(v, 0)
		if mask != nil {
			ok = ok && mask[i]
		}
		if ok {
			g.values[i] = v
			g.valid[i] = true
		} else {
			g.values[i] = math.NaN()
		}
	}
	return g, nil
}

// Fill returns a grid on the given axes where every cell is valid and equal to v.
func Fill(lat, lon []float64, v float64) *Grid {
	g := blank(append([]float64(nil), lat...), append([]float64(nil), lon...))
	for i := range g.values {
		g.values[i] = v
		g.valid[i] = true
	}
	return g
}

func checkAxis(name string, axis []float64) error {
	if len(axis) == 0 {
		return fmt.Errorf("%w: %s axis is empty", ErrAxis, name)
	}
	for i, v := range axis {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s[%d] is not finite", ErrAxis, name, i)
		}
		if i > 0 && v <= axis[i-1] {
			return fmt.Errorf("%w: %s axis must be strictly ascending", ErrAxis, name)
		}
	}
	return nil
}

// blank allocates an all-invalid grid sharing the caller's axes.
func blank(lat, lon []float64) *Grid {
	n := len(lat) * len(lon)
	g := &Grid{
		lat:    lat,
		lon:    lon,
		values: make([]float64, n),
		valid:  make([]bool, n),
	}
	for i := range g.values {
		g.values[i] = math.NaN()
	}
	return g
}

// Lat returns a copy of the latitude axis.
func (g *Grid) Lat() []float64 { return append([]float64(nil), g.lat...) }

// Lon returns a copy of the longitude axis.
func (g *Grid) Lon() []float64 { return append([]float64(nil), g.lon...) }

// Rows is the number of latitudes.
func (g *Grid) Rows() int { return len(g.lat) }

// Cols is the number of longitudes.
func (g *Grid) Cols() int { return len(g.lon) }

// Len is the number of cells.
func (g *Grid) Len() int { return len(g.values) }

// At returns the value at row i, column j and whether it is valid.
func (g *Grid) At(i, j int) (float64, bool) {
	k := i*len(g.lon) + j
	return g.values[k], g.valid[k]
}

// Cell returns the value at flat index k and whether it is valid.
func (g *Grid) Cell(k int) (float64, bool) {
	return g.values[k], g.valid[k]
}

// Coord returns the latitude and longitude of flat index k.
func (g *Grid) Coord(k int) (lat, lon float64) {
	return g.lat[k/len(g.lon)], g.lon[k%len(g.lon)]
}

// ValidCount is the number of valid cells.
func (g *Grid) ValidCount() int {
	n := 0
	for _, ok := range g.valid {
		if ok {
			n++
		}
	}
	return n
}

// ValidValues returns the valid cell values in row-major order.
func (g *Grid) ValidValues() []float64 {
	out := make([]float64, 0, len(g.values))
	for k, ok := range g.valid {
		if ok {
			out = append(out, g.values[k])
		}
	}
	return out
}

// Values returns a copy of the row-major values; invalid cells are NaN.
func (g *Grid) Values() []float64 { return append([]float64(nil), g.values...) }

// SameShape reports whether g and o have identical axes.
func (g *Grid) SameShape(o *Grid) bool {
	return sameAxis(g.lat, o.lat) && sameAxis(g.lon, o.lon)
}

func sameAxis(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Map applies fn to every valid cell. Invalid cells stay invalid, and
// non-finite results become invalid.
func (g *Grid) Map(fn func(v float64) float64) *Grid {
	out := blank(g.lat, g.lon)
	for k, ok := range g.valid {
		if !ok {
			continue
		}
		out.set(k, fn(g.values[k]))
	}
	return out
}

// Combine applies fn cell-by-cell over grids sharing one shape. A cell is
// valid only when it is valid in every input.
func Combine(fn func(vs []float64) float64, grids ...*Grid) (*Grid, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("%w: no grids to combine", ErrShape)
	}
	first := grids[0]
	for _, g := range grids[1:] {
		if !first.SameShape(g) {
			return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrShape, first.Rows(), first.Cols(), g.Rows(), g.Cols())
		}
	}

	out := blank(first.lat, first.lon)
	vs := make([]float64, len(grids))
cells:
	for k := range out.values {
		for i, g := range grids {
			if !g.valid[k] {
				continue cells
			}
			vs[i] = g.values[k]
		}
		out.set(k, fn(vs))
	}
	return out, nil
}

func (g *Grid) set(k int, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	g.values[k] = v
	g.valid[k] = true
}

// Series is the time dimension of one variable: grids keyed by UTC day.
type Series map[string]*Grid

// Day formats t as the UTC calendar day used to key a Series.
func Day(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// At returns the grid observed on the day of t.
func (s Series) At(t time.Time) (*Grid, bool) {
	g, ok := s[Day(t)]
	return g, ok && g != nil
}

// Has reports whether the series holds a grid for the day of t.
func (s Series) Has(t time.Time) bool {
	_, ok := s.At(t)
	return ok
}

// Days lists the series days in ascending order.
func (s Series) Days() []string {
	days := make([]string, 0, len(s))
	for d, g := range s {
		if g != nil {
			days = append(days, d)
		}
	}
	sort.Strings(days)
	return days
}
