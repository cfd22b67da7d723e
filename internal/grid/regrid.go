package grid

import (
	"fmt"
	"math"
	"sort"
)

// Spec describes a regular canonical grid. Bounds are inclusive and in
// degrees; longitudes live in [-180, 180).
type Spec struct {
	South float64 `json:"south"`
	North float64 `json:"north"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
	Step  float64 `json:"step"`
}

// GlobalSpec is the global canonical grid at the given resolution.
func GlobalSpec(step float64) Spec {
	return Spec{South: -90, North: 90, West: -180, East: 180 - step, Step: step}
}

// Validate checks the bounds and step.
func (s Spec) Validate() error {
	switch {
	case !(s.Step > 0):
		return fmt.Errorf("%w: step must be positive", ErrAxis)
	case s.South < -90 || s.North > 90 || s.South > s.North:
		return fmt.Errorf("%w: latitude bounds [%g, %g]", ErrAxis, s.South, s.North)
	case s.West < -180 || s.East >= 180 || s.West > s.East:
		return fmt.Errorf("%w: longitude bounds [%g, %g]", ErrAxis, s.West, s.East)
	}
	return nil
}

// Axes returns the inclusive ascending latitude and longitude axes.
func (s Spec) Axes() (lat, lon []float64) {
	return arange(s.South, s.North, s.Step), arange(s.West, s.East, s.Step)
}

// arange steps from lo to hi inclusive; indices are multiplied rather than
// accumulated so coordinates stay exact multiples of the step.
func arange(lo, hi, step float64) []float64 {
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = roundCoord(lo + float64(i)*step)
	}
	return out
}

func roundCoord(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

// Regrid resamples src onto the target axes by separable bilinear
// interpolation. Target points outside the source coverage are invalid, as
// are points whose interpolation stencil touches an invalid source cell.
func Regrid(src *Grid, lat, lon []float64) (*Grid, error) {
	if err := checkAxis("lat", lat); err != nil {
		return nil, err
	}
	if err := checkAxis("lon", lon); err != nil {
		return nil, err
	}
	src = WrapLongitude(src)
	if sameAxis(src.lat, lat) && sameAxis(src.lon, lon) {
		return src, nil
	}

	out := blank(append([]float64(nil), lat...), append([]float64(nil), lon...))
	periodic := isPeriodic(src.lon)
	lonStencils := make([]stencil, len(lon))
	for j, x := range lon {
		if periodic {
			lonStencils[j] = locateCyclic(src.lon, x)
		} else {
			lonStencils[j] = locate(src.lon, x)
		}
	}

	for i, y := range lat {
		sy := locate(src.lat, y)
		if !sy.ok {
			continue
		}
		for j := range lon {
			sx := lonStencils[j]
			if !sx.ok {
				continue
			}
			if v, ok := src.bilinear(sy, sx); ok {
				out.set(i*len(lon)+j, v)
			}
		}
	}
	return out, nil
}

// stencil holds the two bracketing indices on one axis and the weight of hi.
type stencil struct {
	lo, hi int
	w      float64
	ok     bool
}

func locate(axis []float64, x float64) stencil {
	n := len(axis)
	if x < axis[0] || x > axis[n-1] {
		return stencil{}
	}
	i := sort.SearchFloat64s(axis, x)
	if i < n && axis[i] == x {
		return stencil{lo: i, hi: i, ok: true}
	}
	lo, hi := i-1, i
	return stencil{lo: lo, hi: hi, w: (x - axis[lo]) / (axis[hi] - axis[lo]), ok: true}
}

// isPeriodic reports whether a [-180, 180) longitude axis closes around the
// globe: the gap across the antimeridian is no wider than its widest
// interior spacing.
func isPeriodic(lon []float64) bool {
	n := len(lon)
	if n < 2 {
		return false
	}
	widest := 0.0
	for j := 1; j < n; j++ {
		widest = math.Max(widest, lon[j]-lon[j-1])
	}
	gap := lon[0] + 360 - lon[n-1]
	return gap > 0 && gap <= widest+1e-9
}

// locateCyclic is locate on a periodic longitude axis. Points beyond either
// end are bracketed by the last and first columns across the antimeridian.
func locateCyclic(axis []float64, x float64) stencil {
	n := len(axis)
	if x >= axis[0] && x <= axis[n-1] {
		return locate(axis, x)
	}
	last := axis[n-1]
	if x < axis[0] {
		last -= 360
	}
	gap := axis[0] + 360 - axis[n-1]
	return stencil{lo: n - 1, hi: 0, w: (x - last) / gap, ok: true}
}

func (g *Grid) bilinear(sy, sx stencil) (float64, bool) {
	type node struct {
		i, j int
		w    float64
	}
	nodes := [4]node{
		{sy.lo, sx.lo, (1 - sy.w) * (1 - sx.w)},
		{sy.lo, sx.hi, (1 - sy.w) * sx.w},
		{sy.hi, sx.lo, sy.w * (1 - sx.w)},
		{sy.hi, sx.hi, sy.w * sx.w},
	}
	var sum float64
	for _, n := range nodes {
		if n.w == 0 {
			continue
		}
		v, ok := g.At(n.i, n.j)
		if !ok {
			return 0, false
		}
		sum += n.w * v
	}
	return sum, true
}

// WrapLongitude converts a 0..360 longitude axis to [-180, 180) and
// reorders columns to keep the axis ascending. Grids already in range are
// returned unchanged. Columns that collide after wrapping keep the first.
func WrapLongitude(g *Grid) *Grid {
	if g.lon[len(g.lon)-1] < 180 {
		return g
	}

	type col struct {
		lon float64
		src int
	}
	cols := make([]col, 0, len(g.lon))
	seen := make(map[float64]bool, len(g.lon))
	for j, x := range g.lon {
		w := roundCoord(math.Mod(x+180, 360) - 180)
		if w < -180 {
			w += 360
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		cols = append(cols, col{lon: w, src: j})
	}
	sort.Slice(cols, func(a, b int) bool { return cols[a].lon < cols[b].lon })

	lon := make([]float64, len(cols))
	for j, c := range cols {
		lon[j] = c.lon
	}
	out := blank(g.lat, lon)
	for i := range g.lat {
		for j, c := range cols {
			if v, ok := g.At(i, c.src); ok {
				out.set(i*len(lon)+j, v)
			}
		}
	}
	return out
}
