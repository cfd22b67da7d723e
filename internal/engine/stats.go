package engine

import (
	"sort"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/index"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarise the valid cells of a grid.
type Stats struct {
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Median      float64 `json:"median"`
	P90         float64 `json:"percentile_90"`
	P95         float64 `json:"percentile_95"`
	P99         float64 `json:"percentile_99"`
	ValidPoints int     `json:"valid_points"`
}

// Summarize computes Stats over the valid cells of g. Percentiles
// interpolate linearly between order statistics. A grid with no valid cell
// yields the zero Stats.
func Summarize(g *grid.Grid) Stats {
	values := g.ValidValues()
	if len(values) == 0 {
		return Stats{}
	}
	s := Stats{
		Min:         floats.Min(values),
		Max:         floats.Max(values),
		ValidPoints: len(values),
	}
	s.Mean, s.Std = stat.PopMeanStdDev(values, nil)
	s.Median, _ = stats.Median(values)
	s.P90 = index.Quantile(values, 0.90)
	s.P95 = index.Quantile(values, 0.95)
	s.P99 = index.Quantile(values, 0.99)
	return s
}

// Hotspot is one high-suitability cell.
type Hotspot struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Value float64 `json:"hsi"`
}

// Hotspots returns the valid cells of g with a value of at least threshold,
// highest first. Ties are broken by latitude then longitude. A positive
// limit caps the result length.
func Hotspots(g *grid.Grid, threshold float64, limit int) []Hotspot {
	var out []Hotspot
	for k := 0; k < g.Len(); k++ {
		v, ok := g.Cell(k)
		if !ok || v < threshold {
			continue
		}
		lat, lon := g.Coord(k)
		out = append(out, Hotspot{Lat: lat, Lon: lon, Value: v})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if a.Lat != b.Lat {
			return a.Lat < b.Lat
		}
		return a.Lon < b.Lon
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
