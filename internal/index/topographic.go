package index

import (
	"math"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
	"github.com/couchcryptid/shark-hsi-service/internal/suitability"
)

// MetresPerDegree is the length of one degree of latitude.
const MetresPerDegree = 111320.0

// Topographic is the topographic index with its sub-suitabilities. Depth and
// Slope are nil when the index is neutral.
type Topographic struct {
	Index   *grid.Grid
	Depth   *grid.Grid
	Slope   *grid.Grid
	Neutral bool
}

// Slope returns the seabed slope in degrees from a depth grid in metres.
func Slope(depth *grid.Grid) *grid.Grid {
	dlat, dlon := grid.Partials(depth)
	values := make([]float64, depth.Len())
	for k := range values {
		dy, okY := dlat.Cell(k)
		dx, okX := dlon.Cell(k)
		if !okY || !okX {
			values[k] = math.NaN()
			continue
		}
		lat, _ := depth.Coord(k)
		cos := math.Max(math.Cos(lat*math.Pi/180), 1e-6)
		rise := math.Hypot(dy/MetresPerDegree, dx/(MetresPerDegree*cos))
		values[k] = math.Atan(rise) * 180 / math.Pi
	}
	g, _ := grid.New(depth.Lat(), depth.Lon(), values)
	return g
}

// Topographic computes (f_depth · f_slope)^(1/2). A nil bathymetry grid
// yields NeutralTopo everywhere.
func (c *Calculator) Topographic(p *species.Profile, bathymetry *grid.Grid) (*Topographic, error) {
	if bathymetry == nil {
		return &Topographic{Index: c.neutral(NeutralTopo), Neutral: true}, nil
	}
	if err := c.check(map[string]*grid.Grid{"bathymetry": bathymetry}); err != nil {
		return nil, err
	}

	t := p.Topography()
	out := &Topographic{
		Depth: suitability.Apply(bathymetry, suitability.TrapezoidCurve(t.DepthMin, t.DepthOptMin, t.DepthOptMax, t.DepthMax)),
		Slope: suitability.Apply(Slope(bathymetry), suitability.GaussianCurve(t.SlopeOptimal, t.SlopeTolerance)),
	}
	idx, err := grid.Combine(func(vs []float64) float64 {
		return math.Sqrt(vs[0] * vs[1])
	}, out.Depth, out.Slope)
	if err != nil {
		return nil, err
	}
	out.Index = idx
	return out, nil
}
