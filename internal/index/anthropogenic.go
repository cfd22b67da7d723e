package index

import (
	"math"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"gonum.org/v1/gonum/floats"
)

// PressureQuantile is the robust scale used to normalise pressure layers.
const PressureQuantile = 0.95

// Anthropogenic is the human-pressure index with its normalised layers.
type Anthropogenic struct {
	Index    *grid.Grid
	Fishing  *grid.Grid
	Shipping *grid.Grid
	Neutral  bool
}

// Normalize scales a pressure layer by its interpolated 95th percentile and clips to
// [0, 1]. When the percentile is not positive the maximum is used instead,
// and a layer with no positive value scores 0.
func Normalize(g *grid.Grid) *grid.Grid {
	values := g.ValidValues()
	if len(values) == 0 {
		return g.Map(func(float64) float64 { return math.NaN() })
	}

	scale := Quantile(values, PressureQuantile)
	if !(scale > 0) {
		scale = floats.Max(values)
	}
	if !(scale > 0) {
		return g.Map(func(float64) float64 { return 0 })
	}
	return g.Map(func(v float64) float64 { return clip(v / scale) })
}

// Anthropogenic computes max(f_fishing, f_shipping) over whichever layers
// are present. A cell is invalid only when every present layer is invalid
// there. With neither layer the index is NeutralAnthro everywhere.
func (c *Calculator) Anthropogenic(fishing, shipping *grid.Grid) (*Anthropogenic, error) {
	if fishing == nil && shipping == nil {
		return &Anthropogenic{Index: c.neutral(NeutralAnthro), Neutral: true}, nil
	}
	if err := c.check(map[string]*grid.Grid{"fishing_effort": fishing, "vessel_density": shipping}); err != nil {
		return nil, err
	}

	out := &Anthropogenic{}
	var layers []*grid.Grid
	if fishing != nil {
		out.Fishing = Normalize(fishing)
		layers = append(layers, out.Fishing)
	}
	if shipping != nil {
		out.Shipping = Normalize(shipping)
		layers = append(layers, out.Shipping)
	}

	values := make([]float64, c.ref.Len())
	for k := range values {
		v, seen := 0.0, false
		for _, g := range layers {
			if x, ok := g.Cell(k); ok {
				v = math.Max(v, x)
				seen = true
			}
		}
		if !seen {
			v = math.NaN()
		}
		values[k] = v
	}
	idx, err := grid.New(c.ref.Lat(), c.ref.Lon(), values)
	if err != nil {
		return nil, err
	}
	out.Index = idx
	return out, nil
}
