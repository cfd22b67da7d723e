package index

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile (0 <= p <= 1) of values by linear
// interpolation between the closest order statistics (the type-7
// estimator). values is not modified. An empty input yields NaN.
func Quantile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 || math.IsNaN(p) {
		return math.NaN()
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)

	p = math.Min(math.Max(p, 0), 1)
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	hi := min(lo+1, n-1)
	return s[lo] + (h-float64(lo))*(s[hi]-s[lo])
}
