package grid

import "math"

// Partials returns the partial derivatives of g along latitude and
// longitude, in value units per degree. Interior cells use second-order
// central differences on the (possibly non-uniform) coordinate spacing;
// edge cells and cells next to an invalid neighbour fall back to one-sided
// differences. An axis with no valid neighbour contributes 0. Invalid cells
// stay invalid.
func Partials(g *Grid) (dlat, dlon *Grid) {
	rows, cols := g.Rows(), g.Cols()
	dlat = blank(g.lat, g.lon)
	dlon = blank(g.lat, g.lon)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			k := i*cols + j
			if !g.valid[k] {
				continue
			}
			dlat.set(k, derivative(g.lat, i, func(n int) (float64, bool) { return g.At(n, j) }))
			dlon.set(k, derivative(g.lon, j, func(n int) (float64, bool) { return g.At(i, n) }))
		}
	}
	return dlat, dlon
}

// derivative differentiates along one axis at index i; value fetches the
// sample at any index on that axis.
func derivative(axis []float64, i int, value func(int) (float64, bool)) float64 {
	f0, _ := value(i)
	var fm, fp float64
	hasPrev, hasNext := false, false
	if i > 0 {
		fm, hasPrev = value(i - 1)
	}
	if i < len(axis)-1 {
		fp, hasNext = value(i + 1)
	}

	switch {
	case hasPrev && hasNext:
		h1 := axis[i] - axis[i-1]
		h2 := axis[i+1] - axis[i]
		a := -h2 / (h1 * (h1 + h2))
		b := (h2 - h1) / (h1 * h2)
		c := h1 / (h2 * (h1 + h2))
		return a*fm + b*f0 + c*fp
	case hasNext:
		return (fp - f0) / (axis[i+1] - axis[i])
	case hasPrev:
		return (f0 - fm) / (axis[i] - axis[i-1])
	default:
		return 0
	}
}

// GradientMagnitude returns sqrt(dlat² + dlon²) per cell, in value units per degree.
func GradientMagnitude(g *Grid) *Grid {
	dlat, dlon := Partials(g)
	mag, _ := Combine(func(vs []float64) float64 {
		return math.Hypot(vs[0], vs[1])
	}, dlat, dlon)
	return mag
}
