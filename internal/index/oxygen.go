package index

import (
	"math"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
)

// Weiss (1970) oxygen solubility coefficients for ml/L.
const (
	weissA1 = -173.4292
	weissA2 = 249.6339
	weissA3 = 143.3483
	weissA4 = -21.8492
	weissB1 = -0.033096
	weissB2 = 0.014259
	weissB3 = -0.0017

	kelvin = 273.15

	// MgPerMl converts dissolved oxygen from ml/L to mg/L.
	MgPerMl = 1.429
)

// OxygenSolubility returns the saturation concentration of dissolved oxygen
// in mg/L for sea water at tempC °C and salinity PSU.
func OxygenSolubility(tempC, salinity float64) float64 {
	t := (tempC + kelvin) / 100
	ln := weissA1 + weissA2/t + weissA3*math.Log(t) + weissA4*t +
		salinity*(weissB1+weissB2*t+weissB3*t*t)
	return math.Exp(ln) * MgPerMl
}

// DerivedOxygen estimates dissolved oxygen per cell from temperature and salinity.
func DerivedOxygen(temp, sal *grid.Grid) (*grid.Grid, error) {
	return grid.Combine(func(vs []float64) float64 {
		return OxygenSolubility(vs[0], vs[1])
	}, temp, sal)
}
