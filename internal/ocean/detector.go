// Package ocean derives eddy and front suitability from sea-level anomaly.
//
// Both cyclonic (cold-core, negative SLA) and anticyclonic (warm-core,
// positive SLA) eddies aggregate prey, so the eddy response depends on the
// anomaly magnitude only. Fronts are found through the spatial gradient of
// SLA, which marks the boundary between water masses.
package ocean

import (
	"math"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
	"github.com/couchcryptid/shark-hsi-service/internal/suitability"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultEddySigma is the SLA spread of the eddy Gaussian, in metres.
	DefaultEddySigma = 0.1

	// DefaultFrontScale is the gradient decay scale, in metres per degree.
	DefaultFrontScale = 0.05

	// EddyThreshold is the |SLA| in metres above which a cell counts as an eddy core.
	EddyThreshold = 0.05
)

// Detector holds the fixed feature-detection constants.
type Detector struct {
	EddySigma  float64
	FrontScale float64
}

// NewDetector returns a Detector with the default constants.
func NewDetector() Detector {
	return Detector{EddySigma: DefaultEddySigma, FrontScale: DefaultFrontScale}
}

// Features are the per-cell oceanographic suitability grids.
type Features struct {
	Eddy     *grid.Grid
	Front    *grid.Grid
	Combined *grid.Grid
}

// Detect computes eddy, front and weighted combined suitability. Cells with
// invalid SLA are invalid in every output grid.
func (d Detector) Detect(sla *grid.Grid, w species.Oceanography) Features {
	eddy := suitability.Apply(sla, suitability.GaussianCurve(0, d.EddySigma))
	front := suitability.Apply(grid.GradientMagnitude(sla), suitability.ExpDecayCurve(d.FrontScale))

	combined, _ := grid.Combine(func(vs []float64) float64 {
		v := w.Eddy*vs[0] + w.Front*vs[1]
		return math.Min(math.Max(v, 0), 1)
	}, eddy, front)

	return Features{Eddy: eddy, Front: front, Combined: combined}
}

// Census summarises eddy activity in an SLA grid.
type Census struct {
	Cyclonic     int     `json:"cyclonic"`
	Anticyclonic int     `json:"anticyclonic"`
	MeanSLA      float64 `json:"mean_sla"`
	StdSLA       float64 `json:"std_sla"`
	ValidPoints  int     `json:"valid_points"`
}

// TakeCensus counts cells beyond ±EddyThreshold and reports the population
// mean and standard deviation of valid SLA.
func TakeCensus(sla *grid.Grid) Census {
	values := sla.ValidValues()
	c := Census{ValidPoints: len(values)}
	if len(values) == 0 {
		return c
	}
	for _, v := range values {
		switch {
		case v < -EddyThreshold:
			c.Cyclonic++
		case v > EddyThreshold:
			c.Anticyclonic++
		}
	}
	c.MeanSLA, c.StdSLA = stat.PopMeanStdDev(values, nil)
	return c
}
