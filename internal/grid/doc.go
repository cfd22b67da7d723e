// Package grid provides the immutable latitude/longitude rasters the
// suitability engine computes on.
//
// # Layout
//
// A Grid stores values row-major with latitude as the outer axis. Both axes
// are strictly ascending; longitudes are expected in [-180, 180) and
// [WrapLongitude] converts 0..360 sources. Each cell carries a validity bit:
// NaN, ±Inf, fill values and land cells are invalid and stay invalid
// through [Grid.Map], [Combine], [Partials] and [Regrid].
//
// # Canonical grid
//
// All index arithmetic happens on one canonical grid described by [Spec]
// (inclusive bounds and a fixed step, 0.5° by default). [Regrid] aligns
// sources of any native resolution onto it with separable bilinear
// interpolation and never extrapolates.
//
// # Time
//
// A [Series] holds one variable's grids keyed by UTC day ("2006-01-02"),
// which is how lagged layers are looked up.
package grid
