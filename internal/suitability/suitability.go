// Package suitability holds the response curves that map a raw physical
// value to a 0-1 habitat suitability score. Every function is pure and
// returns a value in [0, 1] for any finite input.
package suitability

import (
	"math"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
)

// OxygenBonus is the amplitude of the near-optimal reward added on top of
// the oxygen sigmoid.
const OxygenBonus = 0.25

// Gaussian peaks at 1 when x == opt and decays with spread sigma.
func Gaussian(x, opt, sigma float64) float64 {
	d := x - opt
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

// Trapezoid is 0 outside [lo, hi], 1 on [optLo, optHi], and ramps linearly
// in between. A ramp with zero width degenerates into a step.
func Trapezoid(x, lo, optLo, optHi, hi float64) float64 {
	switch {
	case x < lo || x > hi:
		return 0
	case x >= optLo && x <= optHi:
		return 1
	case x < optLo:
		if optLo == lo {
			return 1
		}
		return clip((x - lo) / (optLo - lo))
	default:
		if hi == optHi {
			return 1
		}
		return clip((hi - x) / (hi - optHi))
	}
}

// SigmoidWithBonus rises through min with steepness sigma and adds a
// Gaussian bonus centred on optimal. The sum is clipped to [0, 1].
func SigmoidWithBonus(x, min, optimal, sigma float64) float64 {
	base := 1 / (1 + math.Exp(-(x-min)/sigma))
	return clip(base + OxygenBonus*Gaussian(x, optimal, sigma))
}

// ExpDecay is exp(-x/scale) for non-negative x and 1 below zero.
func ExpDecay(x, scale float64) float64 {
	if x <= 0 {
		return 1
	}
	return math.Exp(-x / scale)
}

// Saturating is the Michaelis-Menten response x/(x+k). Non-positive x scores 0.
func Saturating(x, k float64) float64 {
	if x <= 0 {
		return 0
	}
	return clip(x / (x + k))
}

func clip(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Curve is a scalar suitability function.
type Curve func(x float64) float64

// Apply maps c over the valid cells of g.
func Apply(g *grid.Grid, c Curve) *grid.Grid {
	return g.Map(c)
}

// GaussianCurve binds Gaussian parameters.
func GaussianCurve(opt, sigma float64) Curve {
	return func(x float64) float64 { return Gaussian(x, opt, sigma) }
}

// TrapezoidCurve binds Trapezoid parameters.
func TrapezoidCurve(lo, optLo, optHi, hi float64) Curve {
	return func(x float64) float64 { return Trapezoid(x, lo, optLo, optHi, hi) }
}

// SigmoidWithBonusCurve binds SigmoidWithBonus parameters.
func SigmoidWithBonusCurve(min, optimal, sigma float64) Curve {
	return func(x float64) float64 { return SigmoidWithBonus(x, min, optimal, sigma) }
}

// ExpDecayCurve binds the ExpDecay scale.
func ExpDecayCurve(scale float64) Curve {
	return func(x float64) float64 { return ExpDecay(x, scale) }
}

// SaturatingCurve binds the half-saturation constant.
func SaturatingCurve(k float64) Curve {
	return func(x float64) float64 { return Saturating(x, k) }
}
