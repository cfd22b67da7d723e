// Package lag picks which historical day supplies a lagged variable.
//
// A variable with trophic lag L is read at T-L. When that day is missing the
// days around it are tried by proximity (T-L-1, T-L+1, T-L-2, ...) up to the
// window, and finally the target day itself.
package lag

import (
	"fmt"
	"time"
)

// DefaultWindow is the fallback search radius in days.
const DefaultWindow = 7

// Kind describes how a Resolution was satisfied.
type Kind string

const (
	KindExact   Kind = "exact"
	KindWindow  Kind = "window"
	KindCurrent Kind = "current"
	KindMissing Kind = "missing"
)

// Resolution is the outcome of resolving one variable.
type Resolution struct {
	Requested time.Time
	Used      time.Time
	// Offset is Used minus Requested in days. Zero unless Kind is window or current.
	Offset int
	Kind   Kind
}

// Found reports whether any day was available.
func (r Resolution) Found() bool { return r.Kind != KindMissing }

// Fallback reports whether a day other than the requested one was used.
func (r Resolution) Fallback() bool {
	return r.Kind == KindWindow || r.Kind == KindCurrent
}

// String renders the resolution for diagnostics.
func (r Resolution) String() string {
	switch r.Kind {
	case KindExact:
		return day(r.Used)
	case KindMissing:
		return fmt.Sprintf("missing (requested %s)", day(r.Requested))
	default:
		return fmt.Sprintf("%s (%s, requested %s, offset %+dd)", day(r.Used), r.Kind, day(r.Requested), r.Offset)
	}
}

// Resolver is stateless; the zero value uses no fallback window.
type Resolver struct {
	Window int
}

// NewResolver returns a Resolver with the given window. A negative window is
// treated as zero.
func NewResolver(window int) Resolver {
	return Resolver{Window: max(window, 0)}
}

// Candidates lists the days to try for a lag of lagDays before target, in
// order of proximity to target-lagDays. Days after target are skipped since
// they are not observable yet. The target itself is not included for a
// positive lag, even when it lies within the window: Resolve tries it last
// and reports it as KindCurrent with offset +lagDays, never KindWindow.
func (r Resolver) Candidates(target time.Time, lagDays int) []time.Time {
	target = truncate(target)
	base := target.AddDate(0, 0, -lagDays)

	out := make([]time.Time, 0, 2*r.Window+1)
	add := func(d time.Time) {
		if d.Before(target) || (lagDays == 0 && d.Equal(target)) {
			out = append(out, d)
		}
	}
	add(base)
	for k := 1; k <= r.Window; k++ {
		add(base.AddDate(0, 0, -k))
		add(base.AddDate(0, 0, k))
	}
	return out
}

// Resolve walks the candidates, then the target day, and returns the first
// day for which available reports true.
func (r Resolver) Resolve(target time.Time, lagDays int, available func(time.Time) bool) Resolution {
	target = truncate(target)
	requested := target.AddDate(0, 0, -lagDays)

	for _, d := range r.Candidates(target, lagDays) {
		if !available(d) {
			continue
		}
		kind := KindWindow
		if d.Equal(requested) {
			kind = KindExact
		}
		return Resolution{Requested: requested, Used: d, Offset: offset(requested, d), Kind: kind}
	}

	if lagDays > 0 && available(target) {
		return Resolution{Requested: requested, Used: target, Offset: lagDays, Kind: KindCurrent}
	}
	return Resolution{Requested: requested, Kind: KindMissing}
}

// Exact resolves a zero-lag variable that may only be read on target.
func Exact(target time.Time, available func(time.Time) bool) Resolution {
	target = truncate(target)
	if available(target) {
		return Resolution{Requested: target, Used: target, Kind: KindExact}
	}
	return Resolution{Requested: target, Kind: KindMissing}
}

func truncate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func offset(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func day(t time.Time) string { return t.Format(time.DateOnly) }
