package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/grid"
)

// DefaultThreshold is the hotspot threshold used when a request sets none.
const DefaultThreshold = 0.5

// ErrInvalidRequest is returned for requests that cannot be computed.
var ErrInvalidRequest = errors.New("invalid request")

// Bounds is a latitude/longitude box in degrees, both ends inclusive.
type Bounds struct {
	South float64 `json:"south"`
	North float64 `json:"north"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
}

// Request asks for the HSI of one species on one day.
type Request struct {
	Species    string   `json:"species"`
	TargetDate string   `json:"target_date,omitempty"`
	Bounds     *Bounds  `json:"bounds,omitempty"`
	Resolution float64  `json:"resolution,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`

	// Target is the parsed target day at UTC midnight.
	Target time.Time `json:"-"`
}

// ParseRequest decodes and validates the request carried by raw. A missing
// target date falls back to the UTC day of the message timestamp.
func ParseRequest(raw RawEvent) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	req.Species = strings.TrimSpace(req.Species)
	if req.Species == "" {
		return Request{}, fmt.Errorf("%w: species is required", ErrInvalidRequest)
	}

	switch {
	case req.TargetDate != "":
		t, err := time.Parse(time.DateOnly, req.TargetDate)
		if err != nil {
			return Request{}, fmt.Errorf("%w: target_date %q: want YYYY-MM-DD", ErrInvalidRequest, req.TargetDate)
		}
		req.Target = t
	case !raw.Timestamp.IsZero():
		ts := raw.Timestamp.UTC()
		req.Target = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		req.TargetDate = req.Target.Format(time.DateOnly)
	default:
		return Request{}, fmt.Errorf("%w: target_date is required", ErrInvalidRequest)
	}

	if req.Threshold == nil {
		t := DefaultThreshold
		req.Threshold = &t
	}
	if th := *req.Threshold; th < 0 || th > 1 {
		return Request{}, fmt.Errorf("%w: threshold %g outside [0, 1]", ErrInvalidRequest, th)
	}
	if req.Resolution < 0 {
		return Request{}, fmt.Errorf("%w: resolution %g must be positive", ErrInvalidRequest, req.Resolution)
	}
	return req, nil
}

// Grid returns the canonical grid of the request. defaultStep applies when
// the request sets no resolution; missing bounds mean the whole globe.
func (r Request) Grid(defaultStep float64) (grid.Spec, error) {
	step := r.Resolution
	if step == 0 {
		step = defaultStep
	}
	spec := grid.GlobalSpec(step)
	if r.Bounds != nil {
		spec = grid.Spec{South: r.Bounds.South, North: r.Bounds.North, West: r.Bounds.West, East: r.Bounds.East, Step: step}
	}
	if err := spec.Validate(); err != nil {
		return grid.Spec{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return spec, nil
}
