package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
)

// ComponentStats summarise the four sub-index grids.
type ComponentStats struct {
	Physicochemical engine.Stats `json:"physicochemical"`
	Prey            engine.Stats `json:"prey"`
	Topographic     engine.Stats `json:"topographic"`
	Anthropogenic   engine.Stats `json:"anthropogenic"`
}

// Report is the published result of one request.
type Report struct {
	ID          string             `json:"id"`
	Species     string             `json:"species"`
	SpeciesName string             `json:"species_name"`
	TargetDate  string             `json:"target_date"`
	Grid        grid.Spec          `json:"grid"`
	Threshold   float64            `json:"threshold"`
	Statistics  engine.Stats       `json:"statistics"`
	Components  ComponentStats     `json:"components"`
	Diagnostics engine.Diagnostics `json:"diagnostics"`
	Degraded    bool               `json:"degraded"`
	Hotspots    []engine.Hotspot   `json:"hotspots"`
	ProcessedAt time.Time          `json:"processed_at"`
}

// NewReport summarises res for publication. A positive hotspotLimit caps the
// number of hotspot cells.
func NewReport(req Request, spec grid.Spec, p *species.Profile, res *engine.Result, hotspotLimit int) Report {
	threshold := DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	hotspots := engine.Hotspots(res.HSI, threshold, hotspotLimit)
	if hotspots == nil {
		hotspots = []engine.Hotspot{}
	}

	return Report{
		ID:          generateID(p.Key(), res.Diagnostics.Target, spec),
		Species:     p.Key(),
		SpeciesName: p.Name(),
		TargetDate:  res.Diagnostics.Target,
		Grid:        spec,
		Threshold:   threshold,
		Statistics:  engine.Summarize(res.HSI),
		Components: ComponentStats{
			Physicochemical: engine.Summarize(res.Components.Phys),
			Prey:            engine.Summarize(res.Components.Prey),
			Topographic:     engine.Summarize(res.Components.Topo),
			Anthropogenic:   engine.Summarize(res.Components.Anthro),
		},
		Diagnostics: res.Diagnostics,
		Degraded:    res.Diagnostics.Degraded(),
		Hotspots:    hotspots,
		ProcessedAt: clock.Now().UTC(),
	}
}

// HeaderDegraded marks reports computed with fallbacks or neutral
// substitutions. Its value is "true" or "false".
const HeaderDegraded = "degraded"

// SerializeReport encodes r for the sink topic, keyed by report ID.
func SerializeReport(r Report) (OutputEvent, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize report: %w", err)
	}
	return OutputEvent{
		Key:   []byte(r.ID),
		Value: data,
		Headers: map[string]string{
			"species":      r.Species,
			"processed_at": r.ProcessedAt.Format(time.RFC3339),
			HeaderDegraded: strconv.FormatBool(r.Degraded),
		},
	}, nil
}

// generateID produces a deterministic ID from the inputs that fix a
// report's content.
func generateID(speciesKey, day string, spec grid.Spec) string {
	input := fmt.Sprintf("%s|%s|%.4f|%.4f|%.4f|%.4f|%g", speciesKey, day, spec.South, spec.North, spec.West, spec.East, spec.Step)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if speciesKey == "" {
		return short
	}
	return speciesKey + "-" + short
}
