// Command genfixture writes a synthetic grid directory that the service can
// read with GRID_SOURCE_DIR, together with a sample request and the report
// the service produces for it.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -out data/fixture \
//	  -date 2025-06-30 \
//	  -south -36 -north -33 -west 17 -east 21
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/adapter/griddata"
	"github.com/couchcryptid/shark-hsi-service/internal/domain"
	"github.com/couchcryptid/shark-hsi-service/internal/fixture"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/observability"
	"github.com/couchcryptid/shark-hsi-service/internal/pipeline"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for the grid fixture")
	date := flag.String("date", "2025-06-30", "target date (YYYY-MM-DD)")
	history := flag.Int("history", fixture.DefaultHistory, "days of dated grids before the target date")
	south := flag.Float64("south", -36, "southern latitude")
	north := flag.Float64("north", -33, "northern latitude")
	west := flag.Float64("west", 17, "western longitude")
	east := flag.Float64("east", 21, "eastern longitude")
	step := flag.Float64("step", 0.25, "fixture grid step in degrees")
	speciesKey := flag.String("species", "great_white", "species of the sample request")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	target, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		return fmt.Errorf("parse -date: %w", err)
	}
	bounds := domain.Bounds{South: *south, North: *north, West: *west, East: *east}
	spec := grid.Spec{South: bounds.South, North: bounds.North, West: bounds.West, East: bounds.East, Step: *step}

	gen, err := fixture.New(spec)
	if err != nil {
		return err
	}
	dir := griddata.NewDir(*out)
	n, err := gen.Write(dir, target, *history)
	if err != nil {
		return fmt.Errorf("writing grids: %w", err)
	}
	log.Printf("wrote %d grids (%s to %s) to %s", n, grid.Day(target.AddDate(0, 0, -*history)), grid.Day(target), *out)

	// Set a fixed clock for reproducible report IDs and ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(target.Add(30 * time.Hour)))
	defer domain.SetClock(nil)

	req := domain.Request{Species: *speciesKey, TargetDate: grid.Day(target), Bounds: &bounds, Resolution: *step}
	if err := writeJSON(filepath.Join(*out, "request.json"), req); err != nil {
		return fmt.Errorf("writing request: %w", err)
	}
	value, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	transformer := pipeline.NewTransformer(species.Defaults(), dir, pipeline.TransformerConfig{
		Resolution: *step,
	}, observability.NewLogger("warn", "text"), observability.NewMetrics())

	event, err := transformer.Transform(context.Background(), domain.RawEvent{Value: value})
	if err != nil {
		return fmt.Errorf("computing sample report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal(event.Value, &report); err != nil {
		return fmt.Errorf("decoding report: %w", err)
	}
	if err := writeJSON(filepath.Join(*out, "report.json"), report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	log.Printf("wrote sample report %s", report.ID)

	printStats(report)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(r domain.Report) {
	log.Printf("%s on %s: mean=%.3f max=%.3f valid=%d hotspots=%d degraded=%t",
		r.SpeciesName, r.TargetDate, r.Statistics.Mean, r.Statistics.Max,
		r.Statistics.ValidPoints, len(r.Hotspots), r.Degraded)
	for _, f := range r.Diagnostics.FallbacksApplied {
		log.Printf("  fallback: %s", f)
	}
	for _, c := range r.Diagnostics.NeutralSubstituted {
		log.Printf("  neutral: %s", c)
	}
}
