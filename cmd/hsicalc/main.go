// Command hsicalc computes one HSI report from a local grid directory and
// prints it as JSON, without Kafka.
//
// Usage:
//
//	go run ./cmd/hsicalc \
//	  -dir data/fixture \
//	  -species great_white \
//	  -date 2025-06-30 \
//	  -south -36 -north -33 -west 17 -east 21
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/adapter/griddata"
	"github.com/couchcryptid/shark-hsi-service/internal/domain"
	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/lag"
	"github.com/couchcryptid/shark-hsi-service/internal/observability"
	"github.com/couchcryptid/shark-hsi-service/internal/pipeline"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
)

type options struct {
	dir         string
	speciesFile string
	request     domain.Request
	global      bool
	resolution  float64
	window      int
	hotspots    int
	timeout     time.Duration
	logLevel    string
	metrics     *observability.Metrics
}

func main() {
	var o options
	var bounds domain.Bounds
	var threshold float64
	flag.StringVar(&o.dir, "dir", "", "grid directory ({variable}/{YYYY-MM-DD}.json)")
	flag.StringVar(&o.speciesFile, "species-file", "", "species YAML file (default: built-in profiles)")
	flag.StringVar(&o.request.Species, "species", "great_white", "species key")
	flag.StringVar(&o.request.TargetDate, "date", "", "target date (YYYY-MM-DD)")
	flag.Float64Var(&bounds.South, "south", -90, "southern latitude")
	flag.Float64Var(&bounds.North, "north", 90, "northern latitude")
	flag.Float64Var(&bounds.West, "west", -180, "western longitude")
	flag.Float64Var(&bounds.East, "east", 179.5, "eastern longitude")
	flag.BoolVar(&o.global, "global", false, "compute on the global grid, ignoring bounds")
	flag.Float64Var(&o.resolution, "resolution", 0.5, "grid step in degrees")
	flag.Float64Var(&threshold, "threshold", domain.DefaultThreshold, "hotspot threshold")
	flag.IntVar(&o.window, "window", lag.DefaultWindow, "lag fallback window in days")
	flag.IntVar(&o.hotspots, "hotspots", 25, "maximum hotspots in the report (0 = all)")
	flag.DurationVar(&o.timeout, "timeout", time.Minute, "overall deadline")
	flag.StringVar(&o.logLevel, "log-level", "warn", "log level")
	flag.Parse()

	if o.dir == "" || o.request.TargetDate == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !o.global {
		o.request.Bounds = &bounds
	}
	o.request.Threshold = &threshold
	o.metrics = observability.NewMetrics()

	if err := run(o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "hsicalc: %v\n", err)
		os.Exit(1)
	}
}

func run(o options, w io.Writer) error {
	registry := species.Defaults()
	if o.speciesFile != "" {
		var err error
		if registry, err = species.LoadFile(o.speciesFile); err != nil {
			return err
		}
	}

	// stdout carries the report.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: observability.ParseLevel(o.logLevel)}))
	transformer := pipeline.NewTransformer(registry, griddata.NewDir(o.dir), pipeline.TransformerConfig{
		Resolution:    o.resolution,
		HotspotLimit:  o.hotspots,
		EngineOptions: []engine.Option{engine.WithWindow(o.window)},
	}, logger, o.metrics)

	value, err := json.Marshal(o.request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	event, err := transformer.Transform(ctx, domain.RawEvent{Value: value, Timestamp: time.Now()})
	if err != nil {
		return err
	}

	var report domain.Report
	if err := json.Unmarshal(event.Value, &report); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
