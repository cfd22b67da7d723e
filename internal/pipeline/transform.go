package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/domain"
	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/observability"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
)

// TransformerConfig holds the per-service settings of HSITransformer.
type TransformerConfig struct {
	// Resolution is the grid step in degrees for requests that set none.
	Resolution float64
	// HotspotLimit caps the hotspots per report; zero means no cap.
	HotspotLimit int
	// EngineOptions are applied to every per-request engine.
	EngineOptions []engine.Option
}

// HSITransformer implements Transformer: it parses a request, gathers its
// grids, runs the engine and serializes the report.
type HSITransformer struct {
	registry *species.Registry
	gatherer *inputGatherer
	cfg      TransformerConfig
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates an HSITransformer reading grids from source.
func NewTransformer(registry *species.Registry, source domain.GridSource, cfg TransformerConfig, logger *slog.Logger, metrics *observability.Metrics) *HSITransformer {
	return &HSITransformer{
		registry: registry,
		gatherer: &inputGatherer{source: source, logger: logger, metrics: metrics},
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

func (t *HSITransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	profile, err := t.registry.Get(req.Species)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	spec, err := req.Grid(t.cfg.Resolution)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	eng, err := engine.New(spec, t.cfg.EngineOptions...)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	in, err := t.gatherer.gather(ctx, eng, profile, req.Target)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("gather inputs: %w", err)
	}

	start := time.Now()
	res, err := eng.Compute(profile, req.Target, in)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	t.metrics.ComputeDuration.Observe(time.Since(start).Seconds())
	t.record(res.Diagnostics)

	report := domain.NewReport(req, spec, profile, res, t.cfg.HotspotLimit)
	t.logger.Debug("report computed",
		"id", report.ID,
		"species", report.Species,
		"target_date", report.TargetDate,
		"valid_points", report.Statistics.ValidPoints,
		"degraded", report.Degraded,
	)
	return domain.SerializeReport(report)
}

func (t *HSITransformer) record(d engine.Diagnostics) {
	if d.Degraded() {
		t.metrics.ReportsDegraded.Inc()
	}
	for _, f := range d.FallbacksApplied {
		variable, _, _ := strings.Cut(f, ":")
		t.metrics.Fallbacks.WithLabelValues(variable).Inc()
	}
	for _, c := range d.NeutralSubstituted {
		t.metrics.NeutralSubstitutions.WithLabelValues(c).Inc()
	}
}
