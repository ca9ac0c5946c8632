package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mapping-tomorrow/riskmap-cli/internal/hazard"
	"github.com/mapping-tomorrow/riskmap-cli/internal/metrics"
	"github.com/mapping-tomorrow/riskmap-cli/internal/model"
	"github.com/mapping-tomorrow/riskmap-cli/internal/poi"
)

// PointsFetcher abstracts the POI fetcher for the pipeline.
type PointsFetcher interface {
	FetchPoints(ctx context.Context, place string, filter model.TagFilter) poi.Result
}

// Result is one complete analysis run: the three read-only collections the
// presentation layer consumes, plus run metadata.
type Result struct {
	RunID       string                     `json:"run_id"`
	Place       string                     `json:"place"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Points      []model.PointFeature       `json:"points"`
	Zones       []model.HazardZone         `json:"zones"`
	Exposures   []model.RiskExposureRecord `json:"exposures"`
	Warnings    []string                   `json:"warnings,omitempty"`
	Elapsed     time.Duration              `json:"elapsed"`
}

// ExposedPoints returns the number of distinct points with at least one
// exposure record. A point inside two overlapping zones counts once.
func (r *Result) ExposedPoints() int {
	exposed := make(map[int64]struct{}, len(r.Exposures))
	for _, e := range r.Exposures {
		exposed[e.Feature.ID] = struct{}{}
	}
	return len(exposed)
}

// ExposureShare returns the fraction of fetched points that fall inside at
// least one zone. Zero when no points were fetched.
func (r *Result) ExposureShare() float64 {
	if len(r.Points) == 0 {
		return 0
	}
	return float64(r.ExposedPoints()) / float64(len(r.Points))
}

// Pipeline runs the fetch → zone-build → intersect sequence.
type Pipeline struct {
	fetcher PointsFetcher
	place   string
	filter  model.TagFilter
	defs    []hazard.Definition
}

// New creates a Pipeline over the given fetcher and hazard definitions.
func New(fetcher PointsFetcher, place string, filter model.TagFilter, defs []hazard.Definition) *Pipeline {
	return &Pipeline{fetcher: fetcher, place: place, filter: filter, defs: defs}
}

// Run executes one analysis. The point fetch and the zone build have no data
// dependency on each other and run concurrently; the intersection join waits
// for both. A fetch failure degrades to an empty point set (reported via
// Warnings); a zone build failure is a configuration defect and aborts.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	var fetched poi.Result
	var zones []model.HazardZone

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetched = p.fetcher.FetchPoints(gctx, p.place, p.filter)
		return nil
	})
	g.Go(func() error {
		var err error
		zones, err = hazard.Build(p.defs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "analysis: build hazard zones")
	}

	exposures := IntersectingPoints(fetched.Features, zones)

	elapsed := time.Since(started)
	metrics.AnalysisRuns.Inc()
	metrics.RunDuration.Observe(elapsed.Seconds())

	result := &Result{
		RunID:       uuid.NewString(),
		Place:       p.place,
		GeneratedAt: started.UTC(),
		Points:      fetched.Features,
		Zones:       zones,
		Exposures:   exposures,
		Warnings:    fetched.Warnings,
		Elapsed:     elapsed,
	}

	zap.L().Info("analysis: run complete",
		zap.String("run_id", result.RunID),
		zap.String("place", p.place),
		zap.Int("points", len(result.Points)),
		zap.Int("zones", len(result.Zones)),
		zap.Int("exposures", len(result.Exposures)),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}
