package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Publisher emits a completed assessment to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, a domain.Assessment) error
}

// Collaborators are the external capabilities an Assessor calls. Provider is
// required; Narrator, Geocoder and Publisher may be nil to disable narrative
// generation, location labelling and event publishing.
type Collaborators struct {
	Provider  domain.ClimatologyProvider
	Narrator  domain.Narrator
	Geocoder  domain.Geocoder
	Publisher Publisher
}

// Options bound the blocking collaborator calls.
type Options struct {
	ClimatologyTimeout time.Duration
	NarrativeTimeout   time.Duration
	GeocodeTimeout     time.Duration
	PublishTimeout     time.Duration
}

// Assessor orchestrates fetch → evaluate → narrate → publish for one query.
// It keeps no per-request state and is safe for concurrent use.
type Assessor struct {
	engine    *Engine
	provider  domain.ClimatologyProvider
	narrator  domain.Narrator
	geocoder  domain.Geocoder
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options
	ready     atomic.Bool
}

// New creates an Assessor around engine and its collaborators.
func New(engine *Engine, collab Collaborators, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Assessor {
	a := &Assessor{
		engine:    engine,
		provider:  collab.Provider,
		narrator:  collab.Narrator,
		geocoder:  collab.Geocoder,
		publisher: collab.Publisher,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
	a.ready.Store(true)
	metrics.ServiceReady.Set(1)
	if collab.Narrator != nil {
		metrics.NarrativeEnabled.Set(1)
	}
	return a
}

// CheckReadiness returns nil while the assessor accepts work.
func (a *Assessor) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("assessor is draining")
	}
	return nil
}

// Drain marks the assessor not ready so load balancers stop routing to it.
func (a *Assessor) Drain() {
	a.ready.Store(false)
	a.metrics.ServiceReady.Set(0)
}

// Assess runs the full pipeline for q. A zero q.Year defaults to next year.
// Invalid queries fail with domain.ErrInvalidInput before any fetch; a failed
// climatology fetch fails with domain.ErrUpstreamUnavailable. Narrative and
// publishing failures never fail the assessment.
func (a *Assessor) Assess(ctx context.Context, q domain.TargetQuery) (domain.Assessment, error) {
	start := time.Now()
	currentYear := domain.CurrentYear()
	q = q.WithDefaults(currentYear)

	if err := q.Validate(); err != nil {
		a.metrics.AssessmentsTotal.WithLabelValues("invalid").Inc()
		return domain.Assessment{}, err
	}

	q = a.label(ctx, q)

	series, err := a.fetch(ctx, q)
	if err != nil {
		return domain.Assessment{}, a.fail(ctx, q, err)
	}

	assessment, req, err := a.engine.Evaluate(series, q, currentYear)
	if err != nil {
		return domain.Assessment{}, a.fail(ctx, q, err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Assessment{}, a.fail(ctx, q, err)
	}

	narrative, cond := domain.Narrate(ctx, a.narrator, req, assessment, a.opts.NarrativeTimeout, a.logger)
	assessment.Narrative = narrative
	if cond != nil {
		assessment.Conditions = append(assessment.Conditions, *cond)
	}
	a.recordNarrative(narrative, cond)

	a.publish(ctx, assessment)
	a.record(assessment)
	a.metrics.AssessmentsTotal.WithLabelValues("success").Inc()
	a.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())

	a.logger.Info("assessment complete",
		"lat", q.Latitude,
		"lon", q.Longitude,
		"month", q.Month,
		"target_year", q.Year,
		"classification", assessment.TemporalClassification,
		"uncertainty", assessment.AccuracyMetrics.UncertaintyLevel,
		"narrative", narrative.Source,
		"duration", time.Since(start),
	)
	return assessment, nil
}

// Locate resolves q.Location to coordinates with the geocoder. It is used
// when a caller names a place instead of giving lat/lon.
func (a *Assessor) Locate(ctx context.Context, q domain.TargetQuery) (domain.TargetQuery, error) {
	ctx, cancel := withTimeout(ctx, a.opts.GeocodeTimeout)
	defer cancel()
	return domain.LocateQuery(ctx, q, a.geocoder)
}

// YearResult is one entry of a multi-year comparison.
type YearResult struct {
	Year       int
	Assessment domain.Assessment
}

// CompareYears fetches the climatology once and evaluates it for each target
// year concurrently. Results are sorted by year and carry the fallback
// narrative only.
func (a *Assessor) CompareYears(ctx context.Context, q domain.TargetQuery, years []int) ([]YearResult, error) {
	currentYear := domain.CurrentYear()
	for _, y := range years {
		q.Year = y
		if err := q.Validate(); err != nil {
			return nil, err
		}
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: no target years", domain.ErrInvalidInput)
	}

	series, err := a.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	results := make([]YearResult, 0, len(years))
	g, gCtx := errgroup.WithContext(ctx)
	for _, y := range years {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			yq := q
			yq.Year = y
			assessment, _, err := a.engine.Evaluate(series, yq, currentYear)
			if err != nil {
				return fmt.Errorf("evaluate %d: %w", y, err)
			}
			assessment.Narrative = domain.FallbackNarrative(assessment)
			mu.Lock()
			results = append(results, YearResult{Year: y, Assessment: assessment})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Year < results[j].Year })
	return results, nil
}

func (a *Assessor) label(ctx context.Context, q domain.TargetQuery) domain.TargetQuery {
	if a.geocoder == nil || q.Location != "" {
		return q
	}
	ctx, cancel := withTimeout(ctx, a.opts.GeocodeTimeout)
	defer cancel()
	return domain.LabelQuery(ctx, q, a.geocoder, a.logger)
}

func (a *Assessor) fetch(ctx context.Context, q domain.TargetQuery) (domain.ClimatologySeries, error) {
	fetchCtx, cancel := withTimeout(ctx, a.opts.ClimatologyTimeout)
	defer cancel()
	series, err := a.provider.Climatology(fetchCtx, q.Latitude, q.Longitude)
	if err != nil {
		return domain.ClimatologySeries{}, fmt.Errorf("%w: fetch climatology: %w", domain.ErrUpstreamUnavailable, err)
	}
	return series, nil
}

func (a *Assessor) fail(ctx context.Context, q domain.TargetQuery, err error) error {
	outcome := "error"
	if errors.Is(err, domain.ErrUpstreamUnavailable) || errors.Is(err, domain.ErrNoClimatology) {
		outcome = "upstream_error"
	}
	if ctx.Err() != nil {
		outcome = "cancelled"
	}
	a.metrics.AssessmentsTotal.WithLabelValues(outcome).Inc()
	a.logger.Error("assessment failed",
		"lat", q.Latitude,
		"lon", q.Longitude,
		"target_year", q.Year,
		"error", err,
	)
	return err
}

func (a *Assessor) publish(ctx context.Context, assessment domain.Assessment) {
	if a.publisher == nil {
		return
	}
	pubCtx, cancel := withTimeout(ctx, a.opts.PublishTimeout)
	defer cancel()
	if err := a.publisher.Publish(pubCtx, assessment); err != nil {
		a.metrics.AssessmentsPublished.WithLabelValues("error").Inc()
		a.logger.Warn("publish assessment failed", "error", err)
		return
	}
	a.metrics.AssessmentsPublished.WithLabelValues("success").Inc()
}

func (a *Assessor) recordNarrative(n domain.Narrative, cond *domain.Condition) {
	switch {
	case a.narrator == nil:
		a.metrics.NarrativeRequests.WithLabelValues("disabled").Inc()
	case cond != nil:
		a.metrics.NarrativeRequests.WithLabelValues("fallback").Inc()
	default:
		a.metrics.NarrativeRequests.WithLabelValues(string(n.Source)).Inc()
	}
}

func (a *Assessor) record(assessment domain.Assessment) {
	for c, p := range assessment.Probabilities {
		a.metrics.CategoryProbability.WithLabelValues(string(c)).Observe(p)
	}
	for _, cond := range assessment.Conditions {
		a.metrics.Conditions.WithLabelValues(string(cond.Kind)).Inc()
		if cond.Kind != domain.UpstreamUnavailable {
			a.logger.Warn("assessment degraded", "kind", cond.Kind, "detail", cond.Detail)
		}
	}
}

// withTimeout bounds ctx by d; a non-positive d leaves ctx unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
