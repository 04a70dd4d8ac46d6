package pipeline

import (
	"fmt"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

// Engine runs the ordered estimation stages. It holds only read-only
// calibration and is safe for concurrent use.
type Engine struct {
	calibration domain.Calibration
	estimators  []domain.Estimator
}

// NewEngine creates an Engine with the production estimators bound to cal.
func NewEngine(cal domain.Calibration) *Engine {
	return &Engine{
		calibration: cal,
		estimators:  domain.NewEstimators(cal),
	}
}

// Calibration returns the engine's calibration.
func (e *Engine) Calibration() domain.Calibration {
	return e.calibration
}

// Evaluate chains statistics, temporal context, estimators, ensemble, scoring
// and assembly for one query. q must already be validated and carry a year.
// The returned assessment has no narrative; the request is the payload for
// the narrative collaborator.
func (e *Engine) Evaluate(series domain.ClimatologySeries, q domain.TargetQuery, currentYear int) (domain.Assessment, domain.NarrativeRequest, error) {
	raw, err := domain.ComputeStatistics(series, q.Month)
	if err != nil {
		return domain.Assessment{}, domain.NarrativeRequest{}, fmt.Errorf("compute statistics: %w", err)
	}

	tc := domain.ResolveTemporalContext(q.Year, currentYear)
	sc := tc.Adjust(raw)

	ensembles := make([]domain.EnsembleResult, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		results := make([]domain.EstimatorResult, 0, len(e.estimators))
		for _, est := range e.estimators {
			results = append(results, est.Estimate(c, sc, tc))
		}
		ensembles = append(ensembles, domain.CombineEnsemble(c, results, e.calibration, tc))
	}

	metrics := domain.ScoreAccuracy(sc, ensembles)
	a := domain.AssembleAssessment(q, sc, tc, ensembles, metrics, e.calibration)
	return a, domain.BuildNarrativeRequest(series, raw, ensembles, a), nil
}
