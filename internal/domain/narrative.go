package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// NarrativeSource records which narrator produced the text.
type NarrativeSource string

const (
	NarrativeGenerated NarrativeSource = "generated"
	NarrativeFallback  NarrativeSource = "fallback"
)

// ClimateInsights is the descriptive part of a narrative.
type ClimateInsights struct {
	SeasonalPattern   string   `json:"seasonal_pattern"`
	AnomaliesDetected []string `json:"anomalies_detected"`
	HistoricalContext string   `json:"historical_context"`
	TrendIndicators   string   `json:"trend_indicators"`
}

// Recommendations is the actionable part of a narrative.
type Recommendations struct {
	Favorable            []string `json:"favorable"`
	Challenging          []string `json:"challenging"`
	PreparationChecklist []string `json:"preparation_checklist"`
	RiskMitigation       []string `json:"risk_mitigation"`
}

// Narrative is the human-readable interpretation of an assessment.
type Narrative struct {
	Summary         string          `json:"summary"`
	KeyTakeaway     string          `json:"key_takeaway"`
	ClimateInsights ClimateInsights `json:"climate_insights"`
	Recommendations Recommendations `json:"recommendations"`
	Source          NarrativeSource `json:"source"`
}

// ErrMalformedNarrative is returned when a narrator's output lacks required fields.
var ErrMalformedNarrative = errors.New("malformed narrative")

// Validate checks that the required narrative fields are present.
func (n Narrative) Validate() error {
	if strings.TrimSpace(n.Summary) == "" {
		return fmt.Errorf("%w: empty summary", ErrMalformedNarrative)
	}
	if strings.TrimSpace(n.KeyTakeaway) == "" {
		return fmt.Errorf("%w: empty key takeaway", ErrMalformedNarrative)
	}
	return nil
}

// NarrativeRequest is the payload sent to a narrative collaborator.
type NarrativeRequest struct {
	Query         TargetQuery                `json:"query"`
	Climatology   ClimatologySeries          `json:"climatology"`
	Statistics    map[Variable]VariableStats `json:"statistics"`
	Temporal      TemporalContext            `json:"temporal"`
	Ensembles     []EnsembleResult           `json:"ensembles"`
	Probabilities map[RiskCategory]float64   `json:"probabilities"`
	Accuracy      AccuracyMetrics            `json:"accuracy"`
}

// BuildNarrativeRequest assembles the collaborator payload from the stage outputs.
func BuildNarrativeRequest(series ClimatologySeries, sc StatisticalContext, ensembles []EnsembleResult, a Assessment) NarrativeRequest {
	return NarrativeRequest{
		Query:         a.Query,
		Climatology:   series,
		Statistics:    sc.Variables,
		Temporal:      a.Temporal,
		Ensembles:     ensembles,
		Probabilities: a.Probabilities,
		Accuracy:      a.AccuracyMetrics,
	}
}

// Narrator turns an assessment payload into narrative text.
type Narrator interface {
	Narrate(ctx context.Context, req NarrativeRequest) (Narrative, error)
}

// Narrate asks narrator for a narrative, bounded by timeout. If narrator is
// nil, fails, times out or returns a malformed narrative, the deterministic
// fallback is returned together with an UpstreamUnavailable condition.
func Narrate(ctx context.Context, narrator Narrator, req NarrativeRequest, a Assessment, timeout time.Duration, logger *slog.Logger) (Narrative, *Condition) {
	if narrator == nil {
		return FallbackNarrative(a), nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	n, err := narrator.Narrate(ctx, req)
	if err == nil {
		err = n.Validate()
	}
	if err != nil {
		logger.Warn("narrative generation failed, using fallback",
			"lat", a.Query.Latitude,
			"lon", a.Query.Longitude,
			"error", err,
		)
		return FallbackNarrative(a), &Condition{
			Kind:   UpstreamUnavailable,
			Detail: fmt.Sprintf("narrative generation: %v", err),
		}
	}
	n.Source = NarrativeGenerated
	return n, nil
}

const (
	mildThreshold    = 30
	concernThreshold = 40
	anomalyZScore    = 1.5
)

// FallbackNarrative builds a template narrative from the assessment alone.
// It is deterministic and never fails.
func FallbackNarrative(a Assessment) Narrative {
	date := fmt.Sprintf("%s %d, %d", time.Month(a.Query.Month), a.Query.Day, a.Query.Year)
	place := a.Query.Location
	if place == "" {
		place = fmt.Sprintf("%.4f, %.4f", a.Query.Latitude, a.Query.Longitude)
	}

	var concerns []string
	for _, c := range Categories {
		if a.Probabilities[c] > concernThreshold {
			concerns = append(concerns, fmt.Sprintf("%s (%.0f%%)", c.Label(), a.Probabilities[c]))
		}
	}
	top, topP := a.HighestRisk()

	var summary string
	switch {
	case topP < mildThreshold:
		summary = fmt.Sprintf("Climatology for %s on %s points to mild and favorable conditions; no risk category exceeds %d%%.", place, date, mildThreshold)
	case len(concerns) > 0:
		summary = fmt.Sprintf("Climatology for %s on %s flags elevated risk of %s.", place, date, strings.Join(concerns, ", "))
	default:
		summary = fmt.Sprintf("Climatology for %s on %s shows moderate risk; %s is the leading category at %.0f%%.", place, date, top.Label(), topP)
	}
	summary += fmt.Sprintf(" Confidence is %.0f%% with %s uncertainty (%s).",
		a.AccuracyMetrics.OverallConfidence, a.AccuracyMetrics.UncertaintyLevel, a.TemporalClassification.Label())

	return Narrative{
		Summary:         summary,
		KeyTakeaway:     fmt.Sprintf("Highest risk: %s at %.0f%% (%s).", top.Label(), topP, ClassifyProbability(topP)),
		ClimateInsights: fallbackInsights(a),
		Recommendations: fallbackRecommendations(a),
		Source:          NarrativeFallback,
	}
}

func fallbackInsights(a Assessment) ClimateInsights {
	ins := ClimateInsights{
		SeasonalPattern:   seasonalPattern(a),
		HistoricalContext: fmt.Sprintf("Based on the 12-month climatology for month %d; %s.", a.Query.Month, a.TemporalClassification.Label()),
		TrendIndicators:   "No warming adjustment applied.",
		AnomaliesDetected: []string{},
	}
	if a.Temporal.ClimateTrendAdjustment > 0 {
		ins.TrendIndicators = fmt.Sprintf("Temperatures adjusted by +%.2f°C for %d relative to 2020.", a.Temporal.ClimateTrendAdjustment, a.Temporal.TargetYear)
	}
	for _, c := range Categories {
		rec, ok := a.DetailedAnalysis[c]
		if !ok || math.Abs(rec.StdDeviations) < anomalyZScore {
			continue
		}
		dir := "above"
		if rec.StdDeviations < 0 {
			dir = "below"
		}
		ins.AnomaliesDetected = append(ins.AnomaliesDetected,
			fmt.Sprintf("%s source value %.1fσ %s the annual mean", c.Label(), math.Abs(rec.StdDeviations), dir))
	}
	return ins
}

func seasonalPattern(a Assessment) string {
	rec, ok := a.DetailedAnalysis[ExtremeHeat]
	if !ok {
		return "Seasonal pattern unavailable."
	}
	switch {
	case rec.PercentileRank >= 75:
		return "Target month falls in the warm season of the annual cycle."
	case rec.PercentileRank <= 25:
		return "Target month falls in the cold season of the annual cycle."
	default:
		return "Target month falls in a transitional season."
	}
}

var categoryAdvice = map[RiskCategory]struct {
	activity   string
	preparing  string
	mitigation string
}{
	ExtremeHeat:        {"midday outdoor exercise", "carry water and plan shade breaks", "schedule strenuous activity for early morning"},
	ExtremeCold:        {"extended outdoor exposure", "pack insulated layers", "limit time outdoors after dark"},
	HeavyPrecipitation: {"hiking and field events", "bring waterproof gear", "check drainage and flood advisories"},
	StrongWinds:        {"boating and aerial activities", "secure loose equipment", "avoid exposed ridgelines"},
	HeatDiscomfort:     {"sustained physical labor", "plan cooling breaks", "monitor for heat stress symptoms"},
}

func fallbackRecommendations(a Assessment) Recommendations {
	rec := Recommendations{
		Favorable:            []string{},
		Challenging:          []string{},
		PreparationChecklist: []string{"check the short-range forecast closer to the date"},
		RiskMitigation:       []string{},
	}
	for _, c := range Categories {
		adv := categoryAdvice[c]
		p := a.Probabilities[c]
		if p > concernThreshold {
			rec.Challenging = append(rec.Challenging, adv.activity)
			rec.PreparationChecklist = append(rec.PreparationChecklist, adv.preparing)
			rec.RiskMitigation = append(rec.RiskMitigation, adv.mitigation)
		} else if p < mildThreshold {
			rec.Favorable = append(rec.Favorable, adv.activity)
		}
	}
	return rec
}
