package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

const outputSchema = `{
  "summary": "<3-4 sentence professional summary>",
  "key_takeaway": "<single most important insight>",
  "climate_insights": {
    "seasonal_pattern": "<description>",
    "anomalies_detected": ["<anomaly>"],
    "historical_context": "<context>",
    "trend_indicators": "<trends>"
  },
  "recommendations": {
    "favorable": ["<activity>"],
    "challenging": ["<activity>"],
    "preparation_checklist": ["<item>"],
    "risk_mitigation": ["<strategy>"]
  }
}`

// promptPayload is the structured context embedded in the prompt.
type promptPayload struct {
	Climatology   []monthRow                               `json:"monthly_climatology"`
	MissingMonths []int                                    `json:"missing_months,omitempty"`
	Statistics    map[domain.Variable]domain.VariableStats `json:"target_month_statistics"`
	Temporal      domain.TemporalContext                   `json:"temporal_context"`
	Ensembles     []ensembleRow                            `json:"ensemble_results"`
	Accuracy      domain.AccuracyMetrics                   `json:"accuracy_metrics"`
}

type monthRow struct {
	Month string `json:"month"`
	domain.MonthlyRecord
}

type ensembleRow struct {
	Category    domain.RiskCategory  `json:"category"`
	Probability float64              `json:"probability"`
	Range       domain.Range         `json:"uncertainty_range"`
	Dominant    domain.EstimatorName `json:"dominant_estimator"`
}

// BuildPrompt renders the narrative request as a prompt. The probabilities
// are computed already; the model is asked only to interpret them.
func BuildPrompt(req domain.NarrativeRequest) (string, error) {
	payload := promptPayload{
		MissingMonths: req.Climatology.MissingMonths(),
		Statistics:    req.Statistics,
		Temporal:      req.Temporal,
		Accuracy:      req.Accuracy,
	}
	for i, m := range req.Climatology.Months {
		if m == nil {
			continue
		}
		payload.Climatology = append(payload.Climatology, monthRow{Month: time.Month(i + 1).String(), MonthlyRecord: *m})
	}
	for _, e := range req.Ensembles {
		payload.Ensembles = append(payload.Ensembles, ensembleRow{
			Category:    e.Category,
			Probability: req.Probabilities[e.Category],
			Range:       e.UncertaintyRange,
			Dominant:    e.Dominant,
		})
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode prompt payload: %w", err)
	}

	location := req.Query.Location
	if location == "" {
		location = fmt.Sprintf("latitude %.4f, longitude %.4f", req.Query.Latitude, req.Query.Longitude)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a climatologist explaining weather risk for %s on %s %d, %d.\n",
		location, time.Month(req.Query.Month), req.Query.Day, req.Query.Year)
	fmt.Fprintf(&b, "The target year is classified as %s.\n\n", req.Temporal.Classification.Label())
	b.WriteString("The risk probabilities below were computed from multi-decade NASA POWER monthly climatology. ")
	b.WriteString("Do not recompute or change them; interpret them for a general audience.\n\n")
	b.WriteString("DATA:\n")
	b.Write(data)
	b.WriteString("\n\nOUTPUT FORMAT (valid JSON only, no markdown):\n")
	b.WriteString(outputSchema)
	b.WriteString("\n")
	return b.String(), nil
}
