package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/observability"
)

// Client implements domain.Narrator using the Gemini generateContent API.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Gemini narrative client. The request deadline comes
// from the caller's context.
func NewClient(apiKey, model, baseURL string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		metrics:    metrics,
		logger:     logger,
	}
}

// Narrate sends the assessment payload as a prompt and parses the JSON
// narrative from the first candidate.
func (c *Client) Narrate(ctx context.Context, req domain.NarrativeRequest) (domain.Narrative, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return domain.Narrative{}, err
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.4,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return domain.Narrative{}, fmt.Errorf("encode request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return domain.Narrative{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	c.metrics.NarrativeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Narrative{}, fmt.Errorf("%w: generate content: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Narrative{}, fmt.Errorf("%w: gemini API error: status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, msg)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return domain.Narrative{}, fmt.Errorf("decode response: %w", err)
	}
	text := genResp.text()
	if text == "" {
		return domain.Narrative{}, fmt.Errorf("%w: no candidate text", domain.ErrMalformedNarrative)
	}

	n, err := ParseNarrative(text)
	if err != nil {
		c.logger.Debug("unparsable narrative", "text", truncate(text, 512))
		return domain.Narrative{}, err
	}
	return n, nil
}

// ParseNarrative decodes model output into a Narrative, tolerating markdown
// code fences around the JSON.
func ParseNarrative(text string) (domain.Narrative, error) {
	text = stripFences(text)
	var out narrativeJSON
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return domain.Narrative{}, fmt.Errorf("%w: %w", domain.ErrMalformedNarrative, err)
	}
	n := domain.Narrative{
		Summary:         strings.TrimSpace(out.Summary),
		KeyTakeaway:     strings.TrimSpace(out.KeyTakeaway),
		ClimateInsights: out.ClimateInsights,
		Recommendations: out.Recommendations,
	}
	if err := n.Validate(); err != nil {
		return domain.Narrative{}, err
	}
	return n, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Gemini API request and response types.

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// narrativeJSON is the output schema requested in the prompt.
type narrativeJSON struct {
	Summary         string                 `json:"summary"`
	KeyTakeaway     string                 `json:"key_takeaway"`
	ClimateInsights domain.ClimateInsights `json:"climate_insights"`
	Recommendations domain.Recommendations `json:"recommendations"`
}
