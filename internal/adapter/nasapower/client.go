package nasapower

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/observability"
)

// fillValue is the NASA POWER sentinel for a value that could not be computed.
const fillValue = -999

// Parameters requested from the climatology endpoint, in request order.
const (
	paramTempMax   = "T2M_MAX"
	paramTempMin   = "T2M_MIN"
	paramPrecip    = "PRECTOTCORR"
	paramWind      = "WS2M"
	paramHumidity  = "RH2M"
	paramDewPoint  = "T2MDEW"
	communityAgro  = "AG"
	responseFormat = "JSON"
)

var parameters = []string{paramTempMax, paramTempMin, paramPrecip, paramWind, paramHumidity, paramDewPoint}

var monthKeys = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// Client implements domain.ClimatologyProvider using the NASA POWER
// climatology point API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a NASA POWER client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Climatology fetches the 12-month climatology for a coordinate. Months with
// any parameter absent or set to the fill value are returned as missing.
func (c *Client) Climatology(ctx context.Context, lat, lon float64) (domain.ClimatologySeries, error) {
	params := url.Values{
		"parameters": {strings.Join(parameters, ",")},
		"community":  {communityAgro},
		"latitude":   {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":  {strconv.FormatFloat(lon, 'f', 4, 64)},
		"format":     {responseFormat},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.ClimatologySeries{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ClimatologyAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ClimatologyRequests.WithLabelValues("error").Inc()
		return domain.ClimatologySeries{}, fmt.Errorf("climatology request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ClimatologyRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.ClimatologySeries{}, fmt.Errorf("nasa power API error: status %d: %s", resp.StatusCode, body)
	}

	series, err := DecodeSeries(resp.Body)
	if err != nil {
		c.metrics.ClimatologyRequests.WithLabelValues("error").Inc()
		return domain.ClimatologySeries{}, err
	}
	if missing := series.MissingMonths(); len(missing) > 0 {
		c.metrics.ClimatologyRequests.WithLabelValues("partial").Inc()
		c.logger.Warn("climatology incomplete",
			"lat", lat,
			"lon", lon,
			"missing_months", missing,
		)
	} else {
		c.metrics.ClimatologyRequests.WithLabelValues("success").Inc()
	}
	return series, nil
}

// DecodeSeries reads a NASA POWER climatology response body into a series.
func DecodeSeries(r io.Reader) (domain.ClimatologySeries, error) {
	var powerResp response
	if err := json.NewDecoder(r).Decode(&powerResp); err != nil {
		return domain.ClimatologySeries{}, fmt.Errorf("decode response: %w", err)
	}
	return toSeries(powerResp.Properties.Parameter), nil
}

// toSeries maps the per-parameter month tables into monthly records.
func toSeries(p map[string]map[string]*float64) domain.ClimatologySeries {
	var series domain.ClimatologySeries
	for i, key := range monthKeys {
		vals := make(map[string]float64, len(parameters))
		complete := true
		for _, name := range parameters {
			v := p[name][key]
			if v == nil || *v == fillValue {
				complete = false
				break
			}
			vals[name] = *v
		}
		if !complete {
			continue
		}
		series.Months[i] = &domain.MonthlyRecord{
			TemperatureMax:   vals[paramTempMax],
			TemperatureMin:   vals[paramTempMin],
			Precipitation:    vals[paramPrecip],
			WindSpeed:        vals[paramWind],
			RelativeHumidity: vals[paramHumidity],
			DewPoint:         vals[paramDewPoint],
		}
	}
	return series
}

// NASA POWER API response types.

type response struct {
	Properties properties `json:"properties"`
}

type properties struct {
	// Parameter maps parameter name → month key (JAN..DEC, ANN) → value.
	// Null marks a value the provider could not compute.
	Parameter map[string]map[string]*float64 `json:"parameter"`
}
