package nasapower

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/climate-risk-engine/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, testMetrics(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// completeResponse builds a response with every month of every parameter set
// to base plus the month index.
func completeResponse(base float64) response {
	p := make(map[string]map[string]*float64, len(parameters))
	for _, name := range parameters {
		months := make(map[string]*float64, 13)
		for i, key := range monthKeys {
			v := base + float64(i)
			months[key] = &v
		}
		ann := base
		months["ANN"] = &ann
		p[name] = months
	}
	return response{Properties: properties{Parameter: p}}
}

func TestClient_Climatology_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "T2M_MAX,T2M_MIN,PRECTOTCORR,WS2M,RH2M,T2MDEW", q.Get("parameters"))
		assert.Equal(t, "AG", q.Get("community"))
		assert.Equal(t, "40.7128", q.Get("latitude"))
		assert.Equal(t, "-74.0060", q.Get("longitude"))
		assert.Equal(t, "JSON", q.Get("format"))

		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(completeResponse(10)))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	series, err := c.Climatology(context.Background(), 40.7128, -74.006)
	require.NoError(t, err)

	assert.Equal(t, 12, series.ValidMonths())
	jul := series.Month(7)
	require.NotNil(t, jul)
	assert.Equal(t, 16.0, jul.TemperatureMax)
	assert.Equal(t, 16.0, jul.DewPoint)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.ClimatologyRequests.WithLabelValues("success")), 0)
}

func TestClient_Climatology_PartialResponse(t *testing.T) {
	body, err := os.ReadFile("testdata/climatology_partial.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	series, err := c.Climatology(context.Background(), 40.7128, -74.006)
	require.NoError(t, err)

	// February carries the -999 fill value and November lacks a dew point.
	assert.Equal(t, []int{2, 11}, series.MissingMonths())
	assert.Nil(t, series.Month(2))
	assert.Nil(t, series.Month(11))

	jul := series.Month(7)
	require.NotNil(t, jul)
	assert.Equal(t, 29.0, jul.TemperatureMax)
	assert.Equal(t, 21.0, jul.TemperatureMin)
	assert.Equal(t, 3.8, jul.Precipitation)
	assert.Equal(t, 3.8, jul.WindSpeed)
	assert.Equal(t, 69.0, jul.RelativeHumidity)
	assert.Equal(t, 18.0, jul.DewPoint)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.ClimatologyRequests.WithLabelValues("partial")), 0)
}

func TestDecodeSeries_NullValue(t *testing.T) {
	resp := completeResponse(5)
	resp.Properties.Parameter[paramWind]["MAR"] = nil

	series, err := DecodeSeries(strings.NewReader(mustJSON(t, resp)))
	require.NoError(t, err)
	assert.Equal(t, []int{3}, series.MissingMonths())
}

func TestClient_Climatology_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"messages":["latitude out of range"]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Climatology(context.Background(), 95, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Contains(t, err.Error(), "latitude out of range")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.ClimatologyRequests.WithLabelValues("error")), 0)
}

func TestClient_Climatology_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"properties":`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Climatology(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.ClimatologyRequests.WithLabelValues("error")), 0)
}

func TestClient_Climatology_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := testClient(srv.URL)
	_, err := c.Climatology(ctx, 0, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecodeSeries_EmptyParameters(t *testing.T) {
	series, err := DecodeSeries(strings.NewReader(`{"properties":{"parameter":{}}}`))
	require.NoError(t, err)
	assert.Zero(t, series.ValidMonths())
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
