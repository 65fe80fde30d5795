package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revforecast/internal/config"
	"revforecast/internal/errors"
	"revforecast/internal/exporter"
	"revforecast/internal/shared/testutil"
	api "revforecast/pkg/contracts/api/v1"
	"revforecast/pkg/contracts/events"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Telemetry.MetricExporter = "none"
	cfg.Security.RateLimit.Enabled = false
	cfg.Forecast.Horizon = 7
	cfg.Forecast.PlotWindow = 20
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, days int) *Application {
	t.Helper()
	if days > 0 {
		raw := filepath.Join(cfg.Paths.BaseDir, cfg.Paths.RawDir)
		require.NoError(t, os.MkdirAll(raw, 0755))
		testutil.WriteTablesCSV(t, raw, testutil.SyntheticTables(days))
	}

	logger, _ := testutil.NewTestLogger(t)
	a, err := NewApplicationWithConfig(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(a.Hub.Stop)
	return a
}

func serve(a *Application, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, r)
	return w
}

func TestNewApplicationWithConfig(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg, 0)

	assert.Equal(t, ":8080", a.Server.Addr)
	assert.NotNil(t, a.Services.Forecast)
	assert.NotNil(t, a.Services.Reports)
	assert.NotNil(t, a.Services.Health)
	assert.DirExists(t, a.Paths.ReportsDir)
	assert.DirExists(t, a.Paths.LogsDir)
}

func TestRouter_Health(t *testing.T) {
	a := newTestApp(t, testConfig(t), 0)

	w := serve(a, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// No raw directory yet.
	w = serve(a, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, os.MkdirAll(a.Paths.RawDir, 0755))
	w = serve(a, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Forecast(t *testing.T) {
	a := newTestApp(t, testConfig(t), 60)

	w := serve(a, http.MethodPost, "/api/v1/forecast", `{"compare_models": ["naive"], "export": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	var resp api.ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "holt_winters", resp.Model)
	assert.Equal(t, 7, resp.TestSize)
	assert.Equal(t, 60, resp.Days)
	require.Len(t, resp.Comparisons, 1)
	assert.Contains(t, resp.ReportFiles, exporter.FileForecast)

	w = serve(a, http.MethodGet, "/api/v1/reports", "")
	require.Equal(t, http.StatusOK, w.Code)
	var reports api.ReportsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	require.Len(t, reports.Runs, 1)
	assert.Equal(t, resp.RunID, reports.Runs[0].RunID)

	w = serve(a, http.MethodGet, "/api/v1/reports/"+resp.RunID+"/"+exporter.FileMetrics, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "model,"), w.Body.String())
}

func TestRouter_ForecastErrors(t *testing.T) {
	tests := []struct {
		name       string
		days       int
		body       string
		wantStatus int
		wantType   string
	}{
		{name: "missing tables", days: 0, body: `{}`, wantStatus: http.StatusUnprocessableEntity, wantType: errors.TypeSchema},
		{name: "short series", days: 10, body: `{}`, wantStatus: http.StatusUnprocessableEntity, wantType: errors.TypeInsufficientData},
		{name: "unknown model", days: 60, body: `{"model": "arima"}`, wantStatus: http.StatusBadRequest, wantType: errors.TypeValidation},
		{name: "bad variant", days: 60, body: `{"variant": "units"}`, wantStatus: http.StatusBadRequest, wantType: errors.TypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			a := newTestApp(t, cfg, tt.days)
			if tt.days == 0 {
				require.NoError(t, os.MkdirAll(a.Paths.RawDir, 0755))
			}

			w := serve(a, http.MethodPost, "/api/v1/forecast", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, w.Header().Get("X-Request-ID"), problem["trace_id"])
		})
	}
}

func TestRouter_ForecastContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantStatus  int
	}{
		{name: "plain text", contentType: "text/plain", wantStatus: http.StatusUnsupportedMediaType},
		{name: "form", contentType: "application/x-www-form-urlencoded", wantStatus: http.StatusUnsupportedMediaType},
		{name: "json with charset", contentType: "application/json; charset=utf-8", wantStatus: http.StatusBadRequest},
	}

	cfg := testConfig(t)
	a := newTestApp(t, cfg, 60)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/forecast", strings.NewReader(`{"model": "arima"}`))
			r.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			a.Router.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusUnsupportedMediaType {
				assert.Contains(t, w.Body.String(), "UNSUPPORTED_MEDIA_TYPE")
			}
		})
	}
}

func TestRouter_NotFoundAndMethods(t *testing.T) {
	a := newTestApp(t, testConfig(t), 0)

	w := serve(a, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), errors.TypeNotFound)

	w = serve(a, http.MethodGet, "/api/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(a, http.MethodGet, "/api/v1/models", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "seasonal_naive")

	w = serve(a, http.MethodGet, "/api/v1/version", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"api_version":"v1"`)
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	a := newTestApp(t, cfg, 0)

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/v1/models", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(a, http.MethodGet, "/api/v1/models", "").Code)

	// Health endpoints are outside the limited group.
	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/healthz", "").Code)
}

func TestRouter_Metrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricExporter = "prometheus"
	a := newTestApp(t, cfg, 0)
	t.Cleanup(func() { a.OTelProviders.Shutdown(context.Background()) })

	serve(a, http.MethodGet, "/healthz", "")
	w := serve(a, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	a := newTestApp(t, cfg, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.Start(ctx, cancel))
	require.NoError(t, a.Stop(context.Background()))
}

func TestRouter_WebSocketStreamsRun(t *testing.T) {
	a := newTestApp(t, testConfig(t), 60)
	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	var greeting events.Message
	require.NoError(t, conn.ReadJSON(&greeting))
	assert.Equal(t, events.MessageTypeConnect, greeting.Type)
	require.Eventually(t, func() bool { return a.Hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/v1/forecast", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var types []events.MessageType
	for {
		var msg events.Message
		require.NoError(t, conn.ReadJSON(&msg))
		types = append(types, msg.Type)
		assert.NotEmpty(t, msg.RunID)
		if msg.Type == events.MessageTypeRunCompleted || msg.Type == events.MessageTypeRunFailed {
			break
		}
	}

	assert.Equal(t, events.MessageTypeRunStarted, types[0])
	assert.Equal(t, events.MessageTypeRunCompleted, types[len(types)-1])
	assert.Contains(t, types, events.MessageTypeStageUpdate)
}
