package http

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

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "revforecast/internal/errors"
	"revforecast/internal/services"
	api "revforecast/pkg/contracts/api/v1"
	"revforecast/pkg/contracts/domain"
)

type mockForecastService struct {
	mock.Mock
}

func (m *mockForecastService) Run(ctx context.Context, req api.ForecastRequest) (*api.ForecastResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*api.ForecastResponse)
	return resp, args.Error(1)
}

func (m *mockForecastService) Models() api.ModelsResponse {
	return m.Called().Get(0).(api.ModelsResponse)
}

type mockReportService struct {
	mock.Mock
}

func (m *mockReportService) ListRuns(ctx context.Context) (api.ReportsResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.ReportsResponse), args.Error(1)
}

func (m *mockReportService) ReportPath(ctx context.Context, runID, file string) (string, error) {
	args := m.Called(ctx, runID, file)
	return args.String(0), args.Error(1)
}

type mockHealthService struct {
	mock.Mock
}

func (m *mockHealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	return m.Called(ctx).Get(0).(api.HealthResponse)
}

func (m *mockHealthService) ReadinessCheck(ctx context.Context) api.HealthResponse {
	return m.Called(ctx).Get(0).(api.HealthResponse)
}

func (m *mockHealthService) Version() map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestForecastHandler_RunForecast(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		setup       func(m *mockForecastService)
		wantStatus  int
		wantType    string
	}{
		{
			name:        "success",
			body:        `{"horizon": 14, "model": "naive", "export": true}`,
			contentType: "application/json",
			setup: func(m *mockForecastService) {
				m.On("Run", mock.Anything, api.ForecastRequest{Horizon: 14, Model: "naive", Export: true}).
					Return(&api.ForecastResponse{
						RunID:   "run-1",
						Model:   "naive",
						Metrics: api.ModelMetrics{Model: "naive", Metrics: domain.Metrics{MAE: 1.5, RMSE: 2}},
					}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:        "empty body uses defaults",
			contentType: "application/json",
			setup: func(m *mockForecastService) {
				m.On("Run", mock.Anything, api.ForecastRequest{}).Return(&api.ForecastResponse{RunID: "run-2"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:        "invalid horizon",
			body:        `{"horizon": 1000}`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantType:    apierrors.TypeValidation,
		},
		{
			name:        "unknown field",
			body:        `{"periods": 3}`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantType:    apierrors.TypeValidation,
		},
		{
			name:        "wrong content type",
			body:        `horizon=3`,
			contentType: "application/x-www-form-urlencoded",
			wantStatus:  http.StatusUnsupportedMediaType,
		},
		{
			name:        "insufficient data",
			body:        `{}`,
			contentType: "application/json",
			setup: func(m *mockForecastService) {
				m.On("Run", mock.Anything, api.ForecastRequest{}).
					Return(nil, apierrors.NewInsufficientDataError("split", 30, 12))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeInsufficientData,
		},
		{
			name:        "run limit",
			body:        `{}`,
			contentType: "application/json",
			setup: func(m *mockForecastService) {
				m.On("Run", mock.Anything, api.ForecastRequest{}).Return(nil, services.ErrTooManyRuns)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantType:   apierrors.TypeServiceDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockForecastService{}
			if tt.setup != nil {
				tt.setup(svc)
			}
			h := NewForecastHandler(svc, nil, apierrors.NewErrorHandler(nil, false))

			r := httptest.NewRequest(http.MethodPost, "/forecast", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			h.Routes().ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, decodeBody(t, w)["type"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestForecastHandler_RunForecast_Body(t *testing.T) {
	svc := &mockForecastService{}
	svc.On("Run", mock.Anything, mock.Anything).Return(&api.ForecastResponse{
		RunID:     "run-1",
		Model:     "holt_winters",
		Horizon:   7,
		TestStart: "2018-02-23",
		Forecast:  []domain.ForecastPoint{{DS: time.Date(2018, 2, 23, 0, 0, 0, 0, time.UTC), YHat: 12.5}},
	}, nil)
	h := NewForecastHandler(svc, nil, apierrors.NewErrorHandler(nil, false))

	r := httptest.NewRequest(http.MethodPost, "/forecast", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp api.ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "2018-02-23", resp.TestStart)
	require.Len(t, resp.Forecast, 1)
	assert.Equal(t, 12.5, resp.Forecast[0].YHat)
}

func TestForecastHandler_ListModels(t *testing.T) {
	svc := &mockForecastService{}
	svc.On("Models").Return(api.ModelsResponse{Models: []string{"holt_winters", "naive"}, Default: "holt_winters"})
	h := NewForecastHandler(svc, nil, apierrors.NewErrorHandler(nil, false))

	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp api.ModelsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "holt_winters", resp.Default)
	assert.Len(t, resp.Models, 2)
}

func TestReportHandler(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "forecast.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("ds,yhat\n2018-02-23,12.5\n"), 0644))

	svc := &mockReportService{}
	svc.On("ListRuns", mock.Anything).Return(api.ReportsResponse{Runs: []api.RunReport{{RunID: "run-1", Files: []string{"forecast.csv"}}}}, nil)
	svc.On("ReportPath", mock.Anything, "run-1", "forecast.csv").Return(csvPath, nil)
	svc.On("ReportPath", mock.Anything, "run-1", "missing.csv").Return("", services.ErrReportNotFound)

	router := chi.NewRouter()
	router.Mount("/reports", NewReportHandler(svc, nil, apierrors.NewErrorHandler(nil, false)).Routes())

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp api.ReportsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Runs, 1)
		assert.Equal(t, "run-1", resp.Runs[0].RunID)
	})

	t.Run("download", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/run-1/forecast.csv", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="forecast.csv"`)
		assert.Contains(t, w.Body.String(), "2018-02-23,12.5")
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/run-1/missing.csv", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apierrors.TypeNotFound, decodeBody(t, w)["type"])
	})
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		readiness  string
		wantStatus int
	}{
		{name: "ready", readiness: "ready", wantStatus: http.StatusOK},
		{name: "not ready", readiness: "not_ready", wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockHealthService{}
			svc.On("ReadinessCheck", mock.Anything).Return(api.HealthResponse{Status: tt.readiness})
			h := NewHealthHandler(svc, nil)

			w := httptest.NewRecorder()
			h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.readiness, decodeBody(t, w)["status"])
		})
	}

	t.Run("liveness and version", func(t *testing.T) {
		svc := &mockHealthService{}
		svc.On("HealthCheck", mock.Anything).Return(api.HealthResponse{Status: "ok", Version: "0.3.0"})
		svc.On("Version").Return(map[string]interface{}{"version": "0.3.0"})
		h := NewHealthHandler(svc, nil)

		w := httptest.NewRecorder()
		h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", decodeBody(t, w)["status"])

		w = httptest.NewRecorder()
		h.Version(w, httptest.NewRequest(http.MethodGet, "/api/v1/version", nil))
		assert.Equal(t, "0.3.0", decodeBody(t, w)["version"])
	})
}
