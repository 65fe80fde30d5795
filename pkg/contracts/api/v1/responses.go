package api

import (
	"time"

	"revforecast/pkg/contracts/domain"
)

// ModelMetrics is the accuracy of one evaluated model.
type ModelMetrics struct {
	Model    string          `json:"model"`
	Metrics  domain.Metrics  `json:"metrics"`
	Baseline *domain.Metrics `json:"baseline,omitempty"`
}

// StageSummary reports how one pipeline stage went.
type StageSummary struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Records    int    `json:"records"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// ForecastResponse is the result of a forecast run.
type ForecastResponse struct {
	RunID       string                   `json:"run_id"`
	Model       string                   `json:"model"`
	Horizon     int                      `json:"horizon"`
	TrainSize   int                      `json:"train_size"`
	TestSize    int                      `json:"test_size"`
	TestStart   string                   `json:"test_start"`
	Metrics     ModelMetrics             `json:"metrics"`
	Comparisons []ModelMetrics           `json:"comparisons,omitempty"`
	Forecast    []domain.ForecastPoint   `json:"forecast"`
	Window      []domain.ComparisonPoint `json:"comparison_window"`
	Stages      []StageSummary           `json:"stages"`
	Days        int                      `json:"days"`
	FilledDays  int                      `json:"filled_days"`
	Undated     int                      `json:"undated_records"`
	Duration    time.Duration            `json:"duration_ns"`
	ReportFiles []string                 `json:"report_files,omitempty"`
}

// ModelsResponse lists the registered forecasting engines.
type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// RunReport lists the exported files of one run.
type RunReport struct {
	RunID      string    `json:"run_id"`
	Files      []string  `json:"files"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ReportsResponse lists exported runs, newest first.
type ReportsResponse struct {
	Runs []RunReport `json:"runs"`
}
