package http

import (
	"context"

	api "revforecast/pkg/contracts/api/v1"
)

// ForecastServiceInterface runs forecasts
type ForecastServiceInterface interface {
	Run(ctx context.Context, req api.ForecastRequest) (*api.ForecastResponse, error)
	Models() api.ModelsResponse
}

// ReportServiceInterface gives access to exported run reports
type ReportServiceInterface interface {
	ListRuns(ctx context.Context) (api.ReportsResponse, error)
	ReportPath(ctx context.Context, runID, file string) (string, error)
}

// HealthServiceInterface answers health checks
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) api.HealthResponse
	ReadinessCheck(ctx context.Context) api.HealthResponse
	Version() map[string]interface{}
}
