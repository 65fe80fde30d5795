// Package services implements the business logic behind the HTTP handlers
// and the batch CLI. It keeps request handling apart from data access so
// forecast runs can be driven and tested without a server.
//
// # Services
//
//   - ForecastService merges a request into the configured forecast
//     options, loads the raw tables, runs the pipeline under the operation
//     timeout and optionally exports the run's reports.
//   - ReportService lists exported runs and resolves report files.
//   - HealthService answers liveness and readiness checks.
//
// # Common Service Pattern
//
// Services take their collaborators and a *slog.Logger in the constructor.
// A nil logger falls back to slog.Default():
//
//	svc := services.NewForecastService(cfg, loader, exporter, metrics, logger)
//	resp, err := svc.Run(ctx, api.ForecastRequest{Horizon: 14})
//
// Errors are returned unchanged from the pipeline so the HTTP error
// handler can map them onto problem details.
package services
