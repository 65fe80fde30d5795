package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"revforecast/internal/config"
	"revforecast/pkg/contracts"
	api "revforecast/pkg/contracts/api/v1"
)

// Health states
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HealthService provides health check functionality
type HealthService struct {
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a new health service
func NewHealthService(paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		paths:     paths,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck reports that the process is alive
func (hs *HealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	return api.HealthResponse{
		Status:    StatusOK,
		Version:   contracts.Version,
		Timestamp: time.Now().UTC(),
	}
}

// ReadinessCheck reports whether a forecast can be served: the raw data
// directory must be readable and the reports directory writable.
func (hs *HealthService) ReadinessCheck(ctx context.Context) api.HealthResponse {
	status := api.HealthResponse{
		Status:    StatusReady,
		Version:   contracts.Version,
		Timestamp: time.Now().UTC(),
		Checks: map[string]string{
			"raw_data": checkResult(checkReadableDir(hs.paths.RawDir)),
			"reports":  checkResult(checkWritableDir(hs.paths.ReportsDir)),
		},
	}

	for name, result := range status.Checks {
		if result != StatusOK {
			status.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "Readiness check failed",
				slog.String("check", name),
				slog.String("result", result))
		}
	}
	return status
}

// Version returns version and runtime information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":       info.Version,
		"build_time":    info.BuildTime,
		"git_commit":    info.GitCommit,
		"go_version":    info.GoVersion,
		"os":            info.OS,
		"arch":          info.Architecture,
		"report_format": info.ReportFormat,
		"api_version":   info.APIVersion,
		"goroutines":    runtime.NumGoroutine(),
		"uptime":        time.Since(hs.startTime).Seconds(),
		"start_time":    hs.startTime.Format(time.RFC3339),
	}
}

func checkResult(err error) string {
	if err != nil {
		return err.Error()
	}
	return StatusOK
}

func checkReadableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("directory not found: %s", dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}
	if _, err := os.ReadDir(dir); err != nil {
		return fmt.Errorf("cannot read %s: %v", dir, err)
	}
	return nil
}

func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %v", dir, err)
	}
	f, err := os.CreateTemp(dir, ".readyz-*")
	if err != nil {
		return fmt.Errorf("cannot write to %s: %v", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
