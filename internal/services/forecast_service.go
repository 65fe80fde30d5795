package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"revforecast/internal/config"
	apperrors "revforecast/internal/errors"
	"revforecast/internal/exporter"
	"revforecast/internal/forecast"
	"revforecast/internal/infrastructure"
	"revforecast/internal/pipeline"
	api "revforecast/pkg/contracts/api/v1"
	"revforecast/pkg/contracts/domain"
)

// TableLoader supplies the raw tables of one run
type TableLoader interface {
	Load(ctx context.Context) (*domain.TableSet, error)
}

// RunExporter writes the artifacts of a finished run
type RunExporter interface {
	ExportRun(ctx context.Context, result *pipeline.Result) (*exporter.Manifest, error)
}

// ForecastService runs forecasts over the configured dataset
type ForecastService struct {
	defaults config.ForecastConfig
	loader   TableLoader
	exporter RunExporter
	metrics  *infrastructure.PipelineMetrics
	timeout  time.Duration
	runs     *semaphore.Weighted
	events   pipeline.Publisher
	logger   *slog.Logger
}

// NewForecastService creates a forecast service. exp and metrics may be nil;
// without an exporter, export requests fail.
func NewForecastService(cfg *config.Config, loader TableLoader, exp RunExporter, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}
	maxRuns := cfg.Server.MaxConcurrentRuns
	if maxRuns < 1 {
		maxRuns = 1
	}

	logger.Info("ForecastService initialized",
		slog.String("default_model", cfg.Forecast.Model),
		slog.Int("default_horizon", cfg.Forecast.Horizon),
		slog.Int("max_concurrent_runs", maxRuns),
		slog.Duration("operation_timeout", cfg.Server.OperationTimeout))

	return &ForecastService{
		defaults: cfg.Forecast,
		loader:   loader,
		exporter: exp,
		metrics:  metrics,
		timeout:  cfg.Server.OperationTimeout,
		runs:     semaphore.NewWeighted(int64(maxRuns)),
		logger:   logger.With(slog.String("component", "forecast_service")),
	}
}

// SetPublisher streams the stage events of every run to pub.
func (s *ForecastService) SetPublisher(pub pipeline.Publisher) {
	s.events = pub
}

// Options merges req over the configured defaults. Zero-valued request
// fields keep the default.
func (s *ForecastService) Options(req api.ForecastRequest) (pipeline.Options, error) {
	cfg := s.defaults
	if req.Horizon > 0 {
		cfg.Horizon = req.Horizon
	}
	if req.Model != "" {
		cfg.Model = req.Model
	}
	if req.CompareModels != nil {
		cfg.CompareModels = req.CompareModels
	}
	if req.Variant != "" {
		cfg.Variant = req.Variant
	}
	if req.TargetColumn != "" {
		cfg.TargetColumn = req.TargetColumn
	}
	if req.RollingPolicy != "" {
		cfg.RollingPolicy = req.RollingPolicy
	}
	if req.EntityScope != "" {
		cfg.EntityScope = req.EntityScope
	}
	if req.MAPE != nil {
		cfg.MAPE = *req.MAPE
	}

	if cfg.Variant == string(domain.VariantRevenue) && cfg.TargetColumn != domain.ColumnY {
		return pipeline.Options{}, apperrors.NewAppValidationError(
			fmt.Sprintf("target column %q requires the orders variant", cfg.TargetColumn))
	}
	if _, err := forecast.New(cfg.Model, forecast.OptionsFromConfig(cfg)); err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.OptionsFromConfig(cfg), nil
}

// Run executes one forecast. It fails fast with ErrTooManyRuns when the
// concurrent run limit is reached.
func (s *ForecastService) Run(ctx context.Context, req api.ForecastRequest) (*api.ForecastResponse, error) {
	if !s.runs.TryAcquire(1) {
		s.logger.WarnContext(ctx, "Forecast rejected, run limit reached")
		return nil, ErrTooManyRuns
	}
	defer s.runs.Release(1)

	if req.Export && s.exporter == nil {
		return nil, ErrExportDisabled
	}

	opts, err := s.Options(req)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(opts, s.metrics, s.logger)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		p.WithPublisher(s.events)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	runID := infrastructure.NewRunID()
	ctx = infrastructure.WithRunID(ctx, runID)

	s.logger.InfoContext(ctx, "Forecast requested",
		slog.String("model", opts.Model),
		slog.Int("horizon", opts.Horizon),
		slog.Bool("export", req.Export))

	tables, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	result, err := p.Run(ctx, tables)
	if err != nil {
		s.logger.WarnContext(ctx, "Forecast failed", slog.String("error", err.Error()))
		return nil, err
	}

	resp := NewForecastResponse(result)

	if req.Export {
		manifest, err := s.exporter.ExportRun(ctx, result)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to export run reports", err)
		}
		resp.ReportFiles = manifest.Files
	}

	return resp, nil
}

// Models lists the registered engines
func (s *ForecastService) Models() api.ModelsResponse {
	return api.ModelsResponse{
		Models:  forecast.Names(),
		Default: s.defaults.Model,
	}
}

// NewForecastResponse converts a pipeline result into the API response
func NewForecastResponse(result *pipeline.Result) *api.ForecastResponse {
	eval := result.Evaluation
	resp := &api.ForecastResponse{
		RunID:      result.RunID,
		Model:      eval.Model,
		Horizon:    eval.Horizon,
		TrainSize:  eval.TrainSize,
		TestSize:   eval.TestSize,
		TestStart:  eval.TestStart.Format(time.DateOnly),
		Metrics:    modelMetrics(eval),
		Forecast:   eval.Forecast,
		Window:     result.Window,
		Days:       len(result.Daily),
		FilledDays: result.FilledDays,
		Undated:    result.UndatedRecords,
		Duration:   result.Duration,
	}

	for _, cmp := range result.Comparisons {
		resp.Comparisons = append(resp.Comparisons, modelMetrics(cmp))
	}

	for _, st := range result.Stages {
		resp.Stages = append(resp.Stages, api.StageSummary{
			Name:       st.Name,
			Status:     string(st.GetStatus()),
			Records:    st.Records,
			DurationMS: st.Duration().Milliseconds(),
			Error:      st.Error,
		})
	}

	return resp
}

func modelMetrics(eval *domain.Evaluation) api.ModelMetrics {
	return api.ModelMetrics{
		Model:    eval.Model,
		Metrics:  eval.Metrics,
		Baseline: eval.Baseline,
	}
}
