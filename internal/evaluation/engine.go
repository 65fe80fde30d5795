package evaluation

import (
	"context"
	"log/slog"

	"revforecast/internal/forecast"
	"revforecast/pkg/contracts/domain"
)

// Settings controls one evaluation.
type Settings struct {
	Horizon  int
	MAPE     bool
	Baseline bool
}

// Engine fits a model on the training prefix and scores it on the
// held-out suffix.
type Engine struct {
	settings Settings
	logger   *slog.Logger
}

// NewEngine creates an evaluation engine
func NewEngine(settings Settings, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		settings: settings,
		logger:   logger.With(slog.String("component", "evaluation")),
	}
}

// Evaluate splits series, fits f on the training prefix only, forecasts
// exactly Horizon days and scores the forecast against the test suffix.
// The returned evaluation carries the full forecast, in-sample fit
// included. series is not modified.
func (e *Engine) Evaluate(ctx context.Context, series []domain.SeriesPoint, f forecast.Forecaster) (*domain.Evaluation, error) {
	h := e.settings.Horizon
	train, test, err := Split(series, h)
	if err != nil {
		return nil, err
	}

	model, err := f.Fit(ctx, train)
	if err != nil {
		return nil, err
	}
	predicted, err := model.Predict(ctx, h)
	if err != nil {
		return nil, err
	}

	aligned, err := Align(test, predicted)
	if err != nil {
		return nil, err
	}
	metrics, err := ComputeMetrics(aligned, e.settings.MAPE)
	if err != nil {
		return nil, err
	}

	result := &domain.Evaluation{
		Model:     f.Name(),
		Horizon:   h,
		TrainSize: len(train),
		TestSize:  len(test),
		TrainEnd:  train[len(train)-1].DS,
		TestStart: test[0].DS,
		Forecast:  predicted,
		Aligned:   aligned,
		Metrics:   metrics,
	}

	if e.settings.Baseline {
		baseline, err := ComputeMetrics(NaiveBaseline(train, test), e.settings.MAPE)
		if err != nil {
			return nil, err
		}
		result.Baseline = &baseline
	}

	attrs := []any{
		slog.String("model", result.Model),
		slog.Int("train_size", result.TrainSize),
		slog.Int("test_size", result.TestSize),
		slog.String("test_start", result.TestStart.Format(domain.DateLayout)),
		slog.Float64("mae", metrics.MAE),
		slog.Float64("rmse", metrics.RMSE),
	}
	if metrics.MAPE != nil {
		attrs = append(attrs, slog.Float64("mape", *metrics.MAPE))
	}
	if metrics.MAPEExcluded > 0 {
		attrs = append(attrs, slog.Int("mape_excluded", metrics.MAPEExcluded))
	}
	if result.Baseline != nil {
		attrs = append(attrs, slog.Float64("baseline_mae", result.Baseline.MAE))
	}
	e.logger.InfoContext(ctx, "Forecast evaluated", attrs...)

	return result, nil
}
