package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"revforecast/internal/config"
	"revforecast/internal/dataprocessing"
	apperrors "revforecast/internal/errors"
	"revforecast/internal/evaluation"
	"revforecast/internal/forecast"
	"revforecast/internal/infrastructure"
	"revforecast/pkg/contracts/domain"
	"revforecast/pkg/contracts/events"
)

// Entity scopes
const (
	EntityScopeTrain = "train"
	EntityScopeAll   = "all"
)

// Options configures one pipeline.
type Options struct {
	Horizon         int
	Model           string
	CompareModels   []string
	Variant         domain.AggregationVariant
	TargetColumn    string
	RollingPolicy   dataprocessing.RollingPolicy
	TimestampColumn string
	EntityScope     string
	MAPE            bool
	Baseline        bool
	PlotWindow      int
	Engine          forecast.Options
}

// OptionsFromConfig maps the forecast configuration onto pipeline options.
func OptionsFromConfig(cfg config.ForecastConfig) Options {
	return Options{
		Horizon:         cfg.Horizon,
		Model:           cfg.Model,
		CompareModels:   cfg.CompareModels,
		Variant:         domain.AggregationVariant(cfg.Variant),
		TargetColumn:    cfg.TargetColumn,
		RollingPolicy:   dataprocessing.RollingPolicy(cfg.RollingPolicy),
		TimestampColumn: cfg.TimestampColumn,
		EntityScope:     cfg.EntityScope,
		MAPE:            cfg.MAPE,
		Baseline:        cfg.Baseline,
		PlotWindow:      cfg.PlotWindow,
		Engine:          forecast.OptionsFromConfig(cfg),
	}
}

// Result is everything one run produced.
type Result struct {
	RunID string `json:"run_id"`
	// Records are the normalized records with entity aggregates attached.
	Records []domain.NormalizedRecord `json:"-"`
	// Daily is the gap-filled daily series.
	Daily    []domain.DailyPoint `json:"-"`
	Features []domain.FeatureRow `json:"features"`

	Evaluation  *domain.Evaluation       `json:"evaluation"`
	Comparisons []*domain.Evaluation     `json:"comparisons,omitempty"`
	Window      []domain.ComparisonPoint `json:"comparison_window"`

	Stages []*StageState `json:"stages"`

	DuplicatesDropped  int           `json:"duplicates_dropped"`
	OrdersWithoutItems int           `json:"orders_without_items"`
	UndatedRecords     int           `json:"undated_records"`
	FilledDays         int           `json:"filled_days"`
	Duration           time.Duration `json:"duration"`
}

// Publisher receives run and stage events while a run executes. Publish
// must not block.
type Publisher interface {
	Publish(ctx context.Context, msg events.Message)
}

// Pipeline runs the forecast stages over one table set.
type Pipeline struct {
	opts      Options
	main      forecast.Forecaster
	compare   []forecast.Forecaster
	metrics   *infrastructure.PipelineMetrics
	publisher Publisher
	logger    *slog.Logger
}

// New validates opts and resolves the configured engines. metrics may be nil.
func New(opts Options, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Horizon < 1 {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("horizon must be positive, got %d", opts.Horizon))
	}
	if opts.EntityScope == "" {
		opts.EntityScope = EntityScopeTrain
	}
	if opts.EntityScope != EntityScopeTrain && opts.EntityScope != EntityScopeAll {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown entity scope %q", opts.EntityScope))
	}
	if opts.TargetColumn == "" {
		opts.TargetColumn = domain.ColumnY
	}

	main, err := forecast.New(opts.Model, opts.Engine)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		opts:    opts,
		main:    main,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "pipeline")),
	}

	seen := map[string]bool{opts.Model: true}
	for _, name := range opts.CompareModels {
		if seen[name] {
			continue
		}
		seen[name] = true
		f, err := forecast.New(name, opts.Engine)
		if err != nil {
			return nil, err
		}
		p.compare = append(p.compare, f)
	}

	return p, nil
}

// WithPublisher streams the events of subsequent runs to pub.
func (p *Pipeline) WithPublisher(pub Publisher) *Pipeline {
	p.publisher = pub
	return p
}

// Options returns the resolved options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run executes every stage in order and stops at the first failure. The
// run id is taken from ctx when present.
func (p *Pipeline) Run(ctx context.Context, tables *domain.TableSet) (*Result, error) {
	start := time.Now()

	runID := infrastructure.GetRunID(ctx)
	if runID == "" {
		runID = infrastructure.NewRunID()
		ctx = infrastructure.WithRunID(ctx, runID)
	}
	if infrastructure.GetTraceID(ctx) == "" {
		ctx = infrastructure.WithTraceID(ctx, runID)
	}

	p.logger.InfoContext(ctx, "Pipeline started",
		slog.String("model", p.opts.Model),
		slog.Int("horizon", p.opts.Horizon),
		slog.String("variant", string(p.opts.Variant)),
		slog.String("target", p.opts.TargetColumn))

	p.publish(ctx, events.MessageTypeRunStarted, events.RunSnapshot{
		Model:   p.opts.Model,
		Horizon: p.opts.Horizon,
	})

	runner := newStageRunner(p.logger, p.metrics, p.publisher)
	result := &Result{RunID: runID}

	err := p.run(ctx, runner, tables, result)
	result.Stages = runner.stages
	result.Duration = time.Since(start)
	p.metrics.RecordRun(ctx, p.opts.Model, result.Duration, err)

	summary := events.RunSnapshot{
		Model:      p.opts.Model,
		Horizon:    p.opts.Horizon,
		Stages:     len(result.Stages),
		DurationMS: result.Duration.Milliseconds(),
	}
	if err != nil {
		summary.Error = err.Error()
		p.publish(ctx, events.MessageTypeRunFailed, summary)
		return nil, err
	}
	mae := result.Evaluation.Metrics.MAE
	summary.MAE = &mae
	p.publish(ctx, events.MessageTypeRunCompleted, summary)

	p.logger.InfoContext(ctx, "Pipeline completed",
		slog.Int("days", len(result.Daily)),
		slog.Int("filled_days", result.FilledDays),
		slog.Float64("mae", result.Evaluation.Metrics.MAE),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, runner *stageRunner, tables *domain.TableSet, result *Result) error {
	var merged *domain.MergedSet
	if err := runner.run(ctx, StageMerge, func(ctx context.Context) (int, error) {
		var err error
		merged, err = dataprocessing.NewMerger(p.logger).Merge(ctx, tables)
		if err != nil {
			return 0, err
		}
		return len(merged.Records), nil
	}); err != nil {
		return err
	}
	result.DuplicatesDropped = merged.DuplicatesDropped
	result.OrdersWithoutItems = merged.OrdersWithoutItems

	var records []domain.NormalizedRecord
	if err := runner.run(ctx, StageNormalize, func(ctx context.Context) (int, error) {
		var err error
		records, err = dataprocessing.NewNormalizer(p.opts.TimestampColumn, p.logger).Normalize(ctx, merged)
		return len(records), err
	}); err != nil {
		return err
	}

	var daily []domain.DailyPoint
	if err := runner.run(ctx, StageAggregate, func(ctx context.Context) (int, error) {
		var err error
		daily, result.UndatedRecords, err = dataprocessing.NewAggregator(p.opts.Variant, p.logger).Aggregate(ctx, records)
		return len(daily), err
	}); err != nil {
		return err
	}

	if err := runner.run(ctx, StageGapFill, func(ctx context.Context) (int, error) {
		var stats dataprocessing.GapFillStatistics
		daily, stats = dataprocessing.NewGapFillProcessor().FillGapsWithStats(daily)
		result.FilledDays = stats.FilledDays
		return len(daily), nil
	}); err != nil {
		return err
	}
	result.Daily = daily

	if err := runner.run(ctx, StageEntityFeatures, func(ctx context.Context) (int, error) {
		cutoff, err := p.entityCutoff(ctx, daily)
		if err != nil {
			return 0, err
		}
		records, err = dataprocessing.NewEntityFeatureBuilder(p.logger).Attach(ctx, records, cutoff)
		return len(records), err
	}); err != nil {
		return err
	}
	result.Records = records

	if err := runner.run(ctx, StageCovariates, func(ctx context.Context) (int, error) {
		var err error
		result.Features, err = dataprocessing.NewCovariateBuilder(p.opts.TargetColumn, p.opts.RollingPolicy, p.logger).Build(ctx, daily)
		return len(result.Features), err
	}); err != nil {
		return err
	}

	series := p.targetSeries(ctx, result.Features)
	engine := evaluation.NewEngine(evaluation.Settings{
		Horizon:  p.opts.Horizon,
		MAPE:     p.opts.MAPE,
		Baseline: p.opts.Baseline,
	}, p.logger)

	if err := runner.run(ctx, StageEvaluate, func(ctx context.Context) (int, error) {
		var err error
		result.Evaluation, err = engine.Evaluate(ctx, series, p.main)
		if err != nil {
			return 0, err
		}
		p.metrics.RecordEvaluation(ctx, result.Evaluation.Model, result.Evaluation.Metrics.MAE)
		return len(result.Evaluation.Forecast), nil
	}); err != nil {
		return err
	}

	if len(p.compare) == 0 {
		runner.skip(ctx, StageCompare, "no comparison models configured")
	} else if err := runner.run(ctx, StageCompare, func(ctx context.Context) (int, error) {
		var err error
		result.Comparisons, err = p.compareModels(ctx, engine, series)
		return len(result.Comparisons), err
	}); err != nil {
		return err
	}

	result.Window = evaluation.ComparisonWindow(series, result.Evaluation.Forecast, result.Evaluation.TestStart, p.opts.PlotWindow)
	return nil
}

func (p *Pipeline) publish(ctx context.Context, t events.MessageType, data interface{}) {
	if p.publisher == nil {
		return
	}
	p.publisher.Publish(ctx, events.NewMessage(t, infrastructure.GetRunID(ctx), data))
}

// entityCutoff returns the first test date when entity aggregates are
// restricted to the training partition, and nil otherwise.
func (p *Pipeline) entityCutoff(ctx context.Context, daily []domain.DailyPoint) (*time.Time, error) {
	if p.opts.EntityScope == EntityScopeAll {
		p.logger.WarnContext(ctx, "Entity aggregates computed over the whole dataset, test rows leak into features",
			slog.String("entity_scope", p.opts.EntityScope))
		return nil, nil
	}

	series := make([]domain.SeriesPoint, len(daily))
	for i, d := range daily {
		series[i] = domain.SeriesPoint{DS: d.DS, Y: d.Y}
	}
	cutoff, err := evaluation.TestStart(series, p.opts.Horizon)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext(apperrors.CtxStage, StageEntityFeatures)
		}
		return nil, err
	}
	return &cutoff, nil
}

// targetSeries projects feature rows onto the configured target. A day
// without a target value (mean order value on a day with no orders) is
// modelled as 0.
func (p *Pipeline) targetSeries(ctx context.Context, rows []domain.FeatureRow) []domain.SeriesPoint {
	out := make([]domain.SeriesPoint, len(rows))
	missing := 0
	for i, r := range rows {
		out[i].DS = r.DS
		v, _ := r.Value(p.opts.TargetColumn)
		if v == nil {
			missing++
			continue
		}
		out[i].Y = *v
	}
	if missing > 0 {
		p.logger.InfoContext(ctx, "Target missing on some days, modelled as zero",
			slog.String("target", p.opts.TargetColumn),
			slog.Int("days", missing))
	}
	return out
}

// compareModels evaluates the comparison engines concurrently. Each engine
// gets its own copy of the series. Results keep the configured order.
func (p *Pipeline) compareModels(ctx context.Context, engine *evaluation.Engine, series []domain.SeriesPoint) ([]*domain.Evaluation, error) {
	results := make([]*domain.Evaluation, len(p.compare))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range p.compare {
		own := append([]domain.SeriesPoint(nil), series...)
		g.Go(func() error {
			ev, err := engine.Evaluate(ctx, own, f)
			if err != nil {
				return fmt.Errorf("model %s: %w", f.Name(), err)
			}
			p.metrics.RecordEvaluation(ctx, ev.Model, ev.Metrics.MAE)
			results[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
