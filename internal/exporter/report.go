package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"revforecast/internal/config"
	"revforecast/internal/pipeline"
	"revforecast/pkg/contracts/domain"
)

// Report file names
const (
	FileDailyFeatures    = config.DailyFeaturesReport
	FileForecast         = config.ForecastReport
	FileComparisonWindow = config.ComparisonReport
	FileMetrics          = config.MetricsReport
	FileEntityFeatures   = config.EntityFeaturesReport
	FileReportWorkbook   = config.WorkbookReport
	// FileMetricsHistory accumulates one row per model and run across runs.
	FileMetricsHistory = config.MetricsHistoryReport
)

// Manifest lists the files written for one run.
type Manifest struct {
	RunID string   `json:"run_id"`
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// ReportExporter writes the artifacts of a pipeline run into a directory
// named after the run id.
type ReportExporter struct {
	paths  *config.Paths
	csv    *CSVWriter
	logger *slog.Logger
}

// NewReportExporter creates a report exporter
func NewReportExporter(paths *config.Paths, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &ReportExporter{
		paths:  paths,
		csv:    NewCSVWriter(paths, logger),
		logger: logger,
	}
}

// ExportRun writes every report file of result
func (e *ReportExporter) ExportRun(ctx context.Context, result *pipeline.Result) (*Manifest, error) {
	if result == nil || result.Evaluation == nil {
		return nil, fmt.Errorf("nothing to export: run has no evaluation")
	}

	dir := e.paths.GetRunReportDir(result.RunID)
	manifest := &Manifest{RunID: result.RunID, Dir: dir}

	steps := []struct {
		name  string
		write func(path string) error
	}{
		{FileDailyFeatures, func(p string) error { return e.writeFeatures(p, result.Features) }},
		{FileForecast, func(p string) error { return e.writeForecast(p, evaluations(result)) }},
		{FileComparisonWindow, func(p string) error { return e.writeWindow(p, result.Window) }},
		{FileMetrics, func(p string) error { return e.csv.WriteSimpleCSV(p, metricsHeaders, metricsRows(result)) }},
		{FileEntityFeatures, func(p string) error { return e.writeEntities(p, result.Records) }},
		{FileReportWorkbook, func(p string) error { return writeWorkbook(p, result) }},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, step.name)
		if err := step.write(path); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", step.name, err)
		}
		manifest.Files = append(manifest.Files, path)
	}

	if err := e.csv.AppendToCSV(FileMetricsHistory, historyHeaders, historyRows(result)); err != nil {
		return nil, fmt.Errorf("failed to append %s: %w", FileMetricsHistory, err)
	}

	e.logger.InfoContext(ctx, "Run exported",
		slog.String("dir", dir),
		slog.Int("files", len(manifest.Files)))
	return manifest, nil
}

// evaluations returns the main evaluation followed by the comparisons.
func evaluations(result *pipeline.Result) []*domain.Evaluation {
	return append([]*domain.Evaluation{result.Evaluation}, result.Comparisons...)
}

func featureHeaders() []string {
	headers := []string{
		domain.ColumnDS, domain.ColumnY, domain.ColumnOrderCount, domain.ColumnAvgOrderValue, "filled",
		"month", "iso_week", "day_of_week", "is_weekend",
	}
	for _, k := range domain.LagSteps {
		headers = append(headers, domain.LagColumn(k))
	}
	for _, w := range domain.RollingWindows {
		headers = append(headers, domain.RollingColumn(w))
	}
	return headers
}

func featureRow(r domain.FeatureRow) []string {
	record := []string{
		formatDate(r.DS),
		formatMoney(r.Y),
		formatOptionalInt(r.OrderCount),
		formatOptional(r.AvgOrderValue),
		formatBool(r.Filled),
		formatInt(r.Month),
		formatInt(r.ISOWeek),
		formatInt(r.DayOfWeek),
		formatBool(r.Weekend),
	}
	for _, k := range domain.LagSteps {
		record = append(record, formatOptional(r.Lag(k)))
	}
	for _, w := range domain.RollingWindows {
		record = append(record, formatOptional(r.RollingMean(w)))
	}
	return record
}

func (e *ReportExporter) writeFeatures(path string, rows []domain.FeatureRow) error {
	stream, err := e.csv.CreateStreamWriter(path, featureHeaders())
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := stream.WriteRecord(featureRow(r)); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return stream.Close()
}

var forecastHeaders = []string{"model", domain.ColumnDS, "yhat", "in_sample"}

func (e *ReportExporter) writeForecast(path string, evs []*domain.Evaluation) error {
	var records [][]string
	for _, ev := range evs {
		for _, p := range ev.Forecast {
			records = append(records, []string{ev.Model, formatDate(p.DS), formatFloat(p.YHat), formatBool(p.InSample)})
		}
	}
	return e.csv.WriteSimpleCSV(path, forecastHeaders, records)
}

var windowHeaders = []string{domain.ColumnDS, "y", "yhat", "test"}

func windowRow(p domain.ComparisonPoint) []string {
	return []string{formatDate(p.DS), formatFloat(p.Y), formatOptional(p.YHat), formatBool(p.Test)}
}

func (e *ReportExporter) writeWindow(path string, window []domain.ComparisonPoint) error {
	records := make([][]string, len(window))
	for i, p := range window {
		records[i] = windowRow(p)
	}
	return e.csv.WriteSimpleCSV(path, windowHeaders, records)
}

var metricsHeaders = []string{
	"model", "horizon", "train_size", "test_size", "test_start",
	domain.MetricMAE, domain.MetricRMSE, domain.MetricMAPE, "mape_excluded", "n",
}

func metricsRow(model string, ev *domain.Evaluation, m domain.Metrics) []string {
	return []string{
		model,
		formatInt(ev.Horizon),
		formatInt(ev.TrainSize),
		formatInt(ev.TestSize),
		formatDate(ev.TestStart),
		formatFloat(m.MAE),
		formatFloat(m.RMSE),
		formatOptional(m.MAPE),
		formatInt(m.MAPEExcluded),
		formatInt(m.N),
	}
}

// metricsRows lists every evaluated model, then the naive baseline.
func metricsRows(result *pipeline.Result) [][]string {
	var rows [][]string
	for _, ev := range evaluations(result) {
		rows = append(rows, metricsRow(ev.Model, ev, ev.Metrics))
	}
	if b := result.Evaluation.Baseline; b != nil {
		rows = append(rows, metricsRow("naive_baseline", result.Evaluation, *b))
	}
	return rows
}

var historyHeaders = append([]string{"run_id"}, metricsHeaders...)

func historyRows(result *pipeline.Result) [][]string {
	rows := metricsRows(result)
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string{result.RunID}, r...)
	}
	return out
}

var entityHeaders = []string{"entity_type", "entity_id", "order_count", "total_price", "mean_price"}

// entityRows returns one row per distinct customer and product, sorted by
// type and id.
func entityRows(records []domain.NormalizedRecord) [][]string {
	customers := map[string]*domain.CustomerStats{}
	products := map[string]*domain.ProductStats{}
	for _, r := range records {
		if s := r.CustomerStats; s != nil {
			customers[s.CustomerID] = s
		}
		if s := r.ProductStats; s != nil {
			products[s.ProductID] = s
		}
	}

	rows := make([][]string, 0, len(customers)+len(products))
	for _, s := range customers {
		rows = append(rows, []string{"customer", s.CustomerID, formatInt(s.OrderCount), "", formatMoney(s.MeanPrice)})
	}
	for _, s := range products {
		rows = append(rows, []string{"product", s.ProductID, formatInt(s.OrderCount), formatMoney(s.TotalPrice), formatMoney(s.MeanPrice)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i][0] != rows[j][0] {
			return rows[i][0] < rows[j][0]
		}
		return rows[i][1] < rows[j][1]
	})
	return rows
}

func (e *ReportExporter) writeEntities(path string, records []domain.NormalizedRecord) error {
	return e.csv.WriteSimpleCSV(path, entityHeaders, entityRows(records))
}
