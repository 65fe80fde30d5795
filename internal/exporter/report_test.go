package exporter

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"revforecast/internal/config"
	"revforecast/internal/pipeline"
	"revforecast/pkg/contracts/domain"
)

func ptr[T any](v T) *T { return &v }

func testResult() *pipeline.Result {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	d := func(i int) time.Time { return start.AddDate(0, 0, i) }

	features := []domain.FeatureRow{
		{DailyPoint: domain.DailyPoint{DS: d(0), Y: 10, OrderCount: ptr(1), AvgOrderValue: ptr(10.0)}, Month: 1, ISOWeek: 1},
		{DailyPoint: domain.DailyPoint{DS: d(1), Y: 0, OrderCount: ptr(0), Filled: true}, Month: 1, ISOWeek: 1, DayOfWeek: 1, Lag1: ptr(10.0)},
		{DailyPoint: domain.DailyPoint{DS: d(2), Y: 30, OrderCount: ptr(2), AvgOrderValue: ptr(15.0)}, Month: 1, ISOWeek: 1, DayOfWeek: 2, Lag1: ptr(0.0)},
	}

	ev := &domain.Evaluation{
		Model:     "naive",
		Horizon:   1,
		TrainSize: 2,
		TestSize:  1,
		TrainEnd:  d(1),
		TestStart: d(2),
		Forecast: []domain.ForecastPoint{
			{DS: d(1), YHat: 10, InSample: true},
			{DS: d(2), YHat: 0},
		},
		Metrics:  domain.Metrics{MAE: 30, RMSE: 30, MAPE: ptr(100.0), N: 1},
		Baseline: &domain.Metrics{MAE: 30, RMSE: 30, N: 1},
	}

	return &pipeline.Result{
		RunID:    "run-1",
		Features: features,
		Daily: []domain.DailyPoint{
			features[0].DailyPoint, features[1].DailyPoint, features[2].DailyPoint,
		},
		Evaluation: ev,
		Window: []domain.ComparisonPoint{
			{DS: d(1), Y: 0, YHat: ptr(10.0)},
			{DS: d(2), Y: 30, YHat: ptr(0.0), Test: true},
		},
		Records: []domain.NormalizedRecord{
			{
				CustomerStats: &domain.CustomerStats{CustomerID: "c1", OrderCount: 2, MeanPrice: 12.5},
				ProductStats:  &domain.ProductStats{ProductID: "p1", TotalPrice: 25, MeanPrice: 12.5, OrderCount: 2},
			},
			{
				CustomerStats: &domain.CustomerStats{CustomerID: "c1", OrderCount: 2, MeanPrice: 12.5},
			},
		},
		FilledDays: 1,
	}
}

func TestReportExporter_ExportRun(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{BaseDir: dir, ReportsDir: filepath.Join(dir, "reports")}
	exp := NewReportExporter(paths, nil)

	manifest, err := exp.ExportRun(context.Background(), testResult())
	require.NoError(t, err)

	runDir := paths.GetRunReportDir("run-1")
	assert.Equal(t, runDir, manifest.Dir)
	require.Len(t, manifest.Files, 6)
	for _, f := range manifest.Files {
		assert.FileExists(t, f)
	}

	t.Run("daily features", func(t *testing.T) {
		lines := readLines(t, filepath.Join(runDir, FileDailyFeatures))
		require.Len(t, lines, 4)
		assert.Equal(t, "ds,y,order_count,avg_order_value,filled,month,iso_week,day_of_week,is_weekend,lag_1,lag_7,lag_30,rolling_7_mean,rolling_30_mean,rolling_90_mean", lines[0])
		assert.Equal(t, "2018-01-02,0.00,0,,true,1,1,1,false,10,,,,,", lines[2])
	})

	t.Run("forecast", func(t *testing.T) {
		lines := readLines(t, filepath.Join(runDir, FileForecast))
		assert.Equal(t, []string{"model,ds,yhat,in_sample", "naive,2018-01-02,10,true", "naive,2018-01-03,0,false"}, lines)
	})

	t.Run("comparison window", func(t *testing.T) {
		lines := readLines(t, filepath.Join(runDir, FileComparisonWindow))
		assert.Equal(t, []string{"ds,y,yhat,test", "2018-01-02,0,10,false", "2018-01-03,30,0,true"}, lines)
	})

	t.Run("metrics", func(t *testing.T) {
		lines := readLines(t, filepath.Join(runDir, FileMetrics))
		require.Len(t, lines, 3)
		assert.Equal(t, "naive,1,2,1,2018-01-03,30,30,100,0,1", lines[1])
		assert.Equal(t, "naive_baseline,1,2,1,2018-01-03,30,30,,0,1", lines[2])
	})

	t.Run("entity features", func(t *testing.T) {
		lines := readLines(t, filepath.Join(runDir, FileEntityFeatures))
		assert.Equal(t, []string{
			"entity_type,entity_id,order_count,total_price,mean_price",
			"customer,c1,2,,12.50",
			"product,p1,2,25.00,12.50",
		}, lines)
	})

	t.Run("workbook", func(t *testing.T) {
		f, err := excelize.OpenFile(filepath.Join(runDir, FileReportWorkbook))
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{SheetSummary, SheetComparison, SheetForecast, SheetFeatures}, f.GetSheetList())

		rows, err := f.GetRows(SheetComparison)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"ds", "y", "yhat", "test"}, rows[0])

		model, err := f.GetCellValue(SheetSummary, "B2")
		require.NoError(t, err)
		assert.Equal(t, "naive", model)
	})
}

func TestReportExporter_MetricsHistoryAccumulates(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{BaseDir: dir, ReportsDir: filepath.Join(dir, "reports")}
	exp := NewReportExporter(paths, nil)

	first := testResult()
	second := testResult()
	second.RunID = "run-2"

	_, err := exp.ExportRun(context.Background(), first)
	require.NoError(t, err)
	_, err = exp.ExportRun(context.Background(), second)
	require.NoError(t, err)

	lines := readLines(t, paths.GetReportPath(FileMetricsHistory))
	require.Len(t, lines, 5)
	assert.Equal(t, "run_id,model,horizon,train_size,test_size,test_start,mae,rmse,mape,mape_excluded,n", lines[0])
	assert.Contains(t, lines[1], "run-1,naive,")
	assert.Contains(t, lines[3], "run-2,naive,")
}

func TestReportExporter_NothingToExport(t *testing.T) {
	exp := NewReportExporter(&config.Paths{ReportsDir: t.TempDir()}, nil)
	_, err := exp.ExportRun(context.Background(), &pipeline.Result{RunID: "x"})
	assert.Error(t, err)
}

func TestEntityRows_Sorted(t *testing.T) {
	rows := entityRows([]domain.NormalizedRecord{
		{ProductStats: &domain.ProductStats{ProductID: "p2"}},
		{CustomerStats: &domain.CustomerStats{CustomerID: "c9"}},
		{ProductStats: &domain.ProductStats{ProductID: "p1"}},
		{CustomerStats: &domain.CustomerStats{CustomerID: "c1"}},
	})
	var ids []string
	for _, r := range rows {
		ids = append(ids, r[1])
	}
	assert.Equal(t, []string{"c1", "c9", "p1", "p2"}, ids)
}

func TestReportExporter_FileNamesFromConfig(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{BaseDir: dir, ReportsDir: filepath.Join(dir, "reports")}
	exp := NewReportExporter(paths, nil)

	manifest, err := exp.ExportRun(context.Background(), testResult())
	require.NoError(t, err)
	runDir := paths.GetRunReportDir("run-1")

	tests := []struct {
		name string
		file string
	}{
		{name: "daily features", file: config.DailyFeaturesReport},
		{name: "forecast", file: config.ForecastReport},
		{name: "comparison window", file: config.ComparisonReport},
		{name: "metrics", file: config.MetricsReport},
		{name: "workbook", file: config.WorkbookReport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, manifest.Files, filepath.Join(runDir, tt.file))
		})
	}
	assert.FileExists(t, paths.GetReportPath(config.MetricsHistoryReport))
}
