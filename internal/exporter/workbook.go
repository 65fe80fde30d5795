package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"revforecast/internal/pipeline"
)

// Workbook sheet names
const (
	SheetSummary    = "Summary"
	SheetComparison = "Comparison"
	SheetForecast   = "Forecast"
	SheetFeatures   = "Features"
)

// writeWorkbook writes the run as an xlsx report. The comparison sheet
// carries a line chart of actual against forecast.
func writeWorkbook(path string, result *pipeline.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetComparison, SheetForecast, SheetFeatures} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	summary := [][]string{
		{"run_id", result.RunID},
		{"model", result.Evaluation.Model},
		{"horizon", formatInt(result.Evaluation.Horizon)},
		{"days", formatInt(len(result.Daily))},
		{"filled_days", formatInt(result.FilledDays)},
		{"undated_records", formatInt(result.UndatedRecords)},
		{"duplicates_dropped", formatInt(result.DuplicatesDropped)},
		{"orders_without_items", formatInt(result.OrdersWithoutItems)},
		{},
	}
	summary = append(summary, metricsHeaders)
	summary = append(summary, metricsRows(result)...)
	if err := writeSheet(f, SheetSummary, nil, summary); err != nil {
		return err
	}

	window := make([][]string, len(result.Window))
	for i, p := range result.Window {
		window[i] = windowRow(p)
	}
	if err := writeSheet(f, SheetComparison, windowHeaders, window); err != nil {
		return err
	}

	var forecast [][]string
	for _, ev := range evaluations(result) {
		for _, p := range ev.Forecast {
			forecast = append(forecast, []string{ev.Model, formatDate(p.DS), formatFloat(p.YHat), formatBool(p.InSample)})
		}
	}
	if err := writeSheet(f, SheetForecast, forecastHeaders, forecast); err != nil {
		return err
	}

	features := make([][]string, len(result.Features))
	for i, r := range result.Features {
		features[i] = featureRow(r)
	}
	if err := writeSheet(f, SheetFeatures, featureHeaders(), features); err != nil {
		return err
	}

	for _, sheet := range []string{SheetComparison, SheetForecast, SheetFeatures} {
		if err := f.SetCellStyle(sheet, "A1", "O1", bold); err != nil {
			return err
		}
	}

	if len(result.Window) > 0 {
		if err := addComparisonChart(f, len(result.Window)); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

// writeSheet writes headers (when given) and rows starting at A1.
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string) error {
	row := 1
	if len(headers) > 0 {
		if err := setRow(f, sheet, row, headers); err != nil {
			return err
		}
		row++
	}
	for _, r := range rows {
		if err := setRow(f, sheet, row, r); err != nil {
			return err
		}
		row++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cells[i] = n
			continue
		}
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// addComparisonChart plots columns y and yhat of the comparison sheet.
func addComparisonChart(f *excelize.File, points int) error {
	last := points + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", SheetComparison, last)
	return f.AddChart(SheetComparison, "F2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$B$1", SheetComparison),
				Categories: categories,
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", SheetComparison, last),
			},
			{
				Name:       fmt.Sprintf("%s!$C$1", SheetComparison),
				Categories: categories,
				Values:     fmt.Sprintf("%s!$C$2:$C$%d", SheetComparison, last),
			},
		},
		Title: []excelize.RichTextRun{{Text: "Actual vs forecast"}},
	})
}
