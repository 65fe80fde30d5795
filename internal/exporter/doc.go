// Package exporter writes pipeline results to disk.
//
// CSVWriter is the core writer with headers, streaming and an optional
// UTF-8 BOM for Excel. ReportExporter lays out one run's artifacts:
//
//	daily_features.csv     gap-filled daily series with covariates
//	forecast.csv           in-sample fit and future forecast of every model
//	comparison_window.csv  last days of actual next to forecast
//	metrics.csv            accuracy of every model and the naive baseline
//	entity_features.csv    customer and product aggregates
//	forecast_report.xlsx   the same tables as sheets, plus a line chart
//
// Example usage:
//
//	exp := exporter.NewReportExporter(paths, logger)
//	manifest, err := exp.ExportRun(ctx, result)
package exporter
