// Package dataprocessing turns the raw order tables into a gap-free daily
// series with covariates.
//
// # Architecture
//
// The package is organized into these components:
//
//  1. Merger: joins the tables into one record per order line item
//  2. Normalizer: parses timestamps and derives calendar attributes
//  3. Aggregator: collapses records into one point per calendar day
//  4. GapFillProcessor: reintroduces days without sales as zero points
//  5. CovariateBuilder: adds calendar flags, lags and rolling means
//  6. EntityFeatureBuilder: joins customer and product aggregates back
//     onto the records
//
// # Usage
//
//	merged, err := dataprocessing.NewMerger(logger).Merge(ctx, tables)
//	records, err := dataprocessing.NewNormalizer(domain.ColumnPurchaseTimestamp, logger).Normalize(ctx, merged)
//	daily, excluded, err := dataprocessing.NewAggregator(domain.VariantOrders, logger).Aggregate(ctx, records)
//	filled := dataprocessing.NewGapFillProcessor().FillGaps(daily)
//	rows, err := dataprocessing.NewCovariateBuilder(domain.ColumnY, dataprocessing.RollingFull, logger).Build(ctx, filled)
//
// # Data Flow
//
//	TableSet → Merger → Normalizer → Aggregator → GapFillProcessor → CovariateBuilder → FeatureRows
//
// # Error Handling
//
// Structural problems fail the stage with an internal/errors AppError that
// names the stage and the missing table or column. Row-level problems such
// as unparsable timestamps are tolerated: the value is marked unknown,
// counted, and reported once per stage in the log.
//
// Every stage returns a new value and leaves its input untouched.
package dataprocessing
