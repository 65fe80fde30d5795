package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	apperrors "revforecast/internal/errors"
	"revforecast/pkg/contracts/domain"
)

const stageAggregate = "aggregate"

// Aggregator collapses normalized records into one point per calendar day.
type Aggregator struct {
	variant domain.AggregationVariant
	logger  *slog.Logger
}

// NewAggregator creates an aggregator for the given variant
func NewAggregator(variant domain.AggregationVariant, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		variant: variant,
		logger:  logger.With(slog.String("component", "aggregator")),
	}
}

type dayAccumulator struct {
	revenue decimal.Decimal
	orders  map[string]struct{}
}

// Aggregate sums line-item prices per canonical date. The orders variant
// also counts distinct orders and the mean order value. Records with an
// unknown date are left out and counted in excluded. Output is sorted by
// date with one point per date present in the input.
func (a *Aggregator) Aggregate(ctx context.Context, records []domain.NormalizedRecord) (points []domain.DailyPoint, excluded int, err error) {
	if a.variant != domain.VariantRevenue && a.variant != domain.VariantOrders {
		return nil, 0, apperrors.NewAppValidationError(fmt.Sprintf("unknown aggregation variant %q", a.variant)).
			WithContext(apperrors.CtxStage, stageAggregate)
	}

	days := make(map[time.Time]*dayAccumulator)
	for i, rec := range records {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}
		if !rec.HasDate() {
			excluded++
			continue
		}

		acc, ok := days[rec.Calendar.Date]
		if !ok {
			acc = &dayAccumulator{revenue: decimal.Zero, orders: make(map[string]struct{})}
			days[rec.Calendar.Date] = acc
		}
		if price, ok := rec.Price(); ok {
			acc.revenue = acc.revenue.Add(decimal.NewFromFloat(price))
		}
		acc.orders[rec.Order.OrderID] = struct{}{}
	}

	dates := make([]time.Time, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	points = make([]domain.DailyPoint, len(dates))
	for i, d := range dates {
		acc := days[d]
		p := domain.DailyPoint{DS: d, Y: acc.revenue.InexactFloat64()}
		if a.variant == domain.VariantOrders {
			count := len(acc.orders)
			p.OrderCount = &count
			if count > 0 {
				aov := acc.revenue.Div(decimal.NewFromInt(int64(count))).InexactFloat64()
				p.AvgOrderValue = &aov
			}
		}
		points[i] = p
	}

	a.logger.InfoContext(ctx, "Daily series aggregated",
		slog.String("variant", string(a.variant)),
		slog.Int("records", len(records)),
		slog.Int("days", len(points)),
		slog.Int("excluded_unknown_date", excluded))

	return points, excluded, nil
}
