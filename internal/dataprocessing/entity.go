package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"revforecast/pkg/contracts/domain"
)

// EntityFeatureBuilder joins per-customer and per-product aggregates back
// onto the normalized records.
type EntityFeatureBuilder struct {
	logger *slog.Logger
}

// NewEntityFeatureBuilder creates an entity feature builder
func NewEntityFeatureBuilder(logger *slog.Logger) *EntityFeatureBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntityFeatureBuilder{logger: logger.With(slog.String("component", "entity_features"))}
}

// Attach computes the entity aggregates and returns a copy of records with
// the matching stats set. With a cutoff only records dated strictly before
// it contribute, so held-out days never inform the aggregates; records with
// an unknown date are then ignored too. A nil cutoff uses every record.
// Every record whose entity has stats receives them, whatever its date.
func (b *EntityFeatureBuilder) Attach(ctx context.Context, records []domain.NormalizedRecord, cutoff *time.Time) ([]domain.NormalizedRecord, error) {
	source := records
	if cutoff != nil {
		source = make([]domain.NormalizedRecord, 0, len(records))
		for _, r := range records {
			if r.HasDate() && r.Calendar.Date.Before(*cutoff) {
				source = append(source, r)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	customers := CustomerStatsFrom(source)
	products := ProductStatsFrom(source)

	out := make([]domain.NormalizedRecord, len(records))
	withCustomer, withProduct := 0, 0
	for i, r := range records {
		if s, ok := customers[r.Order.CustomerID]; ok {
			r.CustomerStats = s
			withCustomer++
		} else {
			r.CustomerStats = nil
		}
		if s, ok := products[r.ProductID()]; ok {
			r.ProductStats = s
			withProduct++
		} else {
			r.ProductStats = nil
		}
		out[i] = r
	}

	attrs := []any{
		slog.Int("source_records", len(source)),
		slog.Int("customers", len(customers)),
		slog.Int("products", len(products)),
		slog.Int("records_with_customer_stats", withCustomer),
		slog.Int("records_with_product_stats", withProduct),
	}
	if cutoff != nil {
		attrs = append(attrs, slog.String("cutoff", cutoff.Format(domain.DateLayout)))
	}
	b.logger.InfoContext(ctx, "Entity features attached", attrs...)

	return out, nil
}

type entityAccumulator struct {
	orders     map[string]struct{}
	priceSum   decimal.Decimal
	priceCount int
}

func (a *entityAccumulator) add(orderID string, price float64, hasPrice bool) {
	a.orders[orderID] = struct{}{}
	if hasPrice {
		a.priceSum = a.priceSum.Add(decimal.NewFromFloat(price))
		a.priceCount++
	}
}

func (a *entityAccumulator) mean() float64 {
	if a.priceCount == 0 {
		return 0
	}
	return a.priceSum.Div(decimal.NewFromInt(int64(a.priceCount))).InexactFloat64()
}

func newEntityAccumulator() *entityAccumulator {
	return &entityAccumulator{orders: make(map[string]struct{}), priceSum: decimal.Zero}
}

// CustomerStatsFrom groups records by customer: distinct orders and the
// mean line-item price. Item-less records count as orders but carry no price.
func CustomerStatsFrom(records []domain.NormalizedRecord) map[string]*domain.CustomerStats {
	groups := make(map[string]*entityAccumulator)
	for _, r := range records {
		id := r.Order.CustomerID
		acc, ok := groups[id]
		if !ok {
			acc = newEntityAccumulator()
			groups[id] = acc
		}
		price, hasPrice := r.Price()
		acc.add(r.Order.OrderID, price, hasPrice)
	}

	out := make(map[string]*domain.CustomerStats, len(groups))
	for id, acc := range groups {
		out[id] = &domain.CustomerStats{
			CustomerID: id,
			OrderCount: len(acc.orders),
			MeanPrice:  acc.mean(),
		}
	}
	return out
}

// ProductStatsFrom groups item records by product: total price, mean
// price and distinct orders.
func ProductStatsFrom(records []domain.NormalizedRecord) map[string]*domain.ProductStats {
	groups := make(map[string]*entityAccumulator)
	for _, r := range records {
		price, hasPrice := r.Price()
		if !hasPrice {
			continue
		}
		id := r.ProductID()
		acc, ok := groups[id]
		if !ok {
			acc = newEntityAccumulator()
			groups[id] = acc
		}
		acc.add(r.Order.OrderID, price, true)
	}

	out := make(map[string]*domain.ProductStats, len(groups))
	for id, acc := range groups {
		out[id] = &domain.ProductStats{
			ProductID:  id,
			TotalPrice: acc.priceSum.InexactFloat64(),
			MeanPrice:  acc.mean(),
			OrderCount: len(acc.orders),
		}
	}
	return out
}
