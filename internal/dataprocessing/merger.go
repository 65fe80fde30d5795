package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	apperrors "revforecast/internal/errors"
	"revforecast/pkg/contracts/domain"
)

const stageMerge = "merge"

// joinKeys lists, per table, the columns the merge relies on.
var joinKeys = []struct {
	table   string
	columns []string
}{
	{domain.TableOrders, []string{"order_id", "customer_id"}},
	{domain.TableCustomers, []string{"customer_id"}},
	{domain.TableOrderItems, []string{"order_id", "product_id", "seller_id"}},
	{domain.TableProducts, []string{"product_id"}},
	{domain.TableSellers, []string{"seller_id"}},
	{domain.TablePayments, []string{"order_id"}},
	{domain.TableReviews, []string{"order_id"}},
}

// Merger joins the raw tables into one record per order line item.
type Merger struct {
	logger *slog.Logger
}

// NewMerger creates a table merger
func NewMerger(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{logger: logger.With(slog.String("component", "merger"))}
}

// Merge left-joins every table onto orders in the fixed order customers,
// order items, products, sellers, payments, reviews. Order items is the
// only one-to-many join: an order with N items yields N records and an
// order with none yields one record with a nil item. Payments and reviews
// are collapsed to one row per order first so their joins stay
// many-to-one. Exact duplicate rows are dropped from every table before
// joining. The input is not modified.
func (m *Merger) Merge(ctx context.Context, tables *domain.TableSet) (*domain.MergedSet, error) {
	if err := CheckJoinKeys(tables); err != nil {
		return nil, err
	}

	orders, d1 := dedupe(tables.Orders)
	customers, d2 := dedupe(tables.Customers)
	items, d3 := dedupe(tables.OrderItems)
	products, d4 := dedupe(tables.Products)
	sellers, d5 := dedupe(tables.Sellers)
	payments, d6 := dedupe(tables.Payments)
	reviews, d7 := dedupe(tables.Reviews)
	dropped := d1 + d2 + d3 + d4 + d5 + d6 + d7

	customerByID := indexFirst(customers, func(c domain.Customer) string { return c.CustomerID })
	productByID := indexFirst(products, func(p domain.Product) string { return p.ProductID })
	sellerByID := indexFirst(sellers, func(s domain.Seller) string { return s.SellerID })
	paymentByOrder := CollapsePayments(payments)
	reviewByOrder := LatestReviews(reviews)

	itemsByOrder := make(map[string][]*domain.OrderItem)
	for i := range items {
		it := &items[i]
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}

	out := &domain.MergedSet{
		OrderColumns:      append([]string(nil), tables.Columns[domain.TableOrders]...),
		Records:           make([]domain.OrderRecord, 0, len(items)),
		DuplicatesDropped: dropped,
	}

	for i, order := range orders {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		base := domain.OrderRecord{
			Order:    order,
			Customer: customerByID[order.CustomerID],
			Payment:  paymentByOrder[order.OrderID],
			Review:   reviewByOrder[order.OrderID],
		}

		orderItems := itemsByOrder[order.OrderID]
		if len(orderItems) == 0 {
			out.Records = append(out.Records, base)
			out.OrdersWithoutItems++
			continue
		}

		for _, it := range orderItems {
			rec := base
			rec.Item = it
			rec.Product = productByID[it.ProductID]
			rec.Seller = sellerByID[it.SellerID]
			out.Records = append(out.Records, rec)
		}
	}

	m.logger.InfoContext(ctx, "Tables merged",
		slog.Int("orders", len(orders)),
		slog.Int("items", len(items)),
		slog.Int("records", len(out.Records)),
		slog.Int("duplicates_dropped", dropped),
		slog.Int("orders_without_items", out.OrdersWithoutItems))

	return out, nil
}

// CheckJoinKeys verifies that every required table is present and carries
// its join keys.
func CheckJoinKeys(tables *domain.TableSet) error {
	if tables == nil {
		return apperrors.NewSchemaError(stageMerge, domain.TableOrders, "")
	}
	for _, jk := range joinKeys {
		if _, ok := tables.Columns[jk.table]; !ok {
			return apperrors.NewSchemaError(stageMerge, jk.table, "")
		}
		for _, col := range jk.columns {
			if !tables.HasColumn(jk.table, col) {
				return apperrors.NewSchemaError(stageMerge, jk.table, col)
			}
		}
	}
	return nil
}

// dedupe drops exact duplicate rows, keeping the first occurrence and the
// original order.
func dedupe[T comparable](rows []T) ([]T, int) {
	seen := make(map[T]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out, len(rows) - len(out)
}

// indexFirst maps each key to its first row so the join stays many-to-one
// even when a key repeats with different attributes.
func indexFirst[T any](rows []T, key func(T) string) map[string]*T {
	idx := make(map[string]*T, len(rows))
	for i := range rows {
		k := key(rows[i])
		if _, ok := idx[k]; !ok {
			idx[k] = &rows[i]
		}
	}
	return idx
}

// CollapsePayments reduces the payments of each order to one summary:
// values summed, the largest installment count, and the type of the
// lowest payment sequence number.
func CollapsePayments(payments []domain.Payment) map[string]*domain.PaymentSummary {
	type acc struct {
		summary domain.PaymentSummary
		total   decimal.Decimal
		minSeq  int
	}
	groups := make(map[string]*acc)
	for _, p := range payments {
		a, ok := groups[p.OrderID]
		if !ok {
			a = &acc{
				summary: domain.PaymentSummary{OrderID: p.OrderID, PrimaryType: p.Type},
				total:   decimal.Zero,
				minSeq:  p.Sequential,
			}
			groups[p.OrderID] = a
		}
		a.summary.Count++
		a.total = a.total.Add(decimal.NewFromFloat(p.Value))
		if p.Installments > a.summary.MaxInstallments {
			a.summary.MaxInstallments = p.Installments
		}
		if p.Sequential < a.minSeq {
			a.minSeq = p.Sequential
			a.summary.PrimaryType = p.Type
		}
	}

	out := make(map[string]*domain.PaymentSummary, len(groups))
	for id, a := range groups {
		s := a.summary
		s.TotalValue = a.total.InexactFloat64()
		out[id] = &s
	}
	return out
}

// LatestReviews keeps the most recently created review of each order.
// Equal or unparsable creation dates are ordered by review id, the larger
// id winning; an unparsable date sorts before any valid one.
func LatestReviews(reviews []domain.Review) map[string]*domain.Review {
	type best struct {
		review  *domain.Review
		created time.Time
		valid   bool
	}
	groups := make(map[string]*best)
	for i := range reviews {
		r := &reviews[i]
		created, valid := ParseTimestamp(r.CreationDate)

		b, ok := groups[r.OrderID]
		if !ok {
			groups[r.OrderID] = &best{review: r, created: created, valid: valid}
			continue
		}

		newer := false
		switch {
		case valid && !b.valid:
			newer = true
		case valid == b.valid && created.After(b.created):
			newer = true
		case valid == b.valid && created.Equal(b.created):
			newer = r.ReviewID > b.review.ReviewID
		}
		if newer {
			b.review, b.created, b.valid = r, created, valid
		}
	}

	out := make(map[string]*domain.Review, len(groups))
	for id, b := range groups {
		out[id] = b.review
	}
	return out
}
