package domain

import "time"

// PaymentSummary collapses every payment of one order into a single row so
// the payments join stays many-to-one.
type PaymentSummary struct {
	OrderID         string  `json:"order_id"`
	Count           int     `json:"payment_count"`
	TotalValue      float64 `json:"payment_value"`
	MaxInstallments int     `json:"payment_installments"`
	PrimaryType     string  `json:"payment_type"`
}

// OrderRecord is one merged row: an order joined with one of its line items
// and the entities that item references. Pointers are nil when the left
// join found no match.
type OrderRecord struct {
	Order    Order           `json:"order"`
	Customer *Customer       `json:"customer,omitempty"`
	Item     *OrderItem      `json:"item,omitempty"`
	Product  *Product        `json:"product,omitempty"`
	Seller   *Seller         `json:"seller,omitempty"`
	Payment  *PaymentSummary `json:"payment,omitempty"`
	Review   *Review         `json:"review,omitempty"`
}

// Price returns the line-item price, or false when the order has no item.
func (r OrderRecord) Price() (float64, bool) {
	if r.Item == nil {
		return 0, false
	}
	return r.Item.Price, true
}

// ProductID returns the product of the line item, or "" without an item.
func (r OrderRecord) ProductID() string {
	if r.Item == nil {
		return ""
	}
	return r.Item.ProductID
}

// MergedSet is the Table Merger output.
type MergedSet struct {
	// OrderColumns is the header of the orders table the records came from.
	OrderColumns []string      `json:"order_columns"`
	Records      []OrderRecord `json:"records"`

	// DuplicatesDropped counts exact duplicate input rows removed before joining.
	DuplicatesDropped int `json:"duplicates_dropped"`
	// OrdersWithoutItems counts orders that produced a record with no item.
	OrdersWithoutItems int `json:"orders_without_items"`
}

// HasOrderColumn reports whether the orders table carried the column.
func (m *MergedSet) HasOrderColumn(column string) bool {
	for _, c := range m.OrderColumns {
		if c == column {
			return true
		}
	}
	return false
}

// Calendar holds the attributes derived from the canonical purchase timestamp.
// DayOfWeek runs 0=Monday..6=Sunday.
type Calendar struct {
	Date      time.Time `json:"date"`
	Month     int       `json:"month"`
	ISOYear   int       `json:"iso_year"`
	ISOWeek   int       `json:"iso_week"`
	DayOfWeek int       `json:"day_of_week"`
	Weekend   bool      `json:"is_weekend"`
}

// CustomerStats are the per-customer entity aggregates.
type CustomerStats struct {
	CustomerID string  `json:"customer_id"`
	OrderCount int     `json:"customer_total_orders"`
	MeanPrice  float64 `json:"customer_avg_price"`
}

// ProductStats are the per-product entity aggregates.
type ProductStats struct {
	ProductID  string  `json:"product_id"`
	TotalPrice float64 `json:"product_total_sales"`
	MeanPrice  float64 `json:"product_avg_price"`
	OrderCount int     `json:"product_order_count"`
}

// NormalizedRecord is a merged record with parsed timestamps and calendar
// attributes. A nil timestamp or Calendar marks an unparsable value.
type NormalizedRecord struct {
	OrderRecord
	Timestamps map[string]*time.Time `json:"timestamps"`
	Calendar   *Calendar             `json:"calendar,omitempty"`

	CustomerStats *CustomerStats `json:"customer_stats,omitempty"`
	ProductStats  *ProductStats  `json:"product_stats,omitempty"`
}

// HasDate reports whether the record has a known canonical date.
func (r NormalizedRecord) HasDate() bool {
	return r.Calendar != nil
}
