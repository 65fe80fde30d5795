package domain

import (
	"fmt"
	"time"
)

// DateLayout is the canonical day format used in exports and API payloads.
const DateLayout = "2006-01-02"

// AggregationVariant selects which daily columns the Aggregator emits.
type AggregationVariant string

const (
	// VariantRevenue emits y = total line-item price only.
	VariantRevenue AggregationVariant = "revenue"
	// VariantOrders additionally emits order count and mean order value.
	VariantOrders AggregationVariant = "orders"
)

// Daily series column names.
const (
	ColumnDS            = "ds"
	ColumnY             = "y"
	ColumnOrderCount    = "order_count"
	ColumnAvgOrderValue = "avg_order_value"
)

// DailyPoint is one calendar day of the aggregated series.
type DailyPoint struct {
	DS            time.Time `json:"ds"`
	Y             float64   `json:"y"`
	OrderCount    *int      `json:"order_count,omitempty"`
	AvgOrderValue *float64  `json:"avg_order_value,omitempty"`
	// Filled marks a day with no recorded sales that gap filling reintroduced.
	Filled bool `json:"filled"`
}

// Value returns the named column. ok is false when the column does not
// exist on this point; a nil value with ok=true is a missing observation.
func (p DailyPoint) Value(column string) (value *float64, ok bool) {
	switch column {
	case ColumnY:
		y := p.Y
		return &y, true
	case ColumnOrderCount:
		if p.OrderCount == nil {
			return nil, false
		}
		c := float64(*p.OrderCount)
		return &c, true
	case ColumnAvgOrderValue:
		if p.OrderCount == nil {
			return nil, false
		}
		return p.AvgOrderValue, true
	}
	return nil, false
}

// Lag steps and rolling windows of the temporal covariates. FeatureRow
// has one field per entry.
var (
	LagSteps       = []int{1, 7, 30}
	RollingWindows = []int{7, 30, 90}
)

// LagColumn names the export column of the lag k covariate.
func LagColumn(k int) string { return fmt.Sprintf("lag_%d", k) }

// RollingColumn names the export column of the window w rolling mean.
func RollingColumn(w int) string { return fmt.Sprintf("rolling_%d_mean", w) }

// FeatureRow is a daily point extended with calendar flags and the
// lag/rolling covariates. Nil covariates are undefined for that row.
type FeatureRow struct {
	DailyPoint

	Month     int  `json:"month"`
	ISOWeek   int  `json:"iso_week"`
	DayOfWeek int  `json:"day_of_week"`
	Weekend   bool `json:"is_weekend"`

	Lag1          *float64 `json:"lag_1"`
	Lag7          *float64 `json:"lag_7"`
	Lag30         *float64 `json:"lag_30"`
	Rolling7Mean  *float64 `json:"rolling_7_mean"`
	Rolling30Mean *float64 `json:"rolling_30_mean"`
	Rolling90Mean *float64 `json:"rolling_90_mean"`
}

func (r *FeatureRow) lagField(k int) **float64 {
	switch k {
	case 1:
		return &r.Lag1
	case 7:
		return &r.Lag7
	case 30:
		return &r.Lag30
	}
	return nil
}

func (r *FeatureRow) rollingField(w int) **float64 {
	switch w {
	case 7:
		return &r.Rolling7Mean
	case 30:
		return &r.Rolling30Mean
	case 90:
		return &r.Rolling90Mean
	}
	return nil
}

// Lag returns the lag covariate for k, or nil for an unknown step.
func (r FeatureRow) Lag(k int) *float64 {
	if f := r.lagField(k); f != nil {
		return *f
	}
	return nil
}

// SetLag stores the lag k covariate. It reports false for an unknown step.
func (r *FeatureRow) SetLag(k int, v *float64) bool {
	f := r.lagField(k)
	if f == nil {
		return false
	}
	*f = v
	return true
}

// RollingMean returns the rolling mean covariate for window w.
func (r FeatureRow) RollingMean(w int) *float64 {
	if f := r.rollingField(w); f != nil {
		return *f
	}
	return nil
}

// SetRollingMean stores the window w rolling mean. It reports false for an
// unknown window.
func (r *FeatureRow) SetRollingMean(w int, v *float64) bool {
	f := r.rollingField(w)
	if f == nil {
		return false
	}
	*f = v
	return true
}

// SeriesPoint is the (ds, y) pair handed to a forecasting model.
type SeriesPoint struct {
	DS time.Time `json:"ds" validate:"required"`
	Y  float64   `json:"y"`
}

// SeriesFromFeatures projects feature rows onto their (ds, y) pairs.
func SeriesFromFeatures(rows []FeatureRow) []SeriesPoint {
	out := make([]SeriesPoint, len(rows))
	for i, r := range rows {
		out[i] = SeriesPoint{DS: r.DS, Y: r.Y}
	}
	return out
}
