package pipeline

import (
	"revforecast/internal/forecast"
	"revforecast/internal/shared/testutil"
	"revforecast/pkg/contracts/domain"
)

var (
	firstDay        = testutil.FirstDay
	syntheticTables = testutil.SyntheticTables
)

func testOptions() Options {
	return Options{
		Horizon:         7,
		Model:           forecast.NameHoltWinters,
		Variant:         domain.VariantOrders,
		TargetColumn:    domain.ColumnY,
		RollingPolicy:   "full",
		TimestampColumn: domain.ColumnPurchaseTimestamp,
		EntityScope:     EntityScopeTrain,
		MAPE:            true,
		Baseline:        true,
		PlotWindow:      20,
		Engine:          forecast.DefaultOptions(),
	}
}
