package config

const (
	// Olist file names of each raw table.
	CustomersFile           = "olist_customers_dataset.csv"
	OrdersFile              = "olist_orders_dataset.csv"
	OrderItemsFile          = "olist_order_items_dataset.csv"
	ProductsFile            = "olist_products_dataset.csv"
	SellersFile             = "olist_sellers_dataset.csv"
	PaymentsFile            = "olist_order_payments_dataset.csv"
	ReviewsFile             = "olist_order_reviews_dataset.csv"
	CategoryTranslationFile = "product_category_name_translation.csv"

	// Report file names written by a pipeline run.
	DailyFeaturesReport  = "daily_features.csv"
	ForecastReport       = "forecast.csv"
	ComparisonReport     = "comparison_window.csv"
	MetricsReport        = "metrics.csv"
	EntityFeaturesReport = "entity_features.csv"
	WorkbookReport       = "forecast_report.xlsx"
	MetricsHistoryReport = "metrics_history.csv"
)

// DefaultTableFiles maps table names to their Olist file names.
func DefaultTableFiles() map[string]string {
	return map[string]string{
		"customers":            CustomersFile,
		"orders":               OrdersFile,
		"order_items":          OrderItemsFile,
		"products":             ProductsFile,
		"sellers":              SellersFile,
		"payments":             PaymentsFile,
		"reviews":              ReviewsFile,
		"category_translation": CategoryTranslationFile,
	}
}

// TableFiles returns the file map with any configured overrides applied.
func (l LoaderConfig) TableFiles() map[string]string {
	files := DefaultTableFiles()
	for table, name := range l.Files {
		files[table] = name
	}
	return files
}
