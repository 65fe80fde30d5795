package domain

// Table names supplied by the table loader.
const (
	TableOrders              = "orders"
	TableCustomers           = "customers"
	TableOrderItems          = "order_items"
	TableProducts            = "products"
	TableSellers             = "sellers"
	TablePayments            = "payments"
	TableReviews             = "reviews"
	TableCategoryTranslation = "category_translation"
)

// RequiredTables lists the tables a pipeline run cannot do without, in join order.
var RequiredTables = []string{
	TableOrders,
	TableCustomers,
	TableOrderItems,
	TableProducts,
	TableSellers,
	TablePayments,
	TableReviews,
}

// Order timestamp columns.
const (
	ColumnPurchaseTimestamp     = "order_purchase_timestamp"
	ColumnApprovedAt            = "order_approved_at"
	ColumnDeliveredCarrierDate  = "order_delivered_carrier_date"
	ColumnDeliveredCustomerDate = "order_delivered_customer_date"
	ColumnEstimatedDeliveryDate = "order_estimated_delivery_date"
)

// OrderTimestampColumns lists every timestamp column the orders table may carry.
var OrderTimestampColumns = []string{
	ColumnPurchaseTimestamp,
	ColumnApprovedAt,
	ColumnDeliveredCarrierDate,
	ColumnDeliveredCustomerDate,
	ColumnEstimatedDeliveryDate,
}

// Customer is one row of the customers table.
type Customer struct {
	CustomerID       string `json:"customer_id" validate:"required"`
	CustomerUniqueID string `json:"customer_unique_id"`
	ZipCodePrefix    string `json:"customer_zip_code_prefix"`
	City             string `json:"customer_city"`
	State            string `json:"customer_state"`
}

// Order is one row of the orders table. Timestamps are kept as the raw
// text read from the source; the temporal normalizer parses them.
type Order struct {
	OrderID               string `json:"order_id" validate:"required"`
	CustomerID            string `json:"customer_id" validate:"required"`
	Status                string `json:"order_status"`
	PurchaseTimestamp     string `json:"order_purchase_timestamp"`
	ApprovedAt            string `json:"order_approved_at"`
	DeliveredCarrierDate  string `json:"order_delivered_carrier_date"`
	DeliveredCustomerDate string `json:"order_delivered_customer_date"`
	EstimatedDeliveryDate string `json:"order_estimated_delivery_date"`
}

// Timestamp returns the raw value of the named timestamp column.
func (o Order) Timestamp(column string) (string, bool) {
	switch column {
	case ColumnPurchaseTimestamp:
		return o.PurchaseTimestamp, true
	case ColumnApprovedAt:
		return o.ApprovedAt, true
	case ColumnDeliveredCarrierDate:
		return o.DeliveredCarrierDate, true
	case ColumnDeliveredCustomerDate:
		return o.DeliveredCustomerDate, true
	case ColumnEstimatedDeliveryDate:
		return o.EstimatedDeliveryDate, true
	}
	return "", false
}

// OrderItem is one line item of an order.
type OrderItem struct {
	OrderID           string  `json:"order_id" validate:"required"`
	ItemSeq           int     `json:"order_item_id" validate:"min=0"`
	ProductID         string  `json:"product_id" validate:"required"`
	SellerID          string  `json:"seller_id" validate:"required"`
	ShippingLimitDate string  `json:"shipping_limit_date"`
	Price             float64 `json:"price" validate:"min=0"`
	FreightValue      float64 `json:"freight_value" validate:"min=0"`
}

// Product is one row of the products table.
type Product struct {
	ProductID           string  `json:"product_id" validate:"required"`
	CategoryName        string  `json:"product_category_name"`
	CategoryNameEnglish string  `json:"product_category_name_english,omitempty"`
	PhotosQty           int     `json:"product_photos_qty"`
	WeightGrams         float64 `json:"product_weight_g"`
}

// Seller is one row of the sellers table.
type Seller struct {
	SellerID      string `json:"seller_id" validate:"required"`
	ZipCodePrefix string `json:"seller_zip_code_prefix"`
	City          string `json:"seller_city"`
	State         string `json:"seller_state"`
}

// Payment is one payment installment plan attached to an order.
type Payment struct {
	OrderID      string  `json:"order_id" validate:"required"`
	Sequential   int     `json:"payment_sequential"`
	Type         string  `json:"payment_type"`
	Installments int     `json:"payment_installments" validate:"min=0"`
	Value        float64 `json:"payment_value"`
}

// Review is one customer review of an order.
type Review struct {
	ReviewID        string `json:"review_id"`
	OrderID         string `json:"order_id" validate:"required"`
	Score           int    `json:"review_score" validate:"min=0,max=5"`
	CreationDate    string `json:"review_creation_date"`
	AnswerTimestamp string `json:"review_answer_timestamp"`
}

// CategoryTranslation maps a product category to its English name.
type CategoryTranslation struct {
	CategoryName        string `json:"product_category_name" validate:"required"`
	CategoryNameEnglish string `json:"product_category_name_english"`
}

// TableColumns is the standard header of every table.
var TableColumns = map[string][]string{
	TableOrders: {
		"order_id", "customer_id", "order_status",
		ColumnPurchaseTimestamp, ColumnApprovedAt, ColumnDeliveredCarrierDate,
		ColumnDeliveredCustomerDate, ColumnEstimatedDeliveryDate,
	},
	TableCustomers: {
		"customer_id", "customer_unique_id", "customer_zip_code_prefix",
		"customer_city", "customer_state",
	},
	TableOrderItems: {
		"order_id", "order_item_id", "product_id", "seller_id",
		"shipping_limit_date", "price", "freight_value",
	},
	TableProducts: {
		"product_id", "product_category_name", "product_photos_qty", "product_weight_g",
	},
	TableSellers: {
		"seller_id", "seller_zip_code_prefix", "seller_city", "seller_state",
	},
	TablePayments: {
		"order_id", "payment_sequential", "payment_type",
		"payment_installments", "payment_value",
	},
	TableReviews: {
		"review_id", "order_id", "review_score",
		"review_creation_date", "review_answer_timestamp",
	},
	TableCategoryTranslation: {
		"product_category_name", "product_category_name_english",
	},
}

// NewTableSet returns an empty table set carrying the standard headers.
func NewTableSet() *TableSet {
	t := &TableSet{Columns: make(map[string][]string, len(TableColumns))}
	for table, cols := range TableColumns {
		t.Columns[table] = append([]string(nil), cols...)
	}
	return t
}

// TableSet is the fully materialized input of one pipeline run.
type TableSet struct {
	Orders               []Order               `json:"orders"`
	Customers            []Customer            `json:"customers"`
	OrderItems           []OrderItem           `json:"order_items"`
	Products             []Product             `json:"products"`
	Sellers              []Seller              `json:"sellers"`
	Payments             []Payment             `json:"payments"`
	Reviews              []Review              `json:"reviews"`
	CategoryTranslations []CategoryTranslation `json:"category_translations,omitempty"`

	// Columns records the header of every loaded table, keyed by table name.
	Columns map[string][]string `json:"columns"`
}

// HasColumn reports whether the named table was loaded with the given column.
func (t *TableSet) HasColumn(table, column string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns[table] {
		if c == column {
			return true
		}
	}
	return false
}

// Clone returns a copy whose slices can be modified without touching t.
func (t *TableSet) Clone() *TableSet {
	if t == nil {
		return nil
	}
	c := &TableSet{
		Orders:               append([]Order(nil), t.Orders...),
		Customers:            append([]Customer(nil), t.Customers...),
		OrderItems:           append([]OrderItem(nil), t.OrderItems...),
		Products:             append([]Product(nil), t.Products...),
		Sellers:              append([]Seller(nil), t.Sellers...),
		Payments:             append([]Payment(nil), t.Payments...),
		Reviews:              append([]Review(nil), t.Reviews...),
		CategoryTranslations: append([]CategoryTranslation(nil), t.CategoryTranslations...),
		Columns:              make(map[string][]string, len(t.Columns)),
	}
	for k, v := range t.Columns {
		c.Columns[k] = append([]string(nil), v...)
	}
	return c
}
