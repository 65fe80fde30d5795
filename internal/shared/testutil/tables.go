package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"revforecast/internal/config"
	"revforecast/pkg/contracts/domain"
)

// FirstDay is the purchase date of the first synthetic order.
var FirstDay = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

// SyntheticTables builds days of daily orders with a weekly price pattern.
// Every day i with i%11 == 5 has no orders, except the last day, so gap
// filling has work to do.
func SyntheticTables(days int) *domain.TableSet {
	ts := domain.NewTableSet()
	for c := 0; c < 5; c++ {
		ts.Customers = append(ts.Customers, domain.Customer{CustomerID: fmt.Sprintf("c%d", c), State: "SP"})
	}
	for p := 0; p < 3; p++ {
		ts.Products = append(ts.Products, domain.Product{ProductID: fmt.Sprintf("p%d", p), CategoryName: "casa"})
	}
	ts.Sellers = []domain.Seller{{SellerID: "s1", City: "campinas"}}

	for i := 0; i < days; i++ {
		if i%11 == 5 && i != days-1 {
			continue
		}
		orderID := fmt.Sprintf("o%d", i)
		price := 100 + 10*float64(i%7)
		ts.Orders = append(ts.Orders, domain.Order{
			OrderID:           orderID,
			CustomerID:        fmt.Sprintf("c%d", i%5),
			Status:            "delivered",
			PurchaseTimestamp: FirstDay.AddDate(0, 0, i).Add(10 * time.Hour).Format("2006-01-02 15:04:05"),
		})
		ts.OrderItems = append(ts.OrderItems, domain.OrderItem{
			OrderID:   orderID,
			ItemSeq:   1,
			ProductID: fmt.Sprintf("p%d", i%3),
			SellerID:  "s1",
			Price:     price,
		})
		ts.Payments = append(ts.Payments, domain.Payment{
			OrderID: orderID, Sequential: 1, Type: "credit_card", Installments: 1,
			Value: price,
		})
	}
	return ts
}

// WriteTablesCSV writes ts into dir using the default Olist file names.
func WriteTablesCSV(t *testing.T, dir string, ts *domain.TableSet) {
	t.Helper()

	num := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	tables := map[string][][]string{
		domain.TableOrders:     {{"order_id", "customer_id", "order_status", domain.ColumnPurchaseTimestamp}},
		domain.TableCustomers:  {{"customer_id", "customer_unique_id", "customer_city", "customer_state"}},
		domain.TableOrderItems: {{"order_id", "order_item_id", "product_id", "seller_id", "price", "freight_value"}},
		domain.TableProducts:   {{"product_id", "product_category_name"}},
		domain.TableSellers:    {{"seller_id", "seller_city", "seller_state"}},
		domain.TablePayments:   {{"order_id", "payment_sequential", "payment_type", "payment_installments", "payment_value"}},
		domain.TableReviews:    {{"review_id", "order_id", "review_score", "review_creation_date"}},
	}
	for _, o := range ts.Orders {
		tables[domain.TableOrders] = append(tables[domain.TableOrders], []string{o.OrderID, o.CustomerID, o.Status, o.PurchaseTimestamp})
	}
	for _, c := range ts.Customers {
		tables[domain.TableCustomers] = append(tables[domain.TableCustomers], []string{c.CustomerID, c.CustomerUniqueID, c.City, c.State})
	}
	for _, it := range ts.OrderItems {
		tables[domain.TableOrderItems] = append(tables[domain.TableOrderItems],
			[]string{it.OrderID, strconv.Itoa(it.ItemSeq), it.ProductID, it.SellerID, num(it.Price), num(it.FreightValue)})
	}
	for _, p := range ts.Products {
		tables[domain.TableProducts] = append(tables[domain.TableProducts], []string{p.ProductID, p.CategoryName})
	}
	for _, s := range ts.Sellers {
		tables[domain.TableSellers] = append(tables[domain.TableSellers], []string{s.SellerID, s.City, s.State})
	}
	for _, p := range ts.Payments {
		tables[domain.TablePayments] = append(tables[domain.TablePayments],
			[]string{p.OrderID, strconv.Itoa(p.Sequential), p.Type, strconv.Itoa(p.Installments), num(p.Value)})
	}
	for _, r := range ts.Reviews {
		tables[domain.TableReviews] = append(tables[domain.TableReviews],
			[]string{r.ReviewID, r.OrderID, strconv.Itoa(r.Score), r.CreationDate})
	}

	files := config.DefaultTableFiles()
	for table, rows := range tables {
		f, err := os.Create(filepath.Join(dir, files[table]))
		if err != nil {
			t.Fatalf("create %s: %v", table, err)
		}
		w := csv.NewWriter(f)
		if err := w.WriteAll(rows); err != nil {
			t.Fatalf("write %s: %v", table, err)
		}
		f.Close()
	}
}
