package dataprocessing

import (
	"time"

	"revforecast/pkg/contracts/domain"
)

// testTables is a small dataset exercising every join:
//
//	o1 (c1, Jan 1): two items, two payments, two reviews
//	o2 (c2, Jan 1): one item, two reviews with the same date
//	o3 (c1, Jan 3): one item whose product is unknown
//	o4 (c3, Jan 2): no items, unknown customer
//	o5 (c2, bad timestamp): one item
func testTables() *domain.TableSet {
	ts := domain.NewTableSet()
	ts.Orders = []domain.Order{
		{OrderID: "o1", CustomerID: "c1", Status: "delivered", PurchaseTimestamp: "2018-01-01 10:00:00"},
		{OrderID: "o2", CustomerID: "c2", Status: "delivered", PurchaseTimestamp: "2018-01-01 12:00:00"},
		{OrderID: "o3", CustomerID: "c1", Status: "delivered", PurchaseTimestamp: "2018-01-03 09:00:00"},
		{OrderID: "o4", CustomerID: "c3", Status: "canceled", PurchaseTimestamp: "2018-01-02 08:00:00"},
		{OrderID: "o5", CustomerID: "c2", Status: "delivered", PurchaseTimestamp: "31/31/2018"},
	}
	ts.Customers = []domain.Customer{
		{CustomerID: "c1", City: "sao paulo", State: "SP"},
		{CustomerID: "c1", City: "sao paulo", State: "SP"},
		{CustomerID: "c2", City: "curitiba", State: "PR"},
	}
	ts.OrderItems = []domain.OrderItem{
		{OrderID: "o1", ItemSeq: 1, ProductID: "p1", SellerID: "s1", Price: 10},
		{OrderID: "o1", ItemSeq: 2, ProductID: "p2", SellerID: "s1", Price: 20},
		{OrderID: "o2", ItemSeq: 1, ProductID: "p1", SellerID: "s2", Price: 30},
		{OrderID: "o3", ItemSeq: 1, ProductID: "p3", SellerID: "s1", Price: 5},
		{OrderID: "o5", ItemSeq: 1, ProductID: "p2", SellerID: "s1", Price: 7},
	}
	ts.Products = []domain.Product{
		{ProductID: "p1", CategoryName: "beleza_saude"},
		{ProductID: "p2", CategoryName: "informatica"},
	}
	ts.Sellers = []domain.Seller{
		{SellerID: "s1", City: "campinas"},
	}
	ts.Payments = []domain.Payment{
		{OrderID: "o1", Sequential: 2, Type: "voucher", Installments: 1, Value: 5},
		{OrderID: "o1", Sequential: 1, Type: "credit_card", Installments: 4, Value: 25.1},
		{OrderID: "o2", Sequential: 1, Type: "boleto", Installments: 1, Value: 30},
	}
	ts.Reviews = []domain.Review{
		{ReviewID: "r1", OrderID: "o1", Score: 3, CreationDate: "2018-01-05 00:00:00"},
		{ReviewID: "r2", OrderID: "o1", Score: 5, CreationDate: "2018-01-06 00:00:00"},
		{ReviewID: "r3", OrderID: "o2", Score: 2, CreationDate: "2018-01-04 00:00:00"},
		{ReviewID: "r4", OrderID: "o2", Score: 4, CreationDate: "2018-01-04 00:00:00"},
	}
	return ts
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// datedRecord builds a normalized record with a known date and one item.
func datedRecord(orderID, customerID, productID string, date string, price float64) domain.NormalizedRecord {
	return domain.NormalizedRecord{
		OrderRecord: domain.OrderRecord{
			Order: domain.Order{OrderID: orderID, CustomerID: customerID},
			Item:  &domain.OrderItem{OrderID: orderID, ProductID: productID, Price: price},
		},
		Calendar: CalendarFor(day(date)),
	}
}

// series builds consecutive daily points starting at start.
func series(start string, ys ...float64) []domain.DailyPoint {
	first := day(start)
	out := make([]domain.DailyPoint, len(ys))
	for i, y := range ys {
		out[i] = domain.DailyPoint{DS: first.AddDate(0, 0, i), Y: y}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
