package loader

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "revforecast/internal/errors"
	"revforecast/pkg/contracts/domain"
)

// requiredColumns are the columns each table must carry to be decoded.
var requiredColumns = map[string][]string{
	domain.TableOrders:              {"order_id", "customer_id"},
	domain.TableCustomers:           {"customer_id"},
	domain.TableOrderItems:          {"order_id", "product_id", "seller_id", "price"},
	domain.TableProducts:            {"product_id"},
	domain.TableSellers:             {"seller_id"},
	domain.TablePayments:            {"order_id"},
	domain.TableReviews:             {"order_id"},
	domain.TableCategoryTranslation: {"product_category_name", "product_category_name_english"},
}

var validate = newValidator()

// newValidator reports field errors under their column (json) names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// rowReader reads typed cells from one raw row. The first failure is kept
// in err and later reads become no-ops.
type rowReader struct {
	table string
	index map[string]int
	cells []string
	line  int
	err   error
}

func (r *rowReader) str(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

// number parses a numeric cell. An empty optional cell reads as zero.
func (r *rowReader) number(column string, required bool) float64 {
	if r.err != nil {
		return 0
	}
	raw := r.str(column)
	if raw == "" {
		if required {
			r.err = apperrors.NewParseError(stageName, r.table, column, r.line, raw, errors.New("empty value"))
		}
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = fmt.Errorf("not a finite number")
	}
	if err != nil {
		r.err = apperrors.NewParseError(stageName, r.table, column, r.line, raw, err)
		return 0
	}
	return v
}

// integer parses an integer cell. Exports that write integers as "3.0" are
// accepted.
func (r *rowReader) integer(column string) int {
	v := r.number(column, false)
	if r.err != nil {
		return 0
	}
	if v != math.Trunc(v) {
		r.err = apperrors.NewParseError(stageName, r.table, column, r.line, r.str(column), errors.New("not an integer"))
		return 0
	}
	return int(v)
}

// decodeRows checks the header of raw and decodes every row with build.
func decodeRows[T any](raw *rawTable, build func(r *rowReader) T) ([]T, error) {
	index := make(map[string]int, len(raw.header))
	for i, col := range raw.header {
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}
	for _, col := range requiredColumns[raw.name] {
		if _, ok := index[col]; !ok {
			return nil, apperrors.NewSchemaError(stageName, raw.name, col)
		}
	}

	out := make([]T, 0, len(raw.rows))
	for i, cells := range raw.rows {
		if isBlank(cells) {
			continue
		}
		r := &rowReader{table: raw.name, index: index, cells: cells, line: i + 2}
		rec := build(r)
		if r.err != nil {
			return nil, r.err
		}
		if err := validate.Struct(rec); err != nil {
			return nil, validationError(raw.name, r, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// validationError converts the first validator failure into a parse error
// naming the offending column.
func validationError(table string, r *rowReader, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewParseError(stageName, table, fe.Field(), r.line, r.str(fe.Field()),
			fmt.Errorf("failed %q validation", fe.Tag()))
	}
	return apperrors.NewParseError(stageName, table, "", r.line, "", err)
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// decodeInto decodes raw into the matching slice of set.
func decodeInto(set *domain.TableSet, raw *rawTable) error {
	var err error
	switch raw.name {
	case domain.TableOrders:
		set.Orders, err = decodeRows(raw, func(r *rowReader) domain.Order {
			return domain.Order{
				OrderID:               r.str("order_id"),
				CustomerID:            r.str("customer_id"),
				Status:                r.str("order_status"),
				PurchaseTimestamp:     r.str(domain.ColumnPurchaseTimestamp),
				ApprovedAt:            r.str(domain.ColumnApprovedAt),
				DeliveredCarrierDate:  r.str(domain.ColumnDeliveredCarrierDate),
				DeliveredCustomerDate: r.str(domain.ColumnDeliveredCustomerDate),
				EstimatedDeliveryDate: r.str(domain.ColumnEstimatedDeliveryDate),
			}
		})
	case domain.TableCustomers:
		set.Customers, err = decodeRows(raw, func(r *rowReader) domain.Customer {
			return domain.Customer{
				CustomerID:       r.str("customer_id"),
				CustomerUniqueID: r.str("customer_unique_id"),
				ZipCodePrefix:    r.str("customer_zip_code_prefix"),
				City:             r.str("customer_city"),
				State:            r.str("customer_state"),
			}
		})
	case domain.TableOrderItems:
		set.OrderItems, err = decodeRows(raw, func(r *rowReader) domain.OrderItem {
			return domain.OrderItem{
				OrderID:           r.str("order_id"),
				ItemSeq:           r.integer("order_item_id"),
				ProductID:         r.str("product_id"),
				SellerID:          r.str("seller_id"),
				ShippingLimitDate: r.str("shipping_limit_date"),
				Price:             r.number("price", true),
				FreightValue:      r.number("freight_value", false),
			}
		})
	case domain.TableProducts:
		set.Products, err = decodeRows(raw, func(r *rowReader) domain.Product {
			return domain.Product{
				ProductID:    r.str("product_id"),
				CategoryName: r.str("product_category_name"),
				PhotosQty:    r.integer("product_photos_qty"),
				WeightGrams:  r.number("product_weight_g", false),
			}
		})
	case domain.TableSellers:
		set.Sellers, err = decodeRows(raw, func(r *rowReader) domain.Seller {
			return domain.Seller{
				SellerID:      r.str("seller_id"),
				ZipCodePrefix: r.str("seller_zip_code_prefix"),
				City:          r.str("seller_city"),
				State:         r.str("seller_state"),
			}
		})
	case domain.TablePayments:
		set.Payments, err = decodeRows(raw, func(r *rowReader) domain.Payment {
			return domain.Payment{
				OrderID:      r.str("order_id"),
				Sequential:   r.integer("payment_sequential"),
				Type:         r.str("payment_type"),
				Installments: r.integer("payment_installments"),
				Value:        r.number("payment_value", false),
			}
		})
	case domain.TableReviews:
		set.Reviews, err = decodeRows(raw, func(r *rowReader) domain.Review {
			return domain.Review{
				ReviewID:        r.str("review_id"),
				OrderID:         r.str("order_id"),
				Score:           r.integer("review_score"),
				CreationDate:    r.str("review_creation_date"),
				AnswerTimestamp: r.str("review_answer_timestamp"),
			}
		})
	case domain.TableCategoryTranslation:
		set.CategoryTranslations, err = decodeRows(raw, func(r *rowReader) domain.CategoryTranslation {
			return domain.CategoryTranslation{
				CategoryName:        r.str("product_category_name"),
				CategoryNameEnglish: r.str("product_category_name_english"),
			}
		})
	default:
		return fmt.Errorf("unknown table %q", raw.name)
	}
	return err
}
