// Package resolve flattens nested relation rows into the fixed-shape views the
// table builder consumes.
package resolve

import (
	"errors"
	"fmt"

	"sales-dashboard/internal/models"
)

// ErrMissingRelation is matched by every JoinError
var ErrMissingRelation = errors.New("missing nested relation")

// JoinError reports a row whose referenced record was not expanded
type JoinError struct {
	Entity   string
	Key      int64
	Relation string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("%s %d: missing relation %q", e.Entity, e.Key, e.Relation)
}

func (e *JoinError) Is(target error) bool {
	return target == ErrMissingRelation
}

// Order flattens one order row
func Order(row models.OrderRow) (models.FlatOrderView, error) {
	if !row.Customer.Valid {
		return models.FlatOrderView{}, &JoinError{Entity: "order", Key: row.OrderID, Relation: "customers"}
	}

	return models.FlatOrderView{
		OrderID:      row.OrderID,
		OrderDate:    row.OrderDate,
		TotalAmount:  row.TotalAmount,
		CustomerName: row.Customer.Val.Name,
		Phone:        row.Customer.Val.Phone,
	}, nil
}

// OrderDetail flattens one order detail row. The unit price is taken from the
// product relation.
func OrderDetail(row models.OrderDetailRow) (models.FlatOrderDetailView, error) {
	if !row.Order.Valid {
		return models.FlatOrderDetailView{}, &JoinError{Entity: "order_detail", Key: row.OrderDetailID, Relation: "orders"}
	}
	if row.Order.Val.Customer == nil {
		return models.FlatOrderDetailView{}, &JoinError{Entity: "order_detail", Key: row.OrderDetailID, Relation: "orders.customers"}
	}
	if !row.Product.Valid {
		return models.FlatOrderDetailView{}, &JoinError{Entity: "order_detail", Key: row.OrderDetailID, Relation: "products"}
	}

	order := row.Order.Val
	customer := order.Customer
	product := row.Product.Val

	return models.FlatOrderDetailView{
		OrderDetailID: row.OrderDetailID,
		OrderID:       row.OrderID,
		OrderDate:     order.OrderDate,
		CustomerID:    customer.CustomerID,
		CustomerName:  customer.Name,
		ProductID:     product.ProductID,
		ProductName:   product.Name,
		UnitPrice:     product.Price,
		Quantity:      row.Quantity,
		Subtotal:      row.Subtotal,
		OrderTotal:    order.TotalAmount,
		Phone:         customer.Phone,
	}, nil
}

// Orders flattens rows in input order, skipping and reporting rows that fail
func Orders(rows []models.OrderRow) ([]models.FlatOrderView, []error) {
	out := make([]models.FlatOrderView, 0, len(rows))
	var errs []error
	for _, row := range rows {
		flat, err := Order(row)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, flat)
	}
	return out, errs
}

// OrderDetails flattens rows in input order, skipping and reporting rows that fail
func OrderDetails(rows []models.OrderDetailRow) ([]models.FlatOrderDetailView, []error) {
	out := make([]models.FlatOrderDetailView, 0, len(rows))
	var errs []error
	for _, row := range rows {
		flat, err := OrderDetail(row)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, flat)
	}
	return out, errs
}
