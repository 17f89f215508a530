package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money columns are NUMERIC in the database and are held as decimals so sums
// stay exact. Conversion to float happens only when a page is rendered.

// Customer represents a row of the customers table
type Customer struct {
	CustomerID int64  `db:"customer_id" json:"customer_id"`
	Name       string `db:"name" json:"name"`
	Email      string `db:"email" json:"email"`
	Phone      string `db:"phone" json:"phone"`
	Address    string `db:"address" json:"address"`
	Birthdate  string `db:"birthdate" json:"birthdate"`
}

// Product represents a product in the catalog
type Product struct {
	ProductID   int64           `db:"product_id" json:"product_id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
}

// CustomerRef is the customer relation nested into order rows
type CustomerRef struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

// ProductRef is the product relation nested into order detail rows
type ProductRef struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}

// OrderRef is the order relation nested into order detail rows. It carries
// its own nested customer.
type OrderRef struct {
	OrderID     int64           `json:"order_id"`
	OrderDate   string          `json:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CustomerID  int64           `json:"customer_id"`
	Customer    *CustomerRef    `json:"customers"`
}

// OrderRow is an order with its customer expanded
type OrderRow struct {
	OrderID     int64                 `db:"order_id" json:"order_id"`
	OrderDate   string                `db:"order_date" json:"order_date"`
	TotalAmount decimal.Decimal       `db:"total_amount" json:"total_amount"`
	CustomerID  int64                 `db:"customer_id" json:"customer_id"`
	Customer    Relation[CustomerRef] `db:"customers" json:"customers"`
}

// OrderDetailRow is an order line with product and order (and the order's
// customer) expanded
type OrderDetailRow struct {
	OrderDetailID int64                `db:"order_detail_id" json:"order_detail_id"`
	OrderID       int64                `db:"order_id" json:"order_id"`
	Quantity      int                  `db:"quantity" json:"quantity"`
	Price         decimal.Decimal      `db:"price" json:"price"`
	Subtotal      decimal.Decimal      `db:"subtotal" json:"subtotal"`
	ProductID     int64                `db:"product_id" json:"product_id"`
	Product       Relation[ProductRef] `db:"products" json:"products"`
	Order         Relation[OrderRef]   `db:"orders" json:"orders"`
}

// FlatOrderView is an order joined with its customer's name and phone
type FlatOrderView struct {
	OrderID      int64           `json:"order_id"`
	OrderDate    string          `json:"order_date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone"`
}

// FlatOrderDetailView is an order line joined with its order, product and customer
type FlatOrderDetailView struct {
	OrderDetailID int64           `json:"order_detail_id"`
	OrderID       int64           `json:"order_id"`
	OrderDate     string          `json:"order_date"`
	CustomerID    int64           `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	OrderTotal    decimal.Decimal `json:"order_total"`
	Phone         string          `json:"phone"`
}

// Snapshot holds the raw results of one load of the four entities
type Snapshot struct {
	Customers    []Customer       `json:"customers"`
	Orders       []OrderRow       `json:"orders"`
	Products     []Product        `json:"products"`
	OrderDetails []OrderDetailRow `json:"order_details"`
}

// Relation is a nested relation expanded by the database as a JSON object.
// A NULL column (the referenced row is missing) leaves Valid false.
type Relation[T any] struct {
	Val   T
	Valid bool
}

// Some returns a present relation
func Some[T any](v T) Relation[T] {
	return Relation[T]{Val: v, Valid: true}
}

// Scan implements sql.Scanner
func (r *Relation[T]) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = Relation[T]{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into relation", src)
	}
	return r.UnmarshalJSON(raw)
}

// MarshalJSON encodes a missing relation as null
func (r Relation[T]) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Val)
}

// UnmarshalJSON decodes null into a missing relation
func (r *Relation[T]) UnmarshalJSON(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Relation[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to decode relation: %w", err)
	}
	*r = Relation[T]{Val: v, Valid: true}
	return nil
}

// Warning kinds
const (
	WarningQuery = "query"
	WarningJoin  = "join"
	WarningParse = "parse"
)

// Warning is a non-fatal condition raised during a render cycle
type Warning struct {
	Kind    string `json:"kind"`
	Entity  string `json:"entity"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}
