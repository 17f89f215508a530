// Package table builds the in-memory tables every dashboard view reads from
// and computes their derived columns.
package table

import (
	"fmt"
	"time"

	"sales-dashboard/internal/models"
)

// DateLayouts lists the accepted date and timestamp formats, tried in order
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05-07:00",
}

// CustomerRow is a customer with its derived age. Age is nil when the
// birthdate could not be used.
type CustomerRow struct {
	models.Customer
	Birth time.Time `json:"-"`
	Age   *int      `json:"age"`
}

// OrderRow is a flat order with its date parts
type OrderRow struct {
	models.FlatOrderView
	Date      time.Time `json:"-"`
	Dated     bool      `json:"-"`
	Year      int       `json:"year,omitempty"`
	Month     int       `json:"month,omitempty"`
	MonthName string    `json:"month_name,omitempty"`
}

// DetailRow is a flat order line with its parsed order date
type DetailRow struct {
	models.FlatOrderDetailView
	Date  time.Time `json:"-"`
	Dated bool      `json:"-"`
}

// Input is the flattened result of one load
type Input struct {
	Customers []models.Customer
	Orders    []models.FlatOrderView
	Products  []models.Product
	Details   []models.FlatOrderDetailView
}

// Dataset holds the four tables of one render cycle. It is read-only once
// built.
type Dataset struct {
	Customers []CustomerRow
	Orders    []OrderRow
	Products  []models.Product
	Details   []DetailRow
	Warnings  []models.Warning
}

// Warn appends a parse warning for one field of a table
func (d *Dataset) Warn(entity, field, format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, models.Warning{
		Kind:    models.WarningParse,
		Entity:  entity,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// ParseDate parses s with the first matching layout. Layouts without a zone
// are read in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// MaxAge is the oldest age accepted from a birthdate
const MaxAge = 150

const secondsPerDay = 24 * 60 * 60

// Age returns the whole number of 365-day years between birth and now.
// Days are counted on Unix seconds so spans longer than a time.Duration
// stay exact.
func Age(birth, now time.Time) int {
	days := floorDiv(now.Unix()-birth.Unix(), secondsPerDay)
	return int(floorDiv(days, 365))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Build converts the flattened rows into tables and derives age and date
// columns relative to now.
func Build(in Input, now time.Time) *Dataset {
	ds := &Dataset{
		Customers: make([]CustomerRow, 0, len(in.Customers)),
		Orders:    make([]OrderRow, 0, len(in.Orders)),
		Products:  make([]models.Product, 0, len(in.Products)),
		Details:   make([]DetailRow, 0, len(in.Details)),
	}
	loc := now.Location()

	for _, c := range in.Customers {
		row := CustomerRow{Customer: c}
		birth, err := ParseDate(c.Birthdate, loc)
		switch {
		case err != nil:
			ds.Warn("customer", "birthdate", "customer %d: birthdate: %v", c.CustomerID, err)
		case birth.After(now):
			ds.Warn("customer", "birthdate", "customer %d: birthdate %s is in the future", c.CustomerID, c.Birthdate)
		default:
			age := Age(birth, now)
			if age > MaxAge {
				ds.Warn("customer", "birthdate", "customer %d: birthdate %s gives implausible age %d", c.CustomerID, c.Birthdate, age)
				break
			}
			row.Birth = birth
			row.Age = &age
		}
		ds.Customers = append(ds.Customers, row)
	}

	for _, o := range in.Orders {
		if o.TotalAmount.IsNegative() {
			ds.Warn("order", "total_amount", "order %d: negative total_amount %s", o.OrderID, o.TotalAmount)
			continue
		}
		row := OrderRow{FlatOrderView: o}
		if date, err := ParseDate(o.OrderDate, loc); err != nil {
			ds.Warn("order", "order_date", "order %d: order_date: %v", o.OrderID, err)
		} else {
			row.Date = date
			row.Dated = true
			row.Year = date.Year()
			row.Month = int(date.Month())
			row.MonthName = date.Month().String()
		}
		ds.Orders = append(ds.Orders, row)
	}

	for _, p := range in.Products {
		if p.Price.IsNegative() {
			ds.Warn("product", "price", "product %d: negative price %s", p.ProductID, p.Price)
			continue
		}
		if p.Stock < 0 {
			ds.Warn("product", "stock", "product %d: negative stock %d", p.ProductID, p.Stock)
			continue
		}
		ds.Products = append(ds.Products, p)
	}

	for _, d := range in.Details {
		if d.Quantity <= 0 {
			ds.Warn("order_detail", "quantity", "order detail %d: non-positive quantity %d", d.OrderDetailID, d.Quantity)
			continue
		}
		row := DetailRow{FlatOrderDetailView: d}
		if date, err := ParseDate(d.OrderDate, loc); err != nil {
			ds.Warn("order_detail", "order_date", "order detail %d: order_date: %v", d.OrderDetailID, err)
		} else {
			row.Date = date
			row.Dated = true
		}
		ds.Details = append(ds.Details, row)
	}

	return ds
}

// Ages returns the known ages of rows, in row order
func Ages(rows []CustomerRow) []int {
	ages := make([]int, 0, len(rows))
	for _, r := range rows {
		if r.Age != nil {
			ages = append(ages, *r.Age)
		}
	}
	return ages
}
