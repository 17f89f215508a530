// Package analytics holds the groupby and aggregation pipelines behind each
// chart. Every function is pure and returns a deterministically ordered
// result.
package analytics

import (
	"sort"
	"time"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/table"

	"github.com/shopspring/decimal"
)

// MonthTotal is a revenue or count bucket for one calendar month. Total is
// the exact sum, Value its float rendering for charts.
type MonthTotal struct {
	Year      int             `json:"year,omitempty"`
	Month     int             `json:"month"`
	MonthName string          `json:"month_name"`
	Total     decimal.Decimal `json:"-"`
	Value     float64         `json:"value"`
}

// NamedTotal is one group of a top-N pipeline
type NamedTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"-"`
	Value float64         `json:"value"`
}

// groupSum sums values by key, keeping keys in first-encountered order
type groupSum struct {
	index map[string]int
	rows  []NamedTotal
}

func newGroupSum() *groupSum {
	return &groupSum{index: make(map[string]int)}
}

func (g *groupSum) add(key string, v decimal.Decimal) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.rows)
		g.index[key] = i
		g.rows = append(g.rows, NamedTotal{Name: key, Total: decimal.Zero})
	}
	g.rows[i].Total = g.rows[i].Total.Add(v)
}

// topN sorts descending by total, ties keeping first-encountered order
func topN(rows []NamedTotal, n int) []NamedTotal {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Total.GreaterThan(rows[j].Total) })
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	for i := range rows {
		rows[i].Value = rows[i].Total.InexactFloat64()
	}
	return rows
}

func monthTotal(year, month int, total decimal.Decimal) MonthTotal {
	return MonthTotal{
		Year:      year,
		Month:     month,
		MonthName: time.Month(month).String(),
		Total:     total,
		Value:     total.InexactFloat64(),
	}
}

var one = decimal.NewFromInt(1)

// MonthlyRevenue sums order totals per (year, month) in chronological order.
// Orders without a parsed date are left out.
func MonthlyRevenue(orders []table.OrderRow) []MonthTotal {
	type key struct{ year, month int }
	sums := make(map[key]decimal.Decimal)
	for _, o := range orders {
		if !o.Dated {
			continue
		}
		k := key{o.Year, o.Month}
		sums[k] = sums[k].Add(o.TotalAmount)
	}

	out := make([]MonthTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, monthTotal(k.year, k.month, v))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func byMonth(orders []table.OrderRow, value func(table.OrderRow) decimal.Decimal) []MonthTotal {
	var sums [13]decimal.Decimal
	var seen [13]bool
	for _, o := range orders {
		if !o.Dated {
			continue
		}
		sums[o.Month] = sums[o.Month].Add(value(o))
		seen[o.Month] = true
	}

	var out []MonthTotal
	for m := 1; m <= 12; m++ {
		if !seen[m] {
			continue
		}
		out = append(out, monthTotal(0, m, sums[m]))
	}
	return out
}

// RevenueByMonth sums order totals per month name, merging years, in
// calendar order
func RevenueByMonth(orders []table.OrderRow) []MonthTotal {
	return byMonth(orders, func(o table.OrderRow) decimal.Decimal { return o.TotalAmount })
}

// OrdersByMonth counts orders per month name, merging years, in calendar order
func OrdersByMonth(orders []table.OrderRow) []MonthTotal {
	return byMonth(orders, func(table.OrderRow) decimal.Decimal { return one })
}

// TopProductsByQuantity returns the n products with the most units sold
func TopProductsByQuantity(details []table.DetailRow, n int) []NamedTotal {
	g := newGroupSum()
	for _, d := range details {
		g.add(d.ProductName, decimal.NewFromInt(int64(d.Quantity)))
	}
	return topN(g.rows, n)
}

// TopProductsByRevenue returns the n products with the highest subtotal sum
func TopProductsByRevenue(details []table.DetailRow, n int) []NamedTotal {
	g := newGroupSum()
	for _, d := range details {
		g.add(d.ProductName, d.Subtotal)
	}
	return topN(g.rows, n)
}

// TopCustomers returns the n customers, by name, with the highest order totals
func TopCustomers(orders []table.OrderRow, n int) []NamedTotal {
	g := newGroupSum()
	for _, o := range orders {
		g.add(o.CustomerName, o.TotalAmount)
	}
	return topN(g.rows, n)
}

// TopStock returns the n products with the largest stock
func TopStock(products []models.Product, n int) []NamedTotal {
	rows := make([]NamedTotal, 0, len(products))
	for _, p := range products {
		rows = append(rows, NamedTotal{Name: p.Name, Total: decimal.NewFromInt(int64(p.Stock))})
	}
	return topN(rows, n)
}

// DistinctCustomers counts distinct customer names among orders
func DistinctCustomers(orders []table.OrderRow) int {
	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		seen[o.CustomerName] = struct{}{}
	}
	return len(seen)
}
