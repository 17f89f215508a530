package analytics

import (
	"sales-dashboard/internal/table"
)

// PricePoint is the volume sold of one product at one unit price
type PricePoint struct {
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

// PriceVolume sums quantity per distinct (product name, unit price) pair, in
// first-encountered order
func PriceVolume(details []table.DetailRow) []PricePoint {
	type key struct {
		name  string
		price string
	}
	index := make(map[key]int)
	var out []PricePoint
	for _, d := range details {
		// String drops trailing zeros, so 10 and 10.00 share a key
		k := key{d.ProductName, d.UnitPrice.String()}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, PricePoint{ProductName: d.ProductName, UnitPrice: d.UnitPrice.InexactFloat64()})
		}
		out[i].Quantity += d.Quantity
	}
	return out
}

// AgePoint pairs an order's value with the age of its customer
type AgePoint struct {
	OrderID      int64   `json:"order_id"`
	CustomerName string  `json:"customer_name"`
	Age          int     `json:"age"`
	TotalAmount  float64 `json:"total_amount"`
}

// AgeOrderValue joins orders to customers on customer name. Customers sharing
// a name each produce a point for every order under that name; customers
// without a known age produce none.
func AgeOrderValue(orders []table.OrderRow, customers []table.CustomerRow) []AgePoint {
	byName := make(map[string][]int)
	for _, c := range customers {
		if c.Age == nil {
			continue
		}
		byName[c.Name] = append(byName[c.Name], *c.Age)
	}

	var out []AgePoint
	for _, o := range orders {
		for _, age := range byName[o.CustomerName] {
			out = append(out, AgePoint{
				OrderID:      o.OrderID,
				CustomerName: o.CustomerName,
				Age:          age,
				TotalAmount:  o.TotalAmount.InexactFloat64(),
			})
		}
	}
	return out
}

// Trendline is an ordinary least squares fit y = Slope*x + Intercept
type Trendline struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// LinearFit fits a line through the points. ok is false with fewer than two
// points or when every x is equal.
func LinearFit(xs, ys []float64) (Trendline, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return Trendline{}, false
	}

	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/float64(n), sy/float64(n)

	var sxx, sxy, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return Trendline{}, false
	}

	slope := sxy / sxx
	fit := Trendline{Slope: slope, Intercept: my - slope*mx}
	if syy > 0 {
		fit.R2 = (sxy * sxy) / (sxx * syy)
	}
	return fit, true
}

// AgeTrend fits order value against customer age
func AgeTrend(points []AgePoint) (Trendline, bool) {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(p.Age)
		ys[i] = p.TotalAmount
	}
	return LinearFit(xs, ys)
}
