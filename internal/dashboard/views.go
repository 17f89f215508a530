package dashboard

import (
	"fmt"
	"sort"

	"sales-dashboard/internal/analytics"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/table"

	"github.com/shopspring/decimal"
)

// StatRow is one line of a statistics table
type StatRow struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// orderTotals returns each order value as a float for distributions and the
// exact revenue
func orderTotals(orders []table.OrderRow) ([]float64, decimal.Decimal) {
	totals := make([]float64, len(orders))
	sum := decimal.Zero
	for i, o := range orders {
		totals[i] = o.TotalAmount.InexactFloat64()
		sum = sum.Add(o.TotalAmount)
	}
	return totals, sum
}

func (r *Renderer) overview(page *Page, ds *table.Dataset, customers []table.CustomerRow) {
	totals, revenue := orderTotals(ds.Orders)

	page.Metrics = append(page.Metrics,
		r.count("total_customers", "Total Customers", len(ds.Customers)),
		r.count("total_products", "Total Products", len(ds.Products)),
		r.count("total_orders", "Total Orders", len(ds.Orders)),
		r.money("total_revenue", "Total Revenue", revenue),
	)

	page.Charts = append(page.Charts,
		Chart{
			ID:      "monthly_revenue",
			Type:    ChartLine,
			Title:   "Monthly Revenue",
			Data:    analytics.MonthlyRevenue(ds.Orders),
			X:       "month",
			Y:       "value",
			Labels:  map[string]string{"month": "Month", "value": "Revenue (Rp)"},
			Color:   "#1f77b4",
			Markers: true,
		},
		Chart{
			ID:          "top_products_quantity",
			Type:        ChartBar,
			Title:       "Top 5 Products by Quantity Sold",
			Data:        analytics.TopProductsByQuantity(ds.Details, 5),
			X:           "value",
			Y:           "name",
			Labels:      map[string]string{"value": "Quantity Sold", "name": "Product"},
			Orientation: "h",
			ColorField:  "value",
			ColorScale:  "Blues",
		},
		Chart{
			ID:     "age_distribution",
			Type:   ChartHistogram,
			Title:  "Customer Age Distribution",
			Data:   analytics.Histogram(analytics.Floats(table.Ages(customers)), 20),
			X:      "age",
			Labels: map[string]string{"age": "Age", "count": "Customers"},
			Color:  "#2ecc71",
		},
		Chart{
			ID:     "order_value_distribution",
			Type:   ChartBox,
			Title:  "Order Value Distribution",
			Data:   analytics.Describe(totals),
			Y:      "total_amount",
			Labels: map[string]string{"total_amount": "Order Value (Rp)"},
			Color:  "#e74c3c",
		},
	)
}

func (r *Renderer) customers(page *Page, ds *table.Dataset, customers []table.CustomerRow, columns []string) error {
	ages := analytics.Floats(table.Ages(ds.Customers))
	var ageSum float64
	for _, a := range ages {
		ageSum += a
	}
	avgAge := mean(ageSum, len(ages))

	page.Metrics = append(page.Metrics,
		r.count("total_customers", "Total Customers", len(ds.Customers)),
		Metric{ID: "average_age", Label: "Average Age", Value: fmt.Sprintf("%.1f years", avgAge), Raw: avgAge},
		r.count("active_customers", "Active Customers", analytics.DistinctCustomers(ds.Orders)),
	)

	filtered := analytics.Floats(table.Ages(customers))
	page.Charts = append(page.Charts, Chart{
		ID:     "age_distribution",
		Type:   ChartHistogram,
		Title:  "Age Distribution",
		Data:   analytics.Histogram(filtered, 15),
		X:      "age",
		Labels: map[string]string{"age": "Age", "count": "Customers"},
	})

	s := analytics.Describe(filtered)
	projection, err := table.ProjectCustomers(customers, columns)
	if err != nil {
		return err
	}

	page.Tables = append(page.Tables,
		Table{
			ID:    "age_statistics",
			Title: "Age Statistics",
			Data: []StatRow{
				{Metric: "Mean", Value: s.Mean},
				{Metric: "Median", Value: s.Median},
				{Metric: "Min", Value: s.Min},
				{Metric: "Max", Value: s.Max},
				{Metric: "Std Dev", Value: s.Std},
			},
		},
		Table{
			ID:      "customers",
			Title:   "Customer Data",
			Columns: projection.Columns,
			Data:    projection.Rows,
			Export:  "/api/v1/customers/export.csv",
		},
	)
	return nil
}

func (r *Renderer) products(page *Page, ds *table.Dataset) {
	var stock, lowStock int
	priceSum := decimal.Zero
	prices := make([]float64, len(ds.Products))
	for i, p := range ds.Products {
		stock += p.Stock
		priceSum = priceSum.Add(p.Price)
		prices[i] = p.Price.InexactFloat64()
		if p.Stock < r.opts.LowStockThreshold {
			lowStock++
		}
	}

	low := r.count("low_stock", "Low Stock Items", lowStock)
	low.Delta = fmt.Sprintf("< %d units", r.opts.LowStockThreshold)
	page.Metrics = append(page.Metrics,
		r.count("total_products", "Total Products", len(ds.Products)),
		r.count("total_stock", "Total Stock", stock),
		r.money("average_price", "Average Price", meanMoney(priceSum, len(ds.Products))),
		low,
	)

	page.Charts = append(page.Charts,
		Chart{
			ID:     "price_distribution",
			Type:   ChartHistogram,
			Title:  "Product Price Distribution",
			Data:   analytics.Histogram(prices, 20),
			X:      "price",
			Labels: map[string]string{"price": "Price (Rp)", "count": "Products"},
		},
		Chart{
			ID:         "top_stock",
			Type:       ChartBar,
			Title:      "Top 10 Products by Stock",
			Data:       analytics.TopStock(ds.Products, 10),
			X:          "name",
			Y:          "value",
			Labels:     map[string]string{"name": "Product", "value": "Stock"},
			ColorField: "value",
			ColorScale: "Greens",
			TickAngle:  -45,
		},
	)

	page.Tables = append(page.Tables, Table{
		ID:      "products",
		Title:   "Product Data",
		Columns: []string{"product_id", "name", "description", "price", "stock"},
		Data:    nonNilProducts(ds.Products),
	})
}

func (r *Renderer) orders(page *Page, ds *table.Dataset) {
	_, revenue := orderTotals(ds.Orders)

	page.Metrics = append(page.Metrics,
		r.count("total_orders", "Total Orders", len(ds.Orders)),
		r.money("total_revenue", "Total Revenue", revenue),
		r.money("average_order_value", "Avg Order Value", meanMoney(revenue, len(ds.Orders))),
	)

	page.Charts = append(page.Charts,
		Chart{
			ID:         "orders_per_month",
			Type:       ChartBar,
			Title:      "Orders per Month",
			Data:       analytics.OrdersByMonth(ds.Orders),
			X:          "month_name",
			Y:          "value",
			Labels:     map[string]string{"month_name": "Month", "value": "Orders"},
			ColorField: "value",
			ColorScale: "Blues",
		},
		Chart{
			ID:     "revenue_per_month",
			Type:   ChartArea,
			Title:  "Revenue per Month",
			Data:   analytics.RevenueByMonth(ds.Orders),
			X:      "month_name",
			Y:      "value",
			Labels: map[string]string{"month_name": "Month", "value": "Revenue (Rp)"},
		},
	)

	page.Tables = append(page.Tables, Table{
		ID:      "orders",
		Title:   "Order Data",
		Columns: []string{"order_id", "order_date", "customer_name", "total_amount", "phone"},
		Data:    OrdersByDateDesc(ds.Orders),
	})
}

func (r *Renderer) analysis(page *Page, ds *table.Dataset, customers []table.CustomerRow) {
	points := analytics.AgeOrderValue(ds.Orders, customers)
	scatter := Chart{
		ID:          "age_vs_order_value",
		Type:        ChartScatter,
		Title:       "Customer Age vs Order Value",
		Data:        points,
		X:           "age",
		Y:           "total_amount",
		Labels:      map[string]string{"age": "Customer Age", "total_amount": "Order Value (Rp)"},
		ColorField:  "total_amount",
		ColorScale:  "Viridis",
		HoverFields: []string{"customer_name"},
	}
	if fit, ok := analytics.AgeTrend(points); ok {
		scatter.Trendline = fit
	}
	if points == nil {
		scatter.Data = []analytics.AgePoint{}
	}

	page.Charts = append(page.Charts,
		Chart{
			ID:         "top_customers",
			Type:       ChartBar,
			Title:      "Top 10 Customers by Total Purchase",
			Data:       analytics.TopCustomers(ds.Orders, 10),
			X:          "name",
			Y:          "value",
			Labels:     map[string]string{"name": "Customer", "value": "Total Purchase (Rp)"},
			ColorField: "value",
			ColorScale: "Reds",
			TickAngle:  -45,
		},
		Chart{
			ID:    "top_products_revenue",
			Type:  ChartPie,
			Title: "Top 10 Products by Revenue",
			Data:  analytics.TopProductsByRevenue(ds.Details, 10),
			X:     "name",
			Y:     "value",
		},
		Chart{
			ID:    "top_products_quantity",
			Type:  ChartPie,
			Title: "Top 10 Products by Quantity Sold",
			Data:  analytics.TopProductsByQuantity(ds.Details, 10),
			X:     "name",
			Y:     "value",
			Hole:  0.3,
		},
		scatter,
		Chart{
			ID:          "price_vs_volume",
			Type:        ChartScatter,
			Title:       "Product Price vs Sales Volume",
			Data:        analytics.PriceVolume(ds.Details),
			X:           "unit_price",
			Y:           "quantity",
			Labels:      map[string]string{"unit_price": "Unit Price (Rp)", "quantity": "Quantity Sold"},
			SizeField:   "quantity",
			ColorField:  "quantity",
			ColorScale:  "Plasma",
			HoverFields: []string{"product_name"},
		},
	)
}

// OrdersByDateDesc returns a copy of orders, newest first. Undated orders
// sort last in their original order.
func OrdersByDateDesc(orders []table.OrderRow) []table.OrderRow {
	out := append([]table.OrderRow{}, orders...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Dated != b.Dated {
			return a.Dated
		}
		return a.Date.After(b.Date)
	})
	return out
}

func nonNilProducts(products []models.Product) []models.Product {
	if products == nil {
		return []models.Product{}
	}
	return products
}
