// Package dashboard maps the built tables and pipeline outputs of one render
// cycle onto page descriptors: metric cards, declarative chart specs and
// table projections. It performs no aggregation of its own.
package dashboard

import (
	"errors"
	"fmt"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/table"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	ErrUnknownView     = errors.New("unknown view")
	ErrInvalidAgeRange = errors.New("invalid age range")
)

// View identifies one navigation page
type View string

const (
	ViewOverview  View = "overview"
	ViewCustomers View = "customers"
	ViewProducts  View = "products"
	ViewOrders    View = "orders"
	ViewAnalysis  View = "analysis"
)

// ViewInfo describes a navigation entry
type ViewInfo struct {
	ID    View   `json:"id"`
	Title string `json:"title"`
}

// Views lists the navigation entries in menu order
var Views = []ViewInfo{
	{ID: ViewOverview, Title: "Dashboard Overview"},
	{ID: ViewCustomers, Title: "Customers"},
	{ID: ViewProducts, Title: "Products"},
	{ID: ViewOrders, Title: "Orders"},
	{ID: ViewAnalysis, Title: "Sales Analysis"},
}

// ParseView validates a view id
func ParseView(s string) (View, error) {
	for _, v := range Views {
		if string(v.ID) == s {
			return v.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

func (v View) title() string {
	for _, info := range Views {
		if info.ID == v {
			return info.Title
		}
	}
	return string(v)
}

// Chart types understood by the renderer
const (
	ChartLine      = "line"
	ChartBar       = "bar"
	ChartHistogram = "histogram"
	ChartBox       = "box"
	ChartPie       = "pie"
	ChartArea      = "area"
	ChartScatter   = "scatter"
)

// Params are the user-facing inputs of a render
type Params struct {
	View    View
	Age     *table.AgeRange
	Columns []string
}

// Metric is a scalar card
type Metric struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Value string  `json:"value"`
	Raw   float64 `json:"raw"`
	Delta string  `json:"delta,omitempty"`
}

// Chart is a declarative chart spec. Data is a pipeline result passed
// through unchanged; X, Y, Color and Size name its fields.
type Chart struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Data        interface{}       `json:"data"`
	X           string            `json:"x,omitempty"`
	Y           string            `json:"y,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Orientation string            `json:"orientation,omitempty"`
	Color       string            `json:"color,omitempty"`
	ColorField  string            `json:"color_field,omitempty"`
	ColorScale  string            `json:"color_scale,omitempty"`
	SizeField   string            `json:"size_field,omitempty"`
	HoverFields []string          `json:"hover_fields,omitempty"`
	Hole        float64           `json:"hole,omitempty"`
	Markers     bool              `json:"markers,omitempty"`
	LineWidth   int               `json:"line_width,omitempty"`
	TickAngle   int               `json:"tick_angle,omitempty"`
	Trendline   interface{}       `json:"trendline,omitempty"`
}

// Table is a tabular block of the page
type Table struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Columns []string    `json:"columns,omitempty"`
	Data    interface{} `json:"data"`
	Export  string      `json:"export,omitempty"`
}

// AgeFilter reports the age slider state
type AgeFilter struct {
	Bounds   table.AgeRange `json:"bounds"`
	Selected table.AgeRange `json:"selected"`
}

// Page is everything the renderer needs for one view
type Page struct {
	View     View             `json:"view"`
	Title    string           `json:"title"`
	Metrics  []Metric         `json:"metrics"`
	Charts   []Chart          `json:"charts"`
	Tables   []Table          `json:"tables,omitempty"`
	Filter   *AgeFilter       `json:"filter,omitempty"`
	Warnings []models.Warning `json:"warnings"`
}

// Options configure presentation details
type Options struct {
	CurrencyPrefix    string
	LowStockThreshold int
}

// Renderer builds pages
type Renderer struct {
	opts    Options
	printer *message.Printer
}

// NewRenderer creates a renderer formatting numbers with English grouping
func NewRenderer(opts Options) *Renderer {
	if opts.CurrencyPrefix == "" {
		opts.CurrencyPrefix = "Rp"
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = 10
	}
	return &Renderer{opts: opts, printer: message.NewPrinter(language.English)}
}

// Render builds the page for p.View from ds
func (r *Renderer) Render(ds *table.Dataset, p Params) (*Page, error) {
	if p.Age != nil && p.Age.Min > p.Age.Max {
		return nil, fmt.Errorf("%w: min %d > max %d", ErrInvalidAgeRange, p.Age.Min, p.Age.Max)
	}
	if err := table.ValidateCustomerColumns(p.Columns); err != nil {
		return nil, err
	}

	page := &Page{
		View:     p.View,
		Title:    p.View.title(),
		Metrics:  []Metric{},
		Charts:   []Chart{},
		Warnings: ds.Warnings,
	}
	if page.Warnings == nil {
		page.Warnings = []models.Warning{}
	}

	customers, filter := filterCustomers(ds.Customers, p.Age)

	var err error
	switch p.View {
	case ViewOverview:
		r.overview(page, ds, customers)
	case ViewCustomers:
		page.Filter = filter
		err = r.customers(page, ds, customers, p.Columns)
	case ViewProducts:
		r.products(page, ds)
	case ViewOrders:
		r.orders(page, ds)
	case ViewAnalysis:
		r.analysis(page, ds, customers)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, p.View)
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

// filterCustomers applies the age range, clamped to the observed ages. With
// no range the full observed range is used.
func filterCustomers(rows []table.CustomerRow, age *table.AgeRange) ([]table.CustomerRow, *AgeFilter) {
	bounds, ok := table.ObservedAgeRange(rows)
	if !ok {
		return nil, nil
	}

	selected := bounds
	if age != nil {
		selected = age.Clamp(bounds)
	}
	return table.FilterByAge(rows, selected), &AgeFilter{Bounds: bounds, Selected: selected}
}

// FilteredCustomers exposes the filter used by Render for exports
func FilteredCustomers(rows []table.CustomerRow, age *table.AgeRange) ([]table.CustomerRow, *AgeFilter) {
	return filterCustomers(rows, age)
}

func (r *Renderer) count(id, label string, n int) Metric {
	return Metric{ID: id, Label: label, Value: r.printer.Sprintf("%d", n), Raw: float64(n)}
}

func (r *Renderer) money(id, label string, v decimal.Decimal) Metric {
	return Metric{
		ID:    id,
		Label: label,
		Value: r.opts.CurrencyPrefix + " " + r.printer.Sprintf("%d", v.Round(0).IntPart()),
		Raw:   v.InexactFloat64(),
	}
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func meanMoney(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}
