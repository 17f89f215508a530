package analytics

import (
	"math"
	"testing"
	"time"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/table"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func buildOrders(t *testing.T, orders ...models.FlatOrderView) []table.OrderRow {
	t.Helper()
	return table.Build(table.Input{Orders: orders}, now).Orders
}

func detail(name string, qty int, price int64) table.DetailRow {
	return table.DetailRow{FlatOrderDetailView: models.FlatOrderDetailView{
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   decimal.NewFromInt(price),
		Subtotal:    decimal.NewFromInt(int64(qty) * price),
	}}
}

func rp(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// totals renders each group as name=exact total
func totals(rows []NamedTotal) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name + "=" + r.Total.String()
	}
	return out
}

type month struct {
	Year      int
	MonthName string
	Total     string
	Value     float64
}

func months(rows []MonthTotal) []month {
	out := make([]month, len(rows))
	for i, r := range rows {
		out[i] = month{r.Year, r.MonthName, r.Total.String(), r.Value}
	}
	return out
}

func TestMonthlyRevenueChronological(t *testing.T) {
	orders := buildOrders(t,
		models.FlatOrderView{OrderID: 2, OrderDate: "2024-02-10", TotalAmount: rp(200)},
		models.FlatOrderView{OrderID: 1, OrderDate: "2024-01-05", TotalAmount: rp(100)},
	)

	got := MonthlyRevenue(orders)
	require.Len(t, got, 2)
	assert.Equal(t, "January", got[0].MonthName)
	assert.Equal(t, 100.0, got[0].Value)
	assert.Equal(t, "February", got[1].MonthName)
	assert.Equal(t, 200.0, got[1].Value)
}

func TestMonthlyRevenueSortsByCalendarNotName(t *testing.T) {
	orders := buildOrders(t,
		models.FlatOrderView{OrderID: 1, OrderDate: "2023-12-01", TotalAmount: rp(5)},
		models.FlatOrderView{OrderID: 2, OrderDate: "2024-04-01", TotalAmount: rp(10)},
		models.FlatOrderView{OrderID: 3, OrderDate: "2024-08-01", TotalAmount: rp(20)},
		models.FlatOrderView{OrderID: 4, OrderDate: "2024-04-20", TotalAmount: rp(30)},
	)

	got := MonthlyRevenue(orders)
	require.Len(t, got, 3)
	assert.Equal(t, []month{
		{2023, "December", "5", 5},
		{2024, "April", "40", 40},
		{2024, "August", "20", 20},
	}, months(got))
}

func TestMonthlyRevenueConservesTotal(t *testing.T) {
	var orders []models.FlatOrderView
	want := decimal.Zero
	for i := 0; i < 40; i++ {
		// cent amounts such as 0.10 and 0.07 have no exact binary form
		amount := decimal.New(int64(i*37%101)*100+int64(i*13%100), -2)
		want = want.Add(amount)
		orders = append(orders, models.FlatOrderView{
			OrderID:     int64(i),
			OrderDate:   time.Date(2022+i%3, time.Month(i%12+1), i%28+1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			TotalAmount: amount,
		})
	}
	rows := buildOrders(t, orders...)

	got := decimal.Zero
	for _, m := range MonthlyRevenue(rows) {
		got = got.Add(m.Total)
	}
	assert.True(t, want.Equal(got), "monthly sum %s != overall %s", got, want)

	got = decimal.Zero
	for _, m := range RevenueByMonth(rows) {
		got = got.Add(m.Total)
	}
	assert.True(t, want.Equal(got), "month-name sum %s != overall %s", got, want)
}

func TestMonthlyRevenueCentsExact(t *testing.T) {
	orders := buildOrders(t,
		models.FlatOrderView{OrderID: 1, OrderDate: "2024-01-05", TotalAmount: decimal.RequireFromString("0.10")},
		models.FlatOrderView{OrderID: 2, OrderDate: "2024-01-06", TotalAmount: decimal.RequireFromString("0.20")},
	)

	got := MonthlyRevenue(orders)
	require.Len(t, got, 1)
	assert.Equal(t, "0.3", got[0].Total.String())
	assert.Equal(t, 0.3, got[0].Value)
}

func TestByMonthMergesYears(t *testing.T) {
	orders := buildOrders(t,
		models.FlatOrderView{OrderID: 1, OrderDate: "2023-03-01", TotalAmount: rp(5)},
		models.FlatOrderView{OrderID: 2, OrderDate: "2024-03-09", TotalAmount: rp(10)},
		models.FlatOrderView{OrderID: 3, OrderDate: "2024-01-09", TotalAmount: rp(1)},
		models.FlatOrderView{OrderID: 4, OrderDate: "bad", TotalAmount: rp(99)},
	)

	revenue := RevenueByMonth(orders)
	require.Len(t, revenue, 2)
	assert.Equal(t, "January", revenue[0].MonthName)
	assert.Equal(t, 15.0, revenue[1].Value)

	counts := OrdersByMonth(orders)
	assert.Equal(t, []month{
		{0, "January", "1", 1},
		{0, "March", "2", 2},
	}, months(counts))
}

func TestTopProductsByQuantity(t *testing.T) {
	details := []table.DetailRow{detail("P1", 5, 10), detail("P2", 3, 10), detail("P1", 2, 10)}

	got := TopProductsByQuantity(details, 1)
	assert.Equal(t, []string{"P1=7"}, totals(got))
	assert.Equal(t, 7.0, got[0].Value)
}

func TestTopNProperties(t *testing.T) {
	details := []table.DetailRow{
		detail("Lili", 4, 10),
		detail("Mawar", 9, 5),
		detail("Anggrek", 4, 20),
		detail("Tulip", 1, 100),
	}

	for _, n := range []int{1, 2, 4, 10} {
		got := TopProductsByQuantity(details, n)
		assert.Len(t, got, int(math.Min(float64(n), 4)))
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Value, got[i].Value)
		}
	}

	// ties keep first-encountered order
	got := TopProductsByQuantity(details, 3)
	assert.Equal(t, []string{"Mawar", "Lili", "Anggrek"}, []string{got[0].Name, got[1].Name, got[2].Name})

	revenue := TopProductsByRevenue(details, 2)
	assert.Equal(t, []string{"Tulip=100", "Anggrek=80"}, totals(revenue))
}

func TestTopCustomersAndDistinct(t *testing.T) {
	orders := buildOrders(t,
		models.FlatOrderView{OrderID: 1, OrderDate: "2024-01-01", TotalAmount: rp(50), CustomerName: "Ani"},
		models.FlatOrderView{OrderID: 2, OrderDate: "2024-01-02", TotalAmount: rp(70), CustomerName: "Budi"},
		models.FlatOrderView{OrderID: 3, OrderDate: "2024-01-03", TotalAmount: rp(30), CustomerName: "Ani"},
	)

	top := TopCustomers(orders, 10)
	assert.Equal(t, []string{"Ani=80", "Budi=70"}, totals(top))
	assert.Equal(t, 80.0, top[0].Value)
	assert.Equal(t, 2, DistinctCustomers(orders))
}

func TestTopStock(t *testing.T) {
	products := []models.Product{{Name: "A", Stock: 3}, {Name: "B", Stock: 30}, {Name: "C", Stock: 3}}
	assert.Equal(t, []string{"B=30", "A=3"}, totals(TopStock(products, 2)))
}

func TestHistogram(t *testing.T) {
	bins := Histogram([]float64{20, 21, 25, 30, 40}, 4)
	require.Len(t, bins, 4)
	assert.Equal(t, 20.0, bins[0].Start)
	assert.Equal(t, 40.0, bins[3].End)

	counts := make([]int, len(bins))
	for i, b := range bins {
		counts[i] = b.Count
	}
	// the maximum lands in the closed last bin
	assert.Equal(t, []int{2, 1, 1, 1}, counts)

	assert.Nil(t, Histogram(nil, 10))
	assert.Equal(t, []Bin{{Start: 7, End: 7, Count: 2}}, Histogram([]float64{7, 7}, 15))
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{100, 200, 300, 400})
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 250.0, s.Mean)
	assert.Equal(t, 250.0, s.Median)
	assert.Equal(t, 100.0, s.Min)
	assert.Equal(t, 400.0, s.Max)
	assert.Equal(t, 175.0, s.Q1)
	assert.Equal(t, 325.0, s.Q3)
	assert.InDelta(t, 129.0994, s.Std, 1e-4)

	single := Describe([]float64{42})
	assert.Equal(t, 42.0, single.Median)
	assert.Equal(t, 0.0, single.Std)

	assert.Equal(t, Summary{}, Describe(nil))
}

func TestPriceVolume(t *testing.T) {
	details := []table.DetailRow{
		detail("Mawar", 2, 10),
		detail("Lili", 1, 15),
		detail("Mawar", 3, 10),
		detail("Mawar", 1, 12),
		{FlatOrderDetailView: models.FlatOrderDetailView{ProductName: "Lili", Quantity: 2, UnitPrice: decimal.RequireFromString("15.00")}},
	}

	assert.Equal(t, []PricePoint{
		{ProductName: "Mawar", UnitPrice: 10, Quantity: 5},
		{ProductName: "Lili", UnitPrice: 15, Quantity: 3},
		{ProductName: "Mawar", UnitPrice: 12, Quantity: 1},
	}, PriceVolume(details))
}

func TestAgeOrderValueJoinsOnName(t *testing.T) {
	age := func(v int) *int { return &v }
	customers := []table.CustomerRow{
		{Customer: models.Customer{CustomerID: 1, Name: "Ani"}, Age: age(30)},
		{Customer: models.Customer{CustomerID: 2, Name: "Budi"}, Age: age(40)},
		{Customer: models.Customer{CustomerID: 3, Name: "Ani"}, Age: age(50)},
		{Customer: models.Customer{CustomerID: 4, Name: "Citra"}},
	}
	orders := buildOrders(t,
		models.FlatOrderView{OrderID: 1, OrderDate: "2024-01-01", TotalAmount: rp(100), CustomerName: "Ani"},
		models.FlatOrderView{OrderID: 2, OrderDate: "2024-01-02", TotalAmount: rp(200), CustomerName: "Budi"},
		models.FlatOrderView{OrderID: 3, OrderDate: "2024-01-03", TotalAmount: rp(300), CustomerName: "Citra"},
		models.FlatOrderView{OrderID: 4, OrderDate: "2024-01-04", TotalAmount: rp(400), CustomerName: "Dewi"},
	)

	points := AgeOrderValue(orders, customers)
	assert.Equal(t, []AgePoint{
		{OrderID: 1, CustomerName: "Ani", Age: 30, TotalAmount: 100},
		{OrderID: 1, CustomerName: "Ani", Age: 50, TotalAmount: 100},
		{OrderID: 2, CustomerName: "Budi", Age: 40, TotalAmount: 200},
	}, points)
}

func TestLinearFit(t *testing.T) {
	fit, ok := LinearFit([]float64{1, 2, 3, 4}, []float64{3, 5, 7, 9})
	require.True(t, ok)
	assert.InDelta(t, 2.0, fit.Slope, 1e-12)
	assert.InDelta(t, 1.0, fit.Intercept, 1e-12)
	assert.InDelta(t, 1.0, fit.R2, 1e-12)

	_, ok = LinearFit([]float64{1}, []float64{1})
	assert.False(t, ok)
	_, ok = LinearFit([]float64{2, 2}, []float64{1, 5})
	assert.False(t, ok)

	fit, ok = AgeTrend([]AgePoint{{Age: 20, TotalAmount: 100}, {Age: 30, TotalAmount: 200}})
	require.True(t, ok)
	assert.InDelta(t, 10.0, fit.Slope, 1e-12)
}
