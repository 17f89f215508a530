package resolve

import (
	"errors"
	"testing"

	"sales-dashboard/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailRow(id, orderID, productID int64, qty int) models.OrderDetailRow {
	return models.OrderDetailRow{
		OrderDetailID: id,
		OrderID:       orderID,
		Quantity:      qty,
		Price:         decimal.NewFromInt(1500),
		Subtotal:      decimal.NewFromInt(int64(qty) * 1500),
		ProductID:     productID,
		Product:       models.Some(models.ProductRef{ProductID: productID, Name: "Mawar", Price: decimal.NewFromInt(2000)}),
		Order: models.Some(models.OrderRef{
			OrderID:     orderID,
			OrderDate:   "2024-03-01",
			TotalAmount: decimal.NewFromInt(9000),
			CustomerID:  4,
			Customer:    &models.CustomerRef{CustomerID: 4, Name: "Budi", Phone: "0811"},
		}),
	}
}

func TestOrderDetailFieldMapping(t *testing.T) {
	flat, err := OrderDetail(detailRow(10, 3, 8, 2))
	require.NoError(t, err)

	assert.Equal(t, models.FlatOrderDetailView{
		OrderDetailID: 10,
		OrderID:       3,
		OrderDate:     "2024-03-01",
		CustomerID:    4,
		CustomerName:  "Budi",
		ProductID:     8,
		ProductName:   "Mawar",
		UnitPrice:     decimal.NewFromInt(2000),
		Quantity:      2,
		Subtotal:      decimal.NewFromInt(3000),
		OrderTotal:    decimal.NewFromInt(9000),
		Phone:         "0811",
	}, flat)
}

func TestOrderDetailsPreservesOrder(t *testing.T) {
	rows := []models.OrderDetailRow{
		detailRow(5, 9, 1, 1),
		detailRow(2, 8, 2, 1),
		detailRow(7, 7, 3, 1),
	}

	flat, errs := OrderDetails(rows)
	require.Empty(t, errs)
	require.Len(t, flat, 3)
	for i := range rows {
		assert.Equal(t, rows[i].OrderDetailID, flat[i].OrderDetailID)
	}
}

func TestOrderDetailsSkipsMissingRelations(t *testing.T) {
	noProduct := detailRow(2, 8, 2, 1)
	noProduct.Product = models.Relation[models.ProductRef]{}

	noOrder := detailRow(3, 7, 3, 1)
	noOrder.Order = models.Relation[models.OrderRef]{}

	noCustomer := detailRow(4, 6, 3, 1)
	noCustomer.Order.Val.Customer = nil

	rows := []models.OrderDetailRow{detailRow(1, 9, 1, 1), noProduct, noOrder, noCustomer, detailRow(5, 5, 1, 1)}

	flat, errs := OrderDetails(rows)
	require.Len(t, flat, 2)
	assert.Equal(t, int64(1), flat[0].OrderDetailID)
	assert.Equal(t, int64(5), flat[1].OrderDetailID)

	require.Len(t, errs, 3)
	var joinErr *JoinError
	require.True(t, errors.As(errs[0], &joinErr))
	assert.Equal(t, "products", joinErr.Relation)
	assert.True(t, errors.Is(errs[1], ErrMissingRelation))
	require.True(t, errors.As(errs[2], &joinErr))
	assert.Equal(t, "orders.customers", joinErr.Relation)
}

func TestOrders(t *testing.T) {
	rows := []models.OrderRow{
		{OrderID: 2, OrderDate: "2024-02-10", TotalAmount: decimal.NewFromInt(200), CustomerID: 1, Customer: models.Some(models.CustomerRef{Name: "A", Phone: "1"})},
		{OrderID: 1, OrderDate: "2024-01-05", TotalAmount: decimal.NewFromInt(100), CustomerID: 9},
	}

	flat, errs := Orders(rows)
	require.Len(t, flat, 1)
	assert.Equal(t, models.FlatOrderView{OrderID: 2, OrderDate: "2024-02-10", TotalAmount: decimal.NewFromInt(200), CustomerName: "A", Phone: "1"}, flat[0])
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], `order 1: missing relation "customers"`)
}
