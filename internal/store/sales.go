package store

import (
	"context"
	"fmt"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/util"
)

// Nested relations are expanded with json_build_object over LEFT JOINs, so a
// missing referenced row comes back as NULL instead of dropping the parent.
// Dates are selected as text and parsed by the table builder.

const customersQuery = `
	SELECT customer_id,
	       name,
	       COALESCE(email, '') AS email,
	       COALESCE(phone, '') AS phone,
	       COALESCE(address, '') AS address,
	       COALESCE(birthdate::text, '') AS birthdate
	FROM customers
	ORDER BY name ASC`

const ordersWithCustomerQuery = `
	SELECT o.order_id,
	       COALESCE(o.order_date::text, '') AS order_date,
	       o.total_amount,
	       o.customer_id,
	       CASE WHEN c.customer_id IS NULL THEN NULL
	            ELSE json_build_object('customer_id', c.customer_id, 'name', c.name, 'phone', COALESCE(c.phone, ''))
	       END AS customers
	FROM orders o
	LEFT JOIN customers c ON c.customer_id = o.customer_id
	ORDER BY o.order_date DESC`

const productsQuery = `
	SELECT product_id,
	       name,
	       COALESCE(description, '') AS description,
	       price,
	       stock
	FROM products
	ORDER BY name ASC`

const orderDetailsFullQuery = `
	SELECT d.order_detail_id,
	       d.order_id,
	       d.quantity,
	       d.price,
	       d.subtotal,
	       d.product_id,
	       CASE WHEN p.product_id IS NULL THEN NULL
	            ELSE json_build_object('product_id', p.product_id, 'name', p.name, 'price', p.price)
	       END AS products,
	       CASE WHEN o.order_id IS NULL THEN NULL
	            ELSE json_build_object(
	                'order_id', o.order_id,
	                'order_date', COALESCE(o.order_date::text, ''),
	                'total_amount', o.total_amount,
	                'customer_id', o.customer_id,
	                'customers', CASE WHEN c.customer_id IS NULL THEN NULL
	                                  ELSE json_build_object('customer_id', c.customer_id, 'name', c.name, 'phone', COALESCE(c.phone, ''))
	                             END)
	       END AS orders
	FROM order_details d
	LEFT JOIN products p ON p.product_id = d.product_id
	LEFT JOIN orders o ON o.order_id = d.order_id
	LEFT JOIN customers c ON c.customer_id = o.customer_id
	ORDER BY d.order_id DESC`

// FetchCustomers retrieves all customers ordered by name
func (s *Store) FetchCustomers(ctx context.Context) ([]models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "Store.FetchCustomers")
	defer span.End()

	var customers []models.Customer
	if err := s.db.SelectContext(ctx, &customers, customersQuery); err != nil {
		return nil, fmt.Errorf("failed to fetch customers: %w", err)
	}
	return customers, nil
}

// FetchOrdersWithCustomer retrieves orders, newest first, with the customer expanded
func (s *Store) FetchOrdersWithCustomer(ctx context.Context) ([]models.OrderRow, error) {
	ctx, span := util.StartSpan(ctx, "Store.FetchOrdersWithCustomer")
	defer span.End()

	var orders []models.OrderRow
	if err := s.db.SelectContext(ctx, &orders, ordersWithCustomerQuery); err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, nil
}

// FetchProducts retrieves all products ordered by name
func (s *Store) FetchProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "Store.FetchProducts")
	defer span.End()

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, productsQuery); err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

// FetchOrderDetailsFull retrieves order lines by descending order id with
// product, order and the order's customer expanded
func (s *Store) FetchOrderDetailsFull(ctx context.Context) ([]models.OrderDetailRow, error) {
	ctx, span := util.StartSpan(ctx, "Store.FetchOrderDetailsFull")
	defer span.End()

	var details []models.OrderDetailRow
	if err := s.db.SelectContext(ctx, &details, orderDetailsFullQuery); err != nil {
		return nil, fmt.Errorf("failed to fetch order details: %w", err)
	}
	return details, nil
}
