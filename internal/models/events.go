package models

import "time"

// Event types that change the data behind the dashboard
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderUpdated       = "ORDER_UPDATED"
	EventTypeOrderConfirmed     = "ORDER_CONFIRMED"
	EventTypeOrderCancelled     = "ORDER_CANCELLED"
	EventTypeOrderDetailUpdated = "ORDER_DETAIL_UPDATED"
	EventTypeCustomerUpdated    = "CUSTOMER_UPDATED"
	EventTypeProductUpdated     = "PRODUCT_UPDATED"
)

// EventTypeCustomersExported is published by the dashboard itself
const EventTypeCustomersExported = "CUSTOMERS_EXPORTED"

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// DataChangedEvent is published by the systems writing to the sales database
type DataChangedEvent struct {
	BaseEvent
	Entity   string `json:"entity,omitempty"`
	EntityID int64  `json:"entity_id,omitempty"`
}

// CustomersExportedEvent records a CSV download of the customer table
type CustomersExportedEvent struct {
	BaseEvent
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
	MinAge  int      `json:"min_age"`
	MaxAge  int      `json:"max_age"`
}

// ChangesData reports whether an event type invalidates dashboard data
func ChangesData(eventType string) bool {
	switch eventType {
	case EventTypeOrderCreated,
		EventTypeOrderUpdated,
		EventTypeOrderConfirmed,
		EventTypeOrderCancelled,
		EventTypeOrderDetailUpdated,
		EventTypeCustomerUpdated,
		EventTypeProductUpdated:
		return true
	}
	return false
}
