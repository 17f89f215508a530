package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing dashboard events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishCustomersExported publishes a CustomersExported event
func (ep *EventPublisher) PublishCustomersExported(ctx context.Context, event *models.CustomersExportedEvent) error {
	return ep.producer.PublishEvent(ctx, "export-"+event.EventID, event)
}

// EventHandler routes incoming data change events
type EventHandler struct {
	onDataChanged func(context.Context, *models.DataChangedEvent) error
	logger        *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.Named("event-handler")}
}

// OnDataChanged registers a handler for events that change dashboard data
func (eh *EventHandler) OnDataChanged(handler func(context.Context, *models.DataChangedEvent) error) {
	eh.onDataChanged = handler
}

// HandleMessage routes messages to the registered handler. Events that do
// not touch dashboard data are acknowledged and dropped.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.DataChangedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if !models.ChangesData(event.EventType) {
		eh.logger.Debug("Ignoring event", zap.String("type", event.EventType))
		return nil
	}

	eh.logger.Debug("Handling event",
		zap.String("type", event.EventType),
		zap.String("id", event.EventID))

	if eh.onDataChanged == nil {
		return nil
	}
	return eh.onDataChanged(ctx, &event)
}
