package worker

import (
	"context"

	"sales-dashboard/internal/broker"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DataChangeListener reacts to changes of the sales data
type DataChangeListener interface {
	OnDataChanged(ctx context.Context, event *models.DataChangedEvent) error
}

// MessageSource delivers messages to a handler until ctx is done
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// CacheWorker invalidates the dashboard snapshot when the sales data changes
type CacheWorker struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewCacheWorker creates a new cache invalidation worker
func NewCacheWorker(consumer MessageSource, listener DataChangeListener) *CacheWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnDataChanged(listener.OnDataChanged)

	return &CacheWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.Named("cache-worker"),
	}
}

// Handle processes a single message
func (w *CacheWorker) Handle(ctx context.Context, msg kafka.Message) error {
	return w.eventHandler.HandleMessage(ctx, msg)
}

// Start consumes data change events until ctx is cancelled
func (w *CacheWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting cache worker")
	return w.consumer.StartConsuming(ctx, w.Handle)
}

// Stop stops the worker
func (w *CacheWorker) Stop() error {
	w.logger.Info("Stopping cache worker")
	return w.consumer.Close()
}
