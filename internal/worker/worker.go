package worker

import (
	"context"
	"fmt"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Invalidator drops a cached configuration
type Invalidator interface {
	Invalidate(name string)
}

// EventLedger remembers processed event ids
type EventLedger interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// ConfigWorker invalidates cached configurations when they change upstream
type ConfigWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	configs      Invalidator
	ledger       EventLedger
	logger       *zap.Logger
}

// NewConfigWorker creates a new config worker. ledger may be nil, in which
// case every event is applied.
func NewConfigWorker(consumer *broker.Consumer, configs Invalidator, ledger EventLedger) *ConfigWorker {
	w := &ConfigWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		configs:      configs,
		ledger:       ledger,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnConfigUpdated(w.HandleConfigUpdated)
	return w
}

// HandleConfigUpdated invalidates the named configuration once per event id
func (w *ConfigWorker) HandleConfigUpdated(ctx context.Context, event *models.ConfigUpdatedEvent) error {
	if w.ledger != nil {
		processed, err := w.ledger.IsEventProcessed(ctx, event.EventID)
		if err != nil {
			return fmt.Errorf("failed to check event processed: %w", err)
		}
		if processed {
			w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
			return nil
		}
	}

	w.configs.Invalidate(event.ConfigName)

	if w.ledger != nil {
		if err := w.ledger.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
			w.logger.Error("Failed to mark event processed", zap.Error(err))
		}
	}
	return nil
}

// Start starts the worker
func (w *ConfigWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting config worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ConfigWorker) Stop() error {
	w.logger.Info("Stopping config worker")
	return w.consumer.Close()
}
