package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NewBaseEvent stamps a new event of eventType
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// EventPublisher handles publishing storefront events. Checkout and degraded
// config events go to the storefront topic, config updates to the config topic.
type EventPublisher struct {
	events       *Producer
	configEvents *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(events, configEvents *Producer) *EventPublisher {
	return &EventPublisher{events: events, configEvents: configEvents}
}

// PublishCheckoutInitiated publishes CheckoutInitiated event
func (ep *EventPublisher) PublishCheckoutInitiated(ctx context.Context, event *models.CheckoutInitiatedEvent) error {
	key := fmt.Sprintf("cart-%s", event.SessionID)
	return ep.events.PublishEvent(ctx, key, event)
}

// PublishCheckoutFailed publishes CheckoutFailed event
func (ep *EventPublisher) PublishCheckoutFailed(ctx context.Context, event *models.CheckoutFailedEvent) error {
	key := fmt.Sprintf("cart-%s", event.SessionID)
	return ep.events.PublishEvent(ctx, key, event)
}

// PublishConfigDegraded publishes ConfigDegraded event
func (ep *EventPublisher) PublishConfigDegraded(ctx context.Context, event *models.ConfigDegradedEvent) error {
	key := fmt.Sprintf("config-%s", event.ConfigName)
	return ep.events.PublishEvent(ctx, key, event)
}

// PublishConfigUpdated publishes ConfigUpdated event
func (ep *EventPublisher) PublishConfigUpdated(ctx context.Context, event *models.ConfigUpdatedEvent) error {
	key := fmt.Sprintf("config-%s", event.ConfigName)
	return ep.configEvents.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onConfigUpdated func(context.Context, *models.ConfigUpdatedEvent) error
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnConfigUpdated registers a handler for ConfigUpdated events
func (eh *EventHandler) OnConfigUpdated(handler func(context.Context, *models.ConfigUpdatedEvent) error) {
	eh.onConfigUpdated = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeConfigUpdated:
		if eh.onConfigUpdated != nil {
			var event models.ConfigUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ConfigUpdated event: %w", err)
			}
			return eh.onConfigUpdated(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
