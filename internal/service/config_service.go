package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/broker"
	"storefront/internal/configstore"
	"storefront/internal/models"
	"storefront/internal/schema"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// ConfigEvents publishes configuration lifecycle events
type ConfigEvents interface {
	PublishConfigDegraded(ctx context.Context, event *models.ConfigDegradedEvent) error
	PublishConfigUpdated(ctx context.Context, event *models.ConfigUpdatedEvent) error
}

// ConfigWriter persists configuration documents
type ConfigWriter interface {
	UpsertConfigDocument(ctx context.Context, doc *models.ConfigDocument) error
}

// DegradedPublisher returns a hook that reports degraded loads as events.
// Publishing happens in the background so a slow broker never delays a load.
func DegradedPublisher(events ConfigEvents) configstore.DegradedHook {
	logger := util.GetLogger()
	return func(_ context.Context, name string, cause error) {
		event := &models.ConfigDegradedEvent{
			BaseEvent:  broker.NewBaseEvent(models.EventTypeConfigDegraded),
			ConfigName: name,
			Reason:     cause.Error(),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := events.PublishConfigDegraded(ctx, event); err != nil {
				logger.Error("Failed to publish ConfigDegraded event",
					zap.String("config", name),
					zap.Error(err))
			}
		}()
	}
}

// ConfigService manages stored configuration documents
type ConfigService struct {
	store  *configstore.Store
	writer ConfigWriter
	events ConfigEvents
	logger *zap.Logger
}

// NewConfigService creates a config service. writer and events may be nil.
func NewConfigService(store *configstore.Store, writer ConfigWriter, events ConfigEvents) *ConfigService {
	return &ConfigService{
		store:  store,
		writer: writer,
		events: events,
		logger: util.GetLogger(),
	}
}

// Publish validates raw, stores it under name and invalidates every replica's
// cached copy. Invalid documents are rejected before anything is written.
func (s *ConfigService) Publish(ctx context.Context, name string, raw []byte) (*models.Configuration, error) {
	ctx, span := util.StartSpan(ctx, "ConfigService.Publish")
	defer span.End()

	if s.writer == nil {
		return nil, models.ErrConfigReadOnly
	}
	if err := configstore.ValidateName(name); err != nil {
		return nil, err
	}

	cfg, err := schema.Validate(raw)
	if err != nil {
		return nil, err
	}

	if err := s.writer.UpsertConfigDocument(ctx, &models.ConfigDocument{Name: name, Document: raw}); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to store configuration: %w", err)
	}
	s.store.Invalidate(name)

	if s.events != nil {
		event := &models.ConfigUpdatedEvent{
			BaseEvent:  broker.NewBaseEvent(models.EventTypeConfigUpdated),
			ConfigName: name,
		}
		if err := s.events.PublishConfigUpdated(ctx, event); err != nil {
			s.logger.Error("Failed to publish ConfigUpdated event", zap.String("config", name), zap.Error(err))
		}
	}

	s.logger.Info("Configuration published", zap.String("config", name), zap.String("version", cfg.Version))
	return cfg, nil
}
