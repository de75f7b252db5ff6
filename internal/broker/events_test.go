package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestEventPublisher_RoutesTopics(t *testing.T) {
	events := &recordingWriter{}
	configEvents := &recordingWriter{}
	publisher := NewEventPublisher(newProducer(events), newProducer(configEvents))
	ctx := context.Background()

	require.NoError(t, publisher.PublishCheckoutInitiated(ctx, &models.CheckoutInitiatedEvent{
		BaseEvent:   NewBaseEvent(models.EventTypeCheckoutInitiated),
		SessionID:   "sess-1",
		CheckoutURL: "https://checkout.example.com/1",
	}))
	require.NoError(t, publisher.PublishConfigDegraded(ctx, &models.ConfigDegradedEvent{
		BaseEvent:  NewBaseEvent(models.EventTypeConfigDegraded),
		ConfigName: "acme",
	}))
	require.NoError(t, publisher.PublishConfigUpdated(ctx, &models.ConfigUpdatedEvent{
		BaseEvent:  NewBaseEvent(models.EventTypeConfigUpdated),
		ConfigName: "acme",
	}))

	require.Len(t, events.messages, 2)
	assert.Equal(t, "cart-sess-1", string(events.messages[0].Key))
	assert.Equal(t, "config-acme", string(events.messages[1].Key))

	require.Len(t, configEvents.messages, 1)
	var decoded models.ConfigUpdatedEvent
	require.NoError(t, json.Unmarshal(configEvents.messages[0].Value, &decoded))
	assert.Equal(t, models.EventTypeConfigUpdated, decoded.EventType)
	assert.Equal(t, "acme", decoded.ConfigName)
	assert.NotEmpty(t, decoded.EventID)
}

func TestProducer_WrapsWriteError(t *testing.T) {
	producer := newProducer(&recordingWriter{err: errors.New("broker down")})
	err := producer.PublishEvent(context.Background(), "k", map[string]string{"a": "b"})
	assert.ErrorContains(t, err, "broker down")
}

func TestEventHandler_HandleMessage(t *testing.T) {
	handler := NewEventHandler()
	var got *models.ConfigUpdatedEvent
	handler.OnConfigUpdated(func(ctx context.Context, event *models.ConfigUpdatedEvent) error {
		got = event
		return nil
	})

	tests := []struct {
		name     string
		value    string
		wantErr  bool
		wantName string
	}{
		{"config updated", `{"event_id":"e1","event_type":"CONFIG_UPDATED","config_name":"acme"}`, false, "acme"},
		{"unhandled type", `{"event_id":"e2","event_type":"CHECKOUT_INITIATED"}`, false, ""},
		{"malformed", `{"event_type":`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			err := handler.HandleMessage(context.Background(), kafka.Message{Value: []byte(tt.value)})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantName == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantName, got.ConfigName)
		})
	}
}
