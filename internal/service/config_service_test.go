package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/configstore"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publishedDocument = `{"name": "acme", "branding": {"companyName": "Acme", "primaryColor": "#112233"}, "content": {"tagline": {"en": "hi"}}}`

type memoryWriter struct {
	docs map[string][]byte
}

func (m *memoryWriter) UpsertConfigDocument(ctx context.Context, doc *models.ConfigDocument) error {
	m.docs[doc.Name] = doc.Document
	return nil
}

func (m *memoryWriter) Fetch(ctx context.Context, name string) ([]byte, error) {
	doc, ok := m.docs[name]
	if !ok {
		return nil, models.ErrConfigNotFound
	}
	return doc, nil
}

type recordingConfigEvents struct {
	degraded chan *models.ConfigDegradedEvent
	updated  []*models.ConfigUpdatedEvent
}

func (r *recordingConfigEvents) PublishConfigDegraded(ctx context.Context, event *models.ConfigDegradedEvent) error {
	r.degraded <- event
	return nil
}

func (r *recordingConfigEvents) PublishConfigUpdated(ctx context.Context, event *models.ConfigUpdatedEvent) error {
	r.updated = append(r.updated, event)
	return nil
}

func TestConfigService_Publish(t *testing.T) {
	writer := &memoryWriter{docs: map[string][]byte{}}
	events := &recordingConfigEvents{}
	store := configstore.New(writer)
	svc := NewConfigService(store, writer, events)
	ctx := context.Background()

	// prime a degraded load, then publish and load again
	_, err := store.Load(ctx, "acme")
	require.Error(t, err)

	cfg, err := svc.Publish(ctx, "acme", []byte(publishedDocument))
	require.NoError(t, err)
	assert.Equal(t, "Acme", cfg.Branding.CompanyName)
	require.Len(t, events.updated, 1)
	assert.Equal(t, "acme", events.updated[0].ConfigName)

	res, err := store.Load(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, res.Degraded())
}

func TestConfigService_PublishRejects(t *testing.T) {
	writer := &memoryWriter{docs: map[string][]byte{}}

	tests := []struct {
		name    string
		svc     *ConfigService
		config  string
		doc     string
		wantErr error
	}{
		{"read only", NewConfigService(configstore.New(writer), nil, nil), "acme", publishedDocument, models.ErrConfigReadOnly},
		{"bad name", NewConfigService(configstore.New(writer), writer, nil), "a/b", publishedDocument, models.ErrInvalidConfigName},
		{"invalid document", NewConfigService(configstore.New(writer), writer, nil), "acme", `{"name": "acme"}`, models.ErrConfigValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Publish(context.Background(), tt.config, []byte(tt.doc))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, writer.docs, "nothing is written")
		})
	}
}

func TestDegradedPublisher(t *testing.T) {
	events := &recordingConfigEvents{degraded: make(chan *models.ConfigDegradedEvent, 1)}
	store := configstore.New(&memoryWriter{docs: map[string][]byte{}}, configstore.WithDegradedHook(DegradedPublisher(events)))

	_, err := store.Load(context.Background(), "missing")
	require.Error(t, err)

	select {
	case event := <-events.degraded:
		assert.Equal(t, "missing", event.ConfigName)
		assert.Equal(t, models.EventTypeConfigDegraded, event.EventType)
	case <-time.After(time.Second):
		t.Fatal("degraded event was not published")
	}
}
