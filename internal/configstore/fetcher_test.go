package configstore

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentPath(t *testing.T) {
	assert.Equal(t, "configs/acme.tgd.json", DocumentPath("configs", "acme", "tgd"))
	assert.Equal(t, "/configs/acme.tgd.json", DocumentPath("/configs/", "acme", "tgd"))
	assert.Equal(t, "acme.tgd.json", DocumentPath("", "acme", "tgd"))
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.tgd.json"), document("acme"), 0o644))
	fetcher := FileFetcher{Root: dir, Ext: "tgd"}

	raw, err := fetcher.Fetch(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, document("acme"), raw)

	_, err = fetcher.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrConfigNotFound)
}

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/configs/acme.tgd.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(document("acme"))
		case "/configs/huge.tgd.json":
			_, _ = w.Write(bytes.Repeat([]byte(" "), maxDocumentSize+1))
		case "/configs/flaky.tgd.json":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL, "configs", "tgd", time.Second)

	tests := []struct {
		name    string
		config  string
		wantErr error
	}{
		{"ok", "acme", nil},
		{"not found", "missing", models.ErrConfigNotFound},
		{"server error", "flaky", models.ErrNetworkFailure},
		{"too large", "huge", ErrDocumentTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := fetcher.Fetch(context.Background(), tt.config)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, document("acme"), raw)
		})
	}
}

func TestHTTPFetcher_DocumentAtLimit(t *testing.T) {
	doc := append(document("acme"), bytes.Repeat([]byte(" "), maxDocumentSize-len(document("acme")))...)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(doc)
	}))
	defer server.Close()

	raw, err := NewHTTPFetcher(server.URL, "configs", "tgd", time.Second).Fetch(context.Background(), "acme")
	require.NoError(t, err)
	assert.Len(t, raw, maxDocumentSize)
}

func TestFileFetcher_TooLarge(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "huge.tgd.json"), bytes.Repeat([]byte(" "), maxDocumentSize+1), 0o644))

	_, err := FileFetcher{Root: dir, Ext: "tgd"}.Fetch(context.Background(), "huge")
	assert.ErrorIs(t, err, ErrDocumentTooLarge)
}

func TestHTTPFetcher_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPFetcher(url, "configs", "tgd", time.Second).Fetch(context.Background(), "acme")
	assert.ErrorIs(t, err, models.ErrNetworkFailure)
}

type memoryCache struct {
	docs    map[string][]byte
	getErr  error
	deleted []string
}

func (m *memoryCache) GetDocument(ctx context.Context, name string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	doc, ok := m.docs[name]
	return doc, ok, nil
}

func (m *memoryCache) SetDocument(ctx context.Context, name string, doc []byte, ttl time.Duration) error {
	m.docs[name] = doc
	return nil
}

func (m *memoryCache) DeleteDocument(ctx context.Context, name string) error {
	delete(m.docs, name)
	m.deleted = append(m.deleted, name)
	return nil
}

func TestCachingFetcher(t *testing.T) {
	next := newFakeFetcher()
	next.docs["acme"] = document("acme")
	cache := &memoryCache{docs: map[string][]byte{}}
	fetcher := NewCachingFetcher(next, cache, time.Minute)

	for i := 0; i < 2; i++ {
		raw, err := fetcher.Fetch(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, document("acme"), raw)
	}
	assert.Equal(t, 1, next.callCount("acme"))

	require.NoError(t, fetcher.InvalidateDocument(context.Background(), "acme"))
	assert.Equal(t, []string{"acme"}, cache.deleted)

	_, err := fetcher.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrConfigNotFound)
	_, cached := cache.docs["missing"]
	assert.False(t, cached)
}

func TestCachingFetcher_CacheErrorFallsThrough(t *testing.T) {
	next := newFakeFetcher()
	next.docs["acme"] = document("acme")
	cache := &memoryCache{docs: map[string][]byte{}, getErr: errors.New("connection refused")}

	raw, err := NewCachingFetcher(next, cache, time.Minute).Fetch(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, document("acme"), raw)
}

func TestStore_InvalidateClearsDocumentCache(t *testing.T) {
	next := newFakeFetcher()
	next.docs["acme"] = document("acme")
	cache := &memoryCache{docs: map[string][]byte{}}
	store := New(NewCachingFetcher(next, cache, time.Minute))

	_, err := store.Load(context.Background(), "acme")
	require.NoError(t, err)
	require.Contains(t, cache.docs, "acme")

	store.Invalidate("acme")
	assert.NotContains(t, cache.docs, "acme")
}
