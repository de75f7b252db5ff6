package configstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxDocumentSize = 1 << 20

// ErrDocumentTooLarge reports a document over maxDocumentSize bytes
var ErrDocumentTooLarge = errors.New("configuration document too large")

func readDocument(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxDocumentSize {
		return nil, ErrDocumentTooLarge
	}
	return raw, nil
}

// Fetcher retrieves the raw document for a configuration name
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, name string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, name string) ([]byte, error) {
	return f(ctx, name)
}

// Invalidator is implemented by fetchers that keep their own copy of documents
type Invalidator interface {
	InvalidateDocument(ctx context.Context, name string) error
}

// DocumentPath returns the <root>/<name>.<ext>.json path convention
func DocumentPath(root, name, ext string) string {
	return path.Join(root, name+"."+ext+".json")
}

// FileFetcher reads documents from a local configs directory
type FileFetcher struct {
	Root string
	Ext  string
}

func (f FileFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	file := filepath.FromSlash(DocumentPath(f.Root, name, f.Ext))
	fh, err := os.Open(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", models.ErrConfigNotFound, file)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	defer fh.Close()

	raw, err := readDocument(fh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return raw, nil
}

// HTTPFetcher requests documents from <BaseURL>/<Root>/<name>.<Ext>.json
type HTTPFetcher struct {
	baseURL string
	root    string
	ext     string
	client  *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with an instrumented client
func NewHTTPFetcher(baseURL, root, ext string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: baseURL,
		root:    root,
		ext:     ext,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	target, err := url.JoinPath(f.baseURL, DocumentPath(f.root, name, f.ext))
	if err != nil {
		return nil, fmt.Errorf("build config url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build config request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", models.ErrConfigNotFound, target)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: GET %s returned %d", models.ErrNetworkFailure, target, resp.StatusCode)
	}

	raw, err := readDocument(resp.Body)
	if errors.Is(err, ErrDocumentTooLarge) {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", models.ErrNetworkFailure, err)
	}
	return raw, nil
}

// DocumentCache stores raw documents outside the process
type DocumentCache interface {
	GetDocument(ctx context.Context, name string) ([]byte, bool, error)
	SetDocument(ctx context.Context, name string, doc []byte, ttl time.Duration) error
	DeleteDocument(ctx context.Context, name string) error
}

// CachingFetcher serves documents from a shared cache before asking next.
// Cache errors are logged and never fail a fetch.
type CachingFetcher struct {
	next   Fetcher
	cache  DocumentCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingFetcher wraps next with cache
func NewCachingFetcher(next Fetcher, cache DocumentCache, ttl time.Duration) *CachingFetcher {
	return &CachingFetcher{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

func (f *CachingFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	doc, found, err := f.cache.GetDocument(ctx, name)
	if err != nil {
		f.logger.Warn("Document cache read failed", zap.String("config", name), zap.Error(err))
	} else if found {
		return doc, nil
	}

	doc, err = f.next.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := f.cache.SetDocument(ctx, name, doc, f.ttl); err != nil {
		f.logger.Warn("Document cache write failed", zap.String("config", name), zap.Error(err))
	}
	return doc, nil
}

// InvalidateDocument removes the shared copy of name
func (f *CachingFetcher) InvalidateDocument(ctx context.Context, name string) error {
	if err := f.cache.DeleteDocument(ctx, name); err != nil {
		return err
	}
	if inv, ok := f.next.(Invalidator); ok {
		return inv.InvalidateDocument(ctx, name)
	}
	return nil
}
