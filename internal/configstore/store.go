// Package configstore caches validated storefront configurations by name.
package configstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/schema"
	"storefront/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Status tags the outcome of a load
type Status string

const (
	StatusLoaded   Status = "loaded"
	StatusDegraded Status = "degraded"
)

// Result is the outcome of Load. A degraded result carries the built-in
// default configuration and the failure that caused it.
type Result struct {
	Name   string
	Config *models.Configuration
	Status Status
	Cause  error
	Cached bool
}

// Degraded reports whether the result is the fallback configuration
func (r Result) Degraded() bool {
	return r.Status == StatusDegraded
}

// DegradedHook is called after a load falls back to the default
type DegradedHook func(ctx context.Context, name string, cause error)

// Option configures a Store
type Option func(*Store)

// WithDegradedHook registers a callback for degraded loads
func WithDegradedHook(hook DegradedHook) Option {
	return func(s *Store) {
		s.onDegraded = hook
	}
}

// Store maps configuration names to validated configurations. It is the only
// writer of its cache and hands out copies.
type Store struct {
	fetcher    Fetcher
	onDegraded DegradedHook
	logger     *zap.Logger

	mu         sync.RWMutex
	cache      map[string]*models.Configuration
	resets     uint64
	epochs     map[string]uint64
	activeName string
	active     *models.Configuration

	inflight singleflight.Group
}

// New creates a Store backed by fetcher with the built-in default active
func New(fetcher Fetcher, opts ...Option) *Store {
	s := &Store{
		fetcher:    fetcher,
		logger:     util.GetLogger(),
		cache:      make(map[string]*models.Configuration),
		epochs:     make(map[string]uint64),
		activeName: schema.DefaultName,
		active:     schema.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateName checks that name is usable as a cache key and path segment
func ValidateName(name string) error {
	if !namePattern.MatchString(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", models.ErrInvalidConfigName, name)
	}
	return nil
}

// ResolveName picks the configuration name from a query value, falling back
// to the deployment default when the query is blank.
func ResolveName(query, fallback string) string {
	if q := strings.TrimSpace(query); q != "" {
		return q
	}
	if fallback == "" {
		return schema.DefaultName
	}
	return fallback
}

// Load resolves name to a configuration. Cached entries are returned without
// fetching or validating again. Concurrent loads of the same name share one
// fetch. On any failure the built-in default is returned as a degraded
// result together with the cause; broken entries are never cached.
func (s *Store) Load(ctx context.Context, name string) (Result, error) {
	ctx, span := util.StartSpan(ctx, "ConfigStore.Load")
	defer span.End()

	if err := ValidateName(name); err != nil {
		return s.degrade(ctx, name, err), err
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		s.setActive(name, cached)
		util.ConfigLoadsTotal.WithLabelValues("hit").Inc()
		s.logger.Debug("Config cache hit", zap.String("config", name))
		return Result{Name: name, Config: cached.Clone(), Status: StatusLoaded, Cached: true}, nil
	}

	v, err, _ := s.inflight.Do(name, func() (interface{}, error) {
		return s.fetch(context.WithoutCancel(ctx), name)
	})
	if err != nil {
		util.RecordError(span, err)
		return s.degrade(ctx, name, err), err
	}

	cfg := v.(*models.Configuration)
	s.setActive(name, cfg)
	util.ConfigLoadsTotal.WithLabelValues("loaded").Inc()
	s.logger.Info("Config loaded", zap.String("config", name), zap.String("version", cfg.Version))
	return Result{Name: name, Config: cfg.Clone(), Status: StatusLoaded}, nil
}

func (s *Store) fetch(ctx context.Context, name string) (*models.Configuration, error) {
	s.mu.RLock()
	resets, epoch := s.resets, s.epochs[name]
	s.mu.RUnlock()

	start := time.Now()
	raw, err := s.fetcher.Fetch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetch config %q: %w", name, err)
	}
	cfg, err := schema.Validate(raw)
	util.ConfigFetchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", name, err)
	}

	s.mu.Lock()
	// an invalidate of name or a reset while fetching means this result may be stale
	if s.resets == resets && s.epochs[name] == epoch {
		s.cache[name] = cfg
	}
	s.mu.Unlock()
	return cfg, nil
}

func (s *Store) degrade(ctx context.Context, name string, cause error) Result {
	fallback := schema.Default()
	active := name
	if ValidateName(name) != nil {
		active = schema.DefaultName
	}
	s.setActive(active, fallback)
	util.ConfigLoadsTotal.WithLabelValues("degraded").Inc()
	s.logger.Warn("Config load failed, using built-in default",
		zap.String("config", name),
		zap.Error(cause))
	if s.onDegraded != nil {
		s.onDegraded(ctx, name, cause)
	}
	return Result{Name: name, Config: fallback.Clone(), Status: StatusDegraded, Cause: cause}
}

func (s *Store) setActive(name string, cfg *models.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeName = name
	s.active = cfg
}

// Active returns the name and a copy of the active configuration
func (s *Store) Active() (string, *models.Configuration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeName, s.active.Clone()
}

// Cached reports whether name currently has a cache entry
func (s *Store) Cached(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[name]
	return ok
}

// Len returns the number of cached configurations
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Invalidate drops the cache entry for name so the next Load fetches again
func (s *Store) Invalidate(name string) {
	s.mu.Lock()
	delete(s.cache, name)
	s.epochs[name]++
	s.mu.Unlock()
	s.inflight.Forget(name)

	if inv, ok := s.fetcher.(Invalidator); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := inv.InvalidateDocument(ctx, name); err != nil {
			s.logger.Warn("Failed to invalidate cached document", zap.String("config", name), zap.Error(err))
		}
	}

	util.ConfigInvalidationsTotal.Inc()
	s.logger.Info("Config invalidated", zap.String("config", name))
}

// Reset clears every entry and installs the built-in default as active
func (s *Store) Reset() {
	s.mu.Lock()
	s.cache = make(map[string]*models.Configuration)
	s.epochs = make(map[string]uint64)
	s.resets++
	s.activeName = schema.DefaultName
	s.active = schema.Default()
	s.mu.Unlock()

	s.logger.Info("Config store reset to built-in default")
}

// Reload invalidates the active configuration name and loads it again
func (s *Store) Reload(ctx context.Context) (Result, error) {
	s.mu.RLock()
	name := s.activeName
	s.mu.RUnlock()

	s.Invalidate(name)
	return s.Load(ctx, name)
}
