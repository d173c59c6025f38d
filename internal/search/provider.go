package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"pricescout/searchservice/internal/domain"
)

var (
	ErrInvalidQuery    = errors.New("query is required")
	ErrSearchFailed    = errors.New("search failed")
	ErrProviderTimeout = errors.New("provider timed out")
)

const (
	defaultSearchTimeout         = 10 * time.Second
	defaultMaxResultsPerProvider = 20
)

// Provider is one price source. Search returns the source's raw records for
// query; an error means the source contributes nothing to this search.
type Provider interface {
	Name() string
	Info() domain.ProviderInfo
	Search(ctx context.Context, query string) ([]domain.RawRecord, error)
}

type Service struct {
	providers     []Provider
	timeout       time.Duration
	perProvider   int
	cacheTTL      time.Duration
	cacheDisabled bool
	cache         *TTLCache[domain.SearchResponse]
	redisCache    *RedisCacheBackend
	coalesce      bool
	inflight      singleflight.Group
	normalizer    *Normalizer
	logger        *slog.Logger
	tracer        trace.Tracer
	healthMu      sync.Mutex
	health        map[string]*providerHealth
}

type ServiceOption func(*Service)

func WithRedisCache(backend *RedisCacheBackend) ServiceOption {
	return func(s *Service) {
		s.redisCache = backend
	}
}

func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithCacheDisabled(disabled bool) ServiceOption {
	return func(s *Service) {
		s.cacheDisabled = disabled
	}
}

// WithRequestCoalescing makes concurrent identical cache misses share one
// fan-out. Off by default: every miss queries every provider.
func WithRequestCoalescing(enabled bool) ServiceOption {
	return func(s *Service) {
		s.coalesce = enabled
	}
}

func WithMaxResultsPerProvider(limit int) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.perProvider = limit
		}
	}
}

func WithNormalizer(normalizer *Normalizer) ServiceOption {
	return func(s *Service) {
		if normalizer != nil {
			s.normalizer = normalizer
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService queries providers in the given order; that order is also the
// tie-break for equal prices.
func NewService(providers []Provider, timeout time.Duration, opts ...ServiceOption) *Service {
	enabled := make([]Provider, 0, len(providers))
	seen := make(map[string]struct{}, len(providers))
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(provider.Name()))
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		enabled = append(enabled, provider)
	}

	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}

	svc := &Service{
		providers:   enabled,
		timeout:     timeout,
		perProvider: defaultMaxResultsPerProvider,
		cacheTTL:    defaultCacheTTL,
		cache:       NewTTLCache[domain.SearchResponse](),
		normalizer:  NewNormalizer(domain.DefaultCurrency),
		logger:      slog.Default(),
		tracer:      otel.Tracer("pricescout/searchservice/search"),
		health:      make(map[string]*providerHealth),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Providers() []domain.ProviderInfo {
	items := make([]domain.ProviderInfo, 0, len(s.providers))
	for _, provider := range s.providers {
		info := provider.Info()
		if info.Name == "" {
			info.Name = providerKey(provider)
		}
		info.Name = strings.ToLower(strings.TrimSpace(info.Name))
		if info.Label == "" {
			info.Label = info.Name
		}
		items = append(items, info)
	}
	return items
}

// ClearCache drops every cached response from both tiers.
func (s *Service) ClearCache(ctx context.Context) {
	s.cache.Clear()
	if s.redisCache != nil {
		if err := s.redisCache.Clear(ctx); err != nil {
			s.logger.Warn("redis cache clear failed", slog.String("error", err.Error()))
		}
	}
}

func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}

func providerKey(provider Provider) string {
	return strings.ToLower(strings.TrimSpace(provider.Name()))
}
