package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"pricescout/searchservice/internal/domain"
	"pricescout/searchservice/internal/metrics"
)

type providerOutcome struct {
	records []domain.RawRecord
	err     error
}

// Search answers query from the cache when it can and otherwise fans it out to
// every provider. Provider failures and timeouts only shrink the result set;
// an error is returned for an empty query, a cancelled caller, or an internal
// fault, and such searches are never cached.
func (s *Service) Search(ctx context.Context, request domain.SearchRequest, filters *domain.SearchFilters) (response domain.SearchResponse, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error("search panicked",
				slog.String("query", request.Query),
				slog.Any("panic", recovered),
			)
			response = domain.SearchResponse{}
			err = fmt.Errorf("%w: %v", ErrSearchFailed, recovered)
		}
	}()

	query := strings.TrimSpace(request.Query)
	if query == "" {
		return domain.SearchResponse{}, ErrInvalidQuery
	}
	filters = prepareFilters(filters)
	timeout := s.timeout
	if request.Timeout > 0 {
		timeout = request.Timeout
	}
	startedAt := time.Now()

	ctx, span := s.tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.String("search.query", query),
		attribute.Int("search.providers", len(s.providers)),
	))
	defer span.End()

	if s.cacheDisabled {
		response, err := s.fanOut(ctx, query, request.MaxResults, filters, timeout, startedAt)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		return response, err
	}

	cacheKey := buildSearchCacheKey(query, filters, request.MaxResults)
	if cached, ok := s.cacheLookup(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool("search.cache_hit", true))
		return cached, nil
	}
	metrics.CacheMissesTotal.Inc()

	execute := func() (domain.SearchResponse, error) {
		response, err := s.fanOut(ctx, query, request.MaxResults, filters, timeout, startedAt)
		if err != nil {
			return domain.SearchResponse{}, err
		}
		s.cacheStore(ctx, cacheKey, response)
		return response, nil
	}

	if !s.coalesce {
		response, err = execute()
	} else {
		var shared any
		shared, err, _ = s.inflight.Do(cacheKey, func() (any, error) {
			return execute()
		})
		if err == nil {
			response = cloneSearchResponse(shared.(domain.SearchResponse))
		}
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.SearchResponse{}, err
	}
	return response, nil
}

func (s *Service) cacheLookup(ctx context.Context, key string) (domain.SearchResponse, bool) {
	if cached, ok := s.cache.Get(key); ok {
		metrics.CacheHitsTotal.Inc()
		return cloneSearchResponse(cached), true
	}
	if s.redisCache == nil {
		return domain.SearchResponse{}, false
	}
	cached, remaining, found, err := s.redisCache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("redis cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return domain.SearchResponse{}, false
	}
	if !found {
		return domain.SearchResponse{}, false
	}
	metrics.CacheHitsTotal.Inc()
	s.cache.Set(key, cached, remaining)
	return cloneSearchResponse(cached), true
}

func (s *Service) cacheStore(ctx context.Context, key string, response domain.SearchResponse) {
	s.cache.Set(key, cloneSearchResponse(response), s.cacheTTL)
	if s.redisCache == nil {
		return
	}
	if err := s.redisCache.Set(ctx, key, response, s.cacheTTL); err != nil {
		s.logger.Warn("redis cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// fanOut queries every provider concurrently and waits for all of them to
// settle. Outcomes are kept by provider index so pooling follows provider
// order regardless of completion order.
func (s *Service) fanOut(
	ctx context.Context,
	query string,
	maxResults int,
	filters *domain.SearchFilters,
	timeout time.Duration,
	startedAt time.Time,
) (domain.SearchResponse, error) {
	fanOutStartedAt := time.Now()
	outcomes := make([]providerOutcome, len(s.providers))

	var group errgroup.Group
	for i, provider := range s.providers {
		group.Go(func() error {
			outcomes[i] = s.runProvider(ctx, provider, query, timeout)
			return nil
		})
	}
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return domain.SearchResponse{}, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	pooled := make([]domain.SearchResult, 0)
	var failures []domain.ProviderError
	for i, outcome := range outcomes {
		name := providerKey(s.providers[i])
		if outcome.err != nil {
			failures = append(failures, domain.ProviderError{
				Provider:  name,
				Error:     outcome.err.Error(),
				Timestamp: time.Now(),
			})
			continue
		}
		records := outcome.records
		if len(records) > s.perProvider {
			records = records[:s.perProvider]
		}
		normalized := s.normalizer.NormalizeList(records)
		metrics.ProviderResultsTotal.WithLabelValues(name).Add(float64(len(normalized)))
		pooled = append(pooled, normalized...)
	}

	results := applyFilters(pooled, filters)
	sortByPrice(results)
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}

	if len(failures) > 0 {
		s.logger.Warn("search completed with provider errors",
			slog.String("query", query),
			slog.Int("errors", len(failures)),
			slog.Any("providerErrors", failures),
		)
	}
	metrics.SearchDuration.Observe(time.Since(fanOutStartedAt).Seconds())

	return domain.SearchResponse{
		Results:      results,
		TotalResults: len(results),
		SearchTimeMS: time.Since(startedAt).Milliseconds(),
		Query:        query,
		Filters:      filters.Clone(),
	}, nil
}

// runProvider races one provider against its own deadline. The provider call
// runs on a separate goroutine writing to a buffered channel, so a result that
// arrives after the deadline is dropped without blocking the sender.
func (s *Service) runProvider(ctx context.Context, provider Provider, query string, timeout time.Duration) providerOutcome {
	name := providerKey(provider)
	ctx, span := s.tracer.Start(ctx, "search.provider", trace.WithAttributes(
		attribute.String("provider", name),
	))
	defer span.End()

	branchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startedAt := time.Now()
	done := make(chan providerOutcome, 1)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				done <- providerOutcome{err: fmt.Errorf("provider %s panicked: %v", name, recovered)}
			}
		}()
		records, err := provider.Search(branchCtx, query)
		done <- providerOutcome{records: records, err: err}
	}()

	var outcome providerOutcome
	select {
	case outcome = <-done:
		if outcome.err != nil && errors.Is(outcome.err, context.DeadlineExceeded) && ctx.Err() == nil {
			outcome = providerOutcome{err: fmt.Errorf("%w after %s", ErrProviderTimeout, timeout)}
		}
	case <-branchCtx.Done():
		if ctx.Err() != nil {
			outcome = providerOutcome{err: ctx.Err()}
		} else {
			outcome = providerOutcome{err: fmt.Errorf("%w after %s", ErrProviderTimeout, timeout)}
		}
	}

	latency := time.Since(startedAt)
	s.recordProviderResult(name, query, outcome.err, latency, len(outcome.records), time.Now())
	if outcome.err != nil {
		span.RecordError(outcome.err)
		span.SetStatus(codes.Error, outcome.err.Error())
		s.logger.Debug("provider search failed",
			slog.String("provider", name),
			slog.Duration("latency", latency),
			slog.String("error", outcome.err.Error()),
		)
		return providerOutcome{err: outcome.err}
	}
	span.SetAttributes(attribute.Int("provider.records", len(outcome.records)))
	return outcome
}

// prepareFilters canonicalizes the store list so filtering, the cache key and
// the echoed filters all see the same set. Empty filters become nil.
func prepareFilters(filters *domain.SearchFilters) *domain.SearchFilters {
	if filters.IsZero() {
		return nil
	}
	prepared := filters.Clone()
	prepared.Stores = normalizeStoreNames(prepared.Stores)
	if prepared.IsZero() {
		return nil
	}
	return prepared
}

func applyFilters(items []domain.SearchResult, filters *domain.SearchFilters) []domain.SearchResult {
	if filters.IsZero() {
		return items
	}
	out := items[:0]
	for _, item := range items {
		if filters.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}

// sortByPrice orders ascending; equal prices keep provider order.
func sortByPrice(items []domain.SearchResult) {
	slices.SortStableFunc(items, func(a, b domain.SearchResult) int {
		return a.Price.Cmp(b.Price)
	})
}
