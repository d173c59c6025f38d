package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pricescout/searchservice/internal/domain"
	"pricescout/searchservice/internal/search"
)

type SearchService interface {
	Search(ctx context.Context, request domain.SearchRequest, filters *domain.SearchFilters) (domain.SearchResponse, error)
	Providers() []domain.ProviderInfo
	ProviderDiagnostics() []domain.ProviderDiagnostics
}

// CacheService is optional; without it /search/cache answers 404.
type CacheService interface {
	ClearCache(ctx context.Context)
	CacheStats() search.CacheStats
}

type Server struct {
	search         SearchService
	cache          CacheService
	logger         *slog.Logger
	rateLimitRPS   float64
	rateLimitBurst int
}

const (
	maxQueryLength      = 100
	searchCacheControl  = "public, max-age=300"
	defaultRateLimitRPS = 50
	defaultRateBurst    = 100
)

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithCache(cache CacheService) ServerOption {
	return func(s *Server) {
		s.cache = cache
	}
}

func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps > 0 && burst > 0 {
			s.rateLimitRPS = rps
			s.rateLimitBurst = burst
		}
	}
}

func NewServer(searchService SearchService, options ...ServerOption) *Server {
	server := &Server{
		search:         searchService,
		logger:         slog.Default(),
		rateLimitRPS:   defaultRateLimitRPS,
		rateLimitBurst: defaultRateBurst,
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/search/providers", s.handleProviders)
	mux.HandleFunc("/search/providers/health", s.handleProvidersHealth)
	mux.HandleFunc("/search/cache", s.handleCache)
	mux.HandleFunc("/search", s.handleSearch)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "price-search",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	limited := rateLimitMiddleware(s.rateLimitRPS, s.rateLimitBurst, metricsMiddleware(traced))
	return requestIDMiddleware(recoveryMiddleware(s.logger, limited))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}
	if s.search != nil {
		payload["providers"] = len(s.search.Providers())
	}
	writeJSON(w, http.StatusOK, payload)
}

// searchBody mirrors the POST form: query plus optional filters and config.
type searchBody struct {
	Query   string         `json:"query"`
	Filters *searchFilters `json:"filters,omitempty"`
	Config  *searchConfig  `json:"config,omitempty"`
}

type searchFilters struct {
	Stores   []string         `json:"stores,omitempty"`
	MinPrice *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice *decimal.Decimal `json:"maxPrice,omitempty"`
}

type searchConfig struct {
	MaxResults *int `json:"maxResults,omitempty"`
	Timeout    *int `json:"timeout,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search" {
		http.NotFound(w, r)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	var (
		body searchBody
		err  error
	)
	switch r.Method {
	case http.MethodGet:
		body, err = searchBodyFromQuery(r)
	case http.MethodPost:
		err = decodeJSONBody(r, &body)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	request, filters, err := validateSearch(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	response, err := s.search.Search(r.Context(), request, filters)
	if err != nil {
		s.logger.Warn("search request failed",
			slog.String("query", truncate(request.Query, 80)),
			slog.String("requestId", requestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		switch {
		case errors.Is(err, search.ErrInvalidQuery):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "search failed")
		}
		return
	}

	s.logger.Info("search completed",
		slog.String("query", truncate(request.Query, 80)),
		slog.Int("totalResults", response.TotalResults),
		slog.Int64("searchTimeMs", response.SearchTimeMS),
	)
	w.Header().Set("Cache-Control", searchCacheControl)
	writeJSON(w, http.StatusOK, response)
}

func searchBodyFromQuery(r *http.Request) (searchBody, error) {
	q := r.URL.Query()
	body := searchBody{Query: q.Get("q")}

	filters := &searchFilters{Stores: parseCSV(q.Get("stores"))}
	var err error
	if filters.MinPrice, err = parseOptionalDecimal(q.Get("minPrice")); err != nil {
		return body, errors.New("invalid minPrice")
	}
	if filters.MaxPrice, err = parseOptionalDecimal(q.Get("maxPrice")); err != nil {
		return body, errors.New("invalid maxPrice")
	}
	body.Filters = filters

	config := &searchConfig{}
	if config.MaxResults, err = parseOptionalInt(q.Get("maxResults")); err != nil {
		return body, errors.New("invalid maxResults")
	}
	if config.Timeout, err = parseOptionalInt(q.Get("timeout")); err != nil {
		return body, errors.New("invalid timeout")
	}
	body.Config = config
	return body, nil
}

// validateSearch applies the boundary rules shared by GET and POST and turns
// the body into the orchestrator's request and filters.
func validateSearch(body searchBody) (domain.SearchRequest, *domain.SearchFilters, error) {
	query := strings.TrimSpace(body.Query)
	if query == "" {
		return domain.SearchRequest{}, nil, errors.New("query is required")
	}
	if len([]rune(query)) > maxQueryLength {
		return domain.SearchRequest{}, nil, fmt.Errorf("query too long (max %d characters)", maxQueryLength)
	}
	request := domain.SearchRequest{Query: query}

	var filters *domain.SearchFilters
	if body.Filters != nil {
		minPrice, maxPrice := body.Filters.MinPrice, body.Filters.MaxPrice
		if minPrice != nil && minPrice.IsNegative() {
			return request, nil, errors.New("minPrice must be zero or greater")
		}
		if maxPrice != nil && maxPrice.IsNegative() {
			return request, nil, errors.New("maxPrice must be zero or greater")
		}
		if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(*maxPrice) {
			return request, nil, errors.New("minPrice must not exceed maxPrice")
		}
		filters = &domain.SearchFilters{
			Stores:   cleanStores(body.Filters.Stores),
			MinPrice: minPrice,
			MaxPrice: maxPrice,
		}
	}

	if body.Config != nil {
		if body.Config.MaxResults != nil {
			if *body.Config.MaxResults <= 0 {
				return request, nil, errors.New("maxResults must be a positive integer")
			}
			request.MaxResults = *body.Config.MaxResults
		}
		if body.Config.Timeout != nil {
			if *body.Config.Timeout <= 0 {
				return request, nil, errors.New("timeout must be a positive integer")
			}
			request.Timeout = time.Duration(*body.Config.Timeout) * time.Millisecond
		}
	}
	return request, filters, nil
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/providers" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": s.search.Providers(),
	})
}

func (s *Server) handleProvidersHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/providers/health" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"checkedAt": time.Now().UTC(),
		"items":     s.search.ProviderDiagnostics(),
	})
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.cache.CacheStats())
	case http.MethodDelete:
		s.cache.ClearCache(r.Context())
		s.logger.Info("search cache cleared", slog.String("requestId", requestIDFromContext(r.Context())))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			out = append(out, value)
		}
	}
	return out
}

// cleanStores trims and de-duplicates store names without changing their
// case: store membership is an exact match.
func cleanStores(stores []string) []string {
	if len(stores) == 0 {
		return nil
	}
	out := make([]string, 0, len(stores))
	seen := make(map[string]struct{}, len(stores))
	for _, store := range stores {
		value := strings.TrimSpace(store)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func decodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func parseOptionalDecimal(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseOptionalInt(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
