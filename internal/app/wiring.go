package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pricescout/searchservice/internal/providers/amazon"
	"pricescout/searchservice/internal/providers/casasbahia"
	"pricescout/searchservice/internal/providers/catalog"
	"pricescout/searchservice/internal/providers/common"
	"pricescout/searchservice/internal/providers/magalu"
	"pricescout/searchservice/internal/search"
)

var ErrUnknownProvider = errors.New("unknown provider")

func NewLogger(out io.Writer, levelRaw, formatRaw string) *slog.Logger {
	options := &slog.HandlerOptions{Level: parseLogLevel(levelRaw)}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(out, options))
	}
	return slog.New(slog.NewTextHandler(out, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// BuildProviders returns the configured providers in cfg.Providers order,
// which is also the tie-break order for equal prices.
func BuildProviders(cfg Config, logger *slog.Logger) ([]search.Provider, error) {
	available := make(map[string]search.Provider, 3)
	if cfg.ProviderMode == ProviderModeDemo {
		for _, provider := range catalog.DemoProviders(catalog.Options{
			PriceJitter: cfg.DemoPriceJitter,
			FailureRate: cfg.DemoFailureRate,
			DelayMin:    cfg.DemoDelayMin,
			DelayMax:    cfg.DemoDelayMax,
		}) {
			available[provider.Name()] = provider
		}
	} else {
		fetcher := newFetcher(cfg)
		available[amazon.Name] = amazon.NewProvider(amazon.Config{
			Endpoint:  cfg.AmazonEndpoint,
			Fetcher:   fetcher,
			Logger:    logger,
			JitterMin: cfg.JitterMin,
			JitterMax: cfg.JitterMax,
		})
		available[magalu.Name] = magalu.NewProvider(magalu.Config{
			Endpoint:  cfg.MagaluEndpoint,
			Fetcher:   fetcher,
			Logger:    logger,
			JitterMin: cfg.JitterMin,
			JitterMax: cfg.JitterMax,
		})
		available[casasbahia.Name] = casasbahia.NewProvider(casasbahia.Config{
			Endpoint:    cfg.CasasBahiaEndpoint,
			APIEndpoint: cfg.CasasBahiaAPIEndpoint,
			Fetcher:     fetcher,
			Logger:      logger,
			JitterMin:   cfg.JitterMin,
			JitterMax:   cfg.JitterMax,
		})
	}

	providers := make([]search.Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		provider, ok := available[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
		}
		providers = append(providers, provider)
	}
	return providers, nil
}

func newFetcher(cfg Config) *common.Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ForceAttemptHTTP2 = true
	return common.NewFetcher(common.FetcherConfig{
		Client:         &http.Client{Transport: otelhttp.NewTransport(transport)},
		Limiter:        common.NewHostLimiter(cfg.MinHostInterval),
		Retry:          common.RetryConfig{MaxAttempts: cfg.MaxAttempts, Delay: cfg.RetryDelay},
		RequestTimeout: cfg.ScrapeRequestTimeout,
		UserAgent:      cfg.UserAgent,
	})
}

func BuildServiceOptions(ctx context.Context, cfg Config, logger *slog.Logger) []search.ServiceOption {
	opts := []search.ServiceOption{
		search.WithLogger(logger),
		search.WithNormalizer(search.NewNormalizer(cfg.DefaultCurrency)),
		search.WithRequestCoalescing(cfg.CoalesceRequests),
	}

	if cfg.CacheDisabled {
		opts = append(opts, search.WithCacheDisabled(true))
		return opts
	}
	if cfg.CacheTTL > 0 {
		opts = append(opts, search.WithCacheTTL(cfg.CacheTTL))
	}

	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return opts
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory cache only", slog.String("error", err.Error()))
		return opts
	}
	redisClient := redis.NewClient(redisOpts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not reachable, using in-memory cache only", slog.String("error", err.Error()))
		_ = redisClient.Close()
		return opts
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return append(opts, search.WithRedisCache(search.NewRedisCacheBackend(redisClient)))
}

// NewSearchService assembles the orchestrator from cfg.
func NewSearchService(ctx context.Context, cfg Config, logger *slog.Logger) (*search.Service, error) {
	providers, err := BuildProviders(cfg, logger)
	if err != nil {
		return nil, err
	}
	return search.NewService(providers, cfg.SearchTimeout, BuildServiceOptions(ctx, cfg, logger)...), nil
}
