package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderModeLive = "live"
	ProviderModeDemo = "demo"
)

type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	SearchTimeout      time.Duration
	CacheTTL           time.Duration
	CacheDisabled      bool
	CoalesceRequests   bool
	RedisURL           string
	DefaultCurrency    string
	HTTPRateLimitRPS   int
	HTTPRateLimitBurst int

	Providers    []string
	ProviderMode string

	AmazonEndpoint        string
	MagaluEndpoint        string
	CasasBahiaEndpoint    string
	CasasBahiaAPIEndpoint string

	UserAgent            string
	ScrapeRequestTimeout time.Duration
	MinHostInterval      time.Duration
	MaxAttempts          int
	RetryDelay           time.Duration
	JitterMin            time.Duration
	JitterMax            time.Duration

	DemoFailureRate float64
	DemoPriceJitter bool
	DemoDelayMin    time.Duration
	DemoDelayMax    time.Duration
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8090"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		SearchTimeout:      getEnvMillis("SEARCH_TIMEOUT_MS", 10*time.Second),
		CacheTTL:           time.Duration(getEnvInt("SEARCH_CACHE_TTL_SECONDS", 300)) * time.Second,
		CacheDisabled:      getEnvBool("SEARCH_CACHE_DISABLED", false),
		CoalesceRequests:   getEnvBool("SEARCH_COALESCE_REQUESTS", false),
		RedisURL:           getEnv("REDIS_URL", ""),
		DefaultCurrency:    strings.ToUpper(getEnv("DEFAULT_CURRENCY", "BRL")),
		HTTPRateLimitRPS:   getEnvInt("HTTP_RATE_LIMIT_RPS", 20),
		HTTPRateLimitBurst: getEnvInt("HTTP_RATE_LIMIT_BURST", 40),

		Providers:    getEnvList("SEARCH_PROVIDERS", []string{"amazon", "magalu", "casasbahia"}),
		ProviderMode: normalizeProviderMode(getEnv("SEARCH_PROVIDER_MODE", ProviderModeLive)),

		AmazonEndpoint:        getEnv("SEARCH_PROVIDER_AMAZON_ENDPOINT", "https://www.amazon.com.br"),
		MagaluEndpoint:        getEnv("SEARCH_PROVIDER_MAGALU_ENDPOINT", "https://www.magazineluiza.com.br"),
		CasasBahiaEndpoint:    getEnv("SEARCH_PROVIDER_CASASBAHIA_ENDPOINT", "https://www.casasbahia.com.br"),
		CasasBahiaAPIEndpoint: getEnv("SEARCH_PROVIDER_CASASBAHIA_API_ENDPOINT", "https://api-partner-prd.casasbahia.com.br"),

		UserAgent:            getEnv("SEARCH_USER_AGENT", ""),
		ScrapeRequestTimeout: getEnvMillis("SCRAPE_REQUEST_TIMEOUT_MS", 10*time.Second),
		MinHostInterval:      getEnvMillis("SCRAPE_MIN_HOST_INTERVAL_MS", time.Second),
		MaxAttempts:          getEnvInt("SCRAPE_MAX_ATTEMPTS", 3),
		RetryDelay:           getEnvMillis("SCRAPE_RETRY_DELAY_MS", time.Second),
		JitterMin:            getEnvMillis("SCRAPE_JITTER_MIN_MS", 500*time.Millisecond),
		JitterMax:            getEnvMillis("SCRAPE_JITTER_MAX_MS", 2*time.Second),

		DemoFailureRate: getEnvFloat("DEMO_FAILURE_RATE", 0.1),
		DemoPriceJitter: getEnvBool("DEMO_PRICE_JITTER", true),
		DemoDelayMin:    getEnvMillis("DEMO_DELAY_MIN_MS", 500*time.Millisecond),
		DemoDelayMax:    getEnvMillis("DEMO_DELAY_MAX_MS", 2500*time.Millisecond),
	}
}

func normalizeProviderMode(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), ProviderModeDemo) {
		return ProviderModeDemo
	}
	return ProviderModeLive
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// getEnvMillis reads a millisecond count. Zero is accepted so delays can be
// switched off; negative or malformed values fall back.
func getEnvMillis(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if value := strings.ToLower(strings.TrimSpace(part)); value != "" {
			items = append(items, value)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
