package amazon

import (
	"log/slog"
	"strings"
	"time"

	"pricescout/searchservice/internal/providers/common"
	"pricescout/searchservice/internal/providers/storefront"
)

const (
	Name            = "amazon"
	Store           = "Amazon"
	defaultEndpoint = "https://www.amazon.com.br"
)

type Config struct {
	Endpoint  string
	Fetcher   *common.Fetcher
	Logger    *slog.Logger
	JitterMin time.Duration
	JitterMax time.Duration
}

// NewProvider scrapes the Amazon Brasil results page. Amazon exposes no
// usable state payload, so extraction is markup only.
func NewProvider(cfg Config) *storefront.Provider {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return storefront.NewProvider(storefront.Config{
		Name:      Name,
		Label:     "Amazon Brasil",
		Store:     Store,
		BaseURL:   endpoint,
		SearchURL: endpoint + "/s?k=%s",
		Selectors: storefront.Selectors{
			Items: []string{
				`div[data-component-type="s-search-result"]`,
				`.s-result-item[data-asin]:not([data-asin=""])`,
				`div[data-asin]:not([data-asin=""])`,
			},
			ID: []string{"@data-asin"},
			Title: []string{
				"h2 a span",
				"h2 span",
				".a-size-medium.a-color-base.a-text-normal",
				".a-size-base-plus.a-color-base.a-text-normal",
			},
			Price: []string{
				".a-price:not(.a-text-price) .a-offscreen",
				".a-price .a-offscreen",
				".a-price-whole",
				".a-color-price",
			},
			Link: []string{
				"h2 a@href",
				"a.a-link-normal.s-no-outline@href",
				"a.a-link-normal@href",
			},
			Metadata: map[string][]string{
				"rating":  {".a-icon-star-small .a-icon-alt", ".a-icon-alt"},
				"reviews": {`a[href*="customerReviews"] span`, ".a-size-base.s-underline-text"},
				"prime":   {"i.a-icon-prime@aria-label"},
			},
		},
		JitterMin: cfg.JitterMin,
		JitterMax: cfg.JitterMax,
		Fetcher:   cfg.Fetcher,
		Logger:    cfg.Logger,
	})
}
