package magalu

import (
	"log/slog"
	"strings"
	"time"

	"pricescout/searchservice/internal/providers/common"
	"pricescout/searchservice/internal/providers/storefront"
)

const (
	Name            = "magalu"
	Store           = "Magazine Luiza"
	defaultEndpoint = "https://www.magazineluiza.com.br"
)

type Config struct {
	Endpoint  string
	Fetcher   *common.Fetcher
	Logger    *slog.Logger
	JitterMin time.Duration
	JitterMax time.Duration
}

// NewProvider reads the Next.js payload of the Magazine Luiza search page and
// falls back to the product cards when the payload shape changes.
func NewProvider(cfg Config) *storefront.Provider {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return storefront.NewProvider(storefront.Config{
		Name:            Name,
		Label:           Store,
		Store:           Store,
		BaseURL:         endpoint,
		SearchURL:       endpoint + "/busca/%s/",
		QueryPathEscape: true,
		StateVariables:  []string{"__NEXT_DATA__", "__INITIAL_STATE__"},
		StateItemPaths: []string{
			"props.pageProps.data.search.products",
			"props.pageProps.data.products",
			"search.products",
		},
		Fields: storefront.FieldPaths{
			ID:    []string{"id", "variationId", "sku"},
			Name:  []string{"title", "name"},
			Value: []string{"price.bestPrice", "price.price", "price.fullPrice", "price"},
			URL:   []string{"url", "path"},
			Metadata: map[string][]string{
				"brand":    {"brand.label", "brand"},
				"category": {"category.name", "category.id"},
				"rating":   {"rating.score"},
			},
		},
		Selectors: storefront.Selectors{
			Items: []string{
				`[data-testid="product-card-container"]`,
				`li[data-testid="product-card"]`,
				`a[data-testid="product-card-container"]`,
			},
			Title: []string{`[data-testid="product-title"]`, "h2", "h3"},
			Price: []string{`[data-testid="price-value"]`, `[data-testid="price-original"]`, ".price"},
			Link:  []string{"a@href"},
			Metadata: map[string][]string{
				"installment": {`[data-testid="installment"]`},
			},
		},
		JitterMin: cfg.JitterMin,
		JitterMax: cfg.JitterMax,
		Fetcher:   cfg.Fetcher,
		Logger:    cfg.Logger,
	})
}
