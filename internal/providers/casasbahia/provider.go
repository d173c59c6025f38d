package casasbahia

import (
	"log/slog"
	"strings"
	"time"

	"pricescout/searchservice/internal/providers/common"
	"pricescout/searchservice/internal/providers/storefront"
)

const (
	Name               = "casasbahia"
	Store              = "Casas Bahia"
	defaultEndpoint    = "https://www.casasbahia.com.br"
	defaultAPIEndpoint = "https://api-partner-prd.casasbahia.com.br"
)

type Config struct {
	Endpoint    string
	APIEndpoint string
	Fetcher     *common.Fetcher
	Logger      *slog.Logger
	JitterMin   time.Duration
	JitterMax   time.Duration
}

// NewProvider queries the Casas Bahia search API first and scrapes the
// results page when the API is unavailable or returns nothing.
func NewProvider(cfg Config) *storefront.Provider {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	apiEndpoint := strings.TrimRight(strings.TrimSpace(cfg.APIEndpoint), "/")
	if apiEndpoint == "" {
		apiEndpoint = defaultAPIEndpoint
	}
	return storefront.NewProvider(storefront.Config{
		Name:           Name,
		Label:          Store,
		Store:          Store,
		BaseURL:        endpoint,
		APIURL:         apiEndpoint + "/api/v2/Search?terms=%s&resultsPerPage=20",
		APIItemPaths:   []string{"products", "Products", "data.products"},
		SearchURL:      endpoint + "/busca?q=%s",
		StateVariables: []string{"__NEXT_DATA__"},
		StateItemPaths: []string{"props.pageProps.searchResult.products", "props.pageProps.products"},
		Fields: storefront.FieldPaths{
			ID:   []string{"sku", "id", "Sku"},
			Name: []string{"name", "Name", "title"},
			Cost: []string{"price.salePrice", "price", "Price", "skus.0.price"},
			URL:  []string{"url", "Url", "urlProduct"},
			Metadata: map[string][]string{
				"model":    {"model"},
				"warranty": {"warranty"},
			},
		},
		Selectors: storefront.Selectors{
			Items: []string{
				`[data-testid="product-card"]`,
				`div[class*="product-card"]`,
				"li.product",
			},
			ID:    []string{"@data-sku", "@data-product-id"},
			Title: []string{`[data-testid="product-card-title"]`, "h3", "h2", ".product-title"},
			Price: []string{`[data-testid="product-card-price"]`, ".product-price", ".price"},
			Link:  []string{"a@href"},
		},
		JitterMin: cfg.JitterMin,
		JitterMax: cfg.JitterMax,
		Fetcher:   cfg.Fetcher,
		Logger:    cfg.Logger,
	})
}
