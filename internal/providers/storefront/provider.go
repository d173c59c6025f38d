package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"pricescout/searchservice/internal/domain"
	"pricescout/searchservice/internal/metrics"
	"pricescout/searchservice/internal/providers/common"
)

const defaultMaxResults = 20

const (
	strategyStructured = "structured"
	strategyMarkup     = "markup"
	strategyNone       = "none"
)

// FieldPaths lists gjson paths per raw field, relative to one item. Each
// field takes the first path that resolves to a non-empty value.
type FieldPaths struct {
	ID          []string
	Name        []string
	Title       []string
	Price       []string
	Value       []string
	Cost        []string
	URL         []string
	Currency    []string
	LastUpdated []string
	Metadata    map[string][]string
}

// Selectors lists goquery selectors per field, relative to one item. A
// selector may end in "@attr" to read an attribute instead of text; a bare
// "@attr" reads the item element itself.
type Selectors struct {
	Items    []string
	ID       []string
	Title    []string
	Price    []string
	Link     []string
	Metadata map[string][]string
}

type Config struct {
	Name  string
	Label string
	Store string

	BaseURL string
	// APIURL and SearchURL are templates; %s receives the escaped query.
	APIURL       string
	APIItemPaths []string
	SearchURL    string
	// StateVariables name embedded JSON payloads on the results page.
	StateVariables  []string
	StateItemPaths  []string
	Fields          FieldPaths
	Selectors       Selectors
	QueryPathEscape bool

	MaxResults int
	JitterMin  time.Duration
	JitterMax  time.Duration
	Fetcher    *common.Fetcher
	Logger     *slog.Logger
}

// Provider scrapes one storefront. It tries the store's structured data
// first and falls back to parsing the rendered results page.
type Provider struct {
	cfg     Config
	fetcher *common.Fetcher
	logger  *slog.Logger
}

func NewProvider(cfg Config) *Provider {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.Label == "" {
		cfg.Label = cfg.Store
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = common.NewFetcher(common.FetcherConfig{})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger.With(slog.String("provider", cfg.Name)),
	}
}

func (p *Provider) Name() string {
	return p.cfg.Name
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.cfg.Name,
		Label:   p.cfg.Label,
		Store:   p.cfg.Store,
		Kind:    "storefront",
		Enabled: true,
	}
}

// Search never panics past this boundary: a panic is returned as an error
// with an empty record list.
func (p *Provider) Search(ctx context.Context, query string) (records []domain.RawRecord, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			p.logger.Error("storefront search panicked", slog.Any("panic", recovered))
			records = []domain.RawRecord{}
			err = fmt.Errorf("%s: extraction failed: %v", p.cfg.Name, recovered)
		}
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.RawRecord{}, nil
	}
	if err := common.Sleep(ctx, common.RandomDuration(p.cfg.JitterMin, p.cfg.JitterMax)); err != nil {
		return []domain.RawRecord{}, err
	}

	var structuredErr error
	if p.cfg.APIURL != "" {
		records, structuredErr = p.searchAPI(ctx, query)
		if structuredErr == nil && len(records) > 0 {
			return p.finish(strategyStructured, records), nil
		}
		if ctx.Err() != nil {
			return []domain.RawRecord{}, ctx.Err()
		}
	}

	page, pageErr := p.fetchResultsPage(ctx, query)
	if pageErr != nil {
		if structuredErr != nil {
			return []domain.RawRecord{}, fmt.Errorf("%s: %w", p.cfg.Name, errors.Join(structuredErr, pageErr))
		}
		return []domain.RawRecord{}, fmt.Errorf("%s: %w", p.cfg.Name, pageErr)
	}

	if records := p.extractState(page); len(records) > 0 {
		return p.finish(strategyStructured, records), nil
	}
	if records := p.extractMarkup(page); len(records) > 0 {
		if structuredErr != nil {
			p.logger.Debug("structured path failed, markup fallback succeeded",
				slog.String("error", structuredErr.Error()))
		}
		return p.finish(strategyMarkup, records), nil
	}
	metrics.ProviderStrategyTotal.WithLabelValues(p.cfg.Name, strategyNone).Inc()
	return []domain.RawRecord{}, nil
}

func (p *Provider) finish(strategy string, records []domain.RawRecord) []domain.RawRecord {
	metrics.ProviderStrategyTotal.WithLabelValues(p.cfg.Name, strategy).Inc()
	if len(records) > p.cfg.MaxResults {
		records = records[:p.cfg.MaxResults]
	}
	return records
}

func (p *Provider) searchAPI(ctx context.Context, query string) ([]domain.RawRecord, error) {
	body, err := p.fetcher.Get(ctx, p.buildURL(p.cfg.APIURL, query), common.RequestOptions{
		Referer: p.cfg.BaseURL,
		JSON:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}
	records, ok := p.recordsFromJSON(string(body), p.cfg.APIItemPaths)
	if !ok {
		return nil, fmt.Errorf("api: no items in response")
	}
	return records, nil
}

func (p *Provider) fetchResultsPage(ctx context.Context, query string) (string, error) {
	body, err := p.fetcher.Get(ctx, p.buildURL(p.cfg.SearchURL, query), common.RequestOptions{
		Referer: p.cfg.BaseURL,
	})
	if err != nil {
		return "", fmt.Errorf("results page: %w", err)
	}
	return string(body), nil
}

func (p *Provider) buildURL(template, query string) string {
	escaped := url.QueryEscape(query)
	if p.cfg.QueryPathEscape {
		escaped = url.PathEscape(query)
	}
	return fmt.Sprintf(template, escaped)
}
