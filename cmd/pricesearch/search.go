package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"pricescout/searchservice/internal/app"
	"pricescout/searchservice/internal/domain"
	"pricescout/searchservice/internal/search"
)

type searchOptions struct {
	stores     []string
	minPrice   string
	maxPrice   string
	maxResults int
	timeout    time.Duration
	asJSON     bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search all stores and print offers cheapest first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			filters, err := opts.filters()
			if err != nil {
				return err
			}
			if opts.maxResults < 0 {
				return errors.New("--max-results must be a positive integer")
			}
			if opts.timeout < 0 {
				return errors.New("--timeout must be positive")
			}

			svc, err := buildService(cmd.Context(), root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			response, err := svc.Search(cmd.Context(), domain.SearchRequest{
				Query:      query,
				MaxResults: opts.maxResults,
				Timeout:    opts.timeout,
			}, filters)
			if err != nil {
				return fmt.Errorf("search %q: %w", query, err)
			}
			if opts.asJSON {
				return writeResponseJSON(cmd.OutOrStdout(), response)
			}
			return writeResponseTable(cmd.OutOrStdout(), response)
		},
	}

	cmd.Flags().StringSliceVar(&opts.stores, "stores", nil, "Only keep offers from these stores (exact names, comma separated)")
	cmd.Flags().StringVar(&opts.minPrice, "min-price", "", "Lowest acceptable price")
	cmd.Flags().StringVar(&opts.maxPrice, "max-price", "", "Highest acceptable price")
	cmd.Flags().IntVar(&opts.maxResults, "max-results", 0, "Maximum number of offers to print (0 = all)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Per-store timeout (default from SEARCH_TIMEOUT_MS)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the raw response as JSON")
	return cmd
}

func (o *searchOptions) filters() (*domain.SearchFilters, error) {
	filters := &domain.SearchFilters{}
	for _, store := range o.stores {
		if value := strings.TrimSpace(store); value != "" {
			filters.Stores = append(filters.Stores, value)
		}
	}
	var err error
	if filters.MinPrice, err = parsePriceFlag("--min-price", o.minPrice); err != nil {
		return nil, err
	}
	if filters.MaxPrice, err = parsePriceFlag("--max-price", o.maxPrice); err != nil {
		return nil, err
	}
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MinPrice.GreaterThan(*filters.MaxPrice) {
		return nil, errors.New("--min-price must not exceed --max-price")
	}
	return filters, nil
}

func parsePriceFlag(name, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid price %q", name, raw)
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("%s must be zero or greater", name)
	}
	return &value, nil
}

func buildService(ctx context.Context, root *rootOptions, logOut io.Writer) (*search.Service, error) {
	cfg := app.LoadConfig()
	if root.demo {
		cfg.ProviderMode = app.ProviderModeDemo
	}
	// A one-shot process gains nothing from a cache of its own.
	cfg.CacheDisabled = true
	logger := app.NewLogger(logOut, root.logLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return app.NewSearchService(ctx, cfg, logger)
}

func writeResponseJSON(out io.Writer, response domain.SearchResponse) error {
	decimal.MarshalJSONWithoutQuotes = true
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

func writeResponseTable(out io.Writer, response domain.SearchResponse) error {
	fmt.Fprintf(out, "%d offers for %q in %dms\n", response.TotalResults, response.Query, response.SearchTimeMS)
	if len(response.Results) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRICE\tSTORE\tNAME\tURL")
	for _, result := range response.Results {
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\n",
			result.Currency, result.Price.StringFixed(2), result.Store, truncateName(result.Name, 60), result.URL)
	}
	return tw.Flush()
}

func truncateName(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
