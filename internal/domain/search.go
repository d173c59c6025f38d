package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "BRL"

type SearchRequest struct {
	Query      string
	MaxResults int
	Timeout    time.Duration
}

type SearchFilters struct {
	Stores   []string         `json:"stores,omitempty"`
	MinPrice *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice *decimal.Decimal `json:"maxPrice,omitempty"`
}

// IsZero reports whether the filters restrict nothing.
func (f *SearchFilters) IsZero() bool {
	return f == nil || (len(f.Stores) == 0 && f.MinPrice == nil && f.MaxPrice == nil)
}

// Matches applies the three independent predicates. Store membership is exact.
func (f *SearchFilters) Matches(result SearchResult) bool {
	if f == nil {
		return true
	}
	if len(f.Stores) > 0 {
		found := false
		for _, store := range f.Stores {
			if store == result.Store {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinPrice != nil && result.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && result.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func (f *SearchFilters) Clone() *SearchFilters {
	if f.IsZero() {
		return nil
	}
	cloned := &SearchFilters{
		Stores: append([]string(nil), f.Stores...),
	}
	if f.MinPrice != nil {
		value := *f.MinPrice
		cloned.MinPrice = &value
	}
	if f.MaxPrice != nil {
		value := *f.MaxPrice
		cloned.MaxPrice = &value
	}
	return cloned
}

type SearchResult struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Store       string          `json:"store"`
	URL         string          `json:"url"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Currency    string          `json:"currency"`
}

type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"totalResults"`
	SearchTimeMS int64          `json:"searchTime"`
	Query        string         `json:"query"`
	Filters      *SearchFilters `json:"filters,omitempty"`
}

type ProviderInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Store   string `json:"store"`
	Kind    string `json:"kind"`
	Enabled bool   `json:"enabled"`
}

type ProviderError struct {
	Provider  string    `json:"provider"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type ProviderDiagnostics struct {
	Name                string     `json:"name"`
	Label               string     `json:"label"`
	Store               string     `json:"store"`
	Kind                string     `json:"kind"`
	Enabled             bool       `json:"enabled"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	LastError           string     `json:"lastError,omitempty"`
	LastSuccessAt       *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *time.Time `json:"lastFailureAt,omitempty"`
	LastLatencyMS       int64      `json:"lastLatencyMs,omitempty"`
	LastTimeout         bool       `json:"lastTimeout,omitempty"`
	LastQuery           string     `json:"lastQuery,omitempty"`
	LastCount           int        `json:"lastCount"`
	TotalRequests       int64      `json:"totalRequests,omitempty"`
	TotalFailures       int64      `json:"totalFailures,omitempty"`
	TimeoutCount        int64      `json:"timeoutCount,omitempty"`
}
