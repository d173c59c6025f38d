package search

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pricescout/searchservice/internal/domain"
	"pricescout/searchservice/internal/metrics"
)

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalizer maps raw provider records to canonical results. It never fails:
// records that cannot produce every canonical field are dropped.
type Normalizer struct {
	currency string
	now      func() time.Time
}

func NewNormalizer(currency string) *Normalizer {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &Normalizer{currency: currency, now: time.Now}
}

func (n *Normalizer) Normalize(raw domain.RawRecord) (domain.SearchResult, bool) {
	store := strings.TrimSpace(raw.Store)
	if store == "" {
		return domain.SearchResult{}, false
	}
	name := resolveName(raw)
	if name == "" {
		return domain.SearchResult{}, false
	}
	price, ok := resolvePrice(raw)
	if !ok {
		return domain.SearchResult{}, false
	}
	link, ok := resolveURL(raw)
	if !ok {
		return domain.SearchResult{}, false
	}

	now := n.now()
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = synthesizeID(store, name, now)
	}
	currency := strings.ToUpper(strings.TrimSpace(raw.Currency))
	if currency == "" {
		currency = n.currency
	}

	return domain.SearchResult{
		ID:          id,
		Name:        name,
		Price:       price,
		Store:       store,
		URL:         link,
		LastUpdated: resolveTimestamp(raw.LastUpdated, now),
		Currency:    currency,
	}, true
}

// NormalizeList keeps input order and silently omits rejected records.
func (n *Normalizer) NormalizeList(records []domain.RawRecord) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(records))
	for _, raw := range records {
		result, ok := n.Normalize(raw)
		if !ok {
			metrics.NormalizationRejectsTotal.Inc()
			continue
		}
		out = append(out, result)
	}
	return out
}

func resolveName(raw domain.RawRecord) string {
	for _, candidate := range []string{raw.Name, raw.Title} {
		if value := strings.Join(strings.Fields(candidate), " "); value != "" {
			return value
		}
	}
	return ""
}

// resolvePrice takes the first alias that is present; a present but unusable
// price rejects the record instead of falling through to the next alias.
func resolvePrice(raw domain.RawRecord) (decimal.Decimal, bool) {
	for _, candidate := range []domain.RawPrice{raw.Price, raw.Value, raw.Cost} {
		if !candidate.IsSet() {
			continue
		}
		if number, ok := candidate.Number(); ok {
			if math.IsNaN(number) || math.IsInf(number, 0) {
				return decimal.Zero, false
			}
			return domain.PositiveCents(decimal.NewFromFloat(number))
		}
		text, _ := candidate.Text()
		return domain.ParsePrice(text)
	}
	return decimal.Zero, false
}

func resolveURL(raw domain.RawRecord) (string, bool) {
	for _, candidate := range []string{raw.URL, raw.Link, raw.Href} {
		value := strings.TrimSpace(candidate)
		if value == "" {
			continue
		}
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			value = "https://" + strings.TrimPrefix(value, "//")
		}
		parsed, err := url.Parse(value)
		if err != nil || parsed.Host == "" {
			return "", false
		}
		return parsed.String(), true
	}
	return "", false
}

func resolveTimestamp(raw domain.RawTime, now time.Time) time.Time {
	if !raw.At.IsZero() {
		return raw.At
	}
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return now
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed
		}
	}
	if millis, err := strconv.ParseInt(text, 10, 64); err == nil && millis > 0 {
		return time.UnixMilli(millis)
	}
	return now
}

func synthesizeID(store, name string, now time.Time) string {
	base := store + "-" + name + "-" + strconv.FormatInt(now.UnixMilli(), 10)
	return strings.ToLower(unsafeIDChars.ReplaceAllString(base, "-"))
}
