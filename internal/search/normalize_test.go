package search

import (
	"strings"
	"testing"
	"time"

	"pricescout/searchservice/internal/domain"
)

func newFixedNormalizer(now time.Time) *Normalizer {
	n := NewNormalizer("")
	n.now = func() time.Time { return now }
	return n
}

func TestNormalizeResolvesAliases(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := newFixedNormalizer(now)

	result, ok := n.Normalize(domain.RawRecord{
		Title: "  Smart TV   55\" 4K ",
		Value: domain.PriceText("R$ 2.899,00"),
		Href:  "//www.magazineluiza.com.br/tv/p/123",
		Store: "Magazine Luiza",
	})
	if !ok {
		t.Fatal("expected record to normalize")
	}
	if result.Name != `Smart TV 55" 4K` {
		t.Fatalf("unexpected name %q", result.Name)
	}
	if result.Price.StringFixed(2) != "2899.00" {
		t.Fatalf("unexpected price %s", result.Price)
	}
	if result.URL != "https://www.magazineluiza.com.br/tv/p/123" {
		t.Fatalf("unexpected url %q", result.URL)
	}
	if result.Currency != "BRL" {
		t.Fatalf("unexpected currency %q", result.Currency)
	}
	if !result.LastUpdated.Equal(now) {
		t.Fatalf("expected lastUpdated to default to now, got %s", result.LastUpdated)
	}
}

func TestNormalizePrefersFirstAlias(t *testing.T) {
	n := NewNormalizer("BRL")
	result, ok := n.Normalize(domain.RawRecord{
		Name:  "primary",
		Title: "secondary",
		Price: domain.PriceNumber(10.005),
		Cost:  domain.PriceNumber(99),
		URL:   "https://a.example/1",
		Link:  "https://b.example/2",
		Store: "Amazon",
	})
	if !ok {
		t.Fatal("expected record to normalize")
	}
	if result.Name != "primary" || result.URL != "https://a.example/1" {
		t.Fatalf("unexpected alias resolution %+v", result)
	}
	if result.Price.StringFixed(2) != "10.01" {
		t.Fatalf("expected price rounded to cents, got %s", result.Price.StringFixed(2))
	}
}

func TestNormalizeRejectsIncompleteRecords(t *testing.T) {
	n := NewNormalizer("BRL")
	tests := []struct {
		name string
		raw  domain.RawRecord
	}{
		{"missing name", domain.RawRecord{Price: domain.PriceNumber(10), URL: "https://x.example", Store: "Amazon"}},
		{"blank title", domain.RawRecord{Title: "   ", Price: domain.PriceNumber(10), URL: "https://x.example", Store: "Amazon"}},
		{"missing price", domain.RawRecord{Name: "a", URL: "https://x.example", Store: "Amazon"}},
		{"zero price", domain.RawRecord{Name: "a", Price: domain.PriceNumber(0), URL: "https://x.example", Store: "Amazon"}},
		{"negative price", domain.RawRecord{Name: "a", Price: domain.PriceNumber(-5), URL: "https://x.example", Store: "Amazon"}},
		{"unparseable price", domain.RawRecord{Name: "a", Price: domain.PriceText("sob consulta"), URL: "https://x.example", Store: "Amazon"}},
		{"present price shadows cost", domain.RawRecord{Name: "a", Price: domain.PriceText("grátis"), Cost: domain.PriceNumber(10), URL: "https://x.example", Store: "Amazon"}},
		{"missing url", domain.RawRecord{Name: "a", Price: domain.PriceNumber(10), Store: "Amazon"}},
		{"hostless url", domain.RawRecord{Name: "a", Price: domain.PriceNumber(10), URL: "https://", Store: "Amazon"}},
		{"missing store", domain.RawRecord{Name: "a", Price: domain.PriceNumber(10), URL: "https://x.example"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result, ok := n.Normalize(tt.raw); ok {
				t.Fatalf("expected rejection, got %+v", result)
			}
		})
	}
}

func TestNormalizeKeepsOrSynthesizesID(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	n := newFixedNormalizer(now)

	kept, ok := n.Normalize(domain.RawRecord{ID: "amz-1", Name: "a", Price: domain.PriceNumber(1), URL: "https://x.example", Store: "Amazon"})
	if !ok || kept.ID != "amz-1" {
		t.Fatalf("expected id to be preserved, got %q", kept.ID)
	}

	synth, ok := n.Normalize(domain.RawRecord{Name: "Notebook Dell i5/8GB", Price: domain.PriceNumber(1), URL: "https://x.example", Store: "Casas Bahia"})
	if !ok {
		t.Fatal("expected record to normalize")
	}
	want := "casas-bahia-notebook-dell-i5-8gb-1700000000000"
	if synth.ID != want {
		t.Fatalf("expected %q, got %q", want, synth.ID)
	}
	if strings.ContainsAny(synth.ID, " /") {
		t.Fatalf("synthesized id contains unsafe characters: %q", synth.ID)
	}
}

func TestNormalizeTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := newFixedNormalizer(now)
	structured := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		raw  domain.RawTime
		want time.Time
	}{
		{"structured", domain.RawTime{At: structured}, structured},
		{"rfc3339", domain.RawTime{Text: "2025-01-02T03:04:05Z"}, structured},
		{"date only", domain.RawTime{Text: "2025-01-02"}, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"unix millis", domain.RawTime{Text: "1735787045000"}, time.UnixMilli(1735787045000)},
		{"garbage", domain.RawTime{Text: "ontem"}, now},
		{"absent", domain.RawTime{}, now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := n.Normalize(domain.RawRecord{
				Name: "a", Price: domain.PriceNumber(1), URL: "https://x.example", Store: "Amazon",
				LastUpdated: tt.raw,
			})
			if !ok {
				t.Fatal("expected record to normalize")
			}
			if !result.LastUpdated.Equal(tt.want) {
				t.Fatalf("expected %s, got %s", tt.want, result.LastUpdated)
			}
		})
	}
}

func TestNormalizeListOmitsRejects(t *testing.T) {
	n := NewNormalizer("BRL")
	out := n.NormalizeList([]domain.RawRecord{
		{Name: "first", Price: domain.PriceNumber(1), URL: "https://x.example/1", Store: "Amazon"},
		{Name: "broken", Store: "Amazon"},
		{Name: "second", Price: domain.PriceText("2,50"), URL: "https://x.example/2", Store: "Amazon", Currency: "usd"},
	})
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0].Name != "first" || out[1].Name != "second" {
		t.Fatalf("expected input order to be preserved, got %+v", out)
	}
	if out[1].Currency != "USD" {
		t.Fatalf("expected record currency to win, got %q", out[1].Currency)
	}
}
