package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"pricescout/searchservice/internal/domain"
	"pricescout/searchservice/internal/providers/common"
)

// Product is one demo listing. Only one of the price fields is set, matching
// the field naming of the store it imitates.
type Product struct {
	Title    string
	Name     string
	Price    float64
	Value    float64
	Cost     float64
	URL      string
	Metadata map[string]string
}

type Config struct {
	Name  string
	Label string
	Store string
	// Products maps a keyword to the listings returned when a query contains it.
	Products map[string][]Product
	// PriceJitter scales each price by a random factor in [1-j, 1+j].
	PriceJitter float64
	FailureRate float64
	DelayMin    time.Duration
	DelayMax    time.Duration
	Now         func() time.Time
}

// Provider serves canned listings for offline runs and demos.
type Provider struct {
	cfg Config
	rng func() float64
}

func NewProvider(cfg Config) *Provider {
	if cfg.Label == "" {
		cfg.Label = cfg.Store
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Provider{cfg: cfg, rng: rand.Float64}
}

func (p *Provider) Name() string {
	return p.cfg.Name
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.cfg.Name,
		Label:   p.cfg.Label,
		Store:   p.cfg.Store,
		Kind:    "demo",
		Enabled: true,
	}
}

func (p *Provider) Search(ctx context.Context, query string) ([]domain.RawRecord, error) {
	if err := common.Sleep(ctx, common.RandomDuration(p.cfg.DelayMin, p.cfg.DelayMax)); err != nil {
		return []domain.RawRecord{}, err
	}
	if p.cfg.FailureRate > 0 && p.rng() < p.cfg.FailureRate {
		return []domain.RawRecord{}, fmt.Errorf("%s temporarily unavailable for query %q", p.cfg.Store, query)
	}

	normalized := strings.ToLower(query)
	now := p.cfg.Now()
	records := make([]domain.RawRecord, 0)
	for _, keyword := range sortedKeywords(p.cfg.Products) {
		if !strings.Contains(normalized, keyword) {
			continue
		}
		for i, product := range p.cfg.Products[keyword] {
			records = append(records, p.toRecord(product, keyword, i, now))
		}
	}
	return records, nil
}

func (p *Provider) toRecord(product Product, keyword string, index int, now time.Time) domain.RawRecord {
	record := domain.RawRecord{
		ID:          fmt.Sprintf("%s-%s-%d-%d", p.cfg.Name, keyword, index, now.UnixMilli()),
		Name:        product.Name,
		Title:       product.Title,
		URL:         product.URL,
		Store:       p.cfg.Store,
		LastUpdated: domain.RawTime{At: now},
		Metadata:    product.Metadata,
	}
	switch {
	case product.Price > 0:
		record.Price = domain.PriceNumber(p.jitter(product.Price))
	case product.Value > 0:
		record.Value = domain.PriceNumber(p.jitter(product.Value))
	case product.Cost > 0:
		record.Cost = domain.PriceNumber(p.jitter(product.Cost))
	}
	return record
}

func (p *Provider) jitter(price float64) float64 {
	if p.cfg.PriceJitter <= 0 {
		return price
	}
	return price * (1 - p.cfg.PriceJitter + 2*p.cfg.PriceJitter*p.rng())
}
