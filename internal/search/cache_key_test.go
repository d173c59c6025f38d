package search

import (
	"testing"

	"pricescout/searchservice/internal/domain"
)

func TestBuildSearchCacheKeyFoldsCaseAndWhitespace(t *testing.T) {
	k1 := buildSearchCacheKey("iPhone", nil, 0)
	k2 := buildSearchCacheKey("  iphone ", &domain.SearchFilters{}, 0)
	if k1 != k2 {
		t.Fatalf("expected same key, got %q and %q", k1, k2)
	}
}

func TestBuildSearchCacheKeyIncludesFilters(t *testing.T) {
	plain := buildSearchCacheKey("iPhone", nil, 0)
	withStore := buildSearchCacheKey("iPhone", &domain.SearchFilters{Stores: []string{"Amazon"}}, 0)
	if plain == withStore {
		t.Fatalf("expected different keys, got %q", plain)
	}

	withMin := buildSearchCacheKey("iPhone", &domain.SearchFilters{MinPrice: decimalPtr("100")}, 0)
	withMax := buildSearchCacheKey("iPhone", &domain.SearchFilters{MaxPrice: decimalPtr("100")}, 0)
	if withMin == withMax {
		t.Fatalf("min and max bounds must not collide: %q", withMin)
	}
}

func TestBuildSearchCacheKeyStoreOrderIsCanonical(t *testing.T) {
	k1 := buildSearchCacheKey("tv", &domain.SearchFilters{Stores: []string{"Casas Bahia", "Amazon"}}, 0)
	k2 := buildSearchCacheKey("tv", &domain.SearchFilters{Stores: []string{"Amazon", " Casas Bahia", "Amazon"}}, 0)
	if k1 != k2 {
		t.Fatalf("expected same key, got %q and %q", k1, k2)
	}
}

func TestBuildSearchCacheKeyEquivalentDecimals(t *testing.T) {
	k1 := buildSearchCacheKey("tv", &domain.SearchFilters{MinPrice: decimalPtr("3000")}, 0)
	k2 := buildSearchCacheKey("tv", &domain.SearchFilters{MinPrice: decimalPtr("3000.00")}, 0)
	if k1 != k2 {
		t.Fatalf("expected numerically equal bounds to share a key, got %q and %q", k1, k2)
	}
}

func TestBuildSearchCacheKeyIncludesResultCap(t *testing.T) {
	if buildSearchCacheKey("tv", nil, 5) == buildSearchCacheKey("tv", nil, 0) {
		t.Fatal("expected result cap to be part of the key")
	}
}
