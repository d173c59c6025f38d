package amazon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pricescout/searchservice/internal/providers/common"
)

const resultsPage = `<html><body><div class="s-main-slot">
<div data-component-type="s-search-result" data-asin="B09G9FPHY6" class="s-result-item">
  <h2><a class="a-link-normal" href="/Apple-iPhone-13-128GB-Azul/dp/B09G9FPHY6/ref=sr_1_1"><span>Apple iPhone 13 (128 GB) - Azul</span></a></h2>
  <span class="a-icon-alt">4,5 de 5 estrelas</span>
  <span class="a-price"><span class="a-offscreen">R$&nbsp;4.299,00</span><span aria-hidden="true">R$4.299</span></span>
</div>
<div data-component-type="s-search-result" data-asin="B0SPONSOR" class="s-result-item">
  <h2><span>Capa para iPhone</span></h2>
</div>
</div></body></html>`

func TestProviderParsesResultsPage(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("k")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	provider := NewProvider(Config{
		Endpoint: server.URL + "/",
		Fetcher: common.NewFetcher(common.FetcherConfig{
			Client:         &http.Client{},
			Retry:          common.RetryConfig{MaxAttempts: 1},
			RequestTimeout: time.Second,
		}),
	})
	records, err := provider.Search(context.Background(), "iphone 13")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotPath != "/s" || gotQuery != "iphone 13" {
		t.Fatalf("unexpected request %s?k=%s", gotPath, gotQuery)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	record := records[0]
	if record.ID != "B09G9FPHY6" || record.Store != Store {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.Title != "Apple iPhone 13 (128 GB) - Azul" {
		t.Fatalf("unexpected title %q", record.Title)
	}
	if text, _ := record.Price.Text(); text != "R$ 4.299,00" {
		t.Fatalf("unexpected price %q", text)
	}
	if record.Href != server.URL+"/Apple-iPhone-13-128GB-Azul/dp/B09G9FPHY6/ref=sr_1_1" {
		t.Fatalf("unexpected link %q", record.Href)
	}
	if record.Metadata["rating"] != "4,5 de 5 estrelas" {
		t.Fatalf("unexpected metadata %+v", record.Metadata)
	}
}

func TestProviderInfo(t *testing.T) {
	info := NewProvider(Config{}).Info()
	if info.Name != Name || info.Store != Store || info.Kind != "storefront" {
		t.Fatalf("unexpected info %+v", info)
	}
}
