package magalu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pricescout/searchservice/internal/providers/common"
)

const nextDataPage = `<html><body>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"data":{"search":{"products":[
  {"id":"237539900","title":"Smart TV 50\" 4K UHD Samsung","price":{"bestPrice":"2799.00","fullPrice":"3299.00"},"url":"/smart-tv-50-samsung/p/237539900/et/tv4k/","brand":{"label":"Samsung"}},
  {"id":"bad","title":"Sem preço"}
]}}}}}
</script></body></html>`

func TestProviderReadsNextData(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(nextDataPage))
	}))
	defer server.Close()

	provider := NewProvider(Config{
		Endpoint: server.URL,
		Fetcher: common.NewFetcher(common.FetcherConfig{
			Client:         &http.Client{},
			Retry:          common.RetryConfig{MaxAttempts: 1},
			RequestTimeout: time.Second,
		}),
	})
	records, err := provider.Search(context.Background(), "smart tv")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotPath != "/busca/smart%20tv/" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if len(records) != 2 {
		t.Fatalf("expected both items to be extracted, got %d", len(records))
	}

	record := records[0]
	if record.Name != `Smart TV 50" 4K UHD Samsung` || record.Store != Store {
		t.Fatalf("unexpected record %+v", record)
	}
	if text, ok := record.Value.Text(); !ok || text != "2799.00" {
		t.Fatalf("unexpected value %+v", record.Value)
	}
	if record.URL != server.URL+"/smart-tv-50-samsung/p/237539900/et/tv4k/" {
		t.Fatalf("unexpected url %q", record.URL)
	}
	if record.Metadata["brand"] != "Samsung" {
		t.Fatalf("unexpected metadata %+v", record.Metadata)
	}
	if records[1].Value.IsSet() {
		t.Fatalf("record without price must keep an unset value")
	}
}
