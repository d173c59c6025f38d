package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"pricescout/searchservice/internal/domain"
)

func quietDemo(t *testing.T) {
	t.Helper()
	t.Setenv("SEARCH_PROVIDERS", "amazon,magalu,casasbahia")
	t.Setenv("DEMO_FAILURE_RATE", "0")
	t.Setenv("DEMO_PRICE_JITTER", "false")
	t.Setenv("DEMO_DELAY_MIN_MS", "0")
	t.Setenv("DEMO_DELAY_MAX_MS", "0")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSearchCommandPrintsCheapestFirst(t *testing.T) {
	quietDemo(t)
	out, err := runCLI(t, "search", "--demo", "--json", "--max-results", "3", "iphone")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	var response domain.SearchResponse
	if err := json.Unmarshal([]byte(out), &response); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(response.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(response.Results))
	}
	for i := 1; i < len(response.Results); i++ {
		if response.Results[i].Price.LessThan(response.Results[i-1].Price) {
			t.Fatalf("results not sorted by price: %v", response.Results)
		}
	}
}

func TestSearchCommandAppliesStoreFilter(t *testing.T) {
	quietDemo(t)
	out, err := runCLI(t, "search", "--demo", "--json", "--stores", "Casas Bahia", "notebook")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var response domain.SearchResponse
	if err := json.Unmarshal([]byte(out), &response); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(response.Results) == 0 {
		t.Fatal("expected casas bahia offers")
	}
	for _, result := range response.Results {
		if result.Store != "Casas Bahia" {
			t.Fatalf("unexpected store %q", result.Store)
		}
	}
}

func TestSearchCommandTableOutput(t *testing.T) {
	quietDemo(t)
	out, err := runCLI(t, "search", "--demo", "tv")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "PRICE") || !strings.Contains(out, "BRL ") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
}

func TestSearchCommandRejectsInvalidFlags(t *testing.T) {
	quietDemo(t)
	cases := [][]string{
		{"search", "--demo", "--min-price", "500", "--max-price", "100", "tv"},
		{"search", "--demo", "--min-price", "-1", "tv"},
		{"search", "--demo", "--max-price", "abc", "tv"},
		{"search", "--demo"},
	}
	for _, args := range cases {
		if _, err := runCLI(t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestProvidersCommand(t *testing.T) {
	quietDemo(t)
	out, err := runCLI(t, "providers", "--demo")
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	for _, name := range []string{"amazon", "magalu", "casasbahia"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output:\n%s", name, out)
		}
	}
}
