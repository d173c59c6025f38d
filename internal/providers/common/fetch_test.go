package common

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"
)

func newTestFetcher(attempts int, timeout time.Duration) *Fetcher {
	return NewFetcher(FetcherConfig{
		Client:         &http.Client{},
		Retry:          RetryConfig{MaxAttempts: attempts, Delay: 5 * time.Millisecond},
		RequestTimeout: timeout,
	})
}

func TestFetcherSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotLang, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotReferer = r.Header.Get("Referer")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	body, err := newTestFetcher(1, time.Second).Get(context.Background(), server.URL, RequestOptions{Referer: "https://shop.example/"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("unexpected body %q", body)
	}
	if !strings.HasPrefix(gotUA, "Mozilla/5.0") {
		t.Fatalf("expected browser user agent, got %q", gotUA)
	}
	if !strings.HasPrefix(gotLang, "pt-BR") {
		t.Fatalf("expected pt-BR language, got %q", gotLang)
	}
	if gotReferer != "https://shop.example/" {
		t.Fatalf("expected referer, got %q", gotReferer)
	}
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("finally"))
	}))
	defer server.Close()

	body, err := newTestFetcher(3, time.Second).Get(context.Background(), server.URL, RequestOptions{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(body) != "finally" || calls.Load() != 3 {
		t.Fatalf("expected success on third attempt, body=%q calls=%d", body, calls.Load())
	}
}

func TestFetcherDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestFetcher(3, time.Second).Get(context.Background(), server.URL, RequestOptions{})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestFetcherTimeoutIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestFetcher(3, 30*time.Millisecond).Get(context.Background(), server.URL, RequestOptions{})
	if !errors.Is(err, ErrRequestTimeout) {
		t.Fatalf("expected ErrRequestTimeout, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected timeout to stop retries, got %d attempts", calls.Load())
	}
}

func TestFetcherRejectsInvalidURL(t *testing.T) {
	if _, err := newTestFetcher(1, time.Second).Get(context.Background(), "not a url", RequestOptions{}); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestDecodeBodyLatin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("Fogão 4 bocas"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeBody(encoded, "text/html; charset=ISO-8859-1")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != "Fogão 4 bocas" {
		t.Fatalf("unexpected decoded body %q", decoded)
	}
}

func TestDecodeBodyPassesUTF8Through(t *testing.T) {
	payload := []byte("Fogão")
	for _, contentType := range []string{"", "text/html", "text/html; charset=UTF-8"} {
		decoded, err := DecodeBody(payload, contentType)
		if err != nil || string(decoded) != "Fogão" {
			t.Fatalf("content type %q: got %q err=%v", contentType, decoded, err)
		}
	}
}
