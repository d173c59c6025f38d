package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultMaxBodyBytes   = 4 * 1024 * 1024
)

type FetcherConfig struct {
	Client         *http.Client
	Limiter        *HostLimiter
	Retry          RetryConfig
	RequestTimeout time.Duration
	UserAgent      string
	MaxBodyBytes   int64
}

// Fetcher is the single "send request, get body or structured error"
// primitive used by scraping providers. Every attempt waits for the host
// limiter, carries browser-like headers and is bounded by RequestTimeout.
type Fetcher struct {
	client         *http.Client
	limiter        *HostLimiter
	retry          RetryConfig
	requestTimeout time.Duration
	userAgent      string
	maxBodyBytes   int64
}

type RequestOptions struct {
	Referer string
	JSON    bool
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Fetcher{
		client:         client,
		limiter:        cfg.Limiter,
		retry:          cfg.Retry,
		requestTimeout: cfg.RequestTimeout,
		userAgent:      strings.TrimSpace(cfg.UserAgent),
		maxBodyBytes:   cfg.MaxBodyBytes,
	}
}

// Get fetches rawURL and returns its body decoded to UTF-8.
func (f *Fetcher) Get(ctx context.Context, rawURL string, opts RequestOptions) ([]byte, error) {
	target, err := url.Parse(rawURL)
	if err != nil || target.Host == "" {
		return nil, fmt.Errorf("invalid request url %q", rawURL)
	}

	var body []byte
	err = RetryLinear(ctx, f.retry, func(ctx context.Context) error {
		if err := f.limiter.Wait(ctx, target.Host); err != nil {
			return err
		}
		var attemptErr error
		body, attemptErr = f.attempt(ctx, target, opts)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) attempt(ctx context.Context, target *url.URL, opts RequestOptions) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header = BrowserHeaders(f.userAgent, opts.Referer, opts.JSON)

	resp, err := f.client.Do(req)
	if err != nil {
		if attemptCtx.Err() != nil {
			return nil, fmt.Errorf("%w after %s: %s", ErrRequestTimeout, f.requestTimeout, target)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        target.String(),
			Snippet:    CompactSnippet(string(snippet), 220),
		}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		if attemptCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w reading body: %s", ErrRequestTimeout, target)
		}
		return nil, err
	}
	return DecodeBody(payload, resp.Header.Get("Content-Type"))
}

// DecodeBody converts payload to UTF-8 using the charset named in
// contentType. Unknown charsets are read as Windows-1252, which is what
// browsers do for legacy Latin pages.
func DecodeBody(payload []byte, contentType string) ([]byte, error) {
	name := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		name = strings.ToLower(strings.TrimSpace(params["charset"]))
	}
	if name == "" || name == "utf-8" || name == "utf8" {
		return payload, nil
	}

	var enc encoding.Encoding = charmap.Windows1252
	if found, err := htmlindex.Get(name); err == nil {
		enc = found
	}
	decoded, err := enc.NewDecoder().Bytes(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", name, err)
	}
	return decoded, nil
}
