package common

import (
	"math/rand/v2"
	"net/http"
	"time"
)

var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"
	acceptJSON = "application/json,text/plain;q=0.9,*/*;q=0.8"
)

// BrowserHeaders returns request headers resembling a pt-BR desktop browser.
// An empty userAgent picks one of the built-in ones at random. The
// Accept-Encoding header is left to the transport so gzip is decoded for us.
func BrowserHeaders(userAgent, referer string, wantJSON bool) http.Header {
	if userAgent == "" {
		userAgent = browserUserAgents[rand.IntN(len(browserUserAgents))]
	}
	headers := http.Header{}
	headers.Set("User-Agent", userAgent)
	if wantJSON {
		headers.Set("Accept", acceptJSON)
	} else {
		headers.Set("Accept", acceptHTML)
		headers.Set("Upgrade-Insecure-Requests", "1")
		headers.Set("Sec-Fetch-Dest", "document")
		headers.Set("Sec-Fetch-Mode", "navigate")
	}
	headers.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	headers.Set("Cache-Control", "max-age=0")
	if referer != "" {
		headers.Set("Referer", referer)
		headers.Set("Sec-Fetch-Site", "same-origin")
	} else {
		headers.Set("Sec-Fetch-Site", "none")
	}
	return headers
}

// RandomDuration returns a uniformly random duration in [min, max].
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}
