package common

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// CleanText unescapes entities, strips tags and collapses whitespace.
func CleanText(raw string) string {
	value := strings.TrimSpace(raw)
	value = html.UnescapeString(value)
	value = tagPattern.ReplaceAllString(value, " ")
	return strings.Join(strings.Fields(value), " ")
}

// ResolveURL makes ref absolute against base. When base itself is unusable
// an already absolute ref is returned as is and a relative one is joined by
// plain concatenation.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	baseURL, err := url.Parse(strings.TrimSpace(base))
	if err == nil && baseURL.Scheme != "" {
		if refURL, err := url.Parse(ref); err == nil {
			return baseURL.ResolveReference(refURL).String()
		}
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

func CompactSnippet(raw string, limit int) string {
	value := strings.Join(strings.Fields(raw), " ")
	if limit <= 0 || len(value) <= limit {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
