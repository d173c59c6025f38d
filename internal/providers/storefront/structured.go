package storefront

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"pricescout/searchservice/internal/domain"
)

// extractState looks for the configured state payloads on the results page.
// A missing or malformed payload simply yields nothing.
func (p *Provider) extractState(page string) []domain.RawRecord {
	if len(p.cfg.StateVariables) == 0 {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}
	for _, variable := range p.cfg.StateVariables {
		payload, ok := findStatePayload(doc, page, variable)
		if !ok {
			continue
		}
		if records, ok := p.recordsFromJSON(payload, p.cfg.StateItemPaths); ok {
			return records
		}
	}
	return nil
}

// findStatePayload returns the JSON held by variable, either in a
// <script id="variable"> element or in a "variable = {...}" assignment.
func findStatePayload(doc *goquery.Document, page, variable string) (string, bool) {
	if script := doc.Find(`script[id="` + variable + `"]`).First(); script.Length() > 0 {
		payload := strings.TrimSpace(script.Text())
		if gjson.Valid(payload) {
			return payload, true
		}
	}

	assignment := regexp.MustCompile(regexp.QuoteMeta(variable) + `\s*=\s*`)
	for _, loc := range assignment.FindAllStringIndex(page, -1) {
		payload, ok := balancedObject(page[loc[1]:])
		if ok && gjson.Valid(payload) {
			return payload, true
		}
	}
	return "", false
}

// balancedObject returns the leading {...} or [...] of s, honouring string
// literals so braces inside strings do not count.
func balancedObject(s string) (string, bool) {
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// recordsFromJSON reads the item array at the first path that holds one.
func (p *Provider) recordsFromJSON(payload string, itemPaths []string) ([]domain.RawRecord, bool) {
	if !gjson.Valid(payload) {
		return nil, false
	}
	root := gjson.Parse(payload)
	for _, path := range itemPaths {
		items := root
		if path != "" {
			items = root.Get(path)
		}
		if !items.IsArray() {
			continue
		}
		records := make([]domain.RawRecord, 0, len(items.Array()))
		items.ForEach(func(_, item gjson.Result) bool {
			if record, ok := p.recordFromJSON(item); ok {
				records = append(records, record)
			}
			return len(records) < p.cfg.MaxResults
		})
		if len(records) > 0 {
			return records, true
		}
	}
	return nil, false
}

func (p *Provider) recordFromJSON(item gjson.Result) (record domain.RawRecord, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if !item.IsObject() {
		return domain.RawRecord{}, false
	}
	fields := p.cfg.Fields
	record = domain.RawRecord{
		ID:       firstString(item, fields.ID),
		Name:     firstString(item, fields.Name),
		Title:    firstString(item, fields.Title),
		Price:    firstPrice(item, fields.Price),
		Value:    firstPrice(item, fields.Value),
		Cost:     firstPrice(item, fields.Cost),
		URL:      resolveLink(p.cfg.BaseURL, firstString(item, fields.URL)),
		Store:    p.cfg.Store,
		Currency: firstString(item, fields.Currency),
	}
	if at := firstString(item, fields.LastUpdated); at != "" {
		record.LastUpdated = domain.RawTime{Text: at}
	}
	if len(fields.Metadata) > 0 {
		record.Metadata = make(map[string]string, len(fields.Metadata))
		for key, paths := range fields.Metadata {
			if value := firstString(item, paths); value != "" {
				record.Metadata[key] = value
			}
		}
	}
	return record, true
}

func firstString(item gjson.Result, paths []string) string {
	for _, path := range paths {
		if value := item.Get(path); value.Exists() {
			if text := strings.TrimSpace(value.String()); text != "" {
				return text
			}
		}
	}
	return ""
}

func firstPrice(item gjson.Result, paths []string) domain.RawPrice {
	for _, path := range paths {
		value := item.Get(path)
		switch value.Type {
		case gjson.Number:
			return domain.PriceNumber(value.Float())
		case gjson.String:
			if price := domain.PriceText(value.String()); price.IsSet() {
				return price
			}
		}
	}
	return domain.RawPrice{}
}
