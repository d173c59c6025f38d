package storefront

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricescout/searchservice/internal/domain"
	"pricescout/searchservice/internal/providers/common"
)

// extractMarkup parses the rendered results page. The first item selector
// with any match is used; items lacking a title, a parseable price or a link
// are skipped.
func (p *Provider) extractMarkup(page string) []domain.RawRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}

	var items *goquery.Selection
	for _, selector := range p.cfg.Selectors.Items {
		if found := doc.Find(selector); found.Length() > 0 {
			items = found
			break
		}
	}
	if items == nil {
		return nil
	}

	records := make([]domain.RawRecord, 0, p.cfg.MaxResults)
	items.EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if record, ok := p.recordFromMarkup(item); ok {
			records = append(records, record)
		}
		return len(records) < p.cfg.MaxResults
	})
	return records
}

func (p *Provider) recordFromMarkup(item *goquery.Selection) (record domain.RawRecord, ok bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			p.logger.Debug("skipping malformed item", slog.Any("panic", recovered))
			ok = false
		}
	}()

	selectors := p.cfg.Selectors
	title := firstValue(item, selectors.Title)
	if title == "" {
		return domain.RawRecord{}, false
	}
	priceText := firstValue(item, selectors.Price)
	if _, valid := domain.ParsePrice(priceText); !valid {
		return domain.RawRecord{}, false
	}
	link := firstValue(item, selectors.Link)
	if link == "" {
		link, _ = item.Attr("href")
	}
	link = resolveLink(p.cfg.BaseURL, link)
	if link == "" {
		return domain.RawRecord{}, false
	}

	record = domain.RawRecord{
		ID:    firstValue(item, selectors.ID),
		Title: title,
		Price: domain.PriceText(priceText),
		Href:  link,
		Store: p.cfg.Store,
	}
	if len(selectors.Metadata) > 0 {
		record.Metadata = make(map[string]string, len(selectors.Metadata))
		for key, candidates := range selectors.Metadata {
			if value := firstValue(item, candidates); value != "" {
				record.Metadata[key] = value
			}
		}
	}
	return record, true
}

// firstValue returns the first non-empty text or attribute produced by the
// candidate selectors.
func firstValue(item *goquery.Selection, candidates []string) string {
	for _, candidate := range candidates {
		selector, attr, hasAttr := strings.Cut(candidate, "@")
		target := item
		if strings.TrimSpace(selector) != "" {
			target = item.Find(selector).First()
		}
		if target.Length() == 0 {
			continue
		}
		var value string
		if hasAttr {
			value, _ = target.Attr(attr)
		} else {
			value = target.Text()
		}
		if value = common.CleanText(value); value != "" {
			return value
		}
	}
	return ""
}

func resolveLink(base, link string) string {
	link = strings.TrimSpace(link)
	if link == "" || strings.HasPrefix(link, "javascript:") || link == "#" {
		return ""
	}
	return common.ResolveURL(base, link)
}
