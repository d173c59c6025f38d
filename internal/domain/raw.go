package domain

import (
	"strings"
	"time"
)

type rawPriceKind uint8

const (
	rawPriceUnset rawPriceKind = iota
	rawPriceNumber
	rawPriceText
)

// RawPrice holds a price exactly as a source reported it: either a number
// or a piece of locale-formatted text.
type RawPrice struct {
	kind   rawPriceKind
	number float64
	text   string
}

func PriceNumber(value float64) RawPrice {
	return RawPrice{kind: rawPriceNumber, number: value}
}

func PriceText(value string) RawPrice {
	if strings.TrimSpace(value) == "" {
		return RawPrice{}
	}
	return RawPrice{kind: rawPriceText, text: value}
}

func (p RawPrice) IsSet() bool { return p.kind != rawPriceUnset }

func (p RawPrice) Number() (float64, bool) {
	return p.number, p.kind == rawPriceNumber
}

func (p RawPrice) Text() (string, bool) {
	return p.text, p.kind == rawPriceText
}

// RawTime is either an already structured timestamp or unparsed text.
type RawTime struct {
	At   time.Time
	Text string
}

func (t RawTime) IsSet() bool {
	return !t.At.IsZero() || strings.TrimSpace(t.Text) != ""
}

// RawRecord is one unvalidated item as extracted by a provider. Name, price
// and url may each arrive under any of their aliases; only Store is always set.
type RawRecord struct {
	ID string

	Name  string
	Title string

	Price RawPrice
	Value RawPrice
	Cost  RawPrice

	URL  string
	Link string
	Href string

	Store       string
	Currency    string
	LastUpdated RawTime
	Metadata    map[string]string
}
