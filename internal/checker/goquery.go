package checker

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// GoquerySelector matches CSS selectors with goquery. Invalid selectors
// match nothing rather than failing the whole check.
type GoquerySelector struct{}

// NewGoquerySelector constructs the goquery-backed selector engine.
func NewGoquerySelector() *GoquerySelector {
	return &GoquerySelector{}
}

// Match reports whether at least one node matches selector.
func (GoquerySelector) Match(content []byte, selector string) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return false, fmt.Errorf("parse html: %w", err)
	}
	return doc.Find(selector).Length() > 0, nil
}

var _ SelectorEngine = (*GoquerySelector)(nil)
