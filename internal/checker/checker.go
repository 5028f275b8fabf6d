package checker

import (
	"bytes"
	"strings"

	"github.com/rs/zerolog"

	"sitewatch/internal/fetcher"
	"sitewatch/internal/sites"
)

// SelectorEngine tests a single CSS selector for presence in an HTML
// document. First-match semantics: the engine answers "is there at least
// one node", never a count.
type SelectorEngine interface {
	Match(content []byte, selector string) (bool, error)
}

// SheetReader extracts the header row and data row count from the first
// sheet of a spreadsheet document.
type SheetReader interface {
	ReadFirstSheet(content []byte) (header []string, rowCount int, err error)
}

// Capabilities are the optional parsing engines injected at construction.
// A nil Selectors falls back to plain substring matching; a nil Sheets
// marks Excel schema checks as skipped.
type Capabilities struct {
	Selectors SelectorEngine
	Sheets    SheetReader
}

// Engine runs the structural checks for one fetched payload. It never
// returns an error: every failure is captured inside the report.
type Engine struct {
	caps   Capabilities
	logger zerolog.Logger
}

// NewEngine constructs a check engine with the given capabilities.
func NewEngine(caps Capabilities, logger zerolog.Logger) *Engine {
	return &Engine{
		caps:   caps,
		logger: logger.With().Str("component", "checker").Logger(),
	}
}

// Run evaluates all checks declared by the site config against the fetch
// result and returns the populated report.
func (e *Engine) Run(site sites.Site, res fetcher.Result) Report {
	rep := Report{
		URL:        res.FinalURL,
		StatusCode: res.StatusCode,
		SizeBytes:  len(res.Body),
		StatusOK:   res.StatusCode >= 200 && res.StatusCode < 300,
		MinBytesOK: len(res.Body) >= site.MinBytes,
	}

	if site.ExpectedContentType != "" {
		ok := contentTypeMatches(res.Headers.Get("Content-Type"), site.ExpectedContentType)
		rep.ContentTypeOK = &ok
	}

	switch site.Kind {
	case sites.KindHTML:
		if len(site.Selectors) > 0 {
			rep.Selectors = e.checkSelectors(res.Body, site.Selectors)
		}
	case sites.KindCSV:
		if len(site.ExpectedColumns) > 0 || site.MinRows > 0 {
			schema := checkCSVSchema(res.Body, site.ExpectedColumns, site.MinRows)
			rep.Schema = &schema
			rc := schema.RowCount
			rep.RowCount = &rc
		}
	case sites.KindExcel:
		if len(site.ExpectedColumns) > 0 || site.MinRows > 0 {
			schema := e.checkExcelSchema(res.Body, site.ExpectedColumns, site.MinRows)
			rep.Schema = &schema
			if !schema.Skipped {
				rc := schema.RowCount
				rep.RowCount = &rc
			}
		}
	case sites.KindPDF, sites.KindBinary:
		// Status, size and content-type checks only.
	}

	return rep
}

// contentTypeMatches performs a case-insensitive substring test against the
// Content-Type header value. An absent header never matches.
func contentTypeMatches(header, expected string) bool {
	if header == "" {
		return false
	}
	return strings.Contains(strings.ToLower(header), strings.ToLower(expected))
}

func (e *Engine) checkSelectors(content []byte, selectors []string) *SelectorResult {
	result := SelectorResult{
		Valid: true,
		Found: make(map[string]bool, len(selectors)),
	}

	for _, sel := range selectors {
		found := false
		if e.caps.Selectors != nil {
			match, err := e.caps.Selectors.Match(content, sel)
			if err != nil {
				e.logger.Debug().Err(err).Str("selector", sel).Msg("selector match failed")
				result.Error = err.Error()
			}
			found = match
		} else {
			// No selector engine injected: substring presence fallback.
			found = bytes.Contains(content, []byte(sel))
		}
		result.Found[sel] = found
		result.Valid = result.Valid && found
	}

	return &result
}
