package checker

// Report captures the outcome of every structural check for one run.
// Ephemeral; one per invocation.
type Report struct {
	URL        string
	StatusCode int
	SizeBytes  int

	// Checksum is the hex digest over the fetched bytes, attached by the
	// runner after the engine has produced the report.
	Checksum string

	StatusOK   bool
	MinBytesOK bool

	// ContentTypeOK is set only when the site declares an expected
	// content type.
	ContentTypeOK *bool

	// Exactly one of Selectors/Schema is set, depending on content kind,
	// and only when the corresponding config fields are present.
	Selectors *SelectorResult
	Schema    *SchemaResult

	// RowCount feeds the history metrics for tabular sources.
	RowCount *int
}

// SelectorResult reports per-selector presence for HTML targets.
type SelectorResult struct {
	Valid bool
	Found map[string]bool
	Error string
}

// SchemaResult reports header and row-count validation for tabular targets.
// Skipped marks an Excel check that could not run because no spreadsheet
// capability was available; a skipped result is never a content failure.
type SchemaResult struct {
	Valid          bool
	Skipped        bool
	FoundColumns   []string
	MissingColumns []string
	RowCount       int
	RowCountValid  bool
	Error          string
}
