package checker

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// delimiter candidates tried when sniffing a CSV sample.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

const sniffSampleSize = 1024

func checkCSVSchema(content []byte, expected []string, minRows int) SchemaResult {
	text := string(content)

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return SchemaResult{
			RowCountValid: true,
			Error:         fmt.Sprintf("csv parse error: %v", err),
		}
	}

	var header []string
	rowCount := 0
	if len(records) > 0 {
		header = records[0]
		rowCount = len(records) - 1
	}

	return schemaFromTable(header, rowCount, expected, minRows)
}

func (e *Engine) checkExcelSchema(content []byte, expected []string, minRows int) SchemaResult {
	if e.caps.Sheets == nil {
		return SchemaResult{
			Skipped:       true,
			RowCountValid: true,
			Error:         "spreadsheet parser unavailable; excel schema check skipped",
		}
	}

	header, rowCount, err := e.caps.Sheets.ReadFirstSheet(content)
	if err != nil {
		return SchemaResult{
			RowCountValid: true,
			Error:         fmt.Sprintf("excel parse error: %v", err),
		}
	}

	return schemaFromTable(header, rowCount, expected, minRows)
}

// schemaFromTable applies the shared column and row-count rules once a
// header and data row count have been extracted.
func schemaFromTable(header []string, rowCount int, expected []string, minRows int) SchemaResult {
	result := SchemaResult{
		FoundColumns:  header,
		RowCount:      rowCount,
		RowCountValid: true,
	}

	result.MissingColumns = missingColumns(expected, header)
	result.Valid = len(result.MissingColumns) == 0

	if minRows > 0 && rowCount < minRows {
		result.RowCountValid = false
		result.Valid = false
		result.Error = fmt.Sprintf("expected at least %d rows, got %d", minRows, rowCount)
	}

	return result
}

// missingColumns returns the expected columns absent from found, in the
// declared order.
func missingColumns(expected, found []string) []string {
	present := make(map[string]struct{}, len(found))
	for _, col := range found {
		present[col] = struct{}{}
	}

	missing := make([]string, 0)
	for _, col := range expected {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// sniffDelimiter inspects the first line within a 1KB sample and picks the
// candidate delimiter with the highest count, falling back to comma.
func sniffDelimiter(text string) rune {
	sample := text
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
	}
	if idx := strings.IndexByte(sample, '\n'); idx >= 0 {
		sample = sample[:idx]
	}

	best := ','
	bestCount := 0
	for _, cand := range delimiterCandidates {
		if n := strings.Count(sample, string(cand)); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}
