package notify

import (
	"fmt"
	"sort"
	"strings"

	"sitewatch/internal/checker"
	"sitewatch/internal/history"
)

// FormatReport flattens a check report and its historical comparison into
// the plain-text summary shared by every channel.
func FormatReport(rep checker.Report, cmp history.Comparison) string {
	var lines []string

	if rep.URL != "" {
		lines = append(lines, "URL: "+rep.URL)
	}
	lines = append(lines, fmt.Sprintf("Status Code: %d", rep.StatusCode))
	lines = append(lines, fmt.Sprintf("Size: %d bytes", rep.SizeBytes))
	if rep.Checksum != "" {
		lines = append(lines, "Checksum: "+truncateChecksum(rep.Checksum))
	}
	if !cmp.SizeChangePct.IsZero() {
		lines = append(lines, fmt.Sprintf("Size Change: %s%%", signedPct(cmp)))
	}

	lines = append(lines, "", "Check Results:")
	lines = append(lines, checkLine("status", rep.StatusOK, ""))
	lines = append(lines, checkLine("min_bytes", rep.MinBytesOK, ""))
	if rep.ContentTypeOK != nil {
		lines = append(lines, checkLine("content_type", *rep.ContentTypeOK, ""))
	}
	if rep.Selectors != nil {
		lines = append(lines, checkLine("selectors", rep.Selectors.Valid, rep.Selectors.Error))
		for _, sel := range missingSelectors(rep.Selectors) {
			lines = append(lines, "    missing selector: "+sel)
		}
	}
	if rep.Schema != nil {
		label := "schema"
		if rep.Schema.Skipped {
			label = "schema (skipped)"
		}
		lines = append(lines, checkLine(label, rep.Schema.Valid, rep.Schema.Error))
		if len(rep.Schema.MissingColumns) > 0 {
			lines = append(lines, "    missing columns: "+strings.Join(rep.Schema.MissingColumns, ", "))
		}
	}

	if cmp.Changed || cmp.SizeDropped50Pct || cmp.Anomaly {
		lines = append(lines, "")
		if cmp.Changed {
			lines = append(lines, "! content has changed (checksum mismatch)")
		}
		if cmp.SizeDropped50Pct {
			lines = append(lines, "! size dropped more than 50%")
		}
		if cmp.Anomaly {
			lines = append(lines, "! ANOMALY: content changed and size dropped more than 50%")
		}
	}

	return strings.Join(lines, "\n")
}

// FormatFetchFailure renders the summary for a run that never produced
// content to check.
func FormatFetchFailure(url string, err error) string {
	return fmt.Sprintf("URL: %s\nError: %v", url, err)
}

func checkLine(name string, ok bool, errMsg string) string {
	status := "PASS"
	if !ok {
		status = "FAIL"
	}
	line := fmt.Sprintf("  %s: %s", name, status)
	if errMsg != "" {
		line += " - " + errMsg
	}
	return line
}

func missingSelectors(res *checker.SelectorResult) []string {
	var missing []string
	for sel, found := range res.Found {
		if !found {
			missing = append(missing, sel)
		}
	}
	sort.Strings(missing)
	return missing
}

func signedPct(cmp history.Comparison) string {
	s := cmp.SizeChangePct.StringFixed(1)
	if cmp.SizeChangePct.Sign() > 0 {
		s = "+" + s
	}
	return s
}

func truncateChecksum(sum string) string {
	if len(sum) <= 16 {
		return sum
	}
	return sum[:16] + "..."
}
