package classify

import (
	"sitewatch/internal/checker"
	"sitewatch/internal/history"
)

// Decide maps a check report and the historical comparison to a severity.
// Pure function; rules are evaluated in strict precedence and the first
// match wins:
//
//  1. failed status check            -> Fail
//  2. failed minimum-size check      -> Fail
//  3. failed (not skipped) schema    -> Fail
//  4. failed selector check          -> Fail
//  5. anomaly (changed + big drop)   -> Warn
//  6. size dropped more than 50%     -> Warn
//  7. otherwise                      -> Info
//
// A schema result marked skipped (capability unavailable) never escalates
// on its own: a missing parser is not broken content.
func Decide(rep checker.Report, cmp history.Comparison) Severity {
	if !rep.StatusOK {
		return Fail
	}
	if !rep.MinBytesOK {
		return Fail
	}
	if rep.Schema != nil && !rep.Schema.Valid && !rep.Schema.Skipped {
		return Fail
	}
	if rep.Selectors != nil && !rep.Selectors.Valid {
		return Fail
	}
	if cmp.Anomaly {
		return Warn
	}
	if cmp.SizeDropped50Pct {
		return Warn
	}
	return Info
}
