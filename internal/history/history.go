package history

import (
	"github.com/shopspring/decimal"
)

// dropThresholdPct is the size-drop percentage below which a shrink is
// treated as a breakage signal.
var dropThresholdPct = decimal.NewFromInt(-50)

// Record is the persisted per-site history, rewritten wholesale on every
// update and never deleted.
type Record struct {
	LastChecksum    string   `json:"last_checksum"`
	LastSize        int64    `json:"last_size"`
	LastRowCount    *int     `json:"last_row_count,omitempty"`
	ChecksumHistory []string `json:"checksum_history"`
}

// Comparison is the drift signal of the current fetch against the previous
// run. The zero value is the all-clear result used when no prior record
// exists.
type Comparison struct {
	Changed          bool
	SizeChangePct    decimal.Decimal
	SizeDropped50Pct bool
	Anomaly          bool
}

// Store persists per-site metrics and compares them against prior runs.
// Concurrent updates for the same site id are not safe; callers own the
// single-writer-per-site invariant.
type Store interface {
	// Compare returns the drift signals of the current observation against
	// the last persisted record, or the zero-value Comparison when the
	// site has never been recorded.
	Compare(siteID string, size int64, checksum string) Comparison

	// Update rewrites the site's record with the current observation,
	// appending checksum to the history unless it repeats the most recent
	// entry and truncating to the most recent window entries. A failed
	// write aborts the run's persistence step and is returned.
	Update(siteID, checksum string, size int64, rowCount *int, window int) (Record, error)
}

// compare derives the drift signals from a prior record.
func compare(rec Record, size int64, checksum string) Comparison {
	cmp := Comparison{
		Changed: rec.LastChecksum != checksum,
	}

	if rec.LastSize > 0 {
		cmp.SizeChangePct = decimal.NewFromInt(size - rec.LastSize).
			Div(decimal.NewFromInt(rec.LastSize)).
			Mul(decimal.NewFromInt(100))
		cmp.SizeDropped50Pct = cmp.SizeChangePct.LessThan(dropThresholdPct)
	}

	cmp.Anomaly = cmp.Changed && cmp.SizeDropped50Pct
	return cmp
}
