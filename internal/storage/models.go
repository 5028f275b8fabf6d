package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckRun is one journaled health check invocation.
type CheckRun struct {
	ID            int64
	SiteID        string
	CheckedAt     time.Time
	URL           string
	StatusCode    int
	SizeBytes     int64
	Checksum      string
	RowCount      *int64
	SizeChangePct decimal.Decimal
	Severity      string
	ExitCode      int
	Error         *string
	CreatedAt     time.Time
}

// NotificationRecord captures an escalated report for auditing.
type NotificationRecord struct {
	ID        int64
	SiteID    string
	Severity  string
	Title     string
	CreatedAt time.Time
}
