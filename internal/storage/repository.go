package storage

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertCheckRunSQL = `INSERT INTO check_runs (
        site_id,
        checked_at,
        url,
        status_code,
        size_bytes,
        checksum,
        row_count,
        size_change_pct,
        severity,
        exit_code,
        error
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    );`

	listRecentRunsSQL = `SELECT
        id,
        site_id,
        checked_at,
        url,
        status_code,
        size_bytes,
        checksum,
        row_count,
        size_change_pct,
        severity,
        exit_code,
        error,
        created_at
    FROM check_runs
    WHERE site_id = $1
    ORDER BY checked_at DESC
    LIMIT $2;`

	listRunsBetweenSQL = `SELECT
        id,
        site_id,
        checked_at,
        url,
        status_code,
        size_bytes,
        checksum,
        row_count,
        size_change_pct,
        severity,
        exit_code,
        error,
        created_at
    FROM check_runs
    WHERE site_id = $1
      AND checked_at >= $2
      AND checked_at < $3
    ORDER BY checked_at;`

	insertNotificationSQL = `INSERT INTO notifications (
        site_id,
        severity,
        title
    ) VALUES (
        $1,$2,$3
    ) RETURNING id, site_id, severity, title, created_at;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// RunStore defines operations for check run journaling.
type RunStore interface {
	InsertCheckRun(ctx context.Context, run CheckRun) error
	ListRecentRuns(ctx context.Context, siteID string, limit int) ([]CheckRun, error)
	ListRunsBetween(ctx context.Context, siteID string, from, to time.Time) ([]CheckRun, error)
}

// NotificationStore defines operations for notification auditing.
type NotificationStore interface {
	InsertNotification(ctx context.Context, record NotificationRecord) (NotificationRecord, error)
}

// SiteLocker serialises concurrent runs for the same site.
type SiteLocker interface {
	TryLockSite(ctx context.Context, siteID string) (unlock func(), acquired bool, err error)
}

// Store aggregates access to the run journal.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertCheckRun journals one completed run.
func (s *Store) InsertCheckRun(ctx context.Context, run CheckRun) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, insertCheckRunSQL,
		run.SiteID,
		run.CheckedAt,
		run.URL,
		run.StatusCode,
		run.SizeBytes,
		run.Checksum,
		run.RowCount,
		run.SizeChangePct,
		run.Severity,
		run.ExitCode,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert check run: %w", err)
	}
	return nil
}

// ListRecentRuns returns the newest runs for a site, most recent first.
func (s *Store) ListRecentRuns(ctx context.Context, siteID string, limit int) ([]CheckRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, listRecentRunsSQL, siteID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// ListRunsBetween returns the runs for a site in [from, to), oldest first.
func (s *Store) ListRunsBetween(ctx context.Context, siteID string, from, to time.Time) ([]CheckRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, listRunsBetweenSQL, siteID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list runs between: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRuns(rows pgx.Rows) ([]CheckRun, error) {
	var runs []CheckRun
	for rows.Next() {
		var run CheckRun
		if err := rows.Scan(
			&run.ID,
			&run.SiteID,
			&run.CheckedAt,
			&run.URL,
			&run.StatusCode,
			&run.SizeBytes,
			&run.Checksum,
			&run.RowCount,
			&run.SizeChangePct,
			&run.Severity,
			&run.ExitCode,
			&run.Error,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan check run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check runs: %w", err)
	}
	return runs, nil
}

// InsertNotification records an escalated report.
func (s *Store) InsertNotification(ctx context.Context, record NotificationRecord) (NotificationRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return NotificationRecord{}, err
	}

	row := pool.QueryRow(ctx, insertNotificationSQL, record.SiteID, record.Severity, record.Title)
	var out NotificationRecord
	if err := row.Scan(&out.ID, &out.SiteID, &out.Severity, &out.Title, &out.CreatedAt); err != nil {
		return NotificationRecord{}, fmt.Errorf("insert notification: %w", err)
	}
	return out, nil
}

// TryLockSite attempts a per-site advisory lock and returns a release func.
// The lock key is a stable hash of the site id.
func (s *Store) TryLockSite(ctx context.Context, siteID string) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	key := siteLockKey(siteID)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		defer conn.Release()
		_, _ = conn.Exec(context.Background(), advisoryUnlockSQL, key)
	}
	return unlock, true, nil
}

func siteLockKey(siteID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(siteID))
	return int64(h.Sum64())
}

var (
	_ RunStore          = (*Store)(nil)
	_ NotificationStore = (*Store)(nil)
	_ SiteLocker        = (*Store)(nil)
)
