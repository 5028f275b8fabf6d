package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"sitewatch/internal/sites"
)

const metricsFileName = "metrics.json"

// FileStore keeps the whole site_id -> Record map in one JSON file,
// replaced atomically (write-new-then-rename) on every update. A mutex
// serialises writers within the process; cross-process races remain the
// caller's problem.
type FileStore struct {
	dir    string
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewFileStore constructs a file-backed history store rooted at dir.
func NewFileStore(dir string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// Compare implements Store. A missing or unreadable metrics file is
// treated as no history: stale comparison beats a failed run.
func (s *FileStore) Compare(siteID string, size int64, checksum string) Comparison {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.load()[siteID]
	if !ok {
		s.logger.Debug().Str("site_id", siteID).Msg("no historical record")
		return Comparison{}
	}
	return compare(rec, size, checksum)
}

// Update implements Store.
func (s *FileStore) Update(siteID, checksum string, size int64, rowCount *int, window int) (Record, error) {
	if window <= 0 {
		window = sites.DefaultHistoryWindow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	rec := all[siteID]

	rec.LastChecksum = checksum
	rec.LastSize = size
	if rowCount != nil {
		rc := *rowCount
		rec.LastRowCount = &rc
	}

	if n := len(rec.ChecksumHistory); n == 0 || rec.ChecksumHistory[n-1] != checksum {
		rec.ChecksumHistory = append(rec.ChecksumHistory, checksum)
	}
	if n := len(rec.ChecksumHistory); n > window {
		rec.ChecksumHistory = rec.ChecksumHistory[n-window:]
	}

	all[siteID] = rec
	if err := s.save(all); err != nil {
		return Record{}, fmt.Errorf("persist history for %s: %w", siteID, err)
	}
	return rec, nil
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, metricsFileName)
}

func (s *FileStore) load() map[string]Record {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error().Err(err).Str("path", s.path()).Msg("failed to read metrics file")
		}
		return map[string]Record{}
	}

	var all map[string]Record
	if err := json.Unmarshal(raw, &all); err != nil {
		s.logger.Error().Err(err).Str("path", s.path()).Msg("failed to parse metrics file")
		return map[string]Record{}
	}
	return all
}

func (s *FileStore) save(all map[string]Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, metricsFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp metrics file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp metrics file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp metrics file: %w", err)
	}

	if err := os.Rename(tmpName, s.path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace metrics file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
