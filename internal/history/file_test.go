package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir(), zerolog.Nop())
}

func TestCompareNoHistory(t *testing.T) {
	store := newTestStore(t)

	cmp := store.Compare("new-site", 1000, "abc")
	if cmp.Changed || cmp.SizeDropped50Pct || cmp.Anomaly {
		t.Fatalf("first run should compare clean: %+v", cmp)
	}
	if !cmp.SizeChangePct.IsZero() {
		t.Fatalf("SizeChangePct = %s, want 0", cmp.SizeChangePct)
	}
}

func TestCompareAgainstPreviousRun(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Update("site", "abc", 1000, nil, 10); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	cmp := store.Compare("site", 400, "def")
	if !cmp.Changed {
		t.Fatal("checksum change not detected")
	}
	if got := cmp.SizeChangePct.StringFixed(1); got != "-60.0" {
		t.Fatalf("SizeChangePct = %s, want -60.0", got)
	}
	if !cmp.SizeDropped50Pct {
		t.Fatal("60% drop should trip the drop flag")
	}
	if !cmp.Anomaly {
		t.Fatal("changed content plus big drop should be an anomaly")
	}
}

func TestCompareDropWithoutChange(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Update("site", "abc", 1000, nil, 10); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	cmp := store.Compare("site", 400, "abc")
	if cmp.Changed {
		t.Fatal("identical checksum should not be a change")
	}
	if !cmp.SizeDropped50Pct {
		t.Fatal("drop flag missing")
	}
	if cmp.Anomaly {
		t.Fatal("anomaly requires a checksum change as well")
	}
}

func TestCompareExactlyHalfIsNotADrop(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Update("site", "abc", 1000, nil, 10); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	cmp := store.Compare("site", 500, "abc")
	if cmp.SizeDropped50Pct {
		t.Fatal("exactly -50% should not trip the strict drop threshold")
	}
}

func TestUpdateDeduplicatesConsecutiveChecksums(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := store.Update("site", "same", 100, nil, 10); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}
	rec, err := store.Update("site", "other", 100, nil, 10)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	want := []string{"same", "other"}
	if len(rec.ChecksumHistory) != len(want) {
		t.Fatalf("history = %v, want %v", rec.ChecksumHistory, want)
	}
	for i := range want {
		if rec.ChecksumHistory[i] != want[i] {
			t.Fatalf("history = %v, want %v", rec.ChecksumHistory, want)
		}
	}
}

func TestUpdateTrimsToWindow(t *testing.T) {
	store := newTestStore(t)

	sums := []string{"a", "b", "c", "d", "e"}
	var rec Record
	var err error
	for _, sum := range sums {
		rec, err = store.Update("site", sum, 100, nil, 3)
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	want := []string{"c", "d", "e"}
	if len(rec.ChecksumHistory) != len(want) {
		t.Fatalf("history = %v, want %v", rec.ChecksumHistory, want)
	}
	for i := range want {
		if rec.ChecksumHistory[i] != want[i] {
			t.Fatalf("history = %v, want %v", rec.ChecksumHistory, want)
		}
	}
}

func TestUpdatePersistsRowCount(t *testing.T) {
	store := newTestStore(t)

	rows := 42
	rec, err := store.Update("site", "abc", 100, &rows, 10)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if rec.LastRowCount == nil || *rec.LastRowCount != 42 {
		t.Fatalf("LastRowCount = %v, want 42", rec.LastRowCount)
	}

	raw, err := os.ReadFile(filepath.Join(store.dir, metricsFileName))
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	var all map[string]Record
	if err := json.Unmarshal(raw, &all); err != nil {
		t.Fatalf("parse metrics file: %v", err)
	}
	if got := all["site"]; got.LastChecksum != "abc" || got.LastSize != 100 {
		t.Fatalf("persisted record = %+v", got)
	}
}

func TestCorruptMetricsFileTreatedAsEmpty(t *testing.T) {
	store := newTestStore(t)

	if err := os.WriteFile(filepath.Join(store.dir, metricsFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	cmp := store.Compare("site", 100, "abc")
	if cmp.Changed || cmp.Anomaly {
		t.Fatalf("corrupt file should compare as no history: %+v", cmp)
	}

	if _, err := store.Update("site", "abc", 100, nil, 10); err != nil {
		t.Fatalf("update over corrupt file failed: %v", err)
	}
}

func TestUpdateSurfacesWriteErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "taken")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	// Store dir path is an existing regular file: MkdirAll must fail.
	store := NewFileStore(blocker, zerolog.Nop())
	if _, err := store.Update("site", "abc", 100, nil, 10); err == nil {
		t.Fatal("write failure should be returned")
	}
}
