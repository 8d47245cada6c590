package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestWALStorage(t *testing.T) {
	store, err := OpenWALStorage(NewMemoryStorage(), filepath.Join(t.TempDir(), "reports.wal"))
	if err != nil {
		t.Fatalf("failed to open WAL storage: %v", err)
	}
	defer store.Close()
	exerciseStorage(t, store)
}

func TestWALStorageRecovery(t *testing.T) {
	walPath := filepath.Join(t.TempDir(), "reports.wal")

	wrapped, err := OpenWALStorage(NewMemoryStorage(), walPath)
	if err != nil {
		t.Fatalf("failed to open WAL storage: %v", err)
	}

	kept, err := wrapped.Save(newRecord(t, "w1[x] c1 r2[x] c2"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	dropped, err := wrapped.Save(newRecord(t, "w1[x] r2[x] a1"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := wrapped.Delete(dropped); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := wrapped.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	recovered, err := OpenWALStorage(NewMemoryStorage(), walPath)
	if err != nil {
		t.Fatalf("failed to reopen WAL storage: %v", err)
	}
	defer recovered.Close()

	if _, err := recovered.Get(dropped); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected deleted report to stay deleted after recovery, got %v", err)
	}

	rec, err := recovered.Get(kept)
	if err != nil {
		t.Fatalf("failed to get report after recovery: %v", err)
	}
	if rec.History != "w1[x] c1 r2[x] c2" {
		t.Fatalf("expected recovered history, got %q", rec.History)
	}
	if !rec.Result.Strict.Holds() {
		t.Fatalf("expected recovered ST verdict to hold, got %s", rec.Result.Strict.Verdict)
	}
}

func TestWALStorageDeleteMissing(t *testing.T) {
	store, err := OpenWALStorage(NewMemoryStorage(), filepath.Join(t.TempDir(), "reports.wal"))
	if err != nil {
		t.Fatalf("failed to open WAL storage: %v", err)
	}
	defer store.Close()

	if err := store.Delete("missing"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}
