package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStorage struct {
	records map[string]Record
	closed  bool
	mu      sync.RWMutex
	now     func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Save stores rec, assigning an id and creation time when they are unset.
// Saving an existing id replaces the record.
func (ms *MemoryStorage) Save(rec Record) (string, error) {
	if err := validateRecord(rec); err != nil {
		return "", err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.closed {
		return "", ErrStorageClosed
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = ms.now().UTC()
	}
	ms.records[rec.ID] = rec
	return rec.ID, nil
}

func (ms *MemoryStorage) Get(id string) (Record, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	rec, ok := ms.records[id]
	if !ok {
		return Record{}, ErrReportNotFound
	}
	return rec, nil
}

// List returns every record, oldest first.
func (ms *MemoryStorage) List() ([]Record, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]Record, 0, len(ms.records))
	for _, rec := range ms.records {
		out = append(out, rec)
	}
	sortRecords(out)
	return out, nil
}

func (ms *MemoryStorage) Delete(id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.records[id]; !ok {
		return ErrReportNotFound
	}
	delete(ms.records, id)
	return nil
}

func (ms *MemoryStorage) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.closed = true
	return nil
}
