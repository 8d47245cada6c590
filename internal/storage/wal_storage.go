package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	wal "github.com/sdrshn-nmbr/txsched/internal/log"
)

// WALStorage keeps records in memory and journals every change so the
// store survives restarts.
type WALStorage struct {
	storage Storage
	wal     *wal.WAL
	mu      sync.Mutex
}

func OpenWALStorage(storage Storage, walPath string) (*WALStorage, error) {
	log, err := wal.NewWAL(walPath)
	if err != nil {
		return nil, err
	}

	if err := log.Replay(func(e wal.Entry) error { return apply(storage, e) }); err != nil {
		_ = log.Close()
		return nil, err
	}

	return &WALStorage{
		storage: storage,
		wal:     log,
	}, nil
}

func apply(storage Storage, e wal.Entry) error {
	switch e.Type {
	case wal.EntrySave:
		var rec Record
		if err := json.Unmarshal(e.Payload, &rec); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptData, err)
		}
		_, err := storage.Save(rec)
		return err
	case wal.EntryDelete:
		if err := storage.Delete(e.ID); err != nil && !errors.Is(err, ErrReportNotFound) {
			return err
		}
		return nil
	default:
		return ErrCorruptData
	}
}

func (w *WALStorage) Save(rec Record) (string, error) {
	if err := validateRecord(rec); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.wal.Append(wal.Entry{Type: wal.EntrySave, ID: rec.ID, Payload: payload}); err != nil {
		return "", err
	}
	return w.storage.Save(rec)
}

func (w *WALStorage) Get(id string) (Record, error) {
	return w.storage.Get(id)
}

func (w *WALStorage) List() ([]Record, error) {
	return w.storage.List()
}

func (w *WALStorage) Delete(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.storage.Get(id); err != nil {
		return err
	}
	if err := w.wal.Append(wal.Entry{Type: wal.EntryDelete, ID: id}); err != nil {
		return err
	}
	return w.storage.Delete(id)
}

func (w *WALStorage) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	baseErr := w.storage.Close()
	walErr := w.wal.Close()
	if baseErr != nil || walErr != nil {
		return errors.Join(baseErr, walErr)
	}
	return nil
}
