package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

var reportPrefix = []byte("report/")

func reportKey(id string) []byte {
	return append(append([]byte{}, reportPrefix...), id...)
}

// BadgerStorage keeps records as JSON values under report/<id>.
type BadgerStorage struct {
	db *badger.DB
}

func OpenBadgerStorage(dir string) (*BadgerStorage, error) {
	if dir == "" {
		return nil, ErrMissingDataPath
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStorage{db: db}, nil
}

func (bs *BadgerStorage) Save(rec Record) (string, error) {
	if err := validateRecord(rec); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	err = bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(reportKey(rec.ID), value)
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (bs *BadgerStorage) Get(id string) (Record, error) {
	var rec Record
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(reportKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrReportNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decodeRecord(val, &rec)
		})
	})
	return rec, err
}

// List returns every record, oldest first.
func (bs *BadgerStorage) List() ([]Record, error) {
	var out []Record
	err := bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = reportPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return decodeRecord(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRecords(out)
	return out, nil
}

func (bs *BadgerStorage) Delete(id string) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		key := reportKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrReportNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

func (bs *BadgerStorage) Close() error {
	return bs.db.Close()
}

func decodeRecord(val []byte, rec *Record) error {
	if err := json.Unmarshal(val, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	return nil
}
