package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	TypeMemory = "memory"
	TypeWAL    = "wal"
	TypeBadger = "badger"
)

// Open builds the store named by storageType. dataPath is the journal
// directory for wal and the database directory for badger.
func Open(storageType, dataPath string) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(storageType)) {
	case "", TypeMemory:
		return NewMemoryStorage(), nil
	case TypeWAL:
		if dataPath == "" {
			return nil, ErrMissingDataPath
		}
		if err := os.MkdirAll(dataPath, 0o755); err != nil {
			return nil, err
		}
		return OpenWALStorage(NewMemoryStorage(), filepath.Join(dataPath, "reports.wal"))
	case TypeBadger:
		return OpenBadgerStorage(dataPath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, storageType)
	}
}
