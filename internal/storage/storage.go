package storage

import (
	"sort"
	"time"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
)

// Storage interface defines all report store operations
type Storage interface {
	Save(rec Record) (string, error)
	Get(id string) (Record, error)
	List() ([]Record, error)
	Delete(id string) error
	Close() error
}

// Record is one saved analysis.
type Record struct {
	ID        string          `json:"id"`
	History   string          `json:"history"`
	Result    analysis.Result `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}

func validateRecord(rec Record) error {
	if rec.History == "" {
		return ErrEmptyHistory
	}
	return nil
}
