package maintenance

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sdrshn-nmbr/txsched/internal/storage"
)

func seed(t *testing.T, store storage.Storage, ages ...time.Duration) []string {
	t.Helper()
	now := time.Now()
	ids := make([]string, 0, len(ages))
	for _, age := range ages {
		id, err := store.Save(storage.Record{History: "w1[x] c1", CreatedAt: now.Add(-age)})
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestPruneByAge(t *testing.T) {
	store := storage.NewMemoryStorage()
	ids := seed(t, store, 3*time.Hour, 2*time.Hour, time.Minute)

	removed, err := Prune(store, RetentionPolicy{MaxAge: time.Hour}, time.Now())
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("Expected 2 removed, got %d", removed)
	}

	records, _ := store.List()
	if len(records) != 1 || records[0].ID != ids[2] {
		t.Fatalf("Expected only the newest report, got %+v", records)
	}
}

func TestPruneByCount(t *testing.T) {
	store := storage.NewMemoryStorage()
	ids := seed(t, store, 4*time.Minute, 3*time.Minute, 2*time.Minute, time.Minute)

	removed, err := Prune(store, RetentionPolicy{MaxReports: 2}, time.Now())
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("Expected 2 removed, got %d", removed)
	}

	records, _ := store.List()
	if len(records) != 2 || records[0].ID != ids[2] || records[1].ID != ids[3] {
		t.Fatalf("Expected the two newest reports, got %+v", records)
	}
}

func TestPruneDisabled(t *testing.T) {
	store := storage.NewMemoryStorage()
	seed(t, store, 48*time.Hour)

	removed, err := Prune(store, RetentionPolicy{}, time.Now())
	if err != nil || removed != 0 {
		t.Fatalf("Expected no-op, got %d, %v", removed, err)
	}
}

type blockingStore struct {
	calls  int32
	called chan struct{}
	block  chan struct{}
}

func (b *blockingStore) List() ([]storage.Record, error) {
	atomic.AddInt32(&b.calls, 1)
	if b.called != nil {
		b.called <- struct{}{}
	}
	if b.block != nil {
		<-b.block
	}
	return nil, nil
}

func (b *blockingStore) Delete(string) error { return nil }

func TestRetentionSchedulerTrigger(t *testing.T) {
	store := &blockingStore{called: make(chan struct{}, 1)}
	scheduler := NewRetentionScheduler(RetentionConfig{
		Store:       store,
		Policy:      RetentionPolicy{MaxReports: 1},
		MaxInFlight: 1,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)
	defer scheduler.Stop()

	scheduler.Trigger()
	select {
	case <-store.called:
	case <-time.After(2 * time.Second):
		t.Fatal("prune did not trigger")
	}
}

func TestRetentionSchedulerMaxInFlight(t *testing.T) {
	store := &blockingStore{
		called: make(chan struct{}, 2),
		block:  make(chan struct{}),
	}
	scheduler := NewRetentionScheduler(RetentionConfig{
		Store:       store,
		Policy:      RetentionPolicy{MaxReports: 1},
		MaxInFlight: 1,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)
	defer scheduler.Stop()

	scheduler.Trigger()
	select {
	case <-store.called:
	case <-time.After(2 * time.Second):
		t.Fatal("prune did not trigger")
	}

	scheduler.Trigger()
	select {
	case <-store.called:
		t.Fatal("unexpected concurrent prune")
	case <-time.After(200 * time.Millisecond):
	}

	close(store.block)
}

func TestRetentionSchedulerInterval(t *testing.T) {
	store := &blockingStore{called: make(chan struct{}, 4)}
	scheduler := NewRetentionScheduler(RetentionConfig{
		Store:    store,
		Policy:   RetentionPolicy{MaxAge: time.Hour},
		Interval: 10 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)
	defer scheduler.Stop()

	select {
	case <-store.called:
	case <-time.After(2 * time.Second):
		t.Fatal("interval prune did not run")
	}
}
