package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sdrshn-nmbr/txsched/internal/storage"
)

// Store is the part of the report store retention needs.
type Store interface {
	List() ([]storage.Record, error)
	Delete(id string) error
}

type RetentionPolicy struct {
	// MaxAge drops reports older than this; zero keeps them regardless of age.
	MaxAge time.Duration
	// MaxReports keeps only the newest reports; zero means no limit.
	MaxReports int
}

func (p RetentionPolicy) Enabled() bool {
	return p.MaxAge > 0 || p.MaxReports > 0
}

// Prune deletes the reports the policy no longer keeps and returns how
// many were removed.
func Prune(store Store, policy RetentionPolicy, now time.Time) (int, error) {
	if !policy.Enabled() {
		return 0, nil
	}
	records, err := store.List()
	if err != nil {
		return 0, err
	}

	excess := 0
	if policy.MaxReports > 0 && len(records) > policy.MaxReports {
		excess = len(records) - policy.MaxReports
	}

	removed := 0
	for i, rec := range records {
		expired := policy.MaxAge > 0 && now.Sub(rec.CreatedAt) > policy.MaxAge
		if i >= excess && !expired {
			continue
		}
		if err := store.Delete(rec.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

type RetentionConfig struct {
	Store       Store
	Policy      RetentionPolicy
	Interval    time.Duration
	MaxInFlight int
	Logger      *slog.Logger
}

type RetentionScheduler struct {
	store    Store
	policy   RetentionPolicy
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	trigger chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup
	sem     chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewRetentionScheduler(cfg RetentionConfig) *RetentionScheduler {
	maxInFlight := cfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RetentionScheduler{
		store:    cfg.Store,
		policy:   cfg.Policy,
		interval: cfg.Interval,
		logger:   logger.With(slog.String("component", "retention")),
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
		sem:      make(chan struct{}, maxInFlight),
	}
}

func (s *RetentionScheduler) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.run(ctx)
	})
}

func (s *RetentionScheduler) Stop() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
}

func (s *RetentionScheduler) Trigger() {
	if s == nil {
		return
	}
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *RetentionScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	var ticker *time.Ticker
	if s.interval > 0 {
		ticker = time.NewTicker(s.interval)
		defer ticker.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-s.trigger:
			s.launch()
		case <-s.tickChan(ticker):
			s.launch()
		}
	}
}

func (s *RetentionScheduler) tickChan(ticker *time.Ticker) <-chan time.Time {
	if ticker == nil {
		return nil
	}
	return ticker.C
}

func (s *RetentionScheduler) launch() {
	select {
	case s.sem <- struct{}{}:
	default:
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.sem }()

		removed, err := Prune(s.store, s.policy, s.now())
		if err != nil {
			s.logger.Error("prune failed", slog.Any("error", err))
			return
		}
		if removed > 0 {
			s.logger.Info("pruned reports", slog.Int("removed", removed))
		}
	}()
}
