package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
	"github.com/sdrshn-nmbr/txsched/internal/logging"
	"github.com/sdrshn-nmbr/txsched/internal/maintenance"
	"github.com/sdrshn-nmbr/txsched/internal/server"
	"github.com/sdrshn-nmbr/txsched/internal/storage"
)

type serverConfig struct {
	addr          string
	storageType   string
	dataPath      string
	logLevel      string
	maxViewTxns   int
	rateLimit     int64
	retention     time.Duration
	maxReports    int
	pruneInterval time.Duration
}

func main() {
	var cfg serverConfig
	flag.StringVar(&cfg.addr, "addr", ":8080", "listen address")
	flag.StringVar(&cfg.storageType, "storage-type", storage.TypeMemory, "report store: memory|wal|badger")
	flag.StringVar(&cfg.dataPath, "data", "txsched.data", "data path for wal and badger stores")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	flag.IntVar(&cfg.maxViewTxns, "max-view-txns", analysis.DefaultMaxViewTransactions,
		"largest committed projection checked for view-serializability")
	flag.Int64Var(&cfg.rateLimit, "rate-limit", 0, "operations analyzed per second, 0 disables")
	flag.DurationVar(&cfg.retention, "retention", 0, "drop saved reports older than this, 0 keeps them")
	flag.IntVar(&cfg.maxReports, "max-reports", 0, "keep only the newest saved reports, 0 keeps all")
	flag.DurationVar(&cfg.pruneInterval, "prune-interval", time.Minute, "how often retention runs")
	flag.Parse()

	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		slog.Error("invalid log level", "error", err)
		os.Exit(2)
	}
	logger := logging.New(os.Stderr, level)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg serverConfig, logger *slog.Logger) error {
	store, err := storage.Open(cfg.storageType, cfg.dataPath)
	if err != nil {
		return err
	}

	var limiter *maintenance.TokenBucket
	if cfg.rateLimit > 0 {
		limiter = maintenance.NewTokenBucket(cfg.rateLimit)
	}

	service, err := server.NewService(server.Options{
		Store:    store,
		Analysis: analysis.Options{MaxViewTransactions: cfg.maxViewTxns},
		Logger:   logging.Component(logger, "service"),
		Limiter:  limiter,
	})
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() {
		if err := service.Close(); err != nil {
			logger.Error("store close failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := maintenance.RetentionPolicy{MaxAge: cfg.retention, MaxReports: cfg.maxReports}
	if policy.Enabled() {
		retention := maintenance.NewRetentionScheduler(maintenance.RetentionConfig{
			Store:    store,
			Policy:   policy,
			Interval: cfg.pruneInterval,
			Logger:   logging.Component(logger, "retention"),
		})
		retention.Start(ctx)
		defer retention.Stop()
		retention.Trigger()
	}

	srv := &http.Server{
		Addr:              cfg.addr,
		Handler:           server.NewHandler(service, logging.Component(logger, "http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.addr, "storage", cfg.storageType)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
