package main

import (
	"errors"
	"flag"
	"log/slog"
	"time"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
	"github.com/sdrshn-nmbr/txsched/internal/logging"
	"github.com/sdrshn-nmbr/txsched/pkg/client"
)

type cliConfig struct {
	mode     string
	baseURL  string
	timeout  time.Duration
	format   string
	logLevel slog.Level
	local    client.LocalOptions
}

func parseConfig(args []string) (cliConfig, []string, error) {
	var cfg cliConfig
	var storageType string
	var logLevel string

	fs := flag.NewFlagSet("txsched", flag.ContinueOnError)
	fs.StringVar(&cfg.mode, "mode", "local", "mode: local|http")
	fs.StringVar(&cfg.baseURL, "base-url", "http://localhost:8080", "http base url")
	fs.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "request timeout")
	fs.StringVar(&cfg.format, "format", "text", "output format: text|json")
	fs.StringVar(&logLevel, "log-level", "warn", "log level: debug|info|warn|error")

	fs.StringVar(&storageType, "storage-type", string(client.StorageMemory), "local report store: memory|wal|badger")
	fs.StringVar(&cfg.local.DataPath, "data", "txsched.data", "local data path for wal and badger stores")
	fs.IntVar(&cfg.local.MaxViewTransactions, "max-view-txns", analysis.DefaultMaxViewTransactions,
		"largest committed projection checked for view-serializability")

	if err := fs.Parse(args); err != nil {
		return cfg, nil, err
	}

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return cfg, nil, err
	}
	cfg.logLevel = level
	cfg.local.StorageType = client.StorageType(storageType)

	if cfg.mode != "local" && cfg.mode != "http" {
		return cfg, nil, errors.New("invalid mode")
	}
	if cfg.mode == "http" && cfg.baseURL == "" {
		return cfg, nil, errors.New("base-url is required for http mode")
	}
	if cfg.format != "text" && cfg.format != "json" {
		return cfg, nil, errors.New("invalid format")
	}
	if cfg.local.MaxViewTransactions <= 0 {
		return cfg, nil, errors.New("max-view-txns must be positive")
	}

	return cfg, fs.Args(), nil
}
