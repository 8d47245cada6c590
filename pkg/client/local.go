package client

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
	"github.com/sdrshn-nmbr/txsched/internal/parser"
	"github.com/sdrshn-nmbr/txsched/internal/server"
	"github.com/sdrshn-nmbr/txsched/internal/storage"
)

type StorageType string

const (
	StorageMemory StorageType = storage.TypeMemory
	StorageWAL    StorageType = storage.TypeWAL
	StorageBadger StorageType = storage.TypeBadger
)

type LocalOptions struct {
	StorageType         StorageType
	DataPath            string
	MaxViewTransactions int
	Logger              *slog.Logger
}

// LocalClient runs the analysis service in-process.
type LocalClient struct {
	service *server.Service
}

func OpenLocal(opts LocalOptions) (*LocalClient, error) {
	store, err := storage.Open(string(opts.StorageType), opts.DataPath)
	if err != nil {
		return nil, err
	}

	service, err := server.NewService(server.Options{
		Store:    store,
		Analysis: analysis.Options{MaxViewTransactions: opts.MaxViewTransactions},
		Logger:   opts.Logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &LocalClient{service: service}, nil
}

func (c *LocalClient) Analyze(ctx context.Context, history string, save bool) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if strings.TrimSpace(history) == "" {
		return Report{}, ErrInvalidArgument
	}
	report, err := c.service.Analyze(ctx, history, save)
	if err != nil {
		return Report{}, mapServiceError(err)
	}
	return report, nil
}

func (c *LocalClient) Graph(ctx context.Context, history string) (Graph, error) {
	if err := ctx.Err(); err != nil {
		return Graph{}, err
	}
	g, err := c.service.Graph(ctx, history)
	if err != nil {
		return Graph{}, mapServiceError(err)
	}
	return server.NewGraphResponse(g), nil
}

func (c *LocalClient) GraphDOT(ctx context.Context, history string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g, err := c.service.Graph(ctx, history)
	if err != nil {
		return "", mapServiceError(err)
	}
	return g.DOT(), nil
}

func (c *LocalClient) Diagram(ctx context.Context, history string) (*Diagram, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := c.service.Diagram(ctx, history)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return d, nil
}

func (c *LocalClient) Catalog(ctx context.Context) ([]Scenario, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.service.Catalog(), nil
}

func (c *LocalClient) GetReport(ctx context.Context, id string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if id == "" {
		return Report{}, ErrInvalidArgument
	}
	report, err := c.service.Report(id)
	if err != nil {
		return Report{}, mapServiceError(err)
	}
	return report, nil
}

func (c *LocalClient) ListReports(ctx context.Context) ([]ReportSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := c.service.Reports()
	if err != nil {
		return nil, mapServiceError(err)
	}
	summaries := make([]ReportSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, server.Summarize(rec))
	}
	return summaries, nil
}

func (c *LocalClient) DeleteReport(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrInvalidArgument
	}
	return mapServiceError(c.service.DeleteReport(id))
}

func (c *LocalClient) Close() error {
	return c.service.Close()
}

func mapServiceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrReportNotFound):
		return ErrReportNotFound
	case errors.Is(err, parser.ErrParse),
		errors.Is(err, parser.ErrEmptyHistory):
		return errors.Join(ErrInvalidHistory, err)
	default:
		return err
	}
}
