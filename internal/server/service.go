package server

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
	"github.com/sdrshn-nmbr/txsched/internal/catalog"
	"github.com/sdrshn-nmbr/txsched/internal/graph"
	"github.com/sdrshn-nmbr/txsched/internal/history"
	"github.com/sdrshn-nmbr/txsched/internal/maintenance"
	"github.com/sdrshn-nmbr/txsched/internal/parser"
	"github.com/sdrshn-nmbr/txsched/internal/schedule"
	"github.com/sdrshn-nmbr/txsched/internal/storage"
)

const tracerName = "github.com/sdrshn-nmbr/txsched/internal/server"

type Options struct {
	Store    storage.Storage
	Analysis analysis.Options
	Logger   *slog.Logger
	// Limiter throttles analysis by history length in operations.
	Limiter *maintenance.TokenBucket
}

// Service parses, analyzes and stores histories. The HTTP handler and the
// local CLI client both go through it.
type Service struct {
	store   storage.Storage
	opts    analysis.Options
	logger  *slog.Logger
	limiter *maintenance.TokenBucket
	tracer  trace.Tracer
	now     func() time.Time
}

func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, ErrStoreRequired
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Analysis.MaxViewTransactions <= 0 {
		opts.Analysis = analysis.DefaultOptions()
	}
	return &Service{
		store:   opts.Store,
		opts:    opts.Analysis,
		logger:  logger.With(slog.String("component", "service")),
		limiter: opts.Limiter,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}, nil
}

func (s *Service) parse(ctx context.Context, text string) (*schedule.Schedule, error) {
	sched, err := parser.ParseSchedule(text)
	if err != nil {
		return nil, err
	}
	if err := s.limiter.WaitN(ctx, int64(sched.Len())); err != nil {
		return nil, err
	}
	return sched, nil
}

// Analyze checks every property of the history. With save set the report
// is stored and the returned record carries its id.
func (s *Service) Analyze(ctx context.Context, text string, save bool) (storage.Record, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Analyze",
		trace.WithAttributes(
			attribute.Int("history.bytes", len(text)),
			attribute.Bool("save", save),
		),
	)
	defer span.End()
	start := s.now()

	sched, err := s.parse(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return storage.Record{}, err
	}

	result, err := analysis.Analyze(sched, s.opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		return storage.Record{}, err
	}

	rec := storage.Record{
		History:   result.History,
		Result:    result,
		CreatedAt: s.now().UTC(),
	}
	if save {
		id, err := s.store.Save(rec)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save failed")
			return storage.Record{}, err
		}
		rec.ID = id
	}

	span.SetAttributes(
		attribute.Int("transactions", len(result.Transactions)),
		attribute.Bool("serializable", result.Serializable.Holds()),
	)
	s.logger.Info("analyzed history",
		slog.String("analysis_id", rec.ID),
		slog.Int("transactions", len(result.Transactions)),
		slog.Bool("serializable", result.Serializable.Holds()),
		slog.Duration("duration", time.Since(start)),
	)
	return rec, nil
}

// Graph returns the precedence graph of the history.
func (s *Service) Graph(ctx context.Context, text string) (*graph.PrecedenceGraph, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Graph")
	defer span.End()

	sched, err := s.parse(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}
	return graph.Build(sched), nil
}

func (s *Service) Diagram(ctx context.Context, text string) (*history.Diagram, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Diagram")
	defer span.End()

	sched, err := s.parse(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}
	return history.Build(sched), nil
}

func (s *Service) Report(id string) (storage.Record, error) {
	return s.store.Get(id)
}

func (s *Service) Reports() ([]storage.Record, error) {
	return s.store.List()
}

func (s *Service) DeleteReport(id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.logger.Info("deleted report", slog.String("analysis_id", id))
	return nil
}

func (s *Service) Catalog() []catalog.Scenario {
	return catalog.All()
}

func (s *Service) Store() storage.Storage {
	return s.store
}

func (s *Service) Close() error {
	return s.store.Close()
}
