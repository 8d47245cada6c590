package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
	"github.com/sdrshn-nmbr/txsched/internal/graph"
	"github.com/sdrshn-nmbr/txsched/internal/parser"
	"github.com/sdrshn-nmbr/txsched/internal/storage"
	"github.com/sdrshn-nmbr/txsched/internal/types"
)

const maxBodyBytes = 1 << 20

type handler struct {
	service *Service
	logger  *slog.Logger
}

type AnalyzeRequest struct {
	History string `json:"history"`
	Save    bool   `json:"save,omitempty"`
}

type GraphRequest struct {
	History string `json:"history"`
	Format  string `json:"format,omitempty"`
}

type HistoryRequest struct {
	History string `json:"history"`
}

type GraphEdge struct {
	From    types.TxnID `json:"from"`
	To      types.TxnID `json:"to"`
	Witness string      `json:"witness"`
}

type GraphResponse struct {
	Nodes       []types.TxnID `json:"nodes"`
	Edges       []GraphEdge   `json:"edges"`
	Acyclic     bool          `json:"acyclic"`
	SerialOrder []types.TxnID `json:"serial_order,omitempty"`
	Cycle       []types.TxnID `json:"cycle,omitempty"`
}

type ReportSummary struct {
	ID           string    `json:"id"`
	History      string    `json:"history"`
	CreatedAt    time.Time `json:"created_at"`
	Serializable bool      `json:"serializable"`
	Recoverable  bool      `json:"recoverable"`
}

func NewGraphResponse(g *graph.PrecedenceGraph) GraphResponse {
	resp := GraphResponse{Nodes: g.Nodes(), Edges: []GraphEdge{}}
	for _, e := range g.Edges() {
		edge := GraphEdge{From: e.From, To: e.To}
		if w, ok := g.Witness(e); ok {
			edge.Witness = w.First.String() + " < " + w.Second.String()
		}
		resp.Edges = append(resp.Edges, edge)
	}
	if order, err := g.TopologicalOrder(); err == nil {
		resp.Acyclic = true
		resp.SerialOrder = order
	} else {
		resp.Cycle = g.FindCycle()
	}
	return resp
}

func Summarize(rec storage.Record) ReportSummary {
	return ReportSummary{
		ID:           rec.ID,
		History:      rec.History,
		CreatedAt:    rec.CreatedAt,
		Serializable: rec.Result.Serializable.Holds(),
		Recoverable:  rec.Result.Recoverable.Holds(),
	}
}

func NewHandler(service *Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{service: service, logger: logger.With(slog.String("component", "http"))}
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handleRoot)
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/analyze", h.handleAnalyze)
	mux.HandleFunc("/graph", h.handleGraph)
	mux.HandleFunc("/diagram", h.handleDiagram)
	mux.HandleFunc("/catalog", h.handleCatalog)
	mux.HandleFunc("/reports", h.handleReports)
	mux.HandleFunc("/reports/", h.handleReportByID)
	return mux
}

func (h *handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "txsched",
		"status":  "ok",
		"message": "ready",
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req AnalyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "POST /analyze")
	defer span.End()

	rec, err := h.service.Analyze(ctx, req.History, req.Save)
	if err != nil {
		span.SetAttributes(attribute.Int("http.status_code", statusForError(err)))
		h.logger.Warn("analyze failed", slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	status := http.StatusOK
	if rec.ID != "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, rec)
}

func (h *handler) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req GraphRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	format := strings.ToLower(req.Format)
	if format != "" && format != "json" && format != "dot" {
		writeError(w, http.StatusBadRequest, ErrUnknownFormat.Error()+": "+req.Format)
		return
	}

	g, err := h.service.Graph(r.Context(), req.History)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	if format == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, g.DOT())
		return
	}
	writeJSON(w, http.StatusOK, NewGraphResponse(g))
}

func (h *handler) handleDiagram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req HistoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.service.Diagram(r.Context(), req.History)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Catalog())
}

func (h *handler) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	records, err := h.service.Reports()
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	summaries := make([]ReportSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, Summarize(rec))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) handleReportByID(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath("/reports/", r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := h.service.Report(id)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		if err := h.service.DeleteReport(id); err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, parser.ErrParse),
		errors.Is(err, parser.ErrEmptyHistory),
		errors.Is(err, analysis.ErrNilSchedule):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrEmptyHistory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrStorageClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func idFromPath(prefix string, path string) (string, error) {
	if !strings.HasPrefix(path, prefix) {
		return "", errors.New("invalid path")
	}
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" {
		return "", errors.New("missing report id")
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", err
	}
	return decoded, nil
}
