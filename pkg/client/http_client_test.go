package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
	"github.com/sdrshn-nmbr/txsched/internal/logging"
	"github.com/sdrshn-nmbr/txsched/internal/server"
	"github.com/sdrshn-nmbr/txsched/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	service, err := server.NewService(server.Options{
		Store:  storage.NewMemoryStorage(),
		Logger: logging.Discard(),
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	ts := httptest.NewServer(server.NewHandler(service, logging.Discard()))
	t.Cleanup(func() {
		ts.Close()
		service.Close()
	})
	return ts
}

func newTestClient(t *testing.T, baseURL string, policy RetryPolicy) *HTTPClient {
	t.Helper()
	httpClient, err := NewHTTPClient(HTTPOptions{
		BaseURL:          baseURL,
		HTTPClient:       &http.Client{Timeout: 2 * time.Second},
		RetryPolicy:      policy,
		MaxResponseBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	return httpClient
}

func TestHTTPClientAnalyzeAndReports(t *testing.T) {
	ts := newTestServer(t)
	httpClient := newTestClient(t, ts.URL, DefaultRetryPolicy())
	ctx := context.Background()

	if err := httpClient.Health(ctx, RequestOptions{}); err != nil {
		t.Fatalf("Health failed: %v", err)
	}

	report, err := httpClient.Analyze(ctx, "w1[x] r2[x] a1", true, RequestOptions{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.ID == "" {
		t.Fatalf("expected saved report id")
	}
	if report.Result.Cascadeless.Verdict != analysis.Fails {
		t.Fatalf("expected ACA to fail, got %s", report.Result.Cascadeless.Verdict)
	}

	summaries, err := httpClient.ListReports(ctx, RequestOptions{})
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != report.ID {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	fetched, err := httpClient.GetReport(ctx, report.ID, RequestOptions{})
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if fetched.History != "w1[x] r2[x] a1" {
		t.Fatalf("expected stored history, got %q", fetched.History)
	}

	if err := httpClient.DeleteReport(ctx, report.ID, RequestOptions{}); err != nil {
		t.Fatalf("DeleteReport failed: %v", err)
	}
	if _, err := httpClient.GetReport(ctx, report.ID, RequestOptions{}); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestHTTPClientGraphAndDiagram(t *testing.T) {
	ts := newTestServer(t)
	httpClient := newTestClient(t, ts.URL, DefaultRetryPolicy())
	ctx := context.Background()

	g, err := httpClient.Graph(ctx, "r1[x] w2[x] r2[y] w1[y] c1 c2", RequestOptions{})
	if err != nil {
		t.Fatalf("Graph failed: %v", err)
	}
	if g.Acyclic || len(g.Cycle) != 2 {
		t.Fatalf("expected a two-node cycle, got %+v", g)
	}

	dot, err := httpClient.GraphDOT(ctx, "r1[x] w2[x] c1 c2", RequestOptions{})
	if err != nil {
		t.Fatalf("GraphDOT failed: %v", err)
	}
	if !strings.HasPrefix(dot, "digraph") {
		t.Fatalf("expected DOT output, got %q", dot)
	}

	d, err := httpClient.Diagram(ctx, "r1[x] w2[x] c1 c2", RequestOptions{})
	if err != nil {
		t.Fatalf("Diagram failed: %v", err)
	}
	if len(d.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %+v", d.Conflicts)
	}

	scenarios, err := httpClient.Catalog(ctx, RequestOptions{})
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(scenarios) == 0 {
		t.Fatalf("expected catalog scenarios")
	}
}

func TestHTTPClientInvalidHistory(t *testing.T) {
	ts := newTestServer(t)
	httpClient := newTestClient(t, ts.URL, DefaultRetryPolicy())

	_, err := httpClient.Analyze(context.Background(), "r1[x] bogus", false, RequestOptions{})
	if !errors.Is(err, ErrInvalidHistory) {
		t.Fatalf("expected ErrInvalidHistory, got %v", err)
	}
	if _, err := httpClient.Analyze(context.Background(), " ", false, RequestOptions{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestHTTPClientRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"busy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	policy := DefaultRetryPolicy()
	policy.BaseDelay = time.Millisecond
	policy.MaxDelay = 5 * time.Millisecond
	policy.Jitter = 0
	httpClient := newTestClient(t, ts.URL, policy)

	if _, err := httpClient.ListReports(context.Background(), RequestOptions{}); err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestHTTPClientRetryExhausted(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	policy := DefaultRetryPolicy()
	policy.MaxAttempts = 2
	policy.BaseDelay = time.Millisecond
	policy.MaxDelay = time.Millisecond
	policy.Jitter = 0
	httpClient := newTestClient(t, ts.URL, policy)

	_, err := httpClient.ListReports(context.Background(), RequestOptions{})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected wrapped 502, got %v", err)
	}

	atomic.StoreInt32(&calls, 0)
	if _, err := httpClient.Analyze(context.Background(), "w1[x] c1", true, RequestOptions{}); err == nil {
		t.Fatalf("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("saving analyze must not retry, got %d attempts", got)
	}
}

func TestRetryPolicyValidate(t *testing.T) {
	if err := DefaultRetryPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	policy := DefaultRetryPolicy()
	policy.RetryStatusCodes = []int{42}
	if err := policy.Validate(); !errors.Is(err, ErrInvalidStatusCode) {
		t.Fatalf("expected ErrInvalidStatusCode, got %v", err)
	}
	policy = DefaultRetryPolicy()
	policy.MaxAttempts = 0
	if err := policy.Validate(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
