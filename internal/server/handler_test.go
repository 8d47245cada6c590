package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
	"github.com/sdrshn-nmbr/txsched/internal/catalog"
	"github.com/sdrshn-nmbr/txsched/internal/history"
	"github.com/sdrshn-nmbr/txsched/internal/logging"
	"github.com/sdrshn-nmbr/txsched/internal/storage"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	service, err := NewService(Options{
		Store:  storage.NewMemoryStorage(),
		Logger: logging.Discard(),
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() { service.Close() })
	return NewHandler(service, logging.Discard())
}

func do(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestHealthHandler(t *testing.T) {
	handler := newTestHandler(t)
	resp := do(handler, http.MethodGet, "/healthz", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.Code)
	}
	if resp := do(handler, http.MethodGet, "/missing", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", resp.Code)
	}
}

func TestAnalyzeHandler(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(handler, http.MethodPost, "/analyze", `{"history":"r1[x] w2[x] r2[y] w1[y] c1 c2"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var rec storage.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("Decode response failed: %v", err)
	}
	if rec.ID != "" {
		t.Fatalf("Expected unsaved report, got id %s", rec.ID)
	}
	if rec.Result.Serializable.Verdict != analysis.Fails {
		t.Fatalf("Expected SR to fail, got %s", rec.Result.Serializable.Verdict)
	}
	if !strings.Contains(rec.Result.Serializable.Explanation, "T1 -> T2 -> T1") {
		t.Fatalf("Expected cycle in explanation, got %q", rec.Result.Serializable.Explanation)
	}
}

func TestAnalyzeHandlerErrors(t *testing.T) {
	handler := newTestHandler(t)

	cases := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"bad token", http.MethodPost, `{"history":"r1[x] q2[y]"}`, http.StatusBadRequest},
		{"empty history", http.MethodPost, `{"history":"  "}`, http.StatusBadRequest},
		{"op after commit", http.MethodPost, `{"history":"w1[x] c1 r1[x]"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, `{"schedule":"r1[x]"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, `{`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		resp := do(handler, tc.method, "/analyze", tc.body)
		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, resp.Code, resp.Body.String())
		}
	}
}

func TestReportHandlers(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(handler, http.MethodPost, "/analyze", `{"history":"w1[x] r2[x] c2 c1","save":true}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created storage.Record
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Decode response failed: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("Expected report id")
	}

	resp = do(handler, http.MethodGet, "/reports", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.Code)
	}
	var summaries []ReportSummary
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		t.Fatalf("Decode response failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != created.ID || summaries[0].Recoverable {
		t.Fatalf("Unexpected summaries: %+v", summaries)
	}

	resp = do(handler, http.MethodGet, "/reports/"+created.ID, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.Code)
	}
	var fetched storage.Record
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatalf("Decode response failed: %v", err)
	}
	if fetched.History != "w1[x] r2[x] c2 c1" {
		t.Fatalf("Expected stored history, got %q", fetched.History)
	}

	resp = do(handler, http.MethodDelete, "/reports/"+created.ID, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", resp.Code)
	}
	resp = do(handler, http.MethodGet, "/reports/"+created.ID, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", resp.Code)
	}
	resp = do(handler, http.MethodGet, "/reports/", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.Code)
	}
}

func TestGraphHandler(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(handler, http.MethodPost, "/graph", `{"history":"r1[x] w1[x] r2[x] w2[x] c1 c2"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var g GraphResponse
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		t.Fatalf("Decode response failed: %v", err)
	}
	if !g.Acyclic || len(g.Edges) != 1 || g.Edges[0].From != 1 || g.Edges[0].To != 2 {
		t.Fatalf("Unexpected graph: %+v", g)
	}
	if g.Edges[0].Witness != "w1[x] < r2[x]" {
		t.Fatalf("Expected earliest witness, got %q", g.Edges[0].Witness)
	}

	resp = do(handler, http.MethodPost, "/graph", `{"history":"r1[x] w2[x] r2[y] w1[y]","format":"dot"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Fatalf("Expected graphviz content type, got %s", ct)
	}
	if !strings.Contains(resp.Body.String(), "T2 -> T1") {
		t.Fatalf("Expected T2 -> T1 edge in DOT output: %s", resp.Body.String())
	}

	resp = do(handler, http.MethodPost, "/graph", `{"history":"r1[x]","format":"svg"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.Code)
	}
}

func TestDiagramAndCatalogHandlers(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(handler, http.MethodPost, "/diagram", `{"history":"r1[x] w2[x] c1 c2"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var d history.Diagram
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("Decode response failed: %v", err)
	}
	if len(d.Conflicts) != 1 || d.Conflicts[0] != (history.ConflictEdge{Before: 0, After: 1}) {
		t.Fatalf("Unexpected conflicts: %+v", d.Conflicts)
	}

	resp = do(handler, http.MethodGet, "/catalog", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.Code)
	}
	var scenarios []catalog.Scenario
	if err := json.NewDecoder(resp.Body).Decode(&scenarios); err != nil {
		t.Fatalf("Decode response failed: %v", err)
	}
	if len(scenarios) != len(catalog.All()) {
		t.Fatalf("Expected %d scenarios, got %d", len(catalog.All()), len(scenarios))
	}
}
