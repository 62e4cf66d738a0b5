package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tablastic/tablastic/internal/domain"
	exportuc "github.com/tablastic/tablastic/internal/usecase/export"
	fieldsuc "github.com/tablastic/tablastic/internal/usecase/fields"
	searchuc "github.com/tablastic/tablastic/internal/usecase/search"
)

// repoStub backs both use cases in one fake engine.
type repoStub struct {
	names    []string
	namesErr error
	mapping  json.RawMessage
	result   *domain.SearchResult
	err      error
}

func (r *repoStub) IndexNames(context.Context) ([]string, error) {
	return r.names, r.namesErr
}

func (r *repoStub) Mapping(context.Context, []string) (json.RawMessage, error) {
	return r.mapping, r.err
}

func (r *repoStub) Search(_ context.Context, _ []string, body io.Reader) (*domain.SearchResult, error) {
	io.Copy(io.Discard, body)
	return r.result, r.err
}

func newTestServer(t *testing.T, stub *repoStub) http.Handler {
	t.Helper()
	srv := NewServer(
		fieldsuc.New(stub),
		searchuc.New(stub),
		exportuc.New(),
		zap.NewNop(),
	)
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(t, &repoStub{}), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListIndices(t *testing.T) {
	stub := &repoStub{names: []string{".kibana", "logs"}}
	rec := do(t, newTestServer(t, stub), http.MethodGet, "/indices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp indicesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Indices) != 1 || resp.Indices[0] != "logs" {
		t.Fatalf("indices = %v", resp.Indices)
	}
}

func TestListFields(t *testing.T) {
	stub := &repoStub{mapping: json.RawMessage(`{
		"logs": {"mappings": {"properties": {
			"user": {"properties": {"name": {"type": "keyword"}}}
		}}}
	}`)}
	rec := do(t, newTestServer(t, stub), http.MethodGet, "/fields?indices=logs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp fieldsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Fields) != 1 || resp.Fields[0] != "user.name" {
		t.Fatalf("fields = %v", resp.Fields)
	}
}

func TestListFields_BadSchema(t *testing.T) {
	stub := &repoStub{mapping: json.RawMessage(`[]`)}
	rec := do(t, newTestServer(t, stub), http.MethodGet, "/fields", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "bad_upstream_schema" {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestSearch(t *testing.T) {
	stub := &repoStub{result: &domain.SearchResult{
		Total: 2,
		Hits: []domain.Hit{
			{ID: "1", Source: json.RawMessage(`{"n": 2, "id": "b"}`)},
			{ID: "2", Source: json.RawMessage(`{"n": 1, "id": "a"}`)},
		},
	}}
	rec := do(t, newTestServer(t, stub), http.MethodPost, "/search",
		`{"indices": ["logs"], "query": "x", "sort_by": "n"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp tableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Fatalf("total = %d", resp.Total)
	}
	if len(resp.Columns) != 2 || resp.Columns[0] != "n" || resp.Columns[1] != "id" {
		t.Fatalf("columns = %v", resp.Columns)
	}
	if resp.Rows[0]["id"] != "a" || resp.Rows[1]["id"] != "b" {
		t.Fatalf("rows not sorted ascending by n: %v", resp.Rows)
	}
}

func TestSearch_UnknownSortColumn(t *testing.T) {
	stub := &repoStub{result: &domain.SearchResult{Hits: []domain.Hit{
		{ID: "1", Source: json.RawMessage(`{"n": 1}`)},
	}}}
	rec := do(t, newTestServer(t, stub), http.MethodPost, "/search",
		`{"query": "x", "sort_by": "missing"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp errorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "unknown_column" {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestSearch_EngineDown(t *testing.T) {
	stub := &repoStub{err: domain.ErrTransport}
	rec := do(t, newTestServer(t, stub), http.MethodPost, "/search", `{"query": "x"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp errorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "engine_unavailable" {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestSearch_BadBody(t *testing.T) {
	rec := do(t, newTestServer(t, &repoStub{}), http.MethodPost, "/search", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestExport_CSV(t *testing.T) {
	stub := &repoStub{result: &domain.SearchResult{Hits: []domain.Hit{
		{ID: "1", Source: json.RawMessage(`{"msg": "hello"}`)},
	}}}
	rec := do(t, newTestServer(t, stub), http.MethodPost, "/export?format=csv", `{"query": "x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), ".csv") {
		t.Fatalf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if got := rec.Body.String(); got != "msg\nhello\n" {
		t.Fatalf("csv body = %q", got)
	}
}

func TestExport_Excel(t *testing.T) {
	stub := &repoStub{result: &domain.SearchResult{Hits: []domain.Hit{
		{ID: "1", Source: json.RawMessage(`{"msg": "hello"}`)},
	}}}
	rec := do(t, newTestServer(t, stub), http.MethodPost, "/export", `{"query": "x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Fatal("body is not a workbook")
	}
}

func TestBearerAuth(t *testing.T) {
	mw := BearerAuthMiddleware([]string{"secret"})
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := mw(ok)

	cases := []struct {
		name, path, header string
		want               int
	}{
		{"missing header", "/indices", "", http.StatusUnauthorized},
		{"wrong scheme", "/indices", "Basic secret", http.StatusUnauthorized},
		{"bad key", "/indices", "Bearer nope", http.StatusUnauthorized},
		{"good key", "/indices", "Bearer secret", http.StatusNoContent},
		{"healthz exempt", "/healthz", "", http.StatusNoContent},
		{"metrics exempt", "/metrics", "", http.StatusNoContent},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.path, nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != c.want {
			t.Errorf("%s: status = %d, want %d", c.name, rec.Code, c.want)
		}
	}
}

func TestBearerAuth_DisabledWithoutKeys(t *testing.T) {
	mw := BearerAuthMiddleware(nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	mw(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/indices", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSplitParam(t *testing.T) {
	if got := splitParam(""); got != nil {
		t.Fatalf("splitParam(\"\") = %v", got)
	}
	got := splitParam("a, b, ,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("splitParam = %v", got)
	}
}
