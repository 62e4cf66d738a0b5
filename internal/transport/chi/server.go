// Package chi is the HTTP API surface over the search pipeline.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tablastic/tablastic/internal/domain"
	"github.com/tablastic/tablastic/internal/domain/table"
	exportuc "github.com/tablastic/tablastic/internal/usecase/export"
	fieldsuc "github.com/tablastic/tablastic/internal/usecase/fields"
	searchuc "github.com/tablastic/tablastic/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the use case services behind the HTTP handlers.
type Server struct {
	fields        *fieldsuc.Service
	search        *searchuc.Service
	export        *exportuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the API server.
func NewServer(
	fields *fieldsuc.Service,
	search *searchuc.Service,
	export *exportuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		fields: fields,
		search: search,
		export: export,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSchemaFormat, http.StatusBadGateway, "bad_upstream_schema"),
		sentinelHandler(domain.ErrTransport, http.StatusBadGateway, "engine_unavailable"),
		sentinelHandler(domain.ErrUnknownColumn, http.StatusBadRequest, "unknown_column"),
	}
	return s
}

// Routes mounts the API handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/indices", s.ListIndices)
	r.Get("/fields", s.ListFields)
	r.Post("/search", s.Search)
	r.Post("/export", s.Export)
}

// Healthz reports liveness. Engine reachability is not checked here; a dead
// engine surfaces per-request as engine_unavailable.
func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListIndices handles GET /indices.
func (s *Server) ListIndices(w http.ResponseWriter, r *http.Request) {
	names, err := s.fields.Indices(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, indicesResponse{Indices: names})
}

// ListFields handles GET /fields?indices=a,b. Without the parameter every
// index's fields are listed.
func (s *Server) ListFields(w http.ResponseWriter, r *http.Request) {
	indices := splitParam(r.URL.Query().Get("indices"))
	paths, err := s.fields.FieldPaths(r.Context(), indices)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fieldsResponse{Fields: paths})
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	t, err := s.search.Search(r.Context(), req.Indices, req.Query, req.Fields)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if req.SortBy != "" && t.Len() > 0 {
		if err := t.SortBy(req.SortBy, !req.Descending); err != nil {
			s.handleDomainError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, tableToResponse(t))
}

// Export handles POST /export: runs the search and streams the result as an
// .xlsx attachment (format=csv switches to CSV).
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	t, err := s.search.Search(r.Context(), req.Indices, req.Query, req.Fields)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if req.SortBy != "" && t.Len() > 0 {
		if err := t.SortBy(req.SortBy, !req.Descending); err != nil {
			s.handleDomainError(w, err)
			return
		}
	}

	name := fmt.Sprintf("search-%s", time.Now().Format("20060102-150405"))
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
		if err := s.export.CSV(t, w); err != nil {
			s.logger.Error("csv export failed", zap.Error(err))
		}
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
	if err := s.export.ExcelTo(t, w); err != nil {
		s.logger.Error("excel export failed", zap.Error(err))
	}
}

func (s *Server) decodeSearch(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return searchRequest{}, false
	}
	return req, true
}

// handleDomainError maps pipeline errors to HTTP responses.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// safeDomainMessage returns a sentinel error message without exposing
// internals to the client.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrTransport,
		domain.ErrSchemaFormat,
		domain.ErrUnknownColumn,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// DTOs.

type searchRequest struct {
	Indices    []string `json:"indices"`
	Query      string   `json:"query"`
	Fields     []string `json:"fields"`
	SortBy     string   `json:"sort_by,omitempty"`
	Descending bool     `json:"descending,omitempty"`
}

type indicesResponse struct {
	Indices []string `json:"indices"`
}

type fieldsResponse struct {
	Fields []string `json:"fields"`
}

type tableResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Total   int              `json:"total"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func tableToResponse(t *table.Table) tableResponse {
	rows := make([]map[string]any, t.Len())
	for i, row := range t.Rows() {
		rows[i] = row
	}
	return tableResponse{
		Columns: t.Columns(),
		Rows:    rows,
		Total:   t.Len(),
	}
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
