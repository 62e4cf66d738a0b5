// Package search runs the query pipeline: build a request body, execute it
// over the transport, and project the hits into a flat result table.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tablastic/tablastic/internal/domain"
	"github.com/tablastic/tablastic/internal/domain/query"
	"github.com/tablastic/tablastic/internal/domain/table"
	"github.com/tablastic/tablastic/internal/flatten"
)

// Service executes searches and projects hits into tables.
type Service struct {
	repo    Searcher
	flat    flatten.Flattener
	observe Observer
}

// New creates a search service.
func New(repo Searcher) *Service {
	return &Service{repo: repo}
}

// WithMaxDepth overrides the hit flattener's recursion guard.
func (s *Service) WithMaxDepth(depth int) *Service {
	s.flat.MaxDepth = depth
	return s
}

// WithObserver wires a per-search measurement callback.
func (s *Service) WithObserver(o Observer) *Service {
	s.observe = o
	return s
}

// Search issues one multi_match query against the selected indices and
// returns the projected table. The caller owns the returned table; it is
// never shared or merged with a previous search's table. An empty hit list
// is a valid zero-row table, not an error.
func (s *Service) Search(ctx context.Context, indices []string, term string, fields []string) (*table.Table, error) {
	body, err := json.Marshal(query.New(term, fields))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := s.repo.Search(ctx, indices, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	t, err := s.project(resp.Hits)
	if err != nil {
		return nil, err
	}
	if s.observe != nil {
		s.observe(time.Since(start), t.Len())
	}
	return t, nil
}

// project flattens every hit's _source in engine order. Row count always
// equals hit count: a hit with no _source still contributes an empty row.
func (s *Service) project(hits []domain.Hit) (*table.Table, error) {
	t := table.New()
	for i, hit := range hits {
		if len(hit.Source) == 0 || bytes.Equal(bytes.TrimSpace(hit.Source), []byte("null")) {
			t.Append(nil)
			continue
		}
		cells, err := s.flat.Source(hit.Source)
		if err != nil {
			return nil, fmt.Errorf("flatten hit %d (%s): %w", i, hit.ID, err)
		}
		t.Append(cells)
	}
	return t, nil
}
