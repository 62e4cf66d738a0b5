// Package fields handles index and field discovery: listing the engine's
// indices and flattening their mappings into selectable field paths.
package fields

import (
	"context"
	"fmt"
	"strings"

	"github.com/tablastic/tablastic/internal/flatten"
)

// Service drives schema discovery against the transport.
type Service struct {
	repo MappingReader
	flat flatten.Flattener
}

// New creates a fields service.
func New(repo MappingReader) *Service {
	return &Service{repo: repo}
}

// WithMaxDepth overrides the mapping flattener's recursion guard.
func (s *Service) WithMaxDepth(depth int) *Service {
	s.flat.MaxDepth = depth
	return s
}

// Indices lists the engine's indices, hiding names starting with "." —
// those are the engine's internal bookkeeping, not user data.
func (s *Service) Indices(ctx context.Context) ([]string, error) {
	names, err := s.repo.IndexNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indices: %w", err)
	}
	visible := names[:0]
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		visible = append(visible, name)
	}
	return visible, nil
}

// FieldPaths fetches the mapping for the selected indices fresh (never
// cached) and flattens it into a de-duplicated, first-seen-ordered field
// path list for selection UIs and _source projections.
func (s *Service) FieldPaths(ctx context.Context, indices []string) ([]string, error) {
	raw, err := s.repo.Mapping(ctx, indices)
	if err != nil {
		return nil, fmt.Errorf("fetch mapping: %w", err)
	}
	paths, err := s.flat.Schema(raw)
	if err != nil {
		return nil, fmt.Errorf("flatten mapping: %w", err)
	}
	return paths, nil
}
