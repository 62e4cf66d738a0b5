package search

import (
	"context"
	"io"
	"time"

	"github.com/tablastic/tablastic/internal/domain"
)

// Searcher defines the transport contract for search execution.
type Searcher interface {
	Search(ctx context.Context, indices []string, body io.Reader) (*domain.SearchResult, error)
}

// Observer receives one measurement per completed search. Wired to
// prometheus in the API server, left nil elsewhere.
type Observer func(d time.Duration, hits int)
