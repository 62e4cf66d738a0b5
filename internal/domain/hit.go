package domain

import "encoding/json"

// Hit is one matched document returned by a search. Only Source feeds the
// flattening pipeline; the rest is engine metadata.
type Hit struct {
	Index  string
	ID     string
	Score  float64
	Source json.RawMessage
}

// SearchResult is the decoded outcome of one search request. Hits keep the
// engine's relevance order.
type SearchResult struct {
	Total int64
	Hits  []Hit
}
