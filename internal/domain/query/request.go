// Package query builds search request bodies for the engine.
package query

import (
	"encoding/json"
	"fmt"

	"github.com/tablastic/tablastic/internal/domain/field"
)

// DefaultSize is the fixed hit-count ceiling per search. The request shape
// anticipates a configurable 0-10000 range, but the pipeline pins it here.
const DefaultSize = 100

// Request is a one-shot search request body. Build it with New and do not
// reuse it across searches.
type Request struct {
	sourceFields []string
	term         string
	size         int
}

// New builds a request from a free-text term and a field projection.
// A wildcard selection (empty list or "*") omits _source entirely and lets
// the engine apply its default inclusion. An empty term is legal; the
// engine's default multi_match behavior applies.
func New(term string, fields []string) Request {
	r := Request{term: term, size: DefaultSize}
	if !field.IsWildcard(fields) {
		r.sourceFields = append(r.sourceFields, fields...)
	}
	return r
}

// Term returns the free-text query term.
func (r Request) Term() string { return r.term }

// SourceFields returns the projected field paths, nil for wildcard selection.
func (r Request) SourceFields() []string { return r.sourceFields }

// Size returns the hit-count ceiling.
func (r Request) Size() int { return r.size }

// body is the wire shape of a search request.
type body struct {
	Source []string `json:"_source,omitempty"`
	Query  struct {
		MultiMatch struct {
			Query string `json:"query"`
		} `json:"multi_match"`
	} `json:"query"`
	Size int `json:"size"`
}

// MarshalJSON serializes the request as a multi_match search body:
//
//	{"_source":[...],"query":{"multi_match":{"query":"..."}},"size":100}
func (r Request) MarshalJSON() ([]byte, error) {
	var b body
	b.Source = r.sourceFields
	b.Query.MultiMatch.Query = r.term
	b.Size = r.size
	out, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}
	return out, nil
}
