// Package elastic is the Elasticsearch transport for the pipeline.
//
// The repo issues exactly one request per call and reads the response in
// full before returning; there is no retry, pagination, or streaming.
// Failures wrap domain.ErrTransport and are surfaced to the caller, which
// decides how to report them.
package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/tablastic/tablastic/internal/domain"
	"github.com/tablastic/tablastic/internal/domain/field"
)

// Config holds engine connection settings. Addresses may be plain HTTP;
// that gap is the deployment's to close, not hidden here.
type Config struct {
	Addresses []string
	Username  string
	Password  string
}

// Repo talks to the engine over the official client.
type Repo struct {
	client *elasticsearch.Client
}

// New creates the transport repo.
func New(cfg Config) (*Repo, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Repo{client: client}, nil
}

// Ping checks engine connectivity via the Info API.
func (r *Repo) Ping(ctx context.Context) error {
	res, err := r.client.Info(r.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: info: %w", domain.ErrTransport, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: info: %s", domain.ErrTransport, res.Status())
	}
	return nil
}

// IndexNames reads the engine's alias listing and returns index names,
// sorted for a stable listing. System indices are not filtered here; the
// caller decides what to hide.
func (r *Repo) IndexNames(ctx context.Context) ([]string, error) {
	res, err := r.client.Indices.GetAlias(
		r.client.Indices.GetAlias.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: get aliases: %w", domain.ErrTransport, err)
	}
	body, err := readBody(res, "get aliases")
	if err != nil {
		return nil, err
	}

	var listing map[string]json.RawMessage
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("%w: decode alias listing: %w", domain.ErrTransport, err)
	}
	names := make([]string, 0, len(listing))
	for name := range listing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Mapping fetches the mapping for the given indices and returns the raw
// response for the flattener. Mappings are fetched fresh every call, never
// cached. The field.AllIndices sentinel (or an empty selection) fetches
// every index's mapping.
func (r *Repo) Mapping(ctx context.Context, indices []string) (json.RawMessage, error) {
	opts := []func(*esapi.IndicesGetMappingRequest){
		r.client.Indices.GetMapping.WithContext(ctx),
	}
	if sel := selector(indices); len(sel) > 0 {
		opts = append(opts, r.client.Indices.GetMapping.WithIndex(sel...))
	}
	res, err := r.client.Indices.GetMapping(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: get mapping: %w", domain.ErrTransport, err)
	}
	body, err := readBody(res, "get mapping")
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: get mapping: response is not JSON", domain.ErrTransport)
	}
	return body, nil
}

// Search posts a JSON search body against the selected indices and decodes
// the hit envelope. Hit order is the engine's relevance ranking and is
// preserved.
func (r *Repo) Search(ctx context.Context, indices []string, reqBody io.Reader) (*domain.SearchResult, error) {
	opts := []func(*esapi.SearchRequest){
		r.client.Search.WithContext(ctx),
		r.client.Search.WithBody(reqBody),
	}
	if sel := selector(indices); len(sel) > 0 {
		opts = append(opts, r.client.Search.WithIndex(sel...))
	}
	res, err := r.client.Search(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrTransport, err)
	}
	body, err := readBody(res, "search")
	if err != nil {
		return nil, err
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %w", domain.ErrTransport, err)
	}

	result := &domain.SearchResult{
		Total: envelope.Hits.Total.Value,
		Hits:  make([]domain.Hit, len(envelope.Hits.Hits)),
	}
	for i, h := range envelope.Hits.Hits {
		result.Hits[i] = domain.Hit{
			Index:  h.Index,
			ID:     h.ID,
			Score:  h.Score,
			Source: h.Source,
		}
	}
	return result, nil
}

// selector strips the "search everything" sentinels so the request carries
// no index qualifier at all.
func selector(indices []string) []string {
	if len(indices) == 0 {
		return nil
	}
	if len(indices) == 1 && indices[0] == field.AllIndices {
		return nil
	}
	return indices
}

// readBody drains a response, mapping engine errors to domain.ErrTransport.
func readBody(res *esapi.Response, op string) ([]byte, error) {
	if res.Body == nil {
		return nil, fmt.Errorf("%w: %s: empty response body", domain.ErrTransport, op)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %w", domain.ErrTransport, op, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrTransport, op, res.Status())
	}
	return body, nil
}
