package tablastic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tablastic/tablastic/internal/repository/elastic"
	exportuc "github.com/tablastic/tablastic/internal/usecase/export"
	fieldsuc "github.com/tablastic/tablastic/internal/usecase/fields"
	searchuc "github.com/tablastic/tablastic/internal/usecase/search"
)

const defaultTimeout = 30 * time.Second

// AllIndices is the selector sentinel for "search every index".
const AllIndices = "_all"

// Wildcard is the field selector sentinel for "all fields".
const Wildcard = "*"

// Client is the tablastic SDK entry point.
type Client struct {
	repo    *elastic.Repo
	fields  *fieldsuc.Service
	search  *searchuc.Service
	export  *exportuc.Service
	timeout time.Duration
}

// New creates a client and its engine transport. The connection is lazy; use
// Ping to verify reachability.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addresses) == 0 {
		return nil, errors.New("tablastic: engine address required (use WithAddresses)")
	}

	repo, err := elastic.New(elastic.Config{
		Addresses: cfg.addresses,
		Username:  cfg.username,
		Password:  cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("tablastic: %w", err)
	}

	c := &Client{
		repo:    repo,
		fields:  fieldsuc.New(repo),
		search:  searchuc.New(repo),
		export:  exportuc.New(),
		timeout: cfg.timeout,
	}
	if cfg.maxDepth > 0 {
		c.fields = c.fields.WithMaxDepth(cfg.maxDepth)
		c.search = c.search.WithMaxDepth(cfg.maxDepth)
	}
	return c, nil
}

// opCtx applies the per-request timeout.
func (c *Client) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Ping checks engine connectivity.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	return c.repo.Ping(ctx)
}

// Indices lists the engine's user-visible indices. Names starting with "."
// (engine-internal indices) are filtered out.
func (c *Client) Indices(ctx context.Context) ([]string, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	names, err := c.fields.Indices(ctx)
	if err != nil {
		return nil, fmt.Errorf("indices: %w", err)
	}
	return names, nil
}

// FieldNames flattens the mapping of the selected indices into a flat,
// de-duplicated field path list, first-seen order. No selection (or the
// AllIndices sentinel) covers every index. The mapping is fetched fresh on
// every call.
func (c *Client) FieldNames(ctx context.Context, indices ...string) ([]string, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	paths, err := c.fields.FieldPaths(ctx, indices)
	if err != nil {
		return nil, fmt.Errorf("field names: %w", err)
	}
	return paths, nil
}

// Search runs one multi_match query over the selected indices with the
// given field projection and returns the projected table. The caller owns
// the table; a new search builds a new table rather than merging.
func (c *Client) Search(ctx context.Context, indices []string, term string, fields []string) (*Table, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	t, err := c.search.Search(ctx, indices, term, fields)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return &Table{inner: t}, nil
}

// ExportExcel writes the table to path as an .xlsx workbook.
func (c *Client) ExportExcel(t *Table, path string) error {
	if err := c.export.Excel(t.inner, path); err != nil {
		return fmt.Errorf("export excel: %w", err)
	}
	return nil
}

// ExportCSV writes the table to w as CSV with a header row.
func (c *Client) ExportCSV(t *Table, w io.Writer) error {
	if err := c.export.CSV(t.inner, w); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	return nil
}
