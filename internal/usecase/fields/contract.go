package fields

import (
	"context"
	"encoding/json"
)

// MappingReader defines the transport contract for schema discovery.
type MappingReader interface {
	IndexNames(ctx context.Context) ([]string, error)
	Mapping(ctx context.Context, indices []string) (json.RawMessage, error)
}
