package fields

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type mappingReaderMock struct {
	names    []string
	namesErr error
	mapping  json.RawMessage
	mapErr   error

	gotIndices []string
}

func (m *mappingReaderMock) IndexNames(context.Context) ([]string, error) {
	return m.names, m.namesErr
}

func (m *mappingReaderMock) Mapping(_ context.Context, indices []string) (json.RawMessage, error) {
	m.gotIndices = indices
	return m.mapping, m.mapErr
}

func TestIndices_HidesInternal(t *testing.T) {
	repo := &mappingReaderMock{names: []string{".kibana", "logs", ".security-7", "orders"}}
	got, err := New(repo).Indices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "logs" || got[1] != "orders" {
		t.Fatalf("Indices = %v", got)
	}
}

func TestIndices_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(&mappingReaderMock{namesErr: boom}).Indices(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestFieldPaths(t *testing.T) {
	repo := &mappingReaderMock{mapping: json.RawMessage(`{
		"logs": {"mappings": {"properties": {
			"user": {"properties": {"name": {"type": "keyword"}}},
			"ts": {"type": "date"}
		}}}
	}`)}
	got, err := New(repo).FieldPaths(context.Background(), []string{"logs"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "user.name" || got[1] != "ts" {
		t.Fatalf("FieldPaths = %v", got)
	}
	if len(repo.gotIndices) != 1 || repo.gotIndices[0] != "logs" {
		t.Fatalf("repo received indices %v", repo.gotIndices)
	}
}

func TestFieldPaths_BadMapping(t *testing.T) {
	repo := &mappingReaderMock{mapping: json.RawMessage(`{"logs": {"no_mappings": {}}}`)}
	if _, err := New(repo).FieldPaths(context.Background(), []string{"logs"}); err == nil {
		t.Fatal("expected schema error")
	}
}
