package flatten

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tablastic/tablastic/internal/domain"
	"github.com/tablastic/tablastic/internal/domain/field"
)

// Schema flattens a mapping response into a flat field path list.
//
// The input is the engine's _mapping response: an object keyed by index
// name, each index carrying {"mappings": {"properties": {...}}}. A property
// without a nested "properties" group is a leaf and emits its dot-joined
// path; a property with one recurses. Recursion is unbounded up to MaxDepth;
// a group at the guard is emitted as a leaf and its subtree skipped.
//
// Duplicate paths across indices are removed, keeping first-seen order.
// Field names carrying metadata sigils ("@timestamp") are emitted verbatim.
// Missing "mappings" or "properties" keys fail with domain.ErrSchemaFormat.
func (f Flattener) Schema(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSchemaFormat, err)
	}

	var paths []string
	seen := make(map[string]struct{})
	emit := func(p string) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	for dec.More() {
		indexTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSchemaFormat, err)
		}
		indexName, ok := indexTok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: index key is %T", domain.ErrSchemaFormat, indexTok)
		}
		if err := f.walkIndex(dec, emit); err != nil {
			return nil, fmt.Errorf("%w: index %q: %w", domain.ErrSchemaFormat, indexName, err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSchemaFormat, err)
	}
	return paths, nil
}

// walkIndex consumes one index definition, descending mappings.properties.
func (f Flattener) walkIndex(dec *json.Decoder, emit func(string)) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	sawMappings := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		if keyTok != "mappings" {
			if err := skipValue(dec); err != nil {
				return err
			}
			continue
		}
		sawMappings = true
		if err := f.walkMappings(dec, emit); err != nil {
			return err
		}
	}
	if !sawMappings {
		return fmt.Errorf("missing %q key", "mappings")
	}
	_, err := dec.Token()
	return err
}

func (f Flattener) walkMappings(dec *json.Decoder, emit func(string)) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	sawProperties := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		if keyTok != "properties" {
			if err := skipValue(dec); err != nil {
				return err
			}
			continue
		}
		sawProperties = true
		if err := expectDelim(dec, '{'); err != nil {
			return err
		}
		if err := f.walkProperties(dec, "", 1, emit); err != nil {
			return err
		}
	}
	if !sawProperties {
		return fmt.Errorf("missing %q key", "properties")
	}
	_, err := dec.Token()
	return err
}

// walkProperties consumes the members of an open "properties" object,
// emitting leaf paths in document order. The closing brace is consumed.
func (f Flattener) walkProperties(dec *json.Decoder, prefix string, depth int, emit func(string)) error {
	for dec.More() {
		nameTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := nameTok.(string)
		if !ok {
			return fmt.Errorf("property key is %T, not string", nameTok)
		}
		path := field.Join(prefix, name)

		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("property %q: %w", path, err)
		}
		nested := false
		for dec.More() {
			attrTok, err := dec.Token()
			if err != nil {
				return err
			}
			if attrTok != "properties" || depth >= f.maxDepth() {
				if err := skipValue(dec); err != nil {
					return err
				}
				continue
			}
			nested = true
			if err := expectDelim(dec, '{'); err != nil {
				return fmt.Errorf("property %q: %w", path, err)
			}
			if err := f.walkProperties(dec, path, depth+1, emit); err != nil {
				return err
			}
		}
		if _, err := dec.Token(); err != nil { // descriptor closing brace
			return err
		}
		if !nested {
			emit(path)
		}
	}
	_, err := dec.Token()
	return err
}
