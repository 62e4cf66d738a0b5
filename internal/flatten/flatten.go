// Package flatten turns nested JSON documents into flat dotted-path views.
//
// Two inputs are flattened: an index mapping (schema discovery) and a search
// hit's _source (result projection). Both walks read the raw JSON token
// stream instead of decoding into maps, because first-seen key order is an
// invariant of the pipeline and Go maps do not preserve it.
package flatten

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tablastic/tablastic/internal/domain/field"
	"github.com/tablastic/tablastic/internal/domain/table"
)

// DefaultMaxDepth bounds recursion on deeply nested documents. Engine
// mappings allow around 20 levels by default, so 32 is generous while still
// guarding against degenerate input.
const DefaultMaxDepth = 32

// Flattener flattens nested documents down to MaxDepth levels. The zero
// value uses DefaultMaxDepth.
type Flattener struct {
	MaxDepth int
}

func (f Flattener) maxDepth() int {
	if f.MaxDepth > 0 {
		return f.MaxDepth
	}
	return DefaultMaxDepth
}

// Source flattens one hit's _source subtree into ordered cells.
//
// Nested objects recurse with dot-joined paths. Arrays of scalars collapse
// into a single comma-joined cell; arrays containing objects flatten each
// element under an index-qualified segment ("field.0.sub") so entries do not
// collapse into one key. Objects and arrays both count against MaxDepth;
// a structure nested past the guard becomes one opaque cell holding its
// compact JSON text. A path produced twice is last-write-wins when the
// cells land in a table row.
func (f Flattener) Source(raw json.RawMessage) ([]table.Cell, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("source document: %w", err)
	}
	var cells []table.Cell
	if err := f.walkObject(dec, "", 1, &cells); err != nil {
		return nil, fmt.Errorf("source document: %w", err)
	}
	return cells, nil
}

// walkObject consumes an object's members up to and including the closing
// brace. The opening brace has already been read.
func (f Flattener) walkObject(dec *json.Decoder, prefix string, depth int, out *[]table.Cell) error {
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("object key is %T, not string", keyTok)
		}
		if err := f.walkValue(dec, field.Join(prefix, key), depth, out); err != nil {
			return err
		}
	}
	_, err := dec.Token() // closing brace
	return err
}

func (f Flattener) walkValue(dec *json.Decoder, path string, depth int, out *[]table.Cell) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, isDelim := tok.(json.Delim)
	if !isDelim {
		*out = append(*out, table.Cell{Column: path, Value: scalar(tok)})
		return nil
	}
	switch delim {
	case '{':
		if depth >= f.maxDepth() {
			text, err := capture(dec, delim)
			if err != nil {
				return err
			}
			*out = append(*out, table.Cell{Column: path, Value: text})
			return nil
		}
		return f.walkObject(dec, path, depth+1, out)
	case '[':
		if depth >= f.maxDepth() {
			text, err := capture(dec, delim)
			if err != nil {
				return err
			}
			*out = append(*out, table.Cell{Column: path, Value: text})
			return nil
		}
		return f.walkArray(dec, path, depth+1, out)
	default:
		return fmt.Errorf("unexpected %q at %s", delim, path)
	}
}

// walkArray handles the array policy: all-scalar arrays join into one cell,
// arrays with any structured element emit every element (scalars included)
// under index-qualified paths.
func (f Flattener) walkArray(dec *json.Decoder, path string, depth int, out *[]table.Cell) error {
	type pending struct {
		idx   int
		value any
	}
	var scalars []pending
	var structured bool
	idx := 0

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); ok {
			structured = true
			elemPath := field.Indexed(path, idx)
			switch delim {
			case '{':
				if depth >= f.maxDepth() {
					text, err := capture(dec, delim)
					if err != nil {
						return err
					}
					*out = append(*out, table.Cell{Column: elemPath, Value: text})
				} else if err := f.walkObject(dec, elemPath, depth+1, out); err != nil {
					return err
				}
			case '[':
				if depth >= f.maxDepth() {
					text, err := capture(dec, delim)
					if err != nil {
						return err
					}
					*out = append(*out, table.Cell{Column: elemPath, Value: text})
				} else if err := f.walkArray(dec, elemPath, depth+1, out); err != nil {
					return err
				}
			}
		} else {
			scalars = append(scalars, pending{idx: idx, value: scalar(tok)})
		}
		idx++
	}
	if _, err := dec.Token(); err != nil { // closing bracket
		return err
	}

	if structured {
		for _, p := range scalars {
			*out = append(*out, table.Cell{Column: field.Indexed(path, p.idx), Value: p.value})
		}
		return nil
	}
	if len(scalars) == 0 {
		return nil // empty array: column stays absent for this row
	}
	parts := make([]string, len(scalars))
	for i, p := range scalars {
		parts[i] = table.Render(p.value)
	}
	*out = append(*out, table.Cell{Column: path, Value: strings.Join(parts, ", ")})
	return nil
}

// scalar converts a decoder token to a cell value. Numbers become float64
// when they fit, otherwise their literal text survives as a string.
func scalar(tok json.Token) any {
	if num, ok := tok.(json.Number); ok {
		if fv, err := num.Float64(); err == nil {
			return fv
		}
		return num.String()
	}
	return tok
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// capture re-serializes a subtree whose opening delimiter has already been
// consumed, returning compact JSON text. Used for opaque cells at the depth
// guard.
func capture(dec *json.Decoder, open json.Delim) (string, error) {
	var b strings.Builder
	b.WriteRune(rune(open))

	stack := []captureFrame{{object: open == '{', keyNext: open == '{', first: true}}

	for len(stack) > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		top := &stack[len(stack)-1]

		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '}', ']':
				b.WriteRune(rune(delim))
				stack = stack[:len(stack)-1]
				if len(stack) > 0 {
					parent := &stack[len(stack)-1]
					parent.first = false
					if parent.object {
						parent.keyNext = true
					}
				}
				continue
			case '{', '[':
				if !top.object && !top.first {
					b.WriteByte(',')
				}
				b.WriteRune(rune(delim))
				stack = append(stack, captureFrame{object: delim == '{', keyNext: delim == '{', first: true})
				continue
			}
		}

		if top.object && top.keyNext {
			if !top.first {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(tok.(string)))
			b.WriteByte(':')
			top.keyNext = false
			top.first = false
			continue
		}
		if !top.object && !top.first {
			b.WriteByte(',')
		}
		writeScalar(&b, tok)
		top.first = false
		if top.object {
			top.keyNext = true
		}
	}
	return b.String(), nil
}

// captureFrame tracks comma/colon placement for one open container during
// subtree re-serialization.
type captureFrame struct {
	object  bool
	keyNext bool
	first   bool
}

func writeScalar(b *strings.Builder, tok json.Token) {
	switch v := tok.(type) {
	case string:
		b.WriteString(strconv.Quote(v))
	case json.Number:
		b.WriteString(v.String())
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case nil:
		b.WriteString("null")
	default:
		fmt.Fprint(b, v)
	}
}

// skipValue consumes one value of any shape, discarding it.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
