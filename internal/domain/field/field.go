// Package field defines field path handling for nested documents.
//
// A field path is the dot-joined address of a leaf field inside a nested
// document, e.g. "user.address.city". The dotted string is canonical: it is
// what the engine, the table columns, and the UI all use. Only when a path
// has to become an identifier (a console binding, a template variable) is it
// rewritten, and that rewrite is reversible.
package field

import (
	"fmt"
	"strconv"
	"strings"
)

// Wildcard selects all fields and lets the engine apply its default
// _source inclusion.
const Wildcard = "*"

// AllIndices is the engine sentinel for "search every index".
const AllIndices = "_all"

// Join concatenates a parent path with a child segment.
// An empty parent yields the segment unchanged, so metadata-sigil names
// like "@timestamp" pass through verbatim.
func Join(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

// Indexed appends an array index segment, producing paths like "tags.0.name".
func Indexed(parent string, i int) string {
	return Join(parent, strconv.Itoa(i))
}

// IsWildcard reports whether the field selection means "all fields".
// An empty selection and the "*" sentinel are equivalent.
func IsWildcard(fields []string) bool {
	if len(fields) == 0 {
		return true
	}
	return len(fields) == 1 && fields[0] == Wildcard
}

// identRunes are the characters allowed in a derived identifier.
// Everything else gets hex-escaped.
func identRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}

const escapeRune = 'x'

// Identifier rewrites a field path into a string safe to use as a variable
// or binding name. It exists for shells that bind result cells to named
// variables (an interactive console session, a template context); the
// pipeline itself only ever handles the canonical dotted path.
// The substitution is reversible: every rune outside
// [A-Za-z0-9] is replaced by "_x<hex>_", and literal underscores are doubled
// so the escape marker cannot collide with path content. The canonical
// dotted path itself is never rewritten; lookups and display always use it.
func Identifier(path string) string {
	var b strings.Builder
	for _, r := range path {
		switch {
		case r == '_':
			b.WriteString("__")
		case identRune(r):
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_%c%x_", escapeRune, r)
		}
	}
	return b.String()
}

// FromIdentifier reverses Identifier, recovering the canonical field path.
func FromIdentifier(ident string) (string, error) {
	var b strings.Builder
	runes := []rune(ident)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '_' {
			b.WriteRune(r)
			continue
		}
		if i+1 < len(runes) && runes[i+1] == '_' {
			b.WriteRune('_')
			i++
			continue
		}
		if i+1 >= len(runes) || runes[i+1] != escapeRune {
			return "", fmt.Errorf("dangling escape at offset %d in %q", i, ident)
		}
		end := i + 2
		for end < len(runes) && runes[end] != '_' {
			end++
		}
		if end == len(runes) {
			return "", fmt.Errorf("unterminated escape at offset %d in %q", i, ident)
		}
		code, err := strconv.ParseInt(string(runes[i+2:end]), 16, 32)
		if err != nil {
			return "", fmt.Errorf("bad escape in %q: %w", ident, err)
		}
		b.WriteRune(rune(code))
		i = end
	}
	return b.String(), nil
}
