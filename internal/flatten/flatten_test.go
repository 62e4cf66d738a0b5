package flatten

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tablastic/tablastic/internal/domain/table"
)

func sourceCells(t *testing.T, f Flattener, doc string) []table.Cell {
	t.Helper()
	cells, err := f.Source(json.RawMessage(doc))
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	return cells
}

func assertCells(t *testing.T, got []table.Cell, want []table.Cell) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d cells %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i].Column != want[i].Column {
			t.Errorf("cell %d: column %q, want %q", i, got[i].Column, want[i].Column)
		}
		if got[i].Value != want[i].Value {
			t.Errorf("cell %d (%s): value %#v, want %#v", i, got[i].Column, got[i].Value, want[i].Value)
		}
	}
}

func TestSource_FlatDocumentKeysUnchanged(t *testing.T) {
	cells := sourceCells(t, Flattener{}, `{"name":"A","age":30,"ok":true}`)
	assertCells(t, cells, []table.Cell{
		{Column: "name", Value: "A"},
		{Column: "age", Value: float64(30)},
		{Column: "ok", Value: true},
	})
}

func TestSource_OneLevelNesting(t *testing.T) {
	cells := sourceCells(t, Flattener{}, `{"a":{"b":1}}`)
	assertCells(t, cells, []table.Cell{{Column: "a.b", Value: float64(1)}})
}

func TestSource_DeepNesting(t *testing.T) {
	// Four levels: beyond the legacy two-level unroll.
	cells := sourceCells(t, Flattener{}, `{"a":{"b":{"c":{"d":"deep"}}},"top":"t"}`)
	assertCells(t, cells, []table.Cell{
		{Column: "a.b.c.d", Value: "deep"},
		{Column: "top", Value: "t"},
	})
}

func TestSource_OrderFollowsDocument(t *testing.T) {
	cells := sourceCells(t, Flattener{}, `{"z":1,"a":{"y":2,"b":3},"m":4}`)
	want := []string{"z", "a.y", "a.b", "m"}
	if len(cells) != len(want) {
		t.Fatalf("got %d cells, want %d", len(cells), len(want))
	}
	for i, w := range want {
		if cells[i].Column != w {
			t.Errorf("cell %d: %q, want %q", i, cells[i].Column, w)
		}
	}
}

func TestSource_MetadataSigilPreserved(t *testing.T) {
	cells := sourceCells(t, Flattener{}, `{"@timestamp":"2020"}`)
	assertCells(t, cells, []table.Cell{{Column: "@timestamp", Value: "2020"}})
}

func TestSource_ScalarArrayJoinsIntoOneCell(t *testing.T) {
	cells := sourceCells(t, Flattener{}, `{"tags":["a","b","c"],"nums":[1,2]}`)
	assertCells(t, cells, []table.Cell{
		{Column: "tags", Value: "a, b, c"},
		{Column: "nums", Value: "1, 2"},
	})
}

func TestSource_EmptyArrayEmitsNothing(t *testing.T) {
	cells := sourceCells(t, Flattener{}, `{"tags":[],"x":1}`)
	assertCells(t, cells, []table.Cell{{Column: "x", Value: float64(1)}})
}

func TestSource_ObjectArrayIndexQualified(t *testing.T) {
	cells := sourceCells(t, Flattener{}, `{"users":[{"name":"A"},{"name":"B"}]}`)
	assertCells(t, cells, []table.Cell{
		{Column: "users.0.name", Value: "A"},
		{Column: "users.1.name", Value: "B"},
	})
}

func TestSource_MixedArrayIndexQualifiesScalarsToo(t *testing.T) {
	cells := sourceCells(t, Flattener{}, `{"v":[{"a":1},"plain"]}`)
	assertCells(t, cells, []table.Cell{
		{Column: "v.0.a", Value: float64(1)},
		{Column: "v.1", Value: "plain"},
	})
}

func TestSource_NestedArrays(t *testing.T) {
	cells := sourceCells(t, Flattener{}, `{"grid":[[1,2],[3]]}`)
	assertCells(t, cells, []table.Cell{
		{Column: "grid.0", Value: "1, 2"},
		{Column: "grid.1", Value: "3"},
	})
}

func TestSource_NullIsACell(t *testing.T) {
	cells := sourceCells(t, Flattener{}, `{"gone":null}`)
	assertCells(t, cells, []table.Cell{{Column: "gone", Value: nil}})
}

func TestSource_DepthGuardOpaqueCell(t *testing.T) {
	f := Flattener{MaxDepth: 2}
	cells := sourceCells(t, f, `{"a":{"b":{"c":1,"d":[true,null]}}}`)
	assertCells(t, cells, []table.Cell{
		{Column: "a.b", Value: `{"c":1,"d":[true,null]}`},
	})
}

func TestSource_DepthGuardBoundsArrays(t *testing.T) {
	// Degenerate array nesting stops at the guard instead of recursing on.
	f := Flattener{MaxDepth: 2}
	doc := `{"a":` + strings.Repeat("[", 40) + "1" + strings.Repeat("]", 40) + `}`
	cells := sourceCells(t, f, doc)
	opaque := strings.Repeat("[", 39) + "1" + strings.Repeat("]", 39)
	assertCells(t, cells, []table.Cell{{Column: "a.0", Value: opaque}})
}

func TestSource_DepthGuardOpaqueArrayCell(t *testing.T) {
	f := Flattener{MaxDepth: 1}
	cells := sourceCells(t, f, `{"a":[1,"x"]}`)
	assertCells(t, cells, []table.Cell{{Column: "a", Value: `[1,"x"]`}})
}

func TestSource_ScalarArrayAtGuardStillJoins(t *testing.T) {
	// One array level fits within MaxDepth 2; only deeper nesting goes opaque.
	f := Flattener{MaxDepth: 2}
	cells := sourceCells(t, f, `{"tags":["x","y"],"objs":[{"b":1}]}`)
	assertCells(t, cells, []table.Cell{
		{Column: "tags", Value: "x, y"},
		{Column: "objs.0", Value: `{"b":1}`},
	})
}

func TestSource_DefaultDepthIsGenerous(t *testing.T) {
	doc := `{"a":{"b":{"c":{"d":{"e":{"f":{"g":{"h":1}}}}}}}}`
	cells := sourceCells(t, Flattener{}, doc)
	assertCells(t, cells, []table.Cell{{Column: "a.b.c.d.e.f.g.h", Value: float64(1)}})
}

func TestSource_NotAnObject(t *testing.T) {
	if _, err := (Flattener{}).Source(json.RawMessage(`[1,2]`)); err == nil {
		t.Fatal("expected error for non-object source")
	}
	if _, err := (Flattener{}).Source(json.RawMessage(`{"a":`)); err == nil {
		t.Fatal("expected error for truncated source")
	}
}

func TestCapture_RoundTripsSubtree(t *testing.T) {
	// Opaque cells must stay valid JSON with the original content.
	f := Flattener{MaxDepth: 1}
	cells := sourceCells(t, f, `{"blob":{"s":"x","n":1.5,"arr":[1,"two",{"k":false}],"o":{"nested":null}}}`)
	if len(cells) != 1 {
		t.Fatalf("got %d cells, want 1", len(cells))
	}
	text, ok := cells[0].Value.(string)
	if !ok {
		t.Fatalf("opaque cell is %T, want string", cells[0].Value)
	}
	var a, b any
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		t.Fatalf("opaque cell is not valid JSON: %v\n%s", err, text)
	}
	if err := json.Unmarshal([]byte(`{"s":"x","n":1.5,"arr":[1,"two",{"k":false}],"o":{"nested":null}}`), &b); err != nil {
		t.Fatal(err)
	}
	if !jsonEqual(a, b) {
		t.Errorf("captured %s does not match original subtree", text)
	}
}

func jsonEqual(a, b any) bool {
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ab) == string(bb)
}
