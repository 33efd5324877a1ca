package datasethoster

import (
	"reflect"
	"testing"
)

type rowXY struct {
	X int    `json:"x"`
	Y string `json:"y"`
}

type rowZ struct {
	Z string `json:"z"`
}

func TestGroupResults_Empty(t *testing.T) {
	blocks, err := GroupResults(nil)
	if err != nil {
		t.Fatalf("GroupResults failed: %v", err)
	}
	if len(blocks) != 0 {
		t.Fatalf("empty input must yield no blocks, got %d", len(blocks))
	}
}

func TestGroupResults_SingleShape(t *testing.T) {
	results := []any{
		rowXY{X: 1, Y: "one"},
		rowXY{X: 2, Y: "two"},
		rowXY{X: 3, Y: "three"},
	}
	blocks, err := GroupResults(results)
	if err != nil {
		t.Fatalf("GroupResults failed: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(blocks))
	}
	b := blocks[0]
	if !reflect.DeepEqual(b.Columns, []string{"x", "y"}) {
		t.Fatalf("unexpected columns: %v", b.Columns)
	}
	if len(b.Data) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(b.Data))
	}
	if b.NoTable {
		t.Fatalf("tabular block flagged freeform")
	}
}

func TestGroupResults_BoundariesAndOrder(t *testing.T) {
	results := []any{
		OutputLine{Line: "first annotation"},
		rowXY{X: 1, Y: "one"},
		rowXY{X: 2, Y: "two"},
		OutputLine{Line: "second annotation"},
		rowZ{Z: "zed"},
	}
	blocks, err := GroupResults(results)
	if err != nil {
		t.Fatalf("GroupResults failed: %v", err)
	}
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(blocks))
	}

	wantFreeform := []bool{true, false, true, false}
	wantSizes := []int{1, 2, 1, 1}
	for i, b := range blocks {
		if b.NoTable != wantFreeform[i] {
			t.Errorf("block %d: no_table = %v, want %v", i, b.NoTable, wantFreeform[i])
		}
		if len(b.Data) != wantSizes[i] {
			t.Errorf("block %d: %d rows, want %d", i, len(b.Data), wantSizes[i])
		}
	}

	// Concatenating the blocks must reproduce the input sequence exactly.
	var flat []map[string]any
	for _, b := range blocks {
		flat = append(flat, b.Data...)
	}
	if len(flat) != len(results) {
		t.Fatalf("record count changed: %d != %d", len(flat), len(results))
	}
	if flat[1]["x"] != float64(1) || flat[2]["x"] != float64(2) {
		t.Fatalf("row order not preserved: %v", flat)
	}
	if flat[0]["line"] != "first annotation" || flat[3]["line"] != "second annotation" {
		t.Fatalf("annotation order not preserved: %v", flat)
	}
}

func TestGroupResults_PointerRecords(t *testing.T) {
	blocks, err := GroupResults([]any{&OutputLine{Line: "hi"}})
	if err != nil {
		t.Fatalf("GroupResults failed: %v", err)
	}
	if len(blocks) != 1 || !blocks[0].NoTable {
		t.Fatalf("pointer freeform record not recognized: %+v", blocks)
	}
}
