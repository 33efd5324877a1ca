package datasethoster

import (
	"github.com/metabrainz/datasethoster-go/record"
)

// Freeform marks output record shapes that carry narrative text rather than
// tabular rows. Blocks of freeform records are rendered as running lines
// instead of a table.
type Freeform interface {
	FreeformOutput()
}

// OutputLine is the stock freeform output shape: one line of commentary,
// possibly containing markup, interleaved with a query's tabular output.
type OutputLine struct {
	Line string `json:"line"`
}

// FreeformOutput marks OutputLine as a freeform shape.
func (OutputLine) FreeformOutput() {}

// OutputBlock is a maximal run of consecutive output records sharing one
// shape. Columns is the ordered field-name list taken from the first record
// of the run; Data preserves record order exactly.
type OutputBlock struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
	NoTable bool             `json:"no_table"`
}

// GroupResults partitions an ordered output-record sequence into contiguous
// blocks of uniform shape. A new block starts exactly where the ordered
// field-name list of a record differs from its predecessor's. Records are
// never reordered, dropped or deduplicated; concatenating the blocks' Data
// reproduces the input sequence. An empty input yields no blocks.
func GroupResults(results []any) ([]OutputBlock, error) {
	if len(results) == 0 {
		return nil, nil
	}

	var blocks []OutputBlock
	var current *OutputBlock

	for _, res := range results {
		schema, err := record.Of(res)
		if err != nil {
			return nil, err
		}
		row, err := schema.Map(res)
		if err != nil {
			return nil, err
		}

		if current == nil || !sameColumns(current.Columns, schema.Columns()) {
			blocks = append(blocks, OutputBlock{})
			current = &blocks[len(blocks)-1]
			current.Columns = schema.Columns()
			_, current.NoTable = res.(Freeform)
		}
		current.Data = append(current.Data, row)
	}

	return blocks, nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
