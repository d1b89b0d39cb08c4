// Package arrowsummary writes summary.arrow, a columnar Apache Arrow
// IPC mirror of summary.txt, so analytics tooling (pandas, R, DuckDB)
// can load consequence-type counts without parsing text. Writing it is
// always best-effort: summary.txt remains the source of truth and a
// failure here is never fatal to a run.
package arrowsummary

import (
	"fmt"
	"os"
	"sort"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"github.com/annokit/annokit/internal/demux"
)

var schema = arrow.NewSchema(
	[]arrow.Field{
		{Name: "consequence_type", Type: arrow.BinaryTypes.String},
		{Name: "count", Type: arrow.PrimitiveTypes.Int64},
	},
	nil,
)

// Write builds a single Arrow RecordBatch from rows (sorted by
// consequence type for the same determinism summary.txt has) and
// writes it to path as an Arrow IPC file.
func Write(path string, rows []demux.SummaryRow) error {
	sorted := make([]demux.SummaryRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ConsequenceType < sorted[j].ConsequenceType })

	pool := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	typeBuilder := builder.Field(0).(*array.StringBuilder)
	countBuilder := builder.Field(1).(*array.Int64Builder)
	for _, r := range sorted {
		typeBuilder.Append(r.ConsequenceType)
		countBuilder.Append(r.Count)
	}

	record := builder.NewRecord()
	defer record.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("arrowsummary: create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	writer, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err != nil {
		return fmt.Errorf("arrowsummary: new writer: %w", err)
	}
	defer func() { _ = writer.Close() }()

	if err := writer.Write(record); err != nil {
		return fmt.Errorf("arrowsummary: write record: %w", err)
	}
	return nil
}
