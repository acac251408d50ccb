// Package export writes duplicate candidates in columnar formats for
// analysis tools.
package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/nvandessel/fuzler/internal/dedup"
)

// CandidateSchema is the Arrow schema of exported candidates.
var CandidateSchema = arrow.NewSchema([]arrow.Field{
	{Name: "a_id", Type: arrow.BinaryTypes.String},
	{Name: "a_text", Type: arrow.BinaryTypes.String},
	{Name: "b_id", Type: arrow.BinaryTypes.String},
	{Name: "b_text", Type: arrow.BinaryTypes.String},
	{Name: "score", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// WriteCandidatesArrow writes candidates to w as an Arrow IPC file holding a
// single record batch. The file footer needs a seekable destination.
func WriteCandidatesArrow(w io.WriteSeeker, candidates []dedup.Candidate) error {
	mem := memory.NewGoAllocator()

	b := array.NewRecordBuilder(mem, CandidateSchema)
	defer b.Release()

	aID := b.Field(0).(*array.StringBuilder)
	aText := b.Field(1).(*array.StringBuilder)
	bID := b.Field(2).(*array.StringBuilder)
	bText := b.Field(3).(*array.StringBuilder)
	score := b.Field(4).(*array.Float64Builder)

	for _, c := range candidates {
		aID.Append(c.A.ID)
		aText.Append(c.A.Text)
		bID.Append(c.B.ID)
		bText.Append(c.B.Text)
		score.Append(c.Score)
	}

	rec := b.NewRecord()
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(CandidateSchema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("failed to create arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write arrow record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to finish arrow file: %w", err)
	}
	return nil
}

// ReadCandidatesArrow reads every record batch of an Arrow IPC file written
// by WriteCandidatesArrow.
func ReadCandidatesArrow(r ipc.ReadAtSeeker) ([]dedup.Candidate, error) {
	fr, err := ipc.NewFileReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("failed to open arrow file: %w", err)
	}
	defer fr.Close()

	if !fr.Schema().Equal(CandidateSchema) {
		return nil, fmt.Errorf("unexpected arrow schema: %s", fr.Schema())
	}

	candidates := make([]dedup.Candidate, 0)
	for i := range fr.NumRecords() {
		rec, err := fr.Record(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read record batch %d: %w", i, err)
		}

		aID := rec.Column(0).(*array.String)
		aText := rec.Column(1).(*array.String)
		bID := rec.Column(2).(*array.String)
		bText := rec.Column(3).(*array.String)
		score := rec.Column(4).(*array.Float64)

		for row := range int(rec.NumRows()) {
			candidates = append(candidates, dedup.Candidate{
				A:     dedup.Record{ID: aID.Value(row), Text: aText.Value(row)},
				B:     dedup.Record{ID: bID.Value(row), Text: bText.Value(row)},
				Score: score.Value(row),
			})
		}
	}
	return candidates, nil
}
