// Package batch implements the Batch Producer: given a Segment Reader, an
// optional projection, and a batch size, it produces a lazy, finite
// sequence of fixed-width columnar batches.
package batch

import (
	"github.com/arloliu/segreader/pkg/segment"
	"github.com/arloliu/segreader/schema"
)

// Batch is a fixed-size slice of rows across the projected columns. Columns
// preserves projection order; ByName serves name-based lookup for engines
// that prefer it.
type Batch struct {
	RowCount int
	Columns  []schema.TypedArray
}

// ByName returns the column named name within this batch, if present.
func (b Batch) ByName(name string) (schema.TypedArray, bool) {
	for _, c := range b.Columns {
		if c.Name() == name {
			return c, true
		}
	}

	return schema.TypedArray{}, false
}

// Stream is a finite, pull-based sequence of batches produced by Scan.
// Batches are independent once produced and may be consumed in any order.
type Stream struct {
	reader     *segment.SegmentReader
	projection []string
	batchSize  int
	totalDocs  int

	materialized []schema.TypedArray // empty if projection is empty
	nextRow      int
	done         bool
}

// Scan materializes each projected column once (cached on the reader), in
// projection order, and returns a Stream that slices
// those materializations into batches of up to batchSize rows.
//
// An empty projection still produces batches covering every row with zero
// columns, so callers doing COUNT(*) never read column data.
func Scan(reader *segment.SegmentReader, projection []string, batchSize int) (*Stream, error) {
	if batchSize <= 0 {
		batchSize = reader.BatchSize()
	}

	materialized := make([]schema.TypedArray, 0, len(projection))
	for _, name := range projection {
		arr, err := reader.ReadColumn(name)
		if err != nil {
			return nil, err
		}
		materialized = append(materialized, arr)
	}

	return &Stream{
		reader:       reader,
		projection:   projection,
		batchSize:    batchSize,
		totalDocs:    reader.RowCount(),
		materialized: materialized,
	}, nil
}

// Next returns the next batch, or ok=false once every row has been
// emitted.
func (s *Stream) Next() (Batch, bool) {
	if s.done || s.nextRow >= s.totalDocs {
		// A segment with zero rows still emits zero batches (ceil(0/B) == 0).
		s.done = true

		return Batch{}, false
	}

	start := s.nextRow
	end := start + s.batchSize
	if end > s.totalDocs {
		end = s.totalDocs
	}

	cols := make([]schema.TypedArray, len(s.materialized))
	for i, arr := range s.materialized {
		cols[i] = arr.Slice(start, end)
	}

	s.nextRow = end

	return Batch{RowCount: end - start, Columns: cols}, true
}

// Collect drains the stream into a slice of batches. Intended for tests and
// small scans; large scans should use Next directly to stay lazy.
func Collect(s *Stream) []Batch {
	var out []Batch
	for {
		b, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, b)
	}

	return out
}
