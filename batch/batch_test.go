package batch_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/segreader/batch"
	"github.com/arloliu/segreader/internal/fixture"
	"github.com/arloliu/segreader/pkg/segment"
)

func writeSegment(t *testing.T, b *fixture.Builder) string {
	t.Helper()

	root := t.TempDir()
	v3Dir := filepath.Join(root, "v3")
	require.NoError(t, os.MkdirAll(v3Dir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(v3Dir, "metadata.properties"), b.MetadataBytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(v3Dir, "index_map"), b.IndexMapBytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(v3Dir, "columns.psf"), b.PackedBytes(), 0o644))

	return root
}

func TestScan_S2_TwoBatches(t *testing.T) {
	b := fixture.NewBuilder(3).
		AddInt32DictColumn("x", []int32{10, 20, 30}, []uint32{0, 2, 1}, 2)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	stream, err := batch.Scan(r, []string{"x"}, 2)
	require.NoError(t, err)

	batches := batch.Collect(stream)
	require.Len(t, batches, 2)

	assert.Equal(t, 2, batches[0].RowCount)
	assert.Equal(t, 1, batches[1].RowCount)

	v0, ok := batches[0].Columns[0].Int32Values()
	require.True(t, ok)
	assert.Equal(t, []int32{10, 30}, v0)

	v1, ok := batches[1].Columns[0].Int32Values()
	require.True(t, ok)
	assert.Equal(t, []int32{20}, v1)
}

func TestScan_S5_EmptyProjection(t *testing.T) {
	b := fixture.NewBuilder(5)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	stream, err := batch.Scan(r, nil, 2)
	require.NoError(t, err)

	batches := batch.Collect(stream)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{2, 2, 1}, []int{batches[0].RowCount, batches[1].RowCount, batches[2].RowCount})
	for _, bt := range batches {
		assert.Empty(t, bt.Columns)
	}
}

func TestScan_ZeroRows_NoBatches(t *testing.T) {
	b := fixture.NewBuilder(0)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	stream, err := batch.Scan(r, nil, 8192)
	require.NoError(t, err)

	batches := batch.Collect(stream)
	assert.Empty(t, batches)
}

func TestScan_ProjectionOrderPreserved(t *testing.T) {
	b := fixture.NewBuilder(2).
		AddInt32DictColumn("x", []int32{1, 2}, []uint32{0, 1}, 1).
		AddFloat64DictColumn("y", []float64{1.5, 2.5}, []uint32{1, 0}, 1)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	stream, err := batch.Scan(r, []string{"y", "x"}, 10)
	require.NoError(t, err)

	batches := batch.Collect(stream)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Columns, 2)
	assert.Equal(t, "y", batches[0].Columns[0].Name())
	assert.Equal(t, "x", batches[0].Columns[1].Name())
}

func TestScan_BatchSizeInvariance(t *testing.T) {
	b := fixture.NewBuilder(7).
		AddInt32DictColumn("x", []int32{0, 1, 2, 3, 4, 5, 6}, []uint32{0, 1, 2, 3, 4, 5, 6}, 3)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var flatA, flatB []int32
	for _, size := range []int{1, 3, 100} {
		stream, err := batch.Scan(r, []string{"x"}, size)
		require.NoError(t, err)
		var flat []int32
		for {
			bt, ok := stream.Next()
			if !ok {
				break
			}
			v, _ := bt.Columns[0].Int32Values()
			flat = append(flat, v...)
		}
		if flatA == nil {
			flatA = flat
		} else {
			flatB = flat
			assert.Equal(t, flatA, flatB)
		}
	}
}

func TestScan_NonPositiveBatchSizeUsesReaderDefault(t *testing.T) {
	b := fixture.NewBuilder(5).
		AddInt32DictColumn("x", []int32{0, 1, 2, 3, 4}, []uint32{0, 1, 2, 3, 4}, 3)
	path := writeSegment(t, b)

	r, err := segment.Open(path, segment.WithBatchSize(2))
	require.NoError(t, err)
	defer r.Close()

	stream, err := batch.Scan(r, []string{"x"}, 0)
	require.NoError(t, err)

	batches := batch.Collect(stream)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{2, 2, 1}, []int{batches[0].RowCount, batches[1].RowCount, batches[2].RowCount})
}

func TestRowCountConservation(t *testing.T) {
	b := fixture.NewBuilder(5).
		AddInt32DictColumn("x", []int32{1, 2, 3}, []uint32{0, 1, 2, 0, 1}, 2)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	stream, err := batch.Scan(r, []string{"x"}, 2)
	require.NoError(t, err)

	total := 0
	for {
		bt, ok := stream.Next()
		if !ok {
			break
		}
		total += bt.RowCount
	}
	assert.Equal(t, r.RowCount(), total)
}
