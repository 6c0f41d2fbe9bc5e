package segment_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/segreader/internal/fixture"
	"github.com/arloliu/segreader/pkg/errs"
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

func TestOpen_S1_DictColumn(t *testing.T) {
	b := fixture.NewBuilder(3).
		AddInt32DictColumn("x", []int32{10, 20, 30}, []uint32{0, 2, 1}, 2)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 3, r.RowCount())

	arr, err := r.ReadColumn("x")
	require.NoError(t, err)
	values, ok := arr.Int32Values()
	require.True(t, ok)
	assert.Equal(t, []int32{10, 30, 20}, values)
}

func TestReadColumn_CachesResult(t *testing.T) {
	b := fixture.NewBuilder(3).
		AddInt32DictColumn("x", []int32{10, 20, 30}, []uint32{0, 2, 1}, 2)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	arr1, err := r.ReadColumn("x")
	require.NoError(t, err)
	arr2, err := r.ReadColumn("x")
	require.NoError(t, err)

	v1, _ := arr1.Int32Values()
	v2, _ := arr2.Int32Values()
	assert.Same(t, &v1[0], &v2[0])
}

func TestOpen_S6_UnsupportedVersion(t *testing.T) {
	b := fixture.NewBuilder(1).WithVersion(2)
	path := writeSegment(t, b)

	_, err := segment.Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrMetadataMalformed))
}

func TestReadColumn_UnsupportedType(t *testing.T) {
	b := fixture.NewBuilder(1)
	path := writeSegment(t, b)
	require.NoError(t, os.WriteFile(filepath.Join(path, "v3", "metadata.properties"),
		append(b.MetadataBytes(), []byte("column.ts.dataType=TIMESTAMP\ncolumn.ts.hasDictionary=false\n")...), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "v3", "index_map"),
		append(b.IndexMapBytes(), []byte("ts.forward_index.startOffset = 0\nts.forward_index.size = 0\n")...), 0o644))

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadColumn("ts")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnsupportedType))
}

func TestReadColumn_UnknownColumn(t *testing.T) {
	b := fixture.NewBuilder(0)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadColumn("does-not-exist")
	require.Error(t, err)
}

func TestOpen_MissingArtifact(t *testing.T) {
	root := t.TempDir()
	_, err := segment.Open(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrIO))
}

func TestReadColumn_StringRaw(t *testing.T) {
	b := fixture.NewBuilder(3).
		AddStringRawColumn("s", [][]string{{"alpha", "beta"}, {"gamma"}}, 2)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	arr, err := r.ReadColumn("s")
	require.NoError(t, err)
	values, ok := arr.Utf8Values()
	require.True(t, ok)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, values)
}

func TestClose_MakesReaderUnusable(t *testing.T) {
	b := fixture.NewBuilder(1).AddInt32DictColumn("x", []int32{1}, []uint32{0}, 0)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.ReadColumn("x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrIO))
}

func TestOpen_RejectsNonPositiveBatchSize(t *testing.T) {
	b := fixture.NewBuilder(1).AddInt32DictColumn("x", []int32{1}, []uint32{0}, 0)
	path := writeSegment(t, b)

	_, err := segment.Open(path, segment.WithBatchSize(0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidOption))
}

func TestOpen_RejectsNonPositiveChunkCacheSize(t *testing.T) {
	b := fixture.NewBuilder(1).AddInt32DictColumn("x", []int32{1}, []uint32{0}, 0)
	path := writeSegment(t, b)

	_, err := segment.Open(path, segment.WithChunkCacheSize(-1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidOption))
}

func TestSchema_PreservesDeclarationOrder(t *testing.T) {
	b := fixture.NewBuilder(2).
		AddInt32DictColumn("z", []int32{1, 2}, []uint32{0, 1}, 1).
		AddFloat64DictColumn("a", []float64{1.5, 2.5}, []uint32{0, 1}, 1).
		AddStringRawColumn("m", [][]string{{"x", "y"}}, 2)
	path := writeSegment(t, b)

	r, err := segment.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for i := 0; i < 3; i++ {
		fields := r.Schema().Fields
		names = names[:0]
		for _, f := range fields {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"z", "a", "m"}, names)
	}
}

func TestOpen_WithOptions_AppliedInOrder(t *testing.T) {
	b := fixture.NewBuilder(3).
		AddStringRawColumn("s", [][]string{{"a"}, {"b"}, {"c"}}, 1)
	path := writeSegment(t, b)

	r, err := segment.Open(path,
		segment.WithBatchSize(4), segment.WithChunkCacheSize(2), segment.WithBatchSize(3))
	require.NoError(t, err)
	defer r.Close()

	// The later WithBatchSize overrides the earlier one.
	assert.Equal(t, 3, r.BatchSize())

	arr, err := r.ReadColumn("s")
	require.NoError(t, err)
	values, ok := arr.Utf8Values()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, values)
}
