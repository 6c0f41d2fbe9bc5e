// Package segment implements the Segment Reader Facade: it opens a segment
// directory, composes the metadata/index-map parsers and the dictionary/RAW
// column decoders, and serves per-column materialization by name.
package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/arloliu/segreader/internal/collision"
	"github.com/arloliu/segreader/internal/column"
	"github.com/arloliu/segreader/internal/dict"
	"github.com/arloliu/segreader/internal/hash"
	"github.com/arloliu/segreader/internal/indexmap"
	"github.com/arloliu/segreader/internal/metadata"
	"github.com/arloliu/segreader/internal/varbyte"
	"github.com/arloliu/segreader/pkg/errs"
	"github.com/arloliu/segreader/schema"
	"go.uber.org/zap"
)

const (
	formatDir      = "v3"
	metadataFile   = "metadata.properties"
	indexMapFile   = "index_map"
	packedFileName = "columns.psf"
)

// SegmentReader owns a segment's parsed metadata, index map, and packed
// storage bytes. It is constructed once per segment path, read-only
// thereafter, and must be closed when no longer needed.
type SegmentReader struct {
	path     string
	meta     *metadata.SegmentMetadata
	indexMap *indexmap.IndexMap
	packed   []byte
	log      *zap.SugaredLogger

	batchSize      int
	chunkCacheSize int

	cacheMu sync.Mutex
	cache   map[uint64]schema.TypedArray

	closed atomic.Bool
}

// Open validates that <path>/v3/ exists with the three required artifacts,
// parses the metadata and index map, and reads the packed storage artifact
// into memory.
func Open(path string, opts ...Option) (*SegmentReader, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	v3Dir := filepath.Join(path, formatDir)
	metaPath := filepath.Join(v3Dir, metadataFile)
	indexMapPath := filepath.Join(v3Dir, indexMapFile)
	packedPath := filepath.Join(v3Dir, packedFileName)

	o.logger.Infow("opening segment", "path", path)

	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %s", errs.ErrIO, metaPath, err)
	}
	indexMapBytes, err := os.ReadFile(indexMapPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %s", errs.ErrIO, indexMapPath, err)
	}
	packed, err := os.ReadFile(packedPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %s", errs.ErrIO, packedPath, err)
	}

	meta, err := metadata.Parse(metaBytes)
	if err != nil {
		o.logger.Errorw("metadata parse failed", "path", metaPath, "error", err)

		return nil, err
	}

	idxMap, err := indexmap.Parse(indexMapBytes)
	if err != nil {
		o.logger.Errorw("index map parse failed", "path", indexMapPath, "error", err)

		return nil, err
	}

	tracker := collision.NewTracker()
	for name, col := range meta.Columns {
		if col.HasDictionary {
			if _, ok := idxMap.Lookup(name, indexmap.Dictionary); !ok {
				return nil, errs.NewColumnError(errs.ErrIndexMapMalformed, name, "missing dictionary index map entry")
			}
		}
		if _, ok := idxMap.Lookup(name, indexmap.ForwardIndex); !ok {
			return nil, errs.NewColumnError(errs.ErrIndexMapMalformed, name, "missing forward_index index map entry")
		}
		if err := tracker.Track(name, hash.ID(name)); err != nil {
			o.logger.Errorw("column name hash collision", "column", name, "error", err)

			return nil, err
		}
	}

	o.logger.Infow("segment opened", "path", path, "totalDocs", meta.TotalDocs, "columns", len(meta.Columns))

	return &SegmentReader{
		path:           path,
		meta:           meta,
		indexMap:       idxMap,
		packed:         packed,
		log:            o.logger,
		batchSize:      o.batchSize,
		chunkCacheSize: o.chunkCacheSize,
		cache:          make(map[uint64]schema.TypedArray),
	}, nil
}

// Metadata returns the parsed segment metadata (borrowed; do not mutate).
func (r *SegmentReader) Metadata() *metadata.SegmentMetadata {
	return r.meta
}

// RowCount returns the segment's total document count.
func (r *SegmentReader) RowCount() int {
	return r.meta.TotalDocs
}

// BatchSize returns the default batch size Scan falls back to when called
// with a non-positive size, as configured by WithBatchSize (DefaultBatchSize
// otherwise).
func (r *SegmentReader) BatchSize() int {
	return r.batchSize
}

// Schema maps each known column to its physical engine type, in segment
// metadata declaration order.
func (r *SegmentReader) Schema() schema.Schema {
	names := r.meta.ColumnNames()
	fields := make([]schema.Field, 0, len(names))
	for _, name := range names {
		col := r.meta.Columns[name]
		fields = append(fields, schema.Field{
			Name:     name,
			Type:     physicalType(col.DataType),
			Nullable: false,
		})
	}

	return schema.Schema{Fields: fields}
}

// ReadColumn dispatches to the correct column reader and caches the
// materialized array for the lifetime of the reader, keyed by name.
func (r *SegmentReader) ReadColumn(name string) (schema.TypedArray, error) {
	if r.closed.Load() {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrIO, name, "segment reader is closed")
	}

	key := hash.ID(name)

	r.cacheMu.Lock()
	if arr, ok := r.cache[key]; ok {
		r.cacheMu.Unlock()

		return arr, nil
	}
	r.cacheMu.Unlock()

	col, ok := r.meta.Columns[name]
	if !ok {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrIO, name, "unknown column")
	}

	isRaw := !col.HasDictionary
	if err := column.RejectUnsupported(name, col.DataType, isRaw); err != nil {
		return schema.TypedArray{}, err
	}

	var arr schema.TypedArray
	var err error
	if isRaw {
		arr, err = r.readRawColumn(name, col)
	} else {
		arr, err = r.readDictColumn(name, col)
	}
	if err != nil {
		r.log.Errorw("column materialization failed", "column", name, "error", err)

		return schema.TypedArray{}, err
	}

	r.cacheMu.Lock()
	r.cache[key] = arr
	r.cacheMu.Unlock()

	return arr, nil
}

func (r *SegmentReader) readDictColumn(name string, col *metadata.ColumnMetadata) (schema.TypedArray, error) {
	dictRange, ok := r.indexMap.Lookup(name, indexmap.Dictionary)
	if !ok {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrIndexMapMalformed, name, "missing dictionary entry")
	}
	fwdRange, ok := r.indexMap.Lookup(name, indexmap.ForwardIndex)
	if !ok {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrIndexMapMalformed, name, "missing forward_index entry")
	}

	dictRegion, err := r.slice(dictRange)
	if err != nil {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrIO, name, err.Error())
	}
	fwdRegion, err := r.slice(fwdRange)
	if err != nil {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrIO, name, err.Error())
	}

	// The forward index region begins with the same magic marker as the
	// dictionary region; the bit-packed stream follows immediately after it.
	if len(fwdRegion) < len(dict.MagicMarker) {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrMagicMismatch, name, "forward index region shorter than magic marker")
	}
	var got [8]byte
	copy(got[:], fwdRegion[:8])
	if got != dict.MagicMarker {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrMagicMismatch, name, "forward index region does not start with the expected magic marker")
	}
	forwardIndex := fwdRegion[8:]

	dt := dict.DataType(col.DataType)
	d, err := dict.Open(name, dictRegion, dt, col.Cardinality, col.StringColumnMaxLength)
	if err != nil {
		return schema.TypedArray{}, err
	}

	switch dt {
	case dict.Int:
		return column.ReadDictInt32(name, forwardIndex, d, r.meta.TotalDocs, col.BitsPerValue)
	case dict.Long:
		return column.ReadDictInt64(name, forwardIndex, d, r.meta.TotalDocs, col.BitsPerValue)
	case dict.Float:
		return column.ReadDictFloat32(name, forwardIndex, d, r.meta.TotalDocs, col.BitsPerValue)
	case dict.Double:
		return column.ReadDictFloat64(name, forwardIndex, d, r.meta.TotalDocs, col.BitsPerValue)
	case dict.String:
		return column.ReadDictString(name, forwardIndex, d, r.meta.TotalDocs, col.BitsPerValue)
	default:
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrUnsupportedType, name, "unsupported dictionary data type "+col.DataType)
	}
}

func (r *SegmentReader) readRawColumn(name string, col *metadata.ColumnMetadata) (schema.TypedArray, error) {
	fwdRange, ok := r.indexMap.Lookup(name, indexmap.ForwardIndex)
	if !ok {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrIndexMapMalformed, name, "missing forward_index entry")
	}

	fwdRegion, err := r.slice(fwdRange)
	if err != nil {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrIO, name, err.Error())
	}

	if len(fwdRegion) < len(dict.MagicMarker) {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrMagicMismatch, name, "forward index region shorter than magic marker")
	}
	var got [8]byte
	copy(got[:], fwdRegion[:8])
	if got != dict.MagicMarker {
		return schema.TypedArray{}, errs.NewColumnError(errs.ErrMagicMismatch, name, "forward index region does not start with the expected magic marker")
	}

	vr, err := varbyte.Open(name, fwdRegion[8:], r.chunkCacheSize)
	if err != nil {
		return schema.TypedArray{}, err
	}

	return column.ReadRawString(name, vr)
}

func (r *SegmentReader) slice(rng indexmap.Range) ([]byte, error) {
	start := rng.Offset
	end := rng.Offset + rng.Size
	if start < 0 || end > int64(len(r.packed)) || start > end {
		return nil, fmt.Errorf("byte range [%d, %d) out of bounds for packed file of size %d", start, end, len(r.packed))
	}

	return r.packed[start:end], nil
}

// Close marks the reader closed, after which ReadColumn fails with ErrIO.
// It does not free the packed storage bytes or the column cache; no file
// handle is held, since Open reads every artifact fully into memory. It is
// idempotent: calling Close more than once is a no-op.
func (r *SegmentReader) Close() error {
	r.closed.Store(true)

	return nil
}

func physicalType(dataType string) schema.PhysicalType {
	switch dataType {
	case "INT":
		return schema.Int32
	case "LONG":
		return schema.Int64
	case "FLOAT":
		return schema.Float32
	case "DOUBLE":
		return schema.Float64
	case "STRING":
		return schema.Utf8
	default:
		return schema.Unsupported
	}
}
