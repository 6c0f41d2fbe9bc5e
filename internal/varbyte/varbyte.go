// Package varbyte decodes the RAW VarByteChunk v4 forward-index format: a
// header, a sorted array of chunk offsets, and a payload of optionally
// LZ4-compressed chunks of length-prefixed values.
package varbyte

import (
	"sync"

	"github.com/arloliu/segreader/compress"
	"github.com/arloliu/segreader/endian"
	"github.com/arloliu/segreader/pkg/errs"
)

const (
	headerFieldCount = 7
	headerFieldSize  = 4 // each header field is an int32
	supportedVersion = 4
)

// engine is the fixed byte order of the v4 variable-byte chunk encoding.
var engine = endian.GetBigEndianEngine()

// Reader decodes RAW VarByteChunk v4 regions, caching the most recently
// decoded chunks so sequential reads in document order are O(N) rather than
// O(N*values_per_chunk). The format only requires caching the single most
// recent chunk; cacheSize lets callers keep more entries around for
// non-sequential access to this reader's column.
type Reader struct {
	column         string
	region         []byte
	payload        []byte // the whole region; chunk offsets index into it
	valuesPerChunk int32
	totalDocs      int32
	chunksCount    int32
	compression    compress.Code
	codec          compress.Codec
	offsets        []int64 // chunks_count entries, relative to region start

	mu         sync.Mutex
	cacheSize  int
	cache      map[int32][]byte
	cacheOrder []int32 // FIFO eviction order
}

// Open parses the header and chunk-offset array of a RAW variable-byte
// chunk region. cacheSize is the number of decoded chunks kept per reader;
// values less than 1 fall back to a single-entry cache.
func Open(column string, region []byte, cacheSize int) (*Reader, error) {
	headerSize := headerFieldCount * headerFieldSize
	if len(region) < headerSize {
		return nil, errs.NewColumnError(errs.ErrIndexMapMalformed, column, "raw region shorter than header")
	}

	version := int32(engine.Uint32(region[0:4]))
	if version != supportedVersion {
		return nil, errs.NewColumnError(errs.ErrUnsupportedEncoding, column, "unsupported RAW chunk version")
	}

	valuesPerChunk := int32(engine.Uint32(region[4:8]))
	totalDocs := int32(engine.Uint32(region[8:12]))
	_ = engine.Uint32(region[12:16]) // max_value_length, informational only
	compressionCode := compress.Code(int32(engine.Uint32(region[16:20])))
	chunksCount := int32(engine.Uint32(region[20:24]))
	declaredHeaderSize := int32(engine.Uint32(region[24:28]))

	if chunksCount < 0 || valuesPerChunk <= 0 || totalDocs < 0 {
		return nil, errs.NewColumnError(errs.ErrIndexMapMalformed, column, "malformed RAW chunk header")
	}

	offsetsStart := int64(headerSize)
	offsetsBytes := int64(chunksCount) * 8
	if int64(len(region)) < offsetsStart+offsetsBytes {
		return nil, errs.NewColumnError(errs.ErrIndexMapMalformed, column, "raw region too small for chunk offset array")
	}

	expectedFirstOffset := int64(declaredHeaderSize) + offsetsBytes
	offsets := make([]int64, chunksCount)
	prev := int64(-1)
	for i := int32(0); i < chunksCount; i++ {
		off := int64(engine.Uint64(region[offsetsStart+int64(i)*8:]))
		if off <= prev {
			return nil, errs.NewColumnError(errs.ErrIndexMapMalformed, column, "chunk offsets are not strictly increasing")
		}
		if i == 0 && off != expectedFirstOffset {
			return nil, errs.NewColumnError(errs.ErrIndexMapMalformed, column, "first chunk offset does not match header_size + 8*chunks_count")
		}
		prev = off
		offsets[i] = off
	}

	codec, err := compress.GetCodec(compressionCode)
	if err != nil {
		return nil, errs.NewColumnError(errs.ErrUnsupportedEncoding, column, err.Error())
	}

	if cacheSize < 1 {
		cacheSize = 1
	}

	return &Reader{
		column:         column,
		region:         region,
		payload:        region,
		valuesPerChunk: valuesPerChunk,
		totalDocs:      totalDocs,
		chunksCount:    chunksCount,
		compression:    compressionCode,
		codec:          codec,
		offsets:        offsets,
		cacheSize:      cacheSize,
		cache:          make(map[int32][]byte, cacheSize),
	}, nil
}

// TotalDocs returns the total number of logical rows this region covers.
func (r *Reader) TotalDocs() int32 {
	return r.totalDocs
}

// Get returns the byte value stored at docID.
func (r *Reader) Get(docID int32) ([]byte, error) {
	if docID < 0 || docID >= r.totalDocs {
		return nil, errs.NewColumnError(errs.ErrOutOfRange, r.column, "doc id out of range")
	}

	chunkIndex := docID / r.valuesPerChunk
	localIndex := docID % r.valuesPerChunk
	if chunkIndex < 0 || chunkIndex >= r.chunksCount {
		return nil, errs.NewColumnError(errs.ErrOutOfRange, r.column, "chunk index out of range")
	}

	chunkValueCount := r.valuesPerChunk
	if chunkIndex == r.chunksCount-1 {
		chunkValueCount = r.totalDocs - (r.chunksCount-1)*r.valuesPerChunk
	}
	if localIndex >= chunkValueCount {
		return nil, errs.NewColumnError(errs.ErrOutOfRange, r.column, "local index exceeds last chunk's value count")
	}

	chunk, err := r.decodedChunk(chunkIndex)
	if err != nil {
		return nil, err
	}

	return scanValue(chunk, int(localIndex))
}

// decodedChunk returns the decompressed bytes of chunk index idx, serving
// from the cache when possible.
func (r *Reader) decodedChunk(idx int32) ([]byte, error) {
	r.mu.Lock()
	if chunk, ok := r.cache[idx]; ok {
		r.mu.Unlock()

		return chunk, nil
	}
	r.mu.Unlock()

	start := r.offsets[idx]
	var end int64
	if int(idx)+1 < len(r.offsets) {
		end = r.offsets[idx+1]
	} else {
		end = int64(len(r.payload))
	}
	if start < 0 || end > int64(len(r.payload)) || start > end {
		return nil, errs.NewColumnError(errs.ErrIndexMapMalformed, r.column, "chunk byte range out of bounds")
	}

	raw := r.payload[start:end]

	var decoded []byte
	if r.compression == compress.CodeLZ4 {
		if len(raw) < 4 {
			return nil, errs.NewColumnError(errs.ErrDecompressionFailure, r.column, "lz4 chunk shorter than length prefix")
		}
		declaredLen := int32(engine.Uint32(raw[0:4]))
		out, err := r.codec.Decompress(raw[4:])
		if err != nil {
			return nil, errs.NewColumnError(errs.ErrDecompressionFailure, r.column, err.Error())
		}
		if int32(len(out)) != declaredLen {
			return nil, errs.NewColumnError(errs.ErrDecompressionFailure, r.column, "decompressed length does not match declared length")
		}
		decoded = out
	} else {
		decoded = raw
	}

	r.mu.Lock()
	if _, exists := r.cache[idx]; !exists {
		if len(r.cacheOrder) >= r.cacheSize {
			evict := r.cacheOrder[0]
			r.cacheOrder = r.cacheOrder[1:]
			delete(r.cache, evict)
		}
		r.cacheOrder = append(r.cacheOrder, idx)
	}
	r.cache[idx] = decoded
	r.mu.Unlock()

	return decoded, nil
}

// scanValue walks a decompressed chunk's length-prefixed values, returning
// the (localIndex+1)-th value.
func scanValue(chunk []byte, localIndex int) ([]byte, error) {
	pos := 0
	for step := 0; step <= localIndex; step++ {
		if pos+4 > len(chunk) {
			return nil, errs.ErrIndexMapMalformed
		}
		length := int32(engine.Uint32(chunk[pos : pos+4]))
		pos += 4
		if length < 0 || pos+int(length) > len(chunk) {
			return nil, errs.ErrIndexMapMalformed
		}

		if step == localIndex {
			return chunk[pos : pos+int(length)], nil
		}
		pos += int(length)
	}

	return nil, errs.ErrIndexMapMalformed
}
