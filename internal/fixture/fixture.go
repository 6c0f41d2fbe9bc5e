// Package fixture builds in-memory segment byte fixtures for tests: the
// metadata.properties, index_map, and columns.psf artifacts a real v3
// segment directory would contain.
package fixture

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MagicMarker is the 8-byte constant every dictionary/forward-index region
// begins with.
var MagicMarker = []byte{0xDE, 0xAD, 0xBE, 0xEF, 0xDE, 0xAF, 0xBE, 0xAD}

// Builder accumulates column regions into a packed byte buffer and the
// matching index_map / metadata.properties text, mirroring how a real
// segment writer lays out the v3 format.
type Builder struct {
	totalDocs int
	version   int
	tableName string

	packed []byte

	metaLines  []string
	indexLines []string
}

// NewBuilder starts a fixture for a segment with the given row count.
func NewBuilder(totalDocs int) *Builder {
	return &Builder{totalDocs: totalDocs, version: 3, tableName: "fixture_table"}
}

// WithVersion overrides the declared segment.version (used to build
// unsupported-version fixtures).
func (b *Builder) WithVersion(v int) *Builder {
	b.version = v

	return b
}

// region appends data to the packed buffer and returns its (offset, size).
func (b *Builder) region(data []byte) (offset, size int64) {
	offset = int64(len(b.packed))
	b.packed = append(b.packed, data...)

	return offset, int64(len(data))
}

func (b *Builder) addIndexEntry(column, section string, offset, size int64) {
	b.indexLines = append(b.indexLines,
		fmt.Sprintf("%s.%s.startOffset = %d", column, section, offset),
		fmt.Sprintf("%s.%s.size = %d", column, section, size),
	)
}

// AddInt32DictColumn adds an INT dictionary-encoded column. dictValues are
// the distinct dictionary entries; forwardIDs are the per-row dictionary
// ids (length must equal totalDocs).
func (b *Builder) AddInt32DictColumn(name string, dictValues []int32, forwardIDs []uint32, bitsPerValue int) *Builder {
	dictPayload := append([]byte{}, MagicMarker...)
	for _, v := range dictValues {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(v))
		dictPayload = append(dictPayload, buf...)
	}
	off, size := b.region(dictPayload)
	b.addIndexEntry(name, "dictionary", off, size)

	fwdPayload := append([]byte{}, MagicMarker...)
	fwdPayload = append(fwdPayload, packBits(forwardIDs, bitsPerValue)...)
	off, size = b.region(fwdPayload)
	b.addIndexEntry(name, "forward_index", off, size)

	b.metaLines = append(b.metaLines,
		fmt.Sprintf("column.%s.dataType=INT", name),
		fmt.Sprintf("column.%s.cardinality=%d", name, len(dictValues)),
		fmt.Sprintf("column.%s.bitsPerElement=%d", name, bitsPerValue),
		fmt.Sprintf("column.%s.hasDictionary=true", name),
	)

	return b
}

// AddFloat64DictColumn adds a DOUBLE dictionary-encoded column.
func (b *Builder) AddFloat64DictColumn(name string, dictValues []float64, forwardIDs []uint32, bitsPerValue int) *Builder {
	dictPayload := append([]byte{}, MagicMarker...)
	for _, v := range dictValues {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
		dictPayload = append(dictPayload, buf...)
	}
	off, size := b.region(dictPayload)
	b.addIndexEntry(name, "dictionary", off, size)

	fwdPayload := append([]byte{}, MagicMarker...)
	fwdPayload = append(fwdPayload, packBits(forwardIDs, bitsPerValue)...)
	off, size = b.region(fwdPayload)
	b.addIndexEntry(name, "forward_index", off, size)

	b.metaLines = append(b.metaLines,
		fmt.Sprintf("column.%s.dataType=DOUBLE", name),
		fmt.Sprintf("column.%s.cardinality=%d", name, len(dictValues)),
		fmt.Sprintf("column.%s.bitsPerElement=%d", name, bitsPerValue),
		fmt.Sprintf("column.%s.hasDictionary=true", name),
	)

	return b
}

// AddStringDictColumn adds a fixed-length STRING dictionary-encoded column.
func (b *Builder) AddStringDictColumn(name string, dictValues []string, maxLen int, forwardIDs []uint32, bitsPerValue int) *Builder {
	dictPayload := append([]byte{}, MagicMarker...)
	for _, v := range dictValues {
		rec := make([]byte, maxLen)
		copy(rec, v)
		dictPayload = append(dictPayload, rec...)
	}
	off, size := b.region(dictPayload)
	b.addIndexEntry(name, "dictionary", off, size)

	fwdPayload := append([]byte{}, MagicMarker...)
	fwdPayload = append(fwdPayload, packBits(forwardIDs, bitsPerValue)...)
	off, size = b.region(fwdPayload)
	b.addIndexEntry(name, "forward_index", off, size)

	b.metaLines = append(b.metaLines,
		fmt.Sprintf("column.%s.dataType=STRING", name),
		fmt.Sprintf("column.%s.cardinality=%d", name, len(dictValues)),
		fmt.Sprintf("column.%s.bitsPerElement=%d", name, bitsPerValue),
		fmt.Sprintf("column.%s.hasDictionary=true", name),
		fmt.Sprintf("column.%s.columnMaxLength=%d", name, maxLen),
	)

	return b
}

// AddStringRawColumn adds a RAW (VarByteChunk v4, uncompressed) STRING
// column. chunks groups the totalDocs values into chunks of valuesPerChunk.
func (b *Builder) AddStringRawColumn(name string, chunks [][]string, valuesPerChunk int32) *Builder {
	totalDocs := 0
	for _, c := range chunks {
		totalDocs += len(c)
	}

	const headerSize = 28
	chunksCount := int32(len(chunks))

	header := make([]byte, headerSize)
	put := func(off int, v int32) { binary.BigEndian.PutUint32(header[off:off+4], uint32(v)) }
	put(0, 4)
	put(4, valuesPerChunk)
	put(8, int32(totalDocs))
	put(12, 256)
	put(16, 0)
	put(20, chunksCount)
	put(24, headerSize)

	var chunkPayloads [][]byte
	for _, c := range chunks {
		var buf []byte
		for _, v := range c {
			lenBuf := make([]byte, 4)
			binary.BigEndian.PutUint32(lenBuf, uint32(len(v)))
			buf = append(buf, lenBuf...)
			buf = append(buf, v...)
		}
		chunkPayloads = append(chunkPayloads, buf)
	}

	offsetsStart := int64(headerSize)
	cur := offsetsStart + int64(chunksCount)*8
	fwdPayload := append([]byte{}, MagicMarker...)
	fwdPayload = append(fwdPayload, header...)
	offsetBuf := make([]byte, 8)
	for _, p := range chunkPayloads {
		binary.BigEndian.PutUint64(offsetBuf, uint64(cur))
		fwdPayload = append(fwdPayload, offsetBuf...)
		cur += int64(len(p))
	}
	for _, p := range chunkPayloads {
		fwdPayload = append(fwdPayload, p...)
	}

	off, size := b.region(fwdPayload)
	b.addIndexEntry(name, "forward_index", off, size)

	b.metaLines = append(b.metaLines,
		fmt.Sprintf("column.%s.dataType=STRING", name),
		fmt.Sprintf("column.%s.hasDictionary=false", name),
	)

	return b
}

// MetadataBytes renders the metadata.properties artifact.
func (b *Builder) MetadataBytes() []byte {
	lines := []string{
		"segment.total.docs=" + strconv.Itoa(b.totalDocs),
		"segment.version=" + strconv.Itoa(b.version),
		"segment.table.name=" + b.tableName,
	}
	lines = append(lines, b.metaLines...)

	return []byte(strings.Join(lines, "\n") + "\n")
}

// IndexMapBytes renders the index_map artifact.
func (b *Builder) IndexMapBytes() []byte {
	return []byte(strings.Join(b.indexLines, "\n") + "\n")
}

// PackedBytes renders the columns.psf artifact.
func (b *Builder) PackedBytes() []byte {
	return b.packed
}

// packBits big-endian, MSB-first bit-packs values at width w.
func packBits(values []uint32, w int) []byte {
	if w == 0 {
		return nil
	}

	totalBits := int64(len(values)) * int64(w)
	buf := make([]byte, (totalBits+7)/8)

	var bitPos int64
	for _, v := range values {
		for bit := w - 1; bit >= 0; bit-- {
			b := (v >> uint(bit)) & 1
			byteIdx := bitPos / 8
			bitInByte := uint(bitPos % 8)
			if b == 1 {
				buf[byteIdx] |= 1 << (7 - bitInByte)
			}
			bitPos++
		}
	}

	return buf
}
