// Package compress provides the compression and decompression codecs used
// to decode RAW variable-byte chunk payloads.
package compress

import "fmt"

// Compressor compresses a byte payload.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a byte payload previously produced by the
// matching Compressor.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// Error conditions:
	//   - Returns error if input data is corrupted or invalid
	//   - Returns error if data was compressed with incompatible algorithm
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// Code identifies the on-disk compression scheme of a RAW variable-byte
// chunk region, as declared by its compression_type header field.
type Code int32

const (
	CodeNone Code = 0
	CodeLZ4  Code = 4
)

func (c Code) String() string {
	switch c {
	case CodeNone:
		return "none"
	case CodeLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", int32(c))
	}
}

var builtinCodecs = map[Code]Codec{
	CodeNone: NewNoOpCompressor(),
	CodeLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the Codec for a compression code, or an error if the
// code is not one of the two recognized values.
func GetCodec(code Code) (Codec, error) {
	if codec, ok := builtinCodecs[code]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression code: %s", code)
}
