// Package dict decodes the dictionary region of a dictionary-encoded
// column: a magic-marker-prefixed table of fixed-width numeric values or
// fixed-length, null-padded strings.
package dict

import (
	"math"

	"github.com/arloliu/segreader/endian"
	"github.com/arloliu/segreader/pkg/errs"
)

// engine is the fixed byte order of the v3 numeric dictionary encoding.
var engine = endian.GetBigEndianEngine()

// MagicMarker is the 8-byte constant every dictionary and forward-index
// region begins with.
var MagicMarker = [8]byte{0xDE, 0xAD, 0xBE, 0xEF, 0xDE, 0xAF, 0xBE, 0xAD}

// DataType names a segment-level physical data type token as it appears in
// metadata.properties.
type DataType string

const (
	Int    DataType = "INT"
	Long   DataType = "LONG"
	Float  DataType = "FLOAT"
	Double DataType = "DOUBLE"
	String DataType = "STRING"
)

// entryWidth returns the fixed byte width of a numeric dictionary entry, or
// 0 for types that are not fixed-width numeric.
func entryWidth(t DataType) int {
	switch t {
	case Int, Float:
		return 4
	case Long, Double:
		return 8
	default:
		return 0
	}
}

// Dictionary resolves dictionary ids to values within a parsed region.
type Dictionary struct {
	data        []byte
	dataType    DataType
	cardinality int
	width       int // 0 for string dictionaries, entry byte width otherwise
	maxLen      int // string fixed-length record width; unused for numeric
	column      string
}

// Open parses the magic marker and validates region size for the declared
// cardinality, returning a Dictionary ready for Get.
//
// region is the full byte range the index map assigned to this column's
// dictionary section. maxLen is only meaningful for String.
func Open(column string, region []byte, dataType DataType, cardinality, maxLen int) (*Dictionary, error) {
	if len(region) < len(MagicMarker) {
		return nil, errs.NewColumnError(errs.ErrMagicMismatch, column, "dictionary region shorter than magic marker")
	}

	var got [8]byte
	copy(got[:], region[:8])
	if got != MagicMarker {
		return nil, errs.NewColumnError(errs.ErrMagicMismatch, column, "dictionary region does not start with the expected magic marker")
	}

	payload := region[8:]

	width := entryWidth(dataType)
	if dataType == String {
		if maxLen <= 0 && cardinality > 0 {
			return nil, errs.NewColumnError(errs.ErrUnsupportedEncoding, column,
				"string dictionary requires a fixed columnMaxLength/maxLength")
		}

		required := cardinality * maxLen
		if len(payload) < required {
			return nil, errs.NewColumnError(errs.ErrMetadataMalformed, column,
				"string dictionary region too small for declared cardinality and max length")
		}
	} else {
		if width == 0 {
			return nil, errs.NewColumnError(errs.ErrUnsupportedType, column, "dictionary open on non-numeric, non-string data type "+string(dataType))
		}
		required := cardinality * width
		if len(payload) < required {
			return nil, errs.NewColumnError(errs.ErrMetadataMalformed, column,
				"numeric dictionary region too small for declared cardinality and width")
		}
	}

	return &Dictionary{
		data:        payload,
		dataType:    dataType,
		cardinality: cardinality,
		width:       width,
		maxLen:      maxLen,
		column:      column,
	}, nil
}

// GetInt32 decodes dictionary entry id as a big-endian signed INT.
func (d *Dictionary) GetInt32(id int) (int32, error) {
	raw, err := d.rawEntry(id)
	if err != nil {
		return 0, err
	}

	return int32(engine.Uint32(raw)), nil
}

// GetInt64 decodes dictionary entry id as a big-endian signed LONG.
func (d *Dictionary) GetInt64(id int) (int64, error) {
	raw, err := d.rawEntry(id)
	if err != nil {
		return 0, err
	}

	return int64(engine.Uint64(raw)), nil
}

// GetFloat32 decodes dictionary entry id as a big-endian IEEE-754 FLOAT.
func (d *Dictionary) GetFloat32(id int) (float32, error) {
	raw, err := d.rawEntry(id)
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(engine.Uint32(raw)), nil
}

// GetFloat64 decodes dictionary entry id as a big-endian IEEE-754 DOUBLE.
func (d *Dictionary) GetFloat64(id int) (float64, error) {
	raw, err := d.rawEntry(id)
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(engine.Uint64(raw)), nil
}

// GetString decodes dictionary entry id as a fixed-length, null-truncated
// STRING entry.
func (d *Dictionary) GetString(id int) (string, error) {
	if id < 0 || id >= d.cardinality {
		return "", errs.NewColumnError(errs.ErrOutOfRange, d.column, "string dictionary id out of range")
	}

	start := id * d.maxLen
	record := d.data[start : start+d.maxLen]

	nul := len(record)
	for i, b := range record {
		if b == 0x00 {
			nul = i
			break
		}
	}

	return string(record[:nul]), nil
}

func (d *Dictionary) rawEntry(id int) ([]byte, error) {
	if id < 0 || id >= d.cardinality {
		return nil, errs.NewColumnError(errs.ErrOutOfRange, d.column, "dictionary id out of range")
	}

	start := id * d.width

	return d.data[start : start+d.width], nil
}
