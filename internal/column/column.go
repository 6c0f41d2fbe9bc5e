// Package column implements the per-column materialization strategies:
// dictionary-encoded (bit-packed ids resolved against a dictionary) and RAW
// (variable-byte chunked, STRING only).
package column

import (
	"github.com/arloliu/segreader/internal/bitpack"
	"github.com/arloliu/segreader/internal/dict"
	"github.com/arloliu/segreader/internal/varbyte"
	"github.com/arloliu/segreader/pkg/errs"
	"github.com/arloliu/segreader/schema"
)

// ReadDictInt32 materializes a dictionary-encoded INT column.
func ReadDictInt32(name string, forwardIndex []byte, d *dict.Dictionary, totalDocs, bitsPerValue int) (schema.TypedArray, error) {
	out := make([]int32, totalDocs)

	for i := 0; i < totalDocs; i++ {
		id := bitpack.Get(forwardIndex, int64(i), bitsPerValue)
		v, err := d.GetInt32(int(id))
		if err != nil {
			return schema.TypedArray{}, err
		}
		out[i] = v
	}

	return schema.NewInt32Array(name, out), nil
}

// ReadDictInt64 materializes a dictionary-encoded LONG column.
func ReadDictInt64(name string, forwardIndex []byte, d *dict.Dictionary, totalDocs, bitsPerValue int) (schema.TypedArray, error) {
	out := make([]int64, totalDocs)

	for i := 0; i < totalDocs; i++ {
		id := bitpack.Get(forwardIndex, int64(i), bitsPerValue)
		v, err := d.GetInt64(int(id))
		if err != nil {
			return schema.TypedArray{}, err
		}
		out[i] = v
	}

	return schema.NewInt64Array(name, out), nil
}

// ReadDictFloat32 materializes a dictionary-encoded FLOAT column.
func ReadDictFloat32(name string, forwardIndex []byte, d *dict.Dictionary, totalDocs, bitsPerValue int) (schema.TypedArray, error) {
	out := make([]float32, totalDocs)

	for i := 0; i < totalDocs; i++ {
		id := bitpack.Get(forwardIndex, int64(i), bitsPerValue)
		v, err := d.GetFloat32(int(id))
		if err != nil {
			return schema.TypedArray{}, err
		}
		out[i] = v
	}

	return schema.NewFloat32Array(name, out), nil
}

// ReadDictFloat64 materializes a dictionary-encoded DOUBLE column.
func ReadDictFloat64(name string, forwardIndex []byte, d *dict.Dictionary, totalDocs, bitsPerValue int) (schema.TypedArray, error) {
	out := make([]float64, totalDocs)

	for i := 0; i < totalDocs; i++ {
		id := bitpack.Get(forwardIndex, int64(i), bitsPerValue)
		v, err := d.GetFloat64(int(id))
		if err != nil {
			return schema.TypedArray{}, err
		}
		out[i] = v
	}

	return schema.NewFloat64Array(name, out), nil
}

// ReadDictString materializes a dictionary-encoded STRING column.
func ReadDictString(name string, forwardIndex []byte, d *dict.Dictionary, totalDocs, bitsPerValue int) (schema.TypedArray, error) {
	out := make([]string, totalDocs)

	for i := 0; i < totalDocs; i++ {
		id := bitpack.Get(forwardIndex, int64(i), bitsPerValue)
		v, err := d.GetString(int(id))
		if err != nil {
			return schema.TypedArray{}, err
		}
		out[i] = v
	}

	return schema.NewUtf8Array(name, out), nil
}

// ReadRawString materializes a RAW (variable-byte chunked) STRING column.
// RAW encoding is only valid for STRING in this format; callers must reject
// numeric RAW columns before calling this function.
func ReadRawString(name string, r *varbyte.Reader) (schema.TypedArray, error) {
	totalDocs := int(r.TotalDocs())
	out := make([]string, totalDocs)

	for i := 0; i < totalDocs; i++ {
		v, err := r.Get(int32(i))
		if err != nil {
			return schema.TypedArray{}, err
		}
		out[i] = string(v)
	}

	return schema.NewUtf8Array(name, out), nil
}

// RejectUnsupported returns the UnsupportedType/UnsupportedEncoding error for
// a column whose data type or encoding combination cannot be materialized:
// BYTES/BOOLEAN/TIMESTAMP at any encoding, or RAW on a non-STRING type.
func RejectUnsupported(name, dataType string, isRaw bool) error {
	switch dataType {
	case "BYTES", "BOOLEAN", "TIMESTAMP":
		return errs.NewColumnError(errs.ErrUnsupportedType, name, "data type "+dataType+" cannot be materialized")
	}

	if isRaw && dataType != "STRING" {
		return errs.NewColumnError(errs.ErrUnsupportedEncoding, name, "RAW encoding is only supported for STRING columns")
	}

	return nil
}
