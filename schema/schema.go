// Package schema defines the engine-neutral column types and schema value
// that the segment reader core hands to an external SQL execution engine.
//
// Types here are plain value types deliberately kept free of any segment
// on-disk representation, so an external engine can consume them without
// reaching back into the reader's internals — the same boundary discipline
// the teacher library draws between its internal section/encoding packages
// and the small value types (NumericDataPoint, NumericHeader) it actually
// returns to callers.
package schema

import "fmt"

// PhysicalType is the engine-neutral type of a materialized column.
type PhysicalType uint8

const (
	// Unsupported marks a column whose segment data type has no engine
	// representation (BYTES, BOOLEAN, TIMESTAMP per spec).
	Unsupported PhysicalType = iota
	Int32
	Int64
	Float32
	Float64
	Utf8
)

func (t PhysicalType) String() string {
	switch t {
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case Utf8:
		return "Utf8"
	default:
		return "Unsupported"
	}
}

// Field describes a single column in a Schema.
type Field struct {
	Name     string
	Type     PhysicalType
	Nullable bool
}

// Schema is an ordered list of fields, in projection order when derived
// from a projection, or in segment metadata order when derived from the
// full column set.
type Schema struct {
	Fields []Field
}

// FieldByName returns the field with the given name and whether it exists.
func (s Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

// Len returns the number of fields in the schema.
func (s Schema) Len() int {
	return len(s.Fields)
}

// TypedArray is a tagged-variant columnar array of materialized values for
// one column, generalizing the teacher's two-way IsNumeric/IsText dispatch
// (blob.BlobReader) to the five physical types this format supports.
type TypedArray struct {
	name string
	kind PhysicalType

	int32Values   []int32
	int64Values   []int64
	float32Values []float32
	float64Values []float64
	utf8Values    []string
}

// Name returns the column name this array materializes.
func (a TypedArray) Name() string {
	return a.name
}

// Kind returns the physical type tag of this array.
func (a TypedArray) Kind() PhysicalType {
	return a.kind
}

// Len returns the number of values in the array.
func (a TypedArray) Len() int {
	switch a.kind {
	case Int32:
		return len(a.int32Values)
	case Int64:
		return len(a.int64Values)
	case Float32:
		return len(a.float32Values)
	case Float64:
		return len(a.float64Values)
	case Utf8:
		return len(a.utf8Values)
	default:
		return 0
	}
}

// Int32Values returns the backing slice and true if Kind() == Int32.
func (a TypedArray) Int32Values() ([]int32, bool) {
	return a.int32Values, a.kind == Int32
}

// Int64Values returns the backing slice and true if Kind() == Int64.
func (a TypedArray) Int64Values() ([]int64, bool) {
	return a.int64Values, a.kind == Int64
}

// Float32Values returns the backing slice and true if Kind() == Float32.
func (a TypedArray) Float32Values() ([]float32, bool) {
	return a.float32Values, a.kind == Float32
}

// Float64Values returns the backing slice and true if Kind() == Float64.
func (a TypedArray) Float64Values() ([]float64, bool) {
	return a.float64Values, a.kind == Float64
}

// Utf8Values returns the backing slice and true if Kind() == Utf8.
func (a TypedArray) Utf8Values() ([]string, bool) {
	return a.utf8Values, a.kind == Utf8
}

// Slice returns a new TypedArray covering rows [start, end) of this array.
// The returned array shares the backing storage with the receiver.
func (a TypedArray) Slice(start, end int) TypedArray {
	out := TypedArray{name: a.name, kind: a.kind}

	switch a.kind {
	case Int32:
		out.int32Values = a.int32Values[start:end]
	case Int64:
		out.int64Values = a.int64Values[start:end]
	case Float32:
		out.float32Values = a.float32Values[start:end]
	case Float64:
		out.float64Values = a.float64Values[start:end]
	case Utf8:
		out.utf8Values = a.utf8Values[start:end]
	}

	return out
}

// NewInt32Array constructs a TypedArray of kind Int32.
func NewInt32Array(name string, values []int32) TypedArray {
	return TypedArray{name: name, kind: Int32, int32Values: values}
}

// NewInt64Array constructs a TypedArray of kind Int64.
func NewInt64Array(name string, values []int64) TypedArray {
	return TypedArray{name: name, kind: Int64, int64Values: values}
}

// NewFloat32Array constructs a TypedArray of kind Float32.
func NewFloat32Array(name string, values []float32) TypedArray {
	return TypedArray{name: name, kind: Float32, float32Values: values}
}

// NewFloat64Array constructs a TypedArray of kind Float64.
func NewFloat64Array(name string, values []float64) TypedArray {
	return TypedArray{name: name, kind: Float64, float64Values: values}
}

// NewUtf8Array constructs a TypedArray of kind Utf8.
func NewUtf8Array(name string, values []string) TypedArray {
	return TypedArray{name: name, kind: Utf8, utf8Values: values}
}

func (a TypedArray) String() string {
	return fmt.Sprintf("TypedArray{name=%s, kind=%s, len=%d}", a.name, a.kind, a.Len())
}
