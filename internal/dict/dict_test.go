package dict_test

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/segreader/internal/dict"
	"github.com/arloliu/segreader/pkg/errs"
)

func withMagic(payload []byte) []byte {
	out := append([]byte{}, dict.MagicMarker[:]...)

	return append(out, payload...)
}

func TestOpen_IntDictionary(t *testing.T) {
	payload := make([]byte, 0, 12)
	for _, v := range []int32{10, 20, 30} {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(v))
		payload = append(payload, buf...)
	}

	d, err := dict.Open("x", withMagic(payload), dict.Int, 3, 0)
	require.NoError(t, err)

	v, err := d.GetInt32(0)
	require.NoError(t, err)
	assert.Equal(t, int32(10), v)

	v, err = d.GetInt32(2)
	require.NoError(t, err)
	assert.Equal(t, int32(30), v)
}

func TestOpen_LongDictionary(t *testing.T) {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, uint64(int64(-42)))

	d, err := dict.Open("x", withMagic(payload), dict.Long, 1, 0)
	require.NoError(t, err)

	v, err := d.GetInt64(0)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), v)
}

func TestOpen_FloatDoubleDictionary(t *testing.T) {
	fPayload := make([]byte, 4)
	binary.BigEndian.PutUint32(fPayload, math.Float32bits(3.25))
	d, err := dict.Open("f", withMagic(fPayload), dict.Float, 1, 0)
	require.NoError(t, err)
	fv, err := d.GetFloat32(0)
	require.NoError(t, err)
	assert.Equal(t, float32(3.25), fv)

	dPayload := make([]byte, 8)
	binary.BigEndian.PutUint64(dPayload, math.Float64bits(6.5))
	d2, err := dict.Open("dd", withMagic(dPayload), dict.Double, 1, 0)
	require.NoError(t, err)
	dv, err := d2.GetFloat64(0)
	require.NoError(t, err)
	assert.Equal(t, 6.5, dv)
}

func TestOpen_StringFixedLength_NullPadded(t *testing.T) {
	maxLen := 8
	payload := make([]byte, 0, maxLen*2)
	payload = append(payload, []byte("hi\x00\x00\x00\x00\x00\x00")...)
	payload = append(payload, []byte("fullwide")...) // no null byte, full width

	d, err := dict.Open("s", withMagic(payload), dict.String, 2, maxLen)
	require.NoError(t, err)

	v, err := d.GetString(0)
	require.NoError(t, err)
	assert.Equal(t, "hi", v)

	v, err = d.GetString(1)
	require.NoError(t, err)
	assert.Equal(t, "fullwide", v)
}

func TestOpen_StringAllNullBytes_EmptyString(t *testing.T) {
	maxLen := 4
	payload := make([]byte, maxLen)

	d, err := dict.Open("s", withMagic(payload), dict.String, 1, maxLen)
	require.NoError(t, err)

	v, err := d.GetString(0)
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestOpen_StringZeroMaxLength_Rejected(t *testing.T) {
	payload := make([]byte, 0)

	_, err := dict.Open("s", withMagic(payload), dict.String, 2, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnsupportedEncoding))
}

func TestOpen_MagicMismatch(t *testing.T) {
	region := append([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, make([]byte, 4)...)
	_, err := dict.Open("x", region, dict.Int, 1, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrMagicMismatch))

	var colErr *errs.ColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, "x", colErr.Column)
}

func TestGetInt32_OutOfRange(t *testing.T) {
	payload := make([]byte, 4)
	d, err := dict.Open("x", withMagic(payload), dict.Int, 1, 0)
	require.NoError(t, err)

	_, err = d.GetInt32(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrOutOfRange))
}

func TestOpen_RegionTooSmall(t *testing.T) {
	payload := make([]byte, 4) // only 1 entry worth, cardinality claims 3
	_, err := dict.Open("x", withMagic(payload), dict.Int, 3, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrMetadataMalformed))
}
