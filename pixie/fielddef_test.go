package pixie_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/codec"
	"github.com/bidfx-oss/pricing-go/pixie"
)

func reader(b []byte) *bufio.Reader {
	return bufio.NewReader(bytes.NewReader(b))
}

func TestFieldDefDoubleZigzagDecodesScaledValue(t *testing.T) {
	fd, err := pixie.NewFieldDef(1, pixie.FieldTypeDouble, pixie.EncodingZigzag, 2, "Ask")
	require.NoError(t, err)

	body := codec.EncodeVarintZigzag(nil, 12345)
	value, err := fd.DecodeValue(reader(body))
	require.NoError(t, err)
	assert.Equal(t, "123.45", value)
}

func TestFieldDefLongNoOpDecodesUnsignedEightBytes(t *testing.T) {
	fd, err := pixie.NewFieldDef(2, pixie.FieldTypeLong, pixie.EncodingNoOp, 0, "Quantity")
	require.NoError(t, err)

	body := codec.EncodeFixedUint(nil, 9000000000, 8)
	value, err := fd.DecodeValue(reader(body))
	require.NoError(t, err)
	assert.Equal(t, "9000000000", value)
}

func TestFieldDefIntNoOpDecodesUnsignedFourBytes(t *testing.T) {
	fd, err := pixie.NewFieldDef(3, pixie.FieldTypeInt, pixie.EncodingNoOp, 0, "Level")
	require.NoError(t, err)

	body := codec.EncodeFixedUint(nil, 42, 4)
	value, err := fd.DecodeValue(reader(body))
	require.NoError(t, err)
	assert.Equal(t, "42", value)
}

func TestFieldDefStringEncodingDecodesLengthPrefixedString(t *testing.T) {
	fd, err := pixie.NewFieldDef(4, pixie.FieldTypeString, pixie.EncodingString, 0, "Symbol")
	require.NoError(t, err)

	body := codec.EncodeNonNullString(nil, "EURUSD")
	value, err := fd.DecodeValue(reader(body))
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", value)
}

func TestFieldDefLegacyFieldsAreDisabled(t *testing.T) {
	for _, name := range []string{"Status", "SystemTime", "SystemLatency", "HopLatency1", "HopLatency2"} {
		fd, err := pixie.NewFieldDef(5, pixie.FieldTypeString, pixie.EncodingString, 0, name)
		require.NoError(t, err)
		assert.False(t, fd.Enabled, "%s should be a disabled legacy field", name)
	}
	fd, err := pixie.NewFieldDef(6, pixie.FieldTypeString, pixie.EncodingString, 0, "Bid")
	require.NoError(t, err)
	assert.True(t, fd.Enabled)
}

func TestFieldDefUnknownTypeErrors(t *testing.T) {
	_, err := pixie.NewFieldDef(7, pixie.FieldType('X'), pixie.EncodingString, 0, "Bad")
	assert.Error(t, err)
}
