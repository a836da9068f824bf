package pixie_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/codec"
	"github.com/bidfx-oss/pricing-go/pixie"
)

func sampleFieldDefs(t *testing.T) []*pixie.FieldDef {
	t.Helper()
	bid, err := pixie.NewFieldDef(1, pixie.FieldTypeDouble, pixie.EncodingZigzag, 5, "Bid")
	require.NoError(t, err)
	ask, err := pixie.NewFieldDef(2, pixie.FieldTypeDouble, pixie.EncodingZigzag, 5, "Ask")
	require.NoError(t, err)
	return []*pixie.FieldDef{bid, ask}
}

func TestDataDictionaryMessageRoundTripUncompressed(t *testing.T) {
	msg := &pixie.DataDictionaryMessage{Updated: false, Fields: sampleFieldDefs(t)}
	body := msg.Encode(false)

	decoded, err := pixie.DecodeDataDictionaryMessage(body, nil)
	require.NoError(t, err)
	assert.False(t, decoded.Compressed)
	assert.False(t, decoded.Updated)
	require.Len(t, decoded.Fields, 2)
	assert.Equal(t, "Bid", decoded.Fields[0].Name)
	assert.Equal(t, "Ask", decoded.Fields[1].Name)
}

func TestDataDictionaryMessageRoundTripCompressed(t *testing.T) {
	msg := &pixie.DataDictionaryMessage{Updated: true, Fields: sampleFieldDefs(t)}
	body := msg.Encode(true)

	decompressor := codec.NewDecompressorStream()
	decoded, err := pixie.DecodeDataDictionaryMessage(body, decompressor)
	require.NoError(t, err)
	assert.True(t, decoded.Compressed)
	assert.True(t, decoded.Updated)
	require.Len(t, decoded.Fields, 2)
}

func TestDataDictionaryMerge(t *testing.T) {
	fields := sampleFieldDefs(t)
	dict := pixie.DataDictionary{fields[0].Fid: fields[0]}

	replacement, err := pixie.NewFieldDef(1, pixie.FieldTypeString, pixie.EncodingString, 0, "BidText")
	require.NoError(t, err)
	dict.Merge(pixie.DataDictionary{1: replacement})

	assert.Equal(t, "BidText", dict[1].Name)
}
