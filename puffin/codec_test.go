package puffin_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/puffin"
)

func TestCompressDecompressRoundTripSimpleElement(t *testing.T) {
	var buf bytes.Buffer
	compressor := puffin.NewMessageCompressor(&buf)

	msg := puffin.NewElement("Subscribe").Set("Subject", "AssetClass=Fx,Symbol=EURUSD")
	require.NoError(t, compressor.CompressMessage(msg))

	decompressor := puffin.NewMessageDecompressor(bufio.NewReader(&buf))
	got, err := decompressor.DecompressMessage()
	require.NoError(t, err)

	assert.Equal(t, "Subscribe", got.Tag)
	assert.Equal(t, "AssetClass=Fx,Symbol=EURUSD", got.Get("Subject", ""))
}

func TestCompressDecompressRoundTripNestedElement(t *testing.T) {
	var buf bytes.Buffer
	compressor := puffin.NewMessageCompressor(&buf)

	parent := puffin.NewElement("Update").Set("Subject", "x")
	child := puffin.NewElement("Price").Set("Bid", "1.2345").Set("Status", "1")
	parent.Nest(child)
	require.NoError(t, compressor.CompressMessage(parent))

	decompressor := puffin.NewMessageDecompressor(bufio.NewReader(&buf))
	got, err := decompressor.DecompressMessage()
	require.NoError(t, err)

	assert.Equal(t, "Update", got.Tag)
	require.Len(t, got.Children(), 1)
	assert.Equal(t, "Price", got.Children()[0].Tag)
	assert.Equal(t, "1.2345", got.Children()[0].Get("Bid", ""))
}

func TestCompressDecompressRepeatedTokensUseDictionary(t *testing.T) {
	var buf bytes.Buffer
	compressor := puffin.NewMessageCompressor(&buf)

	for i := 0; i < 5; i++ {
		msg := puffin.NewElement("Update").Set("Subject", "same-subject")
		require.NoError(t, compressor.CompressMessage(msg))
	}

	decompressor := puffin.NewMessageDecompressor(bufio.NewReader(&buf))
	for i := 0; i < 5; i++ {
		got, err := decompressor.DecompressMessage()
		require.NoError(t, err)
		assert.Equal(t, "Update", got.Tag)
		assert.Equal(t, "same-subject", got.Get("Subject", ""))
	}
}

func TestCompressDecompressEmptyElementNoAttributes(t *testing.T) {
	var buf bytes.Buffer
	compressor := puffin.NewMessageCompressor(&buf)
	require.NoError(t, compressor.CompressMessage(puffin.NewElement("Heartbeat")))

	decompressor := puffin.NewMessageDecompressor(bufio.NewReader(&buf))
	got, err := decompressor.DecompressMessage()
	require.NoError(t, err)
	assert.Equal(t, "Heartbeat", got.Tag)
	assert.Empty(t, got.Attributes())
}
