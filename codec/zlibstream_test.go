package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/codec"
)

func TestZlibStreamRoundTrip(t *testing.T) {
	comp := codec.NewCompressorStream()
	decomp := codec.NewDecompressorStream()

	messages := [][]byte{
		[]byte("first chunk of data"),
		[]byte("second chunk, referencing the first via the sliding window"),
		[]byte("third"),
	}

	for _, m := range messages {
		wire, err := comp.Compress(m)
		require.NoError(t, err)

		plain, err := decomp.Decompress(wire)
		require.NoError(t, err)
		require.Equal(t, m, plain)
	}
}

func TestZlibStreamRequiresMirrorState(t *testing.T) {
	comp := codec.NewCompressorStream()

	first, err := comp.Compress([]byte("a repeated phrase a repeated phrase"))
	require.NoError(t, err)
	second, err := comp.Compress([]byte("a repeated phrase a repeated phrase"))
	require.NoError(t, err)

	// A fresh decompressor has no window history; decoding the second chunk
	// without having fed the first is not guaranteed to reproduce the same
	// bytes that a mirror stream would. Feeding both in order must round-trip.
	decomp := codec.NewDecompressorStream()
	p1, err := decomp.Decompress(first)
	require.NoError(t, err)
	require.Equal(t, "a repeated phrase a repeated phrase", string(p1))

	p2, err := decomp.Decompress(second)
	require.NoError(t, err)
	require.Equal(t, "a repeated phrase a repeated phrase", string(p2))
}
