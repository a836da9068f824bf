package codec_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/codec"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16384, 1 << 32, 1<<63 - 1}
	for _, v := range values {
		buf := codec.EncodeVarint(nil, v)
		got, err := codec.DecodeVarint(bufio.NewReader(bytes.NewReader(buf)))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestZigzagRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 2, -2, 1 << 40, -(1 << 40)}
	for _, v := range values {
		u := codec.EncodeZigzag(v)
		assert.Equal(t, v, codec.DecodeZigzag(u))
	}
}

func TestDecodeVarintRejectsOverlongContinuation(t *testing.T) {
	overlong := bytes.Repeat([]byte{0x80}, 11)
	_, err := codec.DecodeVarint(bufio.NewReader(bytes.NewReader(overlong)))
	require.Error(t, err)
}

func TestWelcomeSeedBytes(t *testing.T) {
	// §8 seed scenario 2: Welcome payload decoding.
	payload := []byte{0x57, 0x00, 0x01, 0x00, 0x00, 0x10, 0xe1, 0x00, 0x00, 0x26, 0xae}
	r := bufio.NewReader(bytes.NewReader(payload[1:]))

	options, err := codec.DecodeVarint(r)
	require.NoError(t, err)
	assert.EqualValues(t, 0, options)

	version, err := codec.DecodeVarint(r)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	clientID, err := codec.DecodeFixedUint(r, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 4321, clientID)

	serverID, err := codec.DecodeFixedUint(r, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 9902, serverID)
}
