package pixie_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/pixie"
)

func TestWelcomeMessageRoundTrip(t *testing.T) {
	msg := &pixie.WelcomeMessage{Options: 0, Version: 4, ClientID: 42, ServerID: 7}
	body := msg.Encode()
	decoded, err := pixie.DecodeWelcomeMessage(body)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestLoginMessageRoundTrip(t *testing.T) {
	msg := &pixie.LoginMessage{
		Username: "alice", Password: "secret", Alias: "alice",
		APIName: "pricing-go", APIVersion: "1.0.0",
		ApplicationName: "pricing-go", ApplicationVersion: "1.0.0",
		Product: "", ProductSerial: "SN-1",
	}
	decoded, err := pixie.DecodeLoginMessage(msg.Encode())
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestGrantMessageRoundTrip(t *testing.T) {
	granted := &pixie.GrantMessage{Granted: true, Reason: ""}
	decoded, err := pixie.DecodeGrantMessage(granted.Encode())
	require.NoError(t, err)
	assert.Equal(t, granted, decoded)

	rejected := &pixie.GrantMessage{Granted: false, Reason: "bad credentials"}
	decoded, err = pixie.DecodeGrantMessage(rejected.Encode())
	require.NoError(t, err)
	assert.Equal(t, rejected, decoded)
}

func TestAckMessageRoundTrip(t *testing.T) {
	msg := pixie.NewAckMessage(10, 1000, 1005, 1008)
	assert.Equal(t, int64(3), msg.HandlingTime)
	decoded, err := pixie.DecodeAckMessage(msg.Encode())
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestHeartbeatMessageEncodesEmptyBody(t *testing.T) {
	assert.Empty(t, pixie.HeartbeatMessage{}.Encode())
}

func TestFrameRoundTrip(t *testing.T) {
	body := []byte{1, 2, 3, 4}
	frame := pixie.EncodeFrame(pixie.TagAck, body)

	r := bufio.NewReader(bytes.NewReader(frame))
	tag, decodedBody, err := pixie.ReadFrame(r)
	require.NoError(t, err)
	assert.Equal(t, pixie.TagAck, tag)
	assert.Equal(t, body, decodedBody)
}
