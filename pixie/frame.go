package pixie

import (
	"bufio"
	"bytes"
	"io"

	"github.com/bidfx-oss/pricing-go/codec"
	"github.com/bidfx-oss/pricing-go/pricingerrors"
)

// Tag identifies a Pixie message's wire type, the single byte following the
// varint length prefix of every frame.
type Tag byte

const (
	TagWelcome          Tag = 'W'
	TagLogin            Tag = 'L'
	TagGrant            Tag = 'G'
	TagDataDictionary   Tag = 'D'
	TagSubscriptionSync Tag = 'S'
	TagPriceSync        Tag = 'P'
	TagAck              Tag = 'A'
	TagHeartbeat        Tag = 'H'
)

// EncodeFrame wraps a message body in the length+tag framing common to
// every Pixie message: varint(len(body)+1), tag, body.
func EncodeFrame(tag Tag, body []byte) []byte {
	dst := codec.EncodeVarint(nil, uint64(len(body)+1))
	dst = append(dst, byte(tag))
	return append(dst, body...)
}

// ReadFrame reads one complete frame from r, returning its tag and the
// message body (the length-1 bytes following the tag byte), mirroring
// pixie_provider.py's _read_message_bytes.
func ReadFrame(r *bufio.Reader) (Tag, []byte, error) {
	length, err := codec.DecodeVarint(r)
	if err != nil {
		return 0, nil, wrapReadErr(err)
	}
	if length == 0 {
		return 0, nil, pricingerrors.ErrPricing.Wrapf("pixie protocol error: zero-length frame")
	}
	tagByte, err := r.ReadByte()
	if err != nil {
		return 0, nil, wrapReadErr(err)
	}
	body := make([]byte, length-1)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, wrapReadErr(err)
	}
	return Tag(tagByte), body, nil
}

func wrapReadErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return pricingerrors.ErrTransport.Wrap("end of socket stream")
	}
	return pricingerrors.ErrTransport.Wrapf("failed to read from socket: %v", err)
}

// bodyReader wraps a decoded message body for the codec.DecodeVarint /
// codec.DecodeString primitives, which need an io.ByteReader / *bufio.Reader.
func bodyReader(body []byte) *bufio.Reader {
	return bufio.NewReader(bytes.NewReader(body))
}
