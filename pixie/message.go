package pixie

import (
	"github.com/bidfx-oss/pricing-go/codec"
)

// WelcomeMessage is the server's connection-opening handshake message,
// ported from welcome_message.py.
type WelcomeMessage struct {
	Options  uint64
	Version  uint64
	ClientID uint32
	ServerID uint32
}

// DecodeWelcomeMessage decodes a Welcome message body.
func DecodeWelcomeMessage(body []byte) (*WelcomeMessage, error) {
	r := bodyReader(body)
	options, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	version, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	clientID, err := codec.DecodeFixedUint(r, 4)
	if err != nil {
		return nil, err
	}
	serverID, err := codec.DecodeFixedUint(r, 4)
	if err != nil {
		return nil, err
	}
	return &WelcomeMessage{Options: options, Version: version, ClientID: uint32(clientID), ServerID: uint32(serverID)}, nil
}

// Encode renders the Welcome message body, used only by tests exercising the
// round-trip property (the client never sends a Welcome in production).
func (m *WelcomeMessage) Encode() []byte {
	var body []byte
	body = codec.EncodeVarint(body, m.Options)
	body = codec.EncodeVarint(body, m.Version)
	body = codec.EncodeFixedUint(body, uint64(m.ClientID), 4)
	body = codec.EncodeFixedUint(body, uint64(m.ServerID), 4)
	return body
}

// LoginMessage is the client's credentials handshake message, ported from
// login_message.py. The public build deliberately reuses the API name and
// version for the application-info fields, per login_message.py's comment.
type LoginMessage struct {
	Username           string
	Password           string
	Alias              string
	APIName            string
	APIVersion         string
	ApplicationName    string
	ApplicationVersion string
	Product            string
	ProductSerial      string
}

// Encode renders the Login message body: nine length-prefixed strings.
func (m *LoginMessage) Encode() []byte {
	var body []byte
	body = codec.EncodeNonNullString(body, m.Username)
	body = codec.EncodeNonNullString(body, m.Password)
	body = codec.EncodeNonNullString(body, m.Alias)
	body = codec.EncodeNonNullString(body, m.APIName)
	body = codec.EncodeNonNullString(body, m.APIVersion)
	body = codec.EncodeNonNullString(body, m.ApplicationName)
	body = codec.EncodeNonNullString(body, m.ApplicationVersion)
	body = codec.EncodeNonNullString(body, m.Product)
	body = codec.EncodeNonNullString(body, m.ProductSerial)
	return body
}

// DecodeLoginMessage decodes a Login message body, used only by tests (the
// client never receives a Login message in production).
func DecodeLoginMessage(body []byte) (*LoginMessage, error) {
	r := bodyReader(body)
	fields := make([]string, 9)
	for i := range fields {
		s, err := codec.DecodeNonNullString(r)
		if err != nil {
			return nil, err
		}
		fields[i] = s
	}
	return &LoginMessage{
		Username: fields[0], Password: fields[1], Alias: fields[2],
		APIName: fields[3], APIVersion: fields[4],
		ApplicationName: fields[5], ApplicationVersion: fields[6],
		Product: fields[7], ProductSerial: fields[8],
	}, nil
}

// GrantMessage is the server's login response, ported from grant_message.py.
type GrantMessage struct {
	Granted bool
	Reason  string
}

// DecodeGrantMessage decodes a Grant message body.
func DecodeGrantMessage(body []byte) (*GrantMessage, error) {
	r := bodyReader(body)
	b, err := r.ReadByte()
	if err != nil {
		return nil, wrapReadErr(err)
	}
	reason, err := codec.DecodeNonNullString(r)
	if err != nil {
		return nil, err
	}
	return &GrantMessage{Granted: b == 't', Reason: reason}, nil
}

// Encode renders the Grant message body, used only by tests.
func (m *GrantMessage) Encode() []byte {
	b := byte('f')
	if m.Granted {
		b = 't'
	}
	body := []byte{b}
	return codec.EncodeNonNullString(body, m.Reason)
}

// AckMessage acknowledges a PriceSync, ported from ack_message.py. HandlingTime
// is always AckTime - PriceReceivedTime, mirroring the source's constructor.
type AckMessage struct {
	Revision          uint64
	RevisionTime      uint64
	PriceReceivedTime uint64
	AckTime           uint64
	HandlingTime      int64
}

// NewAckMessage builds an AckMessage for the given revision/received time,
// deriving AckTime from nowMillis and HandlingTime as their difference.
func NewAckMessage(revision, revisionTime, priceReceivedTime, nowMillis uint64) *AckMessage {
	return &AckMessage{
		Revision:          revision,
		RevisionTime:      revisionTime,
		PriceReceivedTime: priceReceivedTime,
		AckTime:           nowMillis,
		HandlingTime:      int64(nowMillis) - int64(priceReceivedTime),
	}
}

// Encode renders the Ack message body.
func (m *AckMessage) Encode() []byte {
	var body []byte
	body = codec.EncodeVarint(body, m.Revision)
	body = codec.EncodeVarint(body, m.RevisionTime)
	body = codec.EncodeVarint(body, m.PriceReceivedTime)
	body = codec.EncodeVarint(body, m.AckTime)
	body = codec.EncodeVarint(body, uint64(m.HandlingTime))
	return body
}

// DecodeAckMessage decodes an Ack message body, used only by tests (the
// client never receives an Ack in production).
func DecodeAckMessage(body []byte) (*AckMessage, error) {
	r := bodyReader(body)
	revision, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	revisionTime, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	priceReceivedTime, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	ackTime, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	handlingTime, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	return &AckMessage{
		Revision: revision, RevisionTime: revisionTime, PriceReceivedTime: priceReceivedTime,
		AckTime: ackTime, HandlingTime: int64(handlingTime),
	}, nil
}

// HeartbeatMessage carries no data; its body is always empty.
type HeartbeatMessage struct{}

// Encode renders the (empty) Heartbeat message body.
func (HeartbeatMessage) Encode() []byte { return nil }
