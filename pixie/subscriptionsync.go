package pixie

import (
	"sort"

	"github.com/bidfx-oss/pricing-go/codec"
	"github.com/bidfx-oss/pricing-go/pricing"
)

// SubscriptionOp names a control operation applied to a subject within a
// SubscriptionSync message's optional controls block.
type SubscriptionOp byte

const (
	OpSubscribe   SubscriptionOp = 0
	OpUnsubscribe SubscriptionOp = 1
)

// subscriptionControl is a (sid, operation) control record.
type subscriptionControl struct {
	Sid uint64
	Op  SubscriptionOp
}

// SubscriptionSyncMessage declares the client's full desired subscription
// set under a new edition, ported from subscription_sync_message.py. The
// client only ever sends this message; DecodeSubscriptionSyncMessage exists
// to support the round-trip testable property (spec §8) and any future
// server-side tooling, not production traffic.
type SubscriptionSyncMessage struct {
	Edition    uint64
	Subjects   []pricing.Subject
	Compressed bool
	Controls   bool
	Unchanged  bool
	Sids       []subscriptionControl
}

// NewSubscriptionSyncMessage builds an uncompressed, control-free
// SubscriptionSyncMessage; SubscriptionRegister.SubscriptionSync sets
// Compressed itself for the editions it emits.
func NewSubscriptionSyncMessage(edition uint64, subjects []pricing.Subject) *SubscriptionSyncMessage {
	return &SubscriptionSyncMessage{Edition: edition, Subjects: subjects}
}

// Encode renders the message body. Each subject's flattened string list is
// compressed individually, using a single compressor instance scoped to
// this one message (not the connection-level stream) so its deflate window
// carries across subjects within the message — ground truth per
// subscription_sync_message.py's per-message `self.compressor = Compressor()`,
// a deliberate deviation from the connection-scoped streams DataDictionary
// and PriceSync use on the receive side (see DESIGN.md).
func (m *SubscriptionSyncMessage) Encode() []byte {
	option := uint64(0)
	if m.Compressed {
		option |= 1
	}
	if m.Controls {
		option |= 2
	}
	if m.Unchanged {
		option |= 4
	}

	var body []byte
	body = codec.EncodeVarint(body, option)
	body = codec.EncodeVarint(body, m.Edition)
	body = codec.EncodeVarint(body, uint64(len(m.Subjects)))

	var messageCompressor *codec.CompressorStream
	if m.Compressed {
		messageCompressor = codec.NewCompressorStream()
	}
	for _, s := range m.Subjects {
		encoded := codec.EncodeStringList(nil, s.Flatten())
		if m.Compressed {
			compressed, _ := messageCompressor.Compress(encoded)
			encoded = compressed
		}
		body = append(body, encoded...)
	}

	if m.Controls {
		sids := append([]subscriptionControl(nil), m.Sids...)
		sort.Slice(sids, func(i, j int) bool { return sids[i].Sid < sids[j].Sid })
		var control []byte
		control = codec.EncodeVarint(control, uint64(len(sids)))
		for _, sc := range sids {
			control = codec.EncodeVarint(control, sc.Sid)
			control = append(control, byte(sc.Op))
		}
		if m.Compressed {
			compressed, _ := messageCompressor.Compress(control)
			control = compressed
		}
		body = append(body, control...)
	}
	return body
}

// DecodeSubscriptionSyncMessage decodes a SubscriptionSync message body.
// This message is never received in production — the client only ever sends
// it — so decode exists solely to exercise the round-trip testable property.
// When compressed, every subject's string list plus the optional controls
// block were deflated back-to-back through one message-scoped compressor, so
// the whole remainder is decompressed in a single call (the same
// whole-buffer-at-once pattern DecodeDataDictionaryMessage and
// DecodePriceSyncMessage use), then each self-delimiting string list is
// parsed off the resulting plaintext in turn.
func DecodeSubscriptionSyncMessage(body []byte, decompressor *codec.DecompressorStream) (*SubscriptionSyncMessage, error) {
	r := bodyReader(body)
	option, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	compressed := option&1 != 0
	controls := option&2 != 0
	unchanged := option&4 != 0

	edition, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	size, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}

	payload, err := remainingBytes(r)
	if err != nil {
		return nil, err
	}
	if compressed {
		payload, err = decompressor.Decompress(payload)
		if err != nil {
			return nil, err
		}
	}
	pr := bodyReader(payload)

	subjects := make([]pricing.Subject, 0, size)
	for i := uint64(0); i < size; i++ {
		flat, err := codec.DecodeStringList(pr)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, pricing.NewSubjectFromMap(flattenToMap(flat)))
	}

	msg := &SubscriptionSyncMessage{
		Edition: edition, Subjects: subjects, Compressed: compressed,
		Controls: controls, Unchanged: unchanged,
	}
	if controls {
		count, err := codec.DecodeVarint(pr)
		if err != nil {
			return nil, err
		}
		sids := make([]subscriptionControl, 0, count)
		for i := uint64(0); i < count; i++ {
			sid, err := codec.DecodeVarint(pr)
			if err != nil {
				return nil, err
			}
			opByte, err := pr.ReadByte()
			if err != nil {
				return nil, wrapReadErr(err)
			}
			sids = append(sids, subscriptionControl{Sid: sid, Op: SubscriptionOp(opByte)})
		}
		msg.Sids = sids
	}
	return msg, nil
}

func flattenToMap(flat []string) map[string]string {
	m := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		m[flat[i]] = flat[i+1]
	}
	return m
}
