package pixie

import (
	"bufio"

	"github.com/bidfx-oss/pricing-go/codec"
	"github.com/bidfx-oss/pricing-go/pricing"
	"github.com/bidfx-oss/pricing-go/pricingerrors"
)

// errorFid is the sentinel fid signalling an error placeholder field slot,
// ported from price_sync_message.py's ERROR_FID (0x7FFFFFFF).
const errorFid = 0x7FFFFFFF

const (
	updateTypePartial = 'p'
	updateTypeFull    = 'f'
	updateTypeStatus  = 's'
)

// statusCodeAdaptor maps a PriceSync status update's single-byte code to a
// SubscriptionStatus, ported verbatim from price_sync_message.py's STATUSES.
var statusCodeAdaptor = map[byte]pricing.SubscriptionStatus{
	'O': pricing.SubOK,
	'P': pricing.SubPending,
	'S': pricing.SubStale,
	'C': pricing.SubCancelled,
	'D': pricing.SubDiscontinued,
	'H': pricing.SubProhibited,
	'U': pricing.SubUnavailable,
	'R': pricing.SubRejected,
	'T': pricing.SubTimeout,
	'I': pricing.SubInactive,
	'E': pricing.SubExhausted,
	'L': pricing.SubClosed,
}

// PriceSyncMessage carries one or more price/status updates keyed by
// (edition, sid), ported from price_sync_message.py's PriceSyncMessage.
// Decoding the update records themselves is deferred to VisitUpdates, which
// needs the subject list for the message's edition and the current
// DataDictionary — neither of which is known until the provider has read
// the header.
type PriceSyncMessage struct {
	Compressed         bool
	Revision           uint64
	RevisionTime       uint64
	ConflationLatency  uint64
	Edition            uint64
	Size               uint64

	buffer *bufio.Reader
}

// DecodePriceSyncMessage decodes a PriceSync message's header and, if
// compressed, feeds the remaining body through decompressor once (mirroring
// the source calling decompressor.decompress(input_stream) exactly once
// with the whole remaining buffer rather than per-update).
func DecodePriceSyncMessage(body []byte, decompressor *codec.DecompressorStream) (*PriceSyncMessage, error) {
	r := bodyReader(body)
	option, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	compressed := option&1 != 0
	revision, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	revisionTime, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	conflationLatency, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	edition, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	size, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}

	rest, err := remainingBytes(r)
	if err != nil {
		return nil, err
	}
	if compressed {
		rest, err = decompressor.Decompress(rest)
		if err != nil {
			return nil, err
		}
	}

	return &PriceSyncMessage{
		Compressed: compressed, Revision: revision, RevisionTime: revisionTime,
		ConflationLatency: conflationLatency, Edition: edition, Size: size,
		buffer: bodyReader(rest),
	}, nil
}

// VisitUpdates decodes each of the message's Size update records in turn,
// dispatching a PriceEvent or SubscriptionEvent to callbacks for each,
// mirroring PriceSyncMessage.visit_updates / _visit_next_update. subjects
// is the subject list for this message's edition, indexed by sid.
func (m *PriceSyncMessage) VisitUpdates(subjects []pricing.Subject, dict DataDictionary, callbacks *pricing.Callbacks) error {
	for i := uint64(0); i < m.Size; i++ {
		if err := m.visitNextUpdate(subjects, dict, callbacks); err != nil {
			return err
		}
	}
	return nil
}

// visitNextUpdate decodes a single update record. The source's
// _visit_next_update contains an "if / if / elif" over the type byte
// rather than "if / elif / elif"; since PARTIAL_MAP, FULL_MAP and STATUS are
// distinct byte values this is behaviorally identical to a plain switch —
// exactly one branch ever matches a given byte — so it is implemented here
// as a switch (see spec's open-questions note on this source quirk).
func (m *PriceSyncMessage) visitNextUpdate(subjects []pricing.Subject, dict DataDictionary, callbacks *pricing.Callbacks) error {
	typeByte, err := m.buffer.ReadByte()
	if err != nil {
		return wrapReadErr(err)
	}
	switch typeByte {
	case updateTypePartial:
		return m.priceUpdate(subjects, dict, callbacks, false)
	case updateTypeFull:
		return m.priceUpdate(subjects, dict, callbacks, true)
	case updateTypeStatus:
		return m.statusUpdate(subjects, callbacks)
	default:
		return pricingerrors.ErrPricing.Wrapf("pixie protocol error: unknown price sync update type %q", typeByte)
	}
}

func (m *PriceSyncMessage) priceUpdate(subjects []pricing.Subject, dict DataDictionary, callbacks *pricing.Callbacks, full bool) error {
	sid, err := codec.DecodeVarint(m.buffer)
	if err != nil {
		return err
	}
	subject, err := subjectForSid(subjects, sid)
	if err != nil {
		return err
	}
	fieldCount, err := codec.DecodeVarint(m.buffer)
	if err != nil {
		return err
	}
	price := make(pricing.Price, fieldCount)
	for i := uint64(0); i < fieldCount; i++ {
		if err := m.visitField(dict, price); err != nil {
			return err
		}
	}
	callbacks.FirePrice(pricing.PriceEvent{Subject: subject, Price: price, Full: full})
	return nil
}

func (m *PriceSyncMessage) visitField(dict DataDictionary, price pricing.Price) error {
	fid, err := codec.DecodeVarint(m.buffer)
	if err != nil {
		return err
	}
	if fid == errorFid {
		return nil
	}
	fd, ok := dict[int64(fid)]
	if !ok {
		return pricingerrors.ErrPricing.Wrapf("pixie protocol error: no field definition for fid %d", fid)
	}
	value, err := fd.DecodeValue(m.buffer)
	if err != nil {
		return err
	}
	if fd.Enabled {
		price[fd.Name] = value
	}
	return nil
}

func (m *PriceSyncMessage) statusUpdate(subjects []pricing.Subject, callbacks *pricing.Callbacks) error {
	sid, err := codec.DecodeVarint(m.buffer)
	if err != nil {
		return err
	}
	subject, err := subjectForSid(subjects, sid)
	if err != nil {
		return err
	}
	codeByte, err := m.buffer.ReadByte()
	if err != nil {
		return wrapReadErr(err)
	}
	status, ok := statusCodeAdaptor[codeByte]
	if !ok {
		return pricingerrors.ErrPricing.Wrapf("pixie protocol error: unknown status code %q", codeByte)
	}
	explanation, err := codec.DecodeNonNullString(m.buffer)
	if err != nil {
		return err
	}
	callbacks.FireSubscription(pricing.SubscriptionEvent{Subject: subject, Status: status, Explanation: explanation})
	return nil
}

// EncodePriceSyncMessage renders a PriceSync message body from pre-encoded
// update records (each produced by EncodeFullOrPartialUpdate or
// EncodeStatusUpdate), used by tests exercising the round-trip property.
// When compressed is true, the concatenated updates are deflated through a
// fresh one-shot compressor stream, mirroring the single whole-buffer
// decompress call on the read side.
func EncodePriceSyncMessage(compressed bool, revision, revisionTime, conflationLatency, edition uint64, updates [][]byte) []byte {
	option := uint64(0)
	if compressed {
		option = 1
	}
	var body []byte
	body = codec.EncodeVarint(body, option)
	body = codec.EncodeVarint(body, revision)
	body = codec.EncodeVarint(body, revisionTime)
	body = codec.EncodeVarint(body, conflationLatency)
	body = codec.EncodeVarint(body, edition)
	body = codec.EncodeVarint(body, uint64(len(updates)))

	var payload []byte
	for _, u := range updates {
		payload = append(payload, u...)
	}
	if compressed {
		compressedPayload, _ := codec.NewCompressorStream().Compress(payload)
		payload = compressedPayload
	}
	return append(body, payload...)
}

// EncodeFullOrPartialUpdate renders a single price-update record. fields
// maps each fid to its already wire-encoded value bytes.
func EncodeFullOrPartialUpdate(sid uint64, full bool, fields map[int64][]byte) []byte {
	typeByte := byte(updateTypePartial)
	if full {
		typeByte = updateTypeFull
	}
	body := []byte{typeByte}
	body = codec.EncodeVarint(body, sid)
	body = codec.EncodeVarint(body, uint64(len(fields)))
	for fid, raw := range fields {
		body = codec.EncodeVarint(body, uint64(fid))
		body = append(body, raw...)
	}
	return body
}

// EncodeStatusUpdate renders a single status-update record.
func EncodeStatusUpdate(sid uint64, code byte, explanation string) []byte {
	body := []byte{updateTypeStatus}
	body = codec.EncodeVarint(body, sid)
	body = append(body, code)
	return codec.EncodeNonNullString(body, explanation)
}

func subjectForSid(subjects []pricing.Subject, sid uint64) (pricing.Subject, error) {
	if sid >= uint64(len(subjects)) {
		return pricing.Subject{}, pricingerrors.ErrPricing.Wrapf("pixie protocol error: sid %d out of range for %d subjects", sid, len(subjects))
	}
	return subjects[sid], nil
}
