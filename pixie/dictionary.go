package pixie

import (
	"bufio"
	"io"

	"github.com/bidfx-oss/pricing-go/codec"
)

// DataDictionary is the client-side map from fid to FieldDef negotiated at
// connect and kept current across DataDictionary messages, ported from
// spec §3's DataDictionary.
type DataDictionary map[int64]*FieldDef

// Merge folds other's definitions into d in place, overwriting any existing
// entries with the same fid, mirroring dict.update in
// pixie_provider.py's _handle_data_dictionary_message.
func (d DataDictionary) Merge(other DataDictionary) {
	for fid, fd := range other {
		d[fid] = fd
	}
}

// DataDictionaryMessage carries a batch of FieldDef records, replacing or
// merging into the session's DataDictionary depending on Updated, ported
// from data_dictionary_message.py.
type DataDictionaryMessage struct {
	Compressed bool
	Updated    bool
	Fields     []*FieldDef
}

// ToDict folds the message's field definitions into a fresh DataDictionary.
func (m *DataDictionaryMessage) ToDict() DataDictionary {
	dict := make(DataDictionary, len(m.Fields))
	for _, fd := range m.Fields {
		dict[fd.Fid] = fd
	}
	return dict
}

// DecodeDataDictionaryMessage decodes a DataDictionary message body. When
// the compressed bit is set, the remainder of the body (everything after
// the option/size header) is fed through the connection-level decompressor
// stream before the FieldDef records are parsed from it, mirroring
// data_dictionary_message.py passing the whole remaining buffer to
// decompressor.decompress once.
func DecodeDataDictionaryMessage(body []byte, decompressor *codec.DecompressorStream) (*DataDictionaryMessage, error) {
	r := bodyReader(body)
	option, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	compressed := option&1 != 0
	updated := option&2 != 0
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
	fields := make([]*FieldDef, 0, size)
	for i := uint64(0); i < size; i++ {
		fd, err := decodeFieldDefRecord(pr)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fd)
	}
	return &DataDictionaryMessage{Compressed: compressed, Updated: updated, Fields: fields}, nil
}

// Encode renders the DataDictionary message body, used by tests exercising
// the round-trip property (the client never sends a DataDictionary in
// production). When compress is true, the field records are deflated
// through a fresh, one-shot compressor stream (this message's payload is
// never split across calls, so a dedicated stream is equivalent to, and
// simpler than, threading the connection-level one through encode paths
// that don't otherwise need it).
func (m *DataDictionaryMessage) Encode(compress bool) []byte {
	option := uint64(0)
	if compress {
		option |= 1
	}
	if m.Updated {
		option |= 2
	}
	var body []byte
	body = codec.EncodeVarint(body, option)
	body = codec.EncodeVarint(body, uint64(len(m.Fields)))

	var payload []byte
	for _, fd := range m.Fields {
		payload = encodeFieldDefRecord(payload, fd)
	}
	if compress {
		compressed, _ := codec.NewCompressorStream().Compress(payload)
		payload = compressed
	}
	return append(body, payload...)
}

func decodeFieldDefRecord(r *bufio.Reader) (*FieldDef, error) {
	fid, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	typeByte, err := r.ReadByte()
	if err != nil {
		return nil, wrapReadErr(err)
	}
	encodingByte, err := r.ReadByte()
	if err != nil {
		return nil, wrapReadErr(err)
	}
	scale, err := codec.DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	name, err := codec.DecodeNonNullString(r)
	if err != nil {
		return nil, err
	}
	return NewFieldDef(int64(fid), FieldType(typeByte), FieldEncoding(encodingByte), uint(scale), name)
}

func encodeFieldDefRecord(dst []byte, fd *FieldDef) []byte {
	dst = codec.EncodeVarint(dst, uint64(fd.Fid))
	dst = append(dst, byte(fd.Type), byte(fd.Encoding))
	dst = codec.EncodeVarint(dst, uint64(fd.Scale))
	return codec.EncodeNonNullString(dst, fd.Name)
}

// remainingBytes drains every byte left in r, however large, since the
// frame body may exceed bufio's internal buffer size.
func remainingBytes(r *bufio.Reader) ([]byte, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapReadErr(err)
	}
	return buf, nil
}
