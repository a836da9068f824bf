package codec

import (
	"bufio"
	"fmt"
	"io"
)

// EncodeString appends a length-prefixed string to dst. A nil *string (the
// string pointer itself being nil) writes the null marker (len 0); an empty
// string writes len 1 with no bytes following; any other string writes
// len(s)+1 followed by the UTF-8 bytes.
func EncodeString(dst []byte, s *string) []byte {
	if s == nil {
		return EncodeVarint(dst, 0)
	}
	dst = EncodeVarint(dst, uint64(len(*s))+1)
	return append(dst, *s...)
}

// EncodeNonNullString is a convenience wrapper for the common case of a
// required (never-null) string field.
func EncodeNonNullString(dst []byte, s string) []byte {
	return EncodeString(dst, &s)
}

// DecodeString reads a length-prefixed string. A nil return indicates the
// wire-level null marker (len == 0).
func DecodeString(r *bufio.Reader) (*string, error) {
	length, err := DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	if length == 1 {
		empty := ""
		return &empty, nil
	}
	buf := make([]byte, length-1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	s := string(buf)
	return &s, nil
}

// DecodeNonNullString reads a length-prefixed string and fails if it decodes
// to null; most protocol fields are mandatory strings.
func DecodeNonNullString(r *bufio.Reader) (string, error) {
	s, err := DecodeString(r)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", fmt.Errorf("codec: unexpected null string")
	}
	return *s, nil
}

// EncodeStringList appends a varint count followed by that many
// length-prefixed strings.
func EncodeStringList(dst []byte, list []string) []byte {
	dst = EncodeVarint(dst, uint64(len(list)))
	for _, s := range list {
		dst = EncodeNonNullString(dst, s)
	}
	return dst
}

// DecodeStringList reads a varint count followed by that many length-prefixed
// strings. An empty list (count == 0) is legal.
func DecodeStringList(r *bufio.Reader) ([]string, error) {
	count, err := DecodeVarint(r)
	if err != nil {
		return nil, err
	}
	list := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		s, err := DecodeNonNullString(r)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}
