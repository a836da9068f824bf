package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// EncodeFixedUint appends n as a big-endian fixed-width value occupying
// width bytes (width ∈ {1,2,3,4,8,16}).
func EncodeFixedUint(dst []byte, n uint64, width int) []byte {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[len(buf)-8:], n)
	start := 16 - width
	if width > 8 {
		// widths above 8 only ever carry values that fit in 64 bits on this
		// wire (128-bit fields are reserved but unused); zero-pad the top.
		for i := 0; i < width-8; i++ {
			buf[i] = 0
		}
		start = 0
	} else {
		start = 16 - width
	}
	return append(dst, buf[start:16]...)
}

// DecodeFixedUint reads a big-endian fixed-width unsigned integer occupying
// width bytes.
func DecodeFixedUint(r io.Reader, width int) (uint64, error) {
	if width <= 0 || width > 16 {
		return 0, fmt.Errorf("codec: invalid fixed-width %d", width)
	}
	buf := make([]byte, width)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// DecodeFixedInt reads a big-endian fixed-width two's-complement signed
// integer occupying width bytes (width <= 8).
func DecodeFixedInt(r io.Reader, width int) (int64, error) {
	u, err := DecodeFixedUint(r, width)
	if err != nil {
		return 0, err
	}
	if width >= 8 {
		return int64(u), nil
	}
	signBit := uint64(1) << (uint(width)*8 - 1)
	if u&signBit != 0 {
		return int64(u) - int64(signBit<<1), nil
	}
	return int64(u), nil
}

// EncodeDouble appends a big-endian IEEE-754 binary64.
func EncodeDouble(dst []byte, v float64) []byte {
	return EncodeFixedUint(dst, math.Float64bits(v), 8)
}

// DecodeDouble reads a big-endian IEEE-754 binary64.
func DecodeDouble(r io.Reader) (float64, error) {
	u, err := DecodeFixedUint(r, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// DecodeFloat32 reads a big-endian IEEE-754 binary32, used for the "other
// fixed width" double encoding case in the Pixie field value table.
func DecodeFloat32(r io.Reader) (float32, error) {
	u, err := DecodeFixedUint(r, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(u)), nil
}
