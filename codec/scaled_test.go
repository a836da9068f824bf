package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bidfx-oss/pricing-go/codec"
)

func TestScaledDoubleToString(t *testing.T) {
	cases := []struct {
		v     int64
		scale uint
		want  string
	}{
		{0, 0, "0.0"},
		{0, 5, "0.0"},
		{123456789, 5, "1234.56789"},
		{-123456789, 5, "-1234.56789"},
		{100, 2, "1.0"},
		{12345, 2, "123.45"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, codec.ScaledDoubleToString(tc.v, tc.scale))
	}
}

func TestScaledLongToString(t *testing.T) {
	assert.Equal(t, "1234500", codec.ScaledLongToString(12345, 2))
	assert.Equal(t, "-1234500", codec.ScaledLongToString(-12345, 2))
	assert.Equal(t, "42", codec.ScaledLongToString(42, 0))
}
