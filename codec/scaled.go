package codec

import (
	"strconv"
	"strings"
)

// pow10 returns 10^n for small nonnegative n via table lookup, falling back
// to repeated multiplication beyond the table (scales above 18 are not used
// by the protocol but are handled defensively).
var pow10Table = [19]uint64{
	1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000,
	1000000000, 10000000000, 100000000000, 1000000000000,
	10000000000000, 100000000000000, 1000000000000000,
	10000000000000000, 100000000000000000, 1000000000000000000,
}

func pow10(scale uint) uint64 {
	if int(scale) < len(pow10Table) {
		return pow10Table[scale]
	}
	v := pow10Table[len(pow10Table)-1]
	for i := len(pow10Table) - 1; uint(i) < scale; i++ {
		v *= 10
	}
	return v
}

// ScaledDoubleToString renders the integer v, interpreted at decimal scale,
// as the decimal string equivalent to v / 10^scale. The sign is prepended
// when v is negative; the result always contains a decimal point, with
// trailing fractional zeros trimmed down to (but not past) a single digit.
func ScaledDoubleToString(v int64, scale uint) string {
	neg := v < 0
	mag := uint64(v)
	if neg {
		mag = uint64(-v)
	}

	divisor := pow10(scale)
	whole := mag / divisor
	frac := mag % divisor

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatUint(whole, 10))
	b.WriteByte('.')

	if scale == 0 {
		b.WriteByte('0')
		return b.String()
	}

	fracStr := strconv.FormatUint(frac, 10)
	if pad := int(scale) - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		fracStr = "0"
	}
	b.WriteString(fracStr)
	return b.String()
}

// ScaledLongToString renders the integer v, interpreted at decimal scale, as
// the decimal string equivalent to v * 10^scale: the value's digits followed
// by `scale` zeros.
func ScaledLongToString(v int64, scale uint) string {
	if scale == 0 {
		return strconv.FormatInt(v, 10)
	}
	neg := v < 0
	mag := uint64(v)
	if neg {
		mag = uint64(-v)
	}
	s := strconv.FormatUint(mag, 10) + strings.Repeat("0", int(scale))
	if neg {
		return "-" + s
	}
	return s
}
