package semver

import (
	"strconv"
)

// Packed is a byte string whose lexicographic order matches the numeric
// order of the Version it encodes.
type Packed string

const (
	// SentinelLow sorts below every packed version. Byte 0x00 never
	// appears in a packed version, which is built only from the ASCII
	// hex alphabet and '!'.
	SentinelLow Packed = "\x00"

	// SentinelHigh sorts above every packed version, for the same reason.
	SentinelHigh Packed = "\xff"
)

// Pack concatenates the length-prefixed hex encoding of each component,
// separated by '!'. The 2-hex-digit length prefix is compared before the
// digits themselves, so a longer numeral (more hex digits) always sorts
// after a shorter one regardless of its leading digit — "10" sorts after
// "9" rather than between "1" and "2".
func Pack(v Version) Packed {
	return Packed(packComponent(v.Major) + "!" + packComponent(v.Minor) + "!" + packComponent(v.Patch))
}

func packComponent(n uint64) string {
	hex := strconv.FormatUint(n, 16)
	return lengthPrefix(len(hex)) + hex
}

// lengthPrefix renders a digit count as 2 hex characters. Version
// components big enough to need more than 255 hex digits are not a
// practical concern.
func lengthPrefix(n int) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{hexDigits[(n>>4)&0xf], hexDigits[n&0xf]})
}
