package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// Signature is a caller-chosen record tag, conventionally four ASCII
// characters packed with the first character in the most significant byte.
type Signature uint32

// ParseSignature packs up to four bytes of s into a Signature.
// Extra bytes are ignored and missing bytes are zero filled:
//
//	"ABCD"  => 0x41424344
//	"ABCDE" => 0x41424344
//	"A"     => 0x41000000
func ParseSignature(s string) Signature {
	var sig uint32
	i := 0
	for ; i < len(s) && i < 4; i++ {
		sig = sig<<8 | uint32(s[i])
	}
	for ; i < 4; i++ {
		sig <<= 8
	}
	return Signature(sig)
}

// ParseSignatureArg accepts either a hex literal ("0x53744450") or text ("StDP")
func ParseSignatureArg(arg string) (Signature, error) {
	if strings.HasPrefix(arg, "0x") || strings.HasPrefix(arg, "0X") {
		v, err := strconv.ParseUint(arg[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid signature %q: %w", arg, err)
		}
		return Signature(v), nil
	}
	if arg == "" {
		return 0, fmt.Errorf("empty signature")
	}
	return ParseSignature(arg), nil
}

// Bytes returns the four signature bytes, most significant first
func (s Signature) Bytes() [4]byte {
	return [4]byte{byte(s >> 24), byte(s >> 16), byte(s >> 8), byte(s)}
}

// Char returns the byte at index (0 is the most significant), or 0 when out of range
func (s Signature) Char(index int) byte {
	if index < 0 || index > 3 {
		return 0
	}
	return byte(s >> ((3 - index) * 8))
}

// String returns the four signature bytes as text
func (s Signature) String() string {
	b := s.Bytes()
	return string(b[:])
}

// Hex returns the signature as a 0x-prefixed hex literal
func (s Signature) Hex() string {
	return fmt.Sprintf("0x%08X", uint32(s))
}
