package codec

import (
	"encoding/binary"
	"fmt"
)

// FlatHeaderSize is the size of a flat-store header: Signature(4) + Length(4) + Checksum(1)
const FlatHeaderSize = 9

// FlatHeader is the self-describing prefix written in front of a payload in a
// flat byte store. The store has no per-record metadata, so the signature acts
// as a magic number and the length as a layout check.
type FlatHeader struct {
	Signature Signature
	Length    uint32
	Checksum  uint8
}

// NewFlatHeader builds the header for payload under sig
func NewFlatHeader(sig Signature, payload []byte) FlatHeader {
	return FlatHeader{
		Signature: sig,
		Length:    uint32(len(payload)),
		Checksum:  Checksum(payload),
	}
}

// Put writes the header into dst, which must hold at least FlatHeaderSize bytes
// Format: [Signature(4)][Length(4)][Checksum(1)], little-endian
func (h FlatHeader) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:], uint32(h.Signature))
	binary.LittleEndian.PutUint32(dst[4:], h.Length)
	dst[8] = h.Checksum
}

// Bytes returns the encoded header
func (h FlatHeader) Bytes() []byte {
	buf := make([]byte, FlatHeaderSize)
	h.Put(buf)
	return buf
}

// Matches reports whether the header identifies a record of sig with length bytes
func (h FlatHeader) Matches(sig Signature, length int) bool {
	return h.Signature == sig && int64(h.Length) == int64(length)
}

// ParseFlatHeader decodes a header from src
func ParseFlatHeader(src []byte) (FlatHeader, error) {
	if len(src) < FlatHeaderSize {
		return FlatHeader{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrLengthMismatch, FlatHeaderSize, len(src))
	}
	return FlatHeader{
		Signature: Signature(binary.LittleEndian.Uint32(src[0:4])),
		Length:    binary.LittleEndian.Uint32(src[4:8]),
		Checksum:  src[8],
	}, nil
}
