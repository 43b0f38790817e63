// Package codec provides record framing and integrity checking for nvrecord.
//
// The codec package implements the on-media representation of small fixed-size
// records kept in non-volatile storage. It is pure logic: no I/O happens here.
//
// # Frame Format
//
// Records written to a key-value store are serialized as one blob:
//
//	[Length(2)][Checksum(1)][Payload]
//
// Records written to a flat byte store are prefixed with a longer header,
// because the store itself keeps no per-record metadata:
//
//	[Signature(4)][Length(4)][Checksum(1)][Payload]
//
// All multi-byte fields are little-endian and are packed byte by byte, so the
// layout does not depend on the host architecture.
//
// # Checksum
//
// The checksum is an 8-bit additive sum over the payload bytes only, seeded
// with 45 and accumulated as a signed 8-bit value that wraps on overflow. It
// detects accidental corruption; it is not a cryptographic digest. Since it
// is a sum, reordering payload bytes does not change it.
//
// # Usage
//
//	c := codec.NewRecordCodec(1984)
//
//	frame, err := c.Encode(payload)
//	if err != nil {
//	    return err // ErrFrameTooLarge
//	}
//
//	payload, err = c.Decode(frame, uint16(len(payload)))
//	if err != nil {
//	    return err // ErrLengthMismatch or ErrChecksumMismatch
//	}
//
// # Error Handling
//
// Decode rejects the whole record when either the declared length differs
// from the caller's expectation or the checksum does not match. There is no
// partial payload recovery.
package codec
