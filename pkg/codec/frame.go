package codec

import (
	"encoding/binary"
	"fmt"
)

// FrameHeaderSize is the size of the key-value frame header: Length(2) + Checksum(1)
const FrameHeaderSize = 3

// MaxFrameLength is the largest payload length a frame header can describe
const MaxFrameLength = 0xFFFF

// RecordCodec handles serialization and deserialization of key-value frames
type RecordCodec struct {
	maxFrameSize int
}

// NewRecordCodec creates a codec whose encoded frames never exceed maxFrameSize bytes
func NewRecordCodec(maxFrameSize int) *RecordCodec {
	return &RecordCodec{maxFrameSize: maxFrameSize}
}

// MaxFrameSize returns the frame size ceiling, header included
func (c *RecordCodec) MaxFrameSize() int {
	return c.maxFrameSize
}

// MaxPayload returns the largest payload that fits in a frame
func (c *RecordCodec) MaxPayload() int {
	n := c.maxFrameSize - FrameHeaderSize
	if n > MaxFrameLength {
		return MaxFrameLength
	}
	if n < 0 {
		return 0
	}
	return n
}

// Encode serializes a payload into a frame
// Format: [Length(2)][Checksum(1)][Payload], little-endian
func (c *RecordCodec) Encode(payload []byte) ([]byte, error) {
	if len(payload) > c.MaxPayload() {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFrameTooLarge, FrameHeaderSize+len(payload), c.maxFrameSize)
	}

	buf := make([]byte, FrameHeaderSize+len(payload))
	binary.LittleEndian.PutUint16(buf[0:], uint16(len(payload)))
	buf[2] = Checksum(payload)
	copy(buf[FrameHeaderSize:], payload)

	return buf, nil
}

// Decode validates a frame and returns a copy of its payload.
// The frame must carry exactly expectedLength payload bytes and a matching checksum.
func (c *RecordCodec) Decode(raw []byte, expectedLength uint16) ([]byte, error) {
	if len(raw) < FrameHeaderSize {
		return nil, fmt.Errorf("%w: frame too short for header (%d bytes)", ErrLengthMismatch, len(raw))
	}

	length := binary.LittleEndian.Uint16(raw[0:2])
	if length != expectedLength {
		return nil, fmt.Errorf("%w: stored %d, expected %d", ErrLengthMismatch, length, expectedLength)
	}
	if len(raw) != FrameHeaderSize+int(length) {
		return nil, fmt.Errorf("%w: frame holds %d bytes, header declares %d", ErrLengthMismatch, len(raw)-FrameHeaderSize, length)
	}

	payload := raw[FrameHeaderSize:]
	if sum := Checksum(payload); sum != raw[2] {
		return nil, fmt.Errorf("%w: stored 0x%02X, computed 0x%02X", ErrChecksumMismatch, raw[2], sum)
	}

	out := make([]byte, length)
	copy(out, payload)
	return out, nil
}
