package persist

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ssargent/nvrecord/pkg/codec"
)

// Binding ties a fixed-size value type to one record location. T must be
// encodable by encoding/binary: fixed-size numbers, bools, arrays and structs
// of those. Values are stored little-endian.
type Binding[T any] struct {
	adapter   Adapter
	signature codec.Signature
	offset    uint16
}

// NewBinding binds T to the record at (sig, offset) of adapter
func NewBinding[T any](adapter Adapter, sig codec.Signature, offset uint16) *Binding[T] {
	return &Binding[T]{adapter: adapter, signature: sig, offset: offset}
}

// Signature returns the bound signature
func (b *Binding[T]) Signature() codec.Signature { return b.signature }

// Offset returns the bound offset
func (b *Binding[T]) Offset() uint16 { return b.offset }

// Size returns the encoded size of T, or -1 when T is not fixed-size
func (b *Binding[T]) Size() int {
	var zero T
	return binary.Size(&zero)
}

// Save encodes v and saves it
func (b *Binding[T]) Save(v *T, level LogLevel) error {
	size := binary.Size(v)
	if size < 0 {
		return fmt.Errorf("%w: %T", ErrUnsupportedType, *v)
	}

	buf := bytes.NewBuffer(make([]byte, 0, size))
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedType, err)
	}
	return b.adapter.Save(b.signature, b.offset, buf.Bytes(), level)
}

// Load loads the record into v. v is only modified when the record is valid.
func (b *Binding[T]) Load(v *T, level LogLevel) error {
	size := b.Size()
	if size < 0 {
		return fmt.Errorf("%w: %T", ErrUnsupportedType, *v)
	}

	buf := make([]byte, size)
	if err := b.adapter.Load(b.signature, b.offset, buf, level); err != nil {
		return err
	}

	var decoded T
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &decoded); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedType, err)
	}
	*v = decoded
	return nil
}
