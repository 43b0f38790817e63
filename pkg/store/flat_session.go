package store

import "fmt"

// erasedByte is the value of a never-written flash cell
const erasedByte = 0xFF

// flatSession buffers a copy of the sector, the way an EEPROM emulation
// keeps a RAM image that is written back to flash on commit.
type flatSession struct {
	shadow  []byte
	dirty   bool
	ended   bool
	commit  func(shadow []byte) error
	release func()
}

func newFlatSession(image []byte, commit func([]byte) error, release func()) *flatSession {
	shadow := make([]byte, len(image))
	copy(shadow, image)
	return &flatSession{
		shadow:  shadow,
		commit:  commit,
		release: release,
	}
}

func (s *flatSession) checkRange(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(s.shadow) {
		return fmt.Errorf("%w: [%d, %d) outside session of %d bytes", ErrOutOfRange, offset, offset+length, len(s.shadow))
	}
	return nil
}

// ReadBytes returns a copy of length bytes at offset
func (s *flatSession) ReadBytes(offset, length int) ([]byte, error) {
	if s.ended {
		return nil, ErrInvalidHandle
	}
	if err := s.checkRange(offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, s.shadow[offset:])
	return out, nil
}

// WriteBytes copies data into the session buffer at offset and marks it dirty
func (s *flatSession) WriteBytes(offset int, data []byte) error {
	if s.ended {
		return ErrInvalidHandle
	}
	if err := s.checkRange(offset, len(data)); err != nil {
		return err
	}
	copy(s.shadow[offset:], data)
	s.dirty = true
	return nil
}

// End commits the buffer when dirty and releases the session
func (s *flatSession) End() error {
	if s.ended {
		return ErrInvalidHandle
	}
	s.ended = true
	defer s.release()

	if !s.dirty {
		return nil
	}
	return s.commit(s.shadow)
}
