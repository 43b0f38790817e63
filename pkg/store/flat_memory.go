package store

import (
	"fmt"
	"sync"
)

// FlatStats counts the primitive operations performed against a flat store
type FlatStats struct {
	Begins  int
	Commits int
}

// MemoryFlatStore emulates an EEPROM sector held in RAM. The sector starts in
// the erased state (all 0xFF) and sessions commit their buffer back to it.
type MemoryFlatStore struct {
	flash  []byte
	active bool
	stats  FlatStats
	mutex  sync.Mutex
}

// NewMemoryFlatStore creates an erased sector of sectorSize bytes
func NewMemoryFlatStore(sectorSize int) *MemoryFlatStore {
	flash := make([]byte, sectorSize)
	for i := range flash {
		flash[i] = erasedByte
	}
	return &MemoryFlatStore{flash: flash}
}

// Capacity returns the sector size
func (m *MemoryFlatStore) Capacity() int {
	return len(m.flash)
}

// Begin opens a session over the first size bytes of the sector.
// Only one session may be open at a time.
func (m *MemoryFlatStore) Begin(size int) (FlatSession, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if size <= 0 || size > len(m.flash) {
		return nil, fmt.Errorf("%w: session size %d, sector %d", ErrOutOfRange, size, len(m.flash))
	}
	if m.active {
		return nil, fmt.Errorf("%w: session already open", ErrInvalidHandle)
	}
	m.active = true
	m.stats.Begins++

	return newFlatSession(m.flash[:size], m.commit, m.release), nil
}

func (m *MemoryFlatStore) commit(shadow []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	copy(m.flash, shadow)
	m.stats.Commits++
	return nil
}

func (m *MemoryFlatStore) release() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.active = false
}

// Stats returns operation counters
func (m *MemoryFlatStore) Stats() FlatStats {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.stats
}

// Raw exposes the sector bytes. Changes bypass sessions, which makes it
// useful for simulating media corruption.
func (m *MemoryFlatStore) Raw() []byte {
	return m.flash
}
