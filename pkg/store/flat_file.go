package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// FileFlatStore keeps an emulated EEPROM sector in a file mapped into memory.
// Sessions buffer their writes and End copies the buffer into the mapping and
// msyncs it.
type FileFlatStore struct {
	file   *os.File
	mmap   []byte
	path   string
	active bool
	mutex  sync.Mutex
}

// OpenFileFlatStore opens or creates the sector file described by config.
// A new file is sized to config.SectorSize and initialized to the erased state.
func OpenFileFlatStore(config FlatStoreConfig) (*FileFlatStore, error) {
	if config.SectorSize <= 0 {
		return nil, fmt.Errorf("invalid sector size: %d", config.SectorSize)
	}
	if err := os.MkdirAll(filepath.Dir(config.Path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create sector directory: %w", err)
	}

	f, err := os.OpenFile(config.Path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open sector file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	fresh := stat.Size() == 0
	if !fresh && stat.Size() != int64(config.SectorSize) {
		f.Close()
		return nil, fmt.Errorf("sector file %s is %d bytes, expected %d", config.Path, stat.Size(), config.SectorSize)
	}
	if fresh {
		if err := f.Truncate(int64(config.SectorSize)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to size sector file: %w", err)
		}
	}

	mmap, err := unix.Mmap(int(f.Fd()), 0, config.SectorSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap sector file: %w", err)
	}

	if fresh {
		for i := range mmap {
			mmap[i] = erasedByte
		}
		if err := unix.Msync(mmap, unix.MS_SYNC); err != nil {
			unix.Munmap(mmap)
			f.Close()
			return nil, fmt.Errorf("failed to initialize sector file: %w", err)
		}
	}

	return &FileFlatStore{
		file: f,
		mmap: mmap,
		path: config.Path,
	}, nil
}

// Capacity returns the sector size
func (s *FileFlatStore) Capacity() int {
	return len(s.mmap)
}

// Begin opens a session over the first size bytes of the sector
func (s *FileFlatStore) Begin(size int) (FlatSession, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.mmap == nil {
		return nil, fmt.Errorf("%w: store is closed", ErrInvalidHandle)
	}
	if size <= 0 || size > len(s.mmap) {
		return nil, fmt.Errorf("%w: session size %d, sector %d", ErrOutOfRange, size, len(s.mmap))
	}
	if s.active {
		return nil, fmt.Errorf("%w: session already open", ErrInvalidHandle)
	}
	s.active = true

	return newFlatSession(s.mmap[:size], s.commit, s.release), nil
}

func (s *FileFlatStore) commit(shadow []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copy(s.mmap, shadow)
	if err := unix.Msync(s.mmap, unix.MS_SYNC); err != nil {
		return fmt.Errorf("failed to msync sector: %w", err)
	}
	return nil
}

func (s *FileFlatStore) release() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.active = false
}

// Path returns the sector file path
func (s *FileFlatStore) Path() string {
	return s.path
}

// Close unmaps and closes the sector file
func (s *FileFlatStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.mmap == nil {
		return nil
	}

	var firstErr error
	if err := unix.Munmap(s.mmap); err != nil {
		firstErr = fmt.Errorf("failed to unmap sector: %w", err)
	}
	s.mmap = nil
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close sector file: %w", err)
	}
	return firstErr
}
