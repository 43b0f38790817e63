package store

import (
	"fmt"
	"sync"
)

// DefaultMemoryQuota matches the usable blob space of a small NVS partition
const DefaultMemoryQuota = 24576

// KVStats counts the primitive operations performed against a key-value store
type KVStats struct {
	Opens   int
	Gets    int
	Sets    int
	Erases  int
	Commits int
	Closes  int
}

// MemoryKVStore emulates an NVS partition in RAM. Each namespace has a byte
// quota counting key and value sizes; writes are staged per handle and
// applied on Commit.
type MemoryKVStore struct {
	namespaces map[string]map[string][]byte
	quota      int
	stats      KVStats
	mutex      sync.Mutex
}

// NewMemoryKVStore creates an empty store. quotaBytes <= 0 disables the quota.
func NewMemoryKVStore(quotaBytes int) *MemoryKVStore {
	return &MemoryKVStore{
		namespaces: make(map[string]map[string][]byte),
		quota:      quotaBytes,
	}
}

// Open opens namespace. A read-only open of a namespace that was never
// opened read-write fails with ErrNamespaceNotFound.
func (m *MemoryKVStore) Open(namespace string, mode OpenMode) (KVHandle, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.namespaces[namespace]; !exists {
		if mode == ReadOnly {
			return nil, fmt.Errorf("%w: %s", ErrNamespaceNotFound, namespace)
		}
		m.namespaces[namespace] = make(map[string][]byte)
	}
	m.stats.Opens++

	return &memoryKVHandle{
		store:     m,
		namespace: namespace,
		mode:      mode,
		pending:   make(map[string][]byte),
	}, nil
}

// EraseNamespace removes every key of namespace immediately
func (m *MemoryKVStore) EraseNamespace(namespace string) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.namespaces[namespace]; !exists {
		return fmt.Errorf("%w: %s", ErrNamespaceNotFound, namespace)
	}
	m.namespaces[namespace] = make(map[string][]byte)
	m.stats.Erases++
	return nil
}

// Stats returns operation counters
func (m *MemoryKVStore) Stats() KVStats {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.stats
}

// Corrupt applies fn to the committed value of key, simulating media damage
func (m *MemoryKVStore) Corrupt(namespace, key string, fn func([]byte)) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	value, exists := m.namespaces[namespace][key]
	if !exists {
		return ErrNotFound
	}
	fn(value)
	return nil
}

type memoryKVHandle struct {
	store     *MemoryKVStore
	namespace string
	mode      OpenMode
	pending   map[string][]byte
	erased    bool
	closed    bool
}

// view returns the value of key as this handle sees it
func (h *memoryKVHandle) view(key string) ([]byte, bool) {
	if value, exists := h.pending[key]; exists {
		return value, true
	}
	if h.erased {
		return nil, false
	}
	value, exists := h.store.namespaces[h.namespace][key]
	return value, exists
}

// usage returns the bytes used by the namespace as this handle sees it
func (h *memoryKVHandle) usage() int {
	used := 0
	for key, value := range h.pending {
		used += len(key) + len(value)
	}
	if h.erased {
		return used
	}
	for key, value := range h.store.namespaces[h.namespace] {
		if _, shadowed := h.pending[key]; !shadowed {
			used += len(key) + len(value)
		}
	}
	return used
}

func (h *memoryKVHandle) GetBlob(key string) ([]byte, error) {
	if h.closed {
		return nil, ErrInvalidHandle
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	h.store.mutex.Lock()
	defer h.store.mutex.Unlock()
	h.store.stats.Gets++

	value, exists := h.view(key)
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (h *memoryKVHandle) SetBlob(key string, value []byte) error {
	if h.closed {
		return ErrInvalidHandle
	}
	if h.mode != ReadWrite {
		return ErrReadOnly
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if len(value) > MaxBlobSize {
		return ErrValueTooLong
	}

	h.store.mutex.Lock()
	defer h.store.mutex.Unlock()
	h.store.stats.Sets++

	if h.store.quota > 0 {
		used := h.usage()
		if old, exists := h.view(key); exists {
			used -= len(key) + len(old)
		}
		if used+len(key)+len(value) > h.store.quota {
			return fmt.Errorf("%w: %d of %d bytes used", ErrNotEnoughSpace, used, h.store.quota)
		}
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	h.pending[key] = stored
	return nil
}

func (h *memoryKVHandle) EraseAll() error {
	if h.closed {
		return ErrInvalidHandle
	}
	if h.mode != ReadWrite {
		return ErrReadOnly
	}

	h.store.mutex.Lock()
	defer h.store.mutex.Unlock()
	h.store.stats.Erases++

	h.erased = true
	h.pending = make(map[string][]byte)
	return nil
}

func (h *memoryKVHandle) Commit() error {
	if h.closed {
		return ErrInvalidHandle
	}
	if h.mode != ReadWrite {
		return ErrReadOnly
	}

	h.store.mutex.Lock()
	defer h.store.mutex.Unlock()
	h.store.stats.Commits++

	if h.erased {
		h.store.namespaces[h.namespace] = make(map[string][]byte)
	}
	ns := h.store.namespaces[h.namespace]
	for key, value := range h.pending {
		ns[key] = value
	}

	h.erased = false
	h.pending = make(map[string][]byte)
	return nil
}

func (h *memoryKVHandle) Close() error {
	if h.closed {
		return ErrInvalidHandle
	}
	h.closed = true

	h.store.mutex.Lock()
	defer h.store.mutex.Unlock()
	h.store.stats.Closes++

	h.pending = nil
	return nil
}
