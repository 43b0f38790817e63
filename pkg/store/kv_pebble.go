package store

import (
	"errors"
	"fmt"
	"io"

	"github.com/cockroachdb/pebble"
)

// PebbleKVStore keeps namespaced blobs in a pebble database. A namespace is a
// key prefix ("<namespace>\x00"); the bare prefix is stored as a marker so
// read-only opens can tell a missing namespace from an empty one.
type PebbleKVStore struct {
	db    *pebble.DB
	quota int
}

// OpenPebbleKVStore opens or creates the database at config.Path
func OpenPebbleKVStore(config KVStoreConfig) (*PebbleKVStore, error) {
	db, err := pebble.Open(config.Path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store: %w", err)
	}
	return &PebbleKVStore{db: db, quota: config.QuotaBytes}, nil
}

func namespaceMarker(namespace string) []byte {
	return append([]byte(namespace), 0x00)
}

// namespaceBounds returns the [lower, upper) range holding the namespace's keys
func namespaceBounds(namespace string) ([]byte, []byte) {
	lower := append(namespaceMarker(namespace), 0x00)
	upper := append([]byte(namespace), 0x01)
	return lower, upper
}

func namespacedKey(namespace, key string) []byte {
	return append(namespaceMarker(namespace), key...)
}

// Open opens namespace in the given mode
func (s *PebbleKVStore) Open(namespace string, mode OpenMode) (KVHandle, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}

	marker := namespaceMarker(namespace)
	if mode == ReadOnly {
		_, closer, err := s.db.Get(marker)
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNamespaceNotFound, namespace)
		}
		if err != nil {
			return nil, err
		}
		closer.Close()
	} else if err := s.db.Set(marker, nil, pebble.Sync); err != nil {
		return nil, err
	}

	return &pebbleKVHandle{store: s, namespace: namespace, mode: mode}, nil
}

// EraseNamespace removes every key of namespace immediately
func (s *PebbleKVStore) EraseNamespace(namespace string) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}
	lower, upper := namespaceBounds(namespace)
	return s.db.DeleteRange(lower, upper, pebble.Sync)
}

// Close closes the database
func (s *PebbleKVStore) Close() error {
	return s.db.Close()
}

type pebbleKVHandle struct {
	store     *PebbleKVStore
	namespace string
	mode      OpenMode
	batch     *pebble.Batch // created on first write
	closed    bool
}

func (h *pebbleKVHandle) get(key []byte) ([]byte, error) {
	var (
		value  []byte
		closer io.Closer
		err    error
	)
	if h.batch != nil {
		value, closer, err = h.batch.Get(key)
	} else {
		value, closer, err = h.store.db.Get(key)
	}
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (h *pebbleKVHandle) writeBatch() *pebble.Batch {
	if h.batch == nil {
		h.batch = h.store.db.NewIndexedBatch()
	}
	return h.batch
}

// usage returns the bytes used by the namespace, pending writes included
func (h *pebbleKVHandle) usage() (int, error) {
	lower, upper := namespaceBounds(h.namespace)
	iter, err := h.writeBatch().NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return 0, err
	}

	prefixLen := len(h.namespace) + 1
	used := 0
	for valid := iter.First(); valid; valid = iter.Next() {
		used += len(iter.Key()) - prefixLen + len(iter.Value())
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}
	return used, nil
}

func (h *pebbleKVHandle) GetBlob(key string) ([]byte, error) {
	if h.closed {
		return nil, ErrInvalidHandle
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	value, err := h.get(namespacedKey(h.namespace, key))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return value, err
}

func (h *pebbleKVHandle) SetBlob(key string, value []byte) error {
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

	full := namespacedKey(h.namespace, key)
	if h.store.quota > 0 {
		used, err := h.usage()
		if err != nil {
			return err
		}
		old, err := h.get(full)
		if err == nil {
			used -= len(key) + len(old)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if used+len(key)+len(value) > h.store.quota {
			return fmt.Errorf("%w: %d of %d bytes used", ErrNotEnoughSpace, used, h.store.quota)
		}
	}

	return h.writeBatch().Set(full, value, nil)
}

func (h *pebbleKVHandle) EraseAll() error {
	if h.closed {
		return ErrInvalidHandle
	}
	if h.mode != ReadWrite {
		return ErrReadOnly
	}

	lower, upper := namespaceBounds(h.namespace)
	return h.writeBatch().DeleteRange(lower, upper, nil)
}

func (h *pebbleKVHandle) Commit() error {
	if h.closed {
		return ErrInvalidHandle
	}
	if h.mode != ReadWrite {
		return ErrReadOnly
	}
	if h.batch == nil {
		return nil
	}

	err := h.batch.Commit(pebble.Sync)
	closeErr := h.batch.Close()
	h.batch = nil
	if err != nil {
		return err
	}
	return closeErr
}

func (h *pebbleKVHandle) Close() error {
	if h.closed {
		return ErrInvalidHandle
	}
	h.closed = true

	if h.batch != nil {
		err := h.batch.Close()
		h.batch = nil
		return err
	}
	return nil
}
