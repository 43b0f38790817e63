package store

// FlatStore is a fixed-capacity, byte-addressable non-volatile store, such as
// an emulated EEPROM sector.
type FlatStore interface {
	// Capacity returns the absolute number of addressable bytes.
	Capacity() int
	// Begin opens a write session over the first size bytes of the store.
	Begin(size int) (FlatSession, error)
}

// FlatSession is a scoped view over a FlatStore. Writes are buffered and only
// become durable when End is called.
type FlatSession interface {
	ReadBytes(offset, length int) ([]byte, error)
	WriteBytes(offset int, data []byte) error
	// End commits dirty bytes and releases the session. It must be called
	// exactly once; later calls return ErrInvalidHandle.
	End() error
}

// OpenMode selects how a key-value namespace is opened
type OpenMode int

const (
	ReadOnly OpenMode = iota
	ReadWrite
)

func (m OpenMode) String() string {
	if m == ReadWrite {
		return "readwrite"
	}
	return "readonly"
}

// KVStore is a namespaced blob store addressed by string keys
type KVStore interface {
	Open(namespace string, mode OpenMode) (KVHandle, error)
}

// KVHandle is an open namespace. Writes are staged until Commit; Close
// releases the handle and discards anything not committed.
type KVHandle interface {
	GetBlob(key string) ([]byte, error)
	SetBlob(key string, value []byte) error
	EraseAll() error
	Commit() error
	Close() error
}

// Limits shared by every key-value realization
const (
	MaxNamespaceLength = 15
	MaxKeyLength       = 15
	MaxBlobSize        = 508000
)

// FlatStoreConfig holds configuration for flat byte stores
type FlatStoreConfig struct {
	Path       string // Sector file; empty keeps the sector in memory
	SectorSize int    // Absolute capacity in bytes
}

// KVStoreConfig holds configuration for key-value stores
type KVStoreConfig struct {
	Path       string // Database directory (pebble) or file (sqlite)
	QuotaBytes int    // Bytes per namespace counting keys and values; 0 = unlimited
}

// Errors
var (
	ErrNotFound          = &StoreError{"key not found"}
	ErrNamespaceNotFound = &StoreError{"namespace not found"}
	ErrNotEnoughSpace    = &StoreError{"not enough space"}
	ErrReadOnly          = &StoreError{"handle opened read only"}
	ErrInvalidHandle     = &StoreError{"invalid handle"}
	ErrInvalidName       = &StoreError{"invalid namespace name"}
	ErrKeyTooLong        = &StoreError{"key too long"}
	ErrValueTooLong      = &StoreError{"value too long"}
	ErrOutOfRange        = &StoreError{"address out of range"}
)

// StoreError represents a backing store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

func validateNamespace(namespace string) error {
	if namespace == "" || len(namespace) > MaxNamespaceLength {
		return ErrInvalidName
	}
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrInvalidName
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	return nil
}
