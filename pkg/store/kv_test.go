package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kvFactory func(t *testing.T, quota int) KVStore

func kvFactories() map[string]kvFactory {
	return map[string]kvFactory{
		"memory": func(t *testing.T, quota int) KVStore {
			return NewMemoryKVStore(quota)
		},
		"pebble": func(t *testing.T, quota int) KVStore {
			s, err := OpenPebbleKVStore(KVStoreConfig{Path: filepath.Join(t.TempDir(), "pebble"), QuotaBytes: quota})
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"sqlite": func(t *testing.T, quota int) KVStore {
			s, err := OpenSQLiteKVStore(KVStoreConfig{Path: filepath.Join(t.TempDir(), "nv.db"), QuotaBytes: quota})
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func putBlob(t *testing.T, s KVStore, namespace, key string, value []byte) {
	t.Helper()
	h, err := s.Open(namespace, ReadWrite)
	require.NoError(t, err)
	require.NoError(t, h.SetBlob(key, value))
	require.NoError(t, h.Commit())
	require.NoError(t, h.Close())
}

func getBlob(t *testing.T, s KVStore, namespace, key string) ([]byte, error) {
	t.Helper()
	h, err := s.Open(namespace, ReadOnly)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return h.GetBlob(key)
}

func TestKVStore_Contract(t *testing.T) {
	for name, factory := range kvFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("SetCommitGet", func(t *testing.T) {
				s := factory(t, 0)
				putBlob(t, s, "EEP", "eep:CFG1-0000", []byte{1, 2, 3})

				value, err := getBlob(t, s, "EEP", "eep:CFG1-0000")
				require.NoError(t, err)
				assert.Equal(t, []byte{1, 2, 3}, value)
			})

			t.Run("ReadOnlyMissingNamespace", func(t *testing.T) {
				s := factory(t, 0)
				_, err := s.Open("nothing", ReadOnly)
				assert.True(t, errors.Is(err, ErrNamespaceNotFound), "got %v", err)
			})

			t.Run("MissingKey", func(t *testing.T) {
				s := factory(t, 0)
				putBlob(t, s, "EEP", "a", []byte("x"))

				_, err := getBlob(t, s, "EEP", "b")
				assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
			})

			t.Run("CloseWithoutCommitDiscards", func(t *testing.T) {
				s := factory(t, 0)
				putBlob(t, s, "EEP", "kept", []byte("1"))

				h, err := s.Open("EEP", ReadWrite)
				require.NoError(t, err)
				require.NoError(t, h.SetBlob("dropped", []byte("2")))
				require.NoError(t, h.Close())

				_, err = getBlob(t, s, "EEP", "dropped")
				assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
				value, err := getBlob(t, s, "EEP", "kept")
				require.NoError(t, err)
				assert.Equal(t, []byte("1"), value)
			})

			t.Run("ReadYourWrites", func(t *testing.T) {
				s := factory(t, 0)
				h, err := s.Open("EEP", ReadWrite)
				require.NoError(t, err)
				defer h.Close()

				require.NoError(t, h.SetBlob("k", []byte("v")))
				value, err := h.GetBlob("k")
				require.NoError(t, err)
				assert.Equal(t, []byte("v"), value)
			})

			t.Run("ReadOnlyRejectsWrites", func(t *testing.T) {
				s := factory(t, 0)
				putBlob(t, s, "EEP", "k", []byte("v"))

				h, err := s.Open("EEP", ReadOnly)
				require.NoError(t, err)
				defer h.Close()
				assert.True(t, errors.Is(h.SetBlob("k", []byte("w")), ErrReadOnly))
				assert.True(t, errors.Is(h.EraseAll(), ErrReadOnly))
				assert.True(t, errors.Is(h.Commit(), ErrReadOnly))
			})

			t.Run("EraseAllIsNamespaceScoped", func(t *testing.T) {
				s := factory(t, 0)
				putBlob(t, s, "EEP", "a", []byte("1"))
				putBlob(t, s, "EEP", "b", []byte("2"))
				putBlob(t, s, "OTHER", "a", []byte("3"))

				h, err := s.Open("EEP", ReadWrite)
				require.NoError(t, err)
				require.NoError(t, h.EraseAll())
				require.NoError(t, h.SetBlob("c", []byte("4")))
				require.NoError(t, h.Commit())
				require.NoError(t, h.Close())

				_, err = getBlob(t, s, "EEP", "a")
				assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
				_, err = getBlob(t, s, "EEP", "b")
				assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
				value, err := getBlob(t, s, "EEP", "c")
				require.NoError(t, err)
				assert.Equal(t, []byte("4"), value)
				value, err = getBlob(t, s, "OTHER", "a")
				require.NoError(t, err)
				assert.Equal(t, []byte("3"), value)
			})

			t.Run("Quota", func(t *testing.T) {
				s := factory(t, 20)
				h, err := s.Open("EEP", ReadWrite)
				require.NoError(t, err)
				defer h.Close()

				// key(1) + value(10) = 11 bytes
				require.NoError(t, h.SetBlob("a", make([]byte, 10)))
				err = h.SetBlob("b", make([]byte, 10))
				assert.True(t, errors.Is(err, ErrNotEnoughSpace), "got %v", err)

				// replacing a value only counts the difference
				require.NoError(t, h.SetBlob("a", make([]byte, 19)))

				require.NoError(t, h.EraseAll())
				require.NoError(t, h.SetBlob("b", make([]byte, 10)))
				require.NoError(t, h.Commit())
			})

			t.Run("KeyValidation", func(t *testing.T) {
				s := factory(t, 0)
				h, err := s.Open("EEP", ReadWrite)
				require.NoError(t, err)
				defer h.Close()

				assert.True(t, errors.Is(h.SetBlob("0123456789abcdef", []byte{1}), ErrKeyTooLong))
				assert.True(t, errors.Is(h.SetBlob("", []byte{1}), ErrInvalidName))
				assert.True(t, errors.Is(h.SetBlob("k", make([]byte, MaxBlobSize+1)), ErrValueTooLong))
			})

			t.Run("InvalidNamespace", func(t *testing.T) {
				s := factory(t, 0)
				_, err := s.Open("", ReadWrite)
				assert.True(t, errors.Is(err, ErrInvalidName))
				_, err = s.Open("namespace-too-long", ReadWrite)
				assert.True(t, errors.Is(err, ErrInvalidName))
			})

			t.Run("ClosedHandle", func(t *testing.T) {
				s := factory(t, 0)
				h, err := s.Open("EEP", ReadWrite)
				require.NoError(t, err)
				require.NoError(t, h.Close())

				assert.True(t, errors.Is(h.Close(), ErrInvalidHandle))
				_, err = h.GetBlob("k")
				assert.True(t, errors.Is(err, ErrInvalidHandle))
				assert.True(t, errors.Is(h.SetBlob("k", nil), ErrInvalidHandle))
			})

			t.Run("BinaryKey", func(t *testing.T) {
				s := factory(t, 0)
				key := "eep:\xff\x00AB-0001"
				putBlob(t, s, "EEP", key, []byte{9})

				value, err := getBlob(t, s, "EEP", key)
				require.NoError(t, err)
				assert.Equal(t, []byte{9}, value)
			})
		})
	}
}

func TestMemoryKVStore_Stats(t *testing.T) {
	s := NewMemoryKVStore(0)
	putBlob(t, s, "EEP", "k", []byte("v"))

	assert.Equal(t, KVStats{Opens: 1, Sets: 1, Commits: 1, Closes: 1}, s.Stats())
}

func TestMemoryKVStore_EraseNamespace(t *testing.T) {
	s := NewMemoryKVStore(0)
	putBlob(t, s, "EEP", "k", []byte("v"))

	require.NoError(t, s.EraseNamespace("EEP"))
	_, err := getBlob(t, s, "EEP", "k")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(s.EraseNamespace("missing"), ErrNamespaceNotFound))
}

func TestMemoryKVStore_Corrupt(t *testing.T) {
	s := NewMemoryKVStore(0)
	putBlob(t, s, "EEP", "k", []byte{0x01})

	require.NoError(t, s.Corrupt("EEP", "k", func(b []byte) { b[0] ^= 0x80 }))
	value, err := getBlob(t, s, "EEP", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x81}, value)

	assert.True(t, errors.Is(s.Corrupt("EEP", "missing", func([]byte) {}), ErrNotFound))
}

func TestPebbleKVStore_EraseNamespace(t *testing.T) {
	s, err := OpenPebbleKVStore(KVStoreConfig{Path: filepath.Join(t.TempDir(), "pebble")})
	require.NoError(t, err)
	defer s.Close()

	putBlob(t, s, "EEP", "k", []byte("v"))
	require.NoError(t, s.EraseNamespace("EEP"))

	_, err = getBlob(t, s, "EEP", "k")
	assert.True(t, errors.Is(err, ErrNotFound), "namespace marker must survive the erase, got %v", err)
}

func TestSQLiteKVStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nv.db")

	s, err := OpenSQLiteKVStore(KVStoreConfig{Path: path})
	require.NoError(t, err)
	putBlob(t, s, "EEP", "k", []byte("durable"))
	require.NoError(t, s.Close())

	s, err = OpenSQLiteKVStore(KVStoreConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()

	value, err := getBlob(t, s, "EEP", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("durable"), value)

	require.NoError(t, s.EraseNamespace("EEP"))
	_, err = getBlob(t, s, "EEP", "k")
	assert.True(t, errors.Is(err, ErrNotFound))
}
