package persist

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ssargent/nvrecord/pkg/codec"
	"github.com/ssargent/nvrecord/pkg/metrics"
	"github.com/ssargent/nvrecord/pkg/store"
)

const kvBackend = "kv"

const (
	// DefaultNamespace is the namespace every record lives in
	DefaultNamespace = "EEP"
	// DefaultValueBufferSize bounds a stored frame, header included
	DefaultValueBufferSize = 1984
	keyPrefix              = "eep:"
)

// KVAdapterConfig holds configuration for a KVAdapter
type KVAdapterConfig struct {
	Namespace       string // Defaults to DefaultNamespace
	ValueBufferSize int    // Defaults to DefaultValueBufferSize
	Logger          *slog.Logger
	Metrics         *metrics.Recorder
	Yield           func() // Called once after every read-write handle is closed
}

// KVAdapter stores each record as one blob, [length u16][checksum u8][payload],
// under a key derived from its signature and offset.
//
// When the namespace runs out of space, Save erases the WHOLE namespace and
// retries the write once. Every other record in the namespace is lost. This
// keeps the newest record writable on a full partition at the cost of the rest.
type KVAdapter struct {
	store     store.KVStore
	namespace string
	codec     *codec.RecordCodec
	diag      diagnostics
	metrics   *metrics.Recorder
	yield     func()
}

// NewKVAdapter creates a key-value adapter over s
func NewKVAdapter(s store.KVStore, config KVAdapterConfig) *KVAdapter {
	logger, yield := orDefaults(config.Logger, config.Yield)

	namespace := config.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	bufferSize := config.ValueBufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultValueBufferSize
	}

	return &KVAdapter{
		store:     s,
		namespace: namespace,
		codec:     codec.NewRecordCodec(bufferSize),
		diag:      diagnostics{logger: logger, backend: kvBackend},
		metrics:   config.Metrics,
		yield:     yield,
	}
}

// Namespace returns the namespace records are stored in
func (a *KVAdapter) Namespace() string {
	return a.namespace
}

// MaxPayload returns the largest payload Save accepts
func (a *KVAdapter) MaxPayload() int {
	return a.codec.MaxPayload()
}

// DeriveKey returns the storage key of the record at (sig, offset): "eep:",
// the four raw signature bytes, "-" and the offset as four uppercase hex
// digits. Keys are always 13 bytes.
func DeriveKey(sig codec.Signature, offset uint16) string {
	b := sig.Bytes()
	return fmt.Sprintf("%s%s-%04X", keyPrefix, b[:], offset)
}

// Save frames payload and writes it in one read-write handle
func (a *KVAdapter) Save(sig codec.Signature, offset uint16, payload []byte, level LogLevel) (err error) {
	start := time.Now()
	key := DeriveKey(sig, offset)
	erased := false

	defer func() {
		a.metrics.RecordOperation(kvBackend, "save", resultLabel(err), len(payload), time.Since(start))
		a.diag.report(level, "save", sig, err,
			[]any{"offset", offset, "length", len(payload)},
			[]any{"key", fmt.Sprintf("%q", key), "frame_size", codec.FrameHeaderSize + len(payload),
				"max_frame_size", a.codec.MaxFrameSize(), "namespace_erased", erased})
	}()

	frame, err := a.codec.Encode(payload)
	if err != nil {
		return err
	}

	erased, err = a.put(key, frame, level)
	a.yield()
	return err
}

// put opens the namespace read-write, writes frame and commits. The handle is
// closed on every path.
func (a *KVAdapter) put(key string, frame []byte, level LogLevel) (erased bool, err error) {
	handle, err := a.store.Open(a.namespace, store.ReadWrite)
	if err != nil {
		return false, fmt.Errorf("%w: open %s: %w", ErrStoreUnavailable, a.namespace, err)
	}
	defer func() {
		if closeErr := handle.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: close: %w", ErrStoreWriteFailed, closeErr)
		}
	}()

	err = handle.SetBlob(key, frame)
	if errors.Is(err, store.ErrNotEnoughSpace) {
		erased = true
		if level != LogSilent {
			a.diag.logger.Warn("namespace full, erasing all records",
				"backend", kvBackend, "namespace", a.namespace, "frame_size", len(frame))
		}
		a.metrics.RecordNamespaceErasure(kvBackend)

		if err = handle.EraseAll(); err == nil {
			err = handle.SetBlob(key, frame)
		}
	}
	if err != nil {
		return erased, fmt.Errorf("%w: %w", ErrStoreWriteFailed, err)
	}

	if err := handle.Commit(); err != nil {
		return erased, fmt.Errorf("%w: commit: %w", ErrStoreWriteFailed, err)
	}
	return erased, nil
}

// Load fetches the record at (sig, offset) and copies its payload into out
// after checking its length and checksum
func (a *KVAdapter) Load(sig codec.Signature, offset uint16, out []byte, level LogLevel) (err error) {
	start := time.Now()
	key := DeriveKey(sig, offset)
	stored := -1

	defer func() {
		a.metrics.RecordOperation(kvBackend, "load", resultLabel(err), len(out), time.Since(start))
		a.diag.report(level, "load", sig, err,
			[]any{"offset", offset, "length", len(out)},
			[]any{"key", fmt.Sprintf("%q", key), "stored_size", stored})
	}()

	if len(out) > codec.MaxFrameLength {
		return fmt.Errorf("%w: %d-byte destination exceeds the length field", ErrFrameTooLarge, len(out))
	}

	raw, err := a.get(key)
	if err != nil {
		return err
	}
	stored = len(raw)

	payload, err := a.codec.Decode(raw, uint16(len(out)))
	if err != nil {
		return err
	}
	copy(out, payload)
	return nil
}

func (a *KVAdapter) get(key string) ([]byte, error) {
	handle, err := a.store.Open(a.namespace, store.ReadOnly)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStoreUnavailable, a.namespace, err)
	}
	defer func() { _ = handle.Close() }()

	raw, err := handle.GetBlob(key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return raw, nil
}
