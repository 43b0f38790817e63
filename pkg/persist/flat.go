package persist

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ssargent/nvrecord/pkg/codec"
	"github.com/ssargent/nvrecord/pkg/metrics"
	"github.com/ssargent/nvrecord/pkg/store"
)

const flatBackend = "flat"

// FlatAdapterConfig holds configuration for a FlatAdapter
type FlatAdapterConfig struct {
	MaxUsedSize int          // Used-size budget; 0 means the whole store
	Logger      *slog.Logger // nil discards diagnostics
	Metrics     *metrics.Recorder
	Yield       func() // Called once after every write session; defaults to runtime.Gosched
}

// FlatAdapter stores records at fixed offsets of a flat byte store using the
// layout [signature u32][length u32][checksum u8][payload].
//
// A record that ends past the store's capacity is rejected before any session
// is opened. A record that ends past MaxUsedSize but inside the store is
// written and committed, and Save still reports ErrStoreCapacityExceeded; use
// IsBudgetOverrun to tell the two apart.
type FlatAdapter struct {
	store       store.FlatStore
	maxUsedSize int
	diag        diagnostics
	metrics     *metrics.Recorder
	yield       func()
}

// NewFlatAdapter creates a flat adapter over s
func NewFlatAdapter(s store.FlatStore, config FlatAdapterConfig) *FlatAdapter {
	logger, yield := orDefaults(config.Logger, config.Yield)

	maxUsed := config.MaxUsedSize
	if maxUsed <= 0 || maxUsed > s.Capacity() {
		maxUsed = s.Capacity()
	}

	return &FlatAdapter{
		store:       s,
		maxUsedSize: maxUsed,
		diag:        diagnostics{logger: logger, backend: flatBackend},
		metrics:     config.Metrics,
		yield:       yield,
	}
}

// MaxUsedSize returns the effective used-size budget
func (a *FlatAdapter) MaxUsedSize() int {
	return a.maxUsedSize
}

// Save writes the header and payload at offset inside one store session
func (a *FlatAdapter) Save(sig codec.Signature, offset uint16, payload []byte, level LogLevel) (err error) {
	start := time.Now()
	first := int(offset)
	end := first + codec.FlatHeaderSize + len(payload)

	defer func() {
		a.metrics.RecordOperation(flatBackend, "save", resultLabel(err), len(payload), time.Since(start))
		a.diag.report(level, "save", sig, err,
			[]any{"offset", offset, "length", len(payload)},
			[]any{"record_end", end, "capacity", a.store.Capacity(), "max_used_size", a.maxUsedSize})
	}()

	if end > a.store.Capacity() {
		a.metrics.RecordCapacityOverrun(flatBackend)
		return &CapacityError{Start: first, End: end, Limit: a.store.Capacity()}
	}

	err = a.write(sig, first, payload)
	a.yield()
	if err != nil {
		return err
	}

	if end > a.maxUsedSize {
		a.metrics.RecordCapacityOverrun(flatBackend)
		return &CapacityError{Start: first, End: end, Limit: a.maxUsedSize, Written: true}
	}
	return nil
}

// write runs one session; End is called exactly once whatever happens
func (a *FlatAdapter) write(sig codec.Signature, offset int, payload []byte) (err error) {
	session, err := a.store.Begin(a.store.Capacity())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer func() {
		if endErr := session.End(); endErr != nil && err == nil {
			err = fmt.Errorf("%w: commit: %w", ErrStoreWriteFailed, endErr)
		}
	}()

	header := codec.NewFlatHeader(sig, payload)
	if err := session.WriteBytes(offset, header.Bytes()); err != nil {
		return fmt.Errorf("%w: header: %w", ErrStoreWriteFailed, err)
	}
	if err := session.WriteBytes(offset+codec.FlatHeaderSize, payload); err != nil {
		return fmt.Errorf("%w: payload: %w", ErrStoreWriteFailed, err)
	}
	return nil
}

// Load reads the record at offset into out after checking its signature,
// length and checksum
func (a *FlatAdapter) Load(sig codec.Signature, offset uint16, out []byte, level LogLevel) (err error) {
	start := time.Now()
	var found codec.FlatHeader

	defer func() {
		a.metrics.RecordOperation(flatBackend, "load", resultLabel(err), len(out), time.Since(start))
		a.diag.report(level, "load", sig, err,
			[]any{"offset", offset, "length", len(out)},
			[]any{"stored_signature", found.Signature.Hex(), "stored_length", found.Length, "stored_checksum", found.Checksum})
	}()

	payload, found, err := a.read(int(offset), len(out))
	if err != nil {
		return err
	}
	if !found.Matches(sig, len(out)) {
		return fmt.Errorf("%w: want %s/%d, stored %s/%d",
			ErrIdentityMismatch, sig.Hex(), len(out), found.Signature.Hex(), found.Length)
	}
	if sum := codec.Checksum(payload); sum != found.Checksum {
		return fmt.Errorf("%w: computed %d, stored %d", ErrChecksumMismatch, sum, found.Checksum)
	}

	copy(out, payload)
	return nil
}

// Inspect returns the header stored at offset without validating it
func (a *FlatAdapter) Inspect(offset uint16) (codec.FlatHeader, error) {
	_, header, err := a.read(int(offset), 0)
	return header, err
}

// read fetches the header at offset and the length bytes that follow it.
// The payload is only read when the header fits and length is non-zero.
func (a *FlatAdapter) read(offset, length int) ([]byte, codec.FlatHeader, error) {
	headerEnd := offset + codec.FlatHeaderSize
	if headerEnd > a.store.Capacity() {
		return nil, codec.FlatHeader{}, &CapacityError{Start: offset, End: headerEnd, Limit: a.store.Capacity()}
	}

	session, err := a.store.Begin(a.store.Capacity())
	if err != nil {
		return nil, codec.FlatHeader{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer func() { _ = session.End() }()

	raw, err := session.ReadBytes(offset, codec.FlatHeaderSize)
	if err != nil {
		return nil, codec.FlatHeader{}, fmt.Errorf("%w: header: %w", ErrStoreUnavailable, err)
	}
	header, err := codec.ParseFlatHeader(raw)
	if err != nil {
		return nil, codec.FlatHeader{}, err
	}
	if length == 0 || header.Length != uint32(length) {
		return nil, header, nil
	}

	if headerEnd+length > a.store.Capacity() {
		return nil, header, &CapacityError{Start: offset, End: headerEnd + length, Limit: a.store.Capacity()}
	}
	payload, err := session.ReadBytes(headerEnd, length)
	if err != nil {
		return nil, header, fmt.Errorf("%w: payload: %w", ErrStoreUnavailable, err)
	}
	return payload, header, nil
}
