package persist

import (
	"errors"
	"fmt"

	"github.com/ssargent/nvrecord/pkg/codec"
	"github.com/ssargent/nvrecord/pkg/metrics"
)

// Errors. Codec failures are surfaced with the codec's own values so that
// errors.Is works the same whichever layer detected them.
var (
	ErrFrameTooLarge         = codec.ErrFrameTooLarge
	ErrLengthMismatch        = codec.ErrLengthMismatch
	ErrChecksumMismatch      = codec.ErrChecksumMismatch
	ErrIdentityMismatch      = &Error{"identity mismatch"}
	ErrKeyNotFound           = &Error{"key not found"}
	ErrStoreUnavailable      = &Error{"store unavailable"}
	ErrStoreCapacityExceeded = &Error{"store capacity exceeded"}
	ErrStoreWriteFailed      = &Error{"store write failed"}
	ErrUnsupportedType       = &Error{"unsupported record type"}
)

// Error represents a persistence error
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// CapacityError reports a record that does not fit in a flat store.
// It matches ErrStoreCapacityExceeded with errors.Is.
type CapacityError struct {
	Start int // first byte of the record
	End   int // one past the last byte of the record
	Limit int // the limit that was crossed
	// Written is set when the record went past the used-size budget but
	// still fit the store, so it was committed anyway.
	Written bool
}

func (e *CapacityError) Error() string {
	if e.Written {
		return fmt.Sprintf("%s: record [%d, %d) written past used-size budget of %d bytes", ErrStoreCapacityExceeded, e.Start, e.End, e.Limit)
	}
	return fmt.Sprintf("%s: record [%d, %d) exceeds %d-byte store", ErrStoreCapacityExceeded, e.Start, e.End, e.Limit)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrStoreCapacityExceeded
}

// IsBudgetOverrun reports whether err is a save that was committed despite
// exceeding the used-size budget
func IsBudgetOverrun(err error) bool {
	var capErr *CapacityError
	return errors.As(err, &capErr) && capErr.Written
}

// resultLabel maps an error onto a short metrics label
func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrFrameTooLarge):
		return "frame_too_large"
	case errors.Is(err, ErrIdentityMismatch):
		return "identity_mismatch"
	case errors.Is(err, ErrKeyNotFound):
		return "key_not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum_mismatch"
	case errors.Is(err, ErrStoreCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrStoreWriteFailed):
		return "write_failed"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	default:
		return "error"
	}
}
