package persist

import (
	"io"
	"log/slog"
	"runtime"

	"github.com/ssargent/nvrecord/pkg/codec"
)

// Adapter persists records identified by a signature and an offset.
// Save and Load return nil on success; a non-nil error is both the failure
// flag and its diagnostic. Adapters are not safe for concurrent use.
type Adapter interface {
	// Save frames payload and writes it, replacing any previous record at
	// the same signature and offset.
	Save(sig codec.Signature, offset uint16, payload []byte, level LogLevel) error
	// Load validates the stored record and copies exactly len(out) bytes
	// into out. On failure out is left untouched.
	Load(sig codec.Signature, offset uint16, out []byte, level LogLevel) error
}

var (
	_ Adapter = (*FlatAdapter)(nil)
	_ Adapter = (*KVAdapter)(nil)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func orDefaults(logger *slog.Logger, yield func()) (*slog.Logger, func()) {
	if logger == nil {
		logger = discardLogger()
	}
	if yield == nil {
		yield = runtime.Gosched
	}
	return logger, yield
}

// diagnostics writes the advisory Save/Load lines
type diagnostics struct {
	logger  *slog.Logger
	backend string
}

// report logs the outcome of op. verbose attributes are only added at LogVerbose.
func (d diagnostics) report(level LogLevel, op string, sig codec.Signature, err error, attrs []any, verbose []any) {
	if level == LogSilent {
		return
	}

	args := append([]any{"backend", d.backend, "signature", sig.String()}, attrs...)
	if level >= LogVerbose {
		args = append(args, verbose...)
	}

	if err != nil {
		d.logger.Warn(op+" failed", append(args, "error", err.Error())...)
		return
	}
	d.logger.Info(op+" ok", args...)
}
