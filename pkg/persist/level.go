package persist

import (
	"fmt"
	"strings"
)

// LogLevel controls how much a Save or Load call reports. It never changes
// what the call does or returns.
type LogLevel uint8

const (
	// LogSilent emits nothing
	LogSilent LogLevel = 0
	// LogReadWrite emits one line per Save or Load outcome
	LogReadWrite LogLevel = 1
	// LogVerbose adds frame sizes and store usage
	LogVerbose LogLevel = 2
)

func (l LogLevel) String() string {
	switch l {
	case LogSilent:
		return "silent"
	case LogReadWrite:
		return "readwrite"
	case LogVerbose:
		return "verbose"
	default:
		return fmt.Sprintf("LogLevel(%d)", uint8(l))
	}
}

// ParseLogLevel converts a name or number to a LogLevel
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent", "no", "0":
		return LogSilent, nil
	case "readwrite", "rw", "1":
		return LogReadWrite, nil
	case "verbose", "2":
		return LogVerbose, nil
	default:
		return LogSilent, fmt.Errorf("invalid verbosity %q: must be one of silent, readwrite, verbose", s)
	}
}
