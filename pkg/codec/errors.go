package codec

// Errors
var (
	ErrFrameTooLarge    = &CodecError{"frame too large"}
	ErrLengthMismatch   = &CodecError{"length mismatch"}
	ErrChecksumMismatch = &CodecError{"checksum mismatch"}
)

// CodecError represents a framing or validation error
type CodecError struct {
	Message string
}

func (e *CodecError) Error() string {
	return e.Message
}
