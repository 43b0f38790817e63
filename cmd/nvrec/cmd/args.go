package cmd

import (
	"fmt"
	"strconv"

	"github.com/ssargent/nvrecord/pkg/codec"
)

// parseLocation parses "<signature> <offset>" arguments
func parseLocation(args []string) (codec.Signature, uint16, error) {
	sig, err := codec.ParseSignatureArg(args[0])
	if err != nil {
		return 0, 0, err
	}
	offset, err := parseOffset(args[1])
	if err != nil {
		return 0, 0, err
	}
	return sig, offset, nil
}

// parseOffset accepts decimal, 0x hex or 0o octal offsets
func parseOffset(arg string) (uint16, error) {
	v, err := strconv.ParseUint(arg, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q: must be 0 to 65535", arg)
	}
	return uint16(v), nil
}
