package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/nvrecord/pkg/codec"
)

func newSignatureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signature <text|0xHEX>",
		Short: "Convert a signature between text and hex",
		Long: `Pack up to four characters into a signature, or unpack a hex
signature into its characters.

Example:
  nvrec signature CFG1
  nvrec signature 0x43464731`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := codec.ParseSignatureArg(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %q %d\n", sig.Hex(), sig.String(), uint32(sig))
			return nil
		},
	}
}
