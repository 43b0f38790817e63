package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/nvrecord/pkg/config"
	"github.com/ssargent/nvrecord/pkg/di"
	"github.com/ssargent/nvrecord/pkg/persist"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <offset>",
		Short: "Show the record header stored at an offset",
		Long: `Decode the flat-store header at an offset without validating the
record. Useful to find out which signature and length a sector holds.

Example:
  nvrec --flat-path eeprom.bin inspect 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := parseOffset(args[0])
			if err != nil {
				return err
			}

			return a.withBackend(cmd, func(backend *di.Backend, _ persist.LogLevel) error {
				if backend.Flat == nil {
					return fmt.Errorf("inspect is only supported by the %s backend", config.BackendFlat)
				}

				header, err := backend.Flat.Inspect(offset)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "offset:    %d\n", offset)
				fmt.Fprintf(w, "signature: %s %q\n", header.Signature.Hex(), header.Signature.String())
				fmt.Fprintf(w, "length:    %d\n", header.Length)
				fmt.Fprintf(w, "checksum:  0x%02X\n", header.Checksum)
				return nil
			})
		},
	}
}
