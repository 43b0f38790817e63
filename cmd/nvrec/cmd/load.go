package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/nvrecord/pkg/di"
	"github.com/ssargent/nvrecord/pkg/persist"
)

func newLoadCmd(a *app) *cobra.Command {
	var (
		length int
		out    string
	)

	loadCmd := &cobra.Command{
		Use:   "load <signature> <offset>",
		Short: "Load and verify a record",
		Long: `Load the record at a signature and offset. The record must hold exactly
--length bytes and pass its checksum. The payload is printed as hex, or
written to --out.

Example:
  nvrec load CFG1 0 --length 4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, offset, err := parseLocation(args)
			if err != nil {
				return err
			}
			if length < 0 {
				return fmt.Errorf("invalid --length %d", length)
			}

			return a.withBackend(cmd, func(backend *di.Backend, verbosity persist.LogLevel) error {
				payload := make([]byte, length)
				if err := backend.Adapter.Load(sig, offset, payload, verbosity); err != nil {
					return err
				}

				if out != "" {
					if err := os.WriteFile(out, payload, 0600); err != nil {
						return fmt.Errorf("failed to write payload: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(payload), out)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(payload))
				return nil
			})
		},
	}

	loadCmd.Flags().IntVarP(&length, "length", "n", 0, "Expected payload length in bytes")
	loadCmd.Flags().StringVarP(&out, "out", "o", "", "Write the payload to this file instead of printing it")
	_ = loadCmd.MarkFlagRequired("length")
	return loadCmd
}
