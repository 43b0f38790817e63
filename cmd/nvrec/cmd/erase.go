package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/nvrecord/pkg/di"
	"github.com/ssargent/nvrecord/pkg/persist"
)

func newEraseCmd(a *app) *cobra.Command {
	var yes bool

	eraseCmd := &cobra.Command{
		Use:   "erase",
		Short: "Erase every record in the key-value namespace",
		Long: `Erase every record in the configured key-value namespace. This cannot
be undone.

Example:
  nvrec --backend kv --kv-engine pebble erase --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to erase without --yes")
			}

			return a.withBackend(cmd, func(backend *di.Backend, _ persist.LogLevel) error {
				if err := backend.EraseNamespace(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Erased namespace %s\n", backend.KV.Namespace())
				return nil
			})
		},
	}

	eraseCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the erase")
	return eraseCmd
}
