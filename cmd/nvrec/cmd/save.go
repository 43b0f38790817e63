package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/nvrecord/pkg/di"
	"github.com/ssargent/nvrecord/pkg/persist"
)

func newSaveCmd(a *app) *cobra.Command {
	var (
		hexPayload string
		file       string
	)

	saveCmd := &cobra.Command{
		Use:   "save <signature> <offset>",
		Short: "Save a record",
		Long: `Save a record at a signature and offset. The payload is given as hex
or read from a file.

Example:
  nvrec save CFG1 0 --hex 0a0b0c0d
  nvrec --backend kv --kv-engine sqlite --kv-path ./nvs.db save 0x43464731 0x20 --file settings.bin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, offset, err := parseLocation(args)
			if err != nil {
				return err
			}

			payload, err := readPayload(hexPayload, file)
			if err != nil {
				return err
			}

			return a.withBackend(cmd, func(backend *di.Backend, verbosity persist.LogLevel) error {
				err := backend.Adapter.Save(sig, offset, payload, verbosity)
				if persist.IsBudgetOverrun(err) {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: record was written past the used-size budget\n")
				}
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes as %s at offset %d (%s backend)\n", len(payload), sig.Hex(), offset, backend.Name)
				return nil
			})
		},
	}

	saveCmd.Flags().StringVar(&hexPayload, "hex", "", "Payload as hex")
	saveCmd.Flags().StringVar(&file, "file", "", "Read the payload from this file")
	return saveCmd
}

func readPayload(hexPayload, file string) ([]byte, error) {
	switch {
	case hexPayload != "" && file != "":
		return nil, errors.New("--hex and --file are mutually exclusive")
	case hexPayload != "":
		payload, err := hex.DecodeString(hexPayload)
		if err != nil {
			return nil, fmt.Errorf("invalid --hex payload: %w", err)
		}
		return payload, nil
	case file != "":
		payload, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload: %w", err)
		}
		return payload, nil
	default:
		return nil, errors.New("one of --hex or --file is required")
	}
}
