package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arnavshah/pair-overlap-api/pkg/ingest"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a file has the EmpID, ProjectID, DateFrom and DateTo columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "read input")
			}
			tbl, err := ingest.Parse(data, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s file with %d data rows\n", tbl.Format, len(tbl.Rows))
			return nil
		},
	}
}
