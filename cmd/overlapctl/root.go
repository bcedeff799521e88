package main

import (
	"os"

	"github.com/arnavshah/pair-overlap-api/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "overlapctl",
		Short:         "Find which employees worked together longest on shared projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level for skipped rows and diagnostics")

	logger := func() *logrus.Logger {
		return logging.New(logLevel, "text", cmd.ErrOrStderr())
	}
	cmd.AddCommand(newReportCmd(logger), newValidateCmd())
	return cmd
}

func execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
