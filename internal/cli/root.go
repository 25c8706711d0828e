package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the credit-risk command tree and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "credit-risk",
		Short:        "Credit default scoring with per-prediction explanations",
		SilenceUsage: true,
	}
	cmd.AddCommand(serveCmd(), scoreCmd())
	return cmd
}
