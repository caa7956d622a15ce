package cmd

import (
	"github.com/lehigh-university-libraries/concord/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Consensus and variance evaluation tools",
		Long: `Evaluation tools for measuring how far digitised editions of a work deviate
from their chapter-by-chapter consensus.

Supports running evaluations over manifests or loose edition files, printing
reports from saved results, inspecting how edition files are read, converting
editions into row corpora, and listing recorded runs.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			evalcmd.SetupLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	// Add eval subcommands
	cmd.AddCommand(evalcmd.NewRunCmd())
	cmd.AddCommand(evalcmd.NewReportCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())
	cmd.AddCommand(evalcmd.NewConvertCmd())
	cmd.AddCommand(evalcmd.NewHistoryCmd())

	return cmd
}
