package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	// Run the root .env hook as well as the eval logging hook.
	cobra.EnableTraverseRunHooks = true

	cmd := &cobra.Command{
		Use:   "concord",
		Short: "Cross-edition record consensus for literary works",
		Long: `Concord builds a consensus record of a literary work from several digitised
editions and scores every edition against it.

Editions disagree because of OCR errors, abridgement, and editorial changes.
Concord keeps the sentences and words a quorum of editions agree on, chapter
by chapter, and reports how far each edition departs from that consensus.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newEvalCmd())

	return cmd
}
