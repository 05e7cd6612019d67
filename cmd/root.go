package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/trainingdesk/internal/config"
)

// NewRootCmd builds the command tree around cfg.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "trainingdesk",
		Short: "Training request eligibility and notifications",
		Long: `trainingdesk decides whether members may request ATC training, enforces
who may progress a request, and notifies members as their training moves
through the queue.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Also write logs to stderr")

	root.AddCommand(
		NewMigrateCmd(cfg, opts),
		NewSeedCmd(cfg, opts),
		NewSettingsCmd(cfg, opts),
		NewCanApplyCmd(cfg, opts),
		NewApplyCmd(cfg, opts),
		NewTransitionCmd(cfg, opts),
		NewTogglePreTrainingCmd(cfg, opts),
		NewCloseCmd(cfg, opts),
		NewAssignMentorCmd(cfg, opts),
		NewPreviewCmd(cfg, opts),
		NewNotificationsCmd(cfg, opts),
		NewServeCmd(cfg, opts),
		NewVersionCmd(),
	)
	return root
}

// Execute loads configuration from the environment and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
