package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/trainingdesk/internal/config"
	"github.com/shaharia-lab/trainingdesk/internal/storage"
)

// withApp opens the application for the duration of fn.
func withApp(cfg *config.AppConfig, opts *globalOptions, fn func(a *app) error) error {
	a, err := openApp(cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// NewMigrateCmd returns the "migrate" subcommand.
func NewMigrateCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cfg, opts, func(a *app) error {
				v, err := storage.SchemaVersion(cmd.Context(), a.db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Database ready at %s (schema version %d)\n", cfg.DBPath(), v)
				return nil
			})
		},
	}
}

// NewSeedCmd returns the "seed" subcommand that loads a YAML fixture.
func NewSeedCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load ratings, areas and users from a YAML fixture",
		Long: `Load ratings, areas and users from a YAML fixture. Existing rows with the
same id are replaced, including a user's permissions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, opts, func(a *app) error {
				n, err := storage.LoadSeed(cmd.Context(), a.trainings, args[0])
				if err != nil {
					return err
				}
				a.logger.Info("seed loaded", "file", args[0], "ratings", n.Ratings, "areas", n.Areas, "users", n.Users)
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d ratings, %d areas, %d users\n", n.Ratings, n.Areas, n.Users)
				return nil
			})
		},
	}
}

// NewSettingsCmd returns the "settings" subcommand group.
func NewSettingsCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change runtime settings",
	}

	var actorID int64
	getCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, opts, func(a *app) error {
				all, err := a.settingsSvc.All(cmd.Context(), actorID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					v, ok := all[args[0]]
					if !ok {
						return fmt.Errorf("unknown setting %q", args[0])
					}
					fmt.Fprintln(out, v)
					return nil
				}
				keys := make([]string, 0, len(all))
				for k := range all {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				rows := make([][]string, 0, len(keys))
				for _, k := range keys {
					rows = append(rows, []string{k, all[k]})
				}
				fmt.Fprintln(out, renderTable(out, []string{"Key", "Value"}, rows, nil))
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a setting",
		Example: `  trainingdesk settings set --actor 2003 trainingEnabled false
  trainingdesk settings set --actor 2003 trainingSubDivisions "POR, SPA"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, opts, func(a *app) error {
				if err := a.settingsSvc.Set(cmd.Context(), actorID, args[0], strings.TrimSpace(args[1])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], a.settings.GetString(args[0]))
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{getCmd, setCmd} {
		c.Flags().Int64Var(&actorID, "actor", 0, "Id of the user running the command")
		_ = c.MarkFlagRequired("actor")
	}
	cmd.AddCommand(getCmd, setCmd)
	return cmd
}

// NewAssignMentorCmd returns the "assign-mentor" subcommand.
func NewAssignMentorCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	var trainingID, mentorID int64
	cmd := &cobra.Command{
		Use:   "assign-mentor",
		Short: "Attach a mentor to a training",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cfg, opts, func(a *app) error {
				if err := a.trainings.AssignMentor(cmd.Context(), trainingID, mentorID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %d now mentors training %d\n", mentorID, trainingID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&trainingID, "training", 0, "Training id")
	cmd.Flags().Int64Var(&mentorID, "mentor", 0, "Mentor user id")
	_ = cmd.MarkFlagRequired("training")
	_ = cmd.MarkFlagRequired("mentor")
	return cmd
}

