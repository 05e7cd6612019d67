package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/trainingdesk/internal/config"
	"github.com/shaharia-lab/trainingdesk/internal/service"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

// NewCanApplyCmd returns the "can-apply" subcommand.
func NewCanApplyCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	var userID, actorID int64
	cmd := &cobra.Command{
		Use:   "can-apply",
		Short: "Check whether a member may request training",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cfg, opts, func(a *app) error {
				if actorID == 0 {
					actorID = userID
				}
				d, err := a.trainingSvc.CanApply(cmd.Context(), actorID, userID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if d.Allowed() {
					fmt.Fprintln(out, "allowed")
					return nil
				}
				fmt.Fprintf(out, "denied (%s): %s\n", d.Code(), d.Reason())
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Member id")
	cmd.Flags().Int64Var(&actorID, "actor", 0, "Id of the user asking (defaults to --user)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// NewApplyCmd returns the "apply" subcommand.
func NewApplyCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	var req service.ApplyRequest
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Open a training request",
		Long: `Open a training request. Members apply for themselves and are checked
against the eligibility rules; moderators may file for another member with --for.`,
		Example: `  trainingdesk apply --user 1001 --area 1 --rating 3
  trainingdesk apply --user 2001 --for 1001 --area 1 --rating 9 --rating 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cfg, opts, func(a *app) error {
				t, err := a.trainingSvc.Apply(cmd.Context(), req)
				if err != nil {
					return err
				}
				printTraining(cmd.OutOrStdout(), t)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&req.ActorID, "user", 0, "Id of the member submitting the request")
	cmd.Flags().Int64Var(&req.UserID, "for", 0, "Trainee id when filing on behalf of someone else")
	cmd.Flags().Int64Var(&req.AreaID, "area", 0, "Training area id")
	cmd.Flags().Int64SliceVar(&req.RatingIDs, "rating", nil, "Rating id (repeatable)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("area")
	return cmd
}

// NewTransitionCmd returns the "transition" subcommand.
func NewTransitionCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	var actorID, trainingID int64
	var to string
	cmd := &cobra.Command{
		Use:   "transition",
		Short: "Move a training to another status",
		Long: `Move a training to another status. Valid targets: ` + strings.Join(statusNames(), ", ") + `.
Entering pre_training or awaiting_exam notifies the trainee.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, ok := training.ParseStatus(to)
			if !ok {
				return &service.ValidationError{Field: "to", Message: fmt.Sprintf("unknown status %q", to)}
			}
			return withApp(cfg, opts, func(a *app) error {
				t, err := a.trainingSvc.Transition(cmd.Context(), actorID, trainingID, status)
				if err != nil {
					return err
				}
				printTraining(cmd.OutOrStdout(), t)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&actorID, "actor", 0, "Id of the user performing the change")
	cmd.Flags().Int64Var(&trainingID, "training", 0, "Training id")
	cmd.Flags().StringVar(&to, "to", "", "Target status")
	for _, f := range []string{"actor", "training", "to"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

// NewTogglePreTrainingCmd returns the "toggle-pretraining" subcommand.
func NewTogglePreTrainingCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	var actorID, trainingID int64
	cmd := &cobra.Command{
		Use:   "toggle-pretraining",
		Short: "Flip the pre-training completed flag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cfg, opts, func(a *app) error {
				t, err := a.trainingSvc.TogglePreTraining(cmd.Context(), actorID, trainingID)
				if err != nil {
					return err
				}
				printTraining(cmd.OutOrStdout(), t)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&actorID, "actor", 0, "Id of the user performing the change")
	cmd.Flags().Int64Var(&trainingID, "training", 0, "Training id")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("training")
	return cmd
}

// NewCloseCmd returns the "close" subcommand.
func NewCloseCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	var actorID, trainingID int64
	cmd := &cobra.Command{
		Use:   "close",
		Short: "Withdraw a queued training request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cfg, opts, func(a *app) error {
				t, err := a.trainingSvc.Close(cmd.Context(), actorID, trainingID)
				if err != nil {
					return err
				}
				printTraining(cmd.OutOrStdout(), t)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&actorID, "actor", 0, "Id of the request owner")
	cmd.Flags().Int64Var(&trainingID, "training", 0, "Training id")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("training")
	return cmd
}

func printTraining(w io.Writer, t *training.Training) {
	area := fmt.Sprintf("area %d", t.AreaID)
	if t.Area != nil {
		area = t.Area.Name
	}
	fmt.Fprintf(w, "Training %d: %s in %s, status %s", t.ID, t.InlineRatings(), area, t.Status)
	if t.Status == training.StatusPreTraining && t.PreTrainingCompleted {
		fmt.Fprint(w, " (pre-training completed)")
	}
	fmt.Fprintln(w)
}

func statusNames() []string {
	return []string{
		training.StatusPreTraining.String(),
		training.StatusActiveTraining.String(),
		training.StatusAwaitingExam.String(),
		training.StatusCompleted.String(),
		training.StatusClosed.String(),
	}
}
