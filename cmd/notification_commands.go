package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/trainingdesk/internal/config"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

var eventAliases = map[string]string{
	"created":       training.EventCreated,
	"pre-training":  training.EventPreTraining,
	"awaiting-exam": training.EventAwaitingExam,
}

func resolveEvent(name string) string {
	if ev, ok := eventAliases[name]; ok {
		return ev
	}
	return name
}

// NewPreviewCmd returns the "preview" subcommand that renders a notification
// without sending it.
func NewPreviewCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	var trainingID, actorID int64
	var event string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the notification for a training without sending it",
		Example: `  trainingdesk preview --actor 2001 --training 7 --event created
  trainingdesk preview --actor 2001 --training 7 --event awaiting-exam`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cfg, opts, func(a *app) error {
				n, err := a.notificationSvc.Preview(cmd.Context(), actorID, resolveEvent(event), trainingID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				m := n.Mail
				fmt.Fprintf(out, "To: %s <%s>\n", m.To.Name, m.To.Address)
				if len(m.Bcc) > 0 {
					fmt.Fprintf(out, "Bcc: %s\n", strings.Join(m.Bcc, ", "))
				}
				if m.Contact != "" {
					fmt.Fprintf(out, "Reply-To: %s\n", m.Contact)
				}
				fmt.Fprintf(out, "Subject: %s\n\n%s\n", m.Subject, m.Body())
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&trainingID, "training", 0, "Training id")
	cmd.Flags().StringVar(&event, "event", "created", "created, pre-training or awaiting-exam")
	cmd.Flags().Int64Var(&actorID, "actor", 0, "Id of the moderator previewing")
	_ = cmd.MarkFlagRequired("training")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

// NewNotificationsCmd returns the "notifications" subcommand group.
func NewNotificationsCmd(cfg *config.AppConfig, opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Inspect and retry notification delivery",
	}

	var limit int
	var actorID int64
	actorFlag := func(c *cobra.Command, usage string, required bool) {
		c.Flags().Int64Var(&actorID, "actor", 0, usage)
		if required {
			_ = c.MarkFlagRequired("actor")
		}
	}

	logCmd := &cobra.Command{
		Use:   "log",
		Short: "List recent mail deliveries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cfg, opts, func(a *app) error {
				entries, err := a.notificationSvc.ListLog(cmd.Context(), actorID, limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						strconv.FormatInt(e.ID, 10),
						e.CreatedAt.Local().Format(time.DateTime),
						e.EventType,
						strconv.FormatInt(e.TrainingID, 10),
						e.Status,
						strconv.Itoa(e.Attempts),
						e.ErrorMsg,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Created", "Event", "Training", "Status", "Attempts", "Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft}))
				return nil
			})
		},
	}
	logCmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")
	actorFlag(logCmd, "Id of the moderator reading the log", true)

	var userID int64
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a member's in-app notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cfg, opts, func(a *app) error {
				if actorID == 0 {
					actorID = userID
				}
				records, err := a.notificationSvc.ListRecords(cmd.Context(), actorID, userID, limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					rows = append(rows, []string{r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Type, r.Data})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, []string{"ID", "Created", "Type", "Data"}, rows, nil))
				return nil
			})
		},
	}
	listCmd.Flags().Int64Var(&userID, "user", 0, "Member id")
	listCmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")
	actorFlag(listCmd, "Id of the user reading (defaults to --user)", false)
	_ = listCmd.MarkFlagRequired("user")

	retryCmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-send failed mail once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cfg, opts, func(a *app) error {
				retried, sent, err := a.notificationSvc.RetryFailed(cmd.Context(), actorID, cfg.OutboxMaxAttempts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d, sent %d\n", retried, sent)
				return nil
			})
		},
	}

	actorFlag(retryCmd, "Id of the moderator retrying", true)

	var resendTraining int64
	var resendEvent string
	resendCmd := &cobra.Command{
		Use:   "resend",
		Short: "Compose and deliver a lifecycle notification again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cfg, opts, func(a *app) error {
				if err := a.notificationSvc.Resend(cmd.Context(), actorID, resolveEvent(resendEvent), resendTraining); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Notification %s sent for training %d\n", resolveEvent(resendEvent), resendTraining)
				return nil
			})
		},
	}
	resendCmd.Flags().Int64Var(&resendTraining, "training", 0, "Training id")
	resendCmd.Flags().StringVar(&resendEvent, "event", "", "created, pre-training or awaiting-exam")
	_ = resendCmd.MarkFlagRequired("training")
	_ = resendCmd.MarkFlagRequired("event")
	actorFlag(resendCmd, "Id of the moderator resending", true)

	cmd.AddCommand(logCmd, listCmd, retryCmd, resendCmd)
	return cmd
}
