package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forkful/tasteledger/internal/event"
	"github.com/forkful/tasteledger/internal/pipeline"
	"github.com/forkful/tasteledger/internal/store"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Database  string
	Household string
	Event     string
	Action    string
	Autopilot bool
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit feedback against a decision event",
		Long: `Submit feedback against a decision event.

Valid actions: approved, rejected, drm_triggered, undo.

The ack always reports recorded=true. Duplicates and out-of-policy
undos are acknowledged with their reason rather than failed; only an
unknown action or unknown event is an error.

Examples:
  tasteledger submit --db ./taste.db --household hh-1 --event <id> --action approved
  tasteledger submit --db ./taste.db --household hh-1 --event <id> --action approved --autopilot
  tasteledger submit --db ./taste.db --household hh-1 --event <id> --action undo --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Household, "household", "", "tenant key (required)")
	_ = cmd.MarkFlagRequired("household")
	cmd.Flags().StringVar(&opts.Event, "event", "", "original decision event id (required)")
	_ = cmd.MarkFlagRequired("event")
	cmd.Flags().StringVar(&opts.Action, "action", "", "feedback action (required)")
	_ = cmd.MarkFlagRequired("action")
	cmd.Flags().BoolVar(&opts.Autopilot, "autopilot", false, "mark the approval as made by automation")

	return cmd
}

func runSubmit(opts *SubmitOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	svc := pipeline.New(st)
	ack, err := svc.Submit(cmd.Context(), event.FeedbackRequest{
		HouseholdKey: opts.Household,
		EventID:      opts.Event,
		Action:       event.Action(opts.Action),
		Autopilot:    opts.Autopilot,
	})
	if err != nil {
		var reqErr *pipeline.RequestError
		if errors.As(err, &reqErr) {
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			_ = formatter.Error(reqErr.Code, reqErr.Message, nil)
			return NewExitError(ExitCommandError, reqErr.Message)
		}
		return WrapExitError(ExitCommandError, "failed to submit feedback", err)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(ack)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Recorded (reason: %s)\n", ack.Reason)
	if ack.Duplicate {
		fmt.Fprintln(w, "  Absorbed by an equivalent prior copy; nothing new written.")
	}
	if ack.EventID != "" {
		fmt.Fprintf(w, "  Copy:   %s\n", ack.EventID)
		if ack.Marker != event.MarkerNone {
			fmt.Fprintf(w, "  Action: %s (marker %s)\n", ack.Action, ack.Marker)
		} else {
			fmt.Fprintf(w, "  Action: %s\n", ack.Action)
		}
		fmt.Fprintf(w, "  Weight: %v\n", ack.Weight)
		fmt.Fprintf(w, "  Score cache updated: %t\n", ack.ScoreCacheUpdated)
		if ack.PantryConsumed > 0 {
			fmt.Fprintf(w, "  Pantry consumed: %d item(s)\n", ack.PantryConsumed)
		}
	}
	return nil
}
