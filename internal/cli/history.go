package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forkful/tasteledger/internal/event"
	"github.com/forkful/tasteledger/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	Household string
	Subject   string
}

// HistoryRow is one ledger event in command output.
type HistoryRow struct {
	ID         string `json:"id"`
	SubjectID  string `json:"subject_id"`
	MealID     string `json:"meal_id"`
	Kind       string `json:"kind"`
	DecidedAt  string `json:"decided_at"`
	ActionedAt string `json:"actioned_at,omitempty"`
	Action     string `json:"action,omitempty"`
	Marker     string `json:"marker,omitempty"`
	Original   bool   `json:"original"`
}

// HistoryResult is the full listing for one household or subject.
type HistoryResult struct {
	Household string       `json:"household"`
	Subject   string       `json:"subject,omitempty"`
	Events    []HistoryRow `json:"events"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List ledger events for a household",
		Long: `List ledger events for a household, oldest first.

With --subject, only events for that decision occasion are shown: the
original plus every feedback copy written against it.

Examples:
  tasteledger history --db ./taste.db --household hh-1
  tasteledger history --db ./taste.db --household hh-1 --subject subj-42 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Household, "household", "", "tenant key (required)")
	_ = cmd.MarkFlagRequired("household")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "restrict to one decision occasion")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var events []event.DecisionEvent
	if opts.Subject != "" {
		events, err = st.ListSubjectEvents(cmd.Context(), opts.Household, opts.Subject)
	} else {
		events, err = st.ListHouseholdEvents(cmd.Context(), opts.Household)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list events", err)
	}

	result := HistoryResult{
		Household: opts.Household,
		Subject:   opts.Subject,
		Events:    make([]HistoryRow, 0, len(events)),
	}
	for _, e := range events {
		row := HistoryRow{
			ID:        e.ID,
			SubjectID: e.SubjectID,
			MealID:    e.SubjectMealID,
			Kind:      e.DecisionKind,
			DecidedAt: e.DecidedAt.UTC().Format(time.RFC3339),
			Action:    string(e.Action),
			Marker:    string(e.Marker),
			Original:  e.IsOriginal(),
		}
		if e.ActionedAt != nil {
			row.ActionedAt = e.ActionedAt.UTC().Format(time.RFC3339)
		}
		result.Events = append(result.Events, row)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}
	for _, row := range result.Events {
		if row.Original {
			fmt.Fprintf(w, "%s  %s  original  subject=%s meal=%s kind=%s\n",
				row.DecidedAt, row.ID, row.SubjectID, row.MealID, row.Kind)
			continue
		}
		label := row.Action
		if row.Marker != "" {
			label = fmt.Sprintf("%s(%s)", row.Action, row.Marker)
		}
		fmt.Fprintf(w, "%s  %s  %-9s subject=%s meal=%s kind=%s\n",
			row.ActionedAt, row.ID, label, row.SubjectID, row.MealID, row.Kind)
	}
	fmt.Fprintf(w, "\n%d event(s)\n", len(result.Events))
	return nil
}
