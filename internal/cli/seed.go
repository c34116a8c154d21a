package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forkful/tasteledger/internal/pipeline"
	"github.com/forkful/tasteledger/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database  string
	Household string
	Subject   string
	Meal      string
	Kind      string
	DecidedAt string
	Payload   string
}

// SeedResult holds the seed command's output payload.
type SeedResult struct {
	EventID     string `json:"event_id"`
	Household   string `json:"household"`
	Subject     string `json:"subject"`
	Meal        string `json:"meal"`
	Kind        string `json:"kind"`
	DecidedAt   string `json:"decided_at"`
	Fingerprint string `json:"fingerprint"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Mint an original decision event",
		Long: `Mint an original decision event: the append-only anchor that
feedback copies hang off. The event starts with no action and no
marker; feedback arrives later through submit.

Examples:
  tasteledger seed --db ./taste.db --household hh-1 --subject subj-1 --meal meal-42
  tasteledger seed --db ./taste.db --household hh-1 --subject subj-1 --meal meal-42 \
    --payload '{"slot":"dinner"}' --decided-at 2025-06-10T18:00:00Z`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Household, "household", "", "tenant key (required)")
	_ = cmd.MarkFlagRequired("household")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "decision subject id (required)")
	_ = cmd.MarkFlagRequired("subject")
	cmd.Flags().StringVar(&opts.Meal, "meal", "", "proposed meal id (required)")
	_ = cmd.MarkFlagRequired("meal")
	cmd.Flags().StringVar(&opts.Kind, "kind", "dinner", "decision kind")
	cmd.Flags().StringVar(&opts.DecidedAt, "decided-at", "", "decision time in RFC 3339 (default now)")
	cmd.Flags().StringVar(&opts.Payload, "payload", "{}", "decision payload as a JSON object of strings")

	return cmd
}

func runSeed(opts *SeedOptions, cmd *cobra.Command) error {
	var payload map[string]string
	if err := json.Unmarshal([]byte(opts.Payload), &payload); err != nil {
		return WrapExitError(ExitCommandError, "invalid --payload JSON", err)
	}

	var decidedAt time.Time
	if opts.DecidedAt != "" {
		var err error
		decidedAt, err = time.Parse(time.RFC3339, opts.DecidedAt)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --decided-at", err)
		}
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	svc := pipeline.New(st)
	seeded, err := svc.Seed(cmd.Context(), pipeline.SeedRequest{
		HouseholdKey:  opts.Household,
		SubjectID:     opts.Subject,
		SubjectMealID: opts.Meal,
		DecisionKind:  opts.Kind,
		DecidedAt:     decidedAt,
		Payload:       payload,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to seed event", err)
	}

	result := SeedResult{
		EventID:     seeded.ID,
		Household:   seeded.HouseholdKey,
		Subject:     seeded.SubjectID,
		Meal:        seeded.SubjectMealID,
		Kind:        seeded.DecisionKind,
		DecidedAt:   seeded.DecidedAt.Format(time.RFC3339Nano),
		Fingerprint: seeded.ContextFingerprint,
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Seeded decision event:")
	fmt.Fprintf(w, "  ID:          %s\n", result.EventID)
	fmt.Fprintf(w, "  Subject:     %s\n", result.Subject)
	fmt.Fprintf(w, "  Meal:        %s\n", result.Meal)
	fmt.Fprintf(w, "  Kind:        %s\n", result.Kind)
	fmt.Fprintf(w, "  Decided at:  %s\n", result.DecidedAt)
	fmt.Fprintf(w, "  Fingerprint: %s\n", result.Fingerprint)
	return nil
}
