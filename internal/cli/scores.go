package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forkful/tasteledger/internal/store"
)

// ScoresOptions holds flags for the scores command.
type ScoresOptions struct {
	*RootOptions
	Database  string
	Household string
}

// ScoreRow is one meal score cache row in command output.
type ScoreRow struct {
	MealID     string  `json:"meal_id"`
	Score      float64 `json:"score"`
	Approvals  int64   `json:"approvals"`
	Rejections int64   `json:"rejections"`
	UpdatedAt  string  `json:"updated_at"`
}

// ScoresResult is the score cache listing for one household.
type ScoresResult struct {
	Household string     `json:"household"`
	Scores    []ScoreRow `json:"scores"`
}

// NewScoresCommand creates the scores command.
func NewScoresCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScoresOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Show the meal score cache for a household",
		Long: `Show the meal score cache for a household.

Scores accumulate signed taste weights per meal; approvals and
rejections count the verdicts that moved them. Undo copies never
appear here.

Examples:
  tasteledger scores --db ./taste.db --household hh-1
  tasteledger scores --db ./taste.db --household hh-1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScores(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Household, "household", "", "tenant key (required)")
	_ = cmd.MarkFlagRequired("household")

	return cmd
}

func runScores(opts *ScoresOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	scores, err := st.ListMealScores(cmd.Context(), opts.Household)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list meal scores", err)
	}

	result := ScoresResult{
		Household: opts.Household,
		Scores:    make([]ScoreRow, 0, len(scores)),
	}
	for _, sc := range scores {
		result.Scores = append(result.Scores, ScoreRow{
			MealID:     sc.MealID,
			Score:      sc.Score,
			Approvals:  sc.Approvals,
			Rejections: sc.Rejections,
			UpdatedAt:  sc.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(result.Scores) == 0 {
		fmt.Fprintln(w, "No scores recorded.")
		return nil
	}
	for _, row := range result.Scores {
		fmt.Fprintf(w, "%-20s score %6.2f  approvals %d  rejections %d  (updated %s)\n",
			row.MealID, row.Score, row.Approvals, row.Rejections, row.UpdatedAt)
	}
	return nil
}
