package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forkful/tasteledger/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Database string
}

// InitResult holds the init command's output payload.
type InitResult struct {
	Path          string `json:"path"`
	SchemaVersion int    `json:"schema_version"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or migrate a ledger database",
		Long: `Create or migrate a ledger database.

Creates the database file if it does not exist, applies the schema and
pragmas, and reports the schema version. Re-running init on an existing
database is safe.

Examples:
  tasteledger init --db ./taste.db
  tasteledger init --db ./taste.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var version int
	if err := st.DB().QueryRowContext(cmd.Context(), "PRAGMA user_version").Scan(&version); err != nil {
		return WrapExitError(ExitCommandError, "failed to read schema version", err)
	}

	result := InitResult{Path: opts.Database, SchemaVersion: version}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(result)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Database ready: %s (schema version %d)\n", result.Path, result.SchemaVersion)
	return nil
}
