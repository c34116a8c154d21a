package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forkful/tasteledger/internal/sqlguard"
	"github.com/forkful/tasteledger/internal/store"
)

// LintOptions holds flags for the lint command.
type LintOptions struct {
	*RootOptions
	Self   bool
	Schema string
}

// LintFinding is one guard verdict against one statement source.
type LintFinding struct {
	Source  string `json:"source"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LintResult summarizes a lint sweep.
type LintResult struct {
	Checked  int           `json:"checked"`
	Findings []LintFinding `json:"findings"`
}

// lintSource is one named statement to sweep.
type lintSource struct {
	name string
	sql  string
}

// NewLintCommand creates the lint command.
func NewLintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lint [files...]",
		Short: "Check SQL statements against the tenant-safety guard",
		Long: `Check SQL statements against the tenant-safety guard and the
style contract, offline.

Each file holds exactly one statement. With --self, the store's own
statement registry is swept as well; the set of tenant tables can be
replaced with --schema pointing at a CUE registry.

Exit code 1 means at least one finding; 2 means the sweep itself
could not run.

Examples:
  tasteledger lint queries/report.sql
  tasteledger lint --self
  tasteledger lint --schema schema/tenant_tables.cue queries/*.sql`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Self, "self", false, "also sweep the store's statement registry")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE file defining the tenant table set")

	return cmd
}

func runLint(opts *LintOptions, cmd *cobra.Command, args []string) error {
	guard := sqlguard.Default()
	if opts.Schema != "" {
		tables, err := LoadTenantTables(opts.Schema)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load schema", err)
		}
		guard = sqlguard.New(tables...)
	}

	var sources []lintSource
	if opts.Self {
		for _, stmt := range store.Statements() {
			sources = append(sources, lintSource{name: "store:" + stmt.Name, sql: stmt.SQL})
		}
	}
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read statement file", err)
		}
		sources = append(sources, lintSource{name: path, sql: string(data)})
	}
	if len(sources) == 0 {
		return NewExitError(ExitCommandError, "nothing to lint: pass files or --self")
	}

	result := LintResult{Checked: len(sources), Findings: []LintFinding{}}
	for _, src := range sources {
		for _, err := range []error{
			guard.AssertTenantSafe(src.sql),
			guard.AssertStyleContract(src.sql),
		} {
			if err == nil {
				continue
			}
			finding := LintFinding{Source: src.name, Message: err.Error()}
			var ge *sqlguard.GuardError
			if errors.As(err, &ge) {
				finding.Code = string(ge.Code)
			}
			result.Findings = append(result.Findings, finding)
		}
	}

	if opts.Format == "json" {
		return outputLintJSON(cmd, result)
	}
	return outputLintText(cmd, result)
}

// outputLintJSON outputs the sweep result as JSON.
func outputLintJSON(cmd *cobra.Command, result LintResult) error {
	status := "ok"
	if len(result.Findings) > 0 {
		status = "error"
	}

	response := CLIResponse{Status: status, Data: result}
	if len(result.Findings) > 0 {
		response.Error = &CLIError{
			Code:    "lint_failed",
			Message: fmt.Sprintf("%d violation(s)", len(result.Findings)),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if len(result.Findings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d violation(s)", len(result.Findings)))
	}
	return nil
}

// outputLintText outputs the sweep result as text.
func outputLintText(cmd *cobra.Command, result LintResult) error {
	w := cmd.OutOrStdout()
	for _, f := range result.Findings {
		fmt.Fprintf(w, "✗ %s: %s\n", f.Source, f.Message)
	}
	if len(result.Findings) == 0 {
		fmt.Fprintf(w, "✓ %d statement(s) clean\n", result.Checked)
		return nil
	}

	fmt.Fprintf(w, "\n%d statement(s) checked, %d finding(s)\n", result.Checked, len(result.Findings))
	return NewExitError(ExitFailure, fmt.Sprintf("%d violation(s)", len(result.Findings)))
}
