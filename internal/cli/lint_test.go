package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStatement drops one SQL statement into a temp file.
func writeStatement(t *testing.T, dir, name, sql string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(sql), 0644))
	return path
}

func TestLintCommandCleanFile(t *testing.T) {
	dir := t.TempDir()
	clean := writeStatement(t, dir, "clean.sql",
		`SELECT id FROM decision_events WHERE household_key = $1 AND subject_id = $2`)

	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{clean})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ 1 statement(s) clean")
}

func TestLintCommandMissingTenantKey(t *testing.T) {
	dir := t.TempDir()
	leaky := writeStatement(t, dir, "leaky.sql",
		`SELECT id FROM decision_events WHERE subject_id = $1`)

	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{leaky})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗")
	assert.Contains(t, output, "household_key_missing")
	assert.Contains(t, output, "1 statement(s) checked, 1 finding(s)")
}

func TestLintCommandStyleViolation(t *testing.T) {
	dir := t.TempDir()
	// Tenant-safe but breaks the contract: trailing semicolon.
	sloppy := writeStatement(t, dir, "sloppy.sql",
		`SELECT id FROM decision_events WHERE household_key = $1;`)

	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{sloppy})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "sql_contract_violation")
}

func TestLintCommandSelf(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--self"})

	err := cmd.Execute()
	require.NoError(t, err, "the store's own registry must be clean")
	assert.Contains(t, buf.String(), "✓ 13 statement(s) clean")
}

func TestLintCommandSelfPlusFiles(t *testing.T) {
	dir := t.TempDir()
	clean := writeStatement(t, dir, "clean.sql",
		`SELECT meal_id FROM meal_scores WHERE household_key = $1`)

	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--self", clean})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ 14 statement(s) clean")
}

func TestLintCommandNothingToLint(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "nothing to lint")
}

func TestLintCommandMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/query.sql"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to read statement file")
}

func TestLintCommandSchemaOverride(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "tables.cue")
	require.NoError(t, os.WriteFile(schema, []byte(`tenant_tables: ["custom_events"]`+"\n"), 0644))

	// Under the override, decision_events is no longer tenant-scoped but
	// custom_events is.
	exempt := writeStatement(t, dir, "exempt.sql",
		`SELECT id FROM decision_events WHERE subject_id = $1`)
	leaky := writeStatement(t, dir, "leaky.sql",
		`SELECT id FROM custom_events WHERE subject_id = $1`)

	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--schema", schema, exempt, leaky})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "leaky.sql")
	assert.NotContains(t, output, "exempt.sql")
	assert.Contains(t, output, "2 statement(s) checked, 1 finding(s)")
}

func TestLintCommandBadSchema(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "broken.cue")
	require.NoError(t, os.WriteFile(schema, []byte(`tenant_tables: "not-a-list"`+"\n"), 0644))

	clean := writeStatement(t, dir, "clean.sql",
		`SELECT id FROM decision_events WHERE household_key = $1`)

	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--schema", schema, clean})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load schema")
}

func TestLintCommandJSON(t *testing.T) {
	dir := t.TempDir()
	leaky := writeStatement(t, dir, "leaky.sql",
		`SELECT id FROM decision_events WHERE subject_id = $1`)

	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{leaky})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "lint_failed", resp.Error.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), data["checked"])

	findings, ok := data["findings"].([]interface{})
	require.True(t, ok)
	require.Len(t, findings, 1)

	finding := findings[0].(map[string]interface{})
	assert.Equal(t, "household_key_missing", finding["code"])
	assert.Contains(t, finding["source"], "leaky.sql")
}

func TestLintCommandSelfJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--self"})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(13), data["checked"])
	assert.Empty(t, data["findings"])
}
