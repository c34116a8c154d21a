package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes YAML content to a temp file and returns its path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validScenarioYAML = `name: valid
description: A valid scenario
household: hh-1
subject: subj-1
meal: meal-1
flow:
  - submit: approved
    expect:
      reason: success
assertions:
  - type: copy_count
    count: 1
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, validScenarioYAML)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "valid", scenario.Name)
	assert.Equal(t, "hh-1", scenario.Household)
	assert.Equal(t, "subj-1", scenario.Subject)
	assert.Equal(t, "meal-1", scenario.Meal)
	require.Len(t, scenario.Flow, 1)
	assert.Equal(t, "approved", scenario.Flow[0].Submit)
	require.NotNil(t, scenario.Flow[0].Expect)
	assert.Equal(t, "success", scenario.Flow[0].Expect.Reason)
}

func TestLoadScenario_Defaults(t *testing.T) {
	path := writeScenario(t, validScenarioYAML)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "dinner", scenario.kind())

	start, err := scenario.startTime()
	require.NoError(t, err)
	assert.Equal(t, defaultStartAt, start.Format("2006-01-02T15:04:05Z"))
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, "name: [unclosed")

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `name: typo
description: Typo in a field name
household: hh-1
subject: subj-1
meal: meal-1
flow:
  - submit: approved
asserts:
  - type: copy_count
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing name",
			yaml: `description: d
household: hh-1
subject: subj-1
meal: meal-1
flow:
  - submit: approved
assertions:
  - type: copy_count
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			yaml: `name: n
household: hh-1
subject: subj-1
meal: meal-1
flow:
  - submit: approved
assertions:
  - type: copy_count
`,
			wantErr: "description is required",
		},
		{
			name: "missing household",
			yaml: `name: n
description: d
subject: subj-1
meal: meal-1
flow:
  - submit: approved
assertions:
  - type: copy_count
`,
			wantErr: "household is required",
		},
		{
			name: "missing subject",
			yaml: `name: n
description: d
household: hh-1
meal: meal-1
flow:
  - submit: approved
assertions:
  - type: copy_count
`,
			wantErr: "subject is required",
		},
		{
			name: "missing meal",
			yaml: `name: n
description: d
household: hh-1
subject: subj-1
flow:
  - submit: approved
assertions:
  - type: copy_count
`,
			wantErr: "meal is required",
		},
		{
			name: "missing flow",
			yaml: `name: n
description: d
household: hh-1
subject: subj-1
meal: meal-1
assertions:
  - type: copy_count
`,
			wantErr: "flow list is required",
		},
		{
			name: "missing assertions",
			yaml: `name: n
description: d
household: hh-1
subject: subj-1
meal: meal-1
flow:
  - submit: approved
`,
			wantErr: "assertions list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, tt.yaml)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_InvalidStartAt(t *testing.T) {
	path := writeScenario(t, `name: n
description: d
household: hh-1
subject: subj-1
meal: meal-1
start_at: "not a time"
flow:
  - submit: approved
assertions:
  - type: copy_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid start_at")
}

func TestLoadScenario_InvalidAdvance(t *testing.T) {
	path := writeScenario(t, `name: n
description: d
household: hh-1
subject: subj-1
meal: meal-1
flow:
  - advance: five minutes
    submit: approved
assertions:
  - type: copy_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid advance")
}

func TestLoadScenario_FlowMissingSubmit(t *testing.T) {
	path := writeScenario(t, `name: n
description: d
household: hh-1
subject: subj-1
meal: meal-1
flow:
  - advance: 5m
assertions:
  - type: copy_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submit is required")
}

func TestLoadScenario_ExpectNeedsOutcome(t *testing.T) {
	path := writeScenario(t, `name: n
description: d
household: hh-1
subject: subj-1
meal: meal-1
flow:
  - submit: approved
    expect:
      weight: 1.0
assertions:
  - type: copy_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason or error is required")
}

func TestLoadScenario_ExpectOutcomesExclusive(t *testing.T) {
	path := writeScenario(t, `name: n
description: d
household: hh-1
subject: subj-1
meal: meal-1
flow:
  - submit: approved
    expect:
      reason: success
      error: unknown_action
assertions:
  - type: copy_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestLoadScenario_PantryValidation(t *testing.T) {
	path := writeScenario(t, `name: n
description: d
household: hh-1
subject: subj-1
meal: meal-1
pantry:
  - meal: meal-1
    name: rice
    quantity: 2
flow:
  - submit: approved
assertions:
  - type: copy_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pantry[0]: item is required")
}

func TestLoadScenario_AssertionTypes(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "unknown type",
			yaml: `assertions:
  - type: table_scan
`,
			wantErr: `unknown assertion type "table_scan"`,
		},
		{
			name: "meal_score missing meal",
			yaml: `assertions:
  - type: meal_score
    score: 1.0
`,
			wantErr: "meal is required for meal_score",
		},
		{
			name: "meal_score missing checks",
			yaml: `assertions:
  - type: meal_score
    meal: meal-1
`,
			wantErr: "needs at least one of score, approvals, rejections",
		},
		{
			name: "pantry_item missing item",
			yaml: `assertions:
  - type: pantry_item
    quantity: 1
`,
			wantErr: "item is required for pantry_item",
		},
		{
			name: "pantry_item missing quantity",
			yaml: `assertions:
  - type: pantry_item
    item: item-1
`,
			wantErr: "quantity is required for pantry_item",
		},
		{
			name: "trace_reasons missing reasons",
			yaml: `assertions:
  - type: trace_reasons
`,
			wantErr: "reasons list is required for trace_reasons",
		},
	}

	header := `name: n
description: d
household: hh-1
subject: subj-1
meal: meal-1
flow:
  - submit: approved
`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, header+tt.yaml)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_ComplexScenario(t *testing.T) {
	path := writeScenario(t, `name: complex
description: Full surface
household: hh-1
subject: subj-1
meal: meal-1
kind: lunch
start_at: 2025-06-10T20:30:00Z
payload:
  slot: lunch
  cuisine: italian
pantry:
  - item: item-1
    meal: meal-1
    name: rice
    quantity: 2
    unit: bag
flow:
  - submit: approved
    autopilot: true
    expect:
      reason: success
      action: approved
      marker: autopilot
      weight: 1.1
      score_cache: true
      consumed: 1
  - advance: 5m
    submit: undo
    expect:
      reason: success
      duplicate: false
assertions:
  - type: copy_count
    count: 2
  - type: meal_score
    meal: meal-1
    score: 1.1
    approvals: 1
    rejections: 0
  - type: pantry_item
    item: item-1
    quantity: 1
  - type: trace_reasons
    reasons: [success, success]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "lunch", scenario.kind())
	assert.Equal(t, "italian", scenario.Payload["cuisine"])
	require.Len(t, scenario.Pantry, 1)
	assert.Equal(t, 2.0, scenario.Pantry[0].Quantity)

	require.NotNil(t, scenario.Flow[0].Expect.Weight)
	assert.InDelta(t, 1.1, *scenario.Flow[0].Expect.Weight, 1e-9)
	require.NotNil(t, scenario.Flow[0].Expect.Consumed)
	assert.Equal(t, int64(1), *scenario.Flow[0].Expect.Consumed)
	require.NotNil(t, scenario.Flow[1].Expect.Duplicate)
	assert.False(t, *scenario.Flow[1].Expect.Duplicate)

	require.Len(t, scenario.Assertions, 4)
	assert.Equal(t, []string{"success", "success"}, scenario.Assertions[3].Reasons)
}
