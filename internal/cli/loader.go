package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// LoadTenantTables reads a CUE registry file and returns the table names
// in its tenant_tables list. The file is the deployment's source of
// truth for which tables the guard holds to the household_key rules.
func LoadTenantTables(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("invalid CUE in %s: %w", path, err)
	}

	tablesVal := value.LookupPath(cue.ParsePath("tenant_tables"))
	if !tablesVal.Exists() {
		return nil, fmt.Errorf("%s: schema file must define tenant_tables", path)
	}

	iter, err := tablesVal.List()
	if err != nil {
		return nil, fmt.Errorf("%s: tenant_tables must be a list: %w", path, err)
	}

	var tables []string
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return nil, fmt.Errorf("%s: tenant_tables entries must be strings: %w", path, err)
		}
		tables = append(tables, name)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%s: tenant_tables is empty", path)
	}
	return tables, nil
}
