package sqlguard

import (
	"sort"
	"strings"
)

// DefaultTenantTables is the fixed tenant-scoped table set for this
// module's schema. Every other table is exempt from every rule.
var DefaultTenantTables = []string{
	"decision_events",
	"meal_scores",
	"pantry_items",
}

// Guard checks statements against a closed tenant-table set. Zero
// mutable state; one Guard serves any number of goroutines.
type Guard struct {
	tenant map[string]struct{}
}

// New creates a Guard over the given tenant tables. Names are normalized
// the same way extraction normalizes them.
func New(tables ...string) *Guard {
	g := &Guard{tenant: make(map[string]struct{}, len(tables))}
	for _, t := range tables {
		g.tenant[NormalizeTableName(t)] = struct{}{}
	}
	return g
}

// Default creates a Guard over DefaultTenantTables.
func Default() *Guard {
	return New(DefaultTenantTables...)
}

// IsTenantTable reports whether name is tenant-scoped.
func (g *Guard) IsTenantTable(name string) bool {
	_, ok := g.tenant[NormalizeTableName(name)]
	return ok
}

// TenantTables returns the tenant set in sorted order.
func (g *Guard) TenantTables() []string {
	out := make([]string, 0, len(g.tenant))
	for t := range g.tenant {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// CheckTenantSafety verifies that every tenant-table reference in a
// SELECT or UPDATE individually carries a well-formed household_key
// predicate. The returned error names every missing table, not just the
// first: a join leaking on one of two tenant tables reports exactly
// which one. Other statement verbs pass; inserts are covered by
// CheckOnConflictSafety and the banned-verb rules.
func (g *Guard) CheckTenantSafety(sql string) error {
	norm := Normalize(sql)
	verb := leadingKeyword(norm)
	if verb != "select" && verb != "update" {
		return nil
	}

	refs := ExtractTableReferences(norm)
	sole := len(refs) == 1

	var missing []string
	seen := make(map[string]bool)
	for _, ref := range refs {
		if !g.IsTenantTable(ref.Name) {
			continue
		}
		if refHasPredicate(norm, ref, sole) {
			continue
		}
		if !seen[ref.Name] {
			seen[ref.Name] = true
			missing = append(missing, ref.Name)
		}
	}

	if len(missing) > 0 {
		return NewMissingTenantKeyError(missing, norm)
	}
	return nil
}

// CheckOnConflictSafety verifies that an INSERT ... ON CONFLICT on a
// tenant table names household_key in its conflict-target column list,
// so the row the conflict resolves against is provably the same
// tenant's. ON CONFLICT ON CONSTRAINT is rejected unconditionally for
// tenant tables: a constraint name proves nothing in text. Conflict-free
// inserts and non-tenant upserts pass.
func (g *Guard) CheckOnConflictSafety(sql string) error {
	norm := Normalize(sql)
	if leadingKeyword(norm) != "insert" {
		return nil
	}

	lower := strings.ToLower(norm)
	idx := strings.Index(lower, " on conflict")
	if idx < 0 {
		return nil
	}

	refs := ExtractTableReferences(norm)
	if len(refs) == 0 || !g.IsTenantTable(refs[0].Name) {
		return nil
	}
	table := refs[0].Name

	rest := strings.TrimSpace(lower[idx+len(" on conflict"):])
	if strings.HasPrefix(rest, "on constraint") {
		return NewOnConflictError(table, "ON CONFLICT ON CONSTRAINT cannot be proven tenant-safe", norm)
	}
	if !strings.HasPrefix(rest, "(") {
		return NewOnConflictError(table, "conflict target must list columns explicitly", norm)
	}

	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return NewOnConflictError(table, "conflict target must list columns explicitly", norm)
	}
	for _, col := range strings.Split(rest[1:end], ",") {
		if strings.Trim(strings.TrimSpace(col), `"`) == "household_key" {
			return nil
		}
	}
	return NewOnConflictError(table, "conflict target does not include household_key", norm)
}

// AssertTenantSafe runs the tenant-safety checks and aborts on the first
// failure. Call sites gate every statement through this before issuing
// it; a returned error means the statement never executes.
func (g *Guard) AssertTenantSafe(sql string) error {
	if err := g.CheckTenantSafety(sql); err != nil {
		return err
	}
	return g.CheckOnConflictSafety(sql)
}
