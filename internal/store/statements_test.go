package store

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/forkful/tasteledger/internal/sqlguard"
)

func TestStatements_AllPassTenantSafety(t *testing.T) {
	g := sqlguard.Default()

	for _, stmt := range Statements() {
		if err := g.AssertTenantSafe(stmt.SQL); err != nil {
			t.Errorf("statement %q fails tenant safety: %v", stmt.Name, err)
		}
	}
}

func TestStatements_AllPassStyleContract(t *testing.T) {
	g := sqlguard.Default()

	for _, stmt := range Statements() {
		if err := g.AssertStyleContract(stmt.SQL); err != nil {
			t.Errorf("statement %q fails style contract: %v", stmt.Name, err)
		}
	}
}

func TestStatements_NamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, stmt := range Statements() {
		if seen[stmt.Name] {
			t.Errorf("duplicate statement name %q", stmt.Name)
		}
		seen[stmt.Name] = true
	}
}

var paramRx = regexp.MustCompile(`\$([0-9]+)`)

// TestStatements_ParamConvention enforces the binding convention the
// driver depends on: $-parameters are named, and their ordinal slots are
// assigned by first occurrence in the text. Every statement must use a
// contiguous $1..$n set, and (consume_pantry excepted, which documents
// its textual binding order in place) first occurrences must appear in
// numeric order so positional args line up with the numbers.
func TestStatements_ParamConvention(t *testing.T) {
	for _, stmt := range Statements() {
		var order []int
		seen := make(map[int]bool)
		for _, m := range paramRx.FindAllStringSubmatch(stmt.SQL, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				t.Fatalf("statement %q: bad parameter %q", stmt.Name, m[0])
			}
			if !seen[n] {
				seen[n] = true
				order = append(order, n)
			}
		}

		// Contiguous set $1..$n
		for i := 1; i <= len(order); i++ {
			if !seen[i] {
				t.Errorf("statement %q: parameter set has a gap at $%d", stmt.Name, i)
			}
		}

		if stmt.Name == "consume_pantry" {
			continue
		}
		for i, n := range order {
			if n != i+1 {
				t.Errorf("statement %q: first occurrences out of numeric order: %v", stmt.Name, order)
				break
			}
		}
	}
}
