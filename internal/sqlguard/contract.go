package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
)

// Violation is one style-contract finding, tagged with the rule that
// produced it. Rule tags are stable strings; tests and tooling key on
// them.
type Violation struct {
	// Rule identifies which contract rule fired.
	Rule string

	// Detail is a human-readable description of the finding.
	Detail string
}

// Contract rule tags.
const (
	// RuleBannedStatement fires on DELETE, ALTER, DROP, TRUNCATE, or
	// CREATE outside string literals.
	RuleBannedStatement = "banned_statement"

	// RuleMultiStatement fires on a semicolon outside string literals.
	RuleMultiStatement = "multi_statement"

	// RuleReversedPredicate fires on `$1 = x.household_key`; the column
	// always goes on the left.
	RuleReversedPredicate = "reversed_predicate"

	// RuleSetPredicate fires on household_key bound through IN or ANY.
	RuleSetPredicate = "set_predicate"

	// RuleORPredicate fires when a tenant predicate sits beside an OR
	// in its boolean group, making it bypassable.
	RuleORPredicate = "or_predicate"

	// RuleUnqualifiedTenantKey fires on a bare household_key in a
	// statement that references more than one table.
	RuleUnqualifiedTenantKey = "unqualified_tenant_key"

	// RuleWrongParamIndex fires when household_key is bound to any
	// parameter other than $1.
	RuleWrongParamIndex = "wrong_param_index"

	// RuleLiteralTenantValue fires when household_key is compared to a
	// literal instead of a parameter.
	RuleLiteralTenantValue = "literal_tenant_value"

	// RuleUpdateWithoutTenantWhere fires on an UPDATE of a tenant table
	// with no scoping WHERE household_key = $1.
	RuleUpdateWithoutTenantWhere = "update_without_tenant_where"
)

var (
	bannedStatementRx   = regexp.MustCompile(`(?i)\b(delete|alter|drop|truncate|create)\b`)
	reversedPredicateRx = regexp.MustCompile(`(?i)\$[0-9]+\s*=\s*(?:[a-z_][a-z0-9_]*\.)?household_key\b`)
	inPredicateRx       = regexp.MustCompile(`(?i)\bhousehold_key\s+in\s*\(`)
	anyPredicateRx      = regexp.MustCompile(`(?i)\bhousehold_key\s*=\s*any\s*\(`)
	keyParamRx          = regexp.MustCompile(`(?i)\bhousehold_key\s*=\s*\$([0-9]+)`)
	keyLiteralRx        = regexp.MustCompile(`(?i)\bhousehold_key\s*=\s*(''|[0-9])`)
	bareKeyRx           = regexp.MustCompile(`(?i)(^|[^a-z0-9_."])household_key\b`)
	tenantPredicateRx   = regexp.MustCompile(`(?i)\b(?:[a-z_][a-z0-9_]*\.)?household_key\s*=\s*\$1(?:[^0-9]|$)`)
)

// CheckStyleContract returns every style-contract violation in the
// statement, not just the first. An empty slice means the statement
// conforms. Findings are ordered by rule, then by position in the text.
func (g *Guard) CheckStyleContract(sql string) []Violation {
	c := &contractChecker{
		guard:      g,
		norm:       Normalize(sql),
		violations: []Violation{},
	}
	c.refs = ExtractTableReferences(c.norm)

	c.checkBannedStatements()
	c.checkMultiStatement()
	c.checkReversedPredicates()
	c.checkSetPredicates()
	c.checkORPredicates()
	c.checkUnqualifiedTenantKey()
	c.checkParamBindings()
	c.checkUpdateScope()

	return c.violations
}

// AssertStyleContract runs the contract check and aborts when anything
// fires, carrying the full finding list in the error.
func (g *Guard) AssertStyleContract(sql string) error {
	violations := g.CheckStyleContract(sql)
	if len(violations) == 0 {
		return nil
	}
	return NewContractViolationError(violations, Normalize(sql))
}

// contractChecker accumulates violations across the rule list.
type contractChecker struct {
	guard      *Guard
	norm       string
	refs       []TableRef
	violations []Violation
}

// add appends a tagged violation.
func (c *contractChecker) add(rule, format string, args ...any) {
	c.violations = append(c.violations, Violation{
		Rule:   rule,
		Detail: fmt.Sprintf(format, args...),
	})
}

// checkBannedStatements flags destructive or DDL verbs. Normalization
// already emptied literals, so a banned word inside quoted text never
// fires.
func (c *contractChecker) checkBannedStatements() {
	for _, m := range bannedStatementRx.FindAllString(c.norm, -1) {
		c.add(RuleBannedStatement, "banned statement keyword %s", strings.ToUpper(m))
	}
}

// checkMultiStatement flags semicolons. After normalization any
// remaining semicolon is outside every literal.
func (c *contractChecker) checkMultiStatement() {
	if n := strings.Count(c.norm, ";"); n > 0 {
		c.add(RuleMultiStatement, "statement contains %d semicolon(s) outside literals", n)
	}
}

// checkReversedPredicates flags `$n = household_key` comparisons.
func (c *contractChecker) checkReversedPredicates() {
	for _, m := range reversedPredicateRx.FindAllString(c.norm, -1) {
		c.add(RuleReversedPredicate, "reversed tenant predicate %q; write household_key = $1", m)
	}
}

// checkSetPredicates flags IN and ANY bindings of the tenant key.
func (c *contractChecker) checkSetPredicates() {
	for range inPredicateRx.FindAllString(c.norm, -1) {
		c.add(RuleSetPredicate, "household_key bound through IN; single-tenant scope requires = $1")
	}
	for range anyPredicateRx.FindAllString(c.norm, -1) {
		c.add(RuleSetPredicate, "household_key bound through ANY; single-tenant scope requires = $1")
	}
}

// checkORPredicates flags tenant predicates that an OR in the same
// boolean group can bypass. An OR nested in a deeper paren group beside
// the predicate does not fire; AND (a OR b) is a conforming shape.
func (c *contractChecker) checkORPredicates() {
	for _, loc := range tenantPredicateRx.FindAllStringIndex(c.norm, -1) {
		start, end := groupBounds(c.norm, loc[0])
		if segmentHasTopLevelOR(c.norm[start:end]) {
			c.add(RuleORPredicate, "tenant predicate %q is bypassable through OR in its group",
				strings.TrimSpace(c.norm[loc[0]:loc[1]]))
		}
	}
}

// checkUnqualifiedTenantKey flags bare household_key columns once a
// statement touches two or more tables; ambiguity is a leak waiting to
// happen.
func (c *contractChecker) checkUnqualifiedTenantKey() {
	if len(c.refs) < 2 {
		return
	}
	for range bareKeyRx.FindAllString(c.norm, -1) {
		c.add(RuleUnqualifiedTenantKey, "unqualified household_key in a %d-table statement", len(c.refs))
	}
}

// checkParamBindings flags tenant predicates bound to the wrong
// parameter index or to a literal value. The tenant key is always $1.
func (c *contractChecker) checkParamBindings() {
	for _, m := range keyParamRx.FindAllStringSubmatch(c.norm, -1) {
		if m[1] != "1" {
			c.add(RuleWrongParamIndex, "household_key bound to $%s; the tenant parameter is $1", m[1])
		}
	}
	for range keyLiteralRx.FindAllString(c.norm, -1) {
		c.add(RuleLiteralTenantValue, "household_key compared to a literal; bind $1 instead")
	}
}

// checkUpdateScope requires every UPDATE of a tenant table to carry a
// scoping WHERE with the tenant predicate.
func (c *contractChecker) checkUpdateScope() {
	if leadingKeyword(c.norm) != "update" || len(c.refs) == 0 {
		return
	}
	target := c.refs[0]
	if !c.guard.IsTenantTable(target.Name) {
		return
	}

	if !strings.Contains(strings.ToLower(c.norm), " where ") {
		c.add(RuleUpdateWithoutTenantWhere, "UPDATE %s has no WHERE clause", target.Name)
		return
	}
	if !refHasPredicate(c.norm, target, len(c.refs) == 1) {
		c.add(RuleUpdateWithoutTenantWhere, "UPDATE %s WHERE clause does not bind household_key = $1", target.Name)
	}
}

// groupBounds returns the half-open bounds of the innermost paren group
// containing pos, or the whole string when pos sits at top level.
func groupBounds(s string, pos int) (int, int) {
	start, end := 0, len(s)

	depth := 0
left:
	for i := pos - 1; i >= 0; i-- {
		switch s[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				start = i + 1
				break left
			}
			depth--
		}
	}

	depth = 0
right:
	for i := pos; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				end = i
				break right
			}
			depth--
		}
	}

	return start, end
}

// segmentHasTopLevelOR reports whether an OR keyword appears at paren
// depth zero of the segment.
func segmentHasTopLevelOR(seg string) bool {
	depth := 0
	for i := 0; i < len(seg); i++ {
		switch seg[i] {
		case '(':
			depth++
		case ')':
			depth--
		default:
			if depth != 0 {
				continue
			}
			if seg[i] != 'o' && seg[i] != 'O' {
				continue
			}
			if i+1 >= len(seg) || (seg[i+1] != 'r' && seg[i+1] != 'R') {
				continue
			}
			beforeOK := i == 0 || !isWordByte(seg[i-1])
			afterOK := i+2 >= len(seg) || !isWordByte(seg[i+2])
			if beforeOK && afterOK {
				return true
			}
		}
	}
	return false
}
