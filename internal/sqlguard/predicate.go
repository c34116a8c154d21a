package sqlguard

import (
	"fmt"
	"regexp"
)

// barePredicateRx matches `household_key = $1` with no qualifier. The
// leading character class rejects qualified (dotted) and quoted forms so
// a mismatched qualifier can never satisfy the bare rule.
var barePredicateRx = regexp.MustCompile(`(?i)(^|[^a-z0-9_."])household_key\s*=\s*\$1([^0-9]|$)`)

// HasPredicateForTableOrAlias reports whether sql binds the given
// table or alias to the tenant parameter with a well-formed predicate:
// `<qualifier>.household_key = $1`, qualifier matched case-insensitively,
// parameter strictly $1. When soleTable is true the statement touches
// exactly one table, an unqualified column is unambiguous, and a bare
// `household_key = $1` also satisfies.
//
// IN lists, ANY, other parameter indexes, and literal values never
// satisfy; those shapes cannot prove single-tenant scope.
func HasPredicateForTableOrAlias(sql, tableOrAlias string, soleTable bool) bool {
	norm := Normalize(sql)
	if qualifiedPredicateRx(tableOrAlias).MatchString(norm) {
		return true
	}
	return soleTable && barePredicateRx.MatchString(norm)
}

// qualifiedPredicateRx builds the matcher for one qualifier. Quoting
// around the qualifier is tolerated; $1 must not be a prefix of a longer
// parameter like $12.
func qualifiedPredicateRx(qualifier string) *regexp.Regexp {
	pattern := fmt.Sprintf(`(?i)(^|[^a-z0-9_."])"?%s"?\.household_key\s*=\s*\$1([^0-9]|$)`,
		regexp.QuoteMeta(qualifier))
	return regexp.MustCompile(pattern)
}

// refHasPredicate tries every qualifier a reference answers to.
func refHasPredicate(norm string, ref TableRef, soleTable bool) bool {
	for _, q := range ref.Qualifiers() {
		if HasPredicateForTableOrAlias(norm, q, soleTable) {
			return true
		}
	}
	return false
}
