// Package sqlguard proves, by text inspection, that a parameterized SQL
// statement cannot touch a tenant-scoped table without binding that exact
// table to the tenant parameter.
//
// The guard is a pre-flight check, not a parser. The statement dialect is
// closed and self-imposed (every query in this module is written to pass),
// so an enumerable rule list over normalized text is sufficient, and far
// more auditable than a grammar.
//
// ARCHITECTURE:
//
// Every statement passes through the same pipeline before execution:
//
//	[raw SQL] → Normalize → ExtractTableReferences → rule checks → allow/abort
//
// Normalization strips comments, empties single-quoted literal contents
// (so no rule fires on, or is fooled by, literal text), and collapses
// whitespace. Table names lose schema qualifiers and quoting and are
// lower-cased.
//
// RULES:
//
// Three independently callable checks, each pure over text:
//
//   - CheckTenantSafety: every tenant-table reference in a SELECT/UPDATE
//     must individually carry `<qualifier>.household_key = $1` (bare
//     `household_key = $1` is accepted only for a sole, unambiguous
//     table). A join where only one of two tenant tables is bound is
//     rejected, naming every missing table.
//   - CheckOnConflictSafety: an upsert on a tenant table must name
//     household_key in its conflict-target column list. ON CONFLICT ON
//     CONSTRAINT is rejected outright for tenant tables; a constraint
//     name proves nothing in text.
//   - CheckStyleContract: accumulates every violation of the statement
//     style rules (banned verbs, multi-statement, reversed or IN/ANY
//     predicates, OR-reachable tenant predicates, wrong parameter index,
//     literal tenant values, unscoped UPDATEs).
//
// FAILURE MODE:
//
// Violations are query-author bugs, not runtime conditions. The Assert
// helpers abort with a *GuardError carrying a stable, greppable code:
//
//	household_key_missing
//	on_conflict_unsafe
//	sql_contract_violation
//
// These codes are part of the contract; alerting and tests key on them.
// Nothing in this package is ever caught-and-ignored by the rest of the
// module.
//
// STATE:
//
// None. A Guard holds only the fixed tenant-table set; every check is a
// pure predicate over its input and is safe under unlimited concurrent
// use. Each call site forms an implicit unchecked → {allowed|aborted}
// gate on the same goroutine that is about to issue the statement.
package sqlguard
