package sqlguard

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies a guard failure category. Codes are stable wire
// strings; alerting, tests, and operators grep for them.
type Code string

const (
	// CodeMissingTenantKey means a tenant-table reference has no
	// well-formed household_key predicate.
	CodeMissingTenantKey Code = "household_key_missing"

	// CodeOnConflictUnsafe means an upsert's conflict handling cannot be
	// proven to stay inside one tenant.
	CodeOnConflictUnsafe Code = "on_conflict_unsafe"

	// CodeContractViolation means the statement breaks the style
	// contract; Violations carries every finding.
	CodeContractViolation Code = "sql_contract_violation"
)

// GuardError is the abort verdict for a statement that failed a check.
// It is always a query-author bug: callers propagate it, never swallow it.
type GuardError struct {
	// Code identifies the failure category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Statement is a truncated normalized head of the offending SQL.
	Statement string

	// Tables lists tenant tables missing their predicate, or the upsert
	// target for conflict failures.
	Tables []string

	// Violations carries the style-contract findings.
	Violations []Violation
}

// Error implements the error interface.
func (e *GuardError) Error() string {
	switch {
	case len(e.Tables) > 0:
		return fmt.Sprintf("%s: %s (tables=%s)", e.Code, e.Message, strings.Join(e.Tables, ","))
	case len(e.Violations) > 0:
		return fmt.Sprintf("%s: %s (%d violations)", e.Code, e.Message, len(e.Violations))
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

const statementHeadLen = 120

// statementHead truncates normalized SQL for error context.
func statementHead(norm string) string {
	if len(norm) <= statementHeadLen {
		return norm
	}
	return norm[:statementHeadLen] + "..."
}

// NewMissingTenantKeyError creates the verdict for tenant tables whose
// predicate is absent.
func NewMissingTenantKeyError(tables []string, norm string) *GuardError {
	return &GuardError{
		Code:      CodeMissingTenantKey,
		Message:   "tenant table missing household_key = $1 predicate",
		Statement: statementHead(norm),
		Tables:    tables,
	}
}

// NewOnConflictError creates the verdict for an unprovable upsert.
func NewOnConflictError(table, reason, norm string) *GuardError {
	return &GuardError{
		Code:      CodeOnConflictUnsafe,
		Message:   reason,
		Statement: statementHead(norm),
		Tables:    []string{table},
	}
}

// NewContractViolationError creates the verdict for style-contract
// findings.
func NewContractViolationError(violations []Violation, norm string) *GuardError {
	return &GuardError{
		Code:       CodeContractViolation,
		Message:    "statement violates the SQL style contract",
		Statement:  statementHead(norm),
		Violations: violations,
	}
}

// IsGuardError returns true if the error is any guard verdict.
// Uses errors.As to handle wrapped errors.
func IsGuardError(err error) bool {
	var ge *GuardError
	return errors.As(err, &ge)
}

// IsMissingTenantKeyError returns true if the error is a missing
// tenant-predicate verdict. Uses errors.As to handle wrapped errors.
func IsMissingTenantKeyError(err error) bool {
	var ge *GuardError
	if errors.As(err, &ge) {
		return ge.Code == CodeMissingTenantKey
	}
	return false
}

// IsOnConflictError returns true if the error is an unsafe-upsert
// verdict. Uses errors.As to handle wrapped errors.
func IsOnConflictError(err error) bool {
	var ge *GuardError
	if errors.As(err, &ge) {
		return ge.Code == CodeOnConflictUnsafe
	}
	return false
}

// IsContractViolationError returns true if the error is a style-contract
// verdict. Uses errors.As to handle wrapped errors.
func IsContractViolationError(err error) bool {
	var ge *GuardError
	if errors.As(err, &ge) {
		return ge.Code == CodeContractViolation
	}
	return false
}
