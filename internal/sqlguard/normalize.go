package sqlguard

import "strings"

// Normalize prepares raw SQL for rule matching.
//
// Transformations, in order of the single scan:
//  1. Line comments (-- to end of line) and block comments (/* */,
//     nesting honored) become a single space.
//  2. Single-quoted string literals keep their quotes but lose their
//     contents; '' inside a literal is the escape for a quote, not a
//     terminator. Rules therefore never fire on literal text, and
//     literal text never hides a violation.
//  3. Double-quoted identifiers pass through verbatim.
//  4. Whitespace runs collapse to one space; the result is trimmed.
//
// Normalize is idempotent: normalizing normalized text is a no-op.
func Normalize(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))

	i := 0
	for i < len(sql) {
		c := sql[i]

		switch {
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			b.WriteByte(' ')

		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			depth := 1
			i += 2
			for i < len(sql) && depth > 0 {
				if sql[i] == '/' && i+1 < len(sql) && sql[i+1] == '*' {
					depth++
					i += 2
				} else if sql[i] == '*' && i+1 < len(sql) && sql[i+1] == '/' {
					depth--
					i += 2
				} else {
					i++
				}
			}
			b.WriteByte(' ')

		case c == '\'':
			// Empty the literal, honoring '' escapes.
			i++
			for i < len(sql) {
				if sql[i] == '\'' {
					if i+1 < len(sql) && sql[i+1] == '\'' {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
			b.WriteString("''")

		case c == '"':
			b.WriteByte(c)
			i++
			for i < len(sql) {
				b.WriteByte(sql[i])
				if sql[i] == '"' {
					i++
					break
				}
				i++
			}

		default:
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
				b.WriteByte(' ')
			} else {
				b.WriteByte(c)
			}
			i++
		}
	}

	return strings.TrimSpace(collapseSpaces(b.String()))
}

// collapseSpaces reduces every run of spaces to a single space.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			if !prevSpace {
				b.WriteByte(' ')
			}
			prevSpace = true
			continue
		}
		b.WriteByte(s[i])
		prevSpace = false
	}
	return b.String()
}

// NormalizeTableName strips schema qualifiers and identifier quoting and
// lower-cases the result: `Public."Decision_Events"` → decision_events.
func NormalizeTableName(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.Trim(name, `"`)
	return strings.ToLower(name)
}

// leadingKeyword returns the first word of normalized SQL, lower-cased.
func leadingKeyword(norm string) string {
	end := strings.IndexByte(norm, ' ')
	if end < 0 {
		end = len(norm)
	}
	return strings.ToLower(norm[:end])
}
