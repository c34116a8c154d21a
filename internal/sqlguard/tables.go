package sqlguard

import "strings"

// TableRef is one table referenced by a statement. Name is normalized
// (no schema, no quotes, lower-case); Alias is empty when the statement
// does not alias the table.
type TableRef struct {
	Name  string
	Alias string
}

// Qualifiers returns the identifiers that may qualify a column belonging
// to this reference: the alias when present, always the table name.
func (r TableRef) Qualifiers() []string {
	if r.Alias != "" {
		return []string{r.Alias, r.Name}
	}
	return []string{r.Name}
}

// ExtractTableReferences scans FROM, JOIN, UPDATE, and INSERT INTO
// clauses and returns every table the statement touches, with aliases.
// Comma-separated FROM lists and multiple joins are handled; subqueries
// are skipped (the dialect does not use them). Input may be raw or
// normalized; normalization is applied and is idempotent.
func ExtractTableReferences(sql string) []TableRef {
	toks := tokenize(Normalize(sql))

	var refs []TableRef
	for i := 0; i < len(toks); i++ {
		switch strings.ToLower(toks[i]) {
		case "from":
			i = captureRefList(toks, i+1, &refs)
		case "join":
			i = captureRef(toks, i+1, &refs)
		case "update":
			// DO UPDATE inside an upsert is not a table reference.
			if i > 0 && strings.EqualFold(toks[i-1], "do") {
				continue
			}
			i = captureRef(toks, i+1, &refs)
		case "insert":
			if i+1 < len(toks) && strings.EqualFold(toks[i+1], "into") {
				i = captureRef(toks, i+2, &refs)
			}
		}
	}
	return refs
}

// captureRef reads one table reference starting at toks[i] and returns
// the index of the last token consumed. Returns i-1 when toks[i] does
// not start a table name.
func captureRef(toks []string, i int, refs *[]TableRef) int {
	if i >= len(toks) || !isIdentToken(toks[i]) {
		return i - 1
	}

	ref := TableRef{Name: NormalizeTableName(toks[i])}
	last := i

	j := i + 1
	if j < len(toks) && strings.EqualFold(toks[j], "as") {
		j++
	}
	if j < len(toks) && isIdentToken(toks[j]) && !isClauseKeyword(toks[j]) {
		ref.Alias = strings.ToLower(strings.Trim(toks[j], `"`))
		last = j
	}

	*refs = append(*refs, ref)
	return last
}

// captureRefList reads a comma-separated list of table references, as in
// a FROM clause, and returns the index of the last token consumed.
func captureRefList(toks []string, i int, refs *[]TableRef) int {
	for {
		last := captureRef(toks, i, refs)
		if last < i {
			return last
		}
		next := last + 1
		if next < len(toks) && toks[next] == "," {
			i = next + 1
			continue
		}
		return last
	}
}

// tokenize splits normalized SQL into identifier-ish words and
// single-character punctuation tokens. Dots, quotes, and $ stay inside
// words so qualified names and parameters survive as single tokens.
func tokenize(norm string) []string {
	var toks []string
	i := 0
	for i < len(norm) {
		c := norm[i]
		switch {
		case c == ' ':
			i++
		case isWordByte(c) || c == '"' || c == '$':
			start := i
			for i < len(norm) && (isWordByte(norm[i]) || norm[i] == '"' || norm[i] == '$') {
				i++
			}
			toks = append(toks, norm[start:i])
		default:
			toks = append(toks, string(c))
			i++
		}
	}
	return toks
}

// isWordByte reports whether b can appear inside an identifier token.
// Dots are included so schema-qualified names tokenize whole.
func isWordByte(b byte) bool {
	return b == '_' || b == '.' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// isIdentToken reports whether tok can name a table.
func isIdentToken(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return c == '"' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// clauseKeywords are words that terminate a table reference rather than
// alias it.
var clauseKeywords = map[string]bool{
	"as": true, "set": true, "where": true, "on": true, "join": true,
	"inner": true, "left": true, "right": true, "full": true, "cross": true,
	"outer": true, "natural": true, "using": true, "group": true,
	"order": true, "by": true, "having": true, "limit": true, "offset": true,
	"union": true, "except": true, "intersect": true, "returning": true,
	"values": true, "and": true, "or": true, "not": true, "collate": true,
	"asc": true, "desc": true, "for": true, "do": true, "conflict": true,
	"from": true, "select": true, "insert": true, "into": true, "update": true,
}

func isClauseKeyword(tok string) bool {
	return clauseKeywords[strings.ToLower(tok)]
}
