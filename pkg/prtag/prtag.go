// Package prtag compiles PR-tag expressions into predicates over product
// configuration strings.
//
// A PR-tag expression gates a product-structure node or a material variant
// on the set of PR codes present in a configuration string. The grammar has
// three levels:
//
//	Expression = Clause (';' Clause)*   clauses are OR'd
//	Clause     = Term ('+' Term)*       terms are AND'd
//	Term       = Atom ('/' Atom)*       atoms are OR'd
//
// An atom matches if it occurs in the configuration string as a whole word,
// case-insensitively, anywhere in the string. Word boundaries are the string
// edges and any character outside [A-Za-z0-9_].
//
// Example: "ABC/DEF+K11;Z99" matches any configuration containing K11
// together with at least one of ABC or DEF, or containing Z99.
//
// Compile never fails: unparseable fragments are treated as literal atoms
// and empty fragments are skipped. An expression that reduces to no clauses
// matches nothing; callers gate unconditional entities (empty PR tags)
// before consulting the matcher.
package prtag

import (
	"strings"
	"sync"
)

// Expression is a compiled PR-tag expression. It is immutable and safe for
// concurrent use.
type Expression struct {
	raw     string
	clauses [][]term // OR over clauses, AND over terms
}

// term is one AND-operand: a set of alternative atoms, lower-cased.
type term []string

var (
	cacheMu sync.RWMutex
	cache   = map[string]*Expression{}
)

// Compile parses a PR-tag expression. Results are memoized per distinct
// expression string: the same expression recurs across many sibling
// variants of a target, and resolution compiles every expression once per
// pass.
func Compile(expr string) *Expression {
	cacheMu.RLock()
	e, ok := cache[expr]
	cacheMu.RUnlock()
	if ok {
		return e
	}

	e = parse(expr)

	cacheMu.Lock()
	cache[expr] = e
	cacheMu.Unlock()
	return e
}

func parse(expr string) *Expression {
	e := &Expression{raw: expr}

	for _, clause := range strings.Split(expr, ";") {
		var terms []term
		for _, t := range strings.Split(clause, "+") {
			var atoms term
			for _, atom := range strings.Split(t, "/") {
				atom = strings.TrimSpace(atom)
				if atom != "" {
					atoms = append(atoms, strings.ToLower(atom))
				}
			}
			if len(atoms) > 0 {
				terms = append(terms, atoms)
			}
		}
		if len(terms) > 0 {
			e.clauses = append(e.clauses, terms)
		}
	}

	return e
}

// String returns the original expression text.
func (e *Expression) String() string { return e.raw }

// Empty reports whether the expression compiled to no clauses. Empty
// expressions match nothing.
func (e *Expression) Empty() bool { return len(e.clauses) == 0 }

// Matches reports whether the configuration string satisfies the
// expression: at least one clause whose every term has at least one atom
// present as a whole word.
func (e *Expression) Matches(config string) bool {
	if len(e.clauses) == 0 {
		return false
	}
	lower := strings.ToLower(config)

	for _, terms := range e.clauses {
		if clauseMatches(terms, lower) {
			return true
		}
	}
	return false
}

func clauseMatches(terms []term, lower string) bool {
	for _, atoms := range terms {
		ok := false
		for _, atom := range atoms {
			if containsWord(lower, atom) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// containsWord reports whether word occurs in s bounded by non-word
// characters or the string edges. Both arguments must already be
// lower-cased.
func containsWord(s, word string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], word)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(word)
		if (start == 0 || !isWordChar(s[start-1])) && (end == len(s) || !isWordChar(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
