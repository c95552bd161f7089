package plmxml

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/plmtools/lookconf/pkg/prtag"
)

// LookLibraryName is the ProductInstance name whose user values carry
// material targets instead of scene nodes.
const LookLibraryName = "LookLibrary"

// MaterialVariant is one switchable look of a target, gated by a PR-tag
// expression.
type MaterialVariant struct {
	Name        string
	PRTags      string
	Description string
}

// MaterialTarget is a named material slot with its variants in declared
// order. Declared order is significant: resolution gives the last matching
// variant priority.
type MaterialTarget struct {
	Name     string
	Variants []MaterialVariant
}

// Conflict records that a variant's expression also matches the tags of an
// earlier variant of the same target. Conflicts are advisory; they never
// invalidate the document.
type Conflict struct {
	Target  string
	Message string
}

// LookLibrary holds the material targets of a document, in declared order.
type LookLibrary struct {
	targets   map[string]*MaterialTarget
	order     []string
	conflicts []Conflict
}

// NewLookLibrary returns an empty library.
func NewLookLibrary() *LookLibrary {
	return &LookLibrary{targets: make(map[string]*MaterialTarget)}
}

var (
	// Target names lead the user value: a letter followed by word characters.
	targetNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*`)
	// Variant groups are bracketed, non-greedy.
	variantGroupPattern = regexp.MustCompile(`\[(.*?)\]`)
	// Fields inside a group are separated by a tilde with trailing space
	// (optionally preceded by space).
	fieldSeparatorPattern = regexp.MustCompile(`\s~\s|~\s`)
)

// AddTargetValue parses one LookLibrary user value of the form
//
//	Target~ [Variant~ PR_TAGS; ~ Description] [NextVariant~ ...] ...
//
// and adds the resulting target. Bracket groups not splitting into exactly
// three fields are skipped (their text is returned in skipped for warning).
// Values without a leading target name or without any usable group yield
// ok=false and no target.
func (l *LookLibrary) AddTargetValue(value string) (target *MaterialTarget, skipped []string, ok bool) {
	name := targetNamePattern.FindString(strings.TrimSpace(value))
	if name == "" {
		return nil, nil, false
	}

	t := &MaterialTarget{Name: name}
	for _, group := range variantGroupPattern.FindAllStringSubmatch(value, -1) {
		fields := fieldSeparatorPattern.Split(group[1], -1)
		if len(fields) != 3 {
			skipped = append(skipped, group[0])
			continue
		}
		// The tags field ends with the grammar's ';' terminator; it is not
		// part of the expression.
		tags := strings.TrimSpace(fields[1])
		tags = strings.TrimSpace(strings.TrimSuffix(tags, ";"))

		t.Variants = append(t.Variants, MaterialVariant{
			Name:        strings.TrimSpace(fields[0]),
			PRTags:      tags,
			Description: strings.TrimSpace(fields[2]),
		})
	}
	if len(t.Variants) == 0 {
		return nil, skipped, false
	}

	if _, exists := l.targets[t.Name]; !exists {
		l.order = append(l.order, t.Name)
	}
	l.targets[t.Name] = t
	return t, skipped, true
}

// Target returns the named target, or nil.
func (l *LookLibrary) Target(name string) *MaterialTarget { return l.targets[name] }

// Targets returns all targets in declared order.
func (l *LookLibrary) Targets() []*MaterialTarget {
	out := make([]*MaterialTarget, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.targets[name])
	}
	return out
}

// TargetNames returns the target names in declared order.
func (l *LookLibrary) TargetNames() []string {
	return append([]string(nil), l.order...)
}

// Len returns the number of targets.
func (l *LookLibrary) Len() int { return len(l.order) }

// Valid reports whether at least one target parsed.
func (l *LookLibrary) Valid() bool { return len(l.order) > 0 }

// Conflicts returns the conflicts found by DetectConflicts, in detection
// order.
func (l *LookLibrary) Conflicts() []Conflict { return l.conflicts }

// DetectConflicts scans every target for variants whose expression also
// matches the raw PR tags of an earlier variant of the same target. Such
// overlaps make the earlier variant unreachable under last-match-wins
// resolution whenever both match, which is usually an authoring mistake.
// The scan is quadratic in variants per target; libraries are small.
func (l *LookLibrary) DetectConflicts() []Conflict {
	l.conflicts = nil
	for _, name := range l.order {
		t := l.targets[name]
		var seen []MaterialVariant
		for _, v := range t.Variants {
			expr := prtag.Compile(v.PRTags)
			for _, prev := range seen {
				if expr.Matches(prev.PRTags) {
					l.conflicts = append(l.conflicts, Conflict{
						Target:  t.Name,
						Message: fmt.Sprintf("%s - %s is also matching %s", v.Name, v.PRTags, prev.PRTags),
					})
				}
			}
			seen = append(seen, v)
		}
	}
	return l.conflicts
}

// ConflictSummary renders the conflicts grouped per target, one line per
// target, for status output.
func (l *LookLibrary) ConflictSummary() []string {
	byTarget := make(map[string][]string)
	var order []string
	for _, c := range l.conflicts {
		if _, ok := byTarget[c.Target]; !ok {
			order = append(order, c.Target)
		}
		byTarget[c.Target] = append(byTarget[c.Target], c.Message)
	}

	lines := make([]string, 0, len(order))
	for _, name := range order {
		lines = append(lines, fmt.Sprintf("%s variants: %s", name, strings.Join(byTarget[name], " ")))
	}
	return lines
}
