// Package resolve evaluates a parsed PLM-XML document against a product
// configuration string.
//
// Resolution is a pure function: it reads the document and produces a
// fresh Result without touching document state, so one document can serve
// any number of configurations, concurrently or in sequence, with no reset
// step in between.
package resolve

import (
	"fmt"
	"strings"

	"github.com/plmtools/lookconf/pkg/plmxml"
	"github.com/plmtools/lookconf/pkg/prtag"
)

// Assignment binds a material target to the variant that won resolution.
type Assignment struct {
	Target  string `json:"target" bson:"target"`
	Variant string `json:"variant" bson:"variant"`
	PRTags  string `json:"pr_tags,omitempty" bson:"pr_tags,omitempty"`
}

// Result is the outcome of resolving one document against one
// configuration. All slices follow document order, so results are
// deterministic and directly comparable across runs.
//
// Nodes without PR tags are not configuration-controlled and appear in
// neither Visible nor Invisible.
type Result struct {
	Config      string       `json:"config" bson:"config"`
	Visible     []string     `json:"visible" bson:"visible"`     // node ids whose expression matched
	Invisible   []string     `json:"invisible" bson:"invisible"` // node ids whose expression did not match
	Assignments []Assignment `json:"assignments" bson:"assignments"`
	NotUpdated  []string     `json:"not_updated,omitempty" bson:"not_updated,omitempty"` // targets with no matching variant
}

// Resolve partitions the document's configurable nodes by configuration
// match and picks one variant per material target. When several variants
// of a target match, the last declared match wins.
func Resolve(doc *plmxml.Document, config string) *Result {
	r := &Result{Config: config}

	for _, n := range doc.Graph.ConfigurableNodes() {
		if n.MatchesConfig(config) {
			r.Visible = append(r.Visible, n.ID)
		} else {
			r.Invisible = append(r.Invisible, n.ID)
		}
	}

	for _, t := range doc.Looks.Targets() {
		var winner *plmxml.MaterialVariant
		for i := range t.Variants {
			v := &t.Variants[i]
			if prtag.Compile(v.PRTags).Matches(config) {
				winner = v
			}
		}
		if winner == nil {
			r.NotUpdated = append(r.NotUpdated, t.Name)
			continue
		}
		r.Assignments = append(r.Assignments, Assignment{
			Target:  t.Name,
			Variant: winner.Name,
			PRTags:  winner.PRTags,
		})
	}

	return r
}

// Material returns the winning variant for a target, if any.
func (r *Result) Material(target string) (string, bool) {
	for _, a := range r.Assignments {
		if a.Target == target {
			return a.Variant, true
		}
	}
	return "", false
}

// Materials returns the target→variant map. The map is a copy; the
// canonical ordered form is Assignments.
func (r *Result) Materials() map[string]string {
	out := make(map[string]string, len(r.Assignments))
	for _, a := range r.Assignments {
		out[a.Target] = a.Variant
	}
	return out
}

// Summary renders a one-paragraph status of the resolution, naming the
// targets that no variant matched.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d nodes visible, %d hidden, %d materials assigned",
		len(r.Visible), len(r.Invisible), len(r.Assignments))
	if len(r.NotUpdated) > 0 {
		fmt.Fprintf(&b, "; targets not updated: %s", strings.Join(r.NotUpdated, " "))
	}
	return b.String()
}
