package plmxml

import (
	"encoding/json"

	"github.com/plmtools/lookconf/pkg/errors"
)

// =============================================================================
// Snapshot - Document Serialization
// =============================================================================

// Snapshot is the canonical serialization format for parsed documents.
// Used for caching and cross-tool compatibility: parsing a large PLM-XML
// file is much slower than restoring its snapshot, so the CLI caches
// snapshots keyed by the source file digest.
//
// The format is designed for round-trip fidelity: parse → snapshot →
// restore produces an equivalent document (conflicts are recomputed on
// restore, warnings are not carried).
type Snapshot struct {
	Nodes   []NodeSnapshot   `json:"nodes" bson:"nodes"`
	Edges   []EdgeSnapshot   `json:"edges,omitempty" bson:"edges,omitempty"`
	Targets []TargetSnapshot `json:"targets" bson:"targets"`
}

// NodeSnapshot is one product instance in serialized form.
type NodeSnapshot struct {
	ID       string            `json:"id" bson:"id"`
	Name     string            `json:"name,omitempty" bson:"name,omitempty"`
	PartRef  string            `json:"part_ref,omitempty" bson:"part_ref,omitempty"`
	Type     NodeType          `json:"type" bson:"type"`
	UserData map[string]string `json:"user_data,omitempty" bson:"user_data,omitempty"`
}

// EdgeSnapshot is one parent→child reference.
type EdgeSnapshot struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// TargetSnapshot is one material target with its variants in declared order.
type TargetSnapshot struct {
	Name     string            `json:"name" bson:"name"`
	Variants []VariantSnapshot `json:"variants" bson:"variants"`
}

// VariantSnapshot is one material variant.
type VariantSnapshot struct {
	Name        string `json:"name" bson:"name"`
	PRTags      string `json:"pr_tags,omitempty" bson:"pr_tags,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// =============================================================================
// Document ↔ Snapshot Conversion
// =============================================================================

// Snapshot converts the document to its serialization format. Nodes and
// targets keep document order for deterministic output.
func (d *Document) Snapshot() Snapshot {
	var s Snapshot

	for _, n := range d.Graph.Nodes() {
		s.Nodes = append(s.Nodes, NodeSnapshot{
			ID:       n.ID,
			Name:     n.Name,
			PartRef:  n.PartRef,
			Type:     n.Type,
			UserData: copyUserData(n.UserData),
		})
		for _, child := range d.Graph.Children(n.ID) {
			s.Edges = append(s.Edges, EdgeSnapshot{From: n.ID, To: child})
		}
	}

	for _, t := range d.Looks.Targets() {
		ts := TargetSnapshot{Name: t.Name}
		for _, v := range t.Variants {
			ts.Variants = append(ts.Variants, VariantSnapshot{
				Name:        v.Name,
				PRTags:      v.PRTags,
				Description: v.Description,
			})
		}
		s.Targets = append(s.Targets, ts)
	}

	return s
}

// FromSnapshot restores a document from its serialized form. Conflict
// detection is re-run so restored documents carry the same diagnostics as
// freshly parsed ones.
func FromSnapshot(s Snapshot) *Document {
	doc := &Document{
		Graph: NewProductGraph(),
		Looks: NewLookLibrary(),
	}

	for _, ns := range s.Nodes {
		node := &Node{
			ID:       ns.ID,
			Name:     ns.Name,
			PartRef:  ns.PartRef,
			Type:     ns.Type,
			UserData: copyUserData(ns.UserData),
		}
		if node.UserData != nil {
			node.PRTags = node.UserData[UserValuePRTags]
			node.LincID = node.UserData[UserValueLincID]
		}
		doc.Graph.AddNode(node)
	}
	for _, e := range s.Edges {
		doc.Graph.AddChild(e.From, e.To)
	}

	for _, ts := range s.Targets {
		t := &MaterialTarget{Name: ts.Name}
		for _, vs := range ts.Variants {
			t.Variants = append(t.Variants, MaterialVariant{
				Name:        vs.Name,
				PRTags:      vs.PRTags,
				Description: vs.Description,
			})
		}
		doc.Looks.targets[t.Name] = t
		doc.Looks.order = append(doc.Looks.order, t.Name)
	}
	doc.Looks.DetectConflicts()

	return doc
}

// Marshal serializes the snapshot to JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot deserializes JSON bytes to a Snapshot.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodeParseFailed, err, "decode snapshot")
	}
	return s, nil
}

func copyUserData(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
