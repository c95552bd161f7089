package plmxml

import (
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc), testLogger())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	data, err := doc.Snapshot().Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot() error = %v", err)
	}
	restored := FromSnapshot(snap)

	if !restored.Valid() {
		t.Fatal("restored document should be valid")
	}
	if restored.Graph.Len() != doc.Graph.Len() {
		t.Errorf("node count = %d, want %d", restored.Graph.Len(), doc.Graph.Len())
	}

	want := doc.Graph.Nodes()
	got := restored.Graph.Nodes()
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Type != want[i].Type {
			t.Errorf("node %d = %s/%s, want %s/%s", i, got[i].ID, got[i].Type, want[i].ID, want[i].Type)
		}
		if got[i].PRTags != want[i].PRTags || got[i].LincID != want[i].LincID {
			t.Errorf("node %s user data not restored", want[i].ID)
		}
	}

	if c := restored.Graph.Children("n1"); len(c) != 2 || c[0] != "n2" {
		t.Errorf("Children(n1) = %v after restore", c)
	}

	wantTargets := doc.Looks.TargetNames()
	gotTargets := restored.Looks.TargetNames()
	if len(gotTargets) != len(wantTargets) {
		t.Fatalf("targets = %v, want %v", gotTargets, wantTargets)
	}
	for i := range wantTargets {
		if gotTargets[i] != wantTargets[i] {
			t.Errorf("target %d = %q, want %q (declared order must survive)", i, gotTargets[i], wantTargets[i])
		}
	}
	seat := restored.Looks.Target("SeatLeather")
	if len(seat.Variants) != 2 || seat.Variants[0].PRTags != "AB" {
		t.Errorf("SeatLeather variants not restored: %+v", seat.Variants)
	}
}

func TestFromSnapshotRecomputesConflicts(t *testing.T) {
	snap := Snapshot{
		Nodes: []NodeSnapshot{{ID: "n1", Type: NodeTypeShape}},
		Targets: []TargetSnapshot{{
			Name: "Seat",
			Variants: []VariantSnapshot{
				{Name: "A", PRTags: "AB+CD"},
				{Name: "B", PRTags: "AB"},
			},
		}},
	}

	doc := FromSnapshot(snap)
	if got := doc.Looks.Conflicts(); len(got) != 1 {
		t.Errorf("Conflicts() = %v, want the shadowing variant reported", got)
	}
}
