package plmxml

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/plmtools/lookconf/pkg/errors"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<PLMXML xmlns="http://www.plmxml.org/Schemas/PLMXMLSchema">
  <ProductDef id="pd1">
    <InstanceGraph id="ig1">
      <ProductInstance id="n1" name="Body" partRef="#p1" type="GROUP" childRefs="n2 n3">
        <UserData id="ud1">
          <UserValue title="PR_TAGS" value="AB+CD;EF"/>
          <UserValue title="LINC_ID" value="L001"/>
        </UserData>
      </ProductInstance>
      <ProductInstance id="n2" name="Trim" partRef="#p2" type="SHAPE">
        <UserData id="ud2">
          <UserValue title="PR_TAGS" value="GH"/>
          <UserValue title="LINC_ID" value="L002"/>
        </UserData>
      </ProductInstance>
      <ProductInstance id="n3" name="Headliner" partRef="#p3" type="HOLODECK">
        <UserData id="ud3">
          <UserValue title="LINC_ID" value="L003"/>
        </UserData>
      </ProductInstance>
      <ProductInstance id="ll" name="LookLibrary" partRef="#pl">
        <UserData id="ud4">
          <UserValue title="target_1" value="SeatLeather~ [Nappa~ AB; ~ black nappa] [Cloth~ CD; ~ grey cloth]"/>
          <UserValue title="target_2" value="Dashboard~ [Matte~ EF; ~ matte finish]"/>
        </UserData>
      </ProductInstance>
    </InstanceGraph>
  </ProductDef>
</PLMXML>`

func testLogger() *log.Logger { return log.New(io.Discard) }

func TestParseDocument(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc), testLogger())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !doc.Valid() {
		t.Fatal("document should be valid")
	}

	if got := doc.Graph.Len(); got != 3 {
		t.Errorf("Graph.Len() = %d, want 3 (LookLibrary instance is not a node)", got)
	}

	n1 := doc.Graph.Node("n1")
	if n1 == nil {
		t.Fatal("node n1 missing")
	}
	if n1.Type != NodeTypeGroup {
		t.Errorf("n1.Type = %v, want GROUP", n1.Type)
	}
	if n1.PRTags != "AB+CD;EF" {
		t.Errorf("n1.PRTags = %q", n1.PRTags)
	}
	if n1.LincID != "L001" {
		t.Errorf("n1.LincID = %q", n1.LincID)
	}

	if got := doc.Graph.Children("n1"); len(got) != 2 || got[0] != "n2" || got[1] != "n3" {
		t.Errorf("Children(n1) = %v, want [n2 n3]", got)
	}
	if got := doc.Graph.Roots(); len(got) != 1 || got[0] != "n1" {
		t.Errorf("Roots() = %v, want [n1]", got)
	}

	if got := doc.Looks.TargetNames(); len(got) != 2 || got[0] != "SeatLeather" || got[1] != "Dashboard" {
		t.Errorf("TargetNames() = %v", got)
	}
	seat := doc.Looks.Target("SeatLeather")
	if len(seat.Variants) != 2 {
		t.Fatalf("SeatLeather variants = %d, want 2", len(seat.Variants))
	}
	if v := seat.Variants[0]; v.Name != "Nappa" || v.PRTags != "AB" || v.Description != "black nappa" {
		t.Errorf("variant = %+v", v)
	}
}

func TestUnknownNodeTypeFallsBack(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc), testLogger())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	n3 := doc.Graph.Node("n3")
	if n3.Type != NodeTypeUnknown {
		t.Errorf("n3.Type = %v, want UNKNOWN", n3.Type)
	}

	found := false
	for _, w := range doc.Warnings {
		if strings.Contains(w, "HOLODECK") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning naming the unknown type, got %v", doc.Warnings)
	}
}

func TestDuplicateIDLastWins(t *testing.T) {
	const dup = `<PLMXML>
  <ProductDef><InstanceGraph>
    <ProductInstance id="n1" name="First" type="SHAPE">
      <UserData><UserValue title="PR_TAGS" value="AB"/></UserData>
    </ProductInstance>
    <ProductInstance id="n1" name="Second" type="SHAPE">
      <UserData><UserValue title="PR_TAGS" value="CD"/></UserData>
    </ProductInstance>
    <ProductInstance id="ll" name="LookLibrary">
      <UserData><UserValue title="t" value="T~ [V~ AB; ~ d]"/></UserData>
    </ProductInstance>
  </InstanceGraph></ProductDef>
</PLMXML>`

	doc, err := Parse([]byte(dup), testLogger())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := doc.Graph.Len(); got != 1 {
		t.Errorf("Graph.Len() = %d, want 1", got)
	}
	if got := doc.Graph.Node("n1").Name; got != "Second" {
		t.Errorf("Node(n1).Name = %q, want last occurrence to win", got)
	}
	if len(doc.Warnings) == 0 || !strings.Contains(doc.Warnings[0], "duplicate") {
		t.Errorf("expected duplicate-id warning, got %v", doc.Warnings)
	}
}

func TestDuplicateIDChildRefsLastWins(t *testing.T) {
	const dup = `<PLMXML>
  <ProductDef><InstanceGraph>
    <ProductInstance id="n1" name="First" type="GROUP" childRefs="n2">
      <UserData><UserValue title="PR_TAGS" value="AB"/></UserData>
    </ProductInstance>
    <ProductInstance id="n2" name="Left" type="SHAPE"/>
    <ProductInstance id="n3" name="Right" type="SHAPE"/>
    <ProductInstance id="n1" name="Second" type="GROUP" childRefs="n3">
      <UserData><UserValue title="PR_TAGS" value="CD"/></UserData>
    </ProductInstance>
    <ProductInstance id="ll" name="LookLibrary">
      <UserData><UserValue title="t" value="T~ [V~ AB; ~ d]"/></UserData>
    </ProductInstance>
  </InstanceGraph></ProductDef>
</PLMXML>`

	doc, err := Parse([]byte(dup), testLogger())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := doc.Graph.Children("n1"); len(got) != 1 || got[0] != "n3" {
		t.Errorf("Children(n1) = %v, want only the last occurrence's refs [n3]", got)
	}
	if got := doc.Graph.Parents("n2"); len(got) != 0 {
		t.Errorf("Parents(n2) = %v, replaced occurrence's edge must not survive", got)
	}
}

func TestMalformedVariantGroupSkipped(t *testing.T) {
	const malformed = `<PLMXML>
  <ProductDef><InstanceGraph>
    <ProductInstance id="n1" name="N" type="SHAPE">
      <UserData><UserValue title="PR_TAGS" value="AB"/></UserData>
    </ProductInstance>
    <ProductInstance id="ll" name="LookLibrary">
      <UserData>
        <UserValue title="t" value="Seat~ [TooFewFields~ AB] [Good~ CD; ~ desc]"/>
      </UserData>
    </ProductInstance>
  </InstanceGraph></ProductDef>
</PLMXML>`

	doc, err := Parse([]byte(malformed), testLogger())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	seat := doc.Looks.Target("Seat")
	if seat == nil || len(seat.Variants) != 1 || seat.Variants[0].Name != "Good" {
		t.Fatalf("Target(Seat) = %+v, want only the well-formed variant", seat)
	}
	if len(doc.Warnings) == 0 {
		t.Error("expected a warning for the skipped group")
	}
}

func TestInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "no nodes",
			body: `<PLMXML><ProductDef><InstanceGraph>
  <ProductInstance id="ll" name="LookLibrary">
    <UserData><UserValue title="t" value="T~ [V~ AB; ~ d]"/></UserData>
  </ProductInstance>
</InstanceGraph></ProductDef></PLMXML>`,
		},
		{
			name: "no look library",
			body: `<PLMXML><ProductDef><InstanceGraph>
  <ProductInstance id="n1" name="N" type="SHAPE"/>
</InstanceGraph></ProductDef></PLMXML>`,
		},
		{
			name: "look library without parseable targets",
			body: `<PLMXML><ProductDef><InstanceGraph>
  <ProductInstance id="n1" name="N" type="SHAPE"/>
  <ProductInstance id="ll" name="LookLibrary">
    <UserData><UserValue title="t" value="~~~ nothing here"/></UserData>
  </ProductInstance>
</InstanceGraph></ProductDef></PLMXML>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body), testLogger())
			if !errors.Is(err, errors.ErrCodeInvalidDocument) {
				t.Errorf("Parse() error = %v, want INVALID_DOCUMENT", err)
			}
		})
	}
}

func TestParseMalformedXML(t *testing.T) {
	_, err := Parse([]byte("<PLMXML><unclosed"), testLogger())
	if !errors.Is(err, errors.ErrCodeParseFailed) {
		t.Errorf("Parse() error = %v, want PARSE_FAILED", err)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "structure.plmxml")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ParseFile(path, testLogger())
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if doc.Path != path {
		t.Errorf("doc.Path = %q, want %q", doc.Path, path)
	}

	_, err = ParseFile(filepath.Join(dir, "missing.plmxml"), testLogger())
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ParseFile(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestConfigurableNodes(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc), testLogger())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	nodes := doc.Graph.ConfigurableNodes()
	if len(nodes) != 2 {
		t.Fatalf("ConfigurableNodes() = %d nodes, want 2 (n3 has no PR tags)", len(nodes))
	}
	if nodes[0].ID != "n1" || nodes[1].ID != "n2" {
		t.Errorf("ConfigurableNodes order = [%s %s], want [n1 n2]", nodes[0].ID, nodes[1].ID)
	}
}
