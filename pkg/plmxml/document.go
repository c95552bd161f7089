// Package plmxml parses PLM-XML product structures into an in-memory
// document: a product graph of configurable nodes plus a look library of
// material targets and variants.
//
// The input dialect is the ProductDef/InstanceGraph/ProductInstance subset
// exported by the authoring pipeline. Anything else in the file is ignored.
// Structural oddities (duplicate ids, unknown node types, malformed look
// groups) degrade to warnings; a parse only fails outright on unreadable
// XML or a document that yields no usable content.
package plmxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/plmtools/lookconf/pkg/errors"
)

// Document is a parsed PLM-XML file.
type Document struct {
	Path     string // source file, empty when parsed from memory
	Graph    *ProductGraph
	Looks    *LookLibrary
	Warnings []string
}

// Valid reports whether the document is usable: at least one product
// instance and a look library with at least one target.
func (d *Document) Valid() bool {
	return d.Graph.Len() > 0 && d.Looks.Valid()
}

// xmlDocument mirrors the subset of PLM-XML the engine consumes.
type xmlDocument struct {
	XMLName   xml.Name      `xml:"PLMXML"`
	Instances []xmlInstance `xml:"ProductDef>InstanceGraph>ProductInstance"`
}

type xmlInstance struct {
	ID        string         `xml:"id,attr"`
	Name      string         `xml:"name,attr"`
	PartRef   string         `xml:"partRef,attr"`
	Type      string         `xml:"type,attr"`
	ChildRefs string         `xml:"childRefs,attr"`
	Values    []xmlUserValue `xml:"UserData>UserValue"`
}

type xmlUserValue struct {
	Title string `xml:"title,attr"`
	Value string `xml:"value,attr"`
}

// ParseFile reads and parses a PLM-XML file.
func ParseFile(path string, logger *log.Logger) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "plmxml file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeParseFailed, err, "read %s", path)
	}
	doc, err := Parse(data, logger)
	if doc != nil {
		doc.Path = path
	}
	return doc, err
}

// Parse parses PLM-XML bytes. A nil logger discards warnings; the warning
// text is always collected on the returned document either way.
//
// Parse returns an error only for malformed XML or a document that is not
// Valid. Warnings cover duplicate instance ids (last occurrence wins),
// unknown node types (fall back to UNKNOWN) and malformed look-library
// groups (skipped).
func Parse(data []byte, logger *log.Logger) (*Document, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var raw xmlDocument
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParseFailed, err, "decode plmxml")
	}

	doc := &Document{
		Graph: NewProductGraph(),
		Looks: NewLookLibrary(),
	}

	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		doc.Warnings = append(doc.Warnings, msg)
		logger.Warn(msg)
	}

	type childRef struct{ parent, child string }
	var refs []childRef

	for _, inst := range raw.Instances {
		if inst.Name == LookLibraryName {
			doc.parseLookInstance(inst, warn)
			continue
		}

		node := &Node{
			ID:       inst.ID,
			Name:     inst.Name,
			PartRef:  inst.PartRef,
			UserData: make(map[string]string, len(inst.Values)),
		}
		for _, uv := range inst.Values {
			node.UserData[uv.Title] = uv.Value
		}
		node.PRTags = node.UserData[UserValuePRTags]
		node.LincID = node.UserData[UserValueLincID]

		t, known := ParseNodeType(inst.Type)
		node.Type = t
		if !known && inst.Type != "" {
			warn("node %s: unknown type %q, treating as UNKNOWN", inst.ID, inst.Type)
		}

		if doc.Graph.AddNode(node) {
			warn("duplicate instance id %s, keeping last occurrence", inst.ID)
			// Last wins for hierarchy too: drop the replaced occurrence's refs.
			kept := refs[:0]
			for _, r := range refs {
				if r.parent != inst.ID {
					kept = append(kept, r)
				}
			}
			refs = kept
		}

		for _, child := range strings.Fields(inst.ChildRefs) {
			refs = append(refs, childRef{parent: inst.ID, child: child})
		}
	}

	// Hierarchy is resolved after all nodes exist so forward references work.
	for _, r := range refs {
		if doc.Graph.Node(r.child) == nil {
			logger.Debug("childRef to unknown instance", "parent", r.parent, "child", r.child)
			continue
		}
		doc.Graph.AddChild(r.parent, r.child)
	}

	if !doc.Valid() {
		return doc, errors.New(errors.ErrCodeInvalidDocument,
			"document has %d nodes and %d material targets, need at least one of each",
			doc.Graph.Len(), doc.Looks.Len())
	}

	for _, c := range doc.Looks.DetectConflicts() {
		logger.Warn("variant conflict", "target", c.Target, "detail", c.Message)
	}

	return doc, nil
}

func (d *Document) parseLookInstance(inst xmlInstance, warn func(string, ...any)) {
	for _, uv := range inst.Values {
		target, skipped, ok := d.Looks.AddTargetValue(uv.Value)
		for _, group := range skipped {
			name := uv.Title
			if target != nil {
				name = target.Name
			}
			warn("look library %s: skipping malformed variant group %s", name, group)
		}
		if !ok {
			warn("look library: no variants parsed from value %q", uv.Title)
		}
	}
}
