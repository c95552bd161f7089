package plmxml

import (
	"github.com/plmtools/lookconf/pkg/prtag"
)

// NodeType classifies a product instance. The set is closed: values outside
// it parse to NodeTypeUnknown.
type NodeType string

const (
	NodeTypeShape            NodeType = "SHAPE"
	NodeTypeGroup            NodeType = "GROUP"
	NodeTypeLightPoint       NodeType = "LIGHT_POINT"
	NodeTypeLightSpot        NodeType = "LIGHT_SPOT"
	NodeTypeLightDirectional NodeType = "LIGHT_DIRECTIONAL"
	NodeTypeCamera           NodeType = "CAMERA"
	NodeTypeBody             NodeType = "BODY"
	NodeTypeShell            NodeType = "SHELL"
	NodeTypeFile             NodeType = "FILE"
	NodeTypeLocator          NodeType = "LOCATOR"
	NodeTypeSwitch           NodeType = "SWITCH"
	NodeTypeLOD              NodeType = "LOD"
	NodeTypeSound            NodeType = "SOUND"
	NodeTypeFX               NodeType = "FX"
	NodeTypeUnknown          NodeType = "UNKNOWN"
)

var nodeTypes = map[string]NodeType{
	"SHAPE":             NodeTypeShape,
	"GROUP":             NodeTypeGroup,
	"LIGHT_POINT":       NodeTypeLightPoint,
	"LIGHT_SPOT":        NodeTypeLightSpot,
	"LIGHT_DIRECTIONAL": NodeTypeLightDirectional,
	"CAMERA":            NodeTypeCamera,
	"BODY":              NodeTypeBody,
	"SHELL":             NodeTypeShell,
	"FILE":              NodeTypeFile,
	"LOCATOR":           NodeTypeLocator,
	"SWITCH":            NodeTypeSwitch,
	"LOD":               NodeTypeLOD,
	"SOUND":             NodeTypeSound,
	"FX":                NodeTypeFX,
	"UNKNOWN":           NodeTypeUnknown,
}

// ParseNodeType maps a raw type attribute to a NodeType. Unrecognized
// values (including the empty string) fall back to NodeTypeUnknown with
// ok=false so the parser can warn once per occurrence.
func ParseNodeType(raw string) (t NodeType, ok bool) {
	if t, ok := nodeTypes[raw]; ok {
		return t, true
	}
	return NodeTypeUnknown, false
}

// User-value titles with dedicated meaning on product instances.
const (
	UserValuePRTags = "PR_TAGS"
	UserValueLincID = "LINC_ID"
)

// Node is one ProductInstance of the document.
type Node struct {
	ID       string
	Name     string
	PartRef  string
	Type     NodeType
	LincID   string
	PRTags   string            // raw PR-tag expression, empty for unconditional nodes
	UserData map[string]string // all UserValue title/value pairs, PR_TAGS and LINC_ID included
}

// HasPRTags reports whether the node carries a configuration expression.
// Nodes without one are never switched by resolution.
func (n *Node) HasPRTags() bool { return n.PRTags != "" }

// MatchesConfig reports whether the node's PR-tag expression matches the
// configuration string. False for nodes without PR tags.
func (n *Node) MatchesConfig(config string) bool {
	if n.PRTags == "" {
		return false
	}
	return prtag.Compile(n.PRTags).Matches(config)
}

// ProductGraph holds the parsed product instances, indexed by id and kept
// in document order. Hierarchy comes from childRefs attributes; documents
// without them yield a flat graph where every node is a root.
type ProductGraph struct {
	nodes    map[string]*Node
	order    []string
	children map[string][]string
	parents  map[string][]string
}

// NewProductGraph returns an empty graph.
func NewProductGraph() *ProductGraph {
	return &ProductGraph{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode inserts or replaces a node. On a duplicate id the new node wins
// but keeps the original document-order position, and replaced=true is
// returned so the caller can warn.
func (g *ProductGraph) AddNode(n *Node) (replaced bool) {
	if _, ok := g.nodes[n.ID]; ok {
		g.nodes[n.ID] = n
		return true
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return false
}

// AddChild records a parent→child reference. Unknown ids are recorded as
// given; Resolve-side consumers only ever walk ids present in the graph.
func (g *ProductGraph) AddChild(parentID, childID string) {
	g.children[parentID] = append(g.children[parentID], childID)
	g.parents[childID] = append(g.parents[childID], parentID)
}

// Node returns the node with the given id, or nil.
func (g *ProductGraph) Node(id string) *Node { return g.nodes[id] }

// Len returns the number of nodes.
func (g *ProductGraph) Len() int { return len(g.order) }

// Nodes returns all nodes in document order.
func (g *ProductGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Children returns the child ids of a node in reference order.
func (g *ProductGraph) Children(id string) []string { return g.children[id] }

// Parents returns the parent ids of a node.
func (g *ProductGraph) Parents(id string) []string { return g.parents[id] }

// Roots returns the ids of nodes never referenced as a child, in document
// order.
func (g *ProductGraph) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// ConfigurableNodes returns the nodes carrying PR tags, in document order.
// These are the nodes resolution partitions into visible and invisible.
func (g *ProductGraph) ConfigurableNodes() []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.HasPRTags() {
			out = append(out, n)
		}
	}
	return out
}
