package authoring

import (
	"encoding/xml"
	"sort"

	"github.com/plmtools/lookconf/pkg/plmxml"
)

// NodeInfo is the protocol's node element, used both in requests (naming
// the nodes a call operates on) and in scene-structure responses. Nodes are
// correlated across document and scene by LincId, never by the document's
// instance id, which the service does not know.
type NodeInfo struct {
	XMLName    xml.Name        `xml:"NodeInfo"`
	LincID     string          `xml:"LincId"`
	Name       string          `xml:"Name,omitempty"`
	Type       string          `xml:"NodeInfoType,omitempty"`
	Attributes []UserAttribute `xml:"UserAttributes>UserAttribute,omitempty"`
}

// UserAttribute is one key/value pair of a NodeInfo.
type UserAttribute struct {
	Key   string `xml:"Key"`
	Value string `xml:"Value"`
}

// NodeInfoFromNode converts a document node to its wire form. Attributes
// are emitted in sorted key order so payloads are byte-stable across runs.
func NodeInfoFromNode(n *plmxml.Node) NodeInfo {
	info := NodeInfo{
		LincID: n.LincID,
		Name:   n.Name,
		Type:   string(n.Type),
	}

	keys := make([]string, 0, len(n.UserData))
	for k := range n.UserData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		info.Attributes = append(info.Attributes, UserAttribute{Key: k, Value: n.UserData[k]})
	}

	return info
}

// NodeInfosFromNodes converts a node slice, preserving order.
func NodeInfosFromNodes(nodes []*plmxml.Node) []NodeInfo {
	out := make([]NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NodeInfoFromNode(n))
	}
	return out
}
