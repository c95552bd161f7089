package authoring

import (
	"encoding/xml"
	"unicode"

	"github.com/plmtools/lookconf/pkg/errors"
)

// nsAttrs carries the schema-instance attributes every request element
// declares alongside the protocol namespace.
type nsAttrs struct {
	XSD string `xml:"xmlns:xsd,attr"`
	XSI string `xml:"xmlns:xsi,attr"`
}

func schemaAttrs() nsAttrs {
	return nsAttrs{
		XSD: "http://www.w3.org/2001/XMLSchema",
		XSI: "http://www.w3.org/2001/XMLSchema-instance",
	}
}

// stringList renders the protocol's repeated <string> element arrays.
type stringList struct {
	Strings []string `xml:"string"`
}

// =============================================================================
// getversioninfo
// =============================================================================

// GetVersionInfoRequest probes the service version. It doubles as the
// connection check: the apply sequence refuses to proceed when the probe
// fails or the answer does not look like a version.
type GetVersionInfoRequest struct {
	// Version is filled from the response.
	Version string
}

func (r *GetVersionInfoRequest) MethodPath() string { return "getversioninfo" }

func (r *GetVersionInfoRequest) Envelope() any {
	return struct {
		XMLName xml.Name `xml:"urn:authoringsystem_v2 GetVersionInfoRequest"`
		nsAttrs
	}{nsAttrs: schemaAttrs()}
}

func (r *GetVersionInfoRequest) ReadResponse(data []byte) error {
	var resp struct {
		ReturnVal string `xml:"returnVal"`
	}
	if err := xml.Unmarshal(data, &resp); err != nil {
		return errors.Wrap(errors.ErrCodeRemoteRejected, err, "getversioninfo: decode response")
	}
	if resp.ReturnVal == "" || !unicode.IsDigit(rune(resp.ReturnVal[0])) {
		return errors.New(errors.ErrCodeEchoMismatch,
			"getversioninfo: %q is not a version", resp.ReturnVal)
	}
	r.Version = resp.ReturnVal
	return nil
}

// =============================================================================
// node/set/visible
// =============================================================================

// SetNodesVisibleRequest switches the visibility of a batch of scene nodes.
// The service echoes the requested flag in returnVal; anything else means
// the batch was not applied as requested.
type SetNodesVisibleRequest struct {
	Nodes   []NodeInfo
	Visible bool
}

func (r *SetNodesVisibleRequest) MethodPath() string { return "node/set/visible" }

func (r *SetNodesVisibleRequest) Envelope() any {
	return struct {
		XMLName xml.Name `xml:"urn:authoringsystem_v2 NodeSetVisibleRequest"`
		nsAttrs
		Nodes   []NodeInfo `xml:"nodes>NodeInfo"`
		Visible bool       `xml:"visible"`
	}{nsAttrs: schemaAttrs(), Nodes: r.Nodes, Visible: r.Visible}
}

func (r *SetNodesVisibleRequest) ReadResponse(data []byte) error {
	var resp struct {
		ReturnVal bool `xml:"returnVal"`
	}
	if err := xml.Unmarshal(data, &resp); err != nil {
		return errors.Wrap(errors.ErrCodeRemoteRejected, err, "node/set/visible: decode response")
	}
	if resp.ReturnVal != r.Visible {
		return errors.New(errors.ErrCodeEchoMismatch,
			"node/set/visible: service echoed %v, requested %v", resp.ReturnVal, r.Visible)
	}
	return nil
}

// =============================================================================
// material/getallnames
// =============================================================================

// GetTargetNamesRequest lists the material targets present in the loaded
// scene. Apply uses it to exclude targets the scene does not carry.
type GetTargetNamesRequest struct {
	// Names is filled from the response.
	Names []string
}

func (r *GetTargetNamesRequest) MethodPath() string { return "material/getallnames" }

func (r *GetTargetNamesRequest) Envelope() any {
	return struct {
		XMLName xml.Name `xml:"urn:authoringsystem_v2 TargetGetAllNamesRequest"`
		nsAttrs
	}{nsAttrs: schemaAttrs()}
}

func (r *GetTargetNamesRequest) ReadResponse(data []byte) error {
	var resp struct {
		Names []string `xml:"returnVal>string"`
	}
	if err := xml.Unmarshal(data, &resp); err != nil {
		return errors.Wrap(errors.ErrCodeRemoteRejected, err, "material/getallnames: decode response")
	}
	r.Names = resp.Names
	return nil
}

// =============================================================================
// material/connecttotargets
// =============================================================================

// ConnectMaterialsRequest connects materials to targets pairwise: Materials
// and Targets are parallel lists. The service returns true only if every
// pair connected.
type ConnectMaterialsRequest struct {
	Materials         []string
	Targets           []string
	UseCopyMethod     bool
	ReplaceTargetName bool
}

func (r *ConnectMaterialsRequest) MethodPath() string { return "material/connecttotargets" }

func (r *ConnectMaterialsRequest) Envelope() any {
	return struct {
		XMLName xml.Name `xml:"urn:authoringsystem_v2 MaterialConnectToTargetsRequest"`
		nsAttrs
		Materials         stringList `xml:"materialNames"`
		Targets           stringList `xml:"targetNames"`
		UseCopyMethod     bool       `xml:"useCopyMethod"`
		ReplaceTargetName bool       `xml:"replaceTargetName"`
	}{
		nsAttrs:           schemaAttrs(),
		Materials:         stringList{Strings: r.Materials},
		Targets:           stringList{Strings: r.Targets},
		UseCopyMethod:     r.UseCopyMethod,
		ReplaceTargetName: r.ReplaceTargetName,
	}
}

func (r *ConnectMaterialsRequest) ReadResponse(data []byte) error {
	var resp struct {
		ReturnVal bool `xml:"returnVal"`
	}
	if err := xml.Unmarshal(data, &resp); err != nil {
		return errors.Wrap(errors.ErrCodeRemoteRejected, err, "material/connecttotargets: decode response")
	}
	if !resp.ReturnVal {
		return errors.New(errors.ErrCodeEchoMismatch,
			"material/connecttotargets: service reported not all %d pairs connected", len(r.Targets))
	}
	return nil
}

// =============================================================================
// scene/get/structure
// =============================================================================

// GetSceneStructureRequest fetches the scene's node structure. Nodes come
// back keyed by LincId for correlation with document nodes.
type GetSceneStructureRequest struct {
	// Nodes is filled from the response, keyed by LincId. Nodes without a
	// LincId cannot be correlated and are dropped.
	Nodes map[string]NodeInfo
}

func (r *GetSceneStructureRequest) MethodPath() string { return "scene/get/structure" }

func (r *GetSceneStructureRequest) Envelope() any {
	return struct {
		XMLName xml.Name `xml:"urn:authoringsystem_v2 SceneGetStructureRequest"`
		nsAttrs
	}{nsAttrs: schemaAttrs()}
}

func (r *GetSceneStructureRequest) ReadResponse(data []byte) error {
	var resp struct {
		Nodes []NodeInfo `xml:"returnVal>NodeInfo"`
	}
	if err := xml.Unmarshal(data, &resp); err != nil {
		return errors.Wrap(errors.ErrCodeRemoteRejected, err, "scene/get/structure: decode response")
	}
	r.Nodes = make(map[string]NodeInfo, len(resp.Nodes))
	for _, n := range resp.Nodes {
		if n.LincID != "" {
			r.Nodes[n.LincID] = n
		}
	}
	return nil
}

// =============================================================================
// scene/load, scene/get/active
// =============================================================================

// LoadSceneRequest asks the service to open a scene file from a path the
// service itself can reach.
type LoadSceneRequest struct {
	Path string
}

func (r *LoadSceneRequest) MethodPath() string { return "scene/load" }

func (r *LoadSceneRequest) Envelope() any {
	return struct {
		XMLName xml.Name `xml:"urn:authoringsystem_v2 SceneLoadRequest"`
		nsAttrs
		Path string `xml:"filePath"`
	}{nsAttrs: schemaAttrs(), Path: r.Path}
}

func (r *LoadSceneRequest) ReadResponse(data []byte) error {
	var resp struct {
		ReturnVal bool `xml:"returnVal"`
	}
	if err := xml.Unmarshal(data, &resp); err != nil {
		return errors.Wrap(errors.ErrCodeRemoteRejected, err, "scene/load: decode response")
	}
	if !resp.ReturnVal {
		return errors.New(errors.ErrCodeEchoMismatch, "scene/load: service refused %s", r.Path)
	}
	return nil
}

// GetActiveSceneRequest returns the path of the scene currently open in
// the service.
type GetActiveSceneRequest struct {
	// Path is filled from the response.
	Path string
}

func (r *GetActiveSceneRequest) MethodPath() string { return "scene/get/active" }

func (r *GetActiveSceneRequest) Envelope() any {
	return struct {
		XMLName xml.Name `xml:"urn:authoringsystem_v2 SceneGetActiveRequest"`
		nsAttrs
	}{nsAttrs: schemaAttrs()}
}

func (r *GetActiveSceneRequest) ReadResponse(data []byte) error {
	var resp struct {
		ReturnVal string `xml:"returnVal"`
	}
	if err := xml.Unmarshal(data, &resp); err != nil {
		return errors.Wrap(errors.ErrCodeRemoteRejected, err, "scene/get/active: decode response")
	}
	r.Path = resp.ReturnVal
	return nil
}
