// Package astest provides an in-memory authoring service speaking the real
// wire protocol. Tests run clients against it, and the CLI's mock command
// serves it for local development without a seat of the authoring tool.
package astest

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// ConnectCall records one material/connecttotargets payload as received.
type ConnectCall struct {
	Materials []string
	Targets   []string
}

// VisibilityCall records one node/set/visible payload as received.
type VisibilityCall struct {
	LincIDs []string
	Visible bool
}

// SceneNode is one node of the mock's scene, keyed by LincID.
type SceneNode struct {
	LincID string
	Name   string
	Type   string
}

// Server is a mock authoring service. State mutators and recorded calls
// are safe for concurrent use.
type Server struct {
	router chi.Router

	mu          sync.Mutex
	version     string
	targets     []string
	nodes       []SceneNode
	activeScene string

	connects     []ConnectCall
	visibilities []VisibilityCall

	// FailVisibility makes node/set/visible echo the negated flag, the way
	// a service reports a batch it could not apply.
	FailVisibility bool
}

// NewServer creates a mock service with the given protocol version.
func NewServer(version string) *Server {
	s := &Server{version: version}

	r := chi.NewRouter()
	r.Post("/getversioninfo", s.handleVersion)
	r.Post("/node/set/visible", s.handleSetVisible)
	r.Post("/material/getallnames", s.handleTargetNames)
	r.Post("/material/connecttotargets", s.handleConnect)
	r.Post("/scene/get/structure", s.handleStructure)
	r.Post("/scene/load", s.handleSceneLoad)
	r.Post("/scene/get/active", s.handleActiveScene)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler. The real service addresses methods
// below "<api-version>///"; the version prefix and empty segments are
// stripped before routing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if i := strings.Index(path, "///"); i >= 0 {
		path = path[i+2:] // keep one leading slash
	}
	r2 := r.Clone(r.Context())
	r2.URL.Path = path
	s.router.ServeHTTP(w, r2)
}

// SetTargets replaces the scene's material target set.
func (s *Server) SetTargets(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append([]string(nil), names...)
}

// SetNodes replaces the scene's node set.
func (s *Server) SetNodes(nodes ...SceneNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append([]SceneNode(nil), nodes...)
}

// ConnectCalls returns the recorded material connect payloads.
func (s *Server) ConnectCalls() []ConnectCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ConnectCall(nil), s.connects...)
}

// VisibilityCalls returns the recorded visibility payloads.
func (s *Server) VisibilityCalls() []VisibilityCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]VisibilityCall(nil), s.visibilities...)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeReturnVal(w, "GetVersionInfoResponse", s.version)
}

func (s *Server) handleSetVisible(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LincIDs []string `xml:"nodes>NodeInfo>LincId"`
		Visible bool     `xml:"visible"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	s.visibilities = append(s.visibilities, VisibilityCall{LincIDs: req.LincIDs, Visible: req.Visible})
	fail := s.FailVisibility
	s.mu.Unlock()

	echo := req.Visible
	if fail {
		echo = !echo
	}
	writeReturnVal(w, "NodeSetVisibleResponse", echo)
}

func (s *Server) handleTargetNames(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	names := append([]string(nil), s.targets...)
	s.mu.Unlock()

	fmt.Fprint(w, xml.Header)
	fmt.Fprint(w, `<TargetGetAllNamesResponse xmlns="urn:authoringsystem_v2"><returnVal>`)
	for _, n := range names {
		fmt.Fprintf(w, "<string>%s</string>", xmlEscape(n))
	}
	fmt.Fprint(w, `</returnVal></TargetGetAllNamesResponse>`)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Materials []string `xml:"materialNames>string"`
		Targets   []string `xml:"targetNames>string"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	s.connects = append(s.connects, ConnectCall{Materials: req.Materials, Targets: req.Targets})
	known := make(map[string]bool, len(s.targets))
	for _, t := range s.targets {
		known[t] = true
	}
	s.mu.Unlock()

	// The real service answers false when any named target is missing.
	ok := len(req.Targets) > 0 && len(req.Targets) == len(req.Materials)
	for _, t := range req.Targets {
		if !known[t] {
			ok = false
		}
	}
	writeReturnVal(w, "MaterialConnectToTargetsResponse", ok)
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	nodes := append([]SceneNode(nil), s.nodes...)
	s.mu.Unlock()

	fmt.Fprint(w, xml.Header)
	fmt.Fprint(w, `<SceneGetStructureResponse xmlns="urn:authoringsystem_v2"><returnVal>`)
	for _, n := range nodes {
		fmt.Fprintf(w, "<NodeInfo><LincId>%s</LincId><Name>%s</Name><NodeInfoType>%s</NodeInfoType></NodeInfo>",
			xmlEscape(n.LincID), xmlEscape(n.Name), xmlEscape(n.Type))
	}
	fmt.Fprint(w, `</returnVal></SceneGetStructureResponse>`)
}

func (s *Server) handleSceneLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `xml:"filePath"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	s.activeScene = req.Path
	s.mu.Unlock()

	writeReturnVal(w, "SceneLoadResponse", req.Path != "")
}

func (s *Server) handleActiveScene(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	path := s.activeScene
	s.mu.Unlock()
	writeReturnVal(w, "SceneGetActiveResponse", path)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	data, err := io.ReadAll(r.Body)
	if err == nil {
		err = xml.Unmarshal(data, v)
	}
	if err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeReturnVal(w http.ResponseWriter, element string, val any) {
	fmt.Fprint(w, xml.Header)
	fmt.Fprintf(w, `<%s xmlns="urn:authoringsystem_v2"><returnVal>%v</returnVal></%s>`, element, val, element)
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
