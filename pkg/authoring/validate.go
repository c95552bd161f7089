package authoring

import (
	"context"

	"github.com/plmtools/lookconf/pkg/errors"
	"github.com/plmtools/lookconf/pkg/plmxml"
)

// ValidationReport compares a document against the scene loaded in the
// service. It is produced on demand only; apply never runs this pass.
type ValidationReport struct {
	SceneNodes     int      // configurable scene nodes matched by LincId
	MissingNodes   []string // document nodes absent from the scene, by name (document order)
	SceneTargets   int
	MissingTargets []string // document targets absent from the scene (declared order)
}

// Clean reports whether the scene carries everything the document expects.
func (r *ValidationReport) Clean() bool {
	return len(r.MissingNodes) == 0 && len(r.MissingTargets) == 0
}

// ValidateScene checks that every configurable document node and every
// material target exists in the currently loaded scene. Nodes correlate by
// LincId; document nodes without one cannot be checked and count as
// missing.
func (a *Applier) ValidateScene(ctx context.Context, doc *plmxml.Document) (*ValidationReport, error) {
	structure := &GetSceneStructureRequest{}
	if err := a.client.Do(ctx, structure); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConnectionFailed, err, "scene structure fetch failed")
	}

	discovery := &GetTargetNamesRequest{}
	if err := a.client.Do(ctx, discovery); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConnectionFailed, err, "target discovery failed")
	}

	report := &ValidationReport{}

	for _, n := range doc.Graph.ConfigurableNodes() {
		if _, ok := structure.Nodes[n.LincID]; n.LincID != "" && ok {
			report.SceneNodes++
			continue
		}
		name := n.Name
		if name == "" {
			name = n.ID
		}
		report.MissingNodes = append(report.MissingNodes, name)
	}

	inScene := make(map[string]bool, len(discovery.Names))
	for _, name := range discovery.Names {
		inScene[name] = true
	}
	for _, name := range doc.Looks.TargetNames() {
		if inScene[name] {
			report.SceneTargets++
		} else {
			report.MissingTargets = append(report.MissingTargets, name)
		}
	}

	return report, nil
}
