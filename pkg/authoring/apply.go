package authoring

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/plmtools/lookconf/pkg/errors"
	"github.com/plmtools/lookconf/pkg/plmxml"
	"github.com/plmtools/lookconf/pkg/resolve"
)

// Outcome records one apply sequence. There is no rollback: a failed step
// leaves the scene in whatever state the preceding steps produced, and the
// Outcome says exactly which steps those were.
type Outcome struct {
	ID     uuid.UUID `json:"id" bson:"id"`
	Config string    `json:"config" bson:"config"`

	Started  time.Time     `json:"started" bson:"started"`
	Duration time.Duration `json:"duration" bson:"duration"`

	Version string `json:"version,omitempty" bson:"version,omitempty"` // service version from the probe

	VisibleApplied   int      `json:"visible_applied" bson:"visible_applied"`
	InvisibleApplied int      `json:"invisible_applied" bson:"invisible_applied"`
	MaterialsApplied []string `json:"materials_applied,omitempty" bson:"materials_applied,omitempty"` // target names, document order
	MissingTargets   []string `json:"missing_targets,omitempty" bson:"missing_targets,omitempty"`     // resolved but absent from the scene

	Success bool     `json:"success" bson:"success"`
	Errors  []string `json:"errors,omitempty" bson:"errors,omitempty"` // step errors in occurrence order
}

// Applier runs resolved configurations against an authoring service.
type Applier struct {
	client *Client
	logger *log.Logger
}

// NewApplier creates an Applier. A nil logger discards progress output.
func NewApplier(client *Client, logger *log.Logger) *Applier {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Applier{client: client, logger: logger}
}

// Apply pushes a resolution result to the service. The sequence is strictly
// sequential and always in this order:
//
//  1. version probe (failure aborts the whole apply)
//  2. show the visible batch
//  3. hide the invisible batch
//  4. discover scene targets
//  5. connect materials for the targets the scene actually has
//
// Steps 2 and 3 fail independently; a bad echo on one batch does not stop
// the other. A failed discovery skips step 5 entirely, since connecting
// against an unknown target set would error on every missing target.
func (a *Applier) Apply(ctx context.Context, doc *plmxml.Document, result *resolve.Result) Outcome {
	out := Outcome{
		ID:      uuid.New(),
		Config:  result.Config,
		Started: time.Now(),
	}
	defer func() { out.Duration = time.Since(out.Started) }()

	fail := func(err error) {
		out.Errors = append(out.Errors, err.Error())
		a.logger.Error("apply step failed", "err", err)
	}

	// 1: connection and version gate.
	version := &GetVersionInfoRequest{}
	if err := a.client.Do(ctx, version); err != nil {
		fail(errors.Wrap(errors.ErrCodeConnectionFailed, err, "authoring service unavailable"))
		return out
	}
	out.Version = version.Version
	a.logger.Debug("authoring service reachable", "version", version.Version)

	// 2 + 3: visibility batches.
	out.VisibleApplied = a.setVisibility(ctx, doc, result.Visible, true, &out)
	out.InvisibleApplied = a.setVisibility(ctx, doc, result.Invisible, false, &out)

	// 4: which targets does the scene actually have.
	discovery := &GetTargetNamesRequest{}
	if err := a.client.Do(ctx, discovery); err != nil {
		fail(errors.Wrap(errors.ErrCodeRemoteRejected, err, "target discovery failed, skipping materials"))
		out.Success = false
		return out
	}
	inScene := make(map[string]bool, len(discovery.Names))
	for _, name := range discovery.Names {
		inScene[name] = true
	}

	// 5: connect only the pairs the scene can take.
	var materials, targets []string
	for _, as := range result.Assignments {
		if !inScene[as.Target] {
			out.MissingTargets = append(out.MissingTargets, as.Target)
			continue
		}
		materials = append(materials, as.Variant)
		targets = append(targets, as.Target)
	}
	if len(out.MissingTargets) > 0 {
		a.logger.Warn("targets not in scene", "targets", out.MissingTargets)
	}

	if len(targets) > 0 {
		connect := &ConnectMaterialsRequest{Materials: materials, Targets: targets}
		if err := a.client.Do(ctx, connect); err != nil {
			fail(err)
		} else {
			out.MaterialsApplied = targets
		}
	}

	out.Success = len(out.Errors) == 0
	return out
}

// setVisibility sends one visibility batch and returns how many nodes it
// covered. Empty batches are vacuously successful without a call.
func (a *Applier) setVisibility(ctx context.Context, doc *plmxml.Document, ids []string, visible bool, out *Outcome) int {
	if len(ids) == 0 {
		return 0
	}

	nodes := make([]*plmxml.Node, 0, len(ids))
	for _, id := range ids {
		if n := doc.Graph.Node(id); n != nil {
			nodes = append(nodes, n)
		}
	}

	req := &SetNodesVisibleRequest{Nodes: NodeInfosFromNodes(nodes), Visible: visible}
	if err := a.client.Do(ctx, req); err != nil {
		out.Errors = append(out.Errors, err.Error())
		a.logger.Error("visibility batch failed", "visible", visible, "nodes", len(nodes), "err", err)
		return 0
	}
	return len(nodes)
}
