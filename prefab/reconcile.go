package prefab

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/plus3/stencil/scene"
)

// ReconciliationReport lists what a reconcile pass changed or flagged.
// Orphans are reported, never auto-deleted: a live node may hold user edits
// or children its author does not want silently discarded.
type ReconciliationReport struct {
	Created []*scene.EntityNode
	Orphans []*scene.EntityNode
}

// Empty reports whether the pass produced no delta.
func (r *ReconciliationReport) Empty() bool {
	return len(r.Created) == 0 && len(r.Orphans) == 0
}

// Reconcile diffs a live instance's tagged subtree against the current
// template: entities are created for template nodes with no live
// counterpart, and live nodes whose template node no longer exists are
// flagged as orphans. Created entities are attached through sink so they
// integrate with the caller's bookkeeping (undo stacks, or a deferred
// scene.Commands buffer when reconciling mid-frame). The operation is
// idempotent: a second pass with no further template changes reports an
// empty delta.
func Reconcile(reg *Registry, sc *scene.Scene, instanceRoot *scene.EntityNode, p *Prefab, sink scene.Sink) (*ReconciliationReport, error) {
	if instanceRoot == nil {
		return nil, fmt.Errorf("reconcile against prefab %q: nil instance root", p.ID)
	}
	if sink == nil {
		sink = sc
	}

	// Step 1: index the live subtree by originating template node id.
	// The walk order is kept so the orphan report is deterministic.
	index := make(map[string]*scene.EntityNode)
	var indexed []*scene.EntityNode
	stack := []*scene.EntityNode{instanceRoot}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if origin := n.Origin(); origin != nil && origin.PrefabID == p.ID {
			if prev, dup := index[origin.TemplateNodeID]; dup {
				reg.log.Warn("duplicate template node id in instance subtree",
					zap.String("prefab", p.ID),
					zap.String("template_node", origin.TemplateNodeID),
					zap.String("kept", prev.ID),
					zap.String("ignored", n.ID))
			} else {
				index[origin.TemplateNodeID] = n
				indexed = append(indexed, n)
			}
		}
		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	report := &ReconciliationReport{}

	// Step 2: create entities for template nodes missing from the index.
	// The missing set is computed before any entity is created, and parents
	// resolve through byID, so template order guarantees a node's parent is
	// processed before the node itself.
	byID := make(map[string]*scene.EntityNode, len(index))
	for id, n := range index {
		byID[id] = n
	}
	rootNode, ok := p.Root()
	if !ok {
		return nil, fmt.Errorf("prefab %q has no root node: %w", p.ID, ErrMalformedTemplate)
	}
	if _, ok := byID[rootNode.ID]; !ok {
		// The instance root stands in for the template root even when its
		// recorded origin id predates a root id rewrite.
		byID[rootNode.ID] = instanceRoot
	}

	var missing []*TemplateNode
	for i := range p.Nodes {
		tn := &p.Nodes[i]
		if tn.ParentID == "" {
			continue
		}
		if _, exists := byID[tn.ID]; !exists {
			missing = append(missing, tn)
		}
	}

	for _, tn := range missing {
		parent, ok := byID[tn.ParentID]
		if !ok {
			orphan := &OrphanedTemplateNodeError{PrefabID: p.ID, NodeID: tn.ID, ParentID: tn.ParentID}
			reg.log.Warn("skipping orphaned template branch during reconcile", zap.Error(orphan))
			continue
		}
		ent := spawnNode(reg, sc, p, tn, nil)
		sink.AddEntity(parent, ent)
		byID[tn.ID] = ent
		report.Created = append(report.Created, ent)
	}

	// Step 3: flag live nodes whose template node no longer exists.
	for _, n := range indexed {
		if n == instanceRoot {
			continue
		}
		if _, exists := p.Node(n.Origin().TemplateNodeID); !exists {
			report.Orphans = append(report.Orphans, n)
		}
	}

	return report, nil
}
