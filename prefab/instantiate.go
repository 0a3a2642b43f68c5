package prefab

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/plus3/stencil/scene"
)

// Transform is the spatial placement component carried by placeable
// entities. Instantiate writes the requested world position into the root
// entity's Transform, attaching one if the template does not provide it.
type Transform struct {
	X, Y     float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64
}

// Overrides layers per-instance field values over one node's template
// defaults, keyed by component type id, then field name. Overrides are
// applied to the instance's cloned components and never written back into
// the template.
type Overrides map[string]map[string]any

// NodeOverrides keys Overrides by template node id.
type NodeOverrides map[string]Overrides

// Instantiate builds a live entity tree from a prefab. The root entity is
// positioned at `at` and every produced entity is tagged with its
// originating template node id. A template node whose parent cannot be
// resolved is logged and skipped along with its descendants; one bad branch
// never aborts placing the rest of the prefab.
func Instantiate(reg *Registry, sc *scene.Scene, p *Prefab, at scene.Vec2, overrides NodeOverrides) (*scene.EntityNode, error) {
	root, ok := p.Root()
	if !ok {
		return nil, fmt.Errorf("prefab %q has no root node: %w", p.ID, ErrMalformedTemplate)
	}

	rootEnt := spawnNode(reg, sc, p, root, overrides[root.ID])
	setWorldPosition(rootEnt, at)

	byID := map[string]*scene.EntityNode{root.ID: rootEnt}
	expandInto(reg, sc, p, byID, overrides, sc)
	return rootEnt, nil
}

// ExpandChildren materializes the descendants of a root entity already
// created from p's root node. It exists for two-phase editor placement,
// where creating the root and filling in its children are separate undoable
// steps. Returns the entities created by this call.
func ExpandChildren(reg *Registry, sc *scene.Scene, root *scene.EntityNode, p *Prefab) ([]*scene.EntityNode, error) {
	templateRoot, ok := p.Root()
	if !ok {
		return nil, fmt.Errorf("prefab %q has no root node: %w", p.ID, ErrMalformedTemplate)
	}
	if root == nil {
		return nil, fmt.Errorf("expand children of prefab %q: nil root entity", p.ID)
	}

	byID := map[string]*scene.EntityNode{templateRoot.ID: root}
	return expandInto(reg, sc, p, byID, nil, sc), nil
}

// expandInto walks the template's flat node list in its stored
// parent-before-child order and creates an entity for every node not
// already present in byID. Parents are guaranteed to be in byID by the time
// their children are visited, because of the list ordering.
func expandInto(reg *Registry, sc *scene.Scene, p *Prefab, byID map[string]*scene.EntityNode, overrides NodeOverrides, sink scene.Sink) []*scene.EntityNode {
	var created []*scene.EntityNode
	for i := range p.Nodes {
		tn := &p.Nodes[i]
		if tn.ParentID == "" {
			continue
		}
		if _, exists := byID[tn.ID]; exists {
			continue
		}
		parent, ok := byID[tn.ParentID]
		if !ok {
			orphan := &OrphanedTemplateNodeError{PrefabID: p.ID, NodeID: tn.ID, ParentID: tn.ParentID}
			reg.log.Warn("skipping orphaned template branch", zap.Error(orphan))
			continue
		}

		ent := spawnNode(reg, sc, p, tn, overrides[tn.ID])
		sink.AddEntity(parent, ent)
		byID[tn.ID] = ent
		created = append(created, ent)
	}
	return created
}

// spawnNode creates one entity from a template node: clone the node's
// components, layer the per-instance overrides on top, tag the origin.
// A component of an unregistered type is logged and dropped.
func spawnNode(reg *Registry, sc *scene.Scene, p *Prefab, tn *TemplateNode, overrides Overrides) *scene.EntityNode {
	ent := sc.NewEntity(tn.Name)
	ent.Order = tn.Order
	ent.SetOrigin(scene.PrefabOrigin{PrefabID: p.ID, TemplateNodeID: tn.ID})

	for _, cs := range tn.Components {
		clone, err := reg.Clone(cs.Value)
		if err != nil {
			reg.log.Warn("dropping template component",
				zap.String("prefab", p.ID),
				zap.String("node", tn.ID),
				zap.String("component", cs.TypeID),
				zap.Error(err))
			continue
		}
		// ApplyOverrides only fails for unregistered instances, which Clone
		// has already ruled out; per-field problems are logged and skipped.
		_ = reg.ApplyOverrides(clone, overrides[cs.TypeID])
		ent.AddComponent(clone)
	}
	return ent
}

func setWorldPosition(ent *scene.EntityNode, at scene.Vec2) {
	if t := scene.GetComponent[Transform](ent); t != nil {
		t.X = at.X
		t.Y = at.Y
		return
	}
	ent.AddComponent(&Transform{X: at.X, Y: at.Y, ScaleX: 1, ScaleY: 1})
}
