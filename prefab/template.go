package prefab

import (
	"fmt"
	"sort"
)

// ComponentState is one component attached to a template node: the
// registered type id plus a pointer to its default values. Template values
// are never handed to live entities directly; instantiation always clones.
type ComponentState struct {
	TypeID string
	Value  any
}

// TemplateNode is one node of a prefab's persisted shape. Node ids are
// stable and unique within a template; they are the identity the reconciler
// uses to match live entities against template nodes after edits.
type TemplateNode struct {
	ID       string
	ParentID string // empty for the root
	Order    int
	Name     string

	Components []ComponentState
}

// Prefab is a reusable, named entity definition stored as a flat node list.
// The list invariantly holds parent-before-child order: a node's parent
// always appears earlier. Every consumer (instantiation, capture,
// reconciliation, serialization) relies on that ordering.
type Prefab struct {
	ID          string
	DisplayName string
	Category    string

	Nodes []TemplateNode
}

// Root returns the template's root node (the single node with no parent).
func (p *Prefab) Root() (*TemplateNode, bool) {
	for i := range p.Nodes {
		if p.Nodes[i].ParentID == "" {
			return &p.Nodes[i], true
		}
	}
	return nil, false
}

// Node returns the template node with the given id.
func (p *Prefab) Node(id string) (*TemplateNode, bool) {
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			return &p.Nodes[i], true
		}
	}
	return nil, false
}

// Validate checks the template's structural invariants: at least one node,
// exactly one root, unique ids, resolvable parents, parent-before-child
// list order, and unique order keys among same-parent siblings.
func (p *Prefab) Validate() error {
	if len(p.Nodes) == 0 {
		return fmt.Errorf("prefab %q has no nodes: %w", p.ID, ErrMalformedTemplate)
	}

	seen := make(map[string]int, len(p.Nodes))
	roots := 0
	for i, n := range p.Nodes {
		if n.ID == "" {
			return fmt.Errorf("prefab %q: node %d has empty id: %w", p.ID, i, ErrMalformedTemplate)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("prefab %q: duplicate node id %q: %w", p.ID, n.ID, ErrMalformedTemplate)
		}
		seen[n.ID] = i

		if n.ParentID == "" {
			roots++
			continue
		}
		if _, ok := seen[n.ParentID]; !ok {
			// Either the parent does not exist at all, or it appears later
			// in the list; both break the parent-before-child invariant.
			if _, exists := p.Node(n.ParentID); !exists {
				return &OrphanedTemplateNodeError{PrefabID: p.ID, NodeID: n.ID, ParentID: n.ParentID}
			}
			return fmt.Errorf("prefab %q: node %q precedes its parent %q: %w",
				p.ID, n.ID, n.ParentID, ErrMalformedTemplate)
		}
	}
	if roots != 1 {
		return fmt.Errorf("prefab %q has %d roots: %w", p.ID, roots, ErrMalformedTemplate)
	}

	orderKeys := make(map[string]map[int]bool)
	for _, n := range p.Nodes {
		if orderKeys[n.ParentID] == nil {
			orderKeys[n.ParentID] = make(map[int]bool)
		}
		if orderKeys[n.ParentID][n.Order] {
			return fmt.Errorf("prefab %q: duplicate sibling order %d under %q: %w",
				p.ID, n.Order, n.ParentID, ErrMalformedTemplate)
		}
		orderKeys[n.ParentID][n.Order] = true
	}
	return nil
}

// Normalize re-sorts the node list into parent-before-child order, with
// same-parent siblings ordered by their Order key. Nodes that cannot be
// reached from the root are reported via OrphanedTemplateNodeError and
// dropped from the list.
func (p *Prefab) Normalize() error {
	if len(p.Nodes) == 0 {
		return fmt.Errorf("prefab %q has no nodes: %w", p.ID, ErrMalformedTemplate)
	}

	byParent := make(map[string][]TemplateNode)
	for _, n := range p.Nodes {
		byParent[n.ParentID] = append(byParent[n.ParentID], n)
	}
	for _, siblings := range byParent {
		sort.SliceStable(siblings, func(i, j int) bool {
			return siblings[i].Order < siblings[j].Order
		})
	}

	roots := byParent[""]
	if len(roots) != 1 {
		return fmt.Errorf("prefab %q has %d roots: %w", p.ID, len(roots), ErrMalformedTemplate)
	}

	out := make([]TemplateNode, 0, len(p.Nodes))
	queue := []TemplateNode{roots[0]}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n)
		queue = append(queue, byParent[n.ID]...)
	}

	var firstOrphan error
	if len(out) != len(p.Nodes) {
		emitted := make(map[string]bool, len(out))
		for _, n := range out {
			emitted[n.ID] = true
		}
		for _, n := range p.Nodes {
			if !emitted[n.ID] {
				firstOrphan = &OrphanedTemplateNodeError{PrefabID: p.ID, NodeID: n.ID, ParentID: n.ParentID}
				break
			}
		}
	}

	p.Nodes = out
	return firstOrphan
}
