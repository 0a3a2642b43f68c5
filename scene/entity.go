package scene

import "reflect"

// EntityHandle identifies an entity within one Scene's arena.
// Handles are minted by the Scene, never reused, and 0 is the null handle.
type EntityHandle uint64

// Vec2 is a 2D world position.
type Vec2 struct {
	X, Y float64
}

// PrefabOrigin links a live entity back to the template node it was created
// from. It is a back-reference only, never an ownership edge; the Reconciler
// uses it to map live nodes onto the current template.
type PrefabOrigin struct {
	PrefabID       string
	TemplateNodeID string
}

// EntityNode is a live node in a scene's entity tree. It owns its children
// and its component values. The parent link is stored as a handle and
// resolved through the owning Scene, so deleting a node elsewhere in the
// tree can never leave a dangling parent pointer.
type EntityNode struct {
	// ID is unique per scene and stable for the node's lifetime.
	ID   string
	Name string

	// Order is the sibling sort key. Attach inserts children by Order;
	// it mirrors a template node's order on instantiated entities.
	Order int

	handle     EntityHandle
	parent     EntityHandle
	children   []*EntityNode
	components []any
	origin     *PrefabOrigin
}

// Handle returns the node's arena handle.
func (n *EntityNode) Handle() EntityHandle {
	return n.handle
}

// ParentHandle returns the handle of the node's parent, or 0 for a root.
func (n *EntityNode) ParentHandle() EntityHandle {
	return n.parent
}

// Parent resolves the parent node through the scene arena.
// Returns nil for roots and for parents that no longer exist.
func (n *EntityNode) Parent(s *Scene) *EntityNode {
	if n.parent == 0 {
		return nil
	}
	parent, ok := s.Get(n.parent)
	if !ok {
		return nil
	}
	return parent
}

// Children returns the node's ordered child list.
// The slice is owned by the node; callers must not mutate it mid-traversal
// (use Commands for structural changes during iteration).
func (n *EntityNode) Children() []*EntityNode {
	return n.children
}

// Components returns the node's component values.
func (n *EntityNode) Components() []any {
	return n.components
}

// AddComponent attaches a component value to the node. Components are
// pointers to registered struct types and are owned exclusively by this
// node (clone-on-attach is the caller's responsibility).
func (n *EntityNode) AddComponent(component any) {
	n.components = append(n.components, component)
}

// Component returns the first attached component whose underlying struct
// type equals compType, or nil.
func (n *EntityNode) Component(compType reflect.Type) any {
	for _, c := range n.components {
		t := reflect.TypeOf(c)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t == compType {
			return c
		}
	}
	return nil
}

// Origin returns the node's prefab back-reference, or nil for entities not
// created from a template.
func (n *EntityNode) Origin() *PrefabOrigin {
	return n.origin
}

// SetOrigin tags the node with its originating template node. The tag is
// set at creation time and is not expected to change afterwards.
func (n *EntityNode) SetOrigin(origin PrefabOrigin) {
	n.origin = &origin
}

// GetComponent returns the entity's component of type T, or nil.
func GetComponent[T any](n *EntityNode) *T {
	c := n.Component(reflect.TypeOf((*T)(nil)).Elem())
	if c == nil {
		return nil
	}
	return c.(*T)
}

// EntityRef is a serializable reference to an entity by handle. Copying a
// ref copies only the handle, so a cloned component never aliases the node
// its ref points at; the target is re-resolved through the arena on use.
type EntityRef struct {
	Handle EntityHandle
}

// Get resolves the reference. Returns nil if the ref is empty or the
// entity has been removed from the scene.
func (r EntityRef) Get(s *Scene) *EntityNode {
	if r.Handle == 0 || s == nil {
		return nil
	}
	n, ok := s.Get(r.Handle)
	if !ok {
		return nil
	}
	return n
}

// IsValid reports whether the ref points at something. It does not check
// that the entity still exists.
func (r EntityRef) IsValid() bool {
	return r.Handle != 0
}

// Set points the ref at the given entity. Pass nil to clear.
func (r *EntityRef) Set(n *EntityNode) {
	if n == nil {
		r.Handle = 0
		return
	}
	r.Handle = n.handle
}
