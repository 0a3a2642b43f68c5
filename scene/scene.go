package scene

import (
	"github.com/google/uuid"
	"github.com/kamstrup/intmap"
)

// Sink receives entities as they are attached to the tree. The Scene itself
// is the plain implementation; editors wrap it (or substitute a Commands
// buffer) so attachments flow through their own undo bookkeeping.
type Sink interface {
	AddEntity(parent, child *EntityNode)
}

// Scene owns an entity tree and the arena that backs handle lookups.
// Exactly one thread mutates a scene at a time; there is no internal
// locking.
type Scene struct {
	entities   *intmap.Map[EntityHandle, *EntityNode]
	roots      []*EntityNode
	nextHandle EntityHandle
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{
		entities: intmap.New[EntityHandle, *EntityNode](256),
	}
}

// NewEntity mints a new entity registered in the arena. The entity starts
// as a detached root; use Attach to place it under a parent.
func (s *Scene) NewEntity(name string) *EntityNode {
	s.nextHandle++
	n := &EntityNode{
		ID:     uuid.NewString(),
		Name:   name,
		handle: s.nextHandle,
	}
	s.entities.Put(n.handle, n)
	s.roots = append(s.roots, n)
	return n
}

// Get resolves a handle to its live entity.
func (s *Scene) Get(h EntityHandle) (*EntityNode, bool) {
	return s.entities.Get(h)
}

// Len returns the number of live entities in the arena.
func (s *Scene) Len() int {
	return s.entities.Len()
}

// Roots returns the scene's top-level entities.
func (s *Scene) Roots() []*EntityNode {
	return s.roots
}

// Attach places child under parent, positioned among siblings by its Order
// key. A child already parented elsewhere is detached first.
func (s *Scene) Attach(parent, child *EntityNode) {
	if parent == nil || child == nil || parent == child {
		return
	}
	// A zero handle means the node was removed from the arena.
	if parent.handle == 0 || child.handle == 0 {
		return
	}
	s.Detach(child)
	s.removeRoot(child)

	child.parent = parent.handle
	at := len(parent.children)
	for i, sibling := range parent.children {
		if sibling.Order > child.Order {
			at = i
			break
		}
	}
	parent.children = append(parent.children, nil)
	copy(parent.children[at+1:], parent.children[at:])
	parent.children[at] = child
}

// AddEntity implements Sink by attaching immediately.
func (s *Scene) AddEntity(parent, child *EntityNode) {
	s.Attach(parent, child)
}

// Detach removes child from its parent's child list, turning it into a
// detached root. No-op for nodes with no parent.
func (s *Scene) Detach(child *EntityNode) {
	if child == nil || child.parent == 0 {
		return
	}
	parent, ok := s.entities.Get(child.parent)
	child.parent = 0
	if !ok {
		s.roots = append(s.roots, child)
		return
	}
	for i, c := range parent.children {
		if c == child {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	s.roots = append(s.roots, child)
}

// Remove detaches n and deletes its entire subtree from the arena.
// Handles of removed entities resolve to nothing afterwards, so stale
// EntityRefs and parent links go nil instead of dangling.
func (s *Scene) Remove(n *EntityNode) {
	if n == nil {
		return
	}
	s.Detach(n)
	s.removeRoot(n)

	// Snapshot the subtree before deleting anything.
	stack := []*EntityNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s.entities.Del(cur.handle)
		cur.handle = 0
		stack = append(stack, cur.children...)
	}
}

func (s *Scene) removeRoot(n *EntityNode) {
	for i, r := range s.roots {
		if r == n {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			return
		}
	}
}
