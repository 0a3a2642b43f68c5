package scene

// Commands buffers structural scene mutations requested while the tree is
// being traversed. Child and component lists must never be mutated in place
// during iteration over them; callers queue the change here and drain the
// buffer with Flush once the traversal completes.
//
// Commands implements Sink, so a reconcile pass running inside a frame
// update can route entity creation through the buffer instead of mutating
// the tree mid-pass.
type Commands struct {
	attaches []attachCommand
	removes  []*EntityNode
	defers   []func()
}

type attachCommand struct {
	parent *EntityNode
	child  *EntityNode
}

// NewCommands creates an empty command buffer.
func NewCommands() *Commands {
	return &Commands{}
}

// Attach queues placing child under parent.
func (c *Commands) Attach(parent, child *EntityNode) {
	c.attaches = append(c.attaches, attachCommand{parent: parent, child: child})
}

// AddEntity implements Sink by queueing an attach.
func (c *Commands) AddEntity(parent, child *EntityNode) {
	c.Attach(parent, child)
}

// Remove queues deletion of an entity subtree.
func (c *Commands) Remove(n *EntityNode) {
	c.removes = append(c.removes, n)
}

// Defer queues an arbitrary function to run during Flush, after all
// structural changes have been applied.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Flush applies all queued operations to the scene and resets the buffer.
// Removes run first; attaches naming a removed entity are dropped.
func (c *Commands) Flush(s *Scene) {
	removed := make(map[*EntityNode]bool)

	for _, n := range c.removes {
		s.Remove(n)
		removed[n] = true
	}

	for _, cmd := range c.attaches {
		if removed[cmd.parent] || removed[cmd.child] {
			continue
		}
		s.Attach(cmd.parent, cmd.child)
	}

	for _, fn := range c.defers {
		fn()
	}

	c.attaches = c.attaches[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}
