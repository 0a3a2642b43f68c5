package scene_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/stencil/scene"
)

func TestNewEntity(t *testing.T) {
	sc := scene.NewScene()

	a := sc.NewEntity("a")
	b := sc.NewEntity("b")

	assert.NotEqual(t, scene.EntityHandle(0), a.Handle())
	assert.NotEqual(t, a.Handle(), b.Handle())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, sc.Len())

	got, ok := sc.Get(a.Handle())
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.Len(t, sc.Roots(), 2)
}

func TestAttachOrdering(t *testing.T) {
	sc := scene.NewScene()
	parent := sc.NewEntity("parent")

	mid := sc.NewEntity("mid")
	mid.Order = 1
	last := sc.NewEntity("last")
	last.Order = 2
	first := sc.NewEntity("first")
	first.Order = 0

	sc.Attach(parent, mid)
	sc.Attach(parent, last)
	sc.Attach(parent, first)

	require.Len(t, parent.Children(), 3)
	assert.Same(t, first, parent.Children()[0])
	assert.Same(t, mid, parent.Children()[1])
	assert.Same(t, last, parent.Children()[2])

	// Attached entities are no longer scene roots.
	assert.Len(t, sc.Roots(), 1)
	assert.Same(t, parent, mid.Parent(sc))
}

func TestReparent(t *testing.T) {
	sc := scene.NewScene()
	a := sc.NewEntity("a")
	b := sc.NewEntity("b")
	child := sc.NewEntity("child")

	sc.Attach(a, child)
	sc.Attach(b, child)

	assert.Empty(t, a.Children())
	require.Len(t, b.Children(), 1)
	assert.Same(t, b, child.Parent(sc))
}

func TestDetach(t *testing.T) {
	sc := scene.NewScene()
	parent := sc.NewEntity("parent")
	child := sc.NewEntity("child")
	sc.Attach(parent, child)

	sc.Detach(child)

	assert.Empty(t, parent.Children())
	assert.Nil(t, child.Parent(sc))
	assert.Contains(t, sc.Roots(), child)
}

func TestRemoveSubtree(t *testing.T) {
	sc := scene.NewScene()
	root := sc.NewEntity("root")
	branch := sc.NewEntity("branch")
	leaf := sc.NewEntity("leaf")
	sc.Attach(root, branch)
	sc.Attach(branch, leaf)

	leafHandle := leaf.Handle()
	sc.Remove(branch)

	assert.Equal(t, 1, sc.Len())
	assert.Empty(t, root.Children())

	_, ok := sc.Get(leafHandle)
	assert.False(t, ok)
}

func TestEntityRefResolution(t *testing.T) {
	sc := scene.NewScene()
	target := sc.NewEntity("target")

	var ref scene.EntityRef
	assert.False(t, ref.IsValid())
	assert.Nil(t, ref.Get(sc))

	ref.Set(target)
	assert.True(t, ref.IsValid())
	assert.Same(t, target, ref.Get(sc))

	// A removed target resolves to nil instead of dangling.
	sc.Remove(target)
	assert.Nil(t, ref.Get(sc))

	ref.Set(nil)
	assert.False(t, ref.IsValid())
}

func TestComponentAccess(t *testing.T) {
	type tag struct{ Label string }
	type unused struct{}

	sc := scene.NewScene()
	n := sc.NewEntity("n")
	n.AddComponent(&tag{Label: "x"})

	got := scene.GetComponent[tag](n)
	require.NotNil(t, got)
	assert.Equal(t, "x", got.Label)

	assert.Nil(t, scene.GetComponent[unused](n))
}

func TestParentOfRemovedNodeIsNil(t *testing.T) {
	sc := scene.NewScene()
	parent := sc.NewEntity("parent")
	child := sc.NewEntity("child")
	sc.Attach(parent, child)

	// Deleting the parent's subtree takes the child with it; a stale
	// pointer to the child cannot resolve its parent anymore.
	sc.Remove(parent)
	assert.Nil(t, child.Parent(sc))
}
