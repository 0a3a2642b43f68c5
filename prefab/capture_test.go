package prefab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/stencil/prefab"
	"github.com/plus3/stencil/scene"
)

func TestCaptureHierarchy(t *testing.T) {
	registry := newTestRegistry()
	sc := scene.NewScene()

	root := sc.NewEntity("Base")
	root.AddComponent(&prefab.Transform{ScaleX: 1, ScaleY: 1})

	turret := sc.NewEntity("Turret")
	turret.AddComponent(&Sprite{Texture: "turret.png", Width: 8, Height: 8})
	sc.Attach(root, turret)

	barrel := sc.NewEntity("Barrel")
	barrel.AddComponent(&Sprite{Texture: "barrel.png", Width: 2, Height: 6})
	sc.Attach(turret, barrel)

	nodes, err := prefab.CaptureHierarchy(registry, root)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, "Base", nodes[0].Name)
	assert.Empty(t, nodes[0].ParentID)
	assert.Equal(t, "Turret", nodes[1].Name)
	assert.Equal(t, nodes[0].ID, nodes[1].ParentID)
	assert.Equal(t, "Barrel", nodes[2].Name)
	assert.Equal(t, nodes[1].ID, nodes[2].ParentID)
}

func TestCaptureParentBeforeChildInvariant(t *testing.T) {
	registry := newTestRegistry()
	sc := scene.NewScene()

	root, err := prefab.Instantiate(registry, sc, squadPrefab(), scene.Vec2{}, nil)
	require.NoError(t, err)

	nodes, err := prefab.CaptureHierarchy(registry, root)
	require.NoError(t, err)

	emitted := make(map[string]int)
	for i, n := range nodes {
		if n.ParentID != "" {
			parentIdx, ok := emitted[n.ParentID]
			require.True(t, ok, "node %q emitted before its parent", n.ID)
			assert.Less(t, parentIdx, i)
		}
		emitted[n.ID] = i
	}
}

func TestCapturePreservesTemplateNodeIDs(t *testing.T) {
	registry := newTestRegistry()
	sc := scene.NewScene()
	p := squadPrefab()

	root, err := prefab.Instantiate(registry, sc, p, scene.Vec2{}, nil)
	require.NoError(t, err)

	nodes, err := prefab.CaptureHierarchy(registry, root)
	require.NoError(t, err)

	// Recapturing an instance keeps template node identity across re-saves.
	// The walk is depth first, so the banner under the leader appears before
	// the leader's later siblings.
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"n-root", "n-leader", "n-banner", "n-grunt-1", "n-grunt-2"}, ids)
}

func TestCaptureClonesComponentState(t *testing.T) {
	registry := newTestRegistry()
	sc := scene.NewScene()

	root := sc.NewEntity("Unit")
	live := &Health{Current: 80, Max: 100}
	root.AddComponent(live)

	nodes, err := prefab.CaptureHierarchy(registry, root)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Components, 1)

	captured := nodes[0].Components[0].Value.(*Health)
	assert.NotSame(t, live, captured)

	live.Current = 5
	assert.Equal(t, 80, captured.Current)
}

func TestCaptureSkipsUnregisteredComponents(t *testing.T) {
	registry := newTestRegistry()
	sc := scene.NewScene()

	type debugMarker struct{ On bool }
	root := sc.NewEntity("Unit")
	root.AddComponent(&debugMarker{On: true})
	root.AddComponent(&Health{Current: 10, Max: 10})

	nodes, err := prefab.CaptureHierarchy(registry, root)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Components, 1)
	assert.Equal(t, "health", nodes[0].Components[0].TypeID)
}

// Round trip: instantiating a capture reproduces the tree's shape and
// per-node component type sets, though not its id values.
func TestCaptureInstantiateRoundTrip(t *testing.T) {
	registry := newTestRegistry()
	sc := scene.NewScene()

	original, err := prefab.Instantiate(registry, sc, squadPrefab(), scene.Vec2{X: 5, Y: 5}, prefab.NodeOverrides{
		"n-leader": {"health": {"Current": float64(42)}},
	})
	require.NoError(t, err)

	nodes, err := prefab.CaptureHierarchy(registry, original)
	require.NoError(t, err)

	recaptured := &prefab.Prefab{ID: "prefab-squad-v2", DisplayName: "Squad v2", Nodes: nodes}
	require.NoError(t, recaptured.Validate())

	clone, err := prefab.Instantiate(registry, sc, recaptured, scene.Vec2{X: 5, Y: 5}, nil)
	require.NoError(t, err)

	assertIsomorphic(t, original, clone)

	// The capture snapshotted live state, so the instance override carried
	// into the new template's defaults.
	assert.Equal(t, 42, scene.GetComponent[Health](clone.Children()[0]).Current)
}

func assertIsomorphic(t *testing.T, a, b *scene.EntityNode) {
	t.Helper()
	assert.Equal(t, a.Name, b.Name)
	require.Equal(t, len(a.Components()), len(b.Components()), "component count differs at %q", a.Name)
	require.Equal(t, len(a.Children()), len(b.Children()), "child count differs at %q", a.Name)
	for i := range a.Children() {
		assertIsomorphic(t, a.Children()[i], b.Children()[i])
	}
}
