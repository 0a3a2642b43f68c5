package prefab_test

import (
	"github.com/plus3/stencil/prefab"
	"github.com/plus3/stencil/scene"
)

// Common test component types
type Sprite struct {
	Texture string
	Width   float64
	Height  float64
	Layer   int
}

type Health struct {
	Current int
	Max     int
}

type Inventory struct {
	Items []string
}

type Stats struct {
	Attributes map[string]int
}

type Follow struct {
	Target scene.EntityRef
	Speed  float64
}

type Body struct {
	Mass   float64
	Offset scene.Vec2
}

type Collider struct {
	Body     Body
	Friction float64
}

type Emitter struct {
	Rate    float64
	Bursts  []Burst
	Warmed  bool      `prefab:"-"`
	Scratch []float64 `prefab:"-"`
}

type Burst struct {
	Count int
	At    float64
}

func newTestRegistry() *prefab.Registry {
	registry := prefab.NewRegistry()
	mustRegister := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	mustRegister(prefab.RegisterComponent[prefab.Transform](registry, "transform"))
	mustRegister(prefab.RegisterComponent[Sprite](registry, "sprite"))
	mustRegister(prefab.RegisterComponent[Health](registry, "health"))
	mustRegister(prefab.RegisterComponent[Inventory](registry, "inventory"))
	mustRegister(prefab.RegisterComponent[Stats](registry, "stats"))
	mustRegister(prefab.RegisterComponent[Follow](registry, "follow"))
	mustRegister(prefab.RegisterComponent[Collider](registry, "collider"))
	mustRegister(prefab.RegisterComponent[Emitter](registry, "emitter"))
	return registry
}

// squadPrefab builds the template used across the instantiate, capture and
// reconcile tests: a root with three children, one of which has a child of
// its own.
func squadPrefab() *prefab.Prefab {
	return &prefab.Prefab{
		ID:          "prefab-squad",
		DisplayName: "Squad",
		Category:    "units",
		Nodes: []prefab.TemplateNode{
			{
				ID:   "n-root",
				Name: "Squad",
				Components: []prefab.ComponentState{
					{TypeID: "transform", Value: &prefab.Transform{ScaleX: 1, ScaleY: 1}},
				},
			},
			{
				ID: "n-leader", ParentID: "n-root", Order: 0, Name: "Leader",
				Components: []prefab.ComponentState{
					{TypeID: "transform", Value: &prefab.Transform{X: 0, Y: -10, ScaleX: 1, ScaleY: 1}},
					{TypeID: "sprite", Value: &Sprite{Texture: "leader.png", Width: 16, Height: 16, Layer: 2}},
					{TypeID: "health", Value: &Health{Current: 150, Max: 150}},
				},
			},
			{
				ID: "n-grunt-1", ParentID: "n-root", Order: 1, Name: "Grunt",
				Components: []prefab.ComponentState{
					{TypeID: "sprite", Value: &Sprite{Texture: "grunt.png", Width: 12, Height: 12, Layer: 1}},
					{TypeID: "health", Value: &Health{Current: 60, Max: 60}},
				},
			},
			{
				ID: "n-grunt-2", ParentID: "n-root", Order: 2, Name: "Grunt",
				Components: []prefab.ComponentState{
					{TypeID: "sprite", Value: &Sprite{Texture: "grunt.png", Width: 12, Height: 12, Layer: 1}},
					{TypeID: "health", Value: &Health{Current: 60, Max: 60}},
				},
			},
			{
				ID: "n-banner", ParentID: "n-leader", Order: 0, Name: "Banner",
				Components: []prefab.ComponentState{
					{TypeID: "sprite", Value: &Sprite{Texture: "banner.png", Width: 4, Height: 10, Layer: 3}},
				},
			},
		},
	}
}
