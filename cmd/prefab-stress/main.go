package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/plus3/stencil/prefab"
	"github.com/plus3/stencil/scene"
)

// Stress components. Field shapes chosen to exercise the cloner's deep-copy
// paths: scalars, slices, maps and nested structs.
type Unit struct {
	HP    int
	Speed float64
	Tags  []string
}

type Loadout struct {
	Slots map[string]string
}

type Anchor struct {
	Offset scene.Vec2
	Locked bool
}

func main() {
	instances := flag.Int("instances", 1000, "Number of prefab instances to place.")
	depth := flag.Int("depth", 4, "Depth of the synthetic template tree.")
	branch := flag.Int("branch", 3, "Children per template node.")
	mutations := flag.Int("mutations", 25, "Template nodes added before the reconcile pass.")
	verbose := flag.Bool("verbose", false, "Enable debug logging.")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalf("Failed to build logger: %v", err)
		}
	}

	log.Println("Starting prefab stress test...")

	registry := prefab.NewRegistry(prefab.WithLogger(logger))
	mustRegister(prefab.RegisterComponent[prefab.Transform](registry, "transform"))
	mustRegister(prefab.RegisterComponent[Unit](registry, "unit"))
	mustRegister(prefab.RegisterComponent[Loadout](registry, "loadout"))
	mustRegister(prefab.RegisterComponent[Anchor](registry, "anchor"))
	registry.Freeze()

	template := buildTemplate(*depth, *branch)
	log.Printf("Synthetic template: %d nodes (depth %d, branch %d)\n", len(template.Nodes), *depth, *branch)

	report := &Report{
		Instances:     *instances,
		TemplateNodes: len(template.Nodes),
		Mutations:     *mutations,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	// 1. Instantiate
	sc := scene.NewScene()
	roots := make([]*scene.EntityNode, 0, *instances)
	for i := 0; i < *instances; i++ {
		at := scene.Vec2{X: float64(i % 100), Y: float64(i / 100)}
		start := time.Now()
		root, err := prefab.Instantiate(registry, sc, template, at, nil)
		if err != nil {
			log.Fatalf("Instantiate failed: %v", err)
		}
		report.InstantiateTime.Samples = append(report.InstantiateTime.Samples, time.Since(start))
		roots = append(roots, root)
	}
	report.Entities = sc.Len()
	log.Printf("Placed %d instances (%d live entities).\n", len(roots), sc.Len())

	// 2. Mutate the template, then reconcile every instance against it.
	mutateTemplate(template, *mutations)

	for _, root := range roots {
		start := time.Now()
		result, err := prefab.Reconcile(registry, sc, root, template, sc)
		if err != nil {
			log.Fatalf("Reconcile failed: %v", err)
		}
		report.ReconcileTime.Samples = append(report.ReconcileTime.Samples, time.Since(start))
		report.TotalCreated += len(result.Created)
		report.TotalOrphans += len(result.Orphans)
	}
	log.Println("Reconciliation pass complete.")

	// 3. Verify idempotency with a second pass.
	for _, root := range roots {
		result, err := prefab.Reconcile(registry, sc, root, template, sc)
		if err != nil {
			log.Fatalf("Second reconcile failed: %v", err)
		}
		if !result.Empty() {
			log.Fatalf("Reconcile not idempotent: %d created, %d orphans on second pass",
				len(result.Created), len(result.Orphans))
		}
	}
	log.Println("Idempotency verified.")

	report.InstantiateTime.Finalize()
	report.ReconcileTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	fmt.Println("\n--- Prefab Stress Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")
}

func mustRegister(err error) {
	if err != nil {
		log.Fatalf("Component registration failed: %v", err)
	}
}

// buildTemplate synthesizes a full tree of the given depth and branching
// factor, every node carrying the full component set.
func buildTemplate(depth, branch int) *prefab.Prefab {
	p := &prefab.Prefab{
		ID:          "prefab-stress",
		DisplayName: "Stress",
		Category:    "synthetic",
	}

	type frame struct {
		parentID string
		level    int
	}

	next := 0
	addNode := func(parentID string, level, order int) string {
		id := fmt.Sprintf("n-%d", next)
		next++
		p.Nodes = append(p.Nodes, prefab.TemplateNode{
			ID:       id,
			ParentID: parentID,
			Order:    order,
			Name:     fmt.Sprintf("node-%d", next),
			Components: []prefab.ComponentState{
				{TypeID: "transform", Value: &prefab.Transform{X: float64(level), ScaleX: 1, ScaleY: 1}},
				{TypeID: "unit", Value: &Unit{HP: 100, Speed: 1.5, Tags: []string{"stress", "synthetic"}}},
				{TypeID: "loadout", Value: &Loadout{Slots: map[string]string{"main": "rifle", "off": "shield"}}},
				{TypeID: "anchor", Value: &Anchor{Offset: scene.Vec2{X: 0.5, Y: 0.5}}},
			},
		})
		return id
	}

	rootID := addNode("", 0, 0)
	queue := []frame{{parentID: rootID, level: 1}}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if f.level > depth {
			continue
		}
		for i := 0; i < branch; i++ {
			id := addNode(f.parentID, f.level, i)
			queue = append(queue, frame{parentID: id, level: f.level + 1})
		}
	}
	return p
}

// mutateTemplate appends count fresh leaf nodes under the template root,
// simulating an author editing the prefab after instances were placed.
func mutateTemplate(p *prefab.Prefab, count int) {
	root, ok := p.Root()
	if !ok {
		return
	}
	maxOrder := 0
	for _, n := range p.Nodes {
		if n.ParentID == root.ID && n.Order > maxOrder {
			maxOrder = n.Order
		}
	}
	rootID := root.ID
	for i := 0; i < count; i++ {
		p.Nodes = append(p.Nodes, prefab.TemplateNode{
			ID:       fmt.Sprintf("n-added-%d", i),
			ParentID: rootID,
			Order:    maxOrder + 1 + i,
			Name:     fmt.Sprintf("added-%d", i),
			Components: []prefab.ComponentState{
				{TypeID: "unit", Value: &Unit{HP: 10, Speed: 0.5, Tags: []string{"added"}}},
			},
		})
	}
}
