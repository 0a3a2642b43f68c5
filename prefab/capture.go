package prefab

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plus3/stencil/scene"
)

// CaptureHierarchy flattens a live entity tree back into template nodes,
// the inverse of Instantiate. Entities that carry a prefab origin keep
// their template node id, so re-capturing an existing instance preserves
// node identity across saves; other entities get freshly minted ids.
// Component values are cloned, so the captured template never aliases live,
// mutable entity data. The returned list is in parent-before-child order by
// construction.
func CaptureHierarchy(reg *Registry, root *scene.EntityNode) ([]TemplateNode, error) {
	if root == nil {
		return nil, fmt.Errorf("capture: nil root entity")
	}

	type visit struct {
		node     *scene.EntityNode
		parentID string
		order    int
	}

	// Depth-first so a node's subtree is emitted before its later siblings.
	stack := []visit{{node: root}}
	var nodes []TemplateNode
	usedIDs := make(map[string]bool)

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := ""
		if origin := v.node.Origin(); origin != nil {
			id = origin.TemplateNodeID
		}
		if id == "" || usedIDs[id] {
			id = uuid.NewString()
		}
		usedIDs[id] = true

		tn := TemplateNode{
			ID:       id,
			ParentID: v.parentID,
			Order:    v.order,
			Name:     v.node.Name,
		}
		for _, comp := range v.node.Components() {
			d, err := reg.DescribeValue(comp)
			if err != nil {
				reg.log.Warn("dropping unregistered component from capture",
					zap.String("entity", v.node.ID),
					zap.Error(err))
				continue
			}
			clone, err := reg.Clone(comp)
			if err != nil {
				reg.log.Warn("dropping component from capture",
					zap.String("entity", v.node.ID),
					zap.String("component", d.TypeID),
					zap.Error(err))
				continue
			}
			tn.Components = append(tn.Components, ComponentState{TypeID: d.TypeID, Value: clone})
		}
		nodes = append(nodes, tn)

		children := v.node.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, visit{node: children[i], parentID: id, order: i})
		}
	}

	return nodes, nil
}
