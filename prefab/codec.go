package prefab

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
)

// Wire format for prefab assets. Node order in the file is meaningful: the
// list is persisted and reloaded in parent-before-child order, and node ids
// round-trip unchanged so instance back-references survive asset saves.
type prefabFile struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName,omitempty"`
	Category    string     `json:"category,omitempty"`
	Nodes       []nodeFile `json:"nodes"`
}

type nodeFile struct {
	ID         string          `json:"id"`
	ParentID   string          `json:"parentId,omitempty"`
	Order      int             `json:"order"`
	Name       string          `json:"name,omitempty"`
	Components []componentFile `json:"components,omitempty"`
}

type componentFile struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// EncodePrefab writes a prefab as indented JSON. Component values are
// emitted field-by-field through their descriptors; fields marked
// non-serializable are omitted. Components of unregistered types are
// dropped with a warning.
func EncodePrefab(reg *Registry, w io.Writer, p *Prefab) error {
	if err := p.Validate(); err != nil {
		return err
	}

	file := prefabFile{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Category:    p.Category,
		Nodes:       make([]nodeFile, 0, len(p.Nodes)),
	}
	for _, tn := range p.Nodes {
		nf := nodeFile{
			ID:       tn.ID,
			ParentID: tn.ParentID,
			Order:    tn.Order,
			Name:     tn.Name,
		}
		for _, cs := range tn.Components {
			d, err := reg.Describe(cs.TypeID)
			if err != nil {
				reg.log.Warn("dropping component from encode",
					zap.String("prefab", p.ID),
					zap.String("node", tn.ID),
					zap.String("component", cs.TypeID),
					zap.Error(err))
				continue
			}
			if reflect.TypeOf(cs.Value) != reflect.PointerTo(d.GoType) {
				reg.log.Warn("component value does not match its declared type id",
					zap.String("prefab", p.ID),
					zap.String("node", tn.ID),
					zap.String("component", cs.TypeID))
				continue
			}
			data := make(map[string]any, len(d.Fields))
			for _, fd := range d.Fields {
				if !fd.Serializable {
					continue
				}
				data[fd.Name] = d.get(cs.Value, fd)
			}
			nf.Components = append(nf.Components, componentFile{Type: cs.TypeID, Data: data})
		}
		file.Nodes = append(file.Nodes, nf)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&file)
}

// DecodePrefab reads a prefab asset. Comments and trailing commas are
// tolerated (assets are hand-editable). Component data flows through the
// registry's coercion path: an unknown component type drops that component,
// an unknown or uncoercible field drops that field, and the rest of the
// template loads. The node list is normalized back into parent-before-child
// order and validated before being returned.
func DecodePrefab(reg *Registry, r io.Reader) (*Prefab, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read prefab asset: %w", err)
	}

	var file prefabFile
	if err := json.Unmarshal(jsonc.ToJSON(raw), &file); err != nil {
		return nil, fmt.Errorf("decode prefab asset: %w", err)
	}

	p := &Prefab{
		ID:          file.ID,
		DisplayName: file.DisplayName,
		Category:    file.Category,
		Nodes:       make([]TemplateNode, 0, len(file.Nodes)),
	}
	for _, nf := range file.Nodes {
		tn := TemplateNode{
			ID:       nf.ID,
			ParentID: nf.ParentID,
			Order:    nf.Order,
			Name:     nf.Name,
		}
		for _, cf := range nf.Components {
			d, err := reg.Describe(cf.Type)
			if err != nil {
				reg.log.Warn("dropping unknown component type from decode",
					zap.String("prefab", file.ID),
					zap.String("node", nf.ID),
					zap.String("component", cf.Type),
					zap.Error(err))
				continue
			}
			value := d.New()
			if err := reg.ApplyOverrides(value, cf.Data); err != nil {
				return nil, err
			}
			tn.Components = append(tn.Components, ComponentState{TypeID: cf.Type, Value: value})
		}
		p.Nodes = append(p.Nodes, tn)
	}

	if err := p.Normalize(); err != nil {
		var orphan *OrphanedTemplateNodeError
		if !errors.As(err, &orphan) {
			return nil, err
		}
		// Normalize already dropped the unreachable nodes; the rest of
		// the asset is still loadable.
		reg.log.Warn("dropping unreachable template node from decode",
			zap.String("prefab", file.ID),
			zap.Error(orphan))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
