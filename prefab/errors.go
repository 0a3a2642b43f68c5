package prefab

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateType is returned when a component type id (or Go type) is
	// registered twice, or when registration is attempted after Freeze.
	ErrDuplicateType = errors.New("component type already registered")

	// ErrUnknownType is returned when a type id or component value has no
	// descriptor in the registry.
	ErrUnknownType = errors.New("component type not registered")

	// ErrTypeMismatch is returned when a loosely typed value has no safe
	// conversion to a field's declared type. Unresolvable coercions fail
	// with this error instead of guessing.
	ErrTypeMismatch = errors.New("value cannot be coerced to field type")

	// ErrMalformedTemplate is returned by Prefab.Validate for structural
	// defects in a template's node list.
	ErrMalformedTemplate = errors.New("malformed template")
)

// OrphanedTemplateNodeError reports a template node whose parent id does not
// resolve within the same template. The affected branch is skipped; the rest
// of the template keeps working.
type OrphanedTemplateNodeError struct {
	PrefabID string
	NodeID   string
	ParentID string
}

func (e *OrphanedTemplateNodeError) Error() string {
	return fmt.Sprintf("template node %q in prefab %q references missing parent %q",
		e.NodeID, e.PrefabID, e.ParentID)
}
