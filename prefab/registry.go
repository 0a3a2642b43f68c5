package prefab

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// FieldDescriptor describes one settable field of a registered component
// type. Descriptors are built once at registration time; all generic field
// access (clone, override, serialization) goes through them rather than
// ad-hoc reflection over the instance.
type FieldDescriptor struct {
	Name string
	Type reflect.Type

	// Serializable is false for fields tagged `prefab:"-"`; such fields are
	// skipped by the codec and cannot be overridden.
	Serializable bool

	index int
}

// TypeDescriptor is the immutable metadata for one component type: its
// globally unique string id, its Go struct type, and its ordered field
// table.
type TypeDescriptor struct {
	TypeID string
	GoType reflect.Type
	Fields []FieldDescriptor

	fieldIndex map[string]int
}

// Field looks up a field descriptor by name.
func (d *TypeDescriptor) Field(name string) (FieldDescriptor, bool) {
	i, ok := d.fieldIndex[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return d.Fields[i], true
}

// New allocates a zero value of the described type, returned as *T.
func (d *TypeDescriptor) New() any {
	return reflect.New(d.GoType).Interface()
}

// get reads a field value from an instance (a *T).
func (d *TypeDescriptor) get(instance any, fd FieldDescriptor) any {
	return reflect.ValueOf(instance).Elem().Field(fd.index).Interface()
}

// set writes a field value on an instance (a *T).
func (d *TypeDescriptor) set(instance any, fd FieldDescriptor, v reflect.Value) {
	reflect.ValueOf(instance).Elem().Field(fd.index).Set(v)
}

// Registry holds component type descriptors for one application context.
// It is populated at startup and frozen for the remainder of the process;
// there are no package-level registries, callers inject the value into the
// instantiate/capture/reconcile entry points.
type Registry struct {
	types  map[string]*TypeDescriptor
	byType map[reflect.Type]*TypeDescriptor
	frozen bool
	log    *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for dropped overrides, skipped branches
// and similar degradations. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry creates an empty component registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		types:  make(map[string]*TypeDescriptor),
		byType: make(map[reflect.Type]*TypeDescriptor),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterComponent registers the struct type T under typeID and builds its
// field descriptor table. Registration is startup-time only: a duplicate
// typeID, a duplicate Go type, or a frozen registry all fail with
// ErrDuplicateType.
func RegisterComponent[T any](r *Registry, typeID string) error {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("component %q: type parameter must be a struct", typeID)
	}
	if r.frozen {
		return fmt.Errorf("component %q: registry is frozen: %w", typeID, ErrDuplicateType)
	}
	if _, ok := r.types[typeID]; ok {
		return fmt.Errorf("component %q: %w", typeID, ErrDuplicateType)
	}
	if prev, ok := r.byType[t]; ok {
		return fmt.Errorf("type %s already registered as %q: %w", t, prev.TypeID, ErrDuplicateType)
	}

	d := &TypeDescriptor{
		TypeID:     typeID,
		GoType:     t,
		fieldIndex: make(map[string]int),
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		serializable := field.Tag.Get("prefab") != "-"
		d.fieldIndex[field.Name] = len(d.Fields)
		d.Fields = append(d.Fields, FieldDescriptor{
			Name:         field.Name,
			Type:         field.Type,
			Serializable: serializable,
			index:        i,
		})
	}

	r.types[typeID] = d
	r.byType[t] = d
	return nil
}

// Describe returns the descriptor for a type id.
func (r *Registry) Describe(typeID string) (*TypeDescriptor, error) {
	d, ok := r.types[typeID]
	if !ok {
		return nil, fmt.Errorf("component %q: %w", typeID, ErrUnknownType)
	}
	return d, nil
}

// DescribeValue returns the descriptor for a live component instance
// (a *T or T of a registered struct type).
func (r *Registry) DescribeValue(instance any) (*TypeDescriptor, error) {
	t := reflect.TypeOf(instance)
	if t == nil {
		return nil, fmt.Errorf("nil component: %w", ErrUnknownType)
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	d, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("type %s: %w", t, ErrUnknownType)
	}
	return d, nil
}

// Freeze marks the end of startup registration. Subsequent registration
// attempts fail loudly instead of silently extending steady-state metadata.
func (r *Registry) Freeze() {
	r.frozen = true
}
