package prefab

import (
	"reflect"

	"go.uber.org/zap"
)

// Clone produces a value-independent duplicate of a registered component
// instance. All nested owned data (slices, maps, nested structs, pointers)
// is recursively duplicated; mutating the clone never mutates the source.
// Entity references are id-valued (scene.EntityRef), so copying them copies
// the id, never a live ownership edge.
func (r *Registry) Clone(instance any) (any, error) {
	d, err := r.DescribeValue(instance)
	if err != nil {
		return nil, err
	}

	src := reflect.ValueOf(instance)
	if src.Kind() == reflect.Ptr {
		src = src.Elem()
	}

	dst := reflect.New(d.GoType)
	dst.Elem().Set(deepCopyValue(src))
	return dst.Interface(), nil
}

// ApplyOverrides applies a field-name-to-value map on top of an instance's
// current values, coercing each value to the field's declared type.
// An override naming an unknown field, a non-serializable field, or a value
// with no safe coercion is dropped with a warning rather than failing the
// whole operation: overrides are user data that may reference fields removed
// by an asset update, and the remaining valid overrides must survive.
func (r *Registry) ApplyOverrides(instance any, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	d, err := r.DescribeValue(instance)
	if err != nil {
		return err
	}

	for name, raw := range overrides {
		fd, ok := d.Field(name)
		if !ok {
			r.log.Warn("override names unknown field",
				zap.String("component", d.TypeID),
				zap.String("field", name))
			continue
		}
		if !fd.Serializable {
			r.log.Warn("override targets non-serializable field",
				zap.String("component", d.TypeID),
				zap.String("field", name))
			continue
		}
		v, err := coerceValue(fd.Type, raw)
		if err != nil {
			r.log.Warn("override value dropped",
				zap.String("component", d.TypeID),
				zap.String("field", name),
				zap.Error(err))
			continue
		}
		d.set(instance, fd, v)
	}
	return nil
}

// deepCopyValue returns a copy of v with all reference-kinded data
// (slices, maps, pointers, and anything nested inside structs or
// interfaces) duplicated. Funcs and channels are not component data and
// pass through as-is.
func deepCopyValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopyValue(v.Index(i)))
		}
		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(deepCopyValue(iter.Key()), deepCopyValue(iter.Value()))
		}
		return out

	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopyValue(v.Elem()))
		return out

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		elem := deepCopyValue(v.Elem())
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out

	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		// Shallow copy first so unexported fields carry over, then fix up
		// exported reference fields with deep copies.
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			switch v.Field(i).Kind() {
			case reflect.Slice, reflect.Map, reflect.Ptr, reflect.Interface, reflect.Struct, reflect.Array:
				out.Field(i).Set(deepCopyValue(v.Field(i)))
			}
		}
		return out

	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopyValue(v.Index(i)))
		}
		return out

	default:
		return v
	}
}
