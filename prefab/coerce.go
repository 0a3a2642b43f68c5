package prefab

import (
	"fmt"
	"math"
	"reflect"
)

// Coerce converts a loosely typed value (typically the output of a JSON
// decode: float64, string, bool, []any, map[string]any) into the field's
// declared type. The result never aliases rawValue. Conversions that would
// lose information or change meaning fail with ErrTypeMismatch.
func Coerce(fd FieldDescriptor, rawValue any) (any, error) {
	v, err := coerceValue(fd.Type, rawValue)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", fd.Name, err)
	}
	return v.Interface(), nil
}

func coerceValue(target reflect.Type, raw any) (reflect.Value, error) {
	if raw == nil {
		switch target.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, fmt.Errorf("nil for %s: %w", target, ErrTypeMismatch)
	}

	rv := reflect.ValueOf(raw)

	// Exact or assignable values pass through a deep copy so the coerced
	// result never shares backing storage with caller-owned data.
	if rv.Type().AssignableTo(target) {
		return deepCopyValue(rv), nil
	}

	switch target.Kind() {
	case reflect.Bool:
		if rv.Kind() == reflect.Bool {
			return reflect.ValueOf(rv.Bool()).Convert(target), nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return convertInt(target, rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if rv.Uint() > math.MaxInt64 {
				return reflect.Value{}, fmt.Errorf("%d overflows %s: %w", rv.Uint(), target, ErrTypeMismatch)
			}
			return convertInt(target, int64(rv.Uint()))
		case reflect.Float32, reflect.Float64:
			f := rv.Float()
			if f != math.Trunc(f) {
				return reflect.Value{}, fmt.Errorf("fractional %v for %s: %w", f, target, ErrTypeMismatch)
			}
			// float64(math.MaxInt64) rounds up to 2^63, which already
			// overflows, so the bound check is >=.
			if f < math.MinInt64 || f >= math.MaxInt64 {
				return reflect.Value{}, fmt.Errorf("%v overflows %s: %w", f, target, ErrTypeMismatch)
			}
			return convertInt(target, int64(f))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if rv.Int() < 0 {
				return reflect.Value{}, fmt.Errorf("negative %d for %s: %w", rv.Int(), target, ErrTypeMismatch)
			}
			return convertUint(target, uint64(rv.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return convertUint(target, rv.Uint())
		case reflect.Float32, reflect.Float64:
			f := rv.Float()
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return reflect.Value{}, fmt.Errorf("%v for %s: %w", f, target, ErrTypeMismatch)
			}
			return convertUint(target, uint64(f))
		}

	case reflect.Float32, reflect.Float64:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return reflect.ValueOf(float64(rv.Int())).Convert(target), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return reflect.ValueOf(float64(rv.Uint())).Convert(target), nil
		case reflect.Float32, reflect.Float64:
			return reflect.ValueOf(rv.Float()).Convert(target), nil
		}

	case reflect.String:
		if rv.Kind() == reflect.String {
			return reflect.ValueOf(rv.String()).Convert(target), nil
		}

	case reflect.Slice:
		if rv.Kind() == reflect.Slice {
			out := reflect.MakeSlice(target, rv.Len(), rv.Len())
			for i := 0; i < rv.Len(); i++ {
				elem, err := coerceValue(target.Elem(), rv.Index(i).Interface())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
				}
				out.Index(i).Set(elem)
			}
			return out, nil
		}

	case reflect.Map:
		if rv.Kind() == reflect.Map && target.Key().Kind() == reflect.String {
			if rv.Type().Key().Kind() != reflect.String {
				return reflect.Value{}, fmt.Errorf("%s key for %s: %w", rv.Type().Key(), target, ErrTypeMismatch)
			}
			out := reflect.MakeMapWithSize(target, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				elem, err := coerceValue(target.Elem(), iter.Value().Interface())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("key %q: %w", iter.Key().String(), err)
				}
				out.SetMapIndex(iter.Key().Convert(target.Key()), elem)
			}
			return out, nil
		}

	case reflect.Struct:
		// Structs are authored as JSON objects keyed by field name.
		// Unknown keys are ignored, matching override tolerance.
		if m, ok := raw.(map[string]any); ok {
			out := reflect.New(target).Elem()
			for key, rawField := range m {
				field, ok := target.FieldByName(key)
				if !ok || !field.IsExported() || len(field.Index) != 1 {
					continue
				}
				fv, err := coerceValue(field.Type, rawField)
				if err != nil {
					return reflect.Value{}, fmt.Errorf("field %q: %w", key, err)
				}
				out.FieldByIndex(field.Index).Set(fv)
			}
			return out, nil
		}

	case reflect.Ptr:
		elem, err := coerceValue(target.Elem(), raw)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(target.Elem())
		out.Elem().Set(elem)
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("%T for %s: %w", raw, target, ErrTypeMismatch)
}

func convertInt(target reflect.Type, v int64) (reflect.Value, error) {
	out := reflect.New(target).Elem()
	if out.OverflowInt(v) {
		return reflect.Value{}, fmt.Errorf("%d overflows %s: %w", v, target, ErrTypeMismatch)
	}
	out.SetInt(v)
	return out, nil
}

func convertUint(target reflect.Type, v uint64) (reflect.Value, error) {
	out := reflect.New(target).Elem()
	if out.OverflowUint(v) {
		return reflect.Value{}, fmt.Errorf("%d overflows %s: %w", v, target, ErrTypeMismatch)
	}
	out.SetUint(v)
	return out, nil
}
