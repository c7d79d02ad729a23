package adaptapi

import (
	"errors"
	"fmt"
)

// ErrNotObject is returned by field transforms when the body is not a JSON object.
var ErrNotObject = errors.New("adaptapi: body is not a JSON object")

// Field transforms never mutate their input; they return a shallow copy.

func asObject(d Data) (map[string]any, error) {
	obj, ok := d.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, d)
	}
	out := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		out[k] = v
	}
	return out, nil
}

// SetField sets name to value, overwriting any existing value.
func SetField(name string, value Data) TransformFunc {
	return func(d Data) (Data, error) {
		obj, err := asObject(d)
		if err != nil {
			return nil, err
		}
		obj[name] = value
		return obj, nil
	}
}

// DefaultField sets name to value only when the field is absent.
func DefaultField(name string, value Data) TransformFunc {
	return func(d Data) (Data, error) {
		obj, err := asObject(d)
		if err != nil {
			return nil, err
		}
		if _, ok := obj[name]; !ok {
			obj[name] = value
		}
		return obj, nil
	}
}

// RemoveField deletes name if present.
func RemoveField(name string) TransformFunc {
	return func(d Data) (Data, error) {
		obj, err := asObject(d)
		if err != nil {
			return nil, err
		}
		delete(obj, name)
		return obj, nil
	}
}

// RenameField moves the value stored under from to to. Missing fields are
// left alone.
func RenameField(from, to string) TransformFunc {
	return func(d Data) (Data, error) {
		obj, err := asObject(d)
		if err != nil {
			return nil, err
		}
		if v, ok := obj[from]; ok {
			delete(obj, from)
			obj[to] = v
		}
		return obj, nil
	}
}

// MapField replaces the value of name with fn(value). Missing fields are
// left alone.
func MapField(name string, fn TransformFunc) TransformFunc {
	return func(d Data) (Data, error) {
		obj, err := asObject(d)
		if err != nil {
			return nil, err
		}
		v, ok := obj[name]
		if !ok {
			return obj, nil
		}
		mapped, err := fn(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		obj[name] = mapped
		return obj, nil
	}
}

// KeepFields drops every field not listed.
func KeepFields(names ...string) TransformFunc {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	return func(d Data) (Data, error) {
		obj, err := asObject(d)
		if err != nil {
			return nil, err
		}
		for k := range obj {
			if !keep[k] {
				delete(obj, k)
			}
		}
		return obj, nil
	}
}

// ConditionalTransform applies transform only if condition is met
func ConditionalTransform(condition func(Data) bool, transform TransformFunc) TransformFunc {
	return func(d Data) (Data, error) {
		if condition(d) {
			return transform(d)
		}
		return d, nil
	}
}

// ChainTransforms chains multiple transformation functions, stopping at the
// first error.
func ChainTransforms(transforms ...TransformFunc) TransformFunc {
	return func(d Data) (Data, error) {
		result := d
		for _, transform := range transforms {
			if transform == nil {
				continue
			}
			var err error
			if result, err = transform(result); err != nil {
				return nil, err
			}
		}
		return result, nil
	}
}
