package adaptapi

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// StructFunc transforms a JSON object represented as a protobuf Struct.
type StructFunc func(*structpb.Struct) (*structpb.Struct, error)

// StructAdapter builds an Adapter from functions working on structpb.Struct,
// handy when the latest handler is a gRPC service behind grpc-gateway. Bodies
// must be JSON objects. Numbers pass through float64, as protobuf Values do.
// A nil function is the identity.
func StructAdapter(upgrade, downgrade StructFunc) Adapter {
	return AdapterFuncs{
		UpgradeFunc:   structTransform(upgrade),
		DowngradeFunc: structTransform(downgrade),
	}
}

func structTransform(fn StructFunc) TransformFunc {
	if fn == nil {
		return nil
	}
	return func(d Data) (Data, error) {
		s, err := ToStruct(d)
		if err != nil {
			return nil, err
		}
		out, err := fn(s)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, nil
		}
		return out.AsMap(), nil
	}
}

// ToStruct converts a decoded JSON object into a structpb.Struct.
func ToStruct(d Data) (*structpb.Struct, error) {
	obj, ok := d.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, d)
	}
	normalized, err := normalizeNumbers(obj)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(normalized.(map[string]any))
}

// normalizeNumbers rewrites json.Number values as float64 so structpb accepts
// them.
func normalizeNumbers(d Data) (Data, error) {
	switch v := d.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", v, err)
		}
		return f, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			n, err := normalizeNumbers(item)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			n, err := normalizeNumbers(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return d, nil
	}
}
