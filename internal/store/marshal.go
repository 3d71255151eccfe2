package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/ir"
)

// marshalIR converts a tree's IR to canonical JSON TEXT for storage.
func marshalIR(obj ir.IRObject) (string, error) {
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal ir: %w", err)
	}
	return string(data), nil
}

// unmarshalIR parses stored IR. IRObject.UnmarshalJSON keeps integers
// exact above 2^53.
func unmarshalIR(data string) (ir.IRObject, error) {
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal ir: %w", err)
	}
	return obj, nil
}

// marshalKinds stores unhandled kinds as a canonical JSON array of names.
func marshalKinds(kinds []expr.Kind) (string, error) {
	arr := make(ir.IRArray, len(kinds))
	for i, k := range kinds {
		arr[i] = ir.IRString(k.String())
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal unhandled kinds: %w", err)
	}
	return string(data), nil
}

func unmarshalKinds(data string) ([]expr.Kind, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal unhandled kinds: %w", err)
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("unmarshal unhandled kinds: expected array, got %T", v)
	}
	kinds := make([]expr.Kind, 0, len(arr))
	for _, e := range arr {
		name, ok := e.(ir.IRString)
		if !ok {
			return nil, fmt.Errorf("unmarshal unhandled kinds: expected string, got %T", e)
		}
		k, ok := expr.ParseKind(string(name))
		if !ok {
			return nil, fmt.Errorf("unmarshal unhandled kinds: unknown kind %q", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
