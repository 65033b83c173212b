// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package grpcclient

import (
	"encoding/base64"
	"fmt"

	"github.com/goccy/go-json"
	"google.golang.org/protobuf/types/known/structpb"
)

// binaryKey marks a base64 encoded byte payload inside a struct value.
const binaryKey = "@binary"

// ToStruct converts a plugin message into a protobuf Struct.
func ToStruct(msg map[string]any) (*structpb.Struct, error) {
	norm, err := normalize(msg)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(norm.(map[string]any))
}

// FromStruct converts a protobuf Struct back into a plugin message.
func FromStruct(s *structpb.Struct) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return restore(s.AsMap()).(map[string]any)
}

// normalize rewrites v into the value shapes structpb accepts.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, float64, float32, int, int32, int64, uint, uint32, uint64:
		return t, nil
	case []byte:
		return map[string]any{binaryKey: base64.StdEncoding.EncodeToString(t)}, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			n, err := normalize(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			n, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, nil
	default:
		// Typed structs and other values take a JSON round trip.
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("encode %T: %w", t, err)
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, err
		}
		return generic, nil
	}
}

// restore reverses the binary marking applied by normalize.
func restore(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if s, ok := t[binaryKey].(string); ok {
				if b, err := base64.StdEncoding.DecodeString(s); err == nil {
					return b
				}
			}
		}
		for k, e := range t {
			t[k] = restore(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = restore(e)
		}
		return t
	default:
		return t
	}
}
