// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

func itoa(n int) string { return strconv.Itoa(n) }

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// truthy reports whether v counts as set for optional JSON-shaped inputs.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	}
	return true
}

// stringify renders a parameter value for a URL or header.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e != nil {
				parts[i] = stringify(e)
			}
		}
		return strings.Join(parts, ",")
	case map[string]any:
		raw, err := json.MarshalNoEscape(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(raw)
	}
	return fmt.Sprint(v)
}
