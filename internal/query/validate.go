// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package query

import (
	"strings"

	"powerdata/cli/internal/errors"
)

func invalid(detail string) error {
	return errors.Request(errors.InvalidOperationParameters, detail)
}

// Validate checks the invariants a typed Options value can still violate.
func (o *Options) Validate() error {
	if o == nil {
		return nil
	}
	if o.MaxPageSize != nil && *o.MaxPageSize < 0 {
		return invalid("maxPageSize must be a non-negative number")
	}
	if blank(o.Select) {
		return invalid("select must contain only non-empty strings")
	}
	if blank(o.OrderBy) {
		return invalid("orderBy must contain only non-empty strings")
	}
	if o.Top != nil && *o.Top < 0 {
		return invalid("top must be a non-negative number")
	}
	if o.Skip != nil && *o.Skip < 0 {
		return invalid("skip must be a non-negative number")
	}
	return nil
}

func blank(items []string) bool {
	for _, s := range items {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}

// Parse converts loosely typed options (decoded JSON) into Options, checking
// each field's shape in declaration order. A nil map yields nil options.
// Shape checks only apply to truthy values.
func Parse(raw map[string]any) (*Options, error) {
	if raw == nil {
		return nil, nil
	}
	opts := &Options{}

	var err error
	if opts.MaxPageSize, err = numberField(raw, "maxPageSize"); err != nil {
		return nil, err
	}
	if v, ok := present(raw, "select"); ok {
		items, err := stringList("select", v)
		if err != nil {
			return nil, err
		}
		opts.Select = items
	}
	if v, ok := present(raw, "filter"); ok {
		s, isStr := v.(string)
		if !isStr {
			return nil, invalid("filter must be a string")
		}
		opts.Filter = s
	}
	if v, ok := present(raw, "orderBy"); ok {
		items, err := stringList("orderBy", v)
		if err != nil {
			return nil, err
		}
		opts.OrderBy = items
	}
	if opts.Top, err = numberField(raw, "top"); err != nil {
		return nil, err
	}
	if opts.Skip, err = numberField(raw, "skip"); err != nil {
		return nil, err
	}
	if v, ok := raw["count"]; ok && v != nil {
		b, isBool := v.(bool)
		if !isBool {
			if _, truthy := present(raw, "count"); truthy {
				return nil, invalid("count must be a boolean")
			}
		} else {
			opts.Count = &b
		}
	}
	if v, ok := present(raw, "skipToken"); ok {
		if s, isStr := v.(string); isStr {
			opts.SkipToken = s
		}
	}
	return opts, nil
}

// numberField reads a numeric option. A non-numeric truthy value is an error;
// a zero is kept, since it is still rendered into the query.
func numberField(raw map[string]any, key string) (*int, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	if n, isNum := number(v); isNum {
		return &n, nil
	}
	if _, truthy := present(raw, key); truthy {
		return nil, invalid(key + " must be a number")
	}
	return nil, nil
}

// present reports whether key holds a truthy value.
func present(raw map[string]any, key string) (any, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case bool:
		return v, t
	case string:
		return v, t != ""
	case float64:
		return v, t != 0
	case int:
		return v, t != 0
	}
	return v, true
}

func number(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func stringList(name string, v any) ([]string, error) {
	var items []any
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			items = append(items, s)
		}
	case []any:
		items = t
	default:
		return nil, invalid(name + " must be an array of strings")
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, invalid(name + " must contain only non-empty strings")
		}
		out = append(out, s)
	}
	return out, nil
}
