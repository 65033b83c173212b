// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package query builds OData query strings from retrieval options and
// validates option shapes supplied by callers.
package query

import (
	"strconv"
	"strings"
)

// Options are the optional retrieval parameters of a read.
type Options struct {
	Select      []string `json:"select,omitempty"`
	Filter      string   `json:"filter,omitempty"`
	OrderBy     []string `json:"orderBy,omitempty"`
	Top         *int     `json:"top,omitempty"`
	Skip        *int     `json:"skip,omitempty"`
	Count       *bool    `json:"count,omitempty"`
	SkipToken   string   `json:"skipToken,omitempty"`
	MaxPageSize *int     `json:"maxPageSize,omitempty"`
}

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Encode renders opts as "?a&b...", or "" when nothing is set.
func Encode(opts *Options) string {
	if opts == nil {
		return ""
	}
	var parts []string
	if len(opts.Select) > 0 {
		parts = append(parts, "$select="+encodeList(opts.Select))
	}
	if opts.Filter != "" {
		f := EscapeComponent(strings.TrimSpace(opts.Filter))
		f = strings.ReplaceAll(f, "%20", "+")
		f = strings.ReplaceAll(f, "'", "%27")
		parts = append(parts, "$filter="+f)
	}
	if len(opts.OrderBy) > 0 {
		parts = append(parts, "$orderby="+encodeList(opts.OrderBy))
	}
	if opts.Top != nil {
		parts = append(parts, "$top="+strconv.Itoa(*opts.Top))
	}
	if opts.Skip != nil {
		parts = append(parts, "$skip="+strconv.Itoa(*opts.Skip))
	}
	if opts.Count != nil {
		parts = append(parts, "$count="+strconv.FormatBool(*opts.Count))
	}
	if t := strings.TrimSpace(opts.SkipToken); t != "" {
		parts = append(parts, "$skiptoken="+EscapeComponent(t))
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

// encodeList escapes each item before joining, then escapes the joined list
// as a whole. The host decodes list parameters twice.
func encodeList(items []string) string {
	escaped := make([]string, len(items))
	for i, s := range items {
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, "%20", "+")
		escaped[i] = strings.ReplaceAll(s, "'", "%27")
	}
	return EscapeComponent(strings.Join(escaped, ","))
}
