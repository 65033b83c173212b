// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package manifest loads an app's data-sources manifest: the dataSourcesInfo
// map that names every table the app may touch and how to reach it.
package manifest

import (
	"context"
	"sort"
	"strings"

	"powerdata/cli/internal/model"
)

// Manifest is a loaded data-sources manifest.
type Manifest struct {
	// Source is the path or URL the manifest was read from.
	Source      string
	DataSources model.DataSourcesInfo
}

// Table is one row of Tables.
type Table struct {
	Name string
	Info model.DataSourceInfo
}

// Tables returns the data sources sorted by name.
func (m *Manifest) Tables() []Table {
	out := make([]Table, 0, len(m.DataSources))
	for name, info := range m.DataSources {
		out = append(out, Table{Name: name, Info: info})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DataSourcesInfo implements datasource.InfoProvider.
func (m *Manifest) DataSourcesInfo(ctx context.Context) (model.DataSourcesInfo, error) {
	return m.DataSources, nil
}

// Kind is the data-source type shown for a table. Tables without an explicit
// type are served by the connector executor.
func Kind(info model.DataSourceInfo) string {
	if info.DataSourceType == "" {
		return strings.ToLower(string(model.Connector))
	}
	return strings.ToLower(string(info.DataSourceType))
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "http://")
}
