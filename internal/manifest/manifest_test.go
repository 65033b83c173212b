// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"powerdata/cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "accounts": {"tableId": "", "dataSourceType": "Dataverse"},
  "orders": {"tableId": "[dbo].[Orders]", "version": "v2", "primaryKey": "id", "dataSourceType": "Connector",
    "apis": {"GetItems": {"path": "/{connectionId}/tables/{table}/items", "method": "GET", "parameters": []}}}
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", sample, ""},
		{"not json", "{", "parse manifest JSON"},
		{"empty", "{}", "invalid manifest: no data sources"},
		{"connector without table id", `{"x": {"dataSourceType": "Connector"}}`, `invalid manifest: table "x" has no tableId`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := parse("src", []byte(tt.body))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "src", m.Source)
			assert.Equal(t, "GET", m.DataSources["orders"].APIs["GetItems"].Method)
		})
	}
}

func TestManifest_Tables(t *testing.T) {
	m, err := parse("src", []byte(sample))
	require.NoError(t, err)

	tables := m.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "accounts", tables[0].Name)
	assert.Equal(t, "dataverse", Kind(tables[0].Info))
	assert.Equal(t, "orders", tables[1].Name)
	assert.Equal(t, "connector", Kind(model.DataSourceInfo{}))
}

func TestGet_FileIsCached(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)
	p := filepath.Join(t.TempDir(), "dataSourcesInfo.json")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o600))

	m, err := Get(context.Background(), p)
	require.NoError(t, err)
	require.NoError(t, os.Remove(p))

	again, err := Get(context.Background(), p)
	require.NoError(t, err)
	assert.Same(t, m, again)
}

func TestGet_Remote(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ds.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()

	m, err := Get(context.Background(), srv.URL+"/ds.json")
	require.NoError(t, err)
	info, err := m.DataSourcesInfo(context.Background())
	require.NoError(t, err)
	assert.Len(t, info, 2)

	_, err = Get(context.Background(), srv.URL+"/missing.json")
	assert.ErrorContains(t, err, "server returned status 404")
}

func TestGet_NoSource(t *testing.T) {
	_, err := Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSource)
}
