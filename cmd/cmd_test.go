// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"testing"

	"powerdata/cli/internal/app"
	"powerdata/cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetExecFlags(t *testing.T) {
	t.Cleanup(func() {
		execTable, execOperation, execParams, execDataverseAction = "", "", "", ""
	})
}

func TestBuildOperation(t *testing.T) {
	tests := []struct {
		name                     string
		table, op, params, dvAct string
		want                     *model.Operation
		wantErr                  string
	}{
		{
			name: "connector object params", table: "orders", op: "GetByStatus", params: `{"status":"open"}`,
			want: &model.Operation{ConnectorOperation: &model.ConnectorOperation{
				TableName: "orders", OperationName: "GetByStatus", Parameters: map[string]any{"status": "open"},
			}},
		},
		{
			name: "connector array params", table: "orders", op: "Get", params: `["a", 1]`,
			want: &model.Operation{ConnectorOperation: &model.ConnectorOperation{
				TableName: "orders", OperationName: "Get", Parameters: []any{"a", float64(1)},
			}},
		},
		{
			name: "dataverse action", table: "accounts", dvAct: "getEntityMetadata", params: `{"options":{"columns":"all"}}`,
			want: &model.Operation{DataverseRequest: &model.DataverseRequest{
				Action:     "getEntityMetadata",
				Parameters: map[string]any{"tableName": "accounts", "options": map[string]any{"columns": "all"}},
			}},
		},
		{name: "missing operation", table: "orders", wantErr: "--table and --operation are required"},
		{name: "bad json", table: "orders", op: "x", params: "{", wantErr: "invalid --params"},
		{name: "dataverse array params", dvAct: "a", params: "[1]", wantErr: "must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetExecFlags(t)
			execTable, execOperation, execParams, execDataverseAction = tt.table, tt.op, tt.params, tt.dvAct

			op, err := buildOperation()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, op)
		})
	}
}

func TestListOptions(t *testing.T) {
	t.Cleanup(func() {
		recSelect, recFilter, recTop, recMaxPageSize = nil, "", 0, 0
	})
	require.NoError(t, recordsListCmd.ParseFlags([]string{"--select", "id,name", "--filter", "name eq 'x'", "--top", "0", "--max-page-size", "25"}))

	opts := listOptions(recordsListCmd)
	assert.Equal(t, []string{"id", "name"}, opts.Select)
	assert.Equal(t, "name eq 'x'", opts.Filter)
	require.NotNil(t, opts.Top)
	assert.Equal(t, 0, *opts.Top)
	assert.Nil(t, opts.Skip)
	assert.Nil(t, opts.Count)
	require.NotNil(t, opts.MaxPageSize)
	assert.Equal(t, 25, *opts.MaxPageSize)
}

func TestColumnsOf(t *testing.T) {
	rows := []any{
		map[string]any{"name": "a", "@odata.etag": "W/1", "accountid": "1"},
		map[string]any{"name": "b", "revenue": 10, "revenue@OData.Community.Display.V1.FormattedValue": "$10"},
		"not a record",
	}
	assert.Equal(t, []string{"accountid", "name", "revenue"}, columnsOf(rows))
}

func TestCell(t *testing.T) {
	assert.Equal(t, "", cell(nil))
	assert.Equal(t, "x", cell("x"))
	assert.Equal(t, "1.5", cell(1.5))
	assert.Equal(t, `{"a":1}`, cell(map[string]any{"a": 1}))
	assert.Equal(t, `[1,"b"]`, cell([]any{1, "b"}))
}

func TestParseObject(t *testing.T) {
	m, err := parseObject(`{"name":"Contoso"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Contoso"}, m)

	_, err = parseObject("null")
	assert.Error(t, err)
	_, err = parseObject("[1]")
	assert.Error(t, err)
}

func TestFormatMetric(t *testing.T) {
	out := formatMetric(app.Metric{"name": "appLoad", "duration": 120.5, "status": "ok"})
	assert.Contains(t, out, "appLoad")
	assert.Contains(t, out, "duration=120.5 status=ok")
}
