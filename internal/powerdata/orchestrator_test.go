// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package powerdata

import (
	"context"
	stderrors "errors"
	"testing"

	"powerdata/cli/internal/model"
	"powerdata/cli/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a backend.Executor that records which operation reached it.
type recorder struct {
	name  string
	calls []string
}

func (r *recorder) ok(op string) model.OperationResult {
	r.calls = append(r.calls, op)
	return model.OK(r.name)
}

func (r *recorder) CreateRecord(ctx context.Context, table string, data map[string]any) model.OperationResult {
	return r.ok("create:" + table)
}

func (r *recorder) UpdateRecord(ctx context.Context, table, id string, data map[string]any) model.OperationResult {
	return r.ok("update:" + table + ":" + id)
}

func (r *recorder) DeleteRecord(ctx context.Context, table, id string) model.OperationResult {
	return r.ok("delete:" + table + ":" + id)
}

func (r *recorder) RetrieveRecord(ctx context.Context, table, id string, opts *query.Options) model.OperationResult {
	return r.ok("get:" + table + ":" + id)
}

func (r *recorder) RetrieveMultipleRecords(ctx context.Context, table string, opts *query.Options) model.OperationResult {
	return r.ok("list:" + table)
}

func (r *recorder) Execute(ctx context.Context, op model.Operation) model.OperationResult {
	return r.ok("execute")
}

type sources model.DataSourcesInfo

func (s sources) DataSource(ctx context.Context, name string) (model.DataSourceInfo, error) {
	info, ok := s[name]
	if !ok {
		return model.DataSourceInfo{}, stderrors.New("Data source not found: " + name)
	}
	return info, nil
}

func newTestOrchestrator(override *recorder) (*Orchestrator, *recorder, *recorder) {
	dv, conn := &recorder{name: "dataverse"}, &recorder{name: "connector"}
	src := sources{
		"accounts": {DataSourceType: model.Dataverse},
		"users":    {DataSourceType: model.Connector},
		"legacy":   {DataSourceType: "Sharepoint"},
	}
	if override != nil {
		return NewOrchestrator(dv, conn, src, override, nil), dv, conn
	}
	return NewOrchestrator(dv, conn, src, nil, nil), dv, conn
}

func TestOrchestrator_Routing(t *testing.T) {
	o, _, _ := newTestOrchestrator(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() model.OperationResult
		want string
	}{
		{"dataverse table", func() model.OperationResult { return o.CreateRecord(ctx, "accounts", map[string]any{}) }, "dataverse"},
		{"connector table", func() model.OperationResult { return o.DeleteRecord(ctx, "users", "1") }, "connector"},
		{"unknown type falls back", func() model.OperationResult { return o.RetrieveMultipleRecords(ctx, "legacy", nil) }, "connector"},
		{"execute connector", func() model.OperationResult {
			return o.Execute(ctx, &model.Operation{ConnectorOperation: &model.ConnectorOperation{TableName: "x"}})
		}, "connector"},
		{"execute dataverse", func() model.OperationResult {
			return o.Execute(ctx, &model.Operation{DataverseRequest: &model.DataverseRequest{Action: "a"}})
		}, "dataverse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.run()
			require.True(t, res.Success, "%+v", res.Error)
			assert.Equal(t, tt.want, res.Data)
		})
	}
}

func TestOrchestrator_OverrideWins(t *testing.T) {
	override := &recorder{name: "override"}
	o, dv, conn := newTestOrchestrator(override)

	res := o.UpdateRecord(context.Background(), "unknown-table", "1", map[string]any{"a": 1})
	require.True(t, res.Success)
	assert.Equal(t, "override", res.Data)
	assert.Equal(t, []string{"update:unknown-table:1"}, override.calls)
	assert.Empty(t, dv.calls)
	assert.Empty(t, conn.calls)
}

func TestOrchestrator_Validation(t *testing.T) {
	o, dv, conn := newTestOrchestrator(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() model.OperationResult
		want string
	}{
		{"create without table", func() model.OperationResult { return o.CreateRecord(ctx, "", map[string]any{}) },
			"Create record operation failed: Invalid operation parameters: tableName is required"},
		{"create without data", func() model.OperationResult { return o.CreateRecord(ctx, "users", nil) },
			"Create record operation failed: Invalid operation parameters: data is required"},
		{"update without id", func() model.OperationResult { return o.UpdateRecord(ctx, "users", "", map[string]any{}) },
			"Update record operation failed: Invalid operation parameters: id is required"},
		{"delete without id", func() model.OperationResult { return o.DeleteRecord(ctx, "users", "") },
			"Delete record operation failed: Invalid operation parameters: id is required"},
		{"get with blank select", func() model.OperationResult {
			return o.RetrieveRecord(ctx, "users", "1", &query.Options{Select: []string{" "}})
		}, "Retrieve record operation failed: Invalid operation parameters: select must contain only non-empty strings"},
		{"list unknown table", func() model.OperationResult { return o.RetrieveMultipleRecords(ctx, "nope", nil) },
			"Retrieve multiple records operation failed: Data source not found: nope"},
		{"list negative top", func() model.OperationResult {
			return o.RetrieveMultipleRecords(ctx, "users", &query.Options{Top: query.Int(-1)})
		}, "Retrieve multiple records operation failed: Invalid operation parameters: top must be a non-negative number"},
		{"execute without operation", func() model.OperationResult { return o.Execute(ctx, nil) },
			"Execute operation failed: Invalid operation parameters: operation is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.run()
			require.False(t, res.Success)
			assert.Equal(t, tt.want, res.Error.Message)
		})
	}
	assert.Empty(t, dv.calls)
	assert.Empty(t, conn.calls)
}
