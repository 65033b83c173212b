// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"strings"
	"testing"

	"powerdata/cli/internal/dataclient"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/query"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataverseHost() *fakeHost {
	return &fakeHost{dataSources: map[string]any{
		"Account": map[string]any{
			"runtimeUrl":    "https://org.crm.dynamics.com/api/data/v9.2/",
			"version":       "9.2",
			"entitySetName": "accounts",
			"logicalName":   "account",
		},
		"contact": map[string]any{
			"runtimeUrl":  "https://org.crm.dynamics.com/api/data/v9.2/",
			"logicalName": "contact",
		},
	}}
}

func TestDataverse_CreateRecord(t *testing.T) {
	h := dataverseHost()
	h.reply = jsonReply(201, `{"accountid":"1","name":"Acme"}`)
	d := NewDataverse(newClients(h), nil)

	res := d.CreateRecord(context.Background(), "accounts", map[string]any{"name": "Acme"})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, map[string]any{"accountid": "1", "name": "Acme"}, res.Data)

	env := h.lastSend().envelope
	assert.Equal(t, "https://org.crm.dynamics.com/api/data/v9.0/accounts", env["url"])
	assert.Equal(t, "POST", env["method"])
	assert.Equal(t, []byte(`{"name":"Acme"}`), h.lastSend().body)
	require.Len(t, h.tokens, 1)
	assert.Equal(t, []any{dataclient.ActionGetDynamicToken, DefaultEnvironment}, h.tokens[0])

	hdr := h.headers()
	assert.Equal(t, "dynamicauth tok", hdr["Authorization"])
	assert.Contains(t, hdr["x-ms-pa-client-telemetry-options"], DataverseCreate)
	assert.Contains(t, hdr["BatchInfo"], `"baseUrl":"https://org.crm.dynamics.com/api/data/v9.0","encodedPath":"accounts"`)
}

func TestDataverse_SingleRecordURLs(t *testing.T) {
	h := dataverseHost()
	d := NewDataverse(newClients(h), nil)
	ctx := context.Background()

	res := d.UpdateRecord(ctx, "accounts", "42", map[string]any{"name": "B"})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, "https://org.crm.dynamics.com/api/data/v9.0/accounts(42)", h.lastSend().envelope["url"])
	assert.Equal(t, "PATCH", h.lastSend().envelope["method"])

	res = d.DeleteRecord(ctx, "contact", "7")
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, "https://org.crm.dynamics.com/api/data/v9.0/contact(7)", h.lastSend().envelope["url"])
	assert.Equal(t, "DELETE", h.lastSend().envelope["method"])

	res = d.RetrieveRecord(ctx, "accounts", "42", &query.Options{Select: []string{"name", "revenue"}})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, "https://org.crm.dynamics.com/api/data/v9.0/accounts(42)?$select=name%2Crevenue", h.lastSend().envelope["url"])
	assert.Equal(t, "odata.maxpagesize=500,odata.include-annotations=*", h.headers()["Prefer"])
}

func TestDataverse_RetrieveMultiplePaging(t *testing.T) {
	h := dataverseHost()
	h.reply = jsonReply(200, `{"value":[{"name":"A"}],"@odata.nextLink":"https://org.crm.dynamics.com/api/data/v9.0/accounts?$select=name&$skiptoken=ABC123"}`)
	d := NewDataverse(newClients(h), nil)

	res := d.RetrieveMultipleRecords(context.Background(), "accounts",
		&query.Options{Select: []string{"name"}, Top: query.Int(5), MaxPageSize: query.Int(25)})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, []any{map[string]any{"name": "A"}}, res.Data)
	assert.Equal(t, "ABC123", res.SkipToken)
	assert.Equal(t, "https://org.crm.dynamics.com/api/data/v9.0/accounts?$select=name&$top=5", h.lastSend().envelope["url"])
	assert.Equal(t, "odata.maxpagesize=25,odata.include-annotations=*", h.headers()["Prefer"])

	h.reply = jsonReply(200, `{}`)
	res = d.RetrieveMultipleRecords(context.Background(), "accounts", nil)
	require.True(t, res.Success)
	assert.Equal(t, []any{}, res.Data)
	assert.Empty(t, res.SkipToken)
}

func TestExtractSkipToken(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"https://x/api/data/v9.0/accounts?$top=5", ""},
		{"https://x/accounts?$select=name&$skiptoken=ABC123", "ABC123"},
		{"https://x/accounts?$SkipToken=XYZ", "XYZ"},
		{"https://x/accounts?a=1&skiptoken=a%20b#frag", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSkipToken(tt.link))
		})
	}
}

func TestDataverse_Failures(t *testing.T) {
	ctx := context.Background()

	d := NewDataverse(newClients(dataverseHost()), nil)
	res := d.CreateRecord(ctx, "leads", map[string]any{"a": 1})
	require.False(t, res.Success)
	assert.Equal(t,
		"Create operation failure: Data source not found: Failed to get Dataverse data source info for table 'leads': Data source not found: No Dataverse data source found for table: leads",
		res.Error.Message)

	empty := NewDataverse(newClients(&fakeHost{dataSources: map[string]any{}}), nil)
	res = empty.RetrieveRecord(ctx, "accounts", "1", nil)
	require.False(t, res.Success)
	assert.Equal(t,
		"Retrieve operation failure: Data source not found: Failed to get Dataverse data source info for table 'accounts': Data source not found: Failed to load Dataverse database references from runtime.",
		res.Error.Message)
}

func TestDataverse_DatabaseReferences(t *testing.T) {
	d := NewDataverse(newClients(dataverseHost()), nil)
	refs, err := d.DatabaseReferences(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)

	ref := refs[DefaultEnvironment]
	assert.Equal(t, "Environmental", ref.DatabaseDetails.ReferenceType)
	assert.Equal(t, "NotSpecified", ref.DatabaseDetails.OverrideValues.Status)
	env := ref.DatabaseDetails.LinkedEnvironmentMetadata
	assert.Equal(t, "https://org.crm.dynamics.com", env.InstanceURL)
	assert.Equal(t, "https://org.crm.dynamics.com/api/data/v9.2/", env.InstanceAPIURL)
	assert.Equal(t, "9.2", env.Version)
	assert.Equal(t, 1033, env.BaseLanguage)
	assert.Equal(t, map[string]model.DatabaseTable{
		"accounts": {EntitySetName: "accounts", LogicalName: "account"},
		"contact":  {LogicalName: "contact"},
	}, ref.DataSources)
}

func TestDataverse_Execute(t *testing.T) {
	h := dataverseHost()
	h.reply = jsonReply(200, `{"LogicalName":"account"}`)
	d := NewDataverse(newClients(h), nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		op      model.Operation
		wantErr string
	}{
		{name: "no request", op: model.Operation{}, wantErr: "Dataverse request details are required for Dataverse operations."},
		{
			name:    "no table",
			op:      model.Operation{DataverseRequest: &model.DataverseRequest{Action: ActionGetEntityMetadata, Parameters: map[string]any{}}},
			wantErr: "Table name is required for getEntityMetadata action.",
		},
		{
			name:    "unknown action",
			op:      model.Operation{DataverseRequest: &model.DataverseRequest{Action: "whoAmI"}},
			wantErr: `Unsupported Dataverse action: "whoAmI"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Execute(ctx, tt.op)
			require.False(t, res.Success)
			assert.Nil(t, res.Data)
			assert.Equal(t, tt.wantErr, res.Error.Message)
		})
	}

	res := d.Execute(ctx, model.Operation{DataverseRequest: &model.DataverseRequest{
		Action:     ActionGetEntityMetadata,
		Parameters: map[string]any{"tableName": "accounts", "options": map[string]any{"schema": map[string]any{"columns": "all"}}},
	}})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t,
		"https://org.crm.dynamics.com/api/data/v9.0/EntityDefinitions(LogicalName='account')?%24select=LogicalName&%24expand=Attributes",
		h.lastSend().envelope["url"])
	assert.Equal(t, "Strong", h.headers()["Consistency"])
	assert.Equal(t, "EntityDefinitions", h.headers()["ServiceNamespace"])
}

func TestMetadataURL(t *testing.T) {
	info := model.DataSourceInfo{
		LogicalName:               "account",
		LinkedEnvironmentMetadata: &model.LinkedEnvironmentMetadata{InstanceURL: "https://org.crm.dynamics.com/"},
	}
	base := "https://org.crm.dynamics.com/api/data/v9.0/EntityDefinitions(LogicalName='account')?"

	tests := []struct {
		name string
		opts map[string]any
		want string
	}{
		{name: "defaults", opts: nil, want: base + "%24select=LogicalName&%24expand="},
		{
			name: "metadata deduplicated",
			opts: map[string]any{"metadata": []any{"DisplayName", "LogicalName"}},
			want: base + "%24select=DisplayName%2CLogicalName&%24expand=",
		},
		{
			name: "relationships and columns",
			opts: map[string]any{
				"metadata": []any{"DisplayName"},
				"schema":   map[string]any{"manyToOne": true, "oneToMany": false, "columns": []any{"name", "ownerid"}},
			},
			want: base + "%24select=DisplayName%2CLogicalName&%24expand=ManyToOneRelationships%2CAttributes%28%24filter%3DMicrosoft.Dynamics.CRM.In%28PropertyName%3D%27LogicalName%27%2CPropertyValues%3D%5B%27name%27%2C%27ownerid%27%5D%29%29",
		},
		{
			name: "all relationships",
			opts: map[string]any{"schema": map[string]any{"manyToOne": true, "oneToMany": true, "manyToMany": true}},
			want: base + "%24select=LogicalName&%24expand=ManyToOneRelationships%2COneToManyRelationships%2CManyToManyRelationships",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := metadataURL(info, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := metadataURL(model.DataSourceInfo{LinkedEnvironmentMetadata: info.LinkedEnvironmentMetadata}, nil)
	assert.EqualError(t, err, "Failed to initialize PowerDataClient: No logicalName found for Dataverse table.")
	_, err = metadataURL(model.DataSourceInfo{LogicalName: "account"}, nil)
	assert.EqualError(t, err, "Failed to initialize PowerDataClient: No instanceUrl found for Dataverse table.")
}

// recordID pulls the key segment back out of a single-record path.
func recordID(t *testing.T, path, table string) string {
	t.Helper()
	rest, ok := strings.CutPrefix(path, table+"(")
	require.True(t, ok, "path %q does not address %s", path, table)
	end := strings.LastIndex(rest, ")")
	require.NotEqual(t, -1, end, "path %q has no closing parenthesis", path)
	return rest[:end]
}

func TestDataverse_RecordIDRoundTrip(t *testing.T) {
	const base = "https://org.crm.dynamics.com/api/data/v9.0/"
	ids := []string{
		"00000000-0000-0000-0000-000000000001",
		"6f1c2a9e-8d4b-4e0f-9a51-3b7c9d2e4f10",
		"42",
		"0",
		"name with spaces",
		"O'Brien",
		`say "hi"`,
		"key='alt',other=2",
	}
	ops := map[string]func(d *Dataverse, id string) model.OperationResult{
		"delete": func(d *Dataverse, id string) model.OperationResult {
			return d.DeleteRecord(context.Background(), "accounts", id)
		},
		"retrieve": func(d *Dataverse, id string) model.OperationResult {
			return d.RetrieveRecord(context.Background(), "accounts", id, nil)
		},
	}

	for name, op := range ops {
		for _, id := range ids {
			t.Run(name+"/"+id, func(t *testing.T) {
				h := dataverseHost()
				d := NewDataverse(newClients(h), nil)
				res := op(d, id)
				require.True(t, res.Success, "%+v", res.Error)

				u, _ := h.lastSend().envelope["url"].(string)
				path, ok := strings.CutPrefix(u, base)
				require.True(t, ok, "url %q", u)
				assert.Equal(t, id, recordID(t, path, "accounts"))

				var batch struct {
					EncodedPath string `json:"encodedPath"`
				}
				require.NoError(t, json.Unmarshal([]byte(h.headers()["BatchInfo"]), &batch))
				assert.Equal(t, id, recordID(t, query.UnescapeComponent(batch.EncodedPath), "accounts"))
			})
		}
	}
}
