// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dataclient

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"powerdata/cli/internal/bridge"
	"powerdata/cli/internal/model"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hostCall struct {
	service, action string
	args            []any
}

// fakeHost answers token requests with "tok" and HTTP requests with reply.
type fakeHost struct {
	mu       sync.Mutex
	calls    []hostCall
	tokenErr error
	reply    func(envelope map[string]any, body any) (any, error)
}

func (f *fakeHost) Execute(ctx context.Context, service, action string, args []any) (model.OperationResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, hostCall{service, action, args})
	f.mu.Unlock()
	switch service {
	case ServiceIdentity:
		if f.tokenErr != nil {
			return model.OperationResult{}, f.tokenErr
		}
		return model.OK("tok"), nil
	case ServiceHTTP:
		if f.reply == nil {
			return model.OperationResult{}, stderrors.New("unexpected http call")
		}
		v, err := f.reply(args[0].(map[string]any), args[1])
		if err != nil {
			return model.OperationResult{}, err
		}
		return model.OK(v), nil
	}
	return model.OperationResult{}, stderrors.New("unexpected service " + service)
}

func (f *fakeHost) last(service string) hostCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].service == service {
			return f.calls[i]
		}
	}
	return hostCall{}
}

func jsonReply(status int, contentType string, body string) func(map[string]any, any) (any, error) {
	return func(map[string]any, any) (any, error) {
		headers := map[string]any{}
		if contentType != "" {
			headers["Content-Type"] = contentType
		}
		return []any{map[string]any{"status": float64(status), "headers": headers}, []byte(body)}, nil
	}
}

const dvURL = "https://org.crm.dynamics.com/api/data/v9.0/accounts"

func TestCreateData_DataverseHeaders(t *testing.T) {
	host := &fakeHost{reply: jsonReply(201, "application/json; odata.metadata=minimal", `{"accountid":"1","value":[1]}`)}
	c := New(host, nil)

	res := c.CreateData(context.Background(), dvURL, DataverseAPIID, "accounts",
		map[string]any{"name": "Acme"}, &model.RequestContext{DatasetName: "env1", BatchID: "b1"})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, map[string]any{"accountid": "1", "value": []any{float64(1)}}, res.Data)

	token := host.last(ServiceIdentity)
	assert.Equal(t, ActionGetDynamicToken, token.action)
	assert.Equal(t, []any{"env1"}, token.args)

	send := host.last(ServiceHTTP)
	env := send.args[0].(map[string]any)
	assert.Equal(t, dvURL, env["url"])
	assert.Equal(t, "POST", env["method"])
	assert.Equal(t, RequestSource, env["requestSource"])
	assert.Equal(t, true, env["allowSessionStorage"])
	assert.Equal(t, true, env["returnDirectResponse"])
	assert.Equal(t, []byte(`{"name":"Acme"}`), send.args[1])
	assert.Equal(t, "arraybuffer", send.args[2])

	h := env["headers"].(map[string]string)
	assert.Equal(t, "dynamicauth tok", h["Authorization"])
	assert.Equal(t, "Dataverse", h["x-ms-protocol-semantics"])
	assert.Equal(t, "accounts", h["ServiceNamespace"])
	assert.Equal(t, `paclient-telemetry {"operationName":"runtimeDataClient.createDataAsync"}`, h["x-ms-pa-client-telemetry-options"])
	assert.Equal(t, `{"apiId":"Dataverse"}`, h["x-ms-pa-client-telemetry-additional-data"])
	assert.Equal(t,
		`{"baseUrl":"https://org.crm.dynamics.com/api/data/v9.0","encodedPath":"accounts","headers":{"Accept":"application/json","Prefer":"return=representation,odata.include-annotations=*","Content-Type":"application/json"},"batchId":"b1"}`,
		h["BatchInfo"])
}

func TestCreateData_ConnectorHeadersAndCallerOverride(t *testing.T) {
	host := &fakeHost{reply: jsonReply(200, "application/json", `{"value":[1,2,3]}`)}
	c := New(host, nil)

	res := c.RetrieveData(context.Background(), "https://rt/apim/x/tables/t/items", "shared_office365users", "users",
		"GET", map[string]string{"Accept": "text/plain"}, nil, nil)
	require.True(t, res.Success)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, res.Data)

	token := host.last(ServiceIdentity)
	assert.Equal(t, ActionGetToken, token.action)
	assert.Equal(t, []any{"shared_office365users"}, token.args)

	send := host.last(ServiceHTTP)
	h := send.args[0].(map[string]any)["headers"].(map[string]string)
	assert.Equal(t, "paauth tok", h["Authorization"])
	assert.Equal(t, "cdp", h["x-ms-protocol-semantics"])
	assert.Equal(t, "text/plain", h["Accept"])
	assert.NotContains(t, h, "BatchInfo")
	assert.Equal(t, "", send.args[1])
}

func TestMergePrefer(t *testing.T) {
	tests := []struct {
		name, caller, method, want string
	}{
		{name: "post default", method: "POST", want: "return=representation,odata.include-annotations=*"},
		{name: "post appends to minimal", caller: "return=minimal", method: "POST", want: "return=minimal,return=representation,odata.include-annotations=*"},
		{name: "patch keeps representation", caller: "return=representation", method: "PATCH", want: "return=representation"},
		{name: "get passes caller", caller: "odata.maxpagesize=10", method: "GET", want: "odata.maxpagesize=10"},
		{name: "delete empty", method: "DELETE", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergePrefer(tt.caller, tt.method))
		})
	}
}

func TestSplitDataverseURL(t *testing.T) {
	base, path := SplitDataverseURL("https://org.crm.dynamics.com/api/data/v9.0/EntityDefinitions(LogicalName='account')?$select=a,b")
	assert.Equal(t, "https://org.crm.dynamics.com/api/data/v9.0", base)
	assert.Equal(t, "EntityDefinitions%28LogicalName%3D'account'%29%3F%24select%3Da%2Cb", path)

	base, path = SplitDataverseURL("https://rt/apim/sql/x")
	assert.Empty(t, base)
	assert.Empty(t, path)
}

func TestIsDataverseCall(t *testing.T) {
	assert.True(t, IsDataverseCall("https://org/API/Data/v9.0/accounts"))
	assert.True(t, IsDataverseCall("https://org%2Fapi%2Fdata%2Fx"))
	assert.False(t, IsDataverseCall("https://rt/apim/api/data/x"))
	assert.False(t, IsDataverseCall(""))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		rc      model.RequestContext
		reply   any
		want    model.OperationResult
		wantErr bool
	}{
		{
			name:  "no content type",
			reply: []any{map[string]any{"headers": map[string]any{}}, []byte("x")},
			want:  model.OperationResult{Success: true},
		},
		{
			name:  "json value unwrapped for connectors",
			url:   "https://rt/apim/x",
			reply: []any{map[string]any{"headers": map[string]any{"Content-Type": "application/json"}}, []byte(`{"value":[1,2,3]}`)},
			want:  model.OK([]any{float64(1), float64(2), float64(3)}),
		},
		{
			name:  "json kept for dataverse operations",
			url:   "https://rt/apim/x",
			rc:    model.RequestContext{IsDataverseOperation: true},
			reply: []any{map[string]any{"headers": map[string]any{"Content-Type": "application/json"}}, []byte(`{"value":[1,2,3]}`)},
			want:  model.OK(map[string]any{"value": []any{float64(1), float64(2), float64(3)}}),
		},
		{
			name:  "json kept for execute",
			url:   "https://rt/apim/x",
			rc:    model.RequestContext{IsExecuteAsync: true},
			reply: []any{map[string]any{"headers": map[string]any{"Content-Type": "application/json"}}, []byte(`{"value":[]}`)},
			want:  model.OK(map[string]any{"value": []any{}}),
		},
		{
			name:  "empty json body",
			reply: []any{map[string]any{"headers": map[string]any{"content-type": "application/json"}}, []byte{}},
			want:  model.OK(map[string]any{}),
		},
		{
			name:    "bad json",
			reply:   []any{map[string]any{"headers": map[string]any{"Content-Type": "application/json"}}, []byte("{")},
			wantErr: true,
		},
		{
			name:  "image base64",
			reply: []any{map[string]any{"headers": map[string]any{"Content-Type": "image/png"}}, []byte("hi")},
			want:  model.OK("aGk="),
		},
		{
			name:  "image passthrough",
			reply: []any{map[string]any{"headers": map[string]any{"Content-Type": "image/png"}}, "already"},
			want:  model.OK("already"),
		},
		{
			name:  "text without response info",
			reply: []any{map[string]any{"status": float64(200), "headers": map[string]any{"Content-Type": "text/plain"}}, []byte("hello")},
			want:  model.OK("hello"),
		},
		{
			name:  "declared array ok",
			rc:    model.RequestContext{ResponseInfo: map[string]model.ResponseType{"200": {Type: "array"}}},
			reply: []any{map[string]any{"status": float64(200), "headers": map[string]any{"Content-Type": "text/plain"}}, []byte(`[1]`)},
			want:  model.OK([]any{float64(1)}),
		},
		{
			name:  "declared object mismatch",
			rc:    model.RequestContext{ResponseInfo: map[string]model.ResponseType{"200": {Type: "object"}}},
			reply: []any{map[string]any{"status": float64(200), "headers": map[string]any{"Content-Type": "text/plain"}}, []byte(`[1]`)},
			want:  model.Fail("Invalid response format", nil),
		},
		{
			name:  "declared unparsable",
			rc:    model.RequestContext{ResponseInfo: map[string]model.ResponseType{"200": {Type: "object"}}},
			reply: []any{map[string]any{"status": float64(200), "headers": map[string]any{"Content-Type": "text/plain"}}, []byte(`nope`)},
			want:  model.Fail("Invalid response format", nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classify(tt.reply, tt.url, tt.rc)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("non-binary other body fails with data", func(t *testing.T) {
		reply := []any{map[string]any{"headers": map[string]any{"Content-Type": "text/plain"}}, "str"}
		got, err := classify(reply, "", model.RequestContext{})
		require.NoError(t, err)
		assert.False(t, got.Success)
		assert.Equal(t, reply, got.Data)
	})
}

func TestFailures(t *testing.T) {
	t.Run("missing body", func(t *testing.T) {
		c := New(&fakeHost{}, nil)
		res := c.UpdateData(context.Background(), dvURL, DataverseAPIID, "accounts", nil, nil)
		assert.False(t, res.Success)
		assert.Equal(t, "Update operation failure: Invalid request: Request body is required", res.Error.Message)
	})

	t.Run("token failure", func(t *testing.T) {
		c := New(&fakeHost{tokenErr: stderrors.New("denied")}, nil)
		res := c.DeleteData(context.Background(), dvURL, "api", "accounts", nil)
		assert.False(t, res.Success)
		assert.Equal(t, "Delete operation failure: Failed to acquire access token: denied", res.Error.Message)
	})

	t.Run("transport failure is parsed", func(t *testing.T) {
		host := &fakeHost{reply: func(map[string]any, any) (any, error) {
			return nil, &bridge.CallError{Status: 2, Args: []any{[]any{
				"Not Found", nil,
				map[string]any{"status": float64(404), "headers": map[string]any{"x-ms-client-request-id": "req-1"}},
			}}}
		}}
		c := New(host, nil)
		res := c.RetrieveData(context.Background(), dvURL, "api", "t", "GET", nil, nil, nil)
		assert.False(t, res.Success)
		assert.Equal(t, &model.ErrorInfo{Message: "Not Found", Status: 404, RequestID: "req-1"}, res.Error)
	})

	t.Run("bad json becomes retrieve failure", func(t *testing.T) {
		c := New(&fakeHost{reply: jsonReply(200, "application/json", "{")}, nil)
		res := c.RetrieveData(context.Background(), "https://rt/x", "api", "t", "GET", nil, nil, nil)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error.Message, "Retrieve operation failure: ")
	})
}

func TestRetrieveData_Body(t *testing.T) {
	var got []any
	host := &fakeHost{reply: func(env map[string]any, body any) (any, error) {
		got = append(got, body)
		return []any{map[string]any{"headers": map[string]any{}}}, nil
	}}
	c := New(host, nil)
	c.RetrieveData(context.Background(), "u", "a", "t", "POST", nil, `{"raw":1}`, nil)
	c.RetrieveData(context.Background(), "u", "a", "t", "POST", nil, map[string]any{"k": "<v>"}, nil)

	require.Len(t, got, 2)
	assert.Equal(t, []byte(`{"raw":1}`), got[0])
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got[1].([]byte), &decoded))
	assert.Equal(t, "<v>", decoded["k"])
	assert.Equal(t, []byte(`{"k":"<v>"}`), got[1])
}
