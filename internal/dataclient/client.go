// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dataclient performs HTTP-shaped requests through the host's HTTP
// plugin. It acquires an access token per target API, builds the request
// headers (including the Dataverse batch envelope) and classifies the raw
// response by content type.
//
// Every public method returns a model.OperationResult; failures never escape
// as errors.
package dataclient

import (
	"context"
	"fmt"

	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/executor"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/telemetry"

	"github.com/goccy/go-json"
)

// Host plugins and actions used by the client.
const (
	ServiceHTTP     = "AppHttpClientPlugin"
	ServiceIdentity = "AppIdentityServicePlugin"

	ActionSendHTTP        = "sendHttpAsync"
	ActionGetToken        = "getAppAccessTokenAsync"
	ActionGetDynamicToken = "getAppDynamicResourceAccessTokenAsync"

	// RequestSource tags requests in host telemetry.
	RequestSource = "PublishedApp"

	// DataverseAPIID selects dynamic-resource tokens and Dataverse headers.
	DataverseAPIID = "Dataverse"
)

// Default operation names reported in telemetry headers.
const (
	OpCreate   = "runtimeDataClient.createDataAsync"
	OpUpdate   = "runtimeDataClient.updateDataAsync"
	OpDelete   = "runtimeDataClient.deleteDataAsync"
	OpRetrieve = "runtimeDataClient.retrieveDataAsync"
	OpDefault  = "runtimeDataClient.executeRequest"
)

// Client executes data requests over an executor.Executor.
type Client struct {
	exec executor.Executor
	log  *telemetry.Log
}

// New returns a Client.
func New(exec executor.Executor, log *telemetry.Log) *Client {
	return &Client{exec: exec, log: log}
}

// request is one outbound HTTP call.
type request struct {
	url     string
	method  string
	apiID   string
	table   string
	headers map[string]string
	body    string
}

// CreateData POSTs body to url.
func (c *Client) CreateData(ctx context.Context, url, apiID, table string, body any, rc *model.RequestContext) model.OperationResult {
	if body == nil {
		return errors.Response(errors.Request(errors.InvalidRequest, errors.MissingRequestBody), errors.CreateFailed)
	}
	raw, err := json.MarshalNoEscape(body)
	if err != nil {
		return errors.Response(err, errors.CreateFailed)
	}
	req := request{url: url, method: model.MethodPost, apiID: apiID, table: table, body: string(raw)}
	return c.run(ctx, req, ensureContext(rc, OpCreate), errors.CreateFailed)
}

// UpdateData PATCHes url with body.
func (c *Client) UpdateData(ctx context.Context, url, apiID, table string, body any, rc *model.RequestContext) model.OperationResult {
	if body == nil {
		return errors.Response(errors.Request(errors.InvalidRequest, errors.MissingRequestBody), errors.UpdateFailed)
	}
	raw, err := json.MarshalNoEscape(body)
	if err != nil {
		return errors.Response(err, errors.UpdateFailed)
	}
	req := request{url: url, method: model.MethodPatch, apiID: apiID, table: table, body: string(raw)}
	return c.run(ctx, req, ensureContext(rc, OpUpdate), errors.UpdateFailed)
}

// DeleteData sends DELETE to url.
func (c *Client) DeleteData(ctx context.Context, url, apiID, table string, rc *model.RequestContext) model.OperationResult {
	req := request{url: url, method: model.MethodDelete, apiID: apiID, table: table}
	return c.run(ctx, req, ensureContext(rc, OpDelete), errors.DeleteFailed)
}

// RetrieveData sends an arbitrary read (or connector operation) to url. A
// string body is sent as is; other bodies are JSON encoded.
func (c *Client) RetrieveData(ctx context.Context, url, apiID, table, method string, headers map[string]string, body any, rc *model.RequestContext) model.OperationResult {
	req := request{url: url, method: method, apiID: apiID, table: table, headers: headers}
	switch b := body.(type) {
	case nil:
	case string:
		req.body = b
	default:
		raw, err := json.MarshalNoEscape(b)
		if err != nil {
			return errors.Response(err, errors.RetrieveFailed)
		}
		req.body = string(raw)
	}
	return c.run(ctx, req, ensureContext(rc, OpRetrieve), errors.RetrieveFailed)
}

func (c *Client) run(ctx context.Context, req request, rc model.RequestContext, friendly string) model.OperationResult {
	res, err := c.execute(ctx, req, rc)
	if err != nil {
		return errors.Response(err, friendly)
	}
	return res
}

func (c *Client) execute(ctx context.Context, req request, rc model.RequestContext) (model.OperationResult, error) {
	token, err := c.accessToken(ctx, req.apiID, rc.DatasetName)
	if err != nil {
		return model.OperationResult{}, err
	}
	headers, err := buildHeaders(token, req, rc)
	if err != nil {
		return model.OperationResult{}, err
	}

	var body any = ""
	if req.body != "" {
		body = []byte(req.body)
	}
	envelope := map[string]any{
		"url":                  req.url,
		"method":               req.method,
		"requestSource":        RequestSource,
		"allowSessionStorage":  true,
		"returnDirectResponse": true,
		"headers":              headers,
	}
	res, err := c.exec.Execute(ctx, ServiceHTTP, ActionSendHTTP, []any{envelope, body, "arraybuffer"})
	if err != nil {
		return model.OperationResult{Success: false, Error: ParseHTTPError(err)}, nil
	}
	return classify(res.Data, req.url, rc)
}

func (c *Client) accessToken(ctx context.Context, apiID, datasetName string) (string, error) {
	action, arg := ActionGetToken, apiID
	if apiID == DataverseAPIID {
		action, arg = ActionGetDynamicToken, datasetName
	}
	res, err := c.exec.Execute(ctx, ServiceIdentity, action, []any{arg})
	if err != nil {
		return "", c.log.Raise(errors.Wrap(errors.TokenAcquisitionFailed, err))
	}
	switch t := res.Data.(type) {
	case string:
		return t, nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(t), nil
	}
}

// ensureContext returns a copy of rc with a default operation name.
func ensureContext(rc *model.RequestContext, defaultOp string) model.RequestContext {
	var out model.RequestContext
	if rc != nil {
		out = *rc
	}
	if out.OperationName == "" {
		out.OperationName = defaultOp
	}
	return out
}
