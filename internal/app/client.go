// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package app

import (
	"context"

	"powerdata/cli/internal/datasource"
	"powerdata/cli/internal/metadata"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/powerdata"
	"powerdata/cli/internal/query"
)

// Client is the data client of an app, bound to its data-sources info.
// Every call waits for Initialize.
type Client struct {
	app  *App
	info model.DataSourcesInfo
}

// Client returns a data client for info. The runtime behind it is built on
// first use and shared by every Client of the App.
func (a *App) Client(info model.DataSourcesInfo) *Client {
	return &Client{app: a, info: info}
}

// CreateRecord creates record in table.
func (c *Client) CreateRecord(ctx context.Context, table string, record map[string]any) (model.OperationResult, error) {
	o, err := c.data(ctx)
	if err != nil {
		return model.OperationResult{}, err
	}
	return o.CreateRecord(ctx, table, record), nil
}

// UpdateRecord applies changes to record id of table.
func (c *Client) UpdateRecord(ctx context.Context, table, id string, changes map[string]any) (model.OperationResult, error) {
	o, err := c.data(ctx)
	if err != nil {
		return model.OperationResult{}, err
	}
	return o.UpdateRecord(ctx, table, id, changes), nil
}

// DeleteRecord deletes record id of table.
func (c *Client) DeleteRecord(ctx context.Context, table, id string) (model.OperationResult, error) {
	o, err := c.data(ctx)
	if err != nil {
		return model.OperationResult{}, err
	}
	return o.DeleteRecord(ctx, table, id), nil
}

// RetrieveRecord reads record id of table.
func (c *Client) RetrieveRecord(ctx context.Context, table, id string, opts *query.Options) (model.OperationResult, error) {
	o, err := c.data(ctx)
	if err != nil {
		return model.OperationResult{}, err
	}
	return o.RetrieveRecord(ctx, table, id, opts), nil
}

// RetrieveMultipleRecords reads one page of table.
func (c *Client) RetrieveMultipleRecords(ctx context.Context, table string, opts *query.Options) (model.OperationResult, error) {
	o, err := c.data(ctx)
	if err != nil {
		return model.OperationResult{}, err
	}
	return o.RetrieveMultipleRecords(ctx, table, opts), nil
}

// Execute runs a custom connector or Dataverse operation.
func (c *Client) Execute(ctx context.Context, op *model.Operation) (model.OperationResult, error) {
	o, err := c.data(ctx)
	if err != nil {
		return model.OperationResult{}, err
	}
	return o.Execute(ctx, op), nil
}

// Metadata returns the metadata operations of the runtime.
func (c *Client) Metadata(ctx context.Context) (*metadata.Operations, error) {
	r, err := c.app.dataRuntime(ctx, c.info)
	if err != nil {
		return nil, err
	}
	return r.Metadata()
}

func (c *Client) data(ctx context.Context) (*powerdata.Orchestrator, error) {
	r, err := c.app.dataRuntime(ctx, c.info)
	if err != nil {
		return nil, err
	}
	return r.Data()
}

// dataRuntime waits for Initialize, then builds the runtime once. A build
// failure is not cached.
func (a *App) dataRuntime(ctx context.Context, info model.DataSourcesInfo) (*powerdata.Runtime, error) {
	if err := a.waitReady(ctx); err != nil {
		return nil, err
	}
	a.rtMu.Lock()
	defer a.rtMu.Unlock()
	if a.runtime != nil {
		return a.runtime, nil
	}

	a.mu.Lock()
	exec, override := a.exec, a.override
	a.mu.Unlock()

	provider, err := datasource.NewStaticProvider(info, nil)
	if err != nil {
		return nil, err
	}
	r, err := powerdata.New(powerdata.Params{
		Executor:     exec,
		InfoProvider: provider,
		Override:     override,
		Logger:       a.logger,
	})
	if err != nil {
		return nil, err
	}
	a.runtime = r
	return r, nil
}
