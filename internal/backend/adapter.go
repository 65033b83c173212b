// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides the data operation executors for the two backend
// families: Dataverse tables and connector-described APIs.
// Each executor turns a table-level operation into one data client request
// and reports the outcome as a model.OperationResult; failures never escape
// as errors.
package backend

import (
	"context"

	"powerdata/cli/internal/model"
	"powerdata/cli/internal/provider"
	"powerdata/cli/internal/query"
)

// Executor defines the data operations a backend must serve.
// Implementations may talk to the host or be stubbed in tests.
type Executor interface {
	CreateRecord(ctx context.Context, table string, data map[string]any) model.OperationResult
	UpdateRecord(ctx context.Context, table, id string, data map[string]any) model.OperationResult
	DeleteRecord(ctx context.Context, table, id string) model.OperationResult
	RetrieveRecord(ctx context.Context, table, id string, opts *query.Options) model.OperationResult
	RetrieveMultipleRecords(ctx context.Context, table string, opts *query.Options) model.OperationResult
	// Execute runs a custom operation (a connector operation or a Dataverse
	// action).
	Execute(ctx context.Context, op model.Operation) model.OperationResult
}

// Clients hands out the shared data and metadata clients.
// *provider.Provider satisfies it.
type Clients interface {
	DataClient(ctx context.Context) (provider.DataClient, error)
	MetadataClient(ctx context.Context) (provider.MetadataClient, error)
}

// Sources resolves a table name to its descriptor.
type Sources interface {
	DataSource(ctx context.Context, name string) (model.DataSourceInfo, error)
}
