// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package powerdata

import (
	"context"
	"log/slog"

	"powerdata/cli/internal/backend"
	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/query"
)

// Orchestrator validates data operations and routes each one to the
// executor that owns its table.
type Orchestrator struct {
	dataverse backend.Executor
	connector backend.Executor
	sources   backend.Sources
	override  backend.Executor
	logger    *slog.Logger
}

// NewOrchestrator returns an Orchestrator. A non-nil override receives every
// operation regardless of the table's backend.
func NewOrchestrator(dataverse, connector backend.Executor, sources backend.Sources, override backend.Executor, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		dataverse: dataverse,
		connector: connector,
		sources:   sources,
		override:  override,
		logger:    logger,
	}
}

// CreateRecord creates a record in table.
func (o *Orchestrator) CreateRecord(ctx context.Context, table string, data map[string]any) model.OperationResult {
	if err := required(param{"tableName", table != ""}, param{"data", data != nil}); err != nil {
		return errors.Response(err, errors.CreateRecordFailed)
	}
	ex, err := o.executor(ctx, table, "")
	if err != nil {
		return errors.Response(err, errors.CreateRecordFailed)
	}
	return ex.CreateRecord(ctx, table, data)
}

// UpdateRecord applies changes to record id of table.
func (o *Orchestrator) UpdateRecord(ctx context.Context, table, id string, data map[string]any) model.OperationResult {
	if err := required(param{"tableName", table != ""}, param{"id", id != ""}, param{"data", data != nil}); err != nil {
		return errors.Response(err, errors.UpdateRecordFailed)
	}
	ex, err := o.executor(ctx, table, "")
	if err != nil {
		return errors.Response(err, errors.UpdateRecordFailed)
	}
	return ex.UpdateRecord(ctx, table, id, data)
}

// DeleteRecord deletes record id of table.
func (o *Orchestrator) DeleteRecord(ctx context.Context, table, id string) model.OperationResult {
	if err := required(param{"tableName", table != ""}, param{"id", id != ""}); err != nil {
		return errors.Response(err, errors.DeleteRecordFailed)
	}
	ex, err := o.executor(ctx, table, "")
	if err != nil {
		return errors.Response(err, errors.DeleteRecordFailed)
	}
	return ex.DeleteRecord(ctx, table, id)
}

// RetrieveRecord reads record id of table.
func (o *Orchestrator) RetrieveRecord(ctx context.Context, table, id string, opts *query.Options) model.OperationResult {
	if err := required(param{"tableName", table != ""}, param{"id", id != ""}); err != nil {
		return errors.Response(err, errors.RetrieveRecordFailed)
	}
	ex, err := o.executor(ctx, table, "")
	if err != nil {
		return errors.Response(err, errors.RetrieveRecordFailed)
	}
	if err := opts.Validate(); err != nil {
		return errors.Response(err, errors.RetrieveRecordFailed)
	}
	return ex.RetrieveRecord(ctx, table, id, opts)
}

// RetrieveMultipleRecords reads one page of table.
func (o *Orchestrator) RetrieveMultipleRecords(ctx context.Context, table string, opts *query.Options) model.OperationResult {
	if err := required(param{"tableName", table != ""}); err != nil {
		return errors.Response(err, errors.RetrieveMultipleRecordFailed)
	}
	ex, err := o.executor(ctx, table, "")
	if err != nil {
		return errors.Response(err, errors.RetrieveMultipleRecordFailed)
	}
	if err := opts.Validate(); err != nil {
		return errors.Response(err, errors.RetrieveMultipleRecordFailed)
	}
	return ex.RetrieveMultipleRecords(ctx, table, opts)
}

// Execute runs a custom operation. Connector operations go to the connector
// executor and everything else to Dataverse.
func (o *Orchestrator) Execute(ctx context.Context, op *model.Operation) model.OperationResult {
	if err := required(param{"operation", op != nil}); err != nil {
		return errors.Response(err, errors.ExecuteOperationFailed)
	}
	kind := model.Dataverse
	if op.ConnectorOperation != nil {
		kind = model.Connector
	}
	ex, err := o.executor(ctx, "", kind)
	if err != nil {
		return errors.Response(err, errors.ExecuteOperationFailed)
	}
	return ex.Execute(ctx, *op)
}

// executor picks the override, else the executor for kind, else the one for
// the table's declared type.
func (o *Orchestrator) executor(ctx context.Context, table string, kind model.DataSourceType) (backend.Executor, error) {
	if o.override != nil {
		return o.override, nil
	}
	if kind == "" {
		info, err := o.sources.DataSource(ctx, table)
		if err != nil {
			return nil, err
		}
		kind = info.DataSourceType
	}
	switch kind {
	case model.Dataverse:
		return o.dataverse, nil
	case model.Connector:
		return o.connector, nil
	default:
		o.logger.Debug("unknown data source type, using connector", "table", table, "type", string(kind))
		return o.connector, nil
	}
}

type param struct {
	key string
	ok  bool
}

// required fails on the first missing parameter.
func required(params ...param) error {
	for _, p := range params {
		if !p.ok {
			return errors.Request(errors.InvalidOperationParameters, p.key+" is required")
		}
	}
	return nil
}
