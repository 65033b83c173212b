// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package powerdata composes the data runtime: the client provider, the
// data-source service, both backend executors and the orchestrator in front
// of them. A Runtime is built once per data-sources info and shared by every
// data operation of the app.
package powerdata

import (
	"log/slog"

	"powerdata/cli/internal/backend"
	"powerdata/cli/internal/datasource"
	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/executor"
	"powerdata/cli/internal/metadata"
	"powerdata/cli/internal/provider"
	"powerdata/cli/internal/telemetry"
)

// Params configure a Runtime.
type Params struct {
	// Executor reaches the host. Required.
	Executor executor.Executor
	// InfoProvider supplies the app's data sources.
	InfoProvider datasource.InfoProvider
	// Override, when set, serves every data operation instead of the
	// built-in executors.
	Override backend.Executor
	Logger   *slog.Logger
}

// Runtime owns the data and metadata operations of one app session.
type Runtime struct {
	log         *telemetry.Log
	provider    *provider.Provider
	sources     *datasource.Service
	data        *Orchestrator
	metadata    *metadata.Operations
	initialized bool
}

// New builds a Runtime. Failures are tracked before being returned.
func New(p Params) (*Runtime, error) {
	if p.Executor == nil {
		return nil, errors.New(errors.InvalidOperationExecutor, "")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	log := telemetry.New(p.Executor, logger)
	r := &Runtime{
		log:      log,
		provider: provider.New(p.Executor, log),
		sources:  datasource.NewService(p.InfoProvider, log),
	}

	set, err := backend.New(r.provider, r.sources, log)
	if err != nil {
		return nil, log.Raise(errors.Wrap(errors.InitializationFailed, err))
	}
	r.data = NewOrchestrator(set.Dataverse, set.Connector, r.sources, p.Override, logger)
	r.metadata = metadata.NewOperations(r.provider.MetadataClient)
	r.initialized = true
	logger.Debug("data runtime ready")
	return r, nil
}

// Data returns the data operations.
func (r *Runtime) Data() (*Orchestrator, error) {
	if r == nil || !r.initialized {
		return nil, errors.New(errors.OperationsNotInitialized, "")
	}
	return r.data, nil
}

// Metadata returns the metadata operations.
func (r *Runtime) Metadata() (*metadata.Operations, error) {
	if r == nil || !r.initialized {
		return nil, errors.New(errors.OperationsNotInitialized, "")
	}
	return r.metadata, nil
}

// Sources returns the data-source service.
func (r *Runtime) Sources() *datasource.Service { return r.sources }

// Telemetry returns the runtime's telemetry sink.
func (r *Runtime) Telemetry() *telemetry.Log { return r.log }

// Reset drops the memoized data and metadata clients.
func (r *Runtime) Reset() {
	r.provider.Reset()
}
