// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package executor forwards plugin operations to the host transport and wraps
// the host's replies into OperationResults.
package executor

import (
	"context"
	"fmt"
	"sync"

	"powerdata/cli/internal/bridge"
	"powerdata/cli/internal/model"
)

// Connection loading plugin.
const (
	ClientPlugin              = "AppPowerAppsClientPlugin"
	ActionLoadConnections     = "loadNonCompositeConnectionsAsync"
	ActionResolveCompositions = "resolveCompositeConnectionsAsync"
)

// Executor runs a plugin operation. Host failures are returned as errors;
// callers decide how to turn them into failed results.
type Executor interface {
	Execute(ctx context.Context, service, action string, args []any) (model.OperationResult, error)
}

// OperationExecutor is the Executor backed by a bridge.Transport.
type OperationExecutor struct {
	transport bridge.Transport

	loadOnce sync.Once
	loadErr  error
}

// New returns an OperationExecutor over t.
func New(t bridge.Transport) *OperationExecutor {
	return &OperationExecutor{transport: t}
}

// Execute implements Executor. The first call loads the app's connections;
// every later call waits on the same outcome.
func (e *OperationExecutor) Execute(ctx context.Context, service, action string, args []any) (model.OperationResult, error) {
	if err := e.loadConnections(ctx); err != nil {
		return model.OperationResult{}, err
	}
	v, err := e.transport.CallAsync(ctx, service, action, args, nil)
	if err != nil {
		return model.OperationResult{}, err
	}
	return model.OK(v), nil
}

// loadConnections runs at most once. Its outcome, failure included, is
// shared by every caller.
func (e *OperationExecutor) loadConnections(ctx context.Context) error {
	e.loadOnce.Do(func() {
		lctx := context.WithoutCancel(ctx)
		if _, err := e.transport.CallAsync(lctx, ClientPlugin, ActionLoadConnections, []any{}, nil); err != nil {
			e.loadErr = fmt.Errorf("load connections: %w", err)
			return
		}
		if _, err := e.transport.CallAsync(lctx, ClientPlugin, ActionResolveCompositions, []any{}, nil); err != nil {
			e.loadErr = fmt.Errorf("resolve composite connections: %w", err)
		}
	})
	return e.loadErr
}
