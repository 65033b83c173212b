// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package metadata

import (
	"context"

	"powerdata/cli/internal/model"
)

// ReaderFunc resolves the current metadata client.
type ReaderFunc func(ctx context.Context) (Reader, error)

// Operations exposes the metadata surface of the runtime.
type Operations struct {
	reader ReaderFunc
}

// NewOperations returns Operations resolving its client through reader.
func NewOperations(reader ReaderFunc) *Operations {
	return &Operations{reader: reader}
}

// Connections returns the connection configs wrapped in a one-element slice.
func (o *Operations) Connections(ctx context.Context) (model.OperationResult, error) {
	r, err := o.reader(ctx)
	if err != nil {
		return model.OperationResult{}, err
	}
	res, err := r.AppConnectionConfigs(ctx)
	if err != nil {
		return model.OperationResult{}, err
	}
	return wrap(res), nil
}

// ConnectionAPIs returns the data-source configs wrapped in a one-element
// slice. connectionID is accepted for interface compatibility and unused.
func (o *Operations) ConnectionAPIs(ctx context.Context, connectionID string) (model.OperationResult, error) {
	r, err := o.reader(ctx)
	if err != nil {
		return model.OperationResult{}, err
	}
	res, err := r.AppDataSourceConfigs(ctx)
	if err != nil {
		return model.OperationResult{}, err
	}
	return wrap(res), nil
}

func wrap(res model.OperationResult) model.OperationResult {
	data := []any{}
	if res.Data != nil {
		data = []any{res.Data}
	}
	return model.OperationResult{Success: res.Success, Data: data, Error: res.Error}
}
