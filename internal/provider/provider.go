// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package provider lazily constructs and memoizes the data and metadata
// clients shared by every data operation.
package provider

import (
	"context"
	"sync"

	"powerdata/cli/internal/dataclient"
	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/executor"
	"powerdata/cli/internal/metadata"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/telemetry"

	"golang.org/x/sync/singleflight"
)

// DataClient performs data requests against a target API.
type DataClient interface {
	CreateData(ctx context.Context, url, apiID, table string, body any, rc *model.RequestContext) model.OperationResult
	UpdateData(ctx context.Context, url, apiID, table string, body any, rc *model.RequestContext) model.OperationResult
	DeleteData(ctx context.Context, url, apiID, table string, rc *model.RequestContext) model.OperationResult
	RetrieveData(ctx context.Context, url, apiID, table, method string, headers map[string]string, body any, rc *model.RequestContext) model.OperationResult
}

// MetadataClient reads app configuration from the host.
type MetadataClient = metadata.Reader

// Factories build the clients. Nil fields use the default constructors.
type Factories struct {
	Data     func(ctx context.Context) (DataClient, error)
	Metadata func(ctx context.Context) (MetadataClient, error)
}

// Provider memoizes one DataClient and one MetadataClient.
type Provider struct {
	factories Factories
	log       *telemetry.Log

	group    singleflight.Group
	mu       sync.Mutex
	data     DataClient
	metadata MetadataClient
}

// New returns a Provider building default clients over exec.
func New(exec executor.Executor, log *telemetry.Log) *Provider {
	return NewWithFactories(Factories{
		Data: func(context.Context) (DataClient, error) {
			return dataclient.New(exec, log), nil
		},
		Metadata: func(context.Context) (MetadataClient, error) {
			return metadata.New(exec, log), nil
		},
	}, log)
}

// NewWithFactories returns a Provider using custom factories.
func NewWithFactories(f Factories, log *telemetry.Log) *Provider {
	return &Provider{factories: f, log: log}
}

// DataClient returns the memoized data client, constructing it on first use.
// Concurrent first calls share one construction. Construction failures are
// not memoized.
func (p *Provider) DataClient(ctx context.Context) (DataClient, error) {
	p.mu.Lock()
	if p.data != nil {
		defer p.mu.Unlock()
		return p.data, nil
	}
	p.mu.Unlock()

	v, err, _ := p.group.Do("data", func() (any, error) {
		p.mu.Lock()
		if p.data != nil {
			defer p.mu.Unlock()
			return p.data, nil
		}
		p.mu.Unlock()

		c, err := p.factories.Data(ctx)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, p.log.Raise(errors.New(errors.DataClientNotInitialized, ""))
		}
		p.mu.Lock()
		p.data = c
		p.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, p.log.Raise(errors.Wrap(errors.DataClientInitFailed, err))
	}
	return v.(DataClient), nil
}

// MetadataClient returns the memoized metadata client.
func (p *Provider) MetadataClient(ctx context.Context) (MetadataClient, error) {
	p.mu.Lock()
	if p.metadata != nil {
		defer p.mu.Unlock()
		return p.metadata, nil
	}
	p.mu.Unlock()

	v, err, _ := p.group.Do("metadata", func() (any, error) {
		p.mu.Lock()
		if p.metadata != nil {
			defer p.mu.Unlock()
			return p.metadata, nil
		}
		p.mu.Unlock()

		c, err := p.factories.Metadata(ctx)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, p.log.Raise(errors.New(errors.MetadataClientNotInitialized, ""))
		}
		p.mu.Lock()
		p.metadata = c
		p.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, p.log.Raise(errors.Wrap(errors.MetadataClientInitFailed, err))
	}
	return v.(MetadataClient), nil
}

// Reset drops both clients; the next access constructs new ones. Calls
// already holding a client keep using it.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = nil
	p.metadata = nil
}
