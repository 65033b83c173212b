// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package metadata fetches the app's connection and data-source configuration
// from the host. Top-level keys of both blobs are lower-cased since the host's
// key casing is not reliable. Results are cached for the life of a Client.
package metadata

import (
	"context"
	"strings"
	"sync"

	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/executor"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/telemetry"

	"golang.org/x/sync/singleflight"
)

// Host plugin and actions serving configuration.
const (
	ServiceClient           = "AppPowerAppsClientPlugin"
	ActionConnectionConfigs = "loadAppConnectionsAsync_v2"
	ActionDataSourceConfigs = "getAppCdsDataSourceConfigsAsync"
)

// Reader is the metadata client contract.
type Reader interface {
	// AppConnectionConfigs returns connection references keyed by
	// lower-cased table name.
	AppConnectionConfigs(ctx context.Context) (model.OperationResult, error)
	// AppDataSourceConfigs returns Dataverse data-source configs keyed by
	// lower-cased environment key.
	AppDataSourceConfigs(ctx context.Context) (model.OperationResult, error)
}

// Client implements Reader.
type Client struct {
	exec executor.Executor
	log  *telemetry.Log

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]map[string]any
}

// New returns a Client over exec.
func New(exec executor.Executor, log *telemetry.Log) *Client {
	return &Client{exec: exec, log: log, cache: make(map[string]map[string]any)}
}

// AppConnectionConfigs implements Reader.
func (c *Client) AppConnectionConfigs(ctx context.Context) (model.OperationResult, error) {
	data, err := c.load(ctx, ActionConnectionConfigs)
	if err != nil {
		return model.OperationResult{}, c.log.Raise(errors.Wrap(errors.ConnectionConfigFetchFailed, err))
	}
	return model.OK(data), nil
}

// AppDataSourceConfigs implements Reader.
func (c *Client) AppDataSourceConfigs(ctx context.Context) (model.OperationResult, error) {
	data, err := c.load(ctx, ActionDataSourceConfigs)
	if err != nil {
		return model.OperationResult{}, c.log.Raise(errors.Wrap(errors.DataSourceConfigFetchFailed, err))
	}
	return model.OK(data), nil
}

// load returns the cached blob for action, fetching it on first use.
// Concurrent first calls share one host round trip; failures are not cached.
func (c *Client) load(ctx context.Context, action string) (map[string]any, error) {
	c.mu.Lock()
	if data, ok := c.cache[action]; ok {
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(action, func() (any, error) {
		c.mu.Lock()
		cached, ok := c.cache[action]
		c.mu.Unlock()
		if ok {
			return cached, nil
		}
		data, err := c.fetch(ctx, action)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[action] = data
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func (c *Client) fetch(ctx context.Context, action string) (map[string]any, error) {
	res, err := c.exec.Execute(ctx, ServiceClient, action, []any{})
	if err != nil {
		return nil, c.log.Raise(errors.New(errors.InvalidMetadataResponse, ""))
	}
	raw, ok := res.Data.(map[string]any)
	if !ok {
		return nil, c.log.Raise(errors.New(errors.InvalidMetadataResponse, ""))
	}
	return lowerKeys(raw), nil
}

func lowerKeys(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}
