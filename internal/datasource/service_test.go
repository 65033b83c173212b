// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package datasource

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcProvider struct {
	calls atomic.Int32
	fn    func() (model.DataSourcesInfo, error)
}

func (p *funcProvider) DataSourcesInfo(ctx context.Context) (model.DataSourcesInfo, error) {
	p.calls.Add(1)
	return p.fn()
}

func TestStaticProvider(t *testing.T) {
	_, err := NewStaticProvider(nil, nil)
	require.Error(t, err)
	code, _ := errors.CodeOf(err)
	assert.Equal(t, errors.DataSourcesInfoNotFound, code)

	p, err := NewStaticProvider(model.DataSourcesInfo{"a": {TableID: "a"}}, nil)
	require.NoError(t, err)
	info, err := p.DataSourcesInfo(context.Background())
	require.NoError(t, err)
	assert.Len(t, info, 1)
}

func TestService_LoadsOnce(t *testing.T) {
	p := &funcProvider{fn: func() (model.DataSourcesInfo, error) {
		return model.DataSourcesInfo{
			"accounts": {DataSourceType: model.Dataverse},
			"users":    {DataSourceType: model.Connector, TableID: "users"},
		}, nil
	}}
	s := NewService(p, nil)
	ctx := context.Background()

	info, err := s.DataSource(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "users", info.TableID)

	ok, err := s.HasDataSource(ctx, "accounts")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasDataSource(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := s.UserDataSources(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, int32(1), p.calls.Load())

	_, err = s.DataSource(ctx, "missing")
	require.Error(t, err)
	assert.EqualError(t, err, "Data source not found: missing")
}

func TestService_InitFailureRetries(t *testing.T) {
	fail := true
	p := &funcProvider{fn: func() (model.DataSourcesInfo, error) {
		if fail {
			return nil, stderrors.New("no manifest")
		}
		return model.DataSourcesInfo{"a": {}}, nil
	}}
	s := NewService(p, nil)

	_, err := s.DataSource(context.Background(), "a")
	require.Error(t, err)
	code, _ := errors.CodeOf(err)
	assert.Equal(t, errors.InitializationError, code)
	assert.EqualError(t, err, "Failed to initialize RuntimeDataSourceService: no manifest")

	fail = false
	_, err = s.DataSource(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load())
}
