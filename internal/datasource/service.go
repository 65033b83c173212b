// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package datasource resolves table names to their data-source descriptors.
// The set of data sources is loaded once from an InfoProvider and kept for
// the life of the Service.
package datasource

import (
	"context"
	"maps"
	"sync"

	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/telemetry"

	"golang.org/x/sync/singleflight"
)

// InfoProvider supplies the app's data-sources info.
type InfoProvider interface {
	DataSourcesInfo(ctx context.Context) (model.DataSourcesInfo, error)
}

// StaticProvider serves a fixed DataSourcesInfo.
type StaticProvider struct {
	info model.DataSourcesInfo
}

// NewStaticProvider returns a provider for info. A nil info is rejected.
func NewStaticProvider(info model.DataSourcesInfo, log *telemetry.Log) (*StaticProvider, error) {
	if info == nil {
		return nil, log.Raise(errors.New(errors.DataSourcesInfoNotFound, ""))
	}
	return &StaticProvider{info: info}, nil
}

// DataSourcesInfo implements InfoProvider.
func (p *StaticProvider) DataSourcesInfo(ctx context.Context) (model.DataSourcesInfo, error) {
	return p.info, nil
}

// Service caches the data sources of one app session.
type Service struct {
	provider InfoProvider
	log      *telemetry.Log

	group       singleflight.Group
	mu          sync.RWMutex
	initialized bool
	sources     model.DataSourcesInfo
}

// NewService returns an uninitialized Service; it loads on first access.
func NewService(p InfoProvider, log *telemetry.Log) *Service {
	return &Service{provider: p, log: log}
}

// Initialize loads the data sources. A failure leaves the service
// uninitialized so that a later call retries.
func (s *Service) Initialize(ctx context.Context) error {
	_, err, _ := s.group.Do("init", func() (any, error) {
		if s.provider == nil {
			return nil, s.log.Raise(errors.New(errors.InitializationError, errors.DefaultMessage(errors.DataSourcesInfoNotFound)))
		}
		info, err := s.provider.DataSourcesInfo(ctx)
		if err != nil {
			return nil, s.log.Raise(errors.Wrap(errors.InitializationError, err))
		}
		sources := make(model.DataSourcesInfo, len(info))
		maps.Copy(sources, info)

		s.mu.Lock()
		s.sources = sources
		s.initialized = true
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

func (s *Service) ensureInitialized(ctx context.Context) error {
	s.mu.RLock()
	ok := s.initialized
	s.mu.RUnlock()
	if ok {
		return nil
	}
	return s.Initialize(ctx)
}

// UserDataSources returns all data sources.
func (s *Service) UserDataSources(ctx context.Context) (model.DataSourcesInfo, error) {
	if err := s.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sources, nil
}

// DataSource returns the descriptor of name.
func (s *Service) DataSource(ctx context.Context, name string) (model.DataSourceInfo, error) {
	if err := s.ensureInitialized(ctx); err != nil {
		return model.DataSourceInfo{}, err
	}
	s.mu.RLock()
	info, ok := s.sources[name]
	s.mu.RUnlock()
	if !ok {
		return model.DataSourceInfo{}, s.log.Raise(errors.New(errors.DataSourceNotFound, name))
	}
	return info, nil
}

// HasDataSource reports whether name is a known data source.
func (s *Service) HasDataSource(ctx context.Context, name string) (bool, error) {
	if err := s.ensureInitialized(ctx); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sources[name]
	return ok, nil
}
