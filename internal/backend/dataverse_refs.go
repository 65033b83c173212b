// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"sync"

	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/model"
)

const (
	// DefaultEnvironment keys the single database reference built from the
	// host's data-source configs.
	DefaultEnvironment = "default.cds"

	defaultDataverseVersion = "9.2"
	defaultBaseLanguage     = 1033
)

var originRe = regexp.MustCompile(`^(https?://[^/]+)`)

type refCache struct {
	mu   sync.Mutex
	refs map[string]model.DatabaseReference
}

// DatabaseReferences returns the Dataverse environments and their tables,
// loading them from the host once. An empty load is not cached.
func (d *Dataverse) DatabaseReferences(ctx context.Context) (map[string]model.DatabaseReference, error) {
	d.refs.mu.Lock()
	if d.refs.refs != nil {
		defer d.refs.mu.Unlock()
		return d.refs.refs, nil
	}
	d.refs.mu.Unlock()

	v, err, _ := d.group.Do("refs", func() (any, error) {
		d.refs.mu.Lock()
		if d.refs.refs != nil {
			defer d.refs.mu.Unlock()
			return d.refs.refs, nil
		}
		d.refs.mu.Unlock()

		refs := d.loadReferences(ctx)
		if len(refs) == 0 {
			return nil, errors.New(errors.DataSourceNotFound, "Failed to load Dataverse database references from runtime.")
		}
		d.refs.mu.Lock()
		d.refs.refs = refs
		d.refs.mu.Unlock()
		return refs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]model.DatabaseReference), nil
}

// loadReferences builds the references from the data-source configs. Any
// failure is tracked and reported as no references.
func (d *Dataverse) loadReferences(ctx context.Context) map[string]model.DatabaseReference {
	configs, err := d.dataSourceConfigs(ctx)
	if err != nil {
		d.log.TrackEvent("DataverseDataOperation.FailedToLoadDatabaseReferences", map[string]any{
			"message": "[DataverseDataOperation] Failed to load database references from runtime",
			"error":   err.Error(),
		})
		return nil
	}
	if len(configs) == 0 {
		return nil
	}

	refs := make(map[string]model.DatabaseReference)
	for _, key := range slices.Sorted(maps.Keys(configs)) {
		cfg, _ := configs[key].(map[string]any)
		runtimeURL := stringField(cfg, "runtimeUrl")

		ref, ok := refs[DefaultEnvironment]
		if !ok {
			version := stringField(cfg, "version")
			if version == "" {
				version = defaultDataverseVersion
			}
			ref = model.DatabaseReference{
				DatabaseDetails: model.DatabaseDetails{
					ReferenceType:   "Environmental",
					EnvironmentName: DefaultEnvironment,
					OverrideValues:  model.OverrideValues{Status: "NotSpecified"},
					LinkedEnvironmentMetadata: model.LinkedEnvironmentMetadata{
						Version:        version,
						InstanceURL:    originOf(runtimeURL),
						InstanceAPIURL: runtimeURL,
						BaseLanguage:   defaultBaseLanguage,
						InstanceState:  "Ready",
					},
				},
				DataSources: make(map[string]model.DatabaseTable),
			}
			refs[DefaultEnvironment] = ref
		}

		entitySet, logical := stringField(cfg, "entitySetName"), stringField(cfg, "logicalName")
		name := entitySet
		if name == "" {
			name = logical
		}
		ref.DataSources[name] = model.DatabaseTable{EntitySetName: entitySet, LogicalName: logical}
	}
	return refs
}

func (d *Dataverse) dataSourceConfigs(ctx context.Context) (map[string]any, error) {
	mc, err := d.clients.MetadataClient(ctx)
	if err != nil {
		d.log.TrackEvent("DataverseDataOperation.MetadataClientNotAvailable", map[string]any{
			"message": "[DataverseDataOperation] Metadata client is not available",
		})
		return nil, err
	}
	res, err := mc.AppDataSourceConfigs(ctx)
	if err != nil {
		return nil, err
	}
	data, _ := res.Data.(map[string]any)
	if !res.Success || data == nil {
		return nil, nil
	}
	return data, nil
}

// tableInfo returns the descriptor of a Dataverse table from the database
// references. Every failure is reported as DataSourceNotFound.
func (d *Dataverse) tableInfo(ctx context.Context, table string) (model.DataSourceInfo, error) {
	info, err := d.lookupTable(ctx, table)
	if err != nil {
		d.log.TrackEvent("DataverseDataOperation.GetDataSourceInfoFailed", map[string]any{
			"message":   "[DataverseDataOperation] Failed to get Dataverse data source info",
			"tableName": table,
			"error":     err.Error(),
		})
		return model.DataSourceInfo{}, errors.Newf(errors.DataSourceNotFound,
			"Failed to get Dataverse data source info for table '%s': %s", table, errors.Message(err))
	}
	return info, nil
}

func (d *Dataverse) lookupTable(ctx context.Context, table string) (model.DataSourceInfo, error) {
	refs, err := d.DatabaseReferences(ctx)
	if err != nil {
		return model.DataSourceInfo{}, err
	}
	for _, key := range slices.Sorted(maps.Keys(refs)) {
		db := refs[key]
		ds, ok := db.DataSources[table]
		if !ok {
			continue
		}
		env := db.DatabaseDetails.LinkedEnvironmentMetadata
		return model.DataSourceInfo{
			DatasetName:               db.DatabaseDetails.EnvironmentName,
			ReferenceType:             db.DatabaseDetails.ReferenceType,
			LinkedEnvironmentMetadata: &env,
			EntitySetName:             ds.EntitySetName,
			LogicalName:               ds.LogicalName,
			IsHidden:                  ds.IsHidden,
			TableID:                   ds.LogicalName,
			APIs:                      map[string]model.APISpec{},
		}, nil
	}

	msg := fmt.Sprintf("No Dataverse data source found for table: %s", table)
	d.log.TrackEvent("DataverseDataOperation.DataSourceNotFound", map[string]any{
		"message":   msg,
		"tableName": table,
	})
	return model.DataSourceInfo{}, errors.New(errors.DataSourceNotFound, msg)
}

// originOf returns scheme://host of a runtime URL, or the URL itself when it
// has no such prefix.
func originOf(runtimeURL string) string {
	if m := originRe.FindStringSubmatch(runtimeURL); m != nil {
		return m[1]
	}
	return runtimeURL
}
