// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"regexp"
	"strings"

	"powerdata/cli/internal/dataclient"
	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/provider"
	"powerdata/cli/internal/query"
	"powerdata/cli/internal/telemetry"

	"golang.org/x/sync/singleflight"
)

// Operation names reported for Dataverse requests.
const (
	DataverseCreate           = "dataverseDataOperation.createRecordAsync"
	DataverseUpdate           = "dataverseDataOperation.updateRecordAsync"
	DataverseDelete           = "dataverseDataOperation.deleteRecordAsync"
	DataverseRetrieve         = "dataverseDataOperation.retrieveRecordAsync"
	DataverseRetrieveMultiple = "dataverseDataOperation.retrieveMultipleRecordsAsync"
)

const (
	// DefaultMaxPageSize is used when a read does not set one.
	DefaultMaxPageSize = 500

	dataverseAPIPath = "api/data/v9.0/"
	nextLinkKey      = "@odata.nextLink"
)

var skipTokenRe = regexp.MustCompile(`(?i)[?&]\$?skiptoken=([^&#]+)`)

// Dataverse executes operations against Dataverse tables. Table descriptors
// come from the host's data-source configs rather than the app manifest.
type Dataverse struct {
	clients Clients
	log     *telemetry.Log

	group singleflight.Group
	refs  refCache
}

// NewDataverse returns a Dataverse executor.
func NewDataverse(clients Clients, log *telemetry.Log) *Dataverse {
	return &Dataverse{clients: clients, log: log}
}

// CreateRecord POSTs data to the table's entity set.
func (d *Dataverse) CreateRecord(ctx context.Context, table string, data map[string]any) model.OperationResult {
	return d.run(ctx, table, "", errors.CreateFailed, func(dc provider.DataClient, url string, rc *model.RequestContext) model.OperationResult {
		rc.OperationName = DataverseCreate
		return strip(dc.CreateData(ctx, url, dataclient.DataverseAPIID, table, bodyOf(data), rc))
	})
}

// UpdateRecord PATCHes the record id.
func (d *Dataverse) UpdateRecord(ctx context.Context, table, id string, data map[string]any) model.OperationResult {
	return d.run(ctx, table, "("+id+")", errors.UpdateFailed, func(dc provider.DataClient, url string, rc *model.RequestContext) model.OperationResult {
		rc.OperationName = DataverseUpdate
		return strip(dc.UpdateData(ctx, url, dataclient.DataverseAPIID, table, bodyOf(data), rc))
	})
}

// DeleteRecord deletes the record id.
func (d *Dataverse) DeleteRecord(ctx context.Context, table, id string) model.OperationResult {
	return d.run(ctx, table, "("+id+")", errors.DeleteFailed, func(dc provider.DataClient, url string, rc *model.RequestContext) model.OperationResult {
		rc.OperationName = DataverseDelete
		return strip(dc.DeleteData(ctx, url, dataclient.DataverseAPIID, table, rc))
	})
}

// RetrieveRecord reads the record id.
func (d *Dataverse) RetrieveRecord(ctx context.Context, table, id string, opts *query.Options) model.OperationResult {
	headers := preferHeaders(opts)
	suffix := "(" + id + ")" + query.Encode(opts)
	return d.run(ctx, table, suffix, errors.RetrieveFailed, func(dc provider.DataClient, url string, rc *model.RequestContext) model.OperationResult {
		rc.OperationName = DataverseRetrieve
		return strip(dc.RetrieveData(ctx, url, dataclient.DataverseAPIID, table, model.MethodGet, headers, nil, rc))
	})
}

// RetrieveMultipleRecords reads one page of the table. The result data is
// the page's value array and SkipToken continues to the next page.
func (d *Dataverse) RetrieveMultipleRecords(ctx context.Context, table string, opts *query.Options) model.OperationResult {
	headers := preferHeaders(opts)
	return d.run(ctx, table, query.Encode(opts), errors.RetrieveMultipleFailed, func(dc provider.DataClient, url string, rc *model.RequestContext) model.OperationResult {
		rc.OperationName = DataverseRetrieveMultiple
		res := dc.RetrieveData(ctx, url, dataclient.DataverseAPIID, table, model.MethodGet, headers, nil, rc)
		page, _ := res.Data.(map[string]any)
		out := model.OperationResult{Success: res.Success, Data: []any{}, Error: res.Error}
		if v := page["value"]; truthy(v) {
			out.Data = v
		}
		if link, ok := page[nextLinkKey].(string); ok {
			out.SkipToken = ExtractSkipToken(link)
		}
		return out
	})
}

type dataverseOp func(dc provider.DataClient, url string, rc *model.RequestContext) model.OperationResult

// run resolves the client and the table, builds the request URL and hands
// off to op. Failures before the request become friendly results.
func (d *Dataverse) run(ctx context.Context, table, suffix, friendly string, op dataverseOp) model.OperationResult {
	dc, err := d.dataClient(ctx)
	if err != nil {
		return errors.Response(err, friendly)
	}
	info, err := d.tableInfo(ctx, table)
	if err != nil {
		return errors.Response(err, friendly)
	}
	base, err := instanceURL(info)
	if err != nil {
		return errors.Response(err, friendly)
	}
	rc := &model.RequestContext{DatasetName: info.DatasetName, IsDataverseOperation: true}
	return op(dc, base+dataverseAPIPath+table+suffix, rc)
}

func (d *Dataverse) dataClient(ctx context.Context) (provider.DataClient, error) {
	dc, err := d.clients.DataClient(ctx)
	if err != nil {
		d.log.TrackEvent("DataverseDataOperation.DataClientNotAvailable", map[string]any{
			"message": "[DataverseDataOperation] Data client is not available",
		})
		return nil, err
	}
	return dc, nil
}

// instanceURL returns the environment URL with a trailing slash.
func instanceURL(info model.DataSourceInfo) (string, error) {
	var u string
	if info.LinkedEnvironmentMetadata != nil {
		u = info.LinkedEnvironmentMetadata.InstanceURL
	}
	if u == "" {
		return "", errors.New(errors.DataClientInitFailed, "No instanceUrl found for Dataverse table.")
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u, nil
}

func preferHeaders(opts *query.Options) map[string]string {
	size := DefaultMaxPageSize
	if opts != nil && opts.MaxPageSize != nil {
		size = *opts.MaxPageSize
	}
	return map[string]string{
		"Prefer": "odata.maxpagesize=" + itoa(size) + ",odata.include-annotations=*",
	}
}

// ExtractSkipToken returns the decoded $skiptoken of an @odata.nextLink, or
// "" when there is none.
func ExtractSkipToken(nextLink string) string {
	if strings.TrimSpace(nextLink) == "" {
		return ""
	}
	m := skipTokenRe.FindStringSubmatch(nextLink)
	if m == nil {
		return ""
	}
	return query.UnescapeComponent(m[1])
}

// strip keeps only the outcome fields of a data client result.
func strip(res model.OperationResult) model.OperationResult {
	return model.OperationResult{Success: res.Success, Data: res.Data, Error: res.Error}
}

// bodyOf keeps a nil map from reaching the client as a typed nil.
func bodyOf(data map[string]any) any {
	if data == nil {
		return nil
	}
	return data
}
