// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"strings"
	"sync"

	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/provider"
	"powerdata/cli/internal/query"
	"powerdata/cli/internal/telemetry"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

// Operation names reported for connector requests.
const (
	ConnectorCreate           = "connectorDataOperation.createRecordAsync"
	ConnectorUpdate           = "connectorDataOperation.updateRecordAsync"
	ConnectorDelete           = "connectorDataOperation.deleteRecordAsync"
	ConnectorRetrieve         = "connectorDataOperation.retrieveRecordAsync"
	ConnectorRetrieveMultiple = "connectorDataOperation.retrieveMultipleRecordsAsync"

	connectorOpPrefix = "connectorDataOperation."
)

// Connector executes operations against connector-backed tables. Each table
// is bound to a connection reference from the host's connection configs.
type Connector struct {
	clients Clients
	sources Sources
	log     *telemetry.Log

	group singleflight.Group
	mu    sync.Mutex
	conns map[string]model.ConnectionReference
}

// NewConnector returns a Connector. Both clients and sources are required.
func NewConnector(clients Clients, sources Sources, log *telemetry.Log) (*Connector, error) {
	if clients == nil {
		return nil, log.Raise(errors.New(errors.ClientProviderNotAvailable, ""))
	}
	if sources == nil {
		return nil, log.Raise(errors.New(errors.DataSourceServiceNotAvailable, ""))
	}
	return &Connector{clients: clients, sources: sources, log: log}, nil
}

// CreateRecord POSTs data to the table's items.
func (c *Connector) CreateRecord(ctx context.Context, table string, data map[string]any) model.OperationResult {
	dc, ref, err := c.clientAndConnection(ctx, table)
	if err != nil {
		return errors.Response(err, errors.CreateFailed)
	}
	url, err := c.tableURL(ctx, table, ref, "", true)
	if err != nil {
		return errors.Response(err, errors.CreateFailed)
	}
	return dc.CreateData(ctx, url, ref.APIID, table, bodyOf(data), &model.RequestContext{OperationName: ConnectorCreate})
}

// UpdateRecord PATCHes the item id.
func (c *Connector) UpdateRecord(ctx context.Context, table, id string, data map[string]any) model.OperationResult {
	dc, ref, err := c.clientAndConnection(ctx, table)
	if err != nil {
		return errors.Response(err, errors.UpdateFailed)
	}
	url, err := c.tableURL(ctx, table, ref, "/"+id, true)
	if err != nil {
		return errors.Response(err, errors.UpdateFailed)
	}
	return dc.UpdateData(ctx, url, ref.APIID, table, bodyOf(data), &model.RequestContext{OperationName: ConnectorUpdate})
}

// DeleteRecord deletes the item id.
func (c *Connector) DeleteRecord(ctx context.Context, table, id string) model.OperationResult {
	dc, ref, err := c.clientAndConnection(ctx, table)
	if err != nil {
		return errors.Response(err, errors.DeleteFailed)
	}
	url, err := c.tableURL(ctx, table, ref, "/"+id, true)
	if err != nil {
		return errors.Response(err, errors.DeleteFailed)
	}
	return dc.DeleteData(ctx, url, ref.APIID, table, &model.RequestContext{OperationName: ConnectorDelete})
}

// RetrieveRecord reads the item id.
func (c *Connector) RetrieveRecord(ctx context.Context, table, id string, opts *query.Options) model.OperationResult {
	dc, ref, err := c.clientAndConnection(ctx, table)
	if err != nil {
		return errors.Response(err, errors.RetrieveFailed)
	}
	url, err := c.tableURL(ctx, table, ref, "/"+id+query.Encode(opts), true)
	if err != nil {
		return errors.Response(err, errors.RetrieveFailed)
	}
	return dc.RetrieveData(ctx, url, ref.APIID, table, model.MethodGet, nil, nil, &model.RequestContext{OperationName: ConnectorRetrieve})
}

// RetrieveMultipleRecords lists the table's items. The query string is sent
// as built, without the extra escaping of single-item URLs.
func (c *Connector) RetrieveMultipleRecords(ctx context.Context, table string, opts *query.Options) model.OperationResult {
	dc, ref, err := c.clientAndConnection(ctx, table)
	if err != nil {
		return errors.Response(err, errors.RetrieveMultipleFailed)
	}
	url, err := c.tableURL(ctx, table, ref, query.Encode(opts), false)
	if err != nil {
		return errors.Response(err, errors.RetrieveMultipleFailed)
	}
	return dc.RetrieveData(ctx, url, ref.APIID, table, model.MethodGet, nil, nil, &model.RequestContext{OperationName: ConnectorRetrieveMultiple})
}

// Execute runs a declared connector operation.
func (c *Connector) Execute(ctx context.Context, op model.Operation) model.OperationResult {
	res, err := c.execute(ctx, op)
	if err != nil {
		return errors.Response(err, errors.ExecuteFailed)
	}
	return res
}

func (c *Connector) execute(ctx context.Context, op model.Operation) (model.OperationResult, error) {
	co := op.ConnectorOperation
	if co == nil {
		return model.OperationResult{}, errors.Request(errors.InvalidRequest, errors.MissingConnectorOperation)
	}
	info, err := c.sources.DataSource(ctx, co.TableName)
	if err != nil {
		return model.OperationResult{}, err
	}
	dc, ref, err := c.clientAndConnection(ctx, co.TableName)
	if err != nil {
		return model.OperationResult{}, err
	}

	url, err := operationURL(co, ref, info)
	if err != nil {
		return model.OperationResult{}, err
	}
	api := info.APIs[co.OperationName]
	body, err := operationBody(co, api.Parameters)
	if err != nil {
		return model.OperationResult{}, err
	}
	rc := &model.RequestContext{
		OperationName:  connectorOpPrefix + co.OperationName,
		IsExecuteAsync: true,
		ResponseInfo:   api.ResponseInfo,
	}
	method := httpMethod(url, api)
	return dc.RetrieveData(ctx, url, ref.APIID, co.TableName, method, operationHeaders(co, api.Parameters), body, rc), nil
}

// httpMethod picks POST for SQL stored procedures, then the declared
// method, then GET.
func httpMethod(url string, api model.APISpec) string {
	if strings.Contains(url, "apim/sql") {
		return model.MethodPost
	}
	if api.Method != "" {
		return api.Method
	}
	return model.MethodGet
}

// clientAndConnection loads the connection references and returns the data
// client with the table's reference.
func (c *Connector) clientAndConnection(ctx context.Context, table string) (provider.DataClient, model.ConnectionReference, error) {
	conns, err := c.connections(ctx)
	if err != nil {
		return nil, model.ConnectionReference{}, err
	}
	dc, err := c.clients.DataClient(ctx)
	if err != nil {
		return nil, model.ConnectionReference{}, err
	}
	ref, ok := conns[table]
	if !ok {
		ref, ok = conns[strings.ToLower(table)]
	}
	if !ok {
		return nil, model.ConnectionReference{}, errors.New(errors.ConnectionReferenceNotFound, table)
	}
	return dc, ref, nil
}

// connections returns the cached connection references, fetching them on
// first use. Fetch failures are not cached.
func (c *Connector) connections(ctx context.Context) (map[string]model.ConnectionReference, error) {
	c.mu.Lock()
	if c.conns != nil {
		defer c.mu.Unlock()
		return c.conns, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("connections", func() (any, error) {
		c.mu.Lock()
		if c.conns != nil {
			defer c.mu.Unlock()
			return c.conns, nil
		}
		c.mu.Unlock()

		mc, err := c.clients.MetadataClient(ctx)
		if err != nil {
			return nil, err
		}
		res, err := mc.AppConnectionConfigs(ctx)
		if err != nil {
			return nil, err
		}
		conns, err := decodeConnections(res.Data)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.conns = conns
		c.mu.Unlock()
		return conns, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]model.ConnectionReference), nil
}

func decodeConnections(data any) (map[string]model.ConnectionReference, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidMetadataResponse, err)
	}
	conns := make(map[string]model.ConnectionReference)
	if err := json.Unmarshal(raw, &conns); err != nil {
		return nil, errors.Wrap(errors.InvalidMetadataResponse, err)
	}
	return conns, nil
}

// tableURL builds the items URL of a table. When encode is set, options
// keep their first character and the rest is escaped as a URI component.
func (c *Connector) tableURL(ctx context.Context, table string, ref model.ConnectionReference, options string, encode bool) (string, error) {
	info, err := c.sources.DataSource(ctx, table)
	if err != nil {
		return "", err
	}
	family := FamilyOf(ref.APIID)

	var dataset string
	if ref.DatasetName != "" {
		switch family {
		case FamilySQL:
			dataset = ref.DatasetNameOverride
		case FamilySharePoint:
			dataset = query.EscapeComponent(query.EscapeComponent(ref.DatasetName))
		default:
			dataset = query.EscapeComponent(ref.DatasetName)
		}
	}
	tableID := info.TableID
	if family == FamilySQL {
		tableID = query.EscapeComponent(query.EscapeComponent(tableID))
	}
	if encode && options != "" {
		options = options[:1] + query.EscapeComponent(options[1:])
	}

	if dataset == "" {
		return ref.RuntimeURL + "/" + ref.ConnectionName + "/tables/" + tableID + "/items" + options, nil
	}
	return ref.RuntimeURL + "/" + ref.ConnectionName + versionSegment(info.Version) +
		"datasets/" + dataset + "/tables/" + tableID + "/items" + options, nil
}

// versionSegment renders "/<version>/" or "/".
func versionSegment(version string) string {
	if version == "" {
		return "/"
	}
	return "/" + version + "/"
}
