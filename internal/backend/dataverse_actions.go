// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"fmt"
	"strings"

	"powerdata/cli/internal/dataclient"
	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/query"
)

// ActionGetEntityMetadata reads a table's entity definition.
const ActionGetEntityMetadata = "getEntityMetadata"

// Relationship and attribute expansions of an entity definition.
const (
	expandManyToOne  = "ManyToOneRelationships"
	expandOneToMany  = "OneToManyRelationships"
	expandManyToMany = "ManyToManyRelationships"
	expandAttributes = "Attributes"
)

// Execute runs a Dataverse custom action.
func (d *Dataverse) Execute(ctx context.Context, op model.Operation) model.OperationResult {
	req := op.DataverseRequest
	if req == nil {
		return model.Fail("Dataverse request details are required for Dataverse operations.", nil)
	}

	switch req.Action {
	case ActionGetEntityMetadata:
		table, _ := req.Parameters["tableName"].(string)
		if table == "" {
			return model.Fail("Table name is required for getEntityMetadata action.", nil)
		}
		opts, _ := req.Parameters["options"].(map[string]any)
		return d.entityMetadata(ctx, table, opts)
	default:
		d.log.TrackEvent("DataverseDataOperation.UnsupportedAction", map[string]any{
			"message": "Unsupported Dataverse action: " + req.Action,
		})
		return model.Fail(`Unsupported Dataverse action: "`+req.Action+`"`, nil)
	}
}

func (d *Dataverse) entityMetadata(ctx context.Context, table string, opts map[string]any) model.OperationResult {
	dc, err := d.dataClient(ctx)
	if err != nil {
		return errors.Response(err, errors.ExecuteFailed)
	}
	info, err := d.tableInfo(ctx, table)
	if err != nil {
		return errors.Response(err, errors.ExecuteFailed)
	}
	url, err := metadataURL(info, opts)
	if err != nil {
		return errors.Response(err, errors.ExecuteFailed)
	}
	headers := map[string]string{"Consistency": "Strong"}
	rc := &model.RequestContext{
		OperationName:        DataverseRetrieve,
		DatasetName:          info.DatasetName,
		IsDataverseOperation: true,
	}
	return dc.RetrieveData(ctx, url, dataclient.DataverseAPIID, "EntityDefinitions", model.MethodGet, headers, nil, rc)
}

// metadataURL builds the EntityDefinitions request for info. opts may name
// extra "metadata" properties and a "schema" block selecting relationships
// and columns.
func metadataURL(info model.DataSourceInfo, opts map[string]any) (string, error) {
	if info.LogicalName == "" {
		return "", errors.New(errors.DataClientInitFailed, "No logicalName found for Dataverse table.")
	}
	base, err := instanceURL(info)
	if err != nil {
		return "", err
	}

	var selects []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			selects = append(selects, s)
		}
	}
	if list, ok := opts["metadata"].([]any); ok {
		for _, m := range list {
			add(stringify(m))
		}
	}
	add("LogicalName")

	var expands []string
	schema, _ := opts["schema"].(map[string]any)
	if truthy(schema["manyToOne"]) {
		expands = append(expands, expandManyToOne)
	}
	if truthy(schema["oneToMany"]) {
		expands = append(expands, expandOneToMany)
	}
	if truthy(schema["manyToMany"]) {
		expands = append(expands, expandManyToMany)
	}
	switch cols := schema["columns"].(type) {
	case string:
		if cols == "all" {
			expands = append(expands, expandAttributes)
		}
	case []any:
		if len(cols) > 0 {
			quoted := make([]string, len(cols))
			for i, c := range cols {
				quoted[i] = "'" + stringify(c) + "'"
			}
			expands = append(expands, fmt.Sprintf(
				"%s($filter=Microsoft.Dynamics.CRM.In(PropertyName='LogicalName',PropertyValues=[%s]))",
				expandAttributes, strings.Join(quoted, ",")))
		}
	}

	return fmt.Sprintf("%s%sEntityDefinitions(LogicalName='%s')?%s=%s&%s=%s",
		base, dataverseAPIPath, info.LogicalName,
		query.FormEscape("$select"), query.FormEscape(strings.Join(selects, ",")),
		query.FormEscape("$expand"), query.FormEscape(strings.Join(expands, ","))), nil
}
