// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package model

// Operation is the payload of executeAsync. Exactly one of the two requests
// is expected; a connector operation takes precedence when routing.
type Operation struct {
	ConnectorOperation *ConnectorOperation `json:"connectorOperation,omitempty"`
	DataverseRequest   *DataverseRequest   `json:"dataverseRequest,omitempty"`
}

// ConnectorOperation invokes a declared connector API.
//
// Parameters is a string (bound to the first required parameter), a []any
// (bound by position) or a map[string]any (bound by normalized name).
type ConnectorOperation struct {
	TableName     string `json:"tableName"`
	OperationName string `json:"operationName"`
	Parameters    any    `json:"parameters,omitempty"`
}

// DataverseRequest invokes a custom Dataverse action.
type DataverseRequest struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters,omitempty"`
}
