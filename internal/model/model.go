// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model defines the data structures shared by the runtime packages:
// operation results, data-source descriptors, connection and database
// references, and per-call request context. The types are transport-agnostic
// and carry JSON tags matching the host's payload casing.
package model

// DataSourceType names the backend that owns a table.
type DataSourceType string

const (
	// Dataverse is the platform's native tabular store.
	Dataverse DataSourceType = "Dataverse"
	// Connector is a protocol-described external API.
	Connector DataSourceType = "Connector"
)

// HTTP methods used toward the host HTTP plugin.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodPatch  = "PATCH"
	MethodDelete = "DELETE"
)

// ErrorInfo describes a failed operation.
type ErrorInfo struct {
	Message   string `json:"message"`
	Status    int    `json:"status,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (e *ErrorInfo) Error() string { return e.Message }

// OperationResult is the uniform outcome of every data operation.
// Success=false implies Error is set.
type OperationResult struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	SkipToken string     `json:"skipToken,omitempty"`
}

// OK builds a successful result.
func OK(data any) OperationResult {
	return OperationResult{Success: true, Data: data}
}

// Fail builds a failed result with the given message.
func Fail(message string, data any) OperationResult {
	return OperationResult{Success: false, Data: data, Error: &ErrorInfo{Message: message}}
}

// ResultError carries an OperationResult through an error return so that a
// boundary can hand it back unchanged instead of re-wrapping it.
type ResultError struct {
	Result OperationResult
}

func (e *ResultError) Error() string {
	if e.Result.Error != nil && e.Result.Error.Message != "" {
		return e.Result.Error.Message
	}
	return "operation failed"
}

// ParamSpec declares one parameter of a connector operation.
type ParamSpec struct {
	Name     string `json:"name"`
	In       string `json:"in"` // path|query|header|body
	Required bool   `json:"required"`
	Type     string `json:"type,omitempty"`
}

// ResponseType declares the expected JSON shape for one status code.
type ResponseType struct {
	Type string `json:"type"` // array|object
}

// APISpec describes a connector operation.
type APISpec struct {
	Path         string                  `json:"path"`
	Method       string                  `json:"method"`
	Parameters   []ParamSpec             `json:"parameters"`
	ResponseInfo map[string]ResponseType `json:"responseInfo,omitempty"`
}

// LinkedEnvironmentMetadata locates a Dataverse environment.
type LinkedEnvironmentMetadata struct {
	ResourceID     string `json:"resourceId"`
	FriendlyName   string `json:"friendlyName"`
	UniqueName     string `json:"uniqueName"`
	DomainName     string `json:"domainName"`
	Version        string `json:"version"`
	InstanceURL    string `json:"instanceUrl"`
	InstanceAPIURL string `json:"instanceApiUrl"`
	BaseLanguage   int    `json:"baseLanguage"`
	InstanceState  string `json:"instanceState"`
	CreatedTime    string `json:"createdTime"`
	PlatformSku    string `json:"platformSku"`
}

// DataSourceInfo is the per-table descriptor supplied by the app manifest
// (routing fields) or derived from host metadata (Dataverse fields).
type DataSourceInfo struct {
	TableID        string             `json:"tableId"`
	Version        string             `json:"version,omitempty"`
	PrimaryKey     string             `json:"primaryKey,omitempty"`
	DataSourceType DataSourceType     `json:"dataSourceType,omitempty"`
	APIs           map[string]APISpec `json:"apis,omitempty"`

	DatasetName               string                     `json:"datasetName,omitempty"`
	ReferenceType             string                     `json:"referenceType,omitempty"`
	LinkedEnvironmentMetadata *LinkedEnvironmentMetadata `json:"linkedEnvironmentMetadata,omitempty"`
	EntitySetName             string                     `json:"entitySetName,omitempty"`
	LogicalName               string                     `json:"logicalName,omitempty"`
	IsHidden                  bool                       `json:"isHidden,omitempty"`
}

// DataSourcesInfo maps table names to their descriptors.
type DataSourcesInfo map[string]DataSourceInfo

// ConnectionReference binds a table to a configured connector instance.
type ConnectionReference struct {
	APIID               string `json:"apiId"`
	RuntimeURL          string `json:"runtimeUrl"`
	ConnectionName      string `json:"connectionName"`
	DatasetName         string `json:"datasetName,omitempty"`
	DatasetNameOverride string `json:"datasetNameOverride,omitempty"`
}

// OverrideValues mirrors the environment-variable override block of a
// database reference.
type OverrideValues struct {
	Status                  string `json:"status"`
	EnvironmentVariableName string `json:"environmentVariableName"`
}

// DatabaseDetails describes the environment behind a database reference.
type DatabaseDetails struct {
	ReferenceType             string                    `json:"referenceType"`
	EnvironmentName           string                    `json:"environmentName"`
	OverrideValues            OverrideValues            `json:"overrideValues"`
	LinkedEnvironmentMetadata LinkedEnvironmentMetadata `json:"linkedEnvironmentMetadata"`
}

// DatabaseTable is one table entry inside a database reference.
type DatabaseTable struct {
	EntitySetName string `json:"entitySetName"`
	LogicalName   string `json:"logicalName"`
	IsHidden      bool   `json:"isHidden"`
}

// DatabaseReference groups the Dataverse tables of one environment.
type DatabaseReference struct {
	DatabaseDetails DatabaseDetails          `json:"databaseDetails"`
	DataSources     map[string]DatabaseTable `json:"dataSources"`
}

// RequestContext is created fresh for every data client call.
type RequestContext struct {
	OperationName        string
	DatasetName          string
	BatchID              string
	IsDataverseOperation bool
	IsExecuteAsync       bool
	ResponseInfo         map[string]ResponseType
}
