// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed runtime errors with stable codes for reporting.
// Every error carries a machine-readable Code and a human message built from
// the code's default text plus optional additional information. Components
// raise these errors internally; the public data operations convert them into
// failed OperationResults with Response.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	InitializationFailed          Code = "PDR_INIT_FAILED"
	InvalidXrmInfo                Code = "INVALID_XRM_INFO"
	OperationsNotInitialized      Code = "OPS_NOT_INITIALIZED"
	InvalidOperationExecutor      Code = "INVALID_OPERATION_EXECUTOR"
	DataSourceNotFound            Code = "CONNECTION_NOT_FOUND"
	DuplicateDataSource           Code = "DUPLICATE_DATA_SOURCE"
	InitializationError           Code = "RDSS_INIT_ERROR"
	InvalidDataSource             Code = "INVALID_DATA_SOURCE"
	DataSourcesInfoNotFound       Code = "DATA_SOURCES_INFO_NOT_FOUND"
	DataClientInitFailed          Code = "DATA_CLIENT_INIT_FAILED"
	DataClientNotInitialized      Code = "DATA_CLIENT_NOT_INITIALIZED"
	MetadataClientInitFailed      Code = "METADATA_CLIENT_INIT_FAILED"
	MetadataClientNotInitialized  Code = "METADATA_CLIENT_NOT_INITIALIZED"
	ClientProviderNotAvailable    Code = "CLIENT_PROVIDER_NOT_AVAILABLE"
	ConnectionReferenceNotFound   Code = "CONNECTION_REFERENCE_NOT_FOUND"
	DataClientNotAvailable        Code = "DATA_CLIENT_NOT_AVAILABLE"
	DataSourceServiceNotAvailable Code = "DATA_SOURCE_SERVICE_NOT_AVAILABLE"
	MetadataClientNotAvailable    Code = "METADATA_CLIENT_NOT_AVAILABLE"
	ConnectionConfigFetchFailed   Code = "CONNECTION_CONFIG_FETCH_FAILED"
	DataSourceConfigFetchFailed   Code = "DATA_SOURCE_CONFIG_FETCH_FAILED"
	InvalidMetadataResponse       Code = "INVALID_METADATA_RESPONSE"
	TokenAcquisitionFailed        Code = "TOKEN_ACQUISITION_FAILED"
)

// UnknownErrorMessage is used when nothing better is known.
const UnknownErrorMessage = "An unknown error occurred"

var messages = map[Code]string{
	InitializationFailed:     "Failed to initialize PowerDataRuntime",
	InvalidXrmInfo:           "Xrm info is required",
	OperationsNotInitialized: "PowerDataRuntime is not initialized",

	DataSourceNotFound:  "Data source not found",
	DuplicateDataSource: "Duplicate data source",
	InitializationError: "Failed to initialize RuntimeDataSourceService",
	InvalidDataSource:   "Invalid data source",

	DataSourcesInfoNotFound: "DataSourcesInfo must be provided to initialize the singleton instance.",

	DataClientInitFailed:         "Failed to initialize PowerDataClient",
	DataClientNotInitialized:     "PowerDataClient is not initialized",
	MetadataClientInitFailed:     "Failed to initialize PowerMetadataClient",
	MetadataClientNotInitialized: "PowerMetadataClient is not initialized",

	ClientProviderNotAvailable:    "Client provider is not available",
	ConnectionReferenceNotFound:   "Connection reference not found",
	DataClientNotAvailable:        "PowerDataClient is not available",
	DataSourceServiceNotAvailable: "Data source service is not available",
	MetadataClientNotAvailable:    "PowerMetadataClient is not available",

	ConnectionConfigFetchFailed: "Failed to fetch connection configurations",
	DataSourceConfigFetchFailed: "Failed to fetch data source configurations",
	InvalidMetadataResponse:     "Invalid metadata response format",

	TokenAcquisitionFailed: "Failed to acquire access token",
}

// DefaultMessage returns the default text for code.
func DefaultMessage(code Code) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return UnknownErrorMessage
}

// E is a runtime error with a stable code.
type E struct {
	Code    Code
	Message string
	Err     error
}

func (e *E) Error() string { return e.Message }

func (e *E) Unwrap() error { return e.Err }

// Is matches any *E with the same code.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	return ok && t.Code == e.Code
}

// New builds an error for code; info, when non-empty, is appended to the
// default message.
func New(code Code, info string) *E {
	msg := DefaultMessage(code)
	if info != "" {
		msg += ": " + info
	}
	return &E{Code: code, Message: msg}
}

// Wrap is New with the cause's message as info and the cause retained.
func Wrap(code Code, err error) *E {
	e := New(code, Message(err))
	e.Err = err
	return e
}

// Newf is New with a formatted info string.
func Newf(code Code, format string, args ...any) *E {
	return New(code, fmt.Sprintf(format, args...))
}

// CodeOf reports the code of the first *E in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *E
	if stderrors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Message returns a displayable message for any error.
func Message(err error) string {
	if err == nil {
		return UnknownErrorMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}
