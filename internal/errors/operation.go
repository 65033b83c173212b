// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	stderrors "errors"

	"powerdata/cli/internal/model"
)

// Friendly messages prefixed to failures at the data operation boundaries.
const (
	CreateFailed               = "Create operation failure"
	DeleteFailed               = "Delete operation failure"
	ExecuteFailed              = "Execute operation failure"
	InvalidOperationParameters = "Invalid operation parameters"
	InvalidRequest             = "Invalid request"
	InvalidResponse            = "Invalid response format"
	MissingConnectorOperation  = "Connector operation is required"
	MissingDataverseRequest    = "Dataverse request is required"
	MissingOperationName       = "Operation name is required"
	MissingRequestBody         = "Request body is required"
	RetrieveFailed             = "Retrieve operation failure"
	RetrieveMultipleFailed     = "Retrieve multiple records operation failure"
	UpdateFailed               = "Update operation failure"
)

// Friendly messages used by the orchestrator.
const (
	CreateRecordFailed           = "Create record operation failed"
	UpdateRecordFailed           = "Update record operation failed"
	DeleteRecordFailed           = "Delete record operation failed"
	RetrieveRecordFailed         = "Retrieve record operation failed"
	RetrieveMultipleRecordFailed = "Retrieve multiple records operation failed"
	ExecuteOperationFailed       = "Execute operation failed"
)

// Request builds a plain error of the form "<prefix>: <detail>".
func Request(prefix, detail string) error {
	return stderrors.New(prefix + ": " + detail)
}

// Response converts err into a failed OperationResult whose message is
// "<friendly>: <err message>". Data is carried over when err wraps a result.
func Response(err error, friendly string) model.OperationResult {
	var data any
	var re *model.ResultError
	if stderrors.As(err, &re) {
		data = re.Result.Data
	}
	return model.OperationResult{
		Success: false,
		Data:    data,
		Error:   &model.ErrorInfo{Message: friendly + ": " + Message(err)},
	}
}
