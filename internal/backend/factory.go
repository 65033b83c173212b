// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/telemetry"
)

// Set holds one executor per backend family.
type Set struct {
	Dataverse *Dataverse
	Connector *Connector
}

// New creates both executors over the shared clients and data sources.
func New(clients Clients, sources Sources, log *telemetry.Log) (*Set, error) {
	conn, err := NewConnector(clients, sources, log)
	if err != nil {
		return nil, err
	}
	return &Set{Dataverse: NewDataverse(clients, log), Connector: conn}, nil
}

// For returns the executor serving typ. Unknown types go to the connector.
func (s *Set) For(typ model.DataSourceType) Executor {
	if typ == model.Dataverse {
		return s.Dataverse
	}
	return s.Connector
}
