// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import "strings"

// Family selects the URL conventions of a connector.
type Family int

const (
	FamilyGeneric Family = iota
	FamilySQL
	FamilySharePoint
)

// API id fragments identifying the special families.
const (
	apiSQL        = "shared_sql"
	apiSharePoint = "shared_sharepointonline"
)

// FamilyOf resolves the family from a connection's api id.
func FamilyOf(apiID string) Family {
	switch {
	case strings.Contains(apiID, apiSQL):
		return FamilySQL
	case strings.Contains(apiID, apiSharePoint):
		return FamilySharePoint
	}
	return FamilyGeneric
}

func (f Family) String() string {
	switch f {
	case FamilySQL:
		return "sql"
	case FamilySharePoint:
		return "sharepoint"
	}
	return "generic"
}
