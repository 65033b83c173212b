// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging builds the CLI logger and keeps host credentials out of
// everything it prints. Session tokens (paauth, dynamicauth, Bearer), the
// channel's antiCSRFToken and token= pairs are masked before output.
package logging

import (
	"regexp"
)

var (
	reAuthScheme = regexp.MustCompile(`(?i)\b(paauth|dynamicauth|bearer)(\s+)([A-Za-z0-9._~+/=-]+)`)
	reCSRF       = regexp.MustCompile(`(?i)("?antiCSRFToken"?\s*[:=]\s*"?)([^"\s,}]+)`)
	reToken      = regexp.MustCompile(`(?i)\b(token=)([^\s&;]+)`)
	reAPIKey     = regexp.MustCompile(`(?i)\b(apikey=|api_key=)([^\s&;]+)`)
)

// Mask replaces credentials in s with "***".
func Mask(s string) string {
	out := reAuthScheme.ReplaceAllString(s, "$1$2***")
	out = reCSRF.ReplaceAllString(out, "$1***")
	out = reToken.ReplaceAllString(out, "$1***")
	out = reAPIKey.ReplaceAllString(out, "$1***")
	return out
}
