// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"fmt"
	"strings"

	"powerdata/cli/internal/bridge"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// HostErrorType is the category of a host-channel failure.
type HostErrorType int

const (
	HostErrorUnknown HostErrorType = iota
	HostErrorNetwork
	HostErrorAuth
	HostErrorTimeout
	HostErrorInternal
	HostErrorUnavailable
	HostErrorClosed
)

// ClassifyHostError categorizes err, preferring its gRPC status code and
// falling back to the message text.
func ClassifyHostError(err error) HostErrorType {
	if err == nil {
		return HostErrorUnknown
	}
	if errors.Is(err, bridge.ErrClosed) {
		return HostErrorClosed
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return HostErrorAuth
		case codes.DeadlineExceeded:
			return HostErrorTimeout
		case codes.Unavailable:
			return HostErrorUnavailable
		case codes.Internal:
			return HostErrorInternal
		}
	}
	return ParseHostError(err.Error())
}

// ParseHostError categorizes a failure message.
func ParseHostError(errMsg string) HostErrorType {
	lower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(lower, "rst_stream"), strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "connection refused"):
		return HostErrorNetwork
	case strings.Contains(lower, "host channel closed"):
		return HostErrorClosed
	case strings.Contains(lower, "internal_error"):
		return HostErrorInternal
	case strings.Contains(lower, "unavailable"):
		return HostErrorUnavailable
	case strings.Contains(lower, "deadline"), strings.Contains(lower, "timeout"):
		return HostErrorTimeout
	case strings.Contains(lower, "unauthenticated"), strings.Contains(lower, "unauthorized"):
		return HostErrorAuth
	}
	return HostErrorUnknown
}

// FormatStreamError renders a host-channel failure for the terminal.
func FormatStreamError(err error) string {
	errType := ClassifyHostError(err)

	var builder strings.Builder
	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Host Connection Lost"))
	builder.WriteString("\n\n")

	switch errType {
	case HostErrorNetwork:
		builder.WriteString("The connection to the app host was interrupted.\n")
		builder.WriteString("Check that the host process is running and reachable.\n")
	case HostErrorClosed:
		builder.WriteString("The app host closed the channel while calls were pending.\n")
	case HostErrorInternal:
		builder.WriteString("The app host reported an internal error.\n")
	case HostErrorUnavailable:
		builder.WriteString("The app host is not accepting connections.\n")
	case HostErrorTimeout:
		builder.WriteString("The app host did not answer in time.\n")
	case HostErrorAuth:
		builder.WriteString("The app host rejected the session token.\n")
	default:
		builder.WriteString("The session with the app host ended unexpectedly.\n")
	}
	builder.WriteString("\n")

	if errType == HostErrorAuth {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Run 'powerdata connect' to store a new session token"))
	} else {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Check 'powerdata connect' settings and try again"))
	}
	builder.WriteString("\n")

	if err != nil && strings.TrimSpace(err.Error()) != "" {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	}
	return builder.String()
}

// PresentStreamError prints a host-channel failure.
func PresentStreamError(err error) {
	fmt.Println()
	fmt.Println(FormatStreamError(err))
	fmt.Println()
}
