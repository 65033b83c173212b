// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors presents failed data operations and network failures in
// the terminal. Operation failures are grouped by the HTTP status class the
// host reported for the underlying request.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"powerdata/cli/internal/model"

	"github.com/pterm/pterm"
)

// Class groups a failure for presentation.
type Class int

const (
	ClassUnknown Class = iota
	ClassBadRequest
	ClassAuth
	ClassNotFound
	ClassConflict
	ClassThrottled
	ClassServer
)

// ClassOf maps an HTTP status to its Class.
func ClassOf(status int) Class {
	switch {
	case status == 401 || status == 403:
		return ClassAuth
	case status == 404:
		return ClassNotFound
	case status == 409 || status == 412:
		return ClassConflict
	case status == 429:
		return ClassThrottled
	case status >= 500 && status < 600:
		return ClassServer
	case status >= 400 && status < 500:
		return ClassBadRequest
	}
	return ClassUnknown
}

// OperationError is a failed OperationResult surfaced as an error.
type OperationError struct {
	Operation string
	Result    model.OperationResult
}

func (e *OperationError) Error() string {
	msg := "operation failed"
	if e.Result.Error != nil && e.Result.Error.Message != "" {
		msg = e.Result.Error.Message
	}
	if e.Operation == "" {
		return msg
	}
	return e.Operation + ": " + msg
}

// Status returns the HTTP status carried by the result, or 0.
func (e *OperationError) Status() int {
	if e.Result.Error == nil {
		return 0
	}
	return e.Result.Error.Status
}

// FormatOperationError prints a failed result with hints for its status
// class and returns it as an *OperationError. A successful result gives nil.
func FormatOperationError(operation string, res model.OperationResult) error {
	if res.Success {
		return nil
	}
	opErr := &OperationError{Operation: operation, Result: res}

	pterm.Error.Println(opErr.Error())
	switch ClassOf(opErr.Status()) {
	case ClassAuth:
		pterm.Info.Println("The connection behind this table rejected the request.")
		pterm.Println("  • Check that the app's connection is signed in and shared with you")
		pterm.Println("  • Run 'powerdata connect' if the host session expired")
	case ClassNotFound:
		pterm.Info.Println("The table or record does not exist, or is hidden from you.")
	case ClassConflict:
		pterm.Info.Println("The record changed or already exists. Reload it and retry.")
	case ClassThrottled:
		pterm.Info.Println("The service is throttling requests. Wait a moment and retry.")
	case ClassServer:
		pterm.Info.Println("The service behind this table reported an internal error.")
	case ClassBadRequest:
		pterm.Info.Println("The service rejected the request. Check field names and values.")
	}
	if e := res.Error; e != nil && e.RequestID != "" {
		pterm.Debug.Printfln("Request id: %s", e.RequestID)
	}
	pterm.Println()
	return opErr
}

// FormatNetworkError prints a network failure met while doing context and
// returns it wrapped.
func FormatNetworkError(err error, context string) error {
	if err == nil {
		return nil
	}
	switch {
	case isTimeoutError(err):
		pterm.Printf("⏱️  Connection timeout while %s\n", context)
		pterm.Println("The server took too long to respond. Please try again in a few moments.")
	case isDNSError(err):
		pterm.Printf("🌐 Cannot resolve server address while %s\n", context)
		pterm.Println("Check your internet connection and DNS settings.")
	case isConnectionRefusedError(err):
		pterm.Printf("🚫 Connection refused while %s\n", context)
		pterm.Println("Check the address and that the server is running.")
	case isSSLError(err):
		pterm.Printf("🔒 Secure connection failed while %s\n", context)
		pterm.Println("Check your system clock and network proxy settings.")
	default:
		pterm.Printf("❌ Network error while %s\n", context)
		if msg := err.Error(); msg != "" {
			if len(msg) > 100 {
				msg = msg[:100] + "..."
			}
			pterm.Debug.Printf("Technical details: %s\n", msg)
		}
	}
	pterm.Println()
	return fmt.Errorf("network error: %w", err)
}

func isTimeoutError(err error) bool {
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, syscall.ECONNREFUSED)
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isSSLError(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "tls") ||
		strings.Contains(lower, "certificate") ||
		strings.Contains(lower, "handshake")
}

// ExtractHostFromURL returns the host of urlStr for messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
