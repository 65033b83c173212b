// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dataclient

import (
	"encoding/base64"
	stderrors "errors"
	"strconv"
	"strings"

	"powerdata/cli/internal/bridge"
	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/model"

	"github.com/goccy/go-json"
)

// HeaderRequestID carries the host's request id on HTTP plugin failures.
const HeaderRequestID = "x-ms-client-request-id"

func invalidResponse(data any) model.OperationResult {
	return model.Fail(errors.InvalidResponse, data)
}

// classify turns the HTTP plugin's [meta, body] reply into a result.
func classify(data any, url string, rc model.RequestContext) (model.OperationResult, error) {
	parts, _ := data.([]any)
	if len(parts) == 0 {
		return invalidResponse(data), nil
	}
	meta, _ := parts[0].(map[string]any)
	headers, _ := meta["headers"].(map[string]any)
	var body any
	if len(parts) > 1 {
		body = parts[1]
	}

	contentType := headerValue(headers, "Content-Type")
	switch {
	case contentType == "":
		return model.OperationResult{Success: true}, nil

	case strings.Contains(contentType, "application/json"):
		text := bodyText(body)
		if text == "" {
			text = "{}"
		}
		var parsed any
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			return model.OperationResult{}, err
		}
		if rc.IsDataverseOperation || IsDataverseCall(url) {
			return model.OK(parsed), nil
		}
		if obj, ok := parsed.(map[string]any); ok && !rc.IsExecuteAsync {
			if arr, ok := obj["value"].([]any); ok {
				return model.OK(arr), nil
			}
		}
		return model.OK(parsed), nil

	case strings.Contains(contentType, "image/"):
		if b, ok := body.([]byte); ok {
			return model.OK(base64.StdEncoding.EncodeToString(b)), nil
		}
		return model.OK(body), nil

	default:
		b, ok := body.([]byte)
		if !ok {
			return invalidResponse(parts), nil
		}
		text := string(b)
		status := strconv.Itoa(statusOf(meta))
		rt, declared := rc.ResponseInfo[status]
		if !declared {
			return model.OK(text), nil
		}
		var parsed any
		if err := json.Unmarshal(b, &parsed); err != nil {
			return invalidResponse(nil), nil
		}
		switch rt.Type {
		case "array":
			if _, ok := parsed.([]any); !ok {
				return invalidResponse(nil), nil
			}
		case "object":
			if _, ok := parsed.(map[string]any); !ok {
				return invalidResponse(nil), nil
			}
		}
		return model.OK(parsed), nil
	}
}

// headerValue looks key up exactly, then case-insensitively.
func headerValue(headers map[string]any, key string) string {
	if v, ok := headers[key].(string); ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			s, _ := v.(string)
			return s
		}
	}
	return ""
}

func bodyText(body any) string {
	switch b := body.(type) {
	case []byte:
		return string(b)
	case string:
		return b
	}
	return ""
}

func statusOf(meta map[string]any) int {
	switch s := meta["status"].(type) {
	case float64:
		return int(s)
	case int:
		return s
	case int64:
		return int(s)
	}
	return 0
}

// ParseHTTPError extracts message, status and request id from an HTTP
// plugin rejection, whose first arg is [message, _, response].
func ParseHTTPError(err error) *model.ErrorInfo {
	var ce *bridge.CallError
	if !stderrors.As(err, &ce) {
		return &model.ErrorInfo{Message: errors.Message(err)}
	}
	info := &model.ErrorInfo{Message: errors.UnknownErrorMessage}
	if len(ce.Args) == 0 {
		return info
	}
	inner, ok := ce.Args[0].([]any)
	if !ok {
		return info
	}
	if len(inner) > 0 {
		if msg, ok := inner[0].(string); ok && msg != "" {
			info.Message = msg
		}
	}
	if len(inner) > 2 {
		if resp, ok := inner[2].(map[string]any); ok {
			info.Status = statusOf(resp)
			if h, ok := resp["headers"].(map[string]any); ok {
				info.RequestID, _ = h[HeaderRequestID].(string)
			}
		}
	}
	return info
}
