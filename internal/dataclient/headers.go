// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dataclient

import (
	"regexp"
	"strings"

	"powerdata/cli/internal/model"
	"powerdata/cli/internal/query"

	"github.com/goccy/go-json"
)

const defaultPrefer = "return=representation,odata.include-annotations=*"

var (
	dataverseBaseRe = regexp.MustCompile(`^(https?://[^/]+/api/data/v9\.0)`)
	dataversePathRe = regexp.MustCompile(`/api/data/v9\.0/(.+)$`)
)

type batchHeaders struct {
	Accept      string `json:"Accept"`
	Prefer      string `json:"Prefer,omitempty"`
	ContentType string `json:"Content-Type,omitempty"`
}

// batchInfo is serialized into the BatchInfo header. Field order is part of
// the wire format.
type batchInfo struct {
	BaseURL     string       `json:"baseUrl"`
	EncodedPath string       `json:"encodedPath"`
	Headers     batchHeaders `json:"headers"`
	BatchID     string       `json:"batchId"`
}

func buildHeaders(token string, req request, rc model.RequestContext) (map[string]string, error) {
	op := rc.OperationName
	if op == "" {
		op = OpDefault
	}
	h := map[string]string{
		"Accept":                                   "application/json",
		"x-ms-protocol-semantics":                  "cdp",
		"ServiceNamespace":                         req.table,
		"Authorization":                            "paauth " + token,
		"x-ms-pa-client-custom-headers-options":    `{"addCustomHeaders":true}`,
		"x-ms-enable-selects":                      "true",
		"x-ms-pa-client-telemetry-options":         `paclient-telemetry {"operationName":"` + op + `"}`,
		"x-ms-pa-client-telemetry-additional-data": `{"apiId":"` + req.apiID + `"}`,
	}

	if req.apiID == DataverseAPIID {
		h["x-ms-protocol-semantics"] = DataverseAPIID
		h["Authorization"] = "dynamicauth " + token

		base, path := SplitDataverseURL(req.url)
		info := batchInfo{
			BaseURL:     base,
			EncodedPath: path,
			Headers: batchHeaders{
				Accept: "application/json",
				Prefer: MergePrefer(req.headers["Prefer"], req.method),
			},
			BatchID: rc.BatchID,
		}
		if isWrite(req.method) {
			info.Headers.ContentType = "application/json"
		}
		raw, err := json.MarshalNoEscape(info)
		if err != nil {
			return nil, err
		}
		h["BatchInfo"] = string(raw)
	}

	for k, v := range req.headers {
		h[k] = v
	}
	return h, nil
}

func isWrite(method string) bool {
	return method == model.MethodPost || method == model.MethodPatch
}

// MergePrefer combines a caller Prefer header with the write default. For
// POST and PATCH the default is appended unless the caller already asks for
// return=representation; other methods keep the caller value unchanged.
func MergePrefer(callerPrefer, method string) string {
	prefer := callerPrefer
	if !isWrite(method) {
		return prefer
	}
	if prefer == "" {
		return defaultPrefer
	}
	if !strings.Contains(prefer, "return=representation") {
		prefer += "," + defaultPrefer
	}
	return prefer
}

// SplitDataverseURL splits a Web API URL into its versioned base and the
// strictly escaped remainder. Missing parts are returned empty.
func SplitDataverseURL(url string) (baseURL, encodedPath string) {
	if m := dataverseBaseRe.FindStringSubmatch(url); m != nil {
		baseURL = m[1]
	}
	if m := dataversePathRe.FindStringSubmatch(url); m != nil {
		encodedPath = query.StrictEscape(m[1])
	}
	return baseURL, encodedPath
}

// IsDataverseCall reports whether url targets the Dataverse Web API directly
// rather than through API management.
func IsDataverseCall(url string) bool {
	if url == "" {
		return false
	}
	lower := strings.ToLower(query.UnescapeComponent(url))
	return strings.Contains(lower, "/api/data/") && !strings.Contains(lower, "/apim")
}
