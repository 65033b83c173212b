// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"maps"
	"slices"
	"strings"

	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/query"

	"github.com/goccy/go-json"
)

// Parameter names the host fills in for every connector operation.
const (
	paramConnectionID = "connectionId"
	paramDataset      = "dataset"
	paramTableName    = "tableName"
)

// Parameter locations.
const (
	inPath   = "path"
	inQuery  = "query"
	inHeader = "header"
	inBody   = "body"
)

// operationURL builds the request URL of a connector operation. SQL
// connections call a stored procedure; everything else binds the caller's
// parameters into the declared path template.
func operationURL(co *model.ConnectorOperation, ref model.ConnectionReference, info model.DataSourceInfo) (string, error) {
	if co.OperationName == "" {
		return "", errors.Request(errors.InvalidOperationParameters, errors.MissingOperationName)
	}
	api, ok := info.APIs[co.OperationName]
	if !ok {
		return "", errors.Request(errors.InvalidOperationParameters,
			"Operation "+co.OperationName+" is not defined for "+co.TableName)
	}
	if FamilyOf(ref.APIID) == FamilySQL {
		return ref.RuntimeURL + "/" + ref.ConnectionName + versionSegment(info.Version) +
			"datasets/" + ref.DatasetName + "/procedures" + api.Path, nil
	}
	return standardURL(co, ref, api), nil
}

// standardURL binds parameters by shape:
//   - a lone string goes to the first required declared parameter;
//   - an object is matched by key, ignoring case and '-' vs '_';
//   - an array is matched by position.
//
// The host-filled parameters are excluded from binding but still fill their
// path placeholders.
func standardURL(co *model.ConnectorOperation, ref model.ConnectionReference, api model.APISpec) string {
	declared := slices.DeleteFunc(slices.Clone(api.Parameters), func(p model.ParamSpec) bool {
		return p.Name == paramConnectionID || p.Name == paramDataset || p.Name == paramTableName
	})

	dataset := ref.DatasetName
	if FamilyOf(ref.APIID) == FamilySharePoint && dataset != "" {
		dataset = query.EscapeComponent(dataset)
	}
	values := map[string]any{
		paramConnectionID: ref.ConnectionName,
		paramDataset:      dataset,
		paramTableName:    co.TableName,
	}

	switch params := normalizeParams(co.Parameters).(type) {
	case nil:
	case string:
		if len(declared) > 0 {
			name := declared[0].Name
			if i := slices.IndexFunc(declared, func(p model.ParamSpec) bool { return p.Required }); i >= 0 {
				name = declared[i].Name
			}
			values[name] = params
		}
	case map[string]any:
		for _, p := range declared {
			if v, ok := lookupNormalized(params, p.Name); ok {
				values[p.Name] = v
			}
		}
	case []any:
		for i, p := range declared {
			if i < len(params) {
				values[p.Name] = params[i]
			}
		}
	}

	path, q := bindParameters(api.Parameters, values, api.Path)
	sep := ""
	if q != "" {
		sep = "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
	}
	return ref.RuntimeURL + path + sep + q
}

// bindParameters substitutes path placeholders and collects query pairs.
func bindParameters(specs []model.ParamSpec, values map[string]any, path string) (string, string) {
	var pairs []string
	for _, p := range specs {
		v, ok := values[p.Name]
		if !ok || v == nil {
			continue
		}
		switch p.In {
		case inPath:
			placeholder := "{" + p.Name + "}"
			if strings.Contains(path, placeholder) {
				path = strings.Replace(path, placeholder, query.EscapeComponent(stringify(v)), 1)
			}
		case inQuery:
			pairs = append(pairs, query.EscapeComponent(p.Name)+"="+query.EscapeComponent(stringify(v)))
		}
	}
	return path, strings.Join(pairs, "&")
}

// lookupNormalized finds key in obj ignoring case and treating '-' as '_'.
func lookupNormalized(obj map[string]any, key string) (any, bool) {
	want := normalizeKey(key)
	for _, k := range slices.Sorted(maps.Keys(obj)) {
		if normalizeKey(k) == want {
			v := obj[k]
			return v, v != nil
		}
	}
	return nil, false
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", "_"))
}

// operationBody returns the JSON body of an operation with body parameters,
// or nil when it declares none. A parameter named "body" supplies the whole
// body; other body parameters become fields of an object.
func operationBody(co *model.ConnectorOperation, specs []model.ParamSpec) (any, error) {
	if !slices.ContainsFunc(specs, func(p model.ParamSpec) bool { return p.In == inBody }) {
		return nil, nil
	}

	params := normalizeParams(co.Parameters)
	if params == nil {
		params = []any{}
	}
	obj, isObj := params.(map[string]any)
	_, isList := params.([]any)
	var body any = map[string]any{}
	for _, p := range specs {
		if p.In != inBody || !(isObj || isList) {
			continue
		}
		v := obj[p.Name]
		if p.Name == inBody {
			if m, ok := v.(map[string]any); ok {
				v = maps.Clone(m)
			}
			body = v
			continue
		}
		if fields, ok := body.(map[string]any); ok && v != nil {
			fields[p.Name] = v
		}
	}
	if body == nil {
		return nil, nil
	}
	raw, err := json.MarshalNoEscape(body)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// operationHeaders returns the header parameters of an operation, or nil
// when it declares none.
func operationHeaders(co *model.ConnectorOperation, specs []model.ParamSpec) map[string]string {
	if !slices.ContainsFunc(specs, func(p model.ParamSpec) bool { return p.In == inHeader }) {
		return nil
	}

	headers := map[string]string{}
	switch params := normalizeParams(co.Parameters).(type) {
	case nil:
		return nil
	case string:
		if len(specs) == 1 && specs[0].In == inHeader {
			headers[specs[0].Name] = params
		}
	case map[string]any:
		for _, p := range specs {
			if v, ok := params[p.Name]; ok && v != nil && p.In == inHeader {
				headers[p.Name] = stringify(v)
			}
		}
	case []any:
		for i, p := range specs {
			if p.In == inHeader && i < len(params) && params[i] != nil {
				headers[p.Name] = stringify(params[i])
			}
		}
	}
	return headers
}

// normalizeParams maps typed Go parameter values onto the JSON shapes the
// binders understand.
func normalizeParams(p any) any {
	switch x := p.(type) {
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, v := range x {
			out[k] = v
		}
		return out
	}
	return p
}
