// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"powerdata/cli/internal/model"

	"github.com/goccy/go-json"
)

const maxManifestSize = 8 << 20

// load reads the manifest from a local path or an http(s) URL.
func load(ctx context.Context, source string) (*Manifest, error) {
	var (
		body []byte
		err  error
	)
	if isRemote(source) {
		body, err = fetch(ctx, source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}
	return parse(source, body)
}

// fetch downloads a remote manifest.
func fetch(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{Timeout: 15 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "powerdata-cli/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// parse decodes a dataSourcesInfo document and checks every entry.
func parse(source string, body []byte) (*Manifest, error) {
	var info model.DataSourcesInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse manifest JSON: %w", err)
	}
	if len(info) == 0 {
		return nil, fmt.Errorf("invalid manifest: no data sources")
	}
	for name, ds := range info {
		if name == "" {
			return nil, fmt.Errorf("invalid manifest: empty table name")
		}
		if ds.TableID == "" && ds.DataSourceType != model.Dataverse {
			return nil, fmt.Errorf("invalid manifest: table %q has no tableId", name)
		}
	}
	return &Manifest{Source: source, DataSources: info}, nil
}
