// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	stderrors "errors"
	"sync"

	"powerdata/cli/internal/dataclient"
	"powerdata/cli/internal/metadata"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/provider"
)

type sent struct {
	envelope map[string]any
	body     any
}

// fakeHost serves metadata, tokens and HTTP replies the way the host
// plugins do.
type fakeHost struct {
	mu          sync.Mutex
	connections map[string]any
	dataSources map[string]any
	tokens      [][]any
	sends       []sent
	reply       func(env map[string]any) any
}

func (h *fakeHost) Execute(ctx context.Context, service, action string, args []any) (model.OperationResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch action {
	case metadata.ActionConnectionConfigs:
		return model.OK(h.connections), nil
	case metadata.ActionDataSourceConfigs:
		return model.OK(h.dataSources), nil
	case dataclient.ActionGetToken, dataclient.ActionGetDynamicToken:
		h.tokens = append(h.tokens, append([]any{action}, args...))
		return model.OK("tok"), nil
	case dataclient.ActionSendHTTP:
		env := args[0].(map[string]any)
		h.sends = append(h.sends, sent{envelope: env, body: args[1]})
		if h.reply == nil {
			return model.OK([]any{map[string]any{"status": float64(204), "headers": map[string]any{}}, ""}), nil
		}
		return model.OK(h.reply(env)), nil
	}
	return model.OperationResult{}, stderrors.New("unexpected " + service + "." + action)
}

func (h *fakeHost) lastSend() sent {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sends) == 0 {
		return sent{}
	}
	return h.sends[len(h.sends)-1]
}

func (h *fakeHost) headers() map[string]string {
	env := h.lastSend().envelope
	if env == nil {
		return nil
	}
	return env["headers"].(map[string]string)
}

func jsonReply(status int, body string) func(map[string]any) any {
	return func(map[string]any) any {
		meta := map[string]any{
			"status":  float64(status),
			"headers": map[string]any{"Content-Type": "application/json; charset=utf-8"},
		}
		return []any{meta, []byte(body)}
	}
}

func newClients(h *fakeHost) *provider.Provider {
	return provider.New(h, nil)
}

type staticSources model.DataSourcesInfo

func (s staticSources) DataSource(ctx context.Context, name string) (model.DataSourceInfo, error) {
	info, ok := s[name]
	if !ok {
		return model.DataSourceInfo{}, stderrors.New("Data source not found: " + name)
	}
	return info, nil
}
