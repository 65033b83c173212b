// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// User identifies the signed-in user.
type User struct {
	FullName          string `json:"fullName"`
	ObjectID          string `json:"objectId"`
	TenantID          string `json:"tenantId"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Context is the session context reported by the host.
type Context struct {
	User User           `json:"user"`
	App  map[string]any `json:"app,omitempty"`
	Host map[string]any `json:"host,omitempty"`
}

// Context returns the session context. The first successful answer is cached
// for the life of the App.
func (a *App) Context(ctx context.Context) (*Context, error) {
	a.ctxMu.Lock()
	defer a.ctxMu.Unlock()
	if a.userCtx != nil {
		return a.userCtx, nil
	}
	v, err := a.transport.CallAsync(ctx, LifecycleService, ActionGetContext, []any{}, nil)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.New("host returned no app context")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode app context: %w", err)
	}
	var c Context
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode app context: %w", err)
	}
	a.userCtx = &c
	return a.userCtx, nil
}
