// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"context"
	"log/slog"
	"sync"

	"powerdata/cli/internal/bridge/model"
)

// NativeExec invokes a plugin on a native host bridge. Replies, including
// streaming updates, are delivered through reply using the same message shape
// as the channel transport. NativeExec must not block waiting for the reply.
type NativeExec func(call model.PluginCall, reply func(map[string]any))

// MobileBridge implements Transport by calling a native bridge directly.
// Calls made before Attach are queued and issued in order once attached.
type MobileBridge struct {
	*dispatcher

	mu    sync.Mutex
	exec  NativeExec
	queue []model.PluginCall
}

// NewMobileBridge returns a bridge with no native exec attached yet.
func NewMobileBridge(logger *slog.Logger) *MobileBridge {
	return &MobileBridge{dispatcher: newDispatcher(logger)}
}

// Attach installs the native exec and flushes queued calls.
func (b *MobileBridge) Attach(exec NativeExec) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exec = exec
	queued := b.queue
	b.queue = nil
	for _, call := range queued {
		b.exec(call, b.reply)
	}
}

// Init reports ErrMobileUnsupported until a native exec is attached.
func (b *MobileBridge) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exec == nil {
		return ErrMobileUnsupported
	}
	return nil
}

// CallAsync implements Transport.
func (b *MobileBridge) CallAsync(ctx context.Context, service, action string, args []any, onUpdate func(any)) (any, error) {
	id := b.nextID(service)
	p := b.register(id, onUpdate)
	b.issue(model.PluginCall{CallbackID: id, Service: service, Action: action, Args: args})
	return b.await(ctx, id, p)
}

// Call implements Transport.
func (b *MobileBridge) Call(ctx context.Context, service, action string, args []any) error {
	b.issue(model.PluginCall{CallbackID: b.nextID(service), Service: service, Action: action, Args: args})
	return nil
}

func (b *MobileBridge) issue(call model.PluginCall) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exec == nil {
		b.queue = append(b.queue, call)
		return
	}
	b.exec(call, b.reply)
}

func (b *MobileBridge) reply(msg map[string]any) {
	if resp, ok := model.ParseResponse(msg); ok {
		b.dispatch(resp)
	}
}
