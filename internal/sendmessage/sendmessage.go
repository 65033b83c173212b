// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sendmessage talks to named message receivers registered in the
// host (SendMessagePlugin). A receiver is looked up by name, checked for
// version compatibility, and then holds long-lived operations: one message
// out, any number of updates back, one final reply.
package sendmessage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"powerdata/cli/internal/bridge"

	"github.com/google/uuid"
)

// Host plugin and actions.
const (
	Service              = "SendMessagePlugin"
	ActionGetVersionInfo = "getVersionInfo"
	ActionSendMessage    = "sendMessage"
)

// ErrOperationCompleted is returned by SendUpdate once the operation is over.
var ErrOperationCompleted = errors.New("Tried to send update for completed operation.")

// Checker decides whether a receiver version is usable. The description is
// reported on the Incompatible receiver when ok is false.
type Checker func(version string) (ok bool, description string)

// Receiver is either *Compatible or *Incompatible.
type Receiver interface {
	Version() string
	IsCompatible() bool
}

// Incompatible is a receiver that is missing or failed the version check.
type Incompatible struct {
	VersionInfo string
	Description string
}

func (r *Incompatible) Version() string    { return r.VersionInfo }
func (r *Incompatible) IsCompatible() bool { return false }

// Plugin resolves receivers over a host transport.
type Plugin struct {
	transport bridge.Transport
	logger    *slog.Logger
}

// New returns a Plugin over t.
func New(t bridge.Transport, logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Plugin{transport: t, logger: logger}
}

// Receiver looks up name in the host. A nil check accepts every version.
func (p *Plugin) Receiver(ctx context.Context, name string, check Checker) (Receiver, error) {
	v, err := p.transport.CallAsync(ctx, Service, ActionGetVersionInfo, []any{name}, nil)
	if err != nil {
		return nil, err
	}
	version := versionString(v)
	if version == "" {
		return &Incompatible{Description: "No receiver " + name + " registered."}, nil
	}
	if check != nil {
		if ok, desc := check(version); !ok {
			p.logger.Debug("receiver version rejected", "receiver", name, "version", version)
			return &Incompatible{VersionInfo: version, Description: desc}, nil
		}
	}
	return &Compatible{transport: p.transport, logger: p.logger, name: name, version: version}, nil
}

func versionString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Compatible is a receiver that passed the version check.
type Compatible struct {
	transport bridge.Transport
	logger    *slog.Logger
	name      string
	version   string
}

func (r *Compatible) Version() string    { return r.version }
func (r *Compatible) IsCompatible() bool { return true }

// Name returns the receiver name.
func (r *Compatible) Name() string { return r.name }

// SendMessage starts an operation carrying msg. Updates from the host are
// passed to onMessage; the operation completes on the first non-update reply,
// on a handler error, or when the host call ends.
func (r *Compatible) SendMessage(ctx context.Context, msg any, onMessage func(any) error) (*Operation, error) {
	op := &Operation{
		transport:     r.transport,
		receiver:      r.name,
		correlationID: uuid.NewString(),
		onMessage:     onMessage,
		done:          make(chan struct{}),
	}
	args := []any{r.name, msg, op.correlationID}
	go func() {
		v, err := r.transport.CallAsync(ctx, Service, ActionSendMessage, args, op.handle)
		if err != nil {
			r.logger.Debug("send message call failed", "receiver", r.name, "error", err)
		}
		op.complete(v, err)
	}()
	return op, nil
}

// Operation is one message exchange with a receiver.
type Operation struct {
	transport     bridge.Transport
	receiver      string
	correlationID string
	onMessage     func(any) error

	mu        sync.Mutex
	completed bool
	result    any
	err       error
	done      chan struct{}
}

// CorrelationID identifies the operation to the host.
func (o *Operation) CorrelationID() string { return o.correlationID }

// Completed reports whether the operation has finished.
func (o *Operation) Completed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completed
}

// Done is closed when the operation completes.
func (o *Operation) Done() <-chan struct{} { return o.done }

// Wait blocks until the operation completes and returns its result.
func (o *Operation) Wait(ctx context.Context) (any, error) {
	select {
	case <-o.done:
		o.mu.Lock()
		defer o.mu.Unlock()
		return o.result, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendUpdate posts a follow-up message under the same correlation id.
func (o *Operation) SendUpdate(ctx context.Context, msg any) error {
	if o.Completed() {
		return ErrOperationCompleted
	}
	return o.transport.Call(ctx, Service, ActionSendMessage, []any{o.receiver, msg, o.correlationID})
}

// complete records the first outcome; later ones are dropped.
func (o *Operation) complete(v any, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.completed {
		return
	}
	o.completed = true
	o.result, o.err = v, err
	close(o.done)
}

// handle receives every host update for the operation. Payloads have the
// shape {isUpdate, message}.
func (o *Operation) handle(payload any) {
	if o.Completed() {
		return
	}
	m, _ := payload.(map[string]any)
	if m == nil {
		o.complete(nil, nil)
		return
	}
	message := m["message"]
	if update, _ := m["isUpdate"].(bool); !update {
		o.complete(message, nil)
		return
	}
	if o.onMessage == nil {
		o.complete(nil, fmt.Errorf("Native receiver expected a message handler, but no handler was supplied. Message: %v", message))
		return
	}
	if err := o.deliver(message); err != nil {
		o.complete(nil, err)
	}
}

func (o *Operation) deliver(message any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("message handler panic: %v", r)
		}
	}()
	return o.onMessage(message)
}
