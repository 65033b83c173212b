// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge turns plugin invocations toward the host into blocking calls.
// It owns the correlation table of pending calls and the outbound queue used
// while the host channel is not yet acknowledged.
//
// Two transports are provided: PluginBridge talks to the host over a message
// Port (see grpcclient), MobileBridge calls a native exec function directly.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"powerdata/cli/internal/bridge/model"
)

var (
	// ErrClosed is returned to pending calls when the host channel goes away.
	ErrClosed = errors.New("bridge: host channel closed")
	// ErrMobileUnsupported is returned when no native bridge is attached.
	ErrMobileUnsupported = errors.New("Mobile is currently not supported")
)

// Transport is the plugin RPC surface used by the runtime.
type Transport interface {
	// Init establishes the host channel. Calling it again is a no-op.
	Init(ctx context.Context) error
	// CallAsync invokes service.action and waits for the terminal reply.
	// onUpdate, when non-nil, receives non-terminal payloads.
	CallAsync(ctx context.Context, service, action string, args []any, onUpdate func(any)) (any, error)
	// Call invokes service.action without waiting for a reply.
	Call(ctx context.Context, service, action string, args []any) error
}

// Port is a bidirectional message channel to the host.
type Port interface {
	Open(ctx context.Context) error
	Post(ctx context.Context, msg map[string]any) error
	// Recv blocks for the next inbound message. Any error ends the channel.
	Recv() (map[string]any, error)
	Close() error
}

// CallError is the rejection of a plugin call, carrying the host's reply args.
type CallError struct {
	Status int
	Args   []any
}

func (e *CallError) Error() string {
	if len(e.Args) > 0 {
		if s, ok := e.Args[0].(string); ok && s != "" {
			return s
		}
		if inner, ok := e.Args[0].([]any); ok && len(inner) > 0 {
			if s, ok := inner[0].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("plugin call failed with status %d", e.Status)
}

// Message is an inbound reply classified as Update or Terminal.
type Message interface{ isMessage() }

// Update is a non-terminal streaming payload; the call stays pending.
type Update struct{ Payload any }

// Terminal ends a call.
type Terminal struct {
	Status int
	Args   []any
}

func (Update) isMessage()   {}
func (Terminal) isMessage() {}

// Classify converts a wire response into its Message variant.
func Classify(resp model.PluginResponse) Message {
	if resp.KeepCallback {
		var payload any
		if len(resp.Args) > 0 {
			payload = resp.Args[0]
		}
		return Update{Payload: payload}
	}
	return Terminal{Status: resp.Status, Args: resp.Args}
}

type outcome struct {
	value any
	err   error
}

type pending struct {
	done     chan outcome
	onUpdate func(any)
}

// dispatcher is the correlation table shared by both transports.
type dispatcher struct {
	logger    *slog.Logger
	sessionID string

	mu      sync.Mutex
	counter int
	calls   map[string]*pending
}

func newDispatcher(logger *slog.Logger) *dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &dispatcher{
		logger:    logger,
		sessionID: strconv.FormatInt(time.Now().UnixMilli(), 10),
		calls:     make(map[string]*pending),
	}
}

func (d *dispatcher) nextID(service string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := "instanceId=" + d.sessionID + "_" + service + strconv.Itoa(d.counter)
	d.counter++
	return id
}

func (d *dispatcher) register(id string, onUpdate func(any)) *pending {
	p := &pending{done: make(chan outcome, 1), onUpdate: onUpdate}
	d.mu.Lock()
	d.calls[id] = p
	d.mu.Unlock()
	return p
}

func (d *dispatcher) remove(id string) {
	d.mu.Lock()
	delete(d.calls, id)
	d.mu.Unlock()
}

// await blocks until p is settled or ctx is done.
func (d *dispatcher) await(ctx context.Context, id string, p *pending) (any, error) {
	select {
	case o := <-p.done:
		return o.value, o.err
	case <-ctx.Done():
		d.remove(id)
		return nil, ctx.Err()
	}
}

// dispatch routes one inbound response. Panics are recovered so that a bad
// update handler never stops the receive loop.
func (d *dispatcher) dispatch(resp model.PluginResponse) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("plugin callback failed", "callbackId", resp.CallbackID, "panic", r)
		}
	}()

	d.mu.Lock()
	p, ok := d.calls[resp.CallbackID]
	if !ok {
		d.mu.Unlock()
		return
	}
	msg := Classify(resp)
	if _, terminal := msg.(Terminal); terminal {
		delete(d.calls, resp.CallbackID)
	}
	d.mu.Unlock()

	switch m := msg.(type) {
	case Update:
		if p.onUpdate != nil {
			p.onUpdate(m.Payload)
		}
	case Terminal:
		switch m.Status {
		case model.StatusOK:
			var value any
			if len(m.Args) > 0 {
				value = m.Args[0]
			}
			p.done <- outcome{value: value}
		case model.StatusNoResult:
		default:
			p.done <- outcome{err: &CallError{Status: m.Status, Args: m.Args}}
		}
	}
}

// reject settles a single pending call with err.
func (d *dispatcher) reject(id string, err error) {
	d.mu.Lock()
	p, ok := d.calls[id]
	delete(d.calls, id)
	d.mu.Unlock()
	if ok {
		p.done <- outcome{err: err}
	}
}

// failAll rejects every pending call with err.
func (d *dispatcher) failAll(err error) {
	d.mu.Lock()
	calls := d.calls
	d.calls = make(map[string]*pending)
	d.mu.Unlock()
	for _, p := range calls {
		p.done <- outcome{err: err}
	}
}

// PluginBridge implements Transport over a host message Port.
type PluginBridge struct {
	port Port
	*dispatcher

	initMu  sync.Mutex
	started bool

	// sendMu serializes outbound posts so the queue flush keeps FIFO order.
	sendMu sync.Mutex
	ready  bool
	token  string
	queue  []map[string]any
}

// NewPluginBridge returns a bridge over port.
func NewPluginBridge(port Port, logger *slog.Logger) *PluginBridge {
	return &PluginBridge{port: port, dispatcher: newDispatcher(logger)}
}

// SessionID returns the locally generated session id.
func (b *PluginBridge) SessionID() string { return b.sessionID }

// Init opens the port, sends the handshake and starts the receive loop.
func (b *PluginBridge) Init(ctx context.Context) error {
	b.initMu.Lock()
	defer b.initMu.Unlock()
	if b.started {
		return nil
	}
	if err := b.port.Open(ctx); err != nil {
		return fmt.Errorf("open host channel: %w", err)
	}
	if err := b.port.Post(ctx, model.InitPort(b.sessionID)); err != nil {
		_ = b.port.Close()
		return fmt.Errorf("send handshake: %w", err)
	}
	b.started = true
	go b.receiveLoop()
	return nil
}

// Close closes the underlying port; pending calls are rejected by the
// receive loop.
func (b *PluginBridge) Close() error {
	return b.port.Close()
}

// CallAsync implements Transport.
func (b *PluginBridge) CallAsync(ctx context.Context, service, action string, args []any, onUpdate func(any)) (any, error) {
	if err := b.Init(ctx); err != nil {
		return nil, err
	}
	id := b.nextID(service)
	p := b.register(id, onUpdate)
	call := model.PluginCall{CallbackID: id, Service: service, Action: action, Args: args}
	if err := b.send(ctx, call.Map()); err != nil {
		b.remove(id)
		return nil, err
	}
	return b.await(ctx, id, p)
}

// Call implements Transport. It still consumes a correlation id.
func (b *PluginBridge) Call(ctx context.Context, service, action string, args []any) error {
	if err := b.Init(ctx); err != nil {
		return err
	}
	call := model.PluginCall{CallbackID: b.nextID(service), Service: service, Action: action, Args: args}
	return b.send(ctx, call.Map())
}

func (b *PluginBridge) send(ctx context.Context, msg map[string]any) error {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	if !b.ready {
		b.queue = append(b.queue, msg)
		return nil
	}
	msg[model.KeyAntiCSRFToken] = b.token
	return b.port.Post(ctx, msg)
}

// acknowledge flushes the handshake queue on its own goroutine so a slow Post
// cannot stall the receive loop. Sends keep queueing until the flush holds
// sendMu, which keeps FIFO order.
func (b *PluginBridge) acknowledge(token string) {
	go b.flush(token)
}

func (b *PluginBridge) flush(token string) {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	if b.ready {
		b.token = token
		return
	}
	b.token = token
	b.ready = true
	queued := b.queue
	b.queue = nil
	for _, msg := range queued {
		msg[model.KeyAntiCSRFToken] = token
		if err := b.port.Post(context.Background(), msg); err != nil {
			id, _ := msg[model.KeyCallbackID].(string)
			b.logger.Error("flush queued plugin call", "callbackId", id, "error", err)
			b.reject(id, err)
		}
	}
	b.logger.Debug("host channel acknowledged", "flushed", len(queued))
}

func (b *PluginBridge) receiveLoop() {
	for {
		msg, err := b.port.Recv()
		if err != nil {
			b.logger.Debug("host channel ended", "error", err)
			b.failAll(fmt.Errorf("%w: %v", ErrClosed, err))
			return
		}
		b.handle(msg)
	}
}

func (b *PluginBridge) handle(msg map[string]any) {
	if token, ok := model.ParseAck(msg); ok {
		b.acknowledge(token)
		return
	}
	if resp, ok := model.ParseResponse(msg); ok {
		b.dispatch(resp)
	}
}
