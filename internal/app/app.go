// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package app is the public surface of a Code App session: one-time
// initialization against the host, the user context, and the data client
// bound to the app's data sources.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"powerdata/cli/internal/backend"
	"powerdata/cli/internal/bridge"
	"powerdata/cli/internal/executor"
	"powerdata/cli/internal/powerdata"

	"github.com/goccy/go-json"
)

// Host lifecycle plugin.
const (
	LifecycleService           = "AppLifecycle"
	ActionNotifyAppIndexLoaded = "notifyAppIndexLoaded"
	ActionNotifyAppLoaded      = "notifyAppLoaded"
	ActionGetContext           = "getContext"
)

// Options configure Initialize.
type Options struct {
	// Logger receives app-monitor metrics pushed by the host.
	Logger MetricLogger
	// Executor, when set, serves every data operation instead of the
	// built-in Dataverse and connector executors.
	Executor backend.Executor
}

// App is one app session over a host transport.
type App struct {
	transport bridge.Transport
	logger    *slog.Logger
	origin    time.Time

	mu          sync.Mutex
	initialized bool
	ready       chan struct{}
	exec        *executor.OperationExecutor
	override    backend.Executor
	monitor     *monitor

	// background outlives the Initialize caller's context; Close cancels it.
	background context.Context
	cancel     context.CancelFunc

	ctxMu   sync.Mutex
	userCtx *Context

	rtMu    sync.Mutex
	runtime *powerdata.Runtime

	// flushTimeout bounds how long Close waits for telemetry still in flight.
	flushTimeout time.Duration
}

// DefaultFlushTimeout is how long Close lets pending telemetry finish.
const DefaultFlushTimeout = 2 * time.Second

// New returns an uninitialized App over t.
func New(t bridge.Transport, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	bg, cancel := context.WithCancel(context.Background())
	return &App{
		transport:    t,
		logger:       logger,
		origin:       time.Now(),
		ready:        make(chan struct{}),
		background:   bg,
		cancel:       cancel,
		flushTimeout: DefaultFlushTimeout,
	}
}

// Initialize connects to the host and announces the app. Only the first
// successful call has any effect; a failed call may be retried.
func (a *App) Initialize(ctx context.Context, opts Options) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return nil
	}

	start := time.Now()
	if err := a.transport.Init(ctx); err != nil {
		return err
	}
	a.exec = executor.New(a.transport)
	a.override = opts.Executor

	if opts.Logger != nil {
		a.monitor = a.startMonitor(opts.Logger)
	}

	a.notify(ctx, ActionNotifyAppIndexLoaded, []any{})
	a.notify(ctx, ActionNotifyAppLoaded, []any{a.performanceData(start), map[string]any{}, ""})

	a.initialized = true
	close(a.ready)
	a.logger.Debug("app initialized", "duration", time.Since(start))
	return nil
}

// Ready is closed once Initialize has succeeded.
func (a *App) Ready() <-chan struct{} { return a.ready }

// Close stops background work started by Initialize. Telemetry still in
// flight gets up to the flush timeout; the host may never answer it.
func (a *App) Close() error {
	a.cancel()
	a.rtMu.Lock()
	rt := a.runtime
	a.rtMu.Unlock()
	if rt != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.flushTimeout)
		defer cancel()
		rt.Telemetry().Close(ctx)
	}
	return nil
}

func (a *App) notify(ctx context.Context, action string, args []any) {
	if err := a.transport.Call(ctx, LifecycleService, action, args); err != nil {
		a.logger.Warn("lifecycle notification failed", "action", action, "error", err)
	}
}

// performanceData is the JSON payload of notifyAppLoaded.
func (a *App) performanceData(start time.Time) string {
	perf := map[string]any{
		"appTimeOrigin":   float64(a.origin.UnixMicro()) / 1000,
		"appInitStart":    millisSince(a.origin, start),
		"appInitDuration": millisSince(start, time.Now()),
	}
	b, err := json.Marshal(perf)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func millisSince(from, to time.Time) float64 {
	return float64(to.Sub(from).Microseconds()) / 1000
}

// waitReady blocks until Initialize has succeeded.
func (a *App) waitReady(ctx context.Context) error {
	select {
	case <-a.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
