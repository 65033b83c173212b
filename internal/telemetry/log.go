// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package telemetry sends runtime events to the host's telemetry plugin.
// Every send is fire-and-forget: it runs in its own goroutine, and a failure
// is only logged. A nil *Log is a valid sink that drops everything.
package telemetry

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"

	"powerdata/cli/internal/errors"
	"powerdata/cli/internal/executor"
)

// ServiceName is the host telemetry plugin.
const ServiceName = "PublishedAppTelemetry"

const (
	actionTrackEvent           = "trackEvent"
	actionTrackException       = "trackException"
	actionTrackMetric          = "trackMetric"
	actionStartScenario        = "startScenario"
	actionEndScenario          = "endScenario"
	actionSetDefaultProperties = "setDefaultProperties"

	namePrefix = "PowerDataRuntime."
)

// Log is the telemetry sink.
type Log struct {
	exec   executor.Executor
	logger *slog.Logger

	// ctx scopes every send; Close cancels it once the flush deadline passes.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New returns a Log sending through exec.
func New(exec executor.Executor, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Log{exec: exec, logger: logger, ctx: ctx, cancel: cancel}
}

// TrackEvent records a named event.
func (l *Log) TrackEvent(name string, data any) {
	l.send(actionTrackEvent, namePrefix+name, data)
}

// TrackException records an error.
func (l *Log) TrackException(err error) {
	if err == nil {
		return
	}
	l.send(actionTrackException, exception(err))
}

// TrackMetric records a numeric metric.
func (l *Log) TrackMetric(name string, value float64) {
	l.send(actionTrackMetric, namePrefix+name, value)
}

func (l *Log) StartScenario(name string) { l.send(actionStartScenario, namePrefix+name) }

func (l *Log) EndScenario(name string) { l.send(actionEndScenario, namePrefix+name) }

// SetDefaultProperties sets properties attached to every later event.
func (l *Log) SetDefaultProperties(props map[string]any) {
	l.send(actionSetDefaultProperties, props)
}

// Raise tracks err and returns it unchanged, so call sites can write
// `return log.Raise(errors.New(...))`.
func (l *Log) Raise(err error) error {
	l.TrackException(err)
	return err
}

// Wait blocks until all in-flight sends have finished. It does not stop new
// sends; use Close at shutdown.
func (l *Log) Wait() {
	if l == nil {
		return
	}
	l.wg.Wait()
}

// Close stops accepting sends and gives in-flight ones until ctx is done to
// finish. Sends still pending after that are cancelled and not waited for.
func (l *Log) Close(ctx context.Context) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		l.logger.Debug("telemetry flush abandoned", "error", ctx.Err())
	}
	l.cancel()
}

func (l *Log) send(action string, args ...any) {
	if l == nil || l.exec == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		res, err := l.exec.Execute(l.ctx, ServiceName, action, args)
		if err != nil {
			l.logger.Error("PowerDataRuntime.TelemetryLogger: Failed to send telemetry message.", "action", action, "error", err)
			return
		}
		if !res.Success {
			l.logger.Error("PowerDataRuntime.TelemetryLogger: Failed to send telemetry message.", "action", action, "error", res.Error)
		}
	}()
}

// exception renders err in the shape the host expects for exceptions.
func exception(err error) map[string]any {
	out := map[string]any{"name": "Error", "message": err.Error()}
	var e *errors.E
	if stderrors.As(err, &e) {
		out["name"] = "PowerDataRuntimeError"
		out["code"] = string(e.Code)
	}
	return out
}
