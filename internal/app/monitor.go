// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package app

import (
	"context"
	"fmt"

	"powerdata/cli/internal/sendmessage"

	"github.com/goccy/go-json"
)

// App monitor receiver registered by the host.
const (
	MonitorReceiver = "PowerApps.AppMonitorReceiver"
	MonitorVersion  = "1.0.0"
	monitorMessage  = "initialize"
)

// Metric is one app-monitor metric as pushed by the host.
type Metric map[string]any

// MetricLogger receives app-monitor metrics.
type MetricLogger interface {
	LogMetric(m Metric)
}

// MetricLoggerFunc adapts a function to MetricLogger.
type MetricLoggerFunc func(Metric)

func (f MetricLoggerFunc) LogMetric(m Metric) { f(m) }

// monitor tracks the app-monitor subscription started by Initialize.
type monitor struct {
	done chan struct{}
	op   *sendmessage.Operation
	err  error
}

// startMonitor subscribes logger to the host's app monitor in the background.
func (a *App) startMonitor(logger MetricLogger) *monitor {
	m := &monitor{done: make(chan struct{})}
	go func() {
		defer close(m.done)
		m.op, m.err = a.subscribe(a.background, logger)
		if m.err != nil {
			a.logger.Warn("app monitor unavailable", "error", m.err)
		}
	}()
	return m
}

func (a *App) subscribe(ctx context.Context, logger MetricLogger) (*sendmessage.Operation, error) {
	plugin := sendmessage.New(a.transport, a.logger)
	r, err := plugin.Receiver(ctx, MonitorReceiver, func(v string) (bool, string) {
		return v == MonitorVersion, ""
	})
	if err != nil {
		return nil, err
	}
	c, ok := r.(*sendmessage.Compatible)
	if !ok {
		a.logger.Debug("app monitor receiver not compatible", "version", r.Version())
		return nil, nil
	}
	return c.SendMessage(ctx, monitorMessage, func(msg any) error {
		metrics, err := parseMetrics(msg)
		if err != nil {
			a.logger.Warn("unreadable app monitor message", "error", err)
			return err
		}
		for _, metric := range metrics {
			logger.LogMetric(metric)
		}
		return nil
	})
}

// parseMetrics decodes a monitor message of the form {"metrics":[...]}.
func parseMetrics(msg any) ([]Metric, error) {
	var raw []byte
	switch v := msg.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return nil, fmt.Errorf("app monitor message is %T, want JSON text", msg)
	}
	var parsed struct {
		Metrics []Metric `json:"metrics"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse app monitor message: %w", err)
	}
	return parsed.Metrics, nil
}

// Monitor waits for the app-monitor subscription and returns its operation.
// The operation is nil when no logger was given or the host has no
// compatible receiver.
func (a *App) Monitor(ctx context.Context) (*sendmessage.Operation, error) {
	if err := a.waitReady(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	m := a.monitor
	a.mu.Unlock()
	if m == nil {
		return nil, nil
	}
	select {
	case <-m.done:
		return m.op, m.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
