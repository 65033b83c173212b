// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"powerdata/cli/internal/app"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// monitorCmd streams app-monitor metrics pushed by the host.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stream app monitor metrics until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		metrics := app.MetricLoggerFunc(func(m app.Metric) {
			if jsonOutput {
				_ = printJSON(m)
				return
			}
			pterm.Println(formatMetric(m))
		})
		s, err := openSession(ctx, sessionOptions{metrics: metrics})
		if err != nil {
			return err
		}
		defer s.close()

		op, err := s.app.Monitor(ctx)
		if err != nil {
			return err
		}
		if op == nil {
			pterm.Warning.Printfln("The host has no compatible %s (need %s)", app.MonitorReceiver, app.MonitorVersion)
			return nil
		}
		pterm.Info.Println("Streaming app monitor metrics, press Ctrl+C to stop")

		select {
		case <-op.Done():
			_, err := op.Wait(ctx)
			return err
		case <-ctx.Done():
			return nil
		}
	},
}

// formatMetric renders a metric as "name key=value ...".
func formatMetric(m app.Metric) string {
	name := ""
	for _, k := range []string{"name", "eventName", "type"} {
		if v, ok := m[k].(string); ok && v != "" {
			name = v
			break
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "name" && k != "eventName" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys)+1)
	if name != "" {
		parts = append(parts, pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(name))
	}
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, cell(m[k])))
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
