// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"sort"
	"strings"

	"powerdata/cli/internal/manifest"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// sourcesCmd lists the tables declared in the manifest.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the app's data sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manifest.Get(cmd.Context(), cfg.App.DataSources)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(m.DataSources)
		}

		data := pterm.TableData{{"Table", "Kind", "Table id", "Operations"}}
		for _, t := range m.Tables() {
			ops := make([]string, 0, len(t.Info.APIs))
			for name := range t.Info.APIs {
				ops = append(ops, name)
			}
			sort.Strings(ops)
			data = append(data, []string{t.Name, manifest.Kind(t.Info), t.Info.TableID, strings.Join(ops, ", ")})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
