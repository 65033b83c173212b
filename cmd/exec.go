// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"

	"powerdata/cli/internal/app"
	"powerdata/cli/internal/model"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	execTable           string
	execOperation       string
	execParams          string
	execDataverseAction string
)

// execCmd runs a custom connector operation or Dataverse action.
var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run a connector operation or a Dataverse action",
	Long: `The exec command runs a custom operation declared in the manifest.

  powerdata exec --table orders --operation GetOrdersByStatus --params '{"status":"open"}'
  powerdata exec --dataverse-action getEntityMetadata --table accounts

--params accepts a JSON object (bound by parameter name), array (bound by
position) or string (bound to the first required parameter).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := buildOperation()
		if err != nil {
			return err
		}
		return withClient(cmd, "exec", func(ctx context.Context, c *app.Client) (model.OperationResult, error) {
			return c.Execute(ctx, op)
		})
	},
}

// buildOperation turns the flags into an Operation.
func buildOperation() (*model.Operation, error) {
	var params any
	if execParams != "" {
		if err := json.Unmarshal([]byte(execParams), &params); err != nil {
			return nil, fmt.Errorf("invalid --params: %w", err)
		}
	}

	if execDataverseAction != "" {
		p, _ := params.(map[string]any)
		if params != nil && p == nil {
			return nil, errors.New("--params must be a JSON object for Dataverse actions")
		}
		if p == nil {
			p = map[string]any{}
		}
		if execTable != "" {
			p["tableName"] = execTable
		}
		return &model.Operation{DataverseRequest: &model.DataverseRequest{Action: execDataverseAction, Parameters: p}}, nil
	}

	if execTable == "" || execOperation == "" {
		return nil, errors.New("--table and --operation are required for connector operations")
	}
	return &model.Operation{ConnectorOperation: &model.ConnectorOperation{
		TableName:     execTable,
		OperationName: execOperation,
		Parameters:    params,
	}}, nil
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVar(&execTable, "table", "", "Table that declares the operation")
	execCmd.Flags().StringVar(&execOperation, "operation", "", "Connector operation name")
	execCmd.Flags().StringVar(&execParams, "params", "", "Operation parameters as JSON")
	execCmd.Flags().StringVar(&execDataverseAction, "dataverse-action", "", "Dataverse action to run instead of a connector operation")
}
