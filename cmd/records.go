// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"

	"powerdata/cli/internal/app"
	"powerdata/cli/internal/model"
	"powerdata/cli/internal/query"

	"github.com/spf13/cobra"
)

var (
	recSelect      []string
	recFilter      string
	recOrderBy     []string
	recTop         int
	recSkip        int
	recCount       bool
	recSkipToken   string
	recMaxPageSize int
	recData        string
)

// recordsCmd groups the record operations.
var recordsCmd = &cobra.Command{
	Use:     "records",
	Aliases: []string{"rec"},
	Short:   "Create, read, update and delete records of a data source",
}

var recordsListCmd = &cobra.Command{
	Use:   "list <table>",
	Short: "Retrieve one page of records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := listOptions(cmd)
		return withClient(cmd, "list "+args[0], func(ctx context.Context, c *app.Client) (model.OperationResult, error) {
			return c.RetrieveMultipleRecords(ctx, args[0], opts)
		})
	},
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <table> <id>",
	Short: "Retrieve one record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts *query.Options
		if len(recSelect) > 0 {
			opts = &query.Options{Select: recSelect}
		}
		return withClient(cmd, "get "+args[0]+"/"+args[1], func(ctx context.Context, c *app.Client) (model.OperationResult, error) {
			return c.RetrieveRecord(ctx, args[0], args[1], opts)
		})
	},
}

var recordsCreateCmd = &cobra.Command{
	Use:   "create <table> --data JSON",
	Short: "Create a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		record, err := parseObject(recData)
		if err != nil {
			return err
		}
		return withClient(cmd, "create "+args[0], func(ctx context.Context, c *app.Client) (model.OperationResult, error) {
			return c.CreateRecord(ctx, args[0], record)
		})
	},
}

var recordsUpdateCmd = &cobra.Command{
	Use:   "update <table> <id> --data JSON",
	Short: "Update fields of a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		changes, err := parseObject(recData)
		if err != nil {
			return err
		}
		return withClient(cmd, "update "+args[0]+"/"+args[1], func(ctx context.Context, c *app.Client) (model.OperationResult, error) {
			return c.UpdateRecord(ctx, args[0], args[1], changes)
		})
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <table> <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, "delete "+args[0]+"/"+args[1], func(ctx context.Context, c *app.Client) (model.OperationResult, error) {
			return c.DeleteRecord(ctx, args[0], args[1])
		})
	},
}

// listOptions builds query options from the flags that were set.
func listOptions(cmd *cobra.Command) *query.Options {
	flags := cmd.Flags()
	opts := &query.Options{
		Select:    recSelect,
		Filter:    recFilter,
		OrderBy:   recOrderBy,
		SkipToken: recSkipToken,
	}
	if flags.Changed("top") {
		opts.Top = query.Int(recTop)
	}
	if flags.Changed("skip") {
		opts.Skip = query.Int(recSkip)
	}
	if flags.Changed("count") {
		opts.Count = query.Bool(recCount)
	}
	if flags.Changed("max-page-size") {
		opts.MaxPageSize = query.Int(recMaxPageSize)
	}
	return opts
}

// withClient opens a session with the manifest, runs fn and prints its result.
func withClient(cmd *cobra.Command, operation string, fn func(context.Context, *app.Client) (model.OperationResult, error)) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, sessionOptions{withManifest: true})
	if err != nil {
		return err
	}
	defer s.close()

	res, err := fn(ctx, s.client())
	if err != nil {
		return err
	}
	return printResult(operation, res)
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd, recordsGetCmd, recordsCreateCmd, recordsUpdateCmd, recordsDeleteCmd)

	lf := recordsListCmd.Flags()
	lf.StringSliceVar(&recSelect, "select", nil, "Fields to return")
	lf.StringVar(&recFilter, "filter", "", "OData filter expression")
	lf.StringSliceVar(&recOrderBy, "orderby", nil, "Sort expressions, e.g. 'name desc'")
	lf.IntVar(&recTop, "top", 0, "Maximum number of records")
	lf.IntVar(&recSkip, "skip", 0, "Number of records to skip")
	lf.BoolVar(&recCount, "count", false, "Include the total record count")
	lf.StringVar(&recSkipToken, "skiptoken", "", "Continuation token from a previous page")
	lf.IntVar(&recMaxPageSize, "max-page-size", 0, "Page size requested from Dataverse")

	recordsGetCmd.Flags().StringSliceVar(&recSelect, "select", nil, "Fields to return")
	recordsCreateCmd.Flags().StringVar(&recData, "data", "", "Record as a JSON object, or - for stdin")
	recordsUpdateCmd.Flags().StringVar(&recData, "data", "", "Changes as a JSON object, or - for stdin")
	_ = recordsCreateCmd.MarkFlagRequired("data")
	_ = recordsUpdateCmd.MarkFlagRequired("data")
}
