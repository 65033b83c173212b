// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"powerdata/cli/internal/config"
	"powerdata/cli/internal/keychain"

	"github.com/spf13/cobra"
)

// logoutCmd forgets the host connection.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored host session token and address",
	Long: `The logout command removes the host session token from the OS keychain and
clears the host address from the config file. The data-sources setting is kept.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		stored, err := config.Load()
		if err != nil {
			return err
		}
		if stored.Host.Address != "" {
			if store, err := keychain.Default(); err == nil {
				if err := store.ForgetToken(stored.Host.Address); err != nil {
					logger.Warn("could not remove session token", "host", stored.Host.Address, "error", err)
				}
			}
		}
		stored.Host = config.HostConfig{}
		if err := config.Save(stored); err != nil {
			return err
		}

		fmt.Println("✅ Host session token and address have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
