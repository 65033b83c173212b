// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"powerdata/cli/internal/config"
	"powerdata/cli/internal/keychain"
	"powerdata/cli/internal/terminal"

	"github.com/spf13/cobra"
)

// connectCmd stores and verifies the host address and session token.
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Configure and verify the app host connection",
	Long: `The connect command prompts for the app host address and its session token,
verifies them by opening the host channel and reading the user context, then
stores the address in the config file and the token in the OS keychain.

Address formats: host:port, grpc://host:port (plaintext), grpcs://host (TLS).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)

		addr := cfg.Host.Address
		if addr == "" {
			prompt := "Enter app host address (e.g., grpc://localhost:50051): "
			fmt.Print(prompt)
			line, _ := reader.ReadString('\n')
			addr = strings.TrimSpace(line)
		}
		if addr == "" {
			return errors.New("host address is required")
		}

		prompt := "Enter host session token (leave empty for a local host): "
		fmt.Print(prompt)
		token, _ := reader.ReadString('\n')
		token = strings.TrimSpace(token)
		terminal.ClearPreviousLines(len(prompt) + len(token))

		cfg.Host.Address = addr
		if _, insecure := cfg.Host.Target(); token == "" && !insecure {
			return errors.New("a session token is required for TLS hosts")
		}

		stop := startInlineSpinner(os.Stdout, "verifying host connection", spinnerFrames, 100*time.Millisecond)
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		user, err := verifyHost(ctx, token)
		stop()
		if err != nil {
			fmt.Println("❌ Connection failed. Please check the address and token.")
			return err
		}

		if token != "" {
			store, err := keychain.Default()
			if err != nil {
				fmt.Println("❌ Secure storage is not available on this system.")
				fmt.Println("   Connection verified but not saved.")
				return err
			}
			if err := store.SaveToken(addr, token); err != nil {
				fmt.Println("❌ Failed to save the session token securely.")
				return err
			}
		}

		stored, err := config.Load()
		if err != nil {
			return err
		}
		stored.Host.Address = addr
		stored.Host.Insecure = cfg.Host.Insecure
		if err := config.Save(stored); err != nil {
			return err
		}

		fmt.Printf("✅ Connected to %s as %s\n", addr, user)
		return nil
	},
}

// verifyHost opens a session with token and returns the signed-in user.
func verifyHost(ctx context.Context, token string) (string, error) {
	s, err := openSession(ctx, sessionOptions{token: token})
	if err != nil {
		return "", err
	}
	defer s.close()

	c, err := s.app.Context(ctx)
	if err != nil {
		return "", err
	}
	if c.User.UserPrincipalName != "" {
		return c.User.UserPrincipalName, nil
	}
	return c.User.FullName, nil
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
