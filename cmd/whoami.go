package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// whoamiCmd prints the user context reported by the host.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the user signed in to the app host",
	Long: `The whoami command opens the host channel and prints the user context the
host reports for the running app: display name, principal name, object id
and tenant id.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, sessionOptions{})
		if err != nil {
			return err
		}
		defer s.close()

		c, err := s.app.Context(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(c)
		}

		fmt.Printf("👤 Current user: %s\n", c.User.FullName)
		return pterm.DefaultTable.WithData(pterm.TableData{
			{"Principal", c.User.UserPrincipalName},
			{"Object id", c.User.ObjectID},
			{"Tenant id", c.User.TenantID},
		}).Render()
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
