package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/cruisemate/cruisemate/internal/cli/commands"
	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the cruisemate command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cruisemate",
		Short: "CruiseMate - cruise ship bookings and orders",
		Long: `CruiseMate CLI - Book activities, order from the ship's menus and
manage items, depending on your role on board.

Roles: voyager, admin, manager, headcook, supervisor.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cruisemate version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewContactCmd())
	rootCmd.AddCommand(commands.NewMenuCmd())
	rootCmd.AddCommand(commands.NewOrderCmd())
	rootCmd.AddCommand(commands.NewBookingsCmd())
	rootCmd.AddCommand(commands.NewItemsCmd())
	rootCmd.AddCommand(commands.NewDashboardCmd())

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
