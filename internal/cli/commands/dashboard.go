package commands

import (
	"context"
	"fmt"

	"github.com/cruisemate/cruisemate/internal/roles"
	"github.com/spf13/cobra"
)

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show the landing data for your role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), WithServerAlias(serverAlias), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias or URL (uses the selected server if not specified)")

	return cmd
}

func runDashboard(ctx context.Context, opts ...Option) error {
	e, err := authorize(opts)
	if err != nil {
		return err
	}

	s, _ := e.manager.Current()
	if !s.Role.Known() {
		return fmt.Errorf("access denied for role '%s' (see %s)", s.Role, roles.UnauthorizedPath)
	}

	d, err := e.api.Dashboard(ctx, s.Role)
	if err != nil {
		return err
	}

	name := s.Username
	if name == "" {
		name = s.Email
	}
	fmt.Fprintf(e.out, "%s dashboard (%s)\n", s.Role, roles.DashboardPath(s.Role))
	if name != "" {
		fmt.Fprintf(e.out, "Signed in as %s\n", name)
	}
	fmt.Fprintln(e.out)

	switch {
	case len(d.Items) > 0:
		printItems(e.out, d.Items)
	case len(d.Bookings) > 0:
		printBookings(e.out, d.Bookings)
	default:
		fmt.Fprintln(e.out, "Nothing to show yet.")
	}

	return nil
}
