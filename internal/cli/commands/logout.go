package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session for a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(WithServerAlias(serverAlias), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias or URL (uses the selected server if not specified)")

	return cmd
}

func runLogout(opts ...Option) error {
	e, err := newOptions(opts).resolve()
	if err != nil {
		return err
	}

	if err := e.manager.Logout(); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "✓ Logged out of %s\n", e.manager.Server())
	return nil
}
