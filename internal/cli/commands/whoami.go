package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(time.Now(), WithServerAlias(serverAlias), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias or URL (uses the selected server if not specified)")

	return cmd
}

func runWhoami(now time.Time, opts ...Option) error {
	e, err := authorize(opts)
	if err != nil {
		return err
	}

	s, _ := e.manager.Current()

	fmt.Fprintf(e.out, "Server:   %s\n", e.manager.Server())
	if s.Username != "" {
		fmt.Fprintf(e.out, "User:     %s\n", s.Username)
	}
	if s.Email != "" {
		fmt.Fprintf(e.out, "Email:    %s\n", s.Email)
	}
	if s.UserID != "" {
		fmt.Fprintf(e.out, "User ID:  %s\n", s.UserID)
	}
	fmt.Fprintf(e.out, "Role:     %s\n", s.Role)

	switch exp := s.ExpiresAt(); {
	case exp.IsZero():
		fmt.Fprintln(e.out, "Access:   expiry unknown")
	case s.Expired(now):
		fmt.Fprintln(e.out, "Access:   expired (will refresh on next request)")
	default:
		fmt.Fprintf(e.out, "Access:   expires in %s\n", exp.Sub(now).Round(time.Second))
	}

	return nil
}
