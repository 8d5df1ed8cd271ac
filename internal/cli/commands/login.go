package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cruisemate/cruisemate/internal/cli/session"
	"github.com/cruisemate/cruisemate/internal/roles"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password, serverAlias string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a CruiseMate server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), email, password,
				WithServerAlias(serverAlias),
				WithOutput(cmd.OutOrStdout()),
			)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set CRUISEMATE_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CRUISEMATE_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias or URL (uses the selected server if not specified)")

	return cmd
}

func runLogin(ctx context.Context, email, password string, opts ...Option) error {
	// Environment variables are useful for CI/CD
	if email == "" {
		email = os.Getenv("CRUISEMATE_EMAIL")
	}
	if password == "" {
		password = os.Getenv("CRUISEMATE_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or CRUISEMATE_EMAIL env var)")
	}

	e, err := newOptions(opts).resolve()
	if err != nil {
		return err
	}

	if password == "" {
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(e.out, "Logging in to %s...\n", e.manager.Server())

	s, err := e.manager.Login(ctx, session.Credentials{Email: email, Password: password})
	if err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			return fmt.Errorf("login failed: %s", authErr.Message)
		}
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(e.out, "✓ Login successful!")
	if s.Username != "" || s.Email != "" {
		fmt.Fprintf(e.out, "  User: %s (%s)\n", s.Username, s.Email)
	}
	fmt.Fprintf(e.out, "  Role: %s\n", s.Role)
	fmt.Fprintf(e.out, "  Dashboard: %s\n", roles.DashboardPath(s.Role))

	return nil
}

// promptPassword reads a password from the terminal without echo
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or CRUISEMATE_PASSWORD env var)")
	}

	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
