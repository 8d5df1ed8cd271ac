package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cruisemate/cruisemate/internal/cli/client"
	"github.com/cruisemate/cruisemate/internal/roles"
	"github.com/spf13/cobra"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var email, password, username, serverAlias string

	cmd := &cobra.Command{
		Use:   "register <role>",
		Short: "Create an account",
		Long: `Create an account with one of the roles:
voyager, admin, manager, headcook (head_cook), supervisor.

Examples:
  $ cruisemate register voyager --email guest@example.com
  $ cruisemate register head_cook --email cook@example.com --username chef`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: roleSlugs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), args[0], client.RegisterRequest{
				Email:    email,
				Username: username,
				Password: password,
			}, WithServerAlias(serverAlias), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CRUISEMATE_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&username, "username", "", "Username (defaults to the part of the email before @)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias or URL (uses the selected server if not specified)")

	return cmd
}

func runRegister(ctx context.Context, rawRole string, req client.RegisterRequest, opts ...Option) error {
	role, ok := roles.Parse(rawRole)
	if !ok {
		return fmt.Errorf("unknown role %q (expected one of: %s)", rawRole, strings.Join(roleSlugs(), ", "))
	}
	if req.Email == "" {
		return fmt.Errorf("email is required (use --email flag)")
	}
	if req.Password == "" {
		req.Password = os.Getenv("CRUISEMATE_PASSWORD")
	}

	e, err := newOptions(opts).resolve()
	if err != nil {
		return err
	}

	if req.Password == "" {
		req.Password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	resp, err := e.api.Register(ctx, role, req)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	msg := resp.Message
	if msg == "" {
		msg = "Registered successfully"
	}
	fmt.Fprintf(e.out, "✓ %s\n", msg)
	if id := resp.ID(); id != "" {
		fmt.Fprintf(e.out, "  User ID: %s\n", id)
	}
	fmt.Fprintln(e.out, "\nRun 'cruisemate login' to sign in.")

	return nil
}

func roleSlugs() []string {
	slugs := make([]string, len(roles.All))
	for i, r := range roles.All {
		slugs[i] = r.Backend()
	}
	return slugs
}
