package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cruisemate/cruisemate/internal/cli/client"
)

// NewContactCmd creates the contact command
func NewContactCmd() *cobra.Command {
	var name, email, serverAlias string

	cmd := &cobra.Command{
		Use:     "contact <message>",
		Short:   "Send a message to the cruise line",
		Example: `  $ cruisemate contact --name Ada --email ada@example.com "Is the spa open late?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContact(cmd.Context(), client.ContactMessage{
				Name:    name,
				Email:   email,
				Message: strings.Join(args, " "),
			}, WithServerAlias(serverAlias), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Your name")
	cmd.Flags().StringVar(&email, "email", "", "Email address for the reply")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias or URL (uses the selected server if not specified)")

	return cmd
}

func runContact(ctx context.Context, msg client.ContactMessage, opts ...Option) error {
	if msg.Name == "" {
		return fmt.Errorf("name is required (use --name flag)")
	}
	if msg.Email == "" {
		return fmt.Errorf("email is required (use --email flag)")
	}

	e, err := newOptions(opts).resolve()
	if err != nil {
		return err
	}

	resp, err := e.api.Contact(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	fmt.Fprintf(e.out, "✓ %s\n", resp.Message)
	return nil
}
