package commands

import (
	"context"
	"fmt"

	"github.com/cruisemate/cruisemate/internal/roles"
	"github.com/spf13/cobra"
)

var menuRoles = []roles.Role{roles.Voyager, roles.HeadCook}

// NewMenuCmd creates the menu command
func NewMenuCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:       "menu <catering|stationery>",
		Short:     "Show the catering or stationery menu",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"catering", "stationery"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd.Context(), args[0], WithServerAlias(serverAlias), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias or URL (uses the selected server if not specified)")

	return cmd
}

func runMenu(ctx context.Context, category string, opts ...Option) error {
	e, err := authorize(opts, menuRoles...)
	if err != nil {
		return err
	}

	items, err := e.api.ListMenu(ctx, category)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Fprintf(e.out, "The %s menu is empty.\n", category)
		return nil
	}

	printItems(e.out, items)
	return nil
}

// NewOrderCmd creates the order command
func NewOrderCmd() *cobra.Command {
	var date, serverAlias string

	cmd := &cobra.Command{
		Use:       "order <catering|stationery>",
		Short:     "Place a catering or stationery order",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"catering", "stationery"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd.Context(), args[0], date, WithServerAlias(serverAlias), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Delivery date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias or URL (uses the selected server if not specified)")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func runOrder(ctx context.Context, category, date string, opts ...Option) error {
	if err := validateDate(date); err != nil {
		return err
	}

	e, err := authorize(opts, menuRoles...)
	if err != nil {
		return err
	}

	b, err := e.api.OrderFromMenu(ctx, category, date)
	if err != nil {
		return err
	}

	printBooking(e.out, "Placed", b)
	return nil
}
