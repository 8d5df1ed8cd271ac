package commands

import (
	"context"
	"fmt"

	"github.com/cruisemate/cruisemate/internal/cli/client"
	"github.com/cruisemate/cruisemate/internal/roles"
	"github.com/spf13/cobra"
)

// NewItemsCmd creates the items command group (admin)
func NewItemsCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage catering and stationery items (admin)",
	}
	cmd.PersistentFlags().StringVar(&serverAlias, "server", "", "Server alias or URL (uses the selected server if not specified)")

	opts := func(cmd *cobra.Command) []Option {
		return []Option{WithServerAlias(serverAlias), WithOutput(cmd.OutOrStdout())}
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemsList(cmd.Context(), opts(cmd)...)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemsGet(cmd.Context(), args[0], opts(cmd)...)
		},
	})

	create := &cobra.Command{
		Use:   "create",
		Short: "Add an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemsCreate(cmd.Context(), itemInputFromFlags(cmd), opts(cmd)...)
		},
	}
	addItemFlags(create)
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("category")
	_ = create.MarkFlagRequired("price")
	cmd.AddCommand(create)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an item; only the given fields are updated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemsUpdate(cmd.Context(), args[0], itemInputFromFlags(cmd), opts(cmd)...)
		},
	}
	addItemFlags(update)
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemsDelete(cmd.Context(), args[0], opts(cmd)...)
		},
	})

	return cmd
}

func addItemFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Item name")
	cmd.Flags().String("description", "", "Item description")
	cmd.Flags().String("category", "", "Category: catering or stationery")
	cmd.Flags().Float64("price", 0, "Price")
}

// itemInputFromFlags keeps only the flags the user set so updates stay partial
func itemInputFromFlags(cmd *cobra.Command) client.ItemInput {
	var in client.ItemInput
	flags := cmd.Flags()
	if flags.Changed("name") {
		v, _ := flags.GetString("name")
		in.Name = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		in.Description = &v
	}
	if flags.Changed("category") {
		v, _ := flags.GetString("category")
		in.Category = &v
	}
	if flags.Changed("price") {
		v, _ := flags.GetFloat64("price")
		in.Price = &v
	}
	return in
}

func validateItem(in client.ItemInput) error {
	if in.Category != nil && !client.ValidCategory(*in.Category) {
		return fmt.Errorf("invalid category %q (expected %s or %s)", *in.Category, client.CategoryCatering, client.CategoryStationery)
	}
	if in.Price != nil && *in.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if in.Name != nil && *in.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	return nil
}

func runItemsList(ctx context.Context, opts ...Option) error {
	e, err := authorize(opts, roles.Admin)
	if err != nil {
		return err
	}

	items, err := e.api.ListItems(ctx)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(e.out, "No items found.")
		fmt.Fprintln(e.out, "\nAdd one with: cruisemate items create --name Pasta --category catering --price 12.50")
		return nil
	}

	printItems(e.out, items)
	return nil
}

func runItemsGet(ctx context.Context, id string, opts ...Option) error {
	e, err := authorize(opts, roles.Admin)
	if err != nil {
		return err
	}

	item, err := e.api.GetItem(ctx, id)
	if err != nil {
		return err
	}

	printItem(e.out, item)
	return nil
}

func runItemsCreate(ctx context.Context, in client.ItemInput, opts ...Option) error {
	if in.Name == nil || in.Category == nil || in.Price == nil {
		return fmt.Errorf("name, category and price are required")
	}
	if err := validateItem(in); err != nil {
		return err
	}

	e, err := authorize(opts, roles.Admin)
	if err != nil {
		return err
	}

	item, err := e.api.CreateItem(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "✓ Created item %s (%s)\n", item.Name, item.ID)
	return nil
}

func runItemsUpdate(ctx context.Context, id string, in client.ItemInput, opts ...Option) error {
	if in == (client.ItemInput{}) {
		return fmt.Errorf("nothing to update (use --name, --description, --category or --price)")
	}
	if err := validateItem(in); err != nil {
		return err
	}

	e, err := authorize(opts, roles.Admin)
	if err != nil {
		return err
	}

	item, err := e.api.UpdateItem(ctx, id, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "✓ Updated item %s (%s)\n", item.Name, item.ID)
	return nil
}

func runItemsDelete(ctx context.Context, id string, opts ...Option) error {
	e, err := authorize(opts, roles.Admin)
	if err != nil {
		return err
	}

	if err := e.api.DeleteItem(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "✓ Deleted item %s\n", id)
	return nil
}
