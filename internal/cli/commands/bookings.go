package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cruisemate/cruisemate/internal/cli/client"
	"github.com/cruisemate/cruisemate/internal/roles"
	"github.com/spf13/cobra"
)

var (
	bookingTypes    = []string{"resort", "movie", "salon", "fitness", "party", "catering", "stationery"}
	bookingStatuses = []string{"pending", "confirmed", "cancelled"}
)

// NewBookingsCmd creates the bookings command group
func NewBookingsCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Manage bookings",
	}
	cmd.PersistentFlags().StringVar(&serverAlias, "server", "", "Server alias or URL (uses the selected server if not specified)")

	opts := func(cmd *cobra.Command) []Option {
		return []Option{WithServerAlias(serverAlias), WithOutput(cmd.OutOrStdout())}
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsList(cmd.Context(), opts(cmd)...)
		},
	})

	var in client.BookingInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Book an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsCreate(cmd.Context(), in, opts(cmd)...)
		},
	}
	create.Flags().StringVar(&in.Type, "type", "", "Booking type: "+strings.Join(bookingTypes, ", "))
	create.Flags().StringVar(&in.Date, "date", "", "Date (YYYY-MM-DD)")
	_ = create.MarkFlagRequired("type")
	_ = create.MarkFlagRequired("date")
	cmd.AddCommand(create)

	var upd client.BookingInput
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change one of your bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsUpdate(cmd.Context(), args[0], upd, opts(cmd)...)
		},
	}
	update.Flags().StringVar(&upd.Type, "type", "", "Booking type")
	update.Flags().StringVar(&upd.Date, "date", "", "Date (YYYY-MM-DD)")
	update.Flags().StringVar(&upd.Status, "status", "", "Status: "+strings.Join(bookingStatuses, ", "))
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Cancel and remove one of your bookings",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsDelete(cmd.Context(), args[0], opts(cmd)...)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "List every booking (manager)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsAll(cmd.Context(), opts(cmd)...)
		},
	})

	return cmd
}

func runBookingsList(ctx context.Context, opts ...Option) error {
	e, err := authorize(opts, menuRoles...)
	if err != nil {
		return err
	}

	bookings, err := e.api.ListBookings(ctx)
	if err != nil {
		return err
	}

	if len(bookings) == 0 {
		fmt.Fprintln(e.out, "No bookings found.")
		fmt.Fprintln(e.out, "\nBook an activity with: cruisemate bookings create --type movie --date 2026-01-01")
		return nil
	}

	printBookings(e.out, bookings)
	return nil
}

func runBookingsCreate(ctx context.Context, in client.BookingInput, opts ...Option) error {
	if err := validateBooking(in, true); err != nil {
		return err
	}

	e, err := authorize(opts, menuRoles...)
	if err != nil {
		return err
	}

	b, err := e.api.CreateBooking(ctx, in)
	if err != nil {
		return err
	}

	printBooking(e.out, "Created", b)
	return nil
}

func runBookingsUpdate(ctx context.Context, id string, in client.BookingInput, opts ...Option) error {
	if in == (client.BookingInput{}) {
		return fmt.Errorf("nothing to update (use --type, --date or --status)")
	}
	if err := validateBooking(in, false); err != nil {
		return err
	}

	e, err := authorize(opts, menuRoles...)
	if err != nil {
		return err
	}

	b, err := e.api.UpdateBooking(ctx, id, in)
	if err != nil {
		return err
	}

	printBooking(e.out, "Updated", b)
	return nil
}

func runBookingsDelete(ctx context.Context, id string, opts ...Option) error {
	e, err := authorize(opts, menuRoles...)
	if err != nil {
		return err
	}

	if err := e.api.DeleteBooking(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "✓ Deleted booking %s\n", id)
	return nil
}

func runBookingsAll(ctx context.Context, opts ...Option) error {
	e, err := authorize(opts, roles.Manager)
	if err != nil {
		return err
	}

	bookings, err := e.api.AllBookings(ctx)
	if err != nil {
		return err
	}

	if len(bookings) == 0 {
		fmt.Fprintln(e.out, "No bookings found.")
		return nil
	}

	printBookings(e.out, bookings)
	return nil
}

func validateBooking(in client.BookingInput, create bool) error {
	if (create || in.Type != "") && !slices.Contains(bookingTypes, in.Type) {
		return fmt.Errorf("invalid booking type %q (expected one of: %s)", in.Type, strings.Join(bookingTypes, ", "))
	}
	if create || in.Date != "" {
		if err := validateDate(in.Date); err != nil {
			return err
		}
	}
	if in.Status != "" && !slices.Contains(bookingStatuses, in.Status) {
		return fmt.Errorf("invalid status %q (expected one of: %s)", in.Status, strings.Join(bookingStatuses, ", "))
	}
	return nil
}

func validateDate(date string) error {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return nil
}
