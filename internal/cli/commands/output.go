package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cruisemate/cruisemate/internal/cli/client"
)

func printItems(out io.Writer, items []client.Item) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tDESCRIPTION")
	fmt.Fprintln(w, "──\t────\t────────\t─────\t───────────")

	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			item.ID,
			item.Name,
			item.Category,
			item.Price,
			item.Description,
		)
	}

	w.Flush()
}

func printBookings(out io.Writer, bookings []client.Booking) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tDATE\tSTATUS\tUSER")
	fmt.Fprintln(w, "──\t────\t────\t──────\t────")

	for _, b := range bookings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			b.ID,
			b.Type,
			b.Date,
			b.Status,
			b.User,
		)
	}

	w.Flush()
}

func printBooking(out io.Writer, verb string, b *client.Booking) {
	fmt.Fprintf(out, "✓ %s booking %s: %s on %s (%s)\n", verb, b.ID, b.Type, b.Date, b.Status)
}

func printItem(out io.Writer, item *client.Item) {
	fmt.Fprintf(out, "ID:          %s\n", item.ID)
	fmt.Fprintf(out, "Name:        %s\n", item.Name)
	fmt.Fprintf(out, "Category:    %s\n", item.Category)
	fmt.Fprintf(out, "Price:       %s\n", item.Price)
	if item.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", item.Description)
	}
}
