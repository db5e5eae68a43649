package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	grpcTransport "slotkeeper/internal/transport/grpc"
)

func newSlotsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "slots <service-id> <YYYY-MM-DD>",
		Short: "List free start times for a service on a day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, false, func(ctx context.Context, api API) error {
				resp, err := api.GetAvailability(ctx, &grpcTransport.GetAvailabilityRequest{ServiceID: args[0], Day: args[1]})
				if err != nil {
					return err
				}
				switch {
				case !resp.Open:
					fmt.Fprintf(opts.out, "Closed on %s\n", resp.Day)
				case len(resp.Slots) == 0:
					fmt.Fprintf(opts.out, "Fully booked on %s\n", resp.Day)
				default:
					fmt.Fprintf(opts.out, "%s: %s\n", resp.Day, strings.Join(resp.Slots, " "))
				}
				return nil
			})
		},
	}
}

func newBookCommand(opts *options) *cobra.Command {
	var (
		name  string
		phone string
		notes string
		key   string
	)
	cmd := &cobra.Command{
		Use:     "book <service-id> <YYYY-MM-DD> <HH:MM>",
		Short:   "Book a slot",
		Long:    `Book a slot returned by "slots".`,
		Example: `  slotkeeperctl book 0190... 2026-01-05 10:30 --name "Ana" --phone +15550100
  slotkeeperctl book 0190... 2026-01-05 10:30 --name "Ana" --phone +15550100 --key retry-1`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, false, func(ctx context.Context, api API) error {
				ctx = grpcTransport.WithIdempotencyKey(ctx, key)
				resp, err := api.CreateBooking(ctx, &grpcTransport.CreateBookingRequest{
					ServiceID:     args[0],
					Day:           args[1],
					Start:         args[2],
					CustomerName:  name,
					CustomerPhone: phone,
					Notes:         notes,
				})
				if err != nil {
					return err
				}
				b := resp.Booking
				fmt.Fprintf(opts.out, "Booked %s\n", b.ID)
				fmt.Fprintf(opts.out, "  %s %s-%s\n", b.Day, b.Start, b.End)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "customer name")
	cmd.Flags().StringVar(&phone, "phone", "", "customer phone")
	cmd.Flags().StringVar(&notes, "notes", "", "notes for the booking")
	cmd.Flags().StringVar(&key, "key", "", "idempotency key; retries with the same key return the first booking")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newCancelCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel a booking (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, true, func(ctx context.Context, api API) error {
				if _, err := api.CancelBooking(ctx, &grpcTransport.CancelBookingRequest{BookingID: args[0]}); err != nil {
					return err
				}
				fmt.Fprintf(opts.out, "Cancelled %s\n", args[0])
				return nil
			})
		},
	}
}

func newBookingsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bookings <YYYY-MM-DD>",
		Short: "List a day's bookings (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, true, func(ctx context.Context, api API) error {
				resp, err := api.ListBookings(ctx, &grpcTransport.ListBookingsRequest{Day: args[0]})
				if err != nil {
					return err
				}
				if len(resp.Bookings) == 0 {
					fmt.Fprintf(opts.out, "No bookings on %s\n", args[0])
					return nil
				}
				w := tabwriter.NewWriter(opts.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tCUSTOMER\tPHONE\tID")
				for _, b := range resp.Bookings {
					fmt.Fprintf(w, "%s-%s\t%s\t%s\t%s\n", b.Start, b.End, b.CustomerName, b.CustomerPhone, b.ID)
				}
				return w.Flush()
			})
		},
	}
}
