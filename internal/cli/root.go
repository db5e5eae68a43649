// Package cli implements slotkeeperctl, a command-line client for the
// Scheduling gRPC API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	grpcTransport "slotkeeper/internal/transport/grpc"
)

var ErrPINRequired = errors.New("this command needs the admin PIN (--pin or SLOTKEEPER_ADMIN_PIN)")

// API is the subset of the Scheduling service the commands call.
// *grpcTransport.Client satisfies it.
type API interface {
	grpcTransport.SchedulingServiceServer
	Close() error
}

// Dialer opens an API connection to addr.
type Dialer func(addr string) (API, error)

// DialGRPC dials a slotkeeper-server over plaintext gRPC.
func DialGRPC(addr string) (API, error) {
	c, err := grpcTransport.Dial(addr)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type options struct {
	addr    string
	pin     string
	timeout time.Duration

	dial Dialer
	out  io.Writer
}

// NewRootCommand builds the slotkeeperctl command tree.
func NewRootCommand(dial Dialer, out io.Writer) *cobra.Command {
	opts := &options{dial: dial, out: out}

	root := &cobra.Command{
		Use:   "slotkeeperctl",
		Short: "Slotkeeper - appointment slots for a single-chair shop",
		Long: `slotkeeperctl talks to a slotkeeper-server over gRPC.

Customers can list free slots and book them. Cancelling, listing a day's
bookings and editing the catalog or opening hours need the admin PIN.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&opts.addr, "addr", envOr("SLOTKEEPER_ADDR", "127.0.0.1:50051"), "server address")
	root.PersistentFlags().StringVar(&opts.pin, "pin", os.Getenv("SLOTKEEPER_ADMIN_PIN"), "admin PIN for privileged commands")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")

	root.AddCommand(
		newSlotsCommand(opts),
		newBookCommand(opts),
		newCancelCommand(opts),
		newBookingsCommand(opts),
		newServicesCommand(opts),
		newConfigCommand(opts),
		newHashPINCommand(opts),
	)
	return root
}

// call dials, runs fn with a bounded context and closes the connection.
func (o *options) call(cmd *cobra.Command, admin bool, fn func(ctx context.Context, api API) error) error {
	api, err := o.dial(o.addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", o.addr, err)
	}
	defer api.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()
	if admin {
		if o.pin == "" {
			return ErrPINRequired
		}
		ctx = grpcTransport.WithAdminPIN(ctx, o.pin)
	}
	return fn(ctx, api)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
