package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"slotkeeper/internal/auth"
	grpcTransport "slotkeeper/internal/transport/grpc"
)

func newServicesCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "List and edit the service catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listServices(cmd, opts)
		},
	}

	var (
		id       string
		name     string
		duration int
		price    string
	)
	save := &cobra.Command{
		Use:   "save",
		Short: "Create a service, or update it when --id is given (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, true, func(ctx context.Context, api API) error {
				resp, err := api.SaveService(ctx, &grpcTransport.SaveServiceRequest{Service: grpcTransport.Service{
					ID:              id,
					Name:            name,
					DurationMinutes: duration,
					Price:           price,
				}})
				if err != nil {
					return err
				}
				fmt.Fprintf(opts.out, "Saved %s (%s, %d min, %s)\n", resp.Service.ID, resp.Service.Name, resp.Service.DurationMinutes, resp.Service.Price)
				return nil
			})
		},
	}
	save.Flags().StringVar(&id, "id", "", "id of the service to update")
	save.Flags().StringVar(&name, "name", "", "service name")
	save.Flags().IntVar(&duration, "duration", 0, "duration in minutes")
	save.Flags().StringVar(&price, "price", "0", "price, e.g. 25.50")
	_ = save.MarkFlagRequired("name")
	_ = save.MarkFlagRequired("duration")

	del := &cobra.Command{
		Use:   "delete <service-id>",
		Short: "Remove a service from the catalog (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, true, func(ctx context.Context, api API) error {
				if _, err := api.DeleteService(ctx, &grpcTransport.DeleteServiceRequest{ServiceID: args[0]}); err != nil {
					return err
				}
				fmt.Fprintf(opts.out, "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(save, del)
	return cmd
}

func listServices(cmd *cobra.Command, opts *options) error {
	return opts.call(cmd, false, func(ctx context.Context, api API) error {
		resp, err := api.ListServices(ctx, &grpcTransport.ListServicesRequest{})
		if err != nil {
			return err
		}
		if len(resp.Services) == 0 {
			fmt.Fprintln(opts.out, "No services")
			return nil
		}
		w := tabwriter.NewWriter(opts.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMINUTES\tPRICE\tID")
		for _, s := range resp.Services {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.Name, s.DurationMinutes, s.Price, s.ID)
		}
		return w.Flush()
	})
}

func newHashPINCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-pin <pin>",
		Short: "Print the bcrypt hash to use as SLOTKEEPER_ADMIN_PIN_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPIN(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.out, hash)
			return nil
		},
	}
}
