package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	grpcTransport "slotkeeper/internal/transport/grpc"
)

func newConfigCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change opening hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, false, func(ctx context.Context, api API) error {
				resp, err := api.GetShopConfig(ctx, &grpcTransport.GetShopConfigRequest{})
				if err != nil {
					return err
				}
				printConfig(opts, resp.Config)
				return nil
			})
		},
	}

	var (
		name        string
		granularity int
		days        []string
		opening     string
		closing     string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Change opening hours (admin); unset flags keep their current value",
		Long: `Change opening hours. Existing bookings are kept even when they fall outside
the new hours.`,
		Example: `  slotkeeperctl config set --opening 10:00 --closing 18:00
  slotkeeperctl config set --days mon,tue,wed,thu,fri --granularity 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, true, func(ctx context.Context, api API) error {
				current, err := api.GetShopConfig(ctx, &grpcTransport.GetShopConfigRequest{})
				if err != nil {
					return err
				}
				next := current.Config
				flags := cmd.Flags()
				if flags.Changed("name") {
					next.Name = name
				}
				if flags.Changed("granularity") {
					next.SlotGranularity = granularity
				}
				if flags.Changed("days") {
					next.ActiveWeekdays = days
				}
				if flags.Changed("opening") {
					next.Opening = opening
				}
				if flags.Changed("closing") {
					next.Closing = closing
				}

				resp, err := api.UpdateShopConfig(ctx, &grpcTransport.UpdateShopConfigRequest{Config: next})
				if err != nil {
					return err
				}
				printConfig(opts, resp.Config)
				return nil
			})
		},
	}
	set.Flags().StringVar(&name, "name", "", "shop name")
	set.Flags().IntVar(&granularity, "granularity", 0, "minutes between offered start times")
	set.Flags().StringSliceVar(&days, "days", nil, "open weekdays, e.g. mon,tue,sat")
	set.Flags().StringVar(&opening, "opening", "", "opening time HH:MM")
	set.Flags().StringVar(&closing, "closing", "", "closing time HH:MM (24:00 for midnight)")

	cmd.AddCommand(set)
	return cmd
}

func printConfig(opts *options, c grpcTransport.ShopConfig) {
	fmt.Fprintf(opts.out, "%s\n", c.Name)
	fmt.Fprintf(opts.out, "  hours: %s-%s\n", c.Opening, c.Closing)
	fmt.Fprintf(opts.out, "  days:  %s\n", strings.Join(c.ActiveWeekdays, ", "))
	fmt.Fprintf(opts.out, "  slots: every %d min\n", c.SlotGranularity)
}
