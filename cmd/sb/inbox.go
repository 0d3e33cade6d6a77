package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/switchboard/internal/channel"
)

func newInboxCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "inbox <endpoint-id>",
		Short: "Show an endpoint's fallback inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpointID := args[0]
			_, sb, err := buildSwitchboard(configPath)
			if err != nil {
				return err
			}
			if _, err := sb.Registry().Get(endpointID); err != nil {
				return err
			}

			entries, err := channel.Inbox(sb.DB(), endpointID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "Inbox for %s is empty\n", endpointID)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DELIVERED\tFROM\tPRIORITY\tPAYLOAD")
			for _, e := range entries {
				payload := e.Payload
				if len(payload) > 72 {
					payload = payload[:69] + "..."
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.DeliveredAt.Format("2006-01-02 15:04:05"), e.Sender, e.Priority, payload)
			}
			w.Flush()
			fmt.Fprintf(out, "\n%d entries\n", len(entries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	return cmd
}
