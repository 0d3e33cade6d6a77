package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/switchboard/internal/message"
)

func newBroadcastCmd() *cobra.Command {
	var (
		configPath string
		from       string
		body       string
		priority   string
		tags       []string
	)

	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send a message to all active endpoints",
		Long:  "Fans one message out to every active endpoint and reports the per-target outcome. Partial failures do not fail the broadcast.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sb, err := buildSwitchboard(configPath)
			if err != nil {
				return err
			}

			results, err := sb.Broadcast(cmd.Context(), from, body, message.ParsePriority(priority), tags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No active endpoints")
				return nil
			}

			ids := make([]string, 0, len(results))
			for id := range results {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			failed := 0
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ENDPOINT\tCHANNEL\tATTEMPTS\tRESULT\tDURATION")
			for _, id := range ids {
				res := results[id]
				outcome := "OK"
				if res.Reason != "" {
					outcome = string(res.Reason)
				} else if !res.Success {
					outcome = "FAILED"
				}
				if !res.Success {
					failed++
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					id, res.Channel, res.Attempts, outcome, res.Duration.Round(time.Millisecond))
			}
			w.Flush()

			fmt.Fprintf(out, "\nBroadcast to %d endpoints, %d failed\n", len(results), failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	cmd.Flags().StringVar(&from, "from", "", "sender agent ID (required)")
	cmd.Flags().StringVar(&body, "body", "", "message body (required)")
	cmd.Flags().StringVar(&priority, "priority", "normal", "message priority (low, normal, high, urgent)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "message tag (repeatable)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("body")
	return cmd
}
