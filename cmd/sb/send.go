package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/switchboard/internal/message"
	"github.com/zulandar/switchboard/internal/router"
)

func newSendCmd() *cobra.Command {
	var (
		configPath string
		from       string
		to         string
		body       string
		priority   string
		tags       []string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to an endpoint",
		Long:  "Routes a message to one endpoint: primary coordinate delivery with bounded retries, falling back to the durable inbox.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sb, err := buildSwitchboard(configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			res, err := sb.Send(ctx, from, to, body, message.ParsePriority(priority), tags)
			if err != nil {
				return err
			}
			printResult(cmd, res)
			if !res.Success {
				return fmt.Errorf("delivery to %s failed: %s", to, res.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	cmd.Flags().StringVar(&from, "from", "", "sender agent ID (required)")
	cmd.Flags().StringVar(&to, "to", "", "recipient endpoint ID (required)")
	cmd.Flags().StringVar(&body, "body", "", "message body (required)")
	cmd.Flags().StringVar(&priority, "priority", "normal", "message priority (low, normal, high, urgent)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "message tag (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall delivery deadline (0 = none)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("body")
	return cmd
}

func printResult(cmd *cobra.Command, res router.DeliveryResult) {
	out := cmd.OutOrStdout()
	switch {
	case res.Reason == router.ReasonDuplicateSuppressed:
		fmt.Fprintf(out, "Duplicate suppressed for %s (already delivered within the dedup window)\n", res.EndpointID)
	case res.Success:
		fmt.Fprintf(out, "Delivered to %s via %s (attempts: %d, %s)\n",
			res.EndpointID, res.Channel, res.Attempts, res.Duration.Round(time.Millisecond))
	default:
		fmt.Fprintf(out, "FAILED for %s via %s after %d attempts: %s\n",
			res.EndpointID, res.Channel, res.Attempts, res.Reason)
	}
}
