package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zulandar/switchboard/internal/switchboard"
)

func newStatusCmd() *cobra.Command {
	var (
		addr    string
		watch   bool
		refresh time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show delivery status from a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if !watch {
				text, err := fetchStatus(ctx, addr)
				if err != nil {
					return err
				}
				fmt.Fprint(out, text)
				return nil
			}

			// Clearing the screen only makes sense on a real terminal.
			isTTY := term.IsTerminal(int(os.Stdout.Fd()))
			ticker := time.NewTicker(refresh)
			defer ticker.Stop()
			for {
				text, err := fetchStatus(ctx, addr)
				if err != nil {
					return err
				}
				if isTTY {
					fmt.Fprint(out, "\033[2J\033[H")
				}
				fmt.Fprint(out, text)
				fmt.Fprintf(out, "\nRefreshing every %s (Ctrl-C to stop)\n", refresh)

				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "daemon status API address")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "refresh continuously")
	cmd.Flags().DurationVar(&refresh, "refresh", 5*time.Second, "refresh interval for --watch")
	return cmd
}

func fetchStatus(ctx context.Context, addr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+"/api/status", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reach daemon at %s: %w", addr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("daemon returned %s", resp.Status)
	}

	var body struct {
		Endpoints []switchboard.EndpointStatus `json:"endpoints"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode status: %w", err)
	}
	return switchboard.FormatStatus(body.Endpoints), nil
}
