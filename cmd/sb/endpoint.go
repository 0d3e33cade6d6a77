package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEndpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoint",
		Short: "Endpoint registry commands",
	}

	cmd.AddCommand(newEndpointListCmd())
	cmd.AddCommand(newEndpointActiveCmd("activate", true))
	cmd.AddCommand(newEndpointActiveCmd("deactivate", false))
	return cmd
}

func newEndpointListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sb, err := buildSwitchboard(configPath)
			if err != nil {
				return err
			}

			endpoints := sb.Registry().List()
			out := cmd.OutOrStdout()
			if len(endpoints) == 0 {
				fmt.Fprintln(out, "No endpoints registered")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tACTIVE\tLOCATION\tSECONDARY\tDESCRIPTION")
			for _, ep := range endpoints {
				active := "no"
				if ep.Active {
					active = "yes"
				}
				secondary := "-"
				if ep.Secondary != nil {
					secondary = fmt.Sprintf("(%d, %d)", ep.Secondary.X, ep.Secondary.Y)
				}
				fmt.Fprintf(w, "%s\t%s\t(%d, %d)\t%s\t%s\n",
					ep.ID, active, ep.Location.X, ep.Location.Y, secondary, ep.Description)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	return cmd
}

// newEndpointActiveCmd builds the activate/deactivate pair. Both talk to a
// running daemon: activation is runtime state, not configuration.
func newEndpointActiveCmd(verb string, active bool) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   verb + " <endpoint-id>",
		Short: capitalize(verb) + " an endpoint in a running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpointID := args[0]
			payload, _ := json.Marshal(map[string]bool{"active": active})
			url := fmt.Sprintf("%s/api/endpoints/%s/active", addr, endpointID)

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("reach daemon at %s: %w", addr, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var body struct {
					Error string `json:"error"`
				}
				json.NewDecoder(resp.Body).Decode(&body)
				return fmt.Errorf("%s %s: %s", verb, endpointID, body.Error)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Endpoint %s %sd\n", endpointID, verb)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "daemon status API address")
	return cmd
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
