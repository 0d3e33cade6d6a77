package switchboard

import (
	"fmt"
	"strings"
	"time"
)

// FormatStatus renders the status snapshot for the CLI.
func FormatStatus(statuses []EndpointStatus) string {
	var b strings.Builder

	active := 0
	for _, es := range statuses {
		if es.Active {
			active++
		}
	}
	fmt.Fprintf(&b, "Switchboard: %d endpoints (%d active)\n\n", len(statuses), active)

	b.WriteString(fmt.Sprintf("%-12s %-9s %-10s %-9s %-22s %s\n",
		"ENDPOINT", "ACTIVE", "CHANNEL", "ATTEMPTS", "LAST RESULT", "DURATION"))
	for _, es := range statuses {
		activeStr := "no"
		if es.Active {
			activeStr = "yes"
		}
		channelStr, outcome, attempts, dur := "-", "-", "-", "-"
		if res := es.LastResult; res != nil {
			channelStr = string(res.Channel)
			attempts = fmt.Sprintf("%d", res.Attempts)
			dur = res.Duration.Round(time.Millisecond).String()
			switch {
			case res.Reason != "":
				outcome = string(res.Reason)
			case res.Success:
				outcome = "OK"
			default:
				outcome = "FAILED"
			}
		}
		b.WriteString(fmt.Sprintf("%-12s %-9s %-10s %-9s %-22s %s\n",
			es.ID, activeStr, channelStr, attempts, outcome, dur))
	}
	if len(statuses) == 0 {
		b.WriteString("  (no endpoints registered)\n")
	}
	return b.String()
}
