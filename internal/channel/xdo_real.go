//go:build !unittest

package channel

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// typeDelayMS paces synthetic keystrokes; some chat surfaces drop input
// typed faster than this.
const typeDelayMS = 12

// XdoAutomator is the production implementation that drives the real
// pointer via the xdotool binary.
type XdoAutomator struct{}

func (XdoAutomator) MoveTo(ctx context.Context, x, y int) error {
	return runXdo(ctx, "mousemove", "--sync", strconv.Itoa(x), strconv.Itoa(y))
}

func (XdoAutomator) Click(ctx context.Context) error {
	return runXdo(ctx, "click", "1")
}

func (XdoAutomator) Type(ctx context.Context, text string) error {
	return runXdo(ctx, "type", "--delay", strconv.Itoa(typeDelayMS), "--", text)
}

func (XdoAutomator) Submit(ctx context.Context) error {
	return runXdo(ctx, "key", "Return")
}

func runXdo(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "xdotool", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("xdotool %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return nil
}
