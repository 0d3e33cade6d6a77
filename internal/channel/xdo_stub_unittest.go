//go:build unittest

package channel

import "context"

// XdoAutomator is a no-op stub used during unit testing (build tag:
// unittest). The real implementation is in xdo_real.go.
type XdoAutomator struct{}

func (XdoAutomator) MoveTo(ctx context.Context, x, y int) error { return nil }
func (XdoAutomator) Click(ctx context.Context) error            { return nil }
func (XdoAutomator) Type(ctx context.Context, text string) error { return nil }
func (XdoAutomator) Submit(ctx context.Context) error           { return nil }
