package channel

import "context"

// Automator abstracts the pointer-and-keyboard automation surface for
// testability. All calls operate on the single shared virtual pointer;
// Primary serializes access.
type Automator interface {
	// MoveTo positions the virtual pointer at (x, y).
	MoveTo(ctx context.Context, x, y int) error
	// Click focuses the input surface under the pointer.
	Click(ctx context.Context) error
	// Type transfers text into the focused surface.
	Type(ctx context.Context, text string) error
	// Submit confirms the transfer (Return keystroke).
	Submit(ctx context.Context) error
}

// DefaultAutomator is the automator used when none is supplied.
// Set to XdoAutomator{} in xdo_real.go (excluded from test builds via
// build tag).
var DefaultAutomator Automator = XdoAutomator{}
