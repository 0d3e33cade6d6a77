package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zulandar/switchboard/internal/registry"
)

// DefaultAttemptTimeout bounds one full move/click/type/submit sequence.
const DefaultAttemptTimeout = 3 * time.Second

// Primary delivers by positioning the virtual pointer at an endpoint's
// coordinates and typing the rendered payload into its input surface.
//
// The surface has exactly one pointer, so all deliveries are serialized
// behind one mutex regardless of target. This channel is not idempotent;
// duplicate suppression is the router's job.
type Primary struct {
	auto    Automator
	bounds  registry.Rect
	timeout time.Duration
	log     zerolog.Logger

	mu sync.Mutex // owns the virtual pointer
}

// NewPrimary creates a Primary channel. A nil automator selects the
// package default.
func NewPrimary(auto Automator, bounds registry.Rect, timeout time.Duration, log zerolog.Logger) *Primary {
	if auto == nil {
		auto = DefaultAutomator
	}
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	return &Primary{auto: auto, bounds: bounds, timeout: timeout, log: log}
}

// Deliver performs one delivery attempt. When secondary is true and the
// endpoint carries an alternate interaction point, that point is used
// instead of the primary location.
func (p *Primary) Deliver(ctx context.Context, ep registry.Endpoint, payload string, secondary bool) error {
	if !ep.Active {
		return fmt.Errorf("%w: %s", ErrEndpointInactive, ep.ID)
	}

	loc := ep.Location
	if secondary && ep.Secondary != nil {
		loc = *ep.Secondary
	}
	// Coordinates can be stale if the registry was mutated after lookup;
	// re-check against the surface before touching the pointer.
	if !p.bounds.Contains(loc) {
		return fmt.Errorf("%w: %s at (%d, %d)", ErrPositionOutOfBounds, ep.ID, loc.X, loc.Y)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.transfer(ctx, loc, payload)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s after %s", ErrTransferTimeout, ep.ID, time.Since(start).Round(time.Millisecond))
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrChannelFailure, ep.ID, err)
	}

	p.log.Debug().
		Str("endpoint", ep.ID).
		Int("x", loc.X).
		Int("y", loc.Y).
		Dur("dur", time.Since(start)).
		Msg("primary delivery confirmed")
	return nil
}

func (p *Primary) transfer(ctx context.Context, loc registry.Point, payload string) error {
	if err := p.auto.MoveTo(ctx, loc.X, loc.Y); err != nil {
		return err
	}
	if err := p.auto.Click(ctx); err != nil {
		return err
	}
	if err := p.auto.Type(ctx, payload); err != nil {
		return err
	}
	return p.auto.Submit(ctx)
}
