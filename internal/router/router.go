// Package router orchestrates one logical send: target validation,
// duplicate suppression, bounded primary retries, and fallback escalation.
package router

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zulandar/switchboard/internal/channel"
	"github.com/zulandar/switchboard/internal/dedup"
	"github.com/zulandar/switchboard/internal/message"
	"github.com/zulandar/switchboard/internal/registry"
)

// TagOnboarding routes a send to the endpoint's secondary interaction
// point when present.
const TagOnboarding = "onboarding"

// Policy holds the retry knobs for primary delivery.
type Policy struct {
	MaxRetries       int           // retries after the first attempt
	RetryDelay       time.Duration // inter-attempt delay
	UrgentRetryDelay time.Duration // inter-attempt delay for URGENT messages
}

// Router drives the delivery state machine. Safe for concurrent use; the
// broadcast coordinator calls Send from many goroutines.
type Router struct {
	reg      *registry.Registry
	dedup    *dedup.Store
	primary  *channel.Primary
	fallback *channel.Fallback
	policy   Policy
	log      zerolog.Logger

	mu   sync.RWMutex
	last map[string]DeliveryResult
}

// New creates a Router.
func New(reg *registry.Registry, store *dedup.Store, primary *channel.Primary, fallback *channel.Fallback, policy Policy, log zerolog.Logger) *Router {
	return &Router{
		reg:      reg,
		dedup:    store,
		primary:  primary,
		fallback: fallback,
		policy:   policy,
		log:      log,
		last:     make(map[string]DeliveryResult),
	}
}

// Send delivers one message to its recipient. Transient primary failures
// are retried and then escalated to the fallback inbox; only terminal
// outcomes reach the caller.
func (r *Router) Send(ctx context.Context, msg *message.Message) DeliveryResult {
	start := time.Now()
	res := DeliveryResult{EndpointID: msg.Recipient, Channel: ChannelPrimary}

	ep, err := r.reg.Get(msg.Recipient)
	if err != nil {
		res.Reason = ReasonUnknownEndpoint
		res.Err = err
		res.Duration = time.Since(start)
		return r.finish(msg, res)
	}

	// A duplicate is never re-sent through either channel.
	if r.dedup.Seen(msg.Fingerprint) {
		res.Success = true
		res.Reason = ReasonDuplicateSuppressed
		res.Duration = time.Since(start)
		r.log.Debug().
			Str("endpoint", ep.ID).
			Str("fingerprint", msg.Fingerprint).
			Msg("duplicate suppressed")
		return r.finish(msg, res)
	}

	payload := message.Render(msg)
	secondary := msg.HasTag(TagOnboarding)

	if ep.Active {
		if done := r.attemptPrimary(ctx, ep, msg, payload, secondary, &res); done {
			res.Duration = time.Since(start)
			return r.finish(msg, res)
		}
	} else {
		res.Reason = ReasonEndpointInactive
	}

	r.attemptFallback(ctx, ep.ID, msg, payload, &res)
	res.Duration = time.Since(start)
	return r.finish(msg, res)
}

// attemptPrimary runs the bounded retry loop. Returns true when delivery
// succeeded and the result is final.
func (r *Router) attemptPrimary(ctx context.Context, ep registry.Endpoint, msg *message.Message, payload string, secondary bool, res *DeliveryResult) bool {
	maxAttempts := r.policy.MaxRetries + 1
	delay := r.policy.RetryDelay
	if msg.Priority == message.PriorityUrgent {
		delay = r.policy.UrgentRetryDelay
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res.Attempts = attempt
		err := r.primary.Deliver(ctx, ep, payload, secondary)
		if err == nil {
			r.dedup.Record(msg.Fingerprint)
			res.Success = true
			res.Channel = ChannelPrimary
			return true
		}
		res.Err = err
		r.log.Warn().
			Str("endpoint", ep.ID).
			Int("attempt", attempt).
			Int("max", maxAttempts).
			Err(err).
			Msg("primary delivery failed")

		// A caller deadline mid-loop abandons remaining attempts; the
		// fallback still runs.
		if ctx.Err() != nil {
			return false
		}
		if attempt < maxAttempts {
			if err := sleepCtx(ctx, delay); err != nil {
				return false
			}
		}
	}
	return false
}

// attemptFallback writes to the durable inbox. It runs even when the
// caller's deadline has expired, since the write is fast and durable.
func (r *Router) attemptFallback(ctx context.Context, endpointID string, msg *message.Message, payload string, res *DeliveryResult) {
	res.Channel = ChannelFallback
	err := r.fallback.Deliver(context.WithoutCancel(ctx), endpointID, msg, payload)
	if err != nil {
		res.Success = false
		res.Err = err
		if ctx.Err() != nil {
			res.Reason = ReasonDeadlineExceeded
		} else {
			res.Reason = ReasonStorageUnavailable
		}
		r.log.Error().
			Str("endpoint", endpointID).
			Err(err).
			Msg("fallback delivery failed; message dropped")
		return
	}

	r.dedup.Record(msg.Fingerprint)
	res.Success = true
	res.Err = nil
}

// finish records the last result for status reporting and returns it.
// Unknown recipients are not recorded: the map is keyed by registered
// endpoints only, so misaddressed traffic cannot grow it unbounded.
func (r *Router) finish(msg *message.Message, res DeliveryResult) DeliveryResult {
	if res.Reason != ReasonUnknownEndpoint {
		r.mu.Lock()
		r.last[res.EndpointID] = res
		r.mu.Unlock()
	}

	if res.Success {
		r.log.Info().
			Str("endpoint", res.EndpointID).
			Str("channel", string(res.Channel)).
			Int("attempts", res.Attempts).
			Str("reason", string(res.Reason)).
			Dur("dur", res.Duration).
			Str("priority", msg.Priority.String()).
			Msg("delivered")
	}
	return res
}

// LastResult returns the most recent result for an endpoint, if any.
func (r *Router) LastResult(endpointID string) (DeliveryResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.last[endpointID]
	return res, ok
}

// Dedup exposes the underlying store for maintenance sweeps.
func (r *Router) Dedup() *dedup.Store { return r.dedup }

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
