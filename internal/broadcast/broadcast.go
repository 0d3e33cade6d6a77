// Package broadcast fans one logical message out to every active endpoint.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/zulandar/switchboard/internal/message"
	"github.com/zulandar/switchboard/internal/registry"
	"github.com/zulandar/switchboard/internal/router"
)

// Config bounds fan-out concurrency and send rate.
type Config struct {
	Workers    int // concurrent sends; the primary pointer still serializes below this
	RatePerSec int
}

// Coordinator snapshots the active endpoint set and routes one message
// per target concurrently.
type Coordinator struct {
	reg     *registry.Registry
	router  *router.Router
	limiter *rate.Limiter
	workers int
	log     zerolog.Logger
}

// New creates a Coordinator.
func New(reg *registry.Registry, rt *router.Router, cfg Config, log zerolog.Logger) *Coordinator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 10
	}
	return &Coordinator{
		reg:     reg,
		router:  rt,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		workers: workers,
		log:     log,
	}
}

// Broadcast sends body to every endpoint active at call time. The active
// set is snapshotted once, so endpoints activated mid-broadcast are not
// included. The result map always contains exactly one entry per
// snapshotted endpoint; partial failures never fail the broadcast as a
// whole.
func (c *Coordinator) Broadcast(ctx context.Context, sender, body string, priority message.Priority, tags []string) (map[string]router.DeliveryResult, error) {
	targets := c.reg.ListActive()
	results := make(map[string]router.DeliveryResult, len(targets))
	if len(targets) == 0 {
		return results, nil
	}

	start := time.Now()
	c.log.Info().
		Str("sender", sender).
		Int("targets", len(targets)).
		Msg("broadcast started")

	// Each target gets its own message: the recipient differs, so each
	// carries its own fingerprint. Construct all of them up front so a
	// validation error surfaces before any send happens.
	msgs := make([]*message.Message, 0, len(targets))
	for _, ep := range targets {
		msg, err := message.New(sender, ep.ID, body, priority, tags)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, c.workers)
	)
	for _, msg := range msgs {
		wg.Add(1)
		sem <- struct{}{}
		go func(msg *message.Message) {
			defer wg.Done()
			defer func() { <-sem }()

			res := c.sendOne(ctx, msg)
			mu.Lock()
			results[msg.Recipient] = res
			mu.Unlock()
		}(msg)
	}
	wg.Wait()

	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
		}
	}
	evt := c.log.Info()
	if failed > 0 {
		evt = c.log.Warn()
	}
	evt.
		Int("targets", len(targets)).
		Int("failed", failed).
		Dur("dur", time.Since(start)).
		Msg("broadcast finished")

	return results, nil
}

func (c *Coordinator) sendOne(ctx context.Context, msg *message.Message) router.DeliveryResult {
	if err := c.limiter.Wait(ctx); err != nil {
		// Deadline hit while rate-limited: let the router run its
		// deadline path so the fallback write still happens.
		c.log.Debug().Str("endpoint", msg.Recipient).Err(err).Msg("rate limiter wait cut short")
	}
	return c.router.Send(ctx, msg)
}
