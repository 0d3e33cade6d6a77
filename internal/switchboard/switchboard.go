// Package switchboard wires the registry, channels, router, and broadcast
// coordinator into the public send/broadcast/status surface.
package switchboard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/zulandar/switchboard/internal/broadcast"
	"github.com/zulandar/switchboard/internal/channel"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/db"
	"github.com/zulandar/switchboard/internal/dedup"
	"github.com/zulandar/switchboard/internal/message"
	"github.com/zulandar/switchboard/internal/registry"
	"github.com/zulandar/switchboard/internal/router"
)

// Switchboard is the assembled delivery system.
type Switchboard struct {
	cfg      *config.Config
	gdb      *gorm.DB
	registry *registry.Registry
	router   *router.Router
	bcast    *broadcast.Coordinator
	log      zerolog.Logger
}

// Opts overrides parts of the default wiring.
type Opts struct {
	// Automator replaces the real pointer automation (tests, dry runs).
	Automator channel.Automator
	// DB replaces the configured inbox database connection.
	DB *gorm.DB
}

// New builds a Switchboard from configuration.
func New(cfg *config.Config, log zerolog.Logger, opts Opts) (*Switchboard, error) {
	gdb := opts.DB
	if gdb == nil {
		var err error
		gdb, err = db.Open(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("switchboard: %w", err)
		}
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return nil, fmt.Errorf("switchboard: %w", err)
	}

	reg, err := registry.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("switchboard: %w", err)
	}

	primary := channel.NewPrimary(opts.Automator, reg.Bounds(), cfg.Router.AttemptTimeout.Std(), log)
	fallback := channel.NewFallback(gdb)
	store := dedup.New(cfg.Router.DedupTTL.Std())
	policy := router.Policy{
		MaxRetries:       *cfg.Router.MaxRetries,
		RetryDelay:       cfg.Router.RetryDelay.Std(),
		UrgentRetryDelay: cfg.Router.UrgentRetryDelay.Std(),
	}
	rt := router.New(reg, store, primary, fallback, policy, log)
	bc := broadcast.New(reg, rt, broadcast.Config{
		Workers:    cfg.Broadcast.Workers,
		RatePerSec: cfg.Broadcast.RatePerSec,
	}, log)

	return &Switchboard{
		cfg:      cfg,
		gdb:      gdb,
		registry: reg,
		router:   rt,
		bcast:    bc,
		log:      log,
	}, nil
}

// Send routes one message to one endpoint.
func (s *Switchboard) Send(ctx context.Context, sender, recipient, body string, priority message.Priority, tags []string) (router.DeliveryResult, error) {
	if recipient == message.RecipientBroadcast {
		return router.DeliveryResult{}, fmt.Errorf("switchboard: use Broadcast for the %q recipient", recipient)
	}
	msg, err := message.New(sender, recipient, body, priority, tags)
	if err != nil {
		return router.DeliveryResult{}, err
	}
	return s.router.Send(ctx, msg), nil
}

// Broadcast sends body to all currently active endpoints.
func (s *Switchboard) Broadcast(ctx context.Context, sender, body string, priority message.Priority, tags []string) (map[string]router.DeliveryResult, error) {
	return s.bcast.Broadcast(ctx, sender, body, priority, tags)
}

// SetActive toggles an endpoint's activation flag.
func (s *Switchboard) SetActive(endpointID string, active bool) error {
	return s.registry.SetActive(endpointID, active)
}

// Registry returns the owning endpoint registry.
func (s *Switchboard) Registry() *registry.Registry { return s.registry }

// DB returns the inbox database handle.
func (s *Switchboard) DB() *gorm.DB { return s.gdb }

// SweepDedup evicts expired fingerprints and returns the count removed.
func (s *Switchboard) SweepDedup() int {
	return s.router.Dedup().Sweep(time.Now())
}

// DedupTTL returns the active duplicate-suppression window.
func (s *Switchboard) DedupTTL() time.Duration {
	return s.router.Dedup().TTL()
}

// PruneInbox removes fallback inbox entries older than the configured
// retention window.
func (s *Switchboard) PruneInbox() (int64, error) {
	cutoff := time.Now().Add(-s.cfg.Maintenance.InboxRetention.Std())
	return channel.Prune(s.gdb, cutoff)
}

// EndpointStatus is one row of the status snapshot.
type EndpointStatus struct {
	ID          string                 `json:"id"`
	Active      bool                   `json:"active"`
	Description string                 `json:"description,omitempty"`
	LastResult  *router.DeliveryResult `json:"last_result,omitempty"`
}

// Status returns a read-only snapshot of every endpoint and its most
// recent delivery result, sorted by endpoint id.
func (s *Switchboard) Status() []EndpointStatus {
	endpoints := s.registry.List()
	out := make([]EndpointStatus, 0, len(endpoints))
	for _, ep := range endpoints {
		es := EndpointStatus{ID: ep.ID, Active: ep.Active, Description: ep.Description}
		if res, ok := s.router.LastResult(ep.ID); ok {
			es.LastResult = &res
		}
		out = append(out, es)
	}
	return out
}
