package broadcast

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/switchboard/internal/channel"
	"github.com/zulandar/switchboard/internal/dedup"
	"github.com/zulandar/switchboard/internal/logx"
	"github.com/zulandar/switchboard/internal/message"
	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/registry"
	"github.com/zulandar/switchboard/internal/router"
)

type countingAutomator struct {
	deliveries int32
	fail       bool
}

func (a *countingAutomator) MoveTo(ctx context.Context, x, y int) error {
	atomic.AddInt32(&a.deliveries, 1)
	if a.fail {
		return channel.ErrChannelFailure
	}
	return nil
}
func (a *countingAutomator) Click(ctx context.Context) error             { return nil }
func (a *countingAutomator) Type(ctx context.Context, text string) error { return nil }
func (a *countingAutomator) Submit(ctx context.Context) error            { return nil }

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.InboxEntry{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// fourByFourRegistry has 4 active and 4 inactive endpoints.
func fourByFourRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(registry.Rect{MinX: -2000, MaxX: 2000, MinY: 0, MaxY: 1500})
	for i := 1; i <= 8; i++ {
		ep := registry.Endpoint{
			ID:       fmt.Sprintf("Agent-%d", i),
			Location: registry.Point{X: i * 100, Y: 480},
			Active:   i <= 4,
		}
		if err := reg.Register(ep); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return reg
}

func newCoordinator(t *testing.T, reg *registry.Registry, auto channel.Automator, db *gorm.DB, cfg Config) *Coordinator {
	t.Helper()
	primary := channel.NewPrimary(auto, reg.Bounds(), 50*time.Millisecond, logx.Nop())
	fallback := channel.NewFallback(db)
	policy := router.Policy{MaxRetries: 1, RetryDelay: time.Millisecond, UrgentRetryDelay: time.Millisecond}
	rt := router.New(reg, dedup.New(10*time.Minute), primary, fallback, policy, logx.Nop())
	return New(reg, rt, cfg, logx.Nop())
}

func TestBroadcast_OnlyActiveTargets(t *testing.T) {
	reg := fourByFourRegistry(t)
	auto := &countingAutomator{}
	c := newCoordinator(t, reg, auto, openTestDB(t), Config{Workers: 4, RatePerSec: 1000})

	results, err := c.Broadcast(context.Background(), "yardmaster", "status check", message.PriorityNormal, nil)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	if len(results) != 4 {
		t.Fatalf("results len = %d, want 4 (active snapshot only)", len(results))
	}
	for i := 1; i <= 4; i++ {
		id := fmt.Sprintf("Agent-%d", i)
		res, ok := results[id]
		if !ok {
			t.Errorf("missing result for %s", id)
			continue
		}
		if !res.Success || res.Channel != router.ChannelPrimary {
			t.Errorf("result[%s] = %+v", id, res)
		}
	}
	for i := 5; i <= 8; i++ {
		if _, ok := results[fmt.Sprintf("Agent-%d", i)]; ok {
			t.Errorf("inactive Agent-%d included in broadcast", i)
		}
	}
}

func TestBroadcast_CompleteMapOnPartialFailure(t *testing.T) {
	reg := fourByFourRegistry(t)
	auto := &countingAutomator{fail: true}
	db := openTestDB(t)
	sqlDB, _ := db.DB()
	sqlDB.Close() // fallback fails too

	c := newCoordinator(t, reg, auto, db, Config{Workers: 2, RatePerSec: 1000})
	results, err := c.Broadcast(context.Background(), "yardmaster", "doomed", message.PriorityNormal, nil)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	if len(results) != 4 {
		t.Fatalf("results len = %d, want 4 even when every target fails", len(results))
	}
	for id, res := range results {
		if res.Success {
			t.Errorf("result[%s].Success = true, want failure", id)
		}
		if res.Reason != router.ReasonStorageUnavailable {
			t.Errorf("result[%s].Reason = %q", id, res.Reason)
		}
	}
}

func TestBroadcast_PerTargetFingerprints(t *testing.T) {
	reg := fourByFourRegistry(t)
	auto := &countingAutomator{}
	c := newCoordinator(t, reg, auto, openTestDB(t), Config{Workers: 4, RatePerSec: 1000})

	// Two identical broadcasts: the second must be fully suppressed per
	// target, not cross-suppressed between targets on the first.
	first, err := c.Broadcast(context.Background(), "s", "ping", message.PriorityNormal, nil)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	for id, res := range first {
		if res.Reason == router.ReasonDuplicateSuppressed {
			t.Errorf("first broadcast suppressed for %s", id)
		}
	}

	second, err := c.Broadcast(context.Background(), "s", "ping", message.PriorityNormal, nil)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	for id, res := range second {
		if res.Reason != router.ReasonDuplicateSuppressed {
			t.Errorf("second broadcast not suppressed for %s: %+v", id, res)
		}
	}
	if got := atomic.LoadInt32(&auto.deliveries); got != 4 {
		t.Errorf("automation sequences = %d, want 4 (second broadcast suppressed)", got)
	}
}

func TestBroadcast_EmptyRegistry(t *testing.T) {
	reg := registry.New(registry.Rect{MinX: 0, MaxX: 100, MinY: 0, MaxY: 100})
	c := newCoordinator(t, reg, &countingAutomator{}, openTestDB(t), Config{})

	results, err := c.Broadcast(context.Background(), "s", "anyone there", message.PriorityNormal, nil)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results len = %d, want 0", len(results))
	}
}

func TestBroadcast_EmptyBody(t *testing.T) {
	reg := fourByFourRegistry(t)
	c := newCoordinator(t, reg, &countingAutomator{}, openTestDB(t), Config{})

	if _, err := c.Broadcast(context.Background(), "s", "   ", message.PriorityNormal, nil); err == nil {
		t.Fatal("expected error for blank body")
	}
}
