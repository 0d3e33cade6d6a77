package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zulandar/switchboard/internal/logx"
	"github.com/zulandar/switchboard/internal/registry"
)

// fakeAutomator records calls and can be scripted to fail or block.
type fakeAutomator struct {
	mu    sync.Mutex
	calls []string

	failOn  string // step name that returns failErr
	failErr error
	block   bool // block every step until ctx is done

	inFlight int32
	overlap  int32 // set if two deliveries overlapped
}

func (f *fakeAutomator) step(ctx context.Context, name string) error {
	if n := atomic.AddInt32(&f.inFlight, 1); n > 1 {
		atomic.StoreInt32(&f.overlap, 1)
	}
	defer atomic.AddInt32(&f.inFlight, -1)

	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.failOn == name {
		return f.failErr
	}
	return nil
}

func (f *fakeAutomator) MoveTo(ctx context.Context, x, y int) error {
	return f.step(ctx, fmt.Sprintf("move %d,%d", x, y))
}
func (f *fakeAutomator) Click(ctx context.Context) error { return f.step(ctx, "click") }
func (f *fakeAutomator) Type(ctx context.Context, text string) error {
	return f.step(ctx, "type "+text)
}
func (f *fakeAutomator) Submit(ctx context.Context) error { return f.step(ctx, "submit") }

func (f *fakeAutomator) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func testBounds() registry.Rect {
	return registry.Rect{MinX: -2000, MaxX: 2000, MinY: 0, MaxY: 1500}
}

func activeEndpoint() registry.Endpoint {
	return registry.Endpoint{
		ID:        "Agent-7",
		Location:  registry.Point{X: 300, Y: 480},
		Secondary: &registry.Point{X: 300, Y: 942},
		Active:    true,
	}
}

func TestPrimaryDeliver_Success(t *testing.T) {
	auto := &fakeAutomator{}
	p := NewPrimary(auto, testBounds(), time.Second, logx.Nop())

	err := p.Deliver(context.Background(), activeEndpoint(), "hello", false)
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	want := []string{"move 300,480", "click", "type hello", "submit"}
	got := auto.callList()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPrimaryDeliver_SecondaryLocation(t *testing.T) {
	auto := &fakeAutomator{}
	p := NewPrimary(auto, testBounds(), time.Second, logx.Nop())

	if err := p.Deliver(context.Background(), activeEndpoint(), "hi", true); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got := auto.callList()[0]; got != "move 300,942" {
		t.Errorf("first call = %q, want move to secondary", got)
	}
}

func TestPrimaryDeliver_SecondaryFallsBackToLocation(t *testing.T) {
	auto := &fakeAutomator{}
	p := NewPrimary(auto, testBounds(), time.Second, logx.Nop())

	ep := activeEndpoint()
	ep.Secondary = nil
	if err := p.Deliver(context.Background(), ep, "hi", true); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got := auto.callList()[0]; got != "move 300,480" {
		t.Errorf("first call = %q, want primary location", got)
	}
}

func TestPrimaryDeliver_Inactive(t *testing.T) {
	auto := &fakeAutomator{}
	p := NewPrimary(auto, testBounds(), time.Second, logx.Nop())

	ep := activeEndpoint()
	ep.Active = false
	err := p.Deliver(context.Background(), ep, "hello", false)
	if !errors.Is(err, ErrEndpointInactive) {
		t.Fatalf("err = %v, want ErrEndpointInactive", err)
	}
	if calls := auto.callList(); len(calls) != 0 {
		t.Errorf("automator touched for inactive endpoint: %v", calls)
	}
}

func TestPrimaryDeliver_OutOfBounds(t *testing.T) {
	auto := &fakeAutomator{}
	p := NewPrimary(auto, testBounds(), time.Second, logx.Nop())

	ep := activeEndpoint()
	ep.Location = registry.Point{X: 99999, Y: 99999}
	err := p.Deliver(context.Background(), ep, "hello", false)
	if !errors.Is(err, ErrPositionOutOfBounds) {
		t.Fatalf("err = %v, want ErrPositionOutOfBounds", err)
	}
	if calls := auto.callList(); len(calls) != 0 {
		t.Errorf("automator touched for out-of-bounds endpoint: %v", calls)
	}
}

func TestPrimaryDeliver_AutomationFailure(t *testing.T) {
	auto := &fakeAutomator{failOn: "click", failErr: errors.New("no display")}
	p := NewPrimary(auto, testBounds(), time.Second, logx.Nop())

	err := p.Deliver(context.Background(), activeEndpoint(), "hello", false)
	if !errors.Is(err, ErrChannelFailure) {
		t.Fatalf("err = %v, want ErrChannelFailure", err)
	}
}

func TestPrimaryDeliver_Timeout(t *testing.T) {
	auto := &fakeAutomator{block: true}
	p := NewPrimary(auto, testBounds(), 30*time.Millisecond, logx.Nop())

	err := p.Deliver(context.Background(), activeEndpoint(), "hello", false)
	if !errors.Is(err, ErrTransferTimeout) {
		t.Fatalf("err = %v, want ErrTransferTimeout", err)
	}
}

func TestPrimaryDeliver_CallerCancel(t *testing.T) {
	auto := &fakeAutomator{block: true}
	p := NewPrimary(auto, testBounds(), time.Minute, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := p.Deliver(ctx, activeEndpoint(), "hello", false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// The surface has one pointer: deliveries must never overlap.
func TestPrimaryDeliver_Serialized(t *testing.T) {
	auto := &fakeAutomator{}
	p := NewPrimary(auto, testBounds(), time.Second, logx.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Deliver(context.Background(), activeEndpoint(), "x", false)
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&auto.overlap) != 0 {
		t.Error("concurrent deliveries overlapped on the automation surface")
	}
	if got := len(auto.callList()); got != 8*4 {
		t.Errorf("total automation calls = %d, want %d", got, 8*4)
	}
}
