package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/logx"
	"github.com/zulandar/switchboard/internal/message"
	"github.com/zulandar/switchboard/internal/switchboard"
)

type nopAutomator struct{}

func (nopAutomator) MoveTo(ctx context.Context, x, y int) error { return nil }
func (nopAutomator) Click(ctx context.Context) error            { return nil }
func (nopAutomator) Type(ctx context.Context, text string) error { return nil }
func (nopAutomator) Submit(ctx context.Context) error           { return nil }

func newTestServer(t *testing.T) (*gin.Engine, *switchboard.Switchboard) {
	t.Helper()
	cfg, err := config.Parse([]byte(`
router:
  retry_delay: 1ms
endpoints:
  - id: Agent-1
    location: [100, 480]
    active: true
  - id: Agent-9
    location: [500, 480]
    active: false
`))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sb, err := switchboard.New(cfg, logx.Nop(), switchboard.Opts{Automator: nopAutomator{}, DB: gdb})
	if err != nil {
		t.Fatalf("switchboard.New: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerRoutes(router, sb)
	return router, sb
}

func doRequest(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router, _ := newTestServer(t)
	w := doRequest(t, router, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	router, sb := newTestServer(t)
	if _, err := sb.Send(context.Background(), "s", "Agent-1", "hi", message.PriorityNormal, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	w := doRequest(t, router, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		Endpoints []switchboard.EndpointStatus `json:"endpoints"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Endpoints) != 2 {
		t.Fatalf("endpoints = %d, want 2", len(body.Endpoints))
	}
	if body.Endpoints[0].ID != "Agent-1" || body.Endpoints[0].LastResult == nil {
		t.Errorf("endpoints[0] = %+v", body.Endpoints[0])
	}
}

func TestInboxEndpoint(t *testing.T) {
	router, sb := newTestServer(t)
	// Inactive target: delivery lands in the fallback inbox.
	if _, err := sb.Send(context.Background(), "s", "Agent-9", "stored", message.PriorityNormal, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	w := doRequest(t, router, "/api/inbox/Agent-9")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Endpoint string `json:"endpoint"`
		Entries  []struct {
			Payload string `json:"Payload"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(body.Entries))
	}
}

func TestInboxEndpoint_UnknownEndpoint(t *testing.T) {
	router, _ := newTestServer(t)
	w := doRequest(t, router, "/api/inbox/Agent-404")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestSetActiveEndpoint(t *testing.T) {
	router, sb := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/endpoints/Agent-9/active",
		strings.NewReader(`{"active": true}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	ep, err := sb.Registry().Get("Agent-9")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ep.Active {
		t.Error("Agent-9 still inactive after activation")
	}
}

func TestSetActiveEndpoint_Unknown(t *testing.T) {
	router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/endpoints/Agent-404/active",
		strings.NewReader(`{"active": false}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
