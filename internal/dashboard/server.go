// Package dashboard serves the read-only status API for the daemon.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/switchboard/internal/channel"
	"github.com/zulandar/switchboard/internal/switchboard"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Switchboard *switchboard.Switchboard
	Port        int
	Out         io.Writer
}

// Start launches the status HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Switchboard == nil {
		return fmt.Errorf("dashboard: switchboard is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, opts.Switchboard)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Status API running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

func registerRoutes(router *gin.Engine, sb *switchboard.Switchboard) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"endpoints": sb.Status()})
	})

	router.POST("/api/endpoints/:endpoint/active", func(c *gin.Context) {
		endpointID := c.Param("endpoint")
		var body struct {
			Active bool `json:"active"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := sb.SetActive(endpointID, body.Active); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"endpoint": endpointID, "active": body.Active})
	})

	router.GET("/api/inbox/:endpoint", func(c *gin.Context) {
		endpointID := c.Param("endpoint")
		if _, err := sb.Registry().Get(endpointID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		entries, err := channel.Inbox(sb.DB(), endpointID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"endpoint": endpointID, "entries": entries})
	})
}
